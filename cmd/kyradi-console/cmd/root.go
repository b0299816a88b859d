// Package cmd provides the CLI commands for the Kyradi console client.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kyradi/console-client/internal/config"
)

var (
	cfgFile string
	origin  string
	devMode bool
)

var rootCmd = &cobra.Command{
	Use:   "kyradi-console",
	Short: "Kyradi Console - headless admin console client",
	Long: `kyradi-console is a headless client for the Kyradi admin console backend.

It drives the same session lifecycle the browser console uses: login
against the surface-appropriate endpoint, identity resolution via the
/auth/me probe, token persistence, and logout.

Quick start:
  1. kyradi-console login --email you@example.com
  2. kyradi-console whoami

Configuration:
  Config is loaded from kyradi-console.yaml in the current directory,
  $HOME/.kyradi-console/, or /etc/kyradi-console/.

  Environment variables can override config values with the KYRADI_CONSOLE_ prefix.
  Example: KYRADI_CONSOLE_API_BASE_URL=https://api.staging.kyradi.com

Commands:
  login       Authenticate and persist the session
  logout      End the session
  whoami      Print the current identity
  version     Print version information`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./kyradi-console.yaml)")
	rootCmd.PersistentFlags().StringVar(&origin, "origin", "", "act as if loaded from this URL (default: https://app.<domain>/)")
	rootCmd.PersistentFlags().BoolVar(&devMode, "dev", false, "development mode: debug logging, bearer-header credentials")
}

func initConfig() {
	config.InitViper(cfgFile)
}
