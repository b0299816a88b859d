package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/kyradi/console-client/pkg/console"
)

var whoamiOutput string

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Print the current identity",
	Long: `Whoami runs the session bootstrap (adopting any persisted token) and
prints the resolved identity. Exits non-zero when no session exists.`,
	RunE: runWhoami,
}

func init() {
	whoamiCmd.Flags().StringVarP(&whoamiOutput, "output", "o", "text", "output format: text, json, or yaml")
	rootCmd.AddCommand(whoamiCmd)
}

func runWhoami(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.Close()

	a.Bootstrap(cmd.Context())

	st := a.State()
	if st.Phase != console.PhaseAuthenticated {
		return errors.New("not logged in")
	}

	switch whoamiOutput {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(st.User)
	case "yaml":
		return yaml.NewEncoder(os.Stdout).Encode(st.User)
	case "text":
		fmt.Printf("%s (%s)\n", st.User.Email, st.User.Role)
		if st.User.TenantID != "" {
			fmt.Printf("  tenant: %s\n", st.User.TenantID)
		}
		return nil
	default:
		return fmt.Errorf("unknown output format %q", whoamiOutput)
	}
}
