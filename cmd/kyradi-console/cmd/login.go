package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kyradi/console-client/pkg/console"
)

var (
	loginEmail    string
	loginPassword string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authenticate and persist the session",
	Long: `Login authenticates against the surface-appropriate endpoint (partner,
admin, or tenant depending on --origin), persists the issued token, and
resolves the identity.

The password is read from the KYRADI_CONSOLE_PASSWORD environment
variable, the --password flag, or stdin, in that order of preference.`,
	RunE: runLogin,
}

func init() {
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "account email (required)")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "account password (prefer KYRADI_CONSOLE_PASSWORD or stdin)")
	_ = loginCmd.MarkFlagRequired("email")
	rootCmd.AddCommand(loginCmd)
}

func runLogin(cmd *cobra.Command, args []string) error {
	password, err := resolvePassword()
	if err != nil {
		return err
	}

	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.Close()

	user, err := a.Login(cmd.Context(), loginEmail, password)
	if err != nil {
		if id, ok := console.IsVerificationRequired(err); ok {
			fmt.Fprintf(os.Stderr, "phone verification required (verification id: %s)\n", id)
			fmt.Fprintln(os.Stderr, "complete verification in the console, then run login again")
			return err
		}
		return fmt.Errorf("login failed: %w", err)
	}

	fmt.Printf("logged in as %s (%s)\n", user.Email, user.Role)
	return nil
}

// resolvePassword picks the password source: env var, flag, then stdin.
func resolvePassword() (string, error) {
	if p := os.Getenv("KYRADI_CONSOLE_PASSWORD"); p != "" {
		return p, nil
	}
	if loginPassword != "" {
		return loginPassword, nil
	}

	fmt.Fprint(os.Stderr, "password: ")
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return "", errors.New("password is required")
	}
	return password, nil
}
