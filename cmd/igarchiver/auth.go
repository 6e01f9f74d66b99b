package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"igarchiver/pkg/auth"
	"igarchiver/pkg/ui"
)

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage stored session cookies",
	Long: `Manage the session cookies used for private or rate-limited profiles.

Accounts are kept in the system keychain when one is available, otherwise
in an encrypted file under the user config directory. IGARCHIVER_SESSION_ID
and IGARCHIVER_CSRF_TOKEN are read as a last resort.`,
}

var authLoginCmd = &cobra.Command{
	Use:   "login [username]",
	Short: "Store session cookies for an account",
	Example: `  # Interactive login
  igarchiver auth login

  # Then archive with it
  igarchiver archive alice --account myusername`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogin,
}

var authListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored accounts, newest first",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout <username>",
	Short: "Remove a stored account",
	Args:  cobra.ExactArgs(1),
	RunE:  runLogout,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(authLoginCmd)
	authCmd.AddCommand(authListCmd)
	authCmd.AddCommand(authLogoutCmd)
}

func runLogin(cmd *cobra.Command, args []string) error {
	manager := auth.NewDefaultManager()

	out := cmd.OutOrStdout()
	reader := bufio.NewReader(cmd.InOrStdin())

	auth.WriteCookieGuide(out)
	fmt.Fprintln(out)

	var username string
	if len(args) > 0 {
		username = args[0]
	} else {
		input, err := prompt(out, reader, "Instagram username: ")
		if err != nil {
			return err
		}
		username = input
	}
	if username == "" {
		return errors.New("username is required")
	}

	if existing, _ := manager.Retrieve(username); existing != nil {
		answer, _ := prompt(out, reader, fmt.Sprintf("Account '%s' already exists. Replace it? (y/N): ", username))
		if !strings.HasPrefix(strings.ToLower(answer), "y") {
			return nil
		}
	}

	sessionID, err := promptSecret(out, reader, "sessionid: ")
	if err != nil {
		return err
	}
	csrfToken, err := promptSecret(out, reader, "csrftoken: ")
	if err != nil {
		return err
	}
	userAgent, _ := prompt(out, reader, "User agent (Enter for default): ")

	account := &auth.Account{
		Username:  username,
		SessionID: sessionID,
		CSRFToken: csrfToken,
		UserAgent: userAgent,
	}
	if err := manager.Store(account); err != nil {
		return fmt.Errorf("failed to store credentials: %w", err)
	}

	ui.PrintSuccess("Account saved: " + username)
	fmt.Fprintf(out, "\nUse it with:\n  igarchiver archive <profile> --account %s\n", username)
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	manager := auth.NewDefaultManager()

	accounts, err := manager.List()
	if err != nil {
		return fmt.Errorf("failed to list accounts: %w", err)
	}
	if len(accounts) == 0 {
		ui.PrintInfo("No stored accounts", "use 'igarchiver auth login' to add one")
		return nil
	}

	out := cmd.OutOrStdout()
	for i, account := range accounts {
		sanitized := auth.SanitizeAccount(account)
		fmt.Fprintf(out, "%d. %s\n", i+1, sanitized.Username)
		fmt.Fprintf(out, "   Session ID: %s\n", sanitized.SessionID)
		fmt.Fprintf(out, "   CSRF Token: %s\n", sanitized.CSRFToken)
		if !sanitized.LastModified.IsZero() {
			fmt.Fprintf(out, "   Modified:   %s\n", sanitized.LastModified.Format("2006-01-02 15:04:05"))
		}
	}
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	manager := auth.NewDefaultManager()

	if err := manager.Delete(args[0]); err != nil {
		return fmt.Errorf("failed to remove account: %w", err)
	}
	ui.PrintSuccess("Account removed: " + args[0])
	return nil
}

func prompt(out io.Writer, reader *bufio.Reader, label string) (string, error) {
	fmt.Fprint(out, label)
	input, err := reader.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && input != "") {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(input), nil
}

// promptSecret reads without echo when stdin is a terminal
func promptSecret(out io.Writer, reader *bufio.Reader, label string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		value, err := prompt(out, reader, label)
		if err == nil && value == "" {
			err = errors.New("value is required")
		}
		return value, err
	}

	fmt.Fprint(out, label)
	value, err := term.ReadPassword(fd)
	fmt.Fprintln(out)
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	if len(value) == 0 {
		return "", errors.New("value is required")
	}
	return strings.TrimSpace(string(value)), nil
}
