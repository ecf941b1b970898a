package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/bemfst/portal/internal/client"
)

// ---------- login ----------

func newLoginCmd() *cobra.Command {
	var (
		username string
		password string
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to a portal server and keep the session",
		Example: `  portal login --username admin            # prompts for the password
  portal --url https://api.bemfst.id login`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if username == "" {
				fmt.Fprint(os.Stderr, "Username: ")
				line, err := bufio.NewReader(os.Stdin).ReadString('\n')
				if err != nil {
					return fmt.Errorf("failed to read username: %w", err)
				}
				username = strings.TrimSpace(line)
			}
			if password == "" {
				pw, err := readPassword("Password: ", false)
				if err != nil {
					return err
				}
				password = pw
			}

			c := newAPIClient()
			s, err := c.Login(cmd.Context(), username, password)
			if err != nil {
				return fmt.Errorf("login failed: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Logged in to %s as %s\n", resolveServerURL(), s.User.Username)
			if exp, err := client.TokenExpiry(s.Token); err == nil {
				fmt.Fprintf(out, "  session expires %s\n", exp.Local().Format(time.RFC1123))
			}
			fmt.Fprintf(out, "  saved to %s\n", sessionStore().Path())
			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "Admin username (prompted if omitted)")
	cmd.Flags().StringVar(&password, "password", "", "Admin password (prompted if omitted)")

	return cmd
}

// ---------- logout ----------

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Revoke the current session and forget it",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := newAPIClient().Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

// ---------- whoami ----------

func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the identity of the current session",
		RunE: func(cmd *cobra.Command, args []string) error {
			me, err := newAPIClient().Me(cmd.Context())
			if err != nil {
				return sessionError(err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (%s) on %s\n", me.Username, me.Role, resolveServerURL())
			if me.ExpiresAt != nil {
				fmt.Fprintf(out, "  session expires %s\n", me.ExpiresAt.Local().Format(time.RFC1123))
			}
			return nil
		},
	}
}

// sessionError turns a missing or rejected session into a hint to log in.
func sessionError(err error) error {
	if errors.Is(err, client.ErrNotAuthenticated) {
		return errors.New("not logged in (run 'portal login')")
	}
	return err
}
