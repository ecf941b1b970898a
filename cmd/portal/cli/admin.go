package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bemfst/portal/internal/service"
)

const minPasswordLength = 12

func newAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage the admin credential",
		Long:  "Tools for provisioning the single administrator account configured under auth.*.",
	}

	cmd.AddCommand(newAdminHashPasswordCmd())

	return cmd
}

// ---------- admin hash-password ----------

func newAdminHashPasswordCmd() *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "hash-password",
		Short: "Hash a password for auth.password_hash",
		Example: `  portal admin hash-password                       # prompts for the password
  export PORTAL_AUTH_PASSWORD_HASH="$(portal admin hash-password)"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				pw, err := readPassword("Password: ", true)
				if err != nil {
					return err
				}
				password = pw
			}
			if len(password) < minPasswordLength {
				return fmt.Errorf("password must be at least %d characters", minPasswordLength)
			}

			hash, err := service.HashPassword(service.DefaultArgon, password)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}

	cmd.Flags().StringVar(&password, "password", "", "Password to hash (prompted if omitted)")

	return cmd
}
