package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/bemfst/portal/internal/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage Portal configuration",
		Long:  "Initialize a default configuration file or display the current effective configuration.",
	}

	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigShowCmd())

	return cmd
}

// ---------- config init ----------

func newConfigInitCmd() *cobra.Command {
	var (
		force bool
		path  string
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a default portal.yaml configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.WriteDefaultConfig(path, force); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Created %s\n", path)
			fmt.Fprintln(out, "Set PORTAL_AUTH_USERNAME, PORTAL_AUTH_PASSWORD_HASH and PORTAL_AUTH_JWT_SECRET, then run 'portal serve'.")
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing config file")
	cmd.Flags().StringVarP(&path, "output", "o", "portal.yaml", "Path of the file to write")

	return cmd
}

// ---------- config show ----------

func newConfigShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the current effective configuration with secrets masked",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigShow(cmd)
		},
	}

	return cmd
}

func runConfigShow(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()

	if configFile := viper.ConfigFileUsed(); configFile != "" {
		fmt.Fprintf(out, "# Config file: %s\n", configFile)
	} else {
		fmt.Fprintln(out, "# Config file: (none found, using defaults and environment)")
	}

	settings, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}
	data, err := config.MarshalYAML(settings.Redacted())
	if err != nil {
		return err
	}
	_, err = out.Write(data)
	return err
}
