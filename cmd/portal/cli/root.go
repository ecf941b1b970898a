package cli

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/bemfst/portal/internal/config"
)

var (
	cfgFile    string
	serverURL  string
	appVersion string // set in Execute, reported by serve and /openapi.json
)

// Execute creates the root command tree and runs it.
func Execute(version, commit, date string) error {
	appVersion = version
	rootCmd := newRootCmd(version, commit, date)
	return rootCmd.Execute()
}

func newRootCmd(version, commit, date string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "portal",
		Short: "Admin API for the BEM FST website",
		Long: `Portal: the admin API behind the BEM FST website.

It authenticates the site administrator, issues short-lived bearer tokens,
throttles abusive clients and keeps an audit trail of every administrative
action. The same binary is a command-line client for that API.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./portal.yaml)")
	cmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "data directory for the SQLite database and the CLI session (default: ~/.portal)")
	cmd.PersistentFlags().StringVar(&serverURL, "url", "", "portal server URL for client commands (default: $PORTAL_URL or http://127.0.0.1:8080)")

	cobra.OnInitialize(initConfig)

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newVersionCmd(version, commit, date))
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newAdminCmd())
	cmd.AddCommand(newOpenAPICmd())
	cmd.AddCommand(newLoginCmd())
	cmd.AddCommand(newLogoutCmd())
	cmd.AddCommand(newWhoamiCmd())
	cmd.AddCommand(newLogsCmd())

	return cmd
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("portal")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.portal")
	}

	config.Defaults(viper.GetViper())
	viper.ReadInConfig() // Ignore error - config file is optional
}
