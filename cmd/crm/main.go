package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nhle/crm-console/internal/model"
)

var (
	// Global flags
	configPath string
	verbose    bool

	version = "dev"
)

// rootCmd runs the terminal UI.
var rootCmd = &cobra.Command{
	Use:   "crm",
	Short: "Browse CRM clients, projects, tasks, users, leads and activity",
	Long: `crm is a terminal console for a CRM.

Every entity has a list screen with search, filters, sorting and paging.
Data comes from the local SQLite store or, in remote mode, from the CRM
HTTP API. Configured IMAP mailboxes are polled for new leads.

Run without arguments to start the interactive console.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConsole(cmd.Context())
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "crm", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", model.DefaultConfigPath(), "Config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log at debug level")

	loginCmd.Flags().StringVar(&loginIntake, "intake", "", "Store the password of this intake mailbox instead of the API token")
	loginCmd.Flags().StringVar(&loginSecret, "secret", "", "Secret to store (prompted when empty)")
	seedCmd.Flags().BoolVar(&seedForce, "force", false, "Seed even if the store already has clients")

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig reads the config file and applies global flags.
func loadConfig() (*model.AppConfig, error) {
	cfg, err := model.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	if verbose {
		cfg.Log.Level = "debug"
	}
	return cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
