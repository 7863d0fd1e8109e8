// ABOUTME: Root cobra command for the orgmap binary
// ABOUTME: Loads configuration once and hands the logger and store settings to every subcommand
package cli

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/harperreed/orgmap/config"
)

// app is the state shared by subcommands once the root pre-run has loaded it.
type app struct {
	version string
	cfg     *config.Config
	log     *logrus.Logger
}

// NewRootCmd builds the command tree.
func NewRootCmd(version string) *cobra.Command {
	a := &app{version: version}
	var dbPath string

	cmd := &cobra.Command{
		Use:           "orgmap",
		Short:         "Account org charts: REST API, MCP server and terminal browser",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return withCode(exitUsage, err)
			}
			if dbPath != "" {
				cfg.DBPath = dbPath
			}
			a.cfg = cfg
			a.log = cfg.NewLogger()
			return nil
		},
	}
	cmd.PersistentFlags().StringVar(&dbPath, "db-path", "", "SQLite database path (overrides ORGMAP_DB_PATH)")

	cmd.AddCommand(newServeCmd(a))
	cmd.AddCommand(newMCPCmd(a))
	cmd.AddCommand(newTUICmd(a))
	cmd.AddCommand(newImportCmd(a))
	cmd.AddCommand(newCheckCmd(a))
	cmd.AddCommand(newGraphCmd(a))
	cmd.AddCommand(newTokenCmd(a))
	cmd.AddCommand(newMigrateCmd(a))
	return cmd
}

// Execute runs the command tree and exits with the mapped status on failure.
func Execute(version string) {
	if err := NewRootCmd(version).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(ExitCode(err))
	}
}
