// Package commands implements the clubstats-import command line.
package commands

import (
	"github.com/spf13/cobra"

	"clubstats/internal/cli"
	"clubstats/internal/config"
	"clubstats/internal/log"
)

var (
	cfg    *config.Config
	logger *log.Logger

	dbPath   string
	logLevel string
)

func Execute() error {
	cli.LoadEnvFile()
	cfg = config.Load()

	root := &cobra.Command{
		Use:           "clubstats-import",
		Short:         "Load the reading club spreadsheets into SQLite",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger = cli.SetupLogger(log.ComponentImport, logLevel)
		},
	}

	root.PersistentFlags().StringVar(&dbPath, "db", cfg.SQLiteDBPath, "SQLite database path")
	root.PersistentFlags().StringVar(&logLevel, "log-level", cfg.LogLevel, "debug, info, warn or error")

	root.AddCommand(runCmd(), statusCmd())

	err := root.Execute()
	if err != nil {
		if logger == nil {
			logger = cli.SetupLogger(log.ComponentImport, logLevel)
		}
		logger.Error("Import failed", log.FieldError, err)
	}
	return err
}
