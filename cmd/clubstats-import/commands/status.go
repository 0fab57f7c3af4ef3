package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"clubstats/internal/cli"
	"clubstats/internal/core"
	"clubstats/internal/storage"
)

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show when each dataset was last imported",
		RunE: func(cmd *cobra.Command, args []string) error {
			repo := cli.InitSQLite(logger, dbPath)
			defer repo.Close()

			schema, err := storage.Schema(dbPath)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema      version %d", schema.Version)
			if schema.Dirty {
				fmt.Fprint(cmd.OutOrStdout(), " (dirty)")
			}
			fmt.Fprintln(cmd.OutOrStdout())

			for _, tag := range core.AllDatasets {
				info, ok, err := repo.LastImport(cmd.Context(), tag)
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintf(cmd.OutOrStdout(), "%-11s never imported\n", tag)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%-11s %5d rows  %s  %s\n",
					tag, info.RowCount, info.ImportedAt.Local().Format(time.RFC3339), info.Source)
			}
			return nil
		},
	}
}
