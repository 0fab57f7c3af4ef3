package commands

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"clubstats/internal/cli"
	"clubstats/internal/core"
	"clubstats/internal/dataset"
	"clubstats/internal/log"
	"clubstats/internal/sheets"
	"clubstats/internal/sheets/excel"
	"clubstats/internal/sheets/memory"
)

const (
	formatXLSX = "xlsx"
	formatCSV  = "csv"
)

type source struct {
	reader sheets.TableReader
	path   func(core.DatasetTag) string
}

func runCmd() *cobra.Command {
	var (
		format  string
		dir     string
		files   excel.Files
		sheet   string
		aliases string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Validate the three datasets and replace their rows in SQLite",
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := openSource(format, dir, files, sheet)
			if err != nil {
				return err
			}
			return runImport(cmd.Context(), src, aliases)
		},
	}

	cmd.Flags().StringVar(&format, "format", formatXLSX, "source format: xlsx or csv")
	cmd.Flags().StringVar(&dir, "dir", cfg.DataDir, "directory holding the source files")
	cmd.Flags().StringVar(&files.Roster, "roster", cfg.RosterFile, "roster workbook (xlsx only)")
	cmd.Flags().StringVar(&files.Membership, "membership", cfg.MembershipFile, "yearly membership workbook (xlsx only)")
	cmd.Flags().StringVar(&files.Sessions, "sessions", cfg.SessionsFile, "average reading session workbook (xlsx only)")
	cmd.Flags().StringVar(&sheet, "sheet", cfg.ExcelSheet, "sheet to read, default the first (xlsx only)")
	cmd.Flags().StringVar(&aliases, "aliases", cfg.ClubAliasesFile, "club alias YAML used for validation")
	return cmd
}

func openSource(format, dir string, files excel.Files, sheet string) (source, error) {
	switch format {
	case formatXLSX:
		r := excel.New(dir, files, sheet)
		return source{reader: r, path: r.Path}, nil
	case formatCSV:
		s, err := memory.NewFromFiles(dir)
		if err != nil {
			return source{}, err
		}
		return source{
			reader: s,
			path: func(tag core.DatasetTag) string {
				return filepath.Join(dir, memory.FileNames[tag])
			},
		}, nil
	default:
		return source{}, fmt.Errorf("unknown format %q, want %s or %s", format, formatXLSX, formatCSV)
	}
}

// runImport reads every table before touching the database so a file with
// missing columns leaves the previous import in place.
func runImport(ctx context.Context, src source, aliases string) error {
	tables := make(map[core.DatasetTag]sheets.Table, len(core.AllDatasets))
	for _, tag := range core.AllDatasets {
		t, err := src.reader.ReadTable(ctx, tag)
		if err != nil {
			return fmt.Errorf("read %s dataset: %w", tag, err)
		}
		tables[tag] = t
	}

	normalizer := cli.InitNormalizer(logger, aliases)
	store, err := dataset.Load(normalizer,
		tables[core.DatasetRoster], tables[core.DatasetMembership], tables[core.DatasetSessions])
	if err != nil {
		return err
	}
	dataLog := log.NewStructuredLogger(logger)
	for _, w := range store.Warnings() {
		dataLog.LogDataWarning(ctx, string(w.Kind), string(w.Dataset), w.Club, w.Row, w.Detail)
	}

	repo := cli.InitSQLite(logger, dbPath)
	defer repo.Close()

	for _, tag := range core.AllDatasets {
		n, err := repo.Import(ctx, tag, tables[tag], src.path(tag))
		if err != nil {
			dataLog.LogError(ctx, "SQLite import failed", err, log.ComponentStorage, log.OpImport,
				log.LogFields{"error_type": log.ErrorTypeDatabase, log.FieldDataset: string(tag)})
			return fmt.Errorf("import %s dataset: %w", tag, err)
		}
		logger.Info("Imported dataset",
			log.FieldDataset, string(tag),
			"rows", n,
			"source", src.path(tag))
	}
	logger.Info("Import complete",
		"db", dbPath,
		"clubs", len(store.Universe()),
		"warnings", len(store.Warnings()))
	return nil
}
