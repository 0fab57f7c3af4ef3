package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"clubstats/internal/core"
	"clubstats/internal/dataset"
	"clubstats/internal/sheets"

	_ "modernc.org/sqlite"
)

// tableDef maps a dataset to its SQL table. Columns follow
// dataset.RequiredColumns order, club name first.
type tableDef struct {
	table   string
	columns []string
	float   bool
}

var datasetTables = map[core.DatasetTag]tableDef{
	core.DatasetRoster:     {table: "roster", columns: []string{"reading_club", "males", "females", "total"}},
	core.DatasetMembership: {table: "membership", columns: []string{"reading_club", "total_2023", "total_2024"}},
	core.DatasetSessions:   {table: "sessions", columns: []string{"reading_club", "average_2023", "average_2024"}, float: true},
}

// ImportInfo describes the last import of a dataset.
type ImportInfo struct {
	Dataset    core.DatasetTag
	Source     string
	RowCount   int
	ImportedAt time.Time
}

// SQLiteRepository stores the three club datasets in SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

var _ sheets.TableReader = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping checks the database connection.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Import replaces the stored rows of dataset with the rows of t. Blank rows
// are dropped; club names are stored verbatim and numeric cells that do not
// parse are stored as NULL.
func (r *SQLiteRepository) Import(ctx context.Context, tag core.DatasetTag, t sheets.Table, source string) (int, error) {
	def, ok := datasetTables[tag]
	if !ok {
		return 0, fmt.Errorf("unknown dataset %q", tag)
	}
	idx := make([]int, 0, len(def.columns))
	loadErr := &core.LoadError{}
	for _, name := range dataset.RequiredColumns[tag] {
		i := t.Column(name)
		if i < 0 {
			loadErr.Add(tag, name)
		}
		idx = append(idx, i)
	}
	if !loadErr.Empty() {
		return 0, loadErr
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin import: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM "+def.table); err != nil {
		return 0, fmt.Errorf("clear %s: %w", def.table, err)
	}

	stmt, err := tx.PrepareContext(ctx, insertSQL(def))
	if err != nil {
		return 0, fmt.Errorf("prepare insert into %s: %w", def.table, err)
	}
	defer stmt.Close()

	count := 0
	for _, row := range t.Rows {
		if sheets.IsBlank(row) {
			continue
		}
		args := make([]any, len(idx))
		args[0] = sheets.Cell(row, idx[0])
		for j := 1; j < len(idx); j++ {
			args[j] = numeric(sheets.Cell(row, idx[j]), def.float)
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return 0, fmt.Errorf("insert into %s: %w", def.table, err)
		}
		count++
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO dataset_imports (dataset, source, row_count, imported_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(dataset) DO UPDATE SET source = excluded.source, row_count = excluded.row_count, imported_at = excluded.imported_at`,
		string(tag), source, count, time.Now().UTC()); err != nil {
		return 0, fmt.Errorf("record import: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit import: %w", err)
	}

	slog.InfoContext(ctx, "Dataset imported to SQLite",
		"dataset", tag,
		"rows", count,
		"source", source)

	return count, nil
}

// ReadTable implements sheets.TableReader. The header uses the source
// column names so the rows load like any other backend.
func (r *SQLiteRepository) ReadTable(ctx context.Context, tag core.DatasetTag) (sheets.Table, error) {
	def, ok := datasetTables[tag]
	if !ok {
		return sheets.Table{}, fmt.Errorf("unknown dataset %q", tag)
	}
	rows, err := r.db.QueryContext(ctx, selectSQL(def))
	if err != nil {
		return sheets.Table{}, fmt.Errorf("query %s: %w", def.table, err)
	}
	defer rows.Close()

	t := sheets.Table{
		Name:   def.table,
		Header: append([]string(nil), dataset.RequiredColumns[tag]...),
	}
	for rows.Next() {
		var club string
		out := make([]string, len(def.columns))
		if def.float {
			var a, b sql.NullFloat64
			if err := rows.Scan(&club, &a, &b); err != nil {
				return sheets.Table{}, fmt.Errorf("scan %s: %w", def.table, err)
			}
			out[1], out[2] = formatFloat(a), formatFloat(b)
		} else {
			vals := make([]sql.NullInt64, len(def.columns)-1)
			dest := []any{&club}
			for i := range vals {
				dest = append(dest, &vals[i])
			}
			if err := rows.Scan(dest...); err != nil {
				return sheets.Table{}, fmt.Errorf("scan %s: %w", def.table, err)
			}
			for i, v := range vals {
				out[i+1] = formatInt(v)
			}
		}
		out[0] = club
		t.Rows = append(t.Rows, out)
	}
	if err := rows.Err(); err != nil {
		return sheets.Table{}, fmt.Errorf("iterate %s: %w", def.table, err)
	}
	return t, nil
}

// LastImport returns the import record for dataset, or false if it was never
// imported.
func (r *SQLiteRepository) LastImport(ctx context.Context, tag core.DatasetTag) (ImportInfo, bool, error) {
	info := ImportInfo{Dataset: tag}
	err := r.db.QueryRowContext(ctx,
		"SELECT source, row_count, imported_at FROM dataset_imports WHERE dataset = ?", string(tag)).
		Scan(&info.Source, &info.RowCount, &info.ImportedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return info, false, nil
	}
	if err != nil {
		return info, false, fmt.Errorf("get import record: %w", err)
	}
	return info, true, nil
}

func insertSQL(def tableDef) string {
	q := "INSERT INTO " + def.table + " ("
	v := ""
	for i, c := range def.columns {
		if i > 0 {
			q += ", "
			v += ", "
		}
		q += c
		v += "?"
	}
	return q + ") VALUES (" + v + ")"
}

func selectSQL(def tableDef) string {
	q := "SELECT "
	for i, c := range def.columns {
		if i > 0 {
			q += ", "
		}
		q += c
	}
	return q + " FROM " + def.table + " ORDER BY id"
}

func numeric(cell string, float bool) any {
	if float {
		if f, ok := core.ParseAverage(cell); ok {
			return f
		}
		return nil
	}
	if n, ok := core.ParseCount(cell); ok {
		return n
	}
	return nil
}

func formatInt(v sql.NullInt64) string {
	if !v.Valid {
		return ""
	}
	return strconv.FormatInt(v.Int64, 10)
}

func formatFloat(v sql.NullFloat64) string {
	if !v.Valid {
		return ""
	}
	return strconv.FormatFloat(v.Float64, 'f', -1, 64)
}
