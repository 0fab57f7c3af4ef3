// Package excel reads the club datasets from xlsx workbooks.
package excel

import (
	"context"
	"fmt"
	"path/filepath"

	"clubstats/internal/core"
	ports "clubstats/internal/sheets"

	"github.com/xuri/excelize/v2"
)

// Files names the workbook holding each dataset.
type Files struct {
	Roster     string
	Membership string
	Sessions   string
}

// Reader opens one workbook per dataset.
type Reader struct {
	dir   string
	sheet string
	files map[core.DatasetTag]string
}

var _ ports.TableReader = (*Reader)(nil)

// New returns a Reader for workbooks in dir. An empty sheet reads the first
// sheet of each workbook.
func New(dir string, files Files, sheet string) *Reader {
	return &Reader{
		dir:   dir,
		sheet: sheet,
		files: map[core.DatasetTag]string{
			core.DatasetRoster:     files.Roster,
			core.DatasetMembership: files.Membership,
			core.DatasetSessions:   files.Sessions,
		},
	}
}

// Path returns the workbook path for dataset.
func (r *Reader) Path(dataset core.DatasetTag) string {
	name := r.files[dataset]
	if name == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(r.dir, name)
}

func (r *Reader) ReadTable(ctx context.Context, dataset core.DatasetTag) (ports.Table, error) {
	path := r.Path(dataset)
	if path == "" {
		return ports.Table{}, fmt.Errorf("no workbook configured for %s dataset", dataset)
	}
	if err := ctx.Err(); err != nil {
		return ports.Table{}, err
	}
	return ReadFile(path, r.sheet)
}

// ReadFile reads sheet from the workbook at path, or its first sheet when
// sheet is empty.
func ReadFile(path, sheet string) (ports.Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return ports.Table{}, fmt.Errorf("open workbook %s: %w", path, err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return ports.Table{}, fmt.Errorf("workbook %s has no sheets", path)
		}
		sheet = sheets[0]
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return ports.Table{}, fmt.Errorf("read sheet %q of %s: %w", sheet, path, err)
	}
	return ports.FromRows(filepath.Base(path), rows), nil
}
