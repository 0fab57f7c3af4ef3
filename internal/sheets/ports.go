package sheets

import (
	"context"
	"strings"

	"clubstats/internal/core"
)

// Table is a parsed sheet: one header row followed by data rows.
// Cell values are kept verbatim, including surrounding whitespace.
type Table struct {
	Name   string
	Header []string
	Rows   [][]string
}

// Ports for inbound adapters.
type (
	// TableReader loads the raw table for one dataset.
	TableReader interface {
		ReadTable(ctx context.Context, dataset core.DatasetTag) (Table, error)
	}
)

// FromRows splits a values matrix into header and data rows. Leading blank
// rows are skipped; the first non-blank row is the header.
func FromRows(name string, rows [][]string) Table {
	t := Table{Name: name}
	for i, row := range rows {
		if IsBlank(row) {
			continue
		}
		t.Header = row
		t.Rows = rows[i+1:]
		break
	}
	return t
}

// Column returns the index of the header matching name, ignoring case and
// surrounding whitespace, or -1.
func (t Table) Column(name string) int {
	for i, h := range t.Header {
		if strings.EqualFold(strings.TrimSpace(h), strings.TrimSpace(name)) {
			return i
		}
	}
	return -1
}

// Cell returns row[idx] or "" when the row is short.
func Cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

// IsBlank reports whether every cell of row is empty or whitespace.
func IsBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
