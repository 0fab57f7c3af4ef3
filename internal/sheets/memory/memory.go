package memory

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"clubstats/internal/core"
	ports "clubstats/internal/sheets"
)

// File names read by NewFromFiles.
var FileNames = map[core.DatasetTag]string{
	core.DatasetRoster:     "roster.csv",
	core.DatasetMembership: "membership.csv",
	core.DatasetSessions:   "sessions.csv",
}

// Store serves tables held in memory.
type Store struct {
	mu     sync.RWMutex
	tables map[core.DatasetTag]ports.Table
}

var _ ports.TableReader = (*Store)(nil)

func New(tables map[core.DatasetTag]ports.Table) *Store {
	s := &Store{tables: make(map[core.DatasetTag]ports.Table, len(tables))}
	for tag, t := range tables {
		s.tables[tag] = t
	}
	return s
}

// NewFromFiles reads roster.csv, membership.csv and sessions.csv from base.
// A missing file yields an empty table, which fails the column check on load.
func NewFromFiles(base string) (*Store, error) {
	tables := make(map[core.DatasetTag]ports.Table, len(FileNames))
	for tag, name := range FileNames {
		path := filepath.Join(base, name)
		t, err := ReadCSVFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			tables[tag] = ports.Table{Name: name}
			continue
		}
		if err != nil {
			return nil, err
		}
		tables[tag] = t
	}
	return New(tables), nil
}

// ReadCSVFile parses a CSV file into a table. Rows may have differing
// lengths.
func ReadCSVFile(path string) (ports.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return ports.Table{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	t, err := ReadCSV(filepath.Base(path), f)
	if err != nil {
		return ports.Table{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return t, nil
}

// ReadCSV parses CSV from r. Cell text is kept verbatim.
func ReadCSV(name string, r io.Reader) (ports.Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	rows, err := cr.ReadAll()
	if err != nil {
		return ports.Table{}, err
	}
	return ports.FromRows(name, rows), nil
}

// Put replaces the table for dataset.
func (s *Store) Put(dataset core.DatasetTag, t ports.Table) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables[dataset] = t
}

// ReadTable returns a copy of the stored table.
func (s *Store) ReadTable(_ context.Context, dataset core.DatasetTag) (ports.Table, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tables[dataset]
	if !ok {
		return ports.Table{}, fmt.Errorf("no %s table loaded", dataset)
	}
	out := ports.Table{Name: t.Name, Header: append([]string(nil), t.Header...)}
	out.Rows = make([][]string, len(t.Rows))
	for i, row := range t.Rows {
		out.Rows[i] = append([]string(nil), row...)
	}
	return out, nil
}
