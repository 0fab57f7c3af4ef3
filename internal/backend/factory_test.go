package backend

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"clubstats/internal/config"
	"clubstats/internal/core"
	"clubstats/internal/sheets/excel"
	"clubstats/internal/sheets/memory"
	"clubstats/internal/storage"
)

func TestFromAppConfig(t *testing.T) {
	if _, err := FromAppConfig(nil); err == nil {
		t.Fatal("expected error for nil config")
	}
	if _, err := FromAppConfig(&config.Config{DataBackend: "postgres"}); err == nil {
		t.Fatal("expected error for unknown backend")
	}

	cfg, err := FromAppConfig(&config.Config{
		DataBackend:    "excel",
		DataDir:        "in",
		RosterFile:     "r.xlsx",
		MembershipFile: "m.xlsx",
		SessionsFile:   "s.xlsx",
	})
	if err != nil {
		t.Fatalf("FromAppConfig: %v", err)
	}
	if cfg.Type != ExcelBackend || cfg.DataDirectory != "in" || cfg.SessionsFile != "s.xlsx" {
		t.Fatalf("unexpected config %+v", cfg)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"memory", Config{Type: MemoryBackend}, false},
		{"excel missing files", Config{Type: ExcelBackend, RosterFile: "r"}, true},
		{"sqlite missing path", Config{Type: SQLiteBackend}, true},
		{"sheets missing id", Config{Type: SheetsBackend, RosterSheetName: "a", MembershipSheetName: "b", SessionsSheetName: "c"}, true},
		{"sheets missing tab", Config{Type: SheetsBackend, GoogleSpreadsheetID: "id", RosterSheetName: "a"}, true},
		{"invalid", Config{Type: "nope"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestBackendTypeStrings(t *testing.T) {
	got := GetBackendTypeStrings()
	if len(got) != 4 || got[0] != "memory" || got[3] != "sqlite" {
		t.Fatalf("GetBackendTypeStrings() = %v", got)
	}
}

func TestCreateBackend(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "roster.csv"), []byte("Reading club,Number of males,Number of females,Total\nA,1,1,2\n"), 0644); err != nil {
		t.Fatal(err)
	}
	f := NewFactory(nil)
	ctx := context.Background()

	res, err := f.CreateBackend(ctx, Config{Type: MemoryBackend, DataDirectory: dir})
	if err != nil {
		t.Fatalf("memory backend: %v", err)
	}
	if _, ok := res.Backend.(*memory.Store); !ok {
		t.Fatalf("memory backend is %T", res.Backend)
	}
	tbl, err := res.Backend.ReadTable(ctx, core.DatasetRoster)
	if err != nil || len(tbl.Rows) != 1 {
		t.Fatalf("roster = %+v, err = %v", tbl, err)
	}

	res, err = f.CreateBackend(ctx, Config{Type: ExcelBackend, DataDirectory: dir, RosterFile: "r", MembershipFile: "m", SessionsFile: "s"})
	if err != nil {
		t.Fatalf("excel backend: %v", err)
	}
	if _, ok := res.Backend.(*excel.Reader); !ok {
		t.Fatalf("excel backend is %T", res.Backend)
	}

	res, err = f.CreateBackend(ctx, Config{Type: SQLiteBackend, SQLiteDBPath: filepath.Join(dir, "db", "c.db")})
	if err != nil {
		t.Fatalf("sqlite backend: %v", err)
	}
	if _, ok := res.Backend.(*storage.SQLiteRepository); !ok || res.Cleanup == nil {
		t.Fatalf("sqlite backend is %T", res.Backend)
	}
	if err := res.Cleanup(); err != nil {
		t.Fatalf("cleanup: %v", err)
	}

	if _, err := f.CreateBackend(ctx, Config{Type: "nope"}); err == nil {
		t.Fatal("expected error for invalid type")
	}
}
