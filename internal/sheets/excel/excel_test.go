package excel

import (
	"context"
	"path/filepath"
	"testing"

	"clubstats/internal/clubname"
	"clubstats/internal/core"
	"clubstats/internal/dataset"

	"github.com/xuri/excelize/v2"
)

func writeWorkbook(t *testing.T, path, sheet string, rows [][]interface{}) {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	if sheet != "Sheet1" {
		if _, err := f.NewSheet(sheet); err != nil {
			t.Fatalf("new sheet: %v", err)
		}
		if err := f.DeleteSheet("Sheet1"); err != nil {
			t.Fatalf("delete sheet: %v", err)
		}
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		r := row
		if err := f.SetSheetRow(sheet, cell, &r); err != nil {
			t.Fatalf("set row: %v", err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save %s: %v", path, err)
	}
}

func TestReadTableFeedsStore(t *testing.T) {
	dir := t.TempDir()
	writeWorkbook(t, filepath.Join(dir, "Membership.xlsx"), "Sheet1", [][]interface{}{
		{"Reading club", "Number of males", "Number of females", "Total"},
		{"Mankranso community reading club", 10, 8, 18},
		{"Boatengkrom community reading club", 5, 7, 12},
	})
	writeWorkbook(t, filepath.Join(dir, "Yearly membership.xlsx"), "Data", [][]interface{}{
		{"Reading Club", "2023 Total Membership", "2024 Total Membership"},
		{"Boatenkrom", 11, 13},
	})
	writeWorkbook(t, filepath.Join(dir, "Average reading session.xlsx"), "Sheet1", [][]interface{}{
		{"Reading Club", "2023 Average reading session", "2024 Average reading session"},
		{"Mankranso", 2.5, 3.25},
	})

	r := New(dir, Files{
		Roster:     "Membership.xlsx",
		Membership: "Yearly membership.xlsx",
		Sessions:   "Average reading session.xlsx",
	}, "")

	roster, err := r.ReadTable(context.Background(), core.DatasetRoster)
	if err != nil {
		t.Fatalf("read roster: %v", err)
	}
	if len(roster.Rows) != 2 || roster.Rows[0][1] != "10" {
		t.Fatalf("roster rows = %q", roster.Rows)
	}

	store, err := dataset.LoadFrom(context.Background(), r, clubname.New(clubname.DefaultConfig()))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(store.Universe()) != 2 {
		t.Fatalf("universe = %q", store.Universe())
	}
	if m := store.MembershipFor("Boatengkrom  reading club"); len(m) != 1 || m[0].Total2024 != 13 {
		t.Fatalf("membership = %+v", m)
	}
	if s := store.SessionsFor("Mankranso  reading club"); len(s) != 1 || s[0].Average2024 != 3.25 {
		t.Fatalf("sessions = %+v", s)
	}
}

func TestReadFileNamedSheet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "book.xlsx")
	writeWorkbook(t, path, "Yearly", [][]interface{}{{"Reading Club"}, {"A"}})

	if _, err := ReadFile(path, "Missing"); err == nil {
		t.Fatalf("expected error for missing sheet")
	}
	tbl, err := ReadFile(path, "Yearly")
	if err != nil || len(tbl.Rows) != 1 || tbl.Name != "book.xlsx" {
		t.Fatalf("table = %+v, err = %v", tbl, err)
	}
}

func TestReadTableMissingWorkbook(t *testing.T) {
	r := New(t.TempDir(), Files{Roster: "nope.xlsx"}, "")
	if _, err := r.ReadTable(context.Background(), core.DatasetRoster); err == nil {
		t.Fatalf("expected open error")
	}
	if _, err := r.ReadTable(context.Background(), core.DatasetSessions); err == nil {
		t.Fatalf("expected error for unconfigured workbook")
	}
}
