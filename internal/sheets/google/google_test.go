package google

import (
	"context"
	"errors"
	"strings"
	"testing"

	"clubstats/internal/core"
)

type fakeValues struct {
	byRange map[string][][]interface{}
	err     error
	ranges  []string
}

func (f *fakeValues) get(_ context.Context, _ string, rng string) ([][]interface{}, error) {
	f.ranges = append(f.ranges, rng)
	if f.err != nil {
		return nil, f.err
	}
	return f.byRange[rng], nil
}

func TestNew_MissingSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), "  ", Tabs{})
	if err == nil || err.Error() != "missing GOOGLE_SPREADSHEET_ID" {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestReadTable(t *testing.T) {
	fv := &fakeValues{byRange: map[string][][]interface{}{
		"'Membership'": {
			{},
			{"Reading club", "Number of males", "Number of females", "Total"},
			{"Kunsu community reading club ", float64(10), float64(8), float64(18)},
			{"Abesewa", "3", nil},
		},
	}}
	c := newClient(fv, "sheet-id", Tabs{Roster: "Membership", Membership: "Yearly membership", Sessions: "Average reading session"})

	tbl, err := c.ReadTable(context.Background(), core.DatasetRoster)
	if err != nil {
		t.Fatalf("ReadTable: %v", err)
	}
	if tbl.Name != "Membership" || len(tbl.Header) != 4 || tbl.Header[3] != "Total" {
		t.Fatalf("unexpected header: %+v", tbl)
	}
	if len(tbl.Rows) != 2 {
		t.Fatalf("rows = %d", len(tbl.Rows))
	}
	if tbl.Rows[0][0] != "Kunsu community reading club " {
		t.Fatalf("club name must be kept verbatim, got %q", tbl.Rows[0][0])
	}
	if tbl.Rows[0][1] != "10" || tbl.Rows[1][2] != "" {
		t.Fatalf("unexpected cells: %q", tbl.Rows)
	}

	if _, err := c.ReadTable(context.Background(), core.DatasetSessions); err != nil {
		t.Fatalf("empty tab must not fail: %v", err)
	}
	if fv.ranges[1] != "'Average reading session'" {
		t.Fatalf("range = %q", fv.ranges[1])
	}
}

func TestReadTableErrors(t *testing.T) {
	c := newClient(&fakeValues{err: errors.New("boom")}, "id", Tabs{Roster: "R"})
	if _, err := c.ReadTable(context.Background(), core.DatasetRoster); err == nil || !strings.Contains(err.Error(), "boom") {
		t.Fatalf("expected wrapped API error, got %v", err)
	}
	if _, err := c.ReadTable(context.Background(), core.DatasetMembership); err == nil {
		t.Fatalf("expected error for unconfigured tab")
	}
	if _, err := (&Client{}).ReadTable(context.Background(), core.DatasetRoster); err == nil {
		t.Fatalf("expected error for uninitialized client")
	}
}

func TestQuoteTab(t *testing.T) {
	if got := quoteTab("Bob's sheet"); got != "'Bob''s sheet'" {
		t.Fatalf("quoteTab = %q", got)
	}
}
