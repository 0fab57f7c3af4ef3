package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"clubstats/internal/core"
	ports "clubstats/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// valuesGetter is the slice of the Sheets API the client needs.
type valuesGetter interface {
	get(ctx context.Context, spreadsheetID, rng string) ([][]interface{}, error)
}

type serviceGetter struct {
	svc *gsheet.Service
}

func (s serviceGetter) get(ctx context.Context, spreadsheetID, rng string) ([][]interface{}, error) {
	resp, err := s.svc.Spreadsheets.Values.Get(spreadsheetID, rng).
		ValueRenderOption("UNFORMATTED_VALUE").
		Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return resp.Values, nil
}

// Client reads the three club datasets from tabs of one spreadsheet.
type Client struct {
	values        valuesGetter
	spreadsheetID string
	tabs          map[core.DatasetTag]string
}

var _ ports.TableReader = (*Client)(nil)

// Tabs names the sheet tab holding each dataset.
type Tabs struct {
	Roster     string
	Membership string
	Sessions   string
}

// New creates a Sheets client using Service Account credentials from the
// environment.
func New(ctx context.Context, spreadsheetID string, tabs Tabs) (*Client, error) {
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return newClient(serviceGetter{svc: svc}, spreadsheetID, tabs), nil
}

func newClient(values valuesGetter, spreadsheetID string, tabs Tabs) *Client {
	return &Client{
		values:        values,
		spreadsheetID: spreadsheetID,
		tabs: map[core.DatasetTag]string{
			core.DatasetRoster:     tabs.Roster,
			core.DatasetMembership: tabs.Membership,
			core.DatasetSessions:   tabs.Sessions,
		},
	}
}

// newSheetsService initializes a read-only Sheets Service using Service Account credentials.
// Uses GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS.
func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	var err error

	switch {
	case serviceAccountJSON != "":
		slog.InfoContext(ctx, "Using inline JSON credentials")
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		slog.InfoContext(ctx, "Reading credentials from file", "path", serviceAccountFile)
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsReadonlyScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// ReadTable fetches the whole tab for dataset. The first non-blank row is
// the header.
func (c *Client) ReadTable(ctx context.Context, dataset core.DatasetTag) (ports.Table, error) {
	if c.values == nil {
		return ports.Table{}, errors.New("sheets service not initialized")
	}
	tab, ok := c.tabs[dataset]
	if !ok || tab == "" {
		return ports.Table{}, fmt.Errorf("no sheet configured for %s dataset", dataset)
	}
	values, err := c.values.get(ctx, c.spreadsheetID, quoteTab(tab))
	if err != nil {
		return ports.Table{}, fmt.Errorf("read %s: %w", tab, err)
	}
	rows := make([][]string, len(values))
	for i, row := range values {
		rows[i] = toStrings(row)
	}
	return ports.FromRows(tab, rows), nil
}

// quoteTab returns an A1 range covering every cell of tab. Tab names with
// spaces need single quotes.
func quoteTab(tab string) string {
	return "'" + strings.ReplaceAll(tab, "'", "''") + "'"
}

// toStrings keeps cell text verbatim; club names rely on their spacing.
func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		if v == nil {
			continue
		}
		out[i] = fmt.Sprint(v)
	}
	return out
}
