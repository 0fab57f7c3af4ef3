package backend

import (
	"context"

	"clubstats/internal/sheets"
)

// Backend is a source of the three raw club datasets.
type Backend interface {
	sheets.TableReader
}

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the backend instance and optional cleanup function
type BackendResult struct {
	Backend Backend
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	// CreateBackend creates a backend instance based on the provided config
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	// Backend type
	Type BackendType

	// Memory and excel
	DataDirectory  string
	RosterFile     string
	MembershipFile string
	SessionsFile   string
	ExcelSheet     string

	// SQLite specific
	SQLiteDBPath string

	// Google Sheets specific
	GoogleSpreadsheetID string
	RosterSheetName     string
	MembershipSheetName string
	SessionsSheetName   string
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	SheetsBackend BackendType = "sheets"
	ExcelBackend  BackendType = "excel"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, SheetsBackend, ExcelBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
