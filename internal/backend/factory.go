package backend

import (
	"context"
	"fmt"

	"clubstats/internal/log"
	"clubstats/internal/sheets/excel"
	gsheet "clubstats/internal/sheets/google"
	"clubstats/internal/sheets/memory"
	"clubstats/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.New(log.DefaultConfig()).WithComponent(log.ComponentBackend)
	}
	return &DefaultFactory{
		logger: logger,
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case SQLiteBackend:
		return f.createSQLiteBackend(config)
	case SheetsBackend:
		return f.createSheetsBackend(ctx, config)
	case ExcelBackend:
		return f.createExcelBackend(config)
	case MemoryBackend:
		return f.createMemoryBackend(config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*BackendResult, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)

	return &BackendResult{
		Backend: repo,
		Cleanup: repo.Close,
	}, nil
}

func (f *DefaultFactory) createSheetsBackend(ctx context.Context, config Config) (*BackendResult, error) {
	cli, err := gsheet.New(ctx, config.GoogleSpreadsheetID, gsheet.Tabs{
		Roster:     config.RosterSheetName,
		Membership: config.MembershipSheetName,
		Sessions:   config.SessionsSheetName,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}

	f.logger.Info("Initialized Google Sheets backend", "spreadsheet_id", config.GoogleSpreadsheetID)

	return &BackendResult{Backend: cli}, nil
}

func (f *DefaultFactory) createExcelBackend(config Config) (*BackendResult, error) {
	r := excel.New(dataDir(config), excel.Files{
		Roster:     config.RosterFile,
		Membership: config.MembershipFile,
		Sessions:   config.SessionsFile,
	}, config.ExcelSheet)

	f.logger.Info("Initialized excel backend", "data_directory", dataDir(config))

	return &BackendResult{Backend: r}, nil
}

func (f *DefaultFactory) createMemoryBackend(config Config) (*BackendResult, error) {
	store, err := memory.NewFromFiles(dataDir(config))
	if err != nil {
		return nil, fmt.Errorf("failed to load CSV datasets: %w", err)
	}

	f.logger.Info("Initialized memory backend", "data_directory", dataDir(config))

	return &BackendResult{Backend: store}, nil
}

func dataDir(config Config) string {
	if config.DataDirectory == "" {
		return "data"
	}
	return config.DataDirectory
}
