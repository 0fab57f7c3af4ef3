package backend

import (
	"errors"
	"fmt"

	"clubstats/internal/config"
)

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, errors.New("app config is nil")
	}

	backendType := BackendType(appConfig.DataBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.DataBackend)
	}

	return Config{
		Type: backendType,

		DataDirectory:  appConfig.DataDir,
		RosterFile:     appConfig.RosterFile,
		MembershipFile: appConfig.MembershipFile,
		SessionsFile:   appConfig.SessionsFile,
		ExcelSheet:     appConfig.ExcelSheet,

		SQLiteDBPath: appConfig.SQLiteDBPath,

		GoogleSpreadsheetID: appConfig.GoogleSpreadsheetID,
		RosterSheetName:     appConfig.RosterSheetName,
		MembershipSheetName: appConfig.MembershipSheetName,
		SessionsSheetName:   appConfig.SessionsSheetName,
	}, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}

	switch c.Type {
	case SQLiteBackend:
		if c.SQLiteDBPath == "" {
			return errors.New("SQLite database path is required for sqlite backend")
		}

	case SheetsBackend:
		if c.GoogleSpreadsheetID == "" {
			return errors.New("Google Spreadsheet ID is required for sheets backend")
		}
		if c.RosterSheetName == "" || c.MembershipSheetName == "" || c.SessionsSheetName == "" {
			return errors.New("all three sheet names are required for sheets backend")
		}

	case ExcelBackend:
		if c.RosterFile == "" || c.MembershipFile == "" || c.SessionsFile == "" {
			return errors.New("all three workbook names are required for excel backend")
		}

	case MemoryBackend:
		// DataDirectory defaults to "data" if empty
	}

	return nil
}

// GetBackendTypes returns all valid backend types
func GetBackendTypes() []BackendType {
	return []BackendType{MemoryBackend, ExcelBackend, SheetsBackend, SQLiteBackend}
}

// GetBackendTypeStrings returns all valid backend type strings
func GetBackendTypeStrings() []string {
	types := GetBackendTypes()
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = t.String()
	}
	return out
}
