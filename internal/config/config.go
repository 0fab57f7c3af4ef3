package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"clubstats/internal/log"
)

// Backends accepted by DATA_BACKEND.
var validBackends = []string{"memory", "excel", "sheets", "sqlite"}

type Config struct {
	// HTTP Server
	Port               string
	RateLimitPerMinute int

	// Backend selection
	DataBackend string

	// Files (memory and excel backends)
	DataDir        string
	RosterFile     string
	MembershipFile string
	SessionsFile   string
	ExcelSheet     string

	// Google Sheets
	GoogleSpreadsheetID string
	RosterSheetName     string
	MembershipSheetName string
	SessionsSheetName   string

	// Database
	SQLiteDBPath string

	// AMQP
	AMQPURL        string
	AMQPExchange   string
	AMQPRoutingKey string

	// Normalization
	ClubAliasesFile string

	// Recomputation
	Workers   int
	CacheSize int
	CacheTTL  time.Duration

	LogLevel string
}

func Load() *Config {
	cfg := &Config{
		Port:               getEnv("PORT", "8081"),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 120),

		DataBackend: getEnv("DATA_BACKEND", "memory"),

		DataDir:        getEnv("DATA_DIR", "data"),
		RosterFile:     getEnv("ROSTER_FILE", "Membership.xlsx"),
		MembershipFile: getEnv("MEMBERSHIP_FILE", "Yearly membership.xlsx"),
		SessionsFile:   getEnv("SESSIONS_FILE", "Average reading session.xlsx"),
		ExcelSheet:     getEnv("EXCEL_SHEET", ""),

		GoogleSpreadsheetID: getEnv("GOOGLE_SPREADSHEET_ID", ""),
		RosterSheetName:     getEnv("ROSTER_SHEET_NAME", "Membership"),
		MembershipSheetName: getEnv("MEMBERSHIP_SHEET_NAME", "Yearly membership"),
		SessionsSheetName:   getEnv("SESSIONS_SHEET_NAME", "Average reading session"),

		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/clubstats.db"),

		AMQPURL:        getEnv("AMQP_URL", ""),
		AMQPExchange:   getEnv("AMQP_EXCHANGE", "clubstats"),
		AMQPRoutingKey: getEnv("AMQP_ROUTING_KEY", "dashboard.view"),

		ClubAliasesFile: getEnv("CLUB_ALIASES_FILE", ""),

		Workers:   getEnvInt("WORKERS", 1),
		CacheSize: getEnvInt("CACHE_SIZE", 128),
		CacheTTL:  getEnvDuration("CACHE_TTL", 10*time.Minute),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	// Validate data backend
	isValidBackend := false
	for _, backend := range validBackends {
		if c.DataBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	switch c.DataBackend {
	case "memory", "excel":
		if c.DataDir == "" {
			errors = append(errors, fmt.Sprintf("data directory cannot be empty when using %s backend", c.DataBackend))
		}
		if c.DataBackend == "excel" && (c.RosterFile == "" || c.MembershipFile == "" || c.SessionsFile == "") {
			errors = append(errors, "roster, membership and sessions workbook names are required when using excel backend")
		}
	case "sqlite":
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	case "sheets":
		if c.GoogleSpreadsheetID == "" {
			errors = append(errors, "Google Spreadsheet ID is required when using sheets backend")
		}
		if c.RosterSheetName == "" || c.MembershipSheetName == "" || c.SessionsSheetName == "" {
			errors = append(errors, "roster, membership and sessions sheet names are required when using sheets backend")
		}
	}

	// Validate AMQP URL if provided
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPRoutingKey == "" {
			errors = append(errors, "AMQP routing key cannot be empty when AMQP URL is provided")
		}
	}

	if c.ClubAliasesFile != "" {
		if _, err := os.Stat(c.ClubAliasesFile); os.IsNotExist(err) {
			errors = append(errors, fmt.Sprintf("club aliases file does not exist: %s", c.ClubAliasesFile))
		}
	}

	// Validate recomputation settings
	if c.Workers < 1 || c.Workers > 64 {
		errors = append(errors, fmt.Sprintf("invalid workers %d: must be between 1 and 64", c.Workers))
	}
	if c.CacheSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid cache size %d: must be at least 1", c.CacheSize))
	}
	if c.CacheTTL < 0 {
		errors = append(errors, fmt.Sprintf("invalid cache TTL %v: must not be negative", c.CacheTTL))
	} else if c.CacheTTL > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid cache TTL %v: must be at most 24 hours", c.CacheTTL))
	}
	if c.RateLimitPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1 request per minute", c.RateLimitPerMinute))
	}

	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be debug, info, warn or error", c.LogLevel))
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
