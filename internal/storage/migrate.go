package storage

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SchemaInfo is the migration state of a database.
type SchemaInfo struct {
	Version uint
	Dirty   bool
}

// migrator opens its own connection: closing a migrate instance closes the
// database handle it was given.
func migrator(dbPath string) (*migrate.Migrate, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open migration database: %w", err)
	}
	driver, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create sqlite driver: %w", err)
	}
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		driver.Close()
		return nil, fmt.Errorf("create iofs source: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		driver.Close()
		return nil, fmt.Errorf("create migrate instance: %w", err)
	}
	return m, nil
}

// RunMigrations brings the dataset schema at dbPath up to date.
func RunMigrations(dbPath string) error {
	m, err := migrator(dbPath)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

// Schema reports the applied migration version. A database with no
// migrations applied reports version 0.
func Schema(dbPath string) (SchemaInfo, error) {
	m, err := migrator(dbPath)
	if err != nil {
		return SchemaInfo{}, err
	}
	defer m.Close()

	v, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return SchemaInfo{}, nil
	}
	if err != nil {
		return SchemaInfo{}, fmt.Errorf("read schema version: %w", err)
	}
	return SchemaInfo{Version: v, Dirty: dirty}, nil
}
