// Package migrations embeds the versioned schema for every supported database driver
// and applies it with golang-migrate.
package migrations

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed postgres/*.sql sqlite/*.sql
var files embed.FS

// Source returns the migration files for driver ("postgres" or "sqlite").
func Source(driver string) (fs.FS, error) {
	sub, err := fs.Sub(files, driver)
	if err != nil {
		return nil, fmt.Errorf("no migrations for driver %q: %w", driver, err)
	}
	if _, err := fs.Stat(sub, "000001_init.up.sql"); err != nil {
		return nil, fmt.Errorf("no migrations for driver %q: %w", driver, err)
	}
	return sub, nil
}

// Up applies every pending migration for driver against databaseURL.
// For sqlite the URL is the modernc DSN prefixed with "sqlite://".
func Up(driver, databaseURL string) error {
	src, err := Source(driver)
	if err != nil {
		return err
	}
	d, err := iofs.New(src, ".")
	if err != nil {
		return fmt.Errorf("failed to open migration source: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", d, databaseURL)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer func() { _, _ = m.Close() }()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

// URL converts a driver connection string into the URL form golang-migrate expects.
func URL(driver, connectionString string) string {
	if driver == "sqlite" {
		return "sqlite://" + connectionString
	}
	return connectionString
}
