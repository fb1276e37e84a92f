// Package provision turns the configured database descriptor into an open, pooled handle.
package provision

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/abgdnv/catalog/pkg/bootstrap"
	"github.com/abgdnv/catalog/pkg/config"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	// DataDirectoryPlaceholder is replaced in connection strings by the absolute data directory.
	DataDirectoryPlaceholder = "{DataDirectory}"
	// DefaultDataDirectory is used, relative to the working directory, when none is configured.
	DefaultDataDirectory = "App_Data"
)

// ErrConfiguration is returned when the descriptor cannot produce a usable connection string.
var ErrConfiguration = errors.New("invalid database configuration")

// Descriptor is the database section of the configuration, read once at startup.
type Descriptor struct {
	Driver           string
	ConnectionString string
	DataDirectory    string
	ConnectTimeout   time.Duration
}

// FromConfig builds a Descriptor from the database configuration section.
func FromConfig(cfg config.DatabaseConfig) Descriptor {
	return Descriptor{
		Driver:           cfg.Driver,
		ConnectionString: cfg.URL,
		DataDirectory:    cfg.DataDirectory,
		ConnectTimeout:   cfg.Timeout,
	}
}

// Handle owns the driver pool opened for a descriptor. Exactly one of Pool and DB is set.
type Handle struct {
	Driver string
	// DSN is the connection string after placeholder substitution.
	DSN  string
	Pool *pgxpool.Pool
	DB   *sql.DB
}

// Close releases the underlying pool.
func (h *Handle) Close() {
	if h.Pool != nil {
		h.Pool.Close()
	}
	if h.DB != nil {
		_ = h.DB.Close()
	}
}

type opener func(ctx context.Context, dsn string, timeout time.Duration) (*Handle, error)

var openers = map[string]opener{
	config.DriverPostgres: func(ctx context.Context, dsn string, timeout time.Duration) (*Handle, error) {
		pool, err := bootstrap.NewDbPool(ctx, dsn, timeout)
		if err != nil {
			return nil, err
		}
		return &Handle{Driver: config.DriverPostgres, DSN: dsn, Pool: pool}, nil
	},
	config.DriverSQLite: func(ctx context.Context, dsn string, timeout time.Duration) (*Handle, error) {
		db, err := bootstrap.NewSQLiteDB(ctx, dsn, timeout)
		if err != nil {
			return nil, err
		}
		return &Handle{Driver: config.DriverSQLite, DSN: dsn, DB: db}, nil
	},
}

// Resolve validates d and returns its connection string with the data directory substituted.
// The data directory is created when the connection string refers to it.
func Resolve(d Descriptor) (string, error) {
	if strings.TrimSpace(d.ConnectionString) == "" {
		return "", fmt.Errorf("%w: connection string is not set", ErrConfiguration)
	}
	if _, ok := openers[d.Driver]; !ok {
		return "", fmt.Errorf("%w: unsupported driver %q", ErrConfiguration, d.Driver)
	}
	if !strings.Contains(d.ConnectionString, DataDirectoryPlaceholder) {
		return d.ConnectionString, nil
	}

	dir := d.DataDirectory
	if dir == "" {
		dir = DefaultDataDirectory
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("%w: data directory %q: %w", ErrConfiguration, dir, err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return "", fmt.Errorf("failed to create data directory %q: %w", abs, err)
	}
	return strings.ReplaceAll(d.ConnectionString, DataDirectoryPlaceholder, filepath.ToSlash(abs)), nil
}

// Open resolves d and opens a pool for its driver, failing fast when the database is unreachable.
func Open(ctx context.Context, d Descriptor) (*Handle, error) {
	dsn, err := Resolve(d)
	if err != nil {
		return nil, err
	}
	timeout := d.ConnectTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	h, err := openers[d.Driver](ctx, dsn, timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", d.Driver, err)
	}
	return h, nil
}
