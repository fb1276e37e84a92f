package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	pgAuthorize = `SELECT authorize($1, $2, $3, $4)`

	sqliteAuthorize = `SELECT 1 FROM app_user u JOIN permission pm ON pm.user_id = u.id
		WHERE u.id = ? AND u.password = ? AND pm.class = ? AND pm.method = ?`
)

// granted is the only scalar the authorize operation returns for a permitted request.
const granted = 1

// PgChecker evaluates permissions with the authorize function installed in PostgreSQL.
type PgChecker struct {
	db *pgxpool.Pool
}

// NewPgChecker creates a PermissionChecker over a PostgreSQL connection pool.
func NewPgChecker(db *pgxpool.Pool) *PgChecker {
	return &PgChecker{db: db}
}

func (c *PgChecker) HasPermission(ctx context.Context, subject, secret, resourceClass, action string) (bool, error) {
	conn, err := c.db.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer conn.Release()

	var result *int32
	err = conn.QueryRow(ctx, pgAuthorize, subject, secret, resourceClass, action).Scan(&result)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("failed to query authorize: %w", err)
	}
	return result != nil && *result == granted, nil
}

// SQLiteChecker evaluates permissions directly against the SQLite permission tables.
type SQLiteChecker struct {
	db *sql.DB
}

// NewSQLiteChecker creates a PermissionChecker over an SQLite database.
func NewSQLiteChecker(db *sql.DB) *SQLiteChecker {
	return &SQLiteChecker{db: db}
}

func (c *SQLiteChecker) HasPermission(ctx context.Context, subject, secret, resourceClass, action string) (bool, error) {
	conn, err := c.db.Conn(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer func() { _ = conn.Close() }()

	var result sql.NullInt32
	err = conn.QueryRowContext(ctx, sqliteAuthorize, subject, secret, resourceClass, action).Scan(&result)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("failed to query authorize: %w", err)
	}
	return result.Valid && result.Int32 == granted, nil
}
