// Package database writes mirrored CRM identifiers into the website databases.
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"pledge-salesforce-sync/internal/config"
)

// DB opens a fresh connection per operation. Each tenant lives in its own
// database on the same server, and the functions write at most twice per
// invocation, so no pool is kept between calls.
type DB struct {
	cfg            config.Config
	connectTimeout time.Duration
}

// New creates a DB handle. A non-empty password overrides cfg.DBPassword.
func New(cfg *config.Config, password string) *DB {
	c := *cfg
	if password != "" {
		c.DBPassword = password
	}
	return &DB{cfg: c, connectTimeout: 10 * time.Second}
}

// Connect opens a connection to the named tenant database.
func (db *DB) Connect(ctx context.Context, database string) (*pgx.Conn, error) {
	ctx, cancel := context.WithTimeout(ctx, db.connectTimeout)
	defer cancel()

	connConfig, err := pgx.ParseConfig(db.cfg.DatabaseURL(database))
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	conn, err := pgx.ConnectConfig(ctx, connConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", database, err)
	}
	return conn, nil
}

// HealthCheck verifies that the named database accepts connections.
func (db *DB) HealthCheck(ctx context.Context, database string) error {
	conn, err := db.Connect(ctx, database)
	if err != nil {
		return err
	}
	defer conn.Close(context.WithoutCancel(ctx))
	return conn.Ping(ctx)
}

// WithTransaction connects to database, runs fn inside a transaction,
// commits and closes the connection.
func (db *DB) WithTransaction(ctx context.Context, database string, fn func(tx pgx.Tx) error) (err error) {
	conn, err := db.Connect(ctx, database)
	if err != nil {
		return err
	}
	defer conn.Close(context.WithoutCancel(ctx))

	tx, err := conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback(context.WithoutCancel(ctx))
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
