package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
)

// UserMetaRepository appends rows to the website's user metadata table.
type UserMetaRepository struct {
	db    *DB
	table string
}

// NewUserMetaRepository creates a repository for the given table, which may
// be schema-qualified ("public.ohine_usermeta").
func NewUserMetaRepository(db *DB, table string) *UserMetaRepository {
	return &UserMetaRepository{db: db, table: table}
}

// AddUserMeta inserts one key/value pair for userID into the tenant database.
// Rows are appended; repeated keys are not deduplicated.
func (r *UserMetaRepository) AddUserMeta(ctx context.Context, database, userID, key, value string) error {
	query := insertUserMetaSQL(r.table)

	err := r.db.WithTransaction(ctx, database, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, query, userID, key, value)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to insert user meta %s for user %s: %w", key, userID, err)
	}
	return nil
}

// insertUserMetaSQL builds the insert statement. Values are always bound;
// only the table identifier is interpolated, after quoting.
func insertUserMetaSQL(table string) string {
	ident := pgx.Identifier(strings.Split(table, "."))
	return "INSERT INTO " + ident.Sanitize() + " (user_id, meta_key, meta_value) VALUES ($1, $2, $3)"
}
