// AngelaMos | 2026
// schema.go

package core

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id                   BIGSERIAL PRIMARY KEY,
		email                TEXT NOT NULL UNIQUE,
		full_name            TEXT NOT NULL,
		password_hash        TEXT NOT NULL DEFAULT '',
		deleted_reviews      INTEGER NOT NULL DEFAULT 0 CHECK (deleted_reviews >= 0),
		has_submitted_appeal BOOLEAN NOT NULL DEFAULT FALSE,
		token_version        INTEGER NOT NULL DEFAULT 0,
		created_at           TIMESTAMPTZ NOT NULL,
		updated_at           TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS user_roles (
		user_id   BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		role_type SMALLINT NOT NULL CHECK (role_type BETWEEN 0 AND 3),
		PRIMARY KEY (user_id, role_type)
	)`,
	`CREATE TABLE IF NOT EXISTS reviews (
		id         BIGSERIAL PRIMARY KEY,
		user_id    BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		rating     INTEGER NOT NULL,
		content    TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		flags      INTEGER NOT NULL DEFAULT 0 CHECK (flags >= 0),
		is_hidden  BOOLEAN NOT NULL DEFAULT FALSE,
		version    INTEGER NOT NULL DEFAULT 1
	)`,
	`CREATE INDEX IF NOT EXISTS idx_reviews_created_at ON reviews (created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS upgrade_requests (
		id                            BIGSERIAL PRIMARY KEY,
		requesting_user_id            BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		requesting_user_display_name  TEXT NOT NULL,
		created_at                    TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS offensive_words (
		word TEXT PRIMARY KEY
	)`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id                   INTEGER PRIMARY KEY AUTOINCREMENT,
		email                TEXT NOT NULL UNIQUE,
		full_name            TEXT NOT NULL,
		password_hash        TEXT NOT NULL DEFAULT '',
		deleted_reviews      INTEGER NOT NULL DEFAULT 0 CHECK (deleted_reviews >= 0),
		has_submitted_appeal BOOLEAN NOT NULL DEFAULT 0,
		token_version        INTEGER NOT NULL DEFAULT 0,
		created_at           DATETIME NOT NULL,
		updated_at           DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS user_roles (
		user_id   INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		role_type INTEGER NOT NULL CHECK (role_type BETWEEN 0 AND 3),
		PRIMARY KEY (user_id, role_type)
	)`,
	`CREATE TABLE IF NOT EXISTS reviews (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id    INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		rating     INTEGER NOT NULL,
		content    TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		flags      INTEGER NOT NULL DEFAULT 0 CHECK (flags >= 0),
		is_hidden  BOOLEAN NOT NULL DEFAULT 0,
		version    INTEGER NOT NULL DEFAULT 1
	)`,
	`CREATE INDEX IF NOT EXISTS idx_reviews_created_at ON reviews (created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS upgrade_requests (
		id                            INTEGER PRIMARY KEY AUTOINCREMENT,
		requesting_user_id            INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		requesting_user_display_name  TEXT NOT NULL,
		created_at                    DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS offensive_words (
		word TEXT PRIMARY KEY
	)`,
}

// Migrate creates any missing tables for the connected driver. Statements are
// idempotent so it runs on every start.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	var statements []string
	switch db.DriverName() {
	case DriverSQLite:
		statements = sqliteSchema
	case DriverPostgres, "postgres":
		statements = postgresSchema
	default:
		return fmt.Errorf("migrate: unsupported driver %q", db.DriverName())
	}

	return InTx(ctx, db, func(tx *sqlx.Tx) error {
		for _, stmt := range statements {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
		}
		return nil
	})
}
