// AngelaMos | 2026
// db.go

// Package testutil opens throwaway databases for package tests.
package testutil

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/moderation-admin/internal/config"
	"github.com/carterperez-dev/moderation-admin/internal/core"
)

// NewDB returns a migrated in-memory sqlite database that is closed when the
// test finishes.
func NewDB(t *testing.T) *sqlx.DB {
	t.Helper()

	ctx := context.Background()
	db, err := core.NewDatabase(ctx, config.DatabaseConfig{
		Driver: core.DriverSQLite,
		URL:    ":memory:",
	})
	require.NoError(t, err, "open sqlite")

	t.Cleanup(func() {
		_ = db.Close()
	})

	require.NoError(t, core.Migrate(ctx, db.DB), "migrate sqlite")
	return db.DB
}
