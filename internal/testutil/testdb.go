package testutil

import (
	"database/sql"
	"testing"

	"github.com/alexanderramin/gantry/internal/db"
	"github.com/stretchr/testify/require"
)

// NewTestDB returns a migrated in-memory schedule database closed with the test.
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()
	database, err := db.OpenDB(db.MemoryPath)
	require.NoError(t, err, "open in-memory schedule db")
	t.Cleanup(func() { _ = database.Close() })
	return database
}

func NewTestUoW(database *sql.DB) db.UnitOfWork {
	return db.NewSQLiteUnitOfWork(database)
}
