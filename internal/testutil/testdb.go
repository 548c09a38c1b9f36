package testutil

import (
	"database/sql"
	"testing"

	"github.com/alexanderramin/retention/internal/db"
)

// NewTestDB opens a fresh, fully migrated in-memory node store that is
// closed when t finishes.
func NewTestDB(t testing.TB) *sql.DB {
	t.Helper()
	database, err := db.OpenDB(db.MemoryPath)
	if err != nil {
		t.Fatalf("opening in-memory node store: %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })
	return database
}

// NewTestUoW runs transactions directly against database, the way
// cmd/rmctl does before adding contention retry.
func NewTestUoW(database *sql.DB) db.UnitOfWork {
	return db.NewSQLiteUnitOfWork(database)
}
