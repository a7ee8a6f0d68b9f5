package testutil

import (
	"database/sql"
	"testing"

	"github.com/blackredfox/rv-service-desk-v1.0-sub002/internal/db"
)

// NewTestDB opens a migrated in-memory case store that is closed with the test.
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()
	database, err := db.OpenDB(db.MemoryPath)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		database.Close()
	})
	return database
}

func NewTestUoW(database *sql.DB) db.UnitOfWork {
	return db.NewSQLiteUnitOfWork(database)
}
