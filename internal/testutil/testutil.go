// Package testutil provides shared test helpers for setting up databases and
// seeded notes.
package testutil

import (
	"os"
	"testing"
	"time"

	"github.com/starford/dagaz/internal/models"
	"github.com/starford/dagaz/internal/store"
)

// TestDB creates a temporary SQLite database that is automatically cleaned up.
func TestDB(t *testing.T) *store.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "dagaz-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := store.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// SeedNote inserts a note and returns its id.
func SeedNote(t *testing.T, db *store.DB, n models.Note) string {
	t.Helper()
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	id, err := db.InsertNote(n)
	if err != nil {
		t.Fatalf("seed note: %v", err)
	}
	return id
}
