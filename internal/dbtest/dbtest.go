// Package dbtest provides an in-memory SQLite database carrying the
// application schema, for package tests that need a real store.
package dbtest

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // pure-Go SQLite driver

	"github.com/iliyamo/sponge-stock-api/internal/database"
)

// Open returns a fresh database closed at test cleanup.  The pool is pinned
// to one connection: every connection to :memory: is its own database, and
// a single connection also serializes transactions the way row locks do on
// MySQL.  Code running inside a transaction must only use that transaction.
func Open(t testing.TB) *sqlx.DB {
	t.Helper()
	db, err := sqlx.Open("sqlite", ":memory:?_time_format=sqlite")
	if err != nil {
		t.Fatal(err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	t.Cleanup(func() { _ = db.Close() })

	if err := database.Migrate(context.Background(), db, database.SQLiteSchema); err != nil {
		t.Fatal(err)
	}
	return db
}
