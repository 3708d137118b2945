// Package dbtest opens migrated throwaway databases for tests.
package dbtest

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"

	"cvbuilder-backend/internal/shared/storage/db"
)

// NewSQLite returns a private in-memory SQLite database with all migrations applied.
// It is closed when the test ends.
func NewSQLite(t testing.TB) *sqlx.DB {
	t.Helper()
	ctx := context.Background()
	database, err := db.OpenSQLite(ctx, ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })
	if err := db.RunMigrations(ctx, database); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}
	return database
}

// Exec runs a statement and fails the test on error. Placeholders use `?`.
func Exec(t testing.TB, database *sqlx.DB, query string, args ...any) {
	t.Helper()
	if _, err := database.ExecContext(context.Background(), database.Rebind(query), args...); err != nil {
		t.Fatalf("exec %q: %v", query, err)
	}
}

// InsertCV seeds a CV row for userID and returns its id.
func InsertCV(t testing.TB, database *sqlx.DB, userID, title string) int64 {
	t.Helper()
	var id int64
	err := database.QueryRowxContext(context.Background(),
		database.Rebind("INSERT INTO cvs (user_id, title) VALUES (?, ?) RETURNING id"), userID, title).Scan(&id)
	if err != nil {
		t.Fatalf("insert cv: %v", err)
	}
	return id
}
