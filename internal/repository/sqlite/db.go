// Package sqlite implements the repositories on a local SQLite database.
// It stands in for a real backend: the identity table, session record, and
// history log all live in one file under the user's config directory.
// Concurrent mutation from two processes is last-write-wins; that is an
// accepted limitation of the local store.
package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/brianking74/Property-Stage/internal/repository/sqlite/migrations"
)

// Open opens (creating if needed) the database at path and applies all
// pending migrations from the embedded filesystem.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, err
	}

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("sqlite3"); err != nil {
		db.Close()
		return nil, err
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// isUniqueViolation reports whether err is a SQLite unique-constraint failure.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
