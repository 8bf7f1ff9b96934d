// Package sqlite provides SQLite-based storage for the scrape run history.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fwojciec/tablescrape"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// migrations are applied in order; PRAGMA user_version records how many ran.
var migrations = []string{
	`CREATE TABLE runs (
		id TEXT PRIMARY KEY,
		dataset TEXT NOT NULL,
		url TEXT NOT NULL,
		strategy TEXT NOT NULL DEFAULT '',
		attempts INTEGER NOT NULL DEFAULT 0,
		pages INTEGER NOT NULL DEFAULT 0,
		row_count INTEGER NOT NULL DEFAULT 0,
		file_path TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		error TEXT NOT NULL DEFAULT '',
		started_at TEXT NOT NULL,
		finished_at TEXT NOT NULL
	);
	CREATE INDEX idx_runs_dataset ON runs(dataset);
	CREATE INDEX idx_runs_started_at ON runs(started_at);`,
}

// DB is the run-history database. Parallel sessions share one DB; writes
// are serialized over a single connection.
type DB struct {
	db   *sql.DB
	path string
}

// NewDB creates a new DB instance with the given path.
// Use ":memory:" for an in-memory database.
func NewDB(path string) *DB {
	return &DB{path: path}
}

// Open connects, configures the connection and migrates the schema.
// Failures carry EIO.
func (db *DB) Open() error {
	conn, err := sql.Open("sqlite3", db.path)
	if err != nil {
		return tablescrape.Wrapf(err, tablescrape.EIO, "opening %s", db.path)
	}
	conn.SetMaxOpenConns(1)

	pragmas := []string{"PRAGMA busy_timeout = 5000"}
	if db.path != ":memory:" {
		pragmas = append(pragmas, "PRAGMA journal_mode = WAL")
	}
	for _, p := range pragmas {
		if _, err := conn.Exec(p); err != nil {
			conn.Close()
			return tablescrape.Wrapf(err, tablescrape.EIO, "configuring %s", db.path)
		}
	}

	db.db = conn
	if err := db.migrate(context.Background()); err != nil {
		conn.Close()
		db.db = nil
		return err
	}
	return nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	if db.db != nil {
		return db.db.Close()
	}
	return nil
}

// QueryRowContext executes a query that returns a single row.
func (db *DB) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return db.db.QueryRowContext(ctx, query, args...)
}

// QueryContext executes a query that returns rows.
func (db *DB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return db.db.QueryContext(ctx, query, args...)
}

// ExecContext executes a statement that doesn't return rows.
func (db *DB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return db.db.ExecContext(ctx, query, args...)
}

// migrate applies every migration newer than the stored user_version, each
// in its own transaction.
func (db *DB) migrate(ctx context.Context) error {
	var version int
	if err := db.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return tablescrape.Wrapf(err, tablescrape.EIO, "reading schema version")
	}
	if version > len(migrations) {
		return tablescrape.Errorf(tablescrape.EINVALID, "schema version %d is newer than this binary (%d)", version, len(migrations))
	}

	for i := version; i < len(migrations); i++ {
		tx, err := db.db.BeginTx(ctx, nil)
		if err != nil {
			return tablescrape.Wrapf(err, tablescrape.EIO, "starting migration %d", i+1)
		}
		if _, err := tx.ExecContext(ctx, migrations[i]); err != nil {
			_ = tx.Rollback()
			return tablescrape.Wrapf(err, tablescrape.EIO, "applying migration %d", i+1)
		}
		// PRAGMA does not accept bound parameters.
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", i+1)); err != nil {
			_ = tx.Rollback()
			return tablescrape.Wrapf(err, tablescrape.EIO, "recording migration %d", i+1)
		}
		if err := tx.Commit(); err != nil {
			return tablescrape.Wrapf(err, tablescrape.EIO, "committing migration %d", i+1)
		}
	}
	return nil
}
