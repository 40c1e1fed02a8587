package store

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
)

// DefaultTable matches the users table of existing face databases, so a
// store can be opened over one directly.
const DefaultTable = "users"

const metadataTable = "metadata"

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func facesDDL(table string) string {
	return `CREATE TABLE IF NOT EXISTS ` + table + ` (
    id        INTEGER PRIMARY KEY AUTOINCREMENT,
    name      TEXT UNIQUE,
    embedding BLOB
);`
}

const metadataDDL = `CREATE TABLE IF NOT EXISTS ` + metadataTable + ` (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);`

// EnsureSchema creates the faces table and the metadata table in the provided
// database if they do not already exist. The table name is interpolated into
// SQL and must be a plain identifier.
func EnsureSchema(ctx context.Context, db *sql.DB, table string) error {
	if !identifier.MatchString(table) {
		return fmt.Errorf("store: invalid table name %q", table)
	}
	if _, err := db.ExecContext(ctx, facesDDL(table)); err != nil {
		return err
	}
	_, err := db.ExecContext(ctx, metadataDDL)
	return err
}

func dimensionKey(table string) string { return table + ".dimension" }

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func getMetadata(ctx context.Context, q queryer, key string) (string, bool, error) {
	var value string
	err := q.QueryRowContext(ctx, `SELECT value FROM `+metadataTable+` WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

type queryExecer interface {
	queryer
	execer
}

// insertMetadata writes key once; an existing value is never overwritten.
func insertMetadata(ctx context.Context, e execer, key, value string) error {
	_, err := e.ExecContext(ctx, `INSERT INTO `+metadataTable+`(key, value) VALUES (?, ?)
ON CONFLICT(key) DO NOTHING`, key, value)
	return err
}
