package engine

import (
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite" // register pure-Go SQLite driver
)

// DriverName is the database/sql driver name registered by modernc.org/sqlite.
const DriverName = "sqlite"

// MemoryDSN opens a private in-memory database.
const MemoryDSN = ":memory:"

// DefaultBusyTimeoutMs is applied to every file-backed connection.
const DefaultBusyTimeoutMs = 5000

// Open opens a SQLite database using the modernc.org/sqlite driver.
//
// For file-based databases, pass a path like "./face_db.sqlite"; each
// connection gets WAL journaling, a busy timeout and foreign keys, and
// transactions start IMMEDIATE so a writer takes the lock before it reads.
// A DSN that already is a "file:" URI is passed through unchanged. For in-memory
// databases, pass ":memory:"; the pool is pinned to a single connection since
// every SQLite connection would otherwise see its own empty database.
func Open(dsn string) (*sql.DB, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("engine: empty dsn")
	}
	db, err := sql.Open(DriverName, resolveDSN(dsn))
	if err != nil {
		return nil, err
	}
	if IsMemory(dsn) {
		db.SetMaxOpenConns(1)
	}
	return db, nil
}

// IsMemory reports whether dsn names an in-memory database.
func IsMemory(dsn string) bool {
	return dsn == MemoryDSN || strings.Contains(dsn, "mode=memory")
}

func resolveDSN(dsn string) string {
	if IsMemory(dsn) || strings.HasPrefix(dsn, "file:") {
		return dsn
	}
	return fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_txlock=immediate",
		dsn, DefaultBusyTimeoutMs)
}
