package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/viant/faceid/engine"
	"github.com/viant/faceid/vector"
	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// SQLiteStore is a Store backed by a SQLite table of
// (id, name UNIQUE, embedding BLOB) rows. Lookup and Scan share a read lock;
// Register holds the write lock across its existence check and insert, and
// the UNIQUE constraint rejects duplicates written by other processes.
type SQLiteStore struct {
	db     *sql.DB
	owned  bool
	table  string
	logger *slog.Logger

	mu            sync.RWMutex
	dim           int
	configuredDim int
}

// Open opens (or creates) the SQLite database at dsn and returns a store
// owning the connection pool. Any failure is reported as
// ErrStorageUnavailable.
func Open(ctx context.Context, dsn string, opts ...Option) (*SQLiteStore, error) {
	db, err := engine.Open(dsn)
	if err != nil {
		return nil, unavailable("open", err)
	}
	s, err := New(ctx, db, opts...)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	s.owned = true
	return s, nil
}

// New creates a store over an existing database handle. It ensures the
// schema exists, resolves the dimensionality and verifies that every stored
// row matches it. The caller keeps ownership of db.
func New(ctx context.Context, db *sql.DB, opts ...Option) (*SQLiteStore, error) {
	if db == nil {
		return nil, fmt.Errorf("store: db is nil")
	}
	s := &SQLiteStore{
		db:     db,
		table:  DefaultTable,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.configuredDim < 0 {
		return nil, fmt.Errorf("store: invalid dimension %d", s.configuredDim)
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, unavailable("ping", err)
	}
	if err := EnsureSchema(ctx, db, s.table); err != nil {
		return nil, unavailable("schema", err)
	}
	if err := s.resolveDimension(ctx); err != nil {
		return nil, err
	}
	if err := s.verify(ctx); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "embedding store opened", "table", s.table, "dimension", s.dim)
	return s, nil
}

// resolveDimension reconciles the configured, persisted and inferred
// dimensionality in that order of authority.
func (s *SQLiteStore) resolveDimension(ctx context.Context) error {
	key := dimensionKey(s.table)
	value, ok, err := getMetadata(ctx, s.db, key)
	if err != nil {
		return unavailable("read metadata", err)
	}
	persisted := 0
	if ok {
		if persisted, err = parseDimension(value); err != nil {
			return err
		}
	} else {
		// Databases created without metadata: infer D from the first row.
		var n sql.NullInt64
		err := s.db.QueryRowContext(ctx, `SELECT length(embedding) FROM `+s.table+` ORDER BY id LIMIT 1`).Scan(&n)
		switch {
		case err == nil && n.Valid && n.Int64 > 0 && n.Int64%4 == 0:
			persisted = int(n.Int64 / 4)
		case err == nil, errors.Is(err, sql.ErrNoRows):
		default:
			return unavailable("infer dimension", err)
		}
	}

	switch {
	case s.configuredDim > 0 && persisted > 0 && s.configuredDim != persisted:
		return fmt.Errorf("store: configured dimension: %w", &vector.DimensionError{Expected: persisted, Actual: s.configuredDim})
	case persisted > 0:
		s.dim = persisted
	default:
		s.dim = s.configuredDim
	}
	if s.dim > 0 && !ok {
		claimed, err := claimDimension(ctx, s.db, key, s.dim)
		if err != nil {
			return err
		}
		if claimed != s.dim {
			return fmt.Errorf("store: configured dimension: %w", &vector.DimensionError{Expected: claimed, Actual: s.dim})
		}
	}
	return nil
}

// persistedDimension reads the dimension recorded in metadata, or 0.
func persistedDimension(ctx context.Context, q queryer, key string) (int, error) {
	value, ok, err := getMetadata(ctx, q, key)
	if err != nil {
		return 0, unavailable("read metadata", err)
	}
	if !ok {
		return 0, nil
	}
	return parseDimension(value)
}

// claimDimension records dim unless a dimension is already persisted and
// returns the one that won.
func claimDimension(ctx context.Context, q queryExecer, key string, dim int) (int, error) {
	if err := insertMetadata(ctx, q, key, strconv.Itoa(dim)); err != nil {
		return 0, unavailable("write metadata", err)
	}
	claimed, err := persistedDimension(ctx, q, key)
	if err != nil {
		return 0, err
	}
	if claimed == 0 {
		return 0, fmt.Errorf("%w: dimension metadata missing after write", ErrStorageUnavailable)
	}
	return claimed, nil
}

func parseDimension(value string) (int, error) {
	dim, err := strconv.Atoi(value)
	if err != nil || dim <= 0 {
		return 0, fmt.Errorf("%w: invalid persisted dimension %q", ErrStorageUnavailable, value)
	}
	return dim, nil
}

// verify rejects a table holding rows inconsistent with the dimensionality.
func (s *SQLiteStore) verify(ctx context.Context) error {
	var name sql.NullString
	var err error
	if s.dim > 0 {
		err = s.db.QueryRowContext(ctx, `SELECT name FROM `+s.table+`
WHERE name IS NULL OR name = '' OR embedding IS NULL OR length(embedding) != ? LIMIT 1`, s.dim*4).Scan(&name)
	} else {
		err = s.db.QueryRowContext(ctx, `SELECT name FROM `+s.table+`
WHERE name IS NULL OR name = '' OR embedding IS NULL OR length(embedding) = 0 OR length(embedding) % 4 != 0 LIMIT 1`).Scan(&name)
	}
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil
	case err != nil:
		return unavailable("verify", err)
	}
	return corrupt(name.String, fmt.Errorf("embedding length inconsistent with dimension %d", s.dim))
}

// Register inserts a new record. The name must be non-blank, the embedding
// must match the store dimensionality, hold only finite values and have
// non-zero magnitude. The first successful Register of a store without a
// dimension establishes it; a dimension persisted by another handle since
// this one opened is picked up inside the write transaction.
func (s *SQLiteStore) Register(ctx context.Context, name string, embedding []float32) error {
	if strings.TrimSpace(name) == "" {
		return ErrInvalidName
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := vector.Validate(embedding, s.dim); err != nil {
		return err
	}
	blob, err := vector.EncodeEmbedding(embedding)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return unavailable("begin", err)
	}
	defer func() { _ = tx.Rollback() }()

	key := dimensionKey(s.table)
	establish := false
	if s.dim == 0 {
		dim, err := persistedDimension(ctx, tx, key)
		if err != nil {
			return err
		}
		if dim > 0 {
			s.dim = dim
			if err := vector.CheckDimension(embedding, dim); err != nil {
				return err
			}
		} else {
			establish = true
		}
	}

	var one int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM `+s.table+` WHERE name = ?`, name).Scan(&one)
	switch {
	case err == nil:
		return fmt.Errorf("%w: %q", ErrAlreadyExists, name)
	case !errors.Is(err, sql.ErrNoRows):
		return unavailable("lookup", err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO `+s.table+`(name, embedding) VALUES (?, ?)`, name, blob); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %q", ErrAlreadyExists, name)
		}
		return unavailable("insert", err)
	}
	if establish {
		claimed, err := claimDimension(ctx, tx, key, len(embedding))
		if err != nil {
			return err
		}
		if claimed != len(embedding) {
			return &vector.DimensionError{Expected: claimed, Actual: len(embedding)}
		}
	}
	if err := tx.Commit(); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %q", ErrAlreadyExists, name)
		}
		return unavailable("commit", err)
	}
	if establish {
		s.dim = len(embedding)
		s.logger.InfoContext(ctx, "embedding dimension established", "dimension", s.dim)
	}
	s.logger.DebugContext(ctx, "identity registered", "name", name, "dimension", s.dim)
	return nil
}

// Lookup returns the record registered under name.
func (s *SQLiteStore) Lookup(ctx context.Context, name string) (*vector.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var blob []byte
	err := s.db.QueryRowContext(ctx, `SELECT embedding FROM `+s.table+` WHERE name = ?`, name).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	if err != nil {
		return nil, unavailable("lookup", err)
	}
	emb, err := vector.DecodeEmbedding(blob, s.dim)
	if err != nil {
		return nil, corrupt(name, err)
	}
	return &vector.Record{Name: name, Embedding: emb}, nil
}

// Scan reads every record in insertion order with a single statement, so the
// snapshot and its generation are consistent.
func (s *SQLiteStore) Scan(ctx context.Context) (*Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT id, name, embedding FROM `+s.table+` ORDER BY id`)
	if err != nil {
		return nil, unavailable("scan", err)
	}
	defer rows.Close()

	snapshot := &Snapshot{}
	for rows.Next() {
		var (
			id   int64
			name string
			blob []byte
		)
		if err := rows.Scan(&id, &name, &blob); err != nil {
			return nil, unavailable("scan", err)
		}
		emb, err := vector.DecodeEmbedding(blob, s.dim)
		if err != nil {
			return nil, corrupt(name, err)
		}
		snapshot.Records = append(snapshot.Records, &vector.Record{Name: name, Embedding: emb})
		snapshot.Generation.MaxID = id
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("scan", err)
	}
	snapshot.Generation.Count = len(snapshot.Records)
	return snapshot, nil
}

// Generation returns the (count, max id) fingerprint of the table.
func (s *SQLiteStore) Generation(ctx context.Context) (Generation, error) {
	var g Generation
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*), COALESCE(MAX(id), 0) FROM `+s.table).Scan(&g.Count, &g.MaxID)
	if err != nil {
		return Generation{}, unavailable("generation", err)
	}
	return g, nil
}

// Count returns the number of enrolled identities.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	g, err := s.Generation(ctx)
	return g.Count, err
}

// Dimension returns the established dimensionality, or 0.
func (s *SQLiteStore) Dimension() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dim
}

// Close releases the database when the store opened it.
func (s *SQLiteStore) Close() error {
	if !s.owned {
		return nil
	}
	return s.db.Close()
}

func isUniqueViolation(err error) bool {
	var serr *sqlite.Error
	if errors.As(err, &serr) {
		switch serr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		}
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// Ensure SQLiteStore satisfies the Store interface.
var _ Store = (*SQLiteStore)(nil)
