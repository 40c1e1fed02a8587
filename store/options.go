package store

import "log/slog"

// Option configures a SQLiteStore.
type Option func(*SQLiteStore)

// WithDimension fixes the embedding dimensionality upfront. Without it the
// first successful Register establishes it.
func WithDimension(dim int) Option {
	return func(s *SQLiteStore) { s.configuredDim = dim }
}

// WithTable overrides the faces table name (default DefaultTable).
func WithTable(table string) Option {
	return func(s *SQLiteStore) { s.table = table }
}

// WithLogger sets the logger used for lifecycle and write events.
func WithLogger(logger *slog.Logger) Option {
	return func(s *SQLiteStore) {
		if logger != nil {
			s.logger = logger
		}
	}
}
