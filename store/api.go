package store

import (
	"context"

	"github.com/viant/faceid/vector"
)

// Store defines the embedding store API consumed by the match engine.
type Store interface {
	// Register durably inserts a new record. It fails with ErrAlreadyExists
	// when the name is taken and with vector.ErrDimensionMismatch when the
	// embedding length differs from the store dimensionality.
	Register(ctx context.Context, name string, embedding []float32) error

	// Lookup returns the record for name or ErrNotFound.
	Lookup(ctx context.Context, name string) (*vector.Record, error)

	// Scan returns a snapshot of all records in insertion order.
	Scan(ctx context.Context) (*Snapshot, error)

	// Generation returns the fingerprint of the current store contents.
	Generation(ctx context.Context) (Generation, error)

	// Dimension returns the embedding dimensionality, or 0 while it is not
	// established.
	Dimension() int
}

// Generation fingerprints the append-only faces table. Two equal
// generations of one store describe identical contents.
type Generation struct {
	Count int
	MaxID int64
}

// Snapshot is a point-in-time copy of the store contents.
type Snapshot struct {
	Records    []*vector.Record
	Generation Generation
}

// Len returns the number of records in the snapshot.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Records)
}
