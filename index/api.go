package index

import "context"

// Match is one ranked index entry.
type Match struct {
	ID    string
	Score float64
}

// Index defines a generic vector index with basic lifecycle methods.
type Index interface {
	// Build constructs the index from the given ids and vectors.
	// ids and vectors must have the same length; vectors must be non-nil,
	// equally sized and of non-zero magnitude. The position of an id in ids
	// is its tie-break rank.
	Build(ids []string, vectors [][]float32) error

	// Query returns up to k matches ordered by decreasing cosine similarity;
	// equal scores keep build order. k <= 0 or k > Len() returns all
	// entries ranked.
	Query(ctx context.Context, query []float32, k int) ([]Match, error)

	// Len returns the number of indexed vectors.
	Len() int

	// Dimension returns the indexed dimensionality, or 0 when empty.
	Dimension() int
}
