package bruteforce

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sort"

	"github.com/viant/faceid/index"
	"github.com/viant/faceid/vector"
	"golang.org/x/sync/errgroup"
)

// DefaultParallelMinItems is the index size from which scoring fans out.
const DefaultParallelMinItems = 4096

// Index is a brute-force vector index implementing cosine similarity.
type Index struct {
	ids  []string
	vecs [][]float32
	dim  int
	mags []float64

	parallelism int
	minParallel int
}

// Option configures an Index.
type Option func(*Index)

// WithParallelism sets the number of scoring goroutines; n <= 0 uses
// GOMAXPROCS.
func WithParallelism(n int) Option {
	return func(i *Index) { i.parallelism = n }
}

// WithParallelMinItems sets the index size from which scoring fans out.
func WithParallelMinItems(n int) Option {
	return func(i *Index) {
		if n > 0 {
			i.minParallel = n
		}
	}
}

// New returns an empty index.
func New(opts ...Option) *Index {
	i := &Index{minParallel: DefaultParallelMinItems}
	for _, opt := range opts {
		opt(i)
	}
	if i.parallelism <= 0 {
		i.parallelism = runtime.GOMAXPROCS(0)
	}
	return i
}

// Build loads ids and vectors and precomputes magnitudes.
func (i *Index) Build(ids []string, vectors [][]float32) error {
	if len(ids) != len(vectors) {
		return fmt.Errorf("bruteforce: ids and vectors length mismatch: %d != %d", len(ids), len(vectors))
	}
	if len(ids) == 0 {
		i.ids, i.vecs, i.mags, i.dim = nil, nil, nil, 0
		return nil
	}
	dim := len(vectors[0])
	mags := make([]float64, len(vectors))
	for j := range vectors {
		if err := vector.CheckDimension(vectors[j], dim); err != nil {
			return fmt.Errorf("bruteforce: vector %q: %w", ids[j], err)
		}
		mag, err := vector.CheckNorm(vectors[j])
		if err != nil {
			return fmt.Errorf("bruteforce: vector %q: %w", ids[j], err)
		}
		mags[j] = mag
	}
	i.ids = append([]string(nil), ids...)
	i.vecs = append([][]float32(nil), vectors...)
	i.dim = dim
	i.mags = mags
	return nil
}

// Len returns the number of indexed vectors.
func (i *Index) Len() int { return len(i.ids) }

// Dimension returns the indexed dimensionality.
func (i *Index) Dimension() int { return i.dim }

// Query returns top-k by cosine similarity, ties in build order. Entries
// whose score is not a number are left out of the ranking.
func (i *Index) Query(ctx context.Context, query []float32, k int) ([]index.Match, error) {
	if len(i.vecs) == 0 {
		return nil, nil
	}
	if err := vector.CheckDimension(query, i.dim); err != nil {
		return nil, err
	}
	qm, err := vector.CheckNorm(query)
	if err != nil {
		return nil, err
	}
	scores, err := i.score(ctx, query, qm)
	if err != nil {
		return nil, err
	}
	order := make([]int, 0, len(scores))
	for j, s := range scores {
		if math.IsNaN(s) {
			continue
		}
		order = append(order, j)
	}
	sort.SliceStable(order, func(a, b int) bool { return scores[order[a]] > scores[order[b]] })
	if k <= 0 || k > len(order) {
		k = len(order)
	}
	out := make([]index.Match, k)
	for n := 0; n < k; n++ {
		out[n] = index.Match{ID: i.ids[order[n]], Score: scores[order[n]]}
	}
	return out, nil
}

// score fills one score per indexed vector; chunks write disjoint ranges.
func (i *Index) score(ctx context.Context, query []float32, qm float64) ([]float64, error) {
	scores := make([]float64, len(i.vecs))
	scoreRange := func(from, to int) {
		for j := from; j < to; j++ {
			scores[j] = vector.Clamp(vector.Dot(query, i.vecs[j]) / (qm * i.mags[j]))
		}
	}
	if i.parallelism <= 1 || len(i.vecs) < i.minParallel {
		scoreRange(0, len(i.vecs))
		return scores, nil
	}
	g, gctx := errgroup.WithContext(ctx)
	chunk := (len(i.vecs) + i.parallelism - 1) / i.parallelism
	for from := 0; from < len(i.vecs); from += chunk {
		from, to := from, min(from+chunk, len(i.vecs))
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			scoreRange(from, to)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return scores, nil
}

// Ensure Index satisfies the index.Index interface.
var _ index.Index = (*Index)(nil)
