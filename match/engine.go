package match

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/viant/faceid/index"
	"github.com/viant/faceid/index/bruteforce"
	"github.com/viant/faceid/store"
	"github.com/viant/faceid/vector"
)

// Engine runs queries against a store. It keeps no per-query state; the
// cached index is a pure function of the store generation it was built at.
type Engine struct {
	store    store.Store
	logger   *slog.Logger
	newIndex func() index.Index

	mu     sync.Mutex
	cached *cachedIndex
}

type cachedIndex struct {
	generation store.Generation
	index      index.Index
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the query logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithIndexFactory replaces the brute-force index used for ranking.
func WithIndexFactory(fn func() index.Index) Option {
	return func(e *Engine) {
		if fn != nil {
			e.newIndex = fn
		}
	}
}

// New returns an engine over s.
func New(s store.Store, opts ...Option) (*Engine, error) {
	if s == nil {
		return nil, fmt.Errorf("match: store is nil")
	}
	e := &Engine{
		store:    s,
		logger:   slog.New(slog.DiscardHandler),
		newIndex: func() index.Index { return bruteforce.New() },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Verify compares probe with the embedding registered under name. The match
// is inclusive: Score >= threshold.
func (e *Engine) Verify(ctx context.Context, probe []float32, name string, threshold float64) (Verification, error) {
	if err := e.checkProbe(probe); err != nil {
		return Verification{}, err
	}
	record, err := e.store.Lookup(ctx, name)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Verification{}, fmt.Errorf("%w: %w", ErrUserNotFound, err)
		}
		return Verification{}, err
	}
	return e.verify(ctx, record, probe, threshold)
}

// VerifyRecord scores embedding against an already fetched record, skipping
// the store lookup.
func (e *Engine) VerifyRecord(ctx context.Context, record *vector.Record, embedding []float32, threshold float64) (Verification, error) {
	if record == nil {
		return Verification{}, ErrUserNotFound
	}
	if err := e.checkProbe(embedding); err != nil {
		return Verification{}, err
	}
	return e.verify(ctx, record, embedding, threshold)
}

func (e *Engine) verify(ctx context.Context, record *vector.Record, embedding []float32, threshold float64) (Verification, error) {
	score, err := vector.CosineSimilarity(record.Embedding, embedding)
	if err != nil {
		return Verification{}, err
	}
	result := Verification{Name: record.Name, Match: score >= threshold, Score: score, Threshold: threshold}
	e.logger.DebugContext(ctx, "verify completed", "name", record.Name, "score", score, "match", result.Match)
	return result, nil
}

// Identify returns the best-scoring identity with Score >= threshold. Exact
// ties go to the identity registered first.
func (e *Engine) Identify(ctx context.Context, probe []float32, threshold float64) (Identification, error) {
	if err := e.checkProbe(probe); err != nil {
		return Identification{}, err
	}
	idx, err := e.rankIndex(ctx)
	if err != nil {
		return Identification{}, err
	}
	matches, err := idx.Query(ctx, probe, 1)
	if err != nil {
		return Identification{}, err
	}
	if len(matches) == 0 || matches[0].Score < threshold {
		e.logger.DebugContext(ctx, "identify completed", "found", false, "candidates", idx.Len())
		return Identification{Name: Unknown}, nil
	}
	e.logger.DebugContext(ctx, "identify completed", "found", true, "name", matches[0].ID, "score", matches[0].Score)
	return Identification{Name: matches[0].ID, Score: matches[0].Score, Found: true}, nil
}

// FindSimilar ranks every identity by similarity to probe and returns the
// first min(topN, count). topN <= 0 returns an empty slice.
func (e *Engine) FindSimilar(ctx context.Context, probe []float32, topN int) ([]Candidate, error) {
	if err := e.checkProbe(probe); err != nil {
		return nil, err
	}
	if topN <= 0 {
		return []Candidate{}, nil
	}
	idx, err := e.rankIndex(ctx)
	if err != nil {
		return nil, err
	}
	matches, err := idx.Query(ctx, probe, topN)
	if err != nil {
		return nil, err
	}
	out := make([]Candidate, len(matches))
	for i, m := range matches {
		out[i] = Candidate{Name: m.ID, Score: m.Score}
	}
	e.logger.DebugContext(ctx, "find similar completed", "k", topN, "results", len(out))
	return out, nil
}

// checkProbe rejects malformed probes before any comparison.
func (e *Engine) checkProbe(probe []float32) error {
	return vector.Validate(probe, e.store.Dimension())
}

// rankIndex returns an index over the current store contents, rebuilding it
// when the generation moved.
func (e *Engine) rankIndex(ctx context.Context) (index.Index, error) {
	generation, err := e.store.Generation(ctx)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	cached := e.cached
	e.mu.Unlock()
	if cached != nil && cached.generation == generation {
		return cached.index, nil
	}

	snapshot, err := e.store.Scan(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, snapshot.Len())
	vectors := make([][]float32, snapshot.Len())
	for i, r := range snapshot.Records {
		ids[i] = r.Name
		vectors[i] = r.Embedding
	}
	idx := e.newIndex()
	if err := idx.Build(ids, vectors); err != nil {
		return nil, fmt.Errorf("match: build index: %w", err)
	}
	e.mu.Lock()
	if e.cached == nil || snapshot.Generation.MaxID >= e.cached.generation.MaxID {
		e.cached = &cachedIndex{generation: snapshot.Generation, index: idx}
	}
	e.mu.Unlock()
	e.logger.DebugContext(ctx, "index rebuilt", "count", snapshot.Generation.Count, "max_id", snapshot.Generation.MaxID)
	return idx, nil
}
