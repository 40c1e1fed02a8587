package face

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/viant/faceid/config"
	"github.com/viant/faceid/embedder"
	"github.com/viant/faceid/index"
	"github.com/viant/faceid/index/bruteforce"
	"github.com/viant/faceid/match"
	"github.com/viant/faceid/store"
)

// Service owns the store for its lifetime; Close releases it.
type Service struct {
	cfg      *config.Config
	store    *store.SQLiteStore
	engine   *match.Engine
	embedder embedder.Embedder
	logger   *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithLogger overrides the logger built from the configuration.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// Open validates cfg, opens the store and prepares the match engine. A
// storage failure here is wrapped in store.ErrStorageUnavailable and should
// be treated as fatal by the caller. emb may be nil when only vector-level
// operations are used.
func Open(ctx context.Context, cfg *config.Config, emb embedder.Embedder, opts ...Option) (*Service, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &Service{cfg: cfg, embedder: emb}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		logger, err := NewLogger(cfg)
		if err != nil {
			return nil, err
		}
		s.logger = logger
	}

	st, err := store.Open(ctx, cfg.DBPath,
		store.WithDimension(cfg.Dimension),
		store.WithTable(cfg.Table),
		store.WithLogger(s.logger),
	)
	if err != nil {
		s.logger.ErrorContext(ctx, "embedding store unavailable", "path", cfg.DBPath, "error", err)
		return nil, err
	}
	engine, err := match.New(st,
		match.WithLogger(s.logger),
		match.WithIndexFactory(func() index.Index {
			return bruteforce.New(
				bruteforce.WithParallelism(cfg.IndexParallelism),
				bruteforce.WithParallelMinItems(cfg.ParallelMinItems),
			)
		}),
	)
	if err != nil {
		_ = st.Close()
		return nil, err
	}
	s.store = st
	s.engine = engine
	return s, nil
}

// Store returns the underlying embedding store.
func (s *Service) Store() *store.SQLiteStore { return s.store }

// Engine returns the match engine for queries with explicit thresholds.
func (s *Service) Engine() *match.Engine { return s.engine }

// Register enrolls an embedding under name.
func (s *Service) Register(ctx context.Context, name string, embedding []float32) error {
	err := s.store.Register(ctx, name, embedding)
	switch {
	case err == nil:
		s.logger.InfoContext(ctx, "identity registered", "name", name)
	case errors.Is(err, store.ErrAlreadyExists):
		s.logger.WarnContext(ctx, "identity already exists", "name", name)
	default:
		s.logger.ErrorContext(ctx, "register failed", "name", name, "error", err)
	}
	return err
}

// RegisterFace embeds the first face of image and enrolls it under name.
func (s *Service) RegisterFace(ctx context.Context, name string, image []byte) error {
	vec, err := s.embed(ctx, image)
	if err != nil {
		return err
	}
	return s.Register(ctx, name, vec)
}

// Verify checks probe against name at the configured threshold.
func (s *Service) Verify(ctx context.Context, probe []float32, name string) (match.Verification, error) {
	return s.engine.Verify(ctx, probe, name, s.cfg.Threshold)
}

// VerifyFace checks the first face of image against name. An unknown name
// is reported before the image is embedded.
func (s *Service) VerifyFace(ctx context.Context, image []byte, name string) (match.Verification, error) {
	record, err := s.store.Lookup(ctx, name)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return match.Verification{}, fmt.Errorf("%w: %w", match.ErrUserNotFound, err)
		}
		return match.Verification{}, err
	}
	vec, err := s.embed(ctx, image)
	if err != nil {
		return match.Verification{}, err
	}
	return s.engine.VerifyRecord(ctx, record, vec, s.cfg.Threshold)
}

// Identify finds the best identity for probe at the configured threshold.
func (s *Service) Identify(ctx context.Context, probe []float32) (match.Identification, error) {
	return s.engine.Identify(ctx, probe, s.cfg.Threshold)
}

// IdentifyFace identifies the first face of image.
func (s *Service) IdentifyFace(ctx context.Context, image []byte) (match.Identification, error) {
	vec, err := s.embed(ctx, image)
	if err != nil {
		return match.Identification{}, err
	}
	return s.Identify(ctx, vec)
}

// FindSimilar ranks the configured top-N identities for probe.
func (s *Service) FindSimilar(ctx context.Context, probe []float32) ([]match.Candidate, error) {
	return s.engine.FindSimilar(ctx, probe, s.cfg.TopN)
}

// FindSimilarFaces ranks the configured top-N identities for the first face
// of image.
func (s *Service) FindSimilarFaces(ctx context.Context, image []byte) ([]match.Candidate, error) {
	vec, err := s.embed(ctx, image)
	if err != nil {
		return nil, err
	}
	return s.FindSimilar(ctx, vec)
}

// Close releases the store.
func (s *Service) Close() error {
	if s.store == nil {
		return nil
	}
	return s.store.Close()
}

func (s *Service) embed(ctx context.Context, image []byte) ([]float32, error) {
	vec, err := embedder.Face(ctx, s.embedder, image)
	if err != nil {
		if errors.Is(err, embedder.ErrNoFaceDetected) {
			s.logger.InfoContext(ctx, "no face detected", "bytes", len(image))
		}
		return nil, err
	}
	return vec, nil
}
