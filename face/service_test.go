package face

import (
	"bytes"
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/faceid/config"
	"github.com/viant/faceid/embedder"
	"github.com/viant/faceid/match"
	"github.com/viant/faceid/store"
	"github.com/viant/faceid/vector"
)

// fakeEmbedder treats the image bytes as a key into a fixed table; unknown
// images have no face.
func fakeEmbedder(faces map[string][]float32) embedder.Embedder {
	return embedder.Func(func(ctx context.Context, image []byte) ([]float32, error) {
		return faces[string(image)], nil
	})
}

var testFaces = map[string][]float32{
	"amit.jpeg":      {0.9, 0.1, 0, 0},
	"amit_test.jpeg": {0.85, 0.15, 0.05, 0},
	"lata.jpeg":      {0, 1, 0.1, 0},
	"rajesh.jpeg":    {0.1, 0.2, 0.9, 0.3},
}

func openTestService(t *testing.T, path string) *Service {
	t.Helper()
	cfg := config.Default()
	cfg.DBPath = path
	s, err := Open(context.Background(), cfg, fakeEmbedder(testFaces), WithLogger(slog.New(slog.DiscardHandler)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestService_FaceWorkflow(t *testing.T) {
	ctx := context.Background()
	s := openTestService(t, filepath.Join(t.TempDir(), "face_db.sqlite"))

	require.NoError(t, s.RegisterFace(ctx, "Amit", []byte("amit.jpeg")))
	require.NoError(t, s.RegisterFace(ctx, "Lata", []byte("lata.jpeg")))
	assert.ErrorIs(t, s.RegisterFace(ctx, "Amit", []byte("amit.jpeg")), store.ErrAlreadyExists)
	assert.ErrorIs(t, s.RegisterFace(ctx, "Nobody", []byte("blank.jpeg")), embedder.ErrNoFaceDetected)

	v, err := s.VerifyFace(ctx, []byte("amit_test.jpeg"), "Amit")
	require.NoError(t, err)
	assert.True(t, v.Match)
	assert.Greater(t, v.Score, 0.9)

	_, err = s.VerifyFace(ctx, []byte("amit_test.jpeg"), "Carol")
	assert.ErrorIs(t, err, match.ErrUserNotFound)
	_, err = s.VerifyFace(ctx, []byte("blank.jpeg"), "Amit")
	assert.ErrorIs(t, err, embedder.ErrNoFaceDetected)

	id, err := s.IdentifyFace(ctx, []byte("amit_test.jpeg"))
	require.NoError(t, err)
	assert.Equal(t, "Amit", id.Name)
	assert.True(t, id.Found)

	id, err = s.IdentifyFace(ctx, []byte("rajesh.jpeg"))
	require.NoError(t, err)
	assert.Equal(t, match.Identification{Name: match.Unknown}, id)

	similar, err := s.FindSimilarFaces(ctx, []byte("rajesh.jpeg"))
	require.NoError(t, err)
	require.Len(t, similar, 2, "top 3 over two enrolled identities returns both")
	assert.GreaterOrEqual(t, similar[0].Score, similar[1].Score)

	_, err = s.FindSimilarFaces(ctx, []byte("blank.jpeg"))
	assert.ErrorIs(t, err, embedder.ErrNoFaceDetected)
}

func TestService_VectorOperations(t *testing.T) {
	ctx := context.Background()
	s := openTestService(t, filepath.Join(t.TempDir(), "face_db.sqlite"))

	require.NoError(t, s.Register(ctx, "Alice", []float32{1, 0, 0, 0}))
	require.NoError(t, s.Register(ctx, "Bob", []float32{0, 1, 0, 0}))
	assert.ErrorIs(t, s.Register(ctx, "Eve", []float32{1, 0}), vector.ErrDimensionMismatch)

	probe := []float32{1, 0, 0, 0}
	v, err := s.Verify(ctx, probe, "Alice")
	require.NoError(t, err)
	assert.Equal(t, match.Verification{Name: "Alice", Match: true, Score: 1, Threshold: 0.6}, v)

	id, err := s.Identify(ctx, probe)
	require.NoError(t, err)
	assert.Equal(t, match.Identification{Name: "Alice", Score: 1, Found: true}, id)

	similar, err := s.FindSimilar(ctx, probe)
	require.NoError(t, err)
	assert.Equal(t, []match.Candidate{{Name: "Alice", Score: 1}, {Name: "Bob", Score: 0}}, similar)
}

// TestService_SurvivesRestart verifies registrations persist across service
// instances over the same database file.
func TestService_SurvivesRestart(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "face_db.sqlite")

	cfg := config.Default()
	cfg.DBPath = path
	first, err := Open(ctx, cfg, fakeEmbedder(testFaces), WithLogger(slog.New(slog.DiscardHandler)))
	require.NoError(t, err)
	require.NoError(t, first.RegisterFace(ctx, "Amit", []byte("amit.jpeg")))
	require.NoError(t, first.Close())

	second := openTestService(t, path)
	r, err := second.Store().Lookup(ctx, "Amit")
	require.NoError(t, err)
	assert.Equal(t, testFaces["amit.jpeg"], r.Embedding)
	assert.Equal(t, 4, second.Store().Dimension())
}

func TestOpen_InvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Threshold = 2
	_, err := Open(context.Background(), cfg, nil)
	assert.Error(t, err)
}

func TestOpen_StorageUnavailable(t *testing.T) {
	cfg := config.Default()
	cfg.DBPath = filepath.Join(t.TempDir(), "missing", "dir", "face_db.sqlite")
	_, err := Open(context.Background(), cfg, nil, WithLogger(slog.New(slog.DiscardHandler)))
	assert.ErrorIs(t, err, store.ErrStorageUnavailable)
}

func TestNewLogger_JSON(t *testing.T) {
	cfg := config.Default()
	cfg.LogFormat = "json"
	cfg.LogLevel = "debug"
	var buf bytes.Buffer
	logger, err := newLogger(&buf, cfg)
	require.NoError(t, err)
	logger.Debug("identity registered", "name", "Alice")
	assert.Contains(t, buf.String(), `"msg":"identity registered"`)
	assert.Contains(t, buf.String(), `"component":"faceid"`)
}
