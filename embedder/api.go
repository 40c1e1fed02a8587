package embedder

import (
	"context"
	"errors"
)

// ErrNoFaceDetected is reported when the image holds no detectable face.
var ErrNoFaceDetected = errors.New("embedder: no face detected")

// Embedder converts an encoded image into an embedding of the first detected
// face. It returns an empty embedding or ErrNoFaceDetected when no face is
// found; the dimensionality must be fixed across calls of one deployment.
type Embedder interface {
	Embed(ctx context.Context, image []byte) ([]float32, error)
}

// Func adapts a plain function to Embedder.
type Func func(ctx context.Context, image []byte) ([]float32, error)

// Embed calls f.
func (f Func) Embed(ctx context.Context, image []byte) ([]float32, error) {
	return f(ctx, image)
}

// Face runs e and normalizes the no-face outcomes to ErrNoFaceDetected.
func Face(ctx context.Context, e Embedder, image []byte) ([]float32, error) {
	if e == nil {
		return nil, errors.New("embedder: Embedder is nil")
	}
	vec, err := e.Embed(ctx, image)
	if err != nil {
		return nil, err
	}
	if len(vec) == 0 {
		return nil, ErrNoFaceDetected
	}
	return vec, nil
}
