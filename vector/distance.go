package vector

import (
	"math"
)

// CosineSimilarity computes dot(a,b) / (|a| * |b|) with float64
// accumulation. The result is clamped to [-1, 1] to absorb rounding on
// near-parallel vectors. It fails on differing lengths, empty input, a
// zero-magnitude operand or non-finite components.
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) == 0 || len(b) == 0 {
		return 0, ErrEmptyVector
	}
	if len(a) != len(b) {
		return 0, &DimensionError{Expected: len(a), Actual: len(b)}
	}
	var dot, na2, nb2 float64
	for i := range a {
		va := float64(a[i])
		vb := float64(b[i])
		dot += va * vb
		na2 += va * va
		nb2 += vb * vb
	}
	if na2 == 0 || nb2 == 0 {
		return 0, ErrZeroNorm
	}
	s := dot / (math.Sqrt(na2) * math.Sqrt(nb2))
	if math.IsNaN(s) || math.IsInf(na2, 0) || math.IsInf(nb2, 0) {
		return 0, ErrNonFinite
	}
	return Clamp(s), nil
}

// Magnitude returns the Euclidean norm of v in float64.
func Magnitude(v []float32) float64 {
	return math.Sqrt(Dot(v, v))
}

// Dot returns the float64 dot product of equally sized vectors.
func Dot(a, b []float32) float64 {
	var s float64
	for i := range a {
		s += float64(a[i]) * float64(b[i])
	}
	return s
}

// Clamp bounds a cosine score to [-1, 1].
func Clamp(s float64) float64 {
	switch {
	case s > 1:
		return 1
	case s < -1:
		return -1
	}
	return s
}
