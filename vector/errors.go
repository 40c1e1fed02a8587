package vector

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrDimensionMismatch is matched by every *DimensionError.
	ErrDimensionMismatch = errors.New("vector: dimension mismatch")

	// ErrZeroNorm is returned when a vector has zero magnitude and cannot
	// take part in a cosine comparison.
	ErrZeroNorm = errors.New("vector: zero-magnitude vector")

	// ErrEmptyVector is returned for zero-length vectors.
	ErrEmptyVector = errors.New("vector: empty vector")

	// ErrNonFinite is matched by every *NonFiniteError and is returned when a
	// magnitude overflows.
	ErrNonFinite = errors.New("vector: non-finite value")
)

// DimensionError reports a vector whose length differs from the expected
// dimensionality.
type DimensionError struct {
	Expected int
	Actual   int
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("vector: dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

func (e *DimensionError) Is(target error) bool { return target == ErrDimensionMismatch }

// NonFiniteError reports a NaN or infinite component.
type NonFiniteError struct {
	Index int
	Value float32
}

func (e *NonFiniteError) Error() string {
	return fmt.Sprintf("vector: non-finite value %v at index %d", e.Value, e.Index)
}

func (e *NonFiniteError) Is(target error) bool { return target == ErrNonFinite }

// CheckDimension returns a *DimensionError when len(v) != dim and a
// *NonFiniteError when a component is NaN or infinite. A dim of 0 means the
// dimensionality is not established yet and accepts any non-empty vector.
func CheckDimension(v []float32, dim int) error {
	if len(v) == 0 {
		return ErrEmptyVector
	}
	if dim > 0 && len(v) != dim {
		return &DimensionError{Expected: dim, Actual: len(v)}
	}
	for i, x := range v {
		if f := float64(x); math.IsNaN(f) || math.IsInf(f, 0) {
			return &NonFiniteError{Index: i, Value: x}
		}
	}
	return nil
}

// CheckNorm returns the magnitude of v, failing with ErrZeroNorm for a zero
// vector and ErrNonFinite when the magnitude is not a finite number.
func CheckNorm(v []float32) (float64, error) {
	m := Magnitude(v)
	switch {
	case math.IsNaN(m) || math.IsInf(m, 0):
		return 0, ErrNonFinite
	case m == 0:
		return 0, ErrZeroNorm
	}
	return m, nil
}

// Validate checks dimension, finiteness and norm in that order.
func Validate(v []float32, dim int) error {
	if err := CheckDimension(v, dim); err != nil {
		return err
	}
	_, err := CheckNorm(v)
	return err
}
