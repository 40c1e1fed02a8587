package vector

import (
	"encoding/binary"
	"fmt"
	"math"
)

// EncodeEmbedding encodes a slice of float32 values into a BLOB representation
// suitable for storage in SQLite: a little-endian sequence of IEEE 754
// float32 values without a length prefix. The length is derived from the BLOB
// size on decode.
func EncodeEmbedding(vec []float32) ([]byte, error) {
	if len(vec) == 0 {
		return nil, ErrEmptyVector
	}
	b := make([]byte, len(vec)*4)
	for i, v := range vec {
		binary.LittleEndian.PutUint32(b[i*4:], math.Float32bits(v))
	}
	return b, nil
}

// DecodeEmbedding decodes a BLOB produced by EncodeEmbedding. When dim > 0
// the BLOB must hold exactly dim values.
func DecodeEmbedding(b []byte, dim int) ([]float32, error) {
	if len(b) == 0 {
		return nil, ErrEmptyVector
	}
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("vector: invalid embedding blob length %d (not multiple of 4)", len(b))
	}
	n := len(b) / 4
	if dim > 0 && n != dim {
		return nil, &DimensionError{Expected: dim, Actual: n}
	}
	vec := make([]float32, n)
	for i := 0; i < n; i++ {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return vec, nil
}
