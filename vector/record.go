package vector

// Record is one enrolled identity. Name is the primary key; Embedding holds
// exactly D float32 values where D is fixed per store.
type Record struct {
	Name      string
	Embedding []float32
}

// NewRecord returns a record owning a copy of embedding.
func NewRecord(name string, embedding []float32) *Record {
	return &Record{Name: name, Embedding: Clone(embedding)}
}

// Dimension returns the embedding length.
func (r *Record) Dimension() int {
	if r == nil {
		return 0
	}
	return len(r.Embedding)
}

// Clone returns a copy of v; nil stays nil.
func Clone(v []float32) []float32 {
	if v == nil {
		return nil
	}
	return append([]float32(nil), v...)
}
