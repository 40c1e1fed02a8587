// Package vector defines the face-embedding record model and the numeric
// helpers shared by the store and the match engine. It includes:
//   - Record: one enrolled identity and its embedding
//   - Embedding encoding (BLOB) with dimensionality checks
//   - CosineSimilarity with float64 accumulation
//   - Dimension and zero-norm errors
package vector
