// Package bruteforce provides a vector index that answers kNN queries by
// scanning all vectors and scoring via cosine similarity. Large indexes are
// scored in parallel chunks; the ranking is identical to a sequential scan.
package bruteforce
