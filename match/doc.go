// Package match answers verify (1:1), identify (1:N) and find-similar queries
// over a store.Store. Identify and FindSimilar rank with an index built from
// a store snapshot; the index is reused while the store generation is
// unchanged.
package match
