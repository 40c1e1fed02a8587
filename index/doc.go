// Package index defines a minimal abstraction for vector indexes that can be
// built from a store snapshot and queried for cosine kNN with a
// deterministic ordering. Implementations in this module include an exact
// brute-force baseline.
package index
