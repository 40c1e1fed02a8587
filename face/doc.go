// Package face wires the embedder, the SQLite embedding store and the match
// engine into one service exposing image-level and vector-level register,
// verify, identify and find-similar operations.
package face
