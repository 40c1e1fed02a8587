// Package store persists enrolled face embeddings in SQLite. It includes:
//   - Store: the register / lookup / scan contract used by the match engine
//   - SQLiteStore: durable implementation with atomic name uniqueness
//   - Schema helpers for the faces and metadata tables
//
// Records are append-only; iteration order is insertion order.
package store
