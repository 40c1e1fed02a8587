package store

import (
	"errors"
	"fmt"
)

var (
	// ErrAlreadyExists is returned when registering a name that is taken.
	ErrAlreadyExists = errors.New("store: identity already exists")

	// ErrNotFound is returned by Lookup for unknown names.
	ErrNotFound = errors.New("store: identity not found")

	// ErrInvalidName is returned for empty or blank names.
	ErrInvalidName = errors.New("store: invalid identity name")

	// ErrStorageUnavailable wraps failures of the SQLite backing.
	ErrStorageUnavailable = errors.New("store: storage unavailable")

	// ErrCorruptRecord marks a persisted row that cannot be decoded.
	ErrCorruptRecord = errors.New("store: corrupt record")
)

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStorageUnavailable, op, err)
}

func corrupt(name string, err error) error {
	return fmt.Errorf("%w: %w %q: %w", ErrStorageUnavailable, ErrCorruptRecord, name, err)
}
