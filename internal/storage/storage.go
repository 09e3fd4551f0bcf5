// Package storage persists analysis sessions and API credentials as JSON
// files. Writes are atomic and guarded by an advisory file lock.
package storage

import (
	"errors"
	"fmt"
	"time"
)

const lockTimeout = 5 * time.Second

// Sentinel errors for common storage conditions.
var (
	// ErrNotFound indicates the requested file or entry does not exist.
	ErrNotFound = errors.New("storage: not found")
	// ErrInvalidInput indicates invalid or malformed input was provided.
	ErrInvalidInput = errors.New("storage: invalid input")
	// ErrStorageCorrupt indicates a file could not be decoded.
	ErrStorageCorrupt = errors.New("storage: data corruption detected")
	// ErrUnsupportedVersion indicates a file written by a newer schema.
	ErrUnsupportedVersion = errors.New("storage: unsupported schema version")
	// ErrLockTimeout indicates a timeout acquiring a file lock.
	ErrLockTimeout = errors.New("storage: lock acquisition timeout")
)

// StorageError wraps storage errors with operation and entity context.
// Use errors.As() to extract this error type and get operation details:
//
//	var storErr *storage.StorageError
//	if errors.As(err, &storErr) {
//		fmt.Printf("Failed to %s %s %s: %v\n", storErr.Op, storErr.Entity, storErr.ID, storErr.Err)
//	}
type StorageError struct {
	// Op is the operation that failed ("read", "write", "lock", "list").
	Op string
	// Entity is the entity type ("session", "credentials", "file").
	Entity string
	// ID is the file path or entry name if applicable.
	ID string
	// Err is the underlying error that occurred.
	Err error
}

// Error returns a string representation of the storage error.
func (e *StorageError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("storage: %s %s %s: %v", e.Op, e.Entity, e.ID, e.Err)
	}
	return fmt.Sprintf("storage: %s %s: %v", e.Op, e.Entity, e.Err)
}

// Unwrap returns the underlying error for use with errors.Is() and errors.As().
func (e *StorageError) Unwrap() error { return e.Err }
