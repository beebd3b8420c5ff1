package database

import "errors"

// Sentinel errors for the storage layer. Check with errors.Is.
var (
	// ErrNotFound means no record exists for the requested key.
	ErrNotFound = errors.New("database: record not found")
	// ErrConflict means a concurrent writer committed first; the caller
	// should re-read and retry.
	ErrConflict = errors.New("database: version conflict")
	// ErrStorage wraps I/O failures from the underlying database. Retryable.
	ErrStorage = errors.New("database: storage failure")
)
