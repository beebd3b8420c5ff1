package engine

import (
	"errors"

	"github.com/example/recall/internal/database"
)

// Error taxonomy exposed to callers; check with errors.Is. Validation errors
// mean the caller must fix its input; conflict and storage errors are
// retryable; nothing here is fatal to the process.
var (
	// ErrValidation marks rejected input: a quality outside [0,5] or a
	// malformed identifier. No state was mutated.
	ErrValidation = errors.New("engine: invalid input")
	// ErrNotFound means no scheduling history exists for the item.
	ErrNotFound = database.ErrNotFound
	// ErrConflict means concurrent reviews contended for the same record and
	// the retry budget ran out.
	ErrConflict = database.ErrConflict
	// ErrStorage surfaces storage I/O failures.
	ErrStorage = database.ErrStorage
)
