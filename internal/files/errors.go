package files

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound means no metadata row exists for the identifier.
	ErrNotFound = errors.New("file not found")
	// ErrDuplicateFile means the owner already stores this exact content.
	ErrDuplicateFile = errors.New("duplicate file content")
	// ErrAccessDenied means the actor is neither the owner nor an admin.
	ErrAccessDenied = errors.New("access denied")
	// ErrEmptyBatch means a batch upload carried no files.
	ErrEmptyBatch = errors.New("no files in batch")
	// ErrTooManyFiles means a batch exceeded the configured maximum.
	ErrTooManyFiles = errors.New("too many files in batch")
)

// BatchError is returned when every file in a batch failed. It carries the
// per-file outcomes so callers still see each individual reason.
type BatchError struct {
	Outcomes []BatchOutcome
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("all %d files in batch failed", len(e.Outcomes))
}
