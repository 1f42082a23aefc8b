package quota

import (
	"context"
	"errors"
)

// ErrQuotaExceeded is the policy rejection for a user whose upload slot is
// already taken.
var ErrQuotaExceeded = errors.New("upload quota exceeded")

// ErrUnknownUser is returned when no quota state exists for the user.
var ErrUnknownUser = errors.New("unknown user")

// Store persists upload-status state per user.
type Store interface {
	// Status reports the user's current upload status.
	Status(ctx context.Context, userID string) (Status, error)
	// Consume atomically moves NOT_UPLOADED to UPLOADED and reports whether
	// this call made the transition. UNLIMITED and already-UPLOADED users
	// yield (false, nil); racing callers see at most one true.
	Consume(ctx context.Context, userID string) (bool, error)
	// Release returns the user to NOT_UPLOADED unless they are UNLIMITED.
	Release(ctx context.Context, userID string) error
}
