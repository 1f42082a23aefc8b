package object

import (
	"context"
	"errors"
)

// ErrNotFound reports that no object exists under the requested key.
// Implementations map their backend-specific "missing object" signals to
// this value; no other backend error types leak to callers.
var ErrNotFound = errors.New("object not found")

// ObjectStore stores raw bytes keyed by an opaque identifier. It keeps no
// metadata of its own beyond the content type attached at write time.
type ObjectStore interface {
	// Put writes data under key, overwriting any previous content.
	Put(ctx context.Context, key string, data []byte, contentType string) error
	// Get returns the bytes stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Delete removes the object under key. Deleting a missing key is not
	// an error.
	Delete(ctx context.Context, key string) error
}
