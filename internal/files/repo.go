package files

import "context"

// Repo persists file metadata.
type Repo interface {
	// Create inserts the record. A unique-constraint violation on
	// (content_hash, user_id) surfaces as ErrDuplicateFile.
	Create(ctx context.Context, rec Record) error
	// GetByStorageName returns the record or ErrNotFound.
	GetByStorageName(ctx context.Context, storageName string) (Record, error)
	// ExistsByHashAndOwner is the advisory dedup pre-check.
	ExistsByHashAndOwner(ctx context.Context, contentHash, userID string) (bool, error)
	// DeleteByStorageName removes the record and reports how many rows
	// went away. Zero means a concurrent delete already won.
	DeleteByStorageName(ctx context.Context, storageName string) (int64, error)
}
