package files

import (
	"context"
	"sync"
	"time"
)

type MemoryRepo struct {
	mu      sync.RWMutex
	records map[string]Record
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{records: make(map[string]Record)}
}

func (r *MemoryRepo) Create(ctx context.Context, rec Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.records {
		if existing.ContentHash == rec.ContentHash && existing.UserID == rec.UserID {
			return ErrDuplicateFile
		}
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	r.records[rec.StorageName] = rec
	return nil
}

func (r *MemoryRepo) GetByStorageName(ctx context.Context, storageName string) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[storageName]
	if !ok {
		return Record{}, ErrNotFound
	}
	return rec, nil
}

func (r *MemoryRepo) ExistsByHashAndOwner(ctx context.Context, contentHash, userID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, rec := range r.records {
		if rec.ContentHash == contentHash && rec.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (r *MemoryRepo) DeleteByStorageName(ctx context.Context, storageName string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[storageName]; !ok {
		return 0, nil
	}
	delete(r.records, storageName)
	return 1, nil
}
