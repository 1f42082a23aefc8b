package quota

import "context"

// Service wraps a Store with the upload-limit policy.
type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// Check is the advisory pre-flight: it fails fast when the user's slot is
// already taken. The authoritative guard remains Consume.
func (s *Service) Check(ctx context.Context, userID string) error {
	status, err := s.store.Status(ctx, userID)
	if err != nil {
		return err
	}
	if status == StatusUploaded {
		return ErrQuotaExceeded
	}
	return nil
}

// Consume claims the user's upload slot. It reports whether this call made
// the NOT_UPLOADED -> UPLOADED transition; UNLIMITED users always get
// (false, nil) and are never blocked. Calling it again after a win is a
// no-op, not an error.
func (s *Service) Consume(ctx context.Context, userID string) (bool, error) {
	return s.store.Consume(ctx, userID)
}

// Release frees the user's slot after their file is deleted. UNLIMITED
// users are untouched.
func (s *Service) Release(ctx context.Context, userID string) error {
	return s.store.Release(ctx, userID)
}

// Status exposes the raw state for callers that need to distinguish
// UNLIMITED from a free slot.
func (s *Service) Status(ctx context.Context, userID string) (Status, error) {
	return s.store.Status(ctx, userID)
}
