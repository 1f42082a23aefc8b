// Package audit records who did what to which file. Recording is
// best-effort: a failed insert is logged and never fails the operation it
// describes.
package audit

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"filevault-backend/internal/shared/telemetry"
)

const (
	OutcomeSuccess = "SUCCESS"
	OutcomeFailure = "FAILURE"
)

type Event struct {
	Operation  string
	ResourceID string
	UserID     string
	Outcome    string
	Message    string
	CreatedAt  time.Time
}

type Recorder interface {
	Record(ctx context.Context, event Event)
}

type PGRecorder struct {
	DB *sql.DB
}

func (r *PGRecorder) Record(ctx context.Context, event Event) {
	const query = `
INSERT INTO audit_log (operation, resource_id, user_id, outcome, message, created_at)
VALUES ($1, $2, $3, $4, $5, now())`
	_, err := r.DB.ExecContext(ctx, query,
		event.Operation,
		event.ResourceID,
		event.UserID,
		event.Outcome,
		event.Message,
	)
	if err != nil {
		telemetry.Error("audit record failed", map[string]any{
			"operation":  event.Operation,
			"resourceId": event.ResourceID,
			"error":      err.Error(),
		})
	}
}

type MemoryRecorder struct {
	mu     sync.Mutex
	events []Event
}

func NewMemoryRecorder() *MemoryRecorder {
	return &MemoryRecorder{}
}

func (r *MemoryRecorder) Record(ctx context.Context, event Event) {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

// Events returns a snapshot of everything recorded so far.
func (r *MemoryRecorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}
