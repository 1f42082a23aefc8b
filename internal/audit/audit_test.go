package audit

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestPGRecorderInsertsEvent(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	mock.ExpectExec("INSERT INTO audit_log").
		WithArgs("UPLOAD", "abc.pdf", "u1", OutcomeSuccess, "").
		WillReturnResult(sqlmock.NewResult(1, 1))

	rec := &PGRecorder{DB: db}
	rec.Record(context.Background(), Event{
		Operation:  "UPLOAD",
		ResourceID: "abc.pdf",
		UserID:     "u1",
		Outcome:    OutcomeSuccess,
	})

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRecorderSwallowsInsertFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	mock.ExpectExec("INSERT INTO audit_log").
		WillReturnError(context.DeadlineExceeded)

	rec := &PGRecorder{DB: db}
	// Must not panic or surface the failure.
	rec.Record(context.Background(), Event{Operation: "DELETE", Outcome: OutcomeFailure})
}

func TestMemoryRecorderKeepsOrder(t *testing.T) {
	rec := NewMemoryRecorder()
	rec.Record(context.Background(), Event{Operation: "UPLOAD"})
	rec.Record(context.Background(), Event{Operation: "DELETE"})

	events := rec.Events()
	if len(events) != 2 || events[0].Operation != "UPLOAD" || events[1].Operation != "DELETE" {
		t.Fatalf("unexpected events: %+v", events)
	}
}
