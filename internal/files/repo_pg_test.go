package files

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestPGRepoCreateInsertsMetadata(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	rec := Record{
		StorageName:  "abc.pdf",
		OriginalName: "report.pdf",
		ContentType:  "application/pdf",
		SizeBytes:    1024,
		ContentHash:  "deadbeef",
		UserID:       "u1",
	}

	mock.ExpectExec("INSERT INTO file_metadata").
		WithArgs(
			rec.StorageName,
			rec.OriginalName,
			rec.ContentType,
			rec.SizeBytes,
			rec.ContentHash,
			rec.UserID,
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.Create(context.Background(), rec); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoCreateMapsUniqueViolation(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}

	mock.ExpectExec("INSERT INTO file_metadata").
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "file_metadata_content_hash_user_id_key"})

	err = repo.Create(context.Background(), Record{StorageName: "abc.pdf"})
	if !errors.Is(err, ErrDuplicateFile) {
		t.Fatalf("expected ErrDuplicateFile, got %v", err)
	}
}

func TestPGRepoDeleteReportsRowsAffected(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}

	mock.ExpectExec("DELETE FROM file_metadata").
		WithArgs("abc.pdf").
		WillReturnResult(sqlmock.NewResult(0, 0))

	rows, err := repo.DeleteByStorageName(context.Background(), "abc.pdf")
	if err != nil {
		t.Fatalf("DeleteByStorageName: %v", err)
	}
	if rows != 0 {
		t.Fatalf("expected 0 rows, got %d", rows)
	}
}
