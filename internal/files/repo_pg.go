package files

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

type PGRepo struct {
	DB *sql.DB
}

func (r *PGRepo) Create(ctx context.Context, rec Record) error {
	const query = `
INSERT INTO file_metadata (storage_name, original_name, content_type, size_bytes, content_hash, user_id, created_at)
VALUES ($1, $2, $3, $4, $5, $6, now())`
	_, err := r.DB.ExecContext(ctx, query,
		rec.StorageName,
		rec.OriginalName,
		rec.ContentType,
		rec.SizeBytes,
		rec.ContentHash,
		rec.UserID,
	)
	if isUniqueViolation(err) {
		return ErrDuplicateFile
	}
	return err
}

func (r *PGRepo) GetByStorageName(ctx context.Context, storageName string) (Record, error) {
	const query = `
SELECT storage_name, original_name, content_type, size_bytes, content_hash, user_id, created_at
FROM file_metadata
WHERE storage_name = $1
LIMIT 1`
	var rec Record
	err := r.DB.QueryRowContext(ctx, query, storageName).Scan(
		&rec.StorageName,
		&rec.OriginalName,
		&rec.ContentType,
		&rec.SizeBytes,
		&rec.ContentHash,
		&rec.UserID,
		&rec.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, err
	}
	return rec, nil
}

func (r *PGRepo) ExistsByHashAndOwner(ctx context.Context, contentHash, userID string) (bool, error) {
	const query = `
SELECT EXISTS(SELECT 1 FROM file_metadata WHERE content_hash = $1 AND user_id = $2)`
	var exists bool
	if err := r.DB.QueryRowContext(ctx, query, contentHash, userID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *PGRepo) DeleteByStorageName(ctx context.Context, storageName string) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM file_metadata WHERE storage_name = $1`, storageName)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// isUniqueViolation detects SQLSTATE 23505 from the pgx driver.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
