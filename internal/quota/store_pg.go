package quota

import (
	"context"
	"database/sql"
	"errors"
)

type pgStore struct {
	DB *sql.DB
}

// NewPGStore constructs a Postgres-backed quota store over the users table.
func NewPGStore(db *sql.DB) Store {
	return &pgStore{DB: db}
}

func (s *pgStore) Status(ctx context.Context, userID string) (Status, error) {
	var status Status
	err := s.DB.QueryRowContext(ctx, `
SELECT upload_status FROM users WHERE id = $1`, userID).Scan(&status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrUnknownUser
		}
		return "", err
	}
	return status, nil
}

func (s *pgStore) Consume(ctx context.Context, userID string) (bool, error) {
	res, err := s.DB.ExecContext(ctx, `
UPDATE users SET upload_status = $1 WHERE id = $2 AND upload_status = $3`,
		StatusUploaded, userID, StatusNotUploaded)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

func (s *pgStore) Release(ctx context.Context, userID string) error {
	_, err := s.DB.ExecContext(ctx, `
UPDATE users SET upload_status = $1 WHERE id = $2 AND upload_status <> $3`,
		StatusNotUploaded, userID, StatusUnlimited)
	return err
}
