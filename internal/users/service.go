package users

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"filevault-backend/internal/quota"
)

type Service struct {
	Repo Repo
}

func NewService(repo Repo) *Service {
	return &Service{Repo: repo}
}

// EnsureActor returns the stored user for an authenticated identity,
// creating the row on first contact. New users start with a free upload
// slot and the default role.
func (s *Service) EnsureActor(ctx context.Context, userID, username string) (User, error) {
	if s == nil || s.Repo == nil {
		return User{}, errors.New("users service not configured")
	}
	if strings.TrimSpace(userID) == "" {
		return User{}, errors.New("user id is required")
	}
	user, err := s.Repo.GetByID(ctx, userID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return User{}, err
	}
	// Seeded accounts (the admin) exist before their first login under a
	// generated id; match them by username instead of creating a twin.
	if username != "" {
		user, err = s.Repo.GetByUsername(ctx, username)
		if err == nil {
			return user, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return User{}, err
		}
	}
	user = User{
		ID:           userID,
		Username:     username,
		Role:         RoleUser,
		UploadStatus: string(quota.StatusNotUploaded),
	}
	if err := s.Repo.Create(ctx, user); err != nil {
		return User{}, err
	}
	return user, nil
}

// EnsureAdmin seeds the configured administrator account with an unlimited
// upload quota. Idempotent; a blank username disables seeding.
func (s *Service) EnsureAdmin(ctx context.Context, username string) error {
	if s == nil || s.Repo == nil {
		return errors.New("users service not configured")
	}
	username = strings.TrimSpace(username)
	if username == "" {
		return nil
	}
	if _, err := s.Repo.GetByUsername(ctx, username); err == nil {
		return nil
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}
	return s.Repo.Create(ctx, User{
		ID:           uuid.NewString(),
		Username:     username,
		Role:         RoleAdmin,
		UploadStatus: string(quota.StatusUnlimited),
	})
}

func (s *Service) GetByID(ctx context.Context, userID string) (User, error) {
	if s == nil || s.Repo == nil {
		return User{}, errors.New("users service not configured")
	}
	return s.Repo.GetByID(ctx, userID)
}
