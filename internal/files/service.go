// Package files owns the upload, download and delete lifecycle. Uploads
// span two stores with no shared transaction, so the service runs them as
// a sequence with compensating actions: a blob written to the object store
// is deleted again whenever the metadata phase fails, and a consumed quota
// slot is released.
package files

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"filevault-backend/internal/audit"
	"filevault-backend/internal/quota"
	"filevault-backend/internal/shared/metrics"
	"filevault-backend/internal/shared/storage/object"
	"filevault-backend/internal/shared/telemetry"
	"filevault-backend/internal/shared/util"
	"filevault-backend/internal/users"
	"filevault-backend/internal/validation"
)

// Service contains the business logic for files.
type Service struct {
	Store object.ObjectStore
	Repo  Repo
	Quota *quota.Service
	Audit audit.Recorder

	// MaxBatchSize caps batch uploads; zero means no cap.
	MaxBatchSize int
}

// NewStorageName derives the opaque identifier for a fresh upload. The
// original name contributes only its extension; files without one get a
// placeholder so every identifier has the same shape.
func NewStorageName(fileName string) string {
	ext := util.FileExtension(fileName)
	if ext == "" {
		ext = "tmp"
	}
	return uuid.NewString() + "." + ext
}

// Upload validates, stores and records one file for the actor.
func (s *Service) Upload(ctx context.Context, actor Actor, fileName, contentType string, data []byte) (Record, error) {
	rec, err := s.runUpload(ctx, actor, fileName, contentType, data)
	if err != nil {
		if IsPolicyError(err) {
			metrics.IncUploadRejected()
		} else {
			metrics.IncUploadFailed()
			telemetry.Error("upload failed", map[string]any{
				"userId":   actor.ID,
				"fileName": fileName,
				"error":    err.Error(),
			})
		}
		s.record(ctx, "UPLOAD", fileName, actor.ID, audit.OutcomeFailure, err.Error())
		return Record{}, err
	}
	metrics.IncUploadSucceeded()
	metrics.ObserveUploadSize(float64(rec.SizeBytes))
	s.record(ctx, "UPLOAD", rec.StorageName, actor.ID, audit.OutcomeSuccess, "")
	return rec, nil
}

func (s *Service) runUpload(ctx context.Context, actor Actor, fileName, contentType string, data []byte) (Record, error) {
	if err := validation.Validate(data, fileName, contentType); err != nil {
		return Record{}, err
	}
	fileName, err := util.SanitizeFileName(fileName)
	if err != nil {
		return Record{}, &validation.Error{Reason: "invalid file name"}
	}

	status, err := s.Quota.Status(ctx, actor.ID)
	if err != nil {
		return Record{}, fmt.Errorf("quota status for %s: %w", actor.ID, err)
	}
	if status == quota.StatusUploaded {
		return Record{}, quota.ErrQuotaExceeded
	}

	hash := ContentHash(data)
	exists, err := s.Repo.ExistsByHashAndOwner(ctx, hash, actor.ID)
	if err != nil {
		return Record{}, fmt.Errorf("dedup check: %w", err)
	}
	if exists {
		return Record{}, ErrDuplicateFile
	}

	storageName := NewStorageName(fileName)
	if err := s.Store.Put(ctx, storageName, data, contentType); err != nil {
		return Record{}, fmt.Errorf("store object %s: %w", storageName, err)
	}

	consumed, err := s.Quota.Consume(ctx, actor.ID)
	if err != nil {
		s.discardObject(ctx, storageName)
		return Record{}, fmt.Errorf("consume quota: %w", err)
	}
	// A consume that did not transition is fine for UNLIMITED users; for
	// everyone else it means a concurrent upload claimed the slot first.
	if !consumed && status != quota.StatusUnlimited {
		s.discardObject(ctx, storageName)
		return Record{}, quota.ErrQuotaExceeded
	}

	rec := Record{
		StorageName:  storageName,
		OriginalName: fileName,
		ContentType:  contentType,
		SizeBytes:    int64(len(data)),
		ContentHash:  hash,
		UserID:       actor.ID,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.Repo.Create(ctx, rec); err != nil {
		s.discardObject(ctx, storageName)
		if consumed {
			if rerr := s.Quota.Release(context.WithoutCancel(ctx), actor.ID); rerr != nil {
				telemetry.Error("quota release after failed save", map[string]any{
					"userId": actor.ID,
					"error":  rerr.Error(),
				})
			}
		}
		if errors.Is(err, ErrDuplicateFile) {
			return Record{}, ErrDuplicateFile
		}
		return Record{}, fmt.Errorf("save metadata %s: %w", storageName, err)
	}
	return rec, nil
}

// UploadBatch uploads every file independently. Partial success is a
// success; only a batch with zero stored files returns a BatchError.
func (s *Service) UploadBatch(ctx context.Context, actor Actor, items []BatchItem) ([]BatchOutcome, error) {
	if len(items) == 0 {
		return nil, ErrEmptyBatch
	}
	if s.MaxBatchSize > 0 && len(items) > s.MaxBatchSize {
		return nil, ErrTooManyFiles
	}

	outcomes := make([]BatchOutcome, 0, len(items))
	succeeded := 0
	for _, item := range items {
		if item.ReadErr != nil {
			outcomes = append(outcomes, BatchOutcome{
				Status:   BatchStatusFailed,
				FileName: item.FileName,
				Message:  "unable to read file",
			})
			continue
		}
		rec, err := s.Upload(ctx, actor, item.FileName, item.ContentType, item.Data)
		if err != nil {
			outcomes = append(outcomes, BatchOutcome{
				Status:   BatchStatusFailed,
				FileName: item.FileName,
				Message:  failureMessage(err),
			})
			continue
		}
		succeeded++
		outcomes = append(outcomes, BatchOutcome{
			Status:      BatchStatusUploaded,
			FileName:    item.FileName,
			StorageName: rec.StorageName,
		})
	}
	if succeeded == 0 {
		return outcomes, &BatchError{Outcomes: outcomes}
	}
	return outcomes, nil
}

// Download returns a file's metadata and bytes. Metadata without bytes is
// an integrity failure, never a not-found.
func (s *Service) Download(ctx context.Context, actor Actor, storageName string) (Download, error) {
	rec, err := s.Repo.GetByStorageName(ctx, storageName)
	if err != nil {
		// A not-found is a refusal, not an infrastructure failure.
		if errors.Is(err, ErrNotFound) {
			s.record(ctx, "DOWNLOAD", storageName, actor.ID, audit.OutcomeFailure, ErrNotFound.Error())
			return Download{}, ErrNotFound
		}
		metrics.IncDownloadFailed()
		err = fmt.Errorf("load metadata %s: %w", storageName, err)
		s.record(ctx, "DOWNLOAD", storageName, actor.ID, audit.OutcomeFailure, err.Error())
		return Download{}, err
	}
	data, err := s.Store.Get(ctx, storageName)
	if err != nil {
		metrics.IncDownloadFailed()
		s.record(ctx, "DOWNLOAD", storageName, actor.ID, audit.OutcomeFailure, err.Error())
		return Download{}, fmt.Errorf("load object %s: %w", storageName, err)
	}
	metrics.IncDownload()
	s.record(ctx, "DOWNLOAD", storageName, actor.ID, audit.OutcomeSuccess, "")
	return Download{Record: rec, Data: data}, nil
}

// Delete removes a file's bytes and metadata and frees the owner's quota
// slot. Only the owner or an admin may delete.
func (s *Service) Delete(ctx context.Context, actor Actor, storageName string) error {
	err := s.runDelete(ctx, actor, storageName)
	if err != nil {
		if !IsPolicyError(err) {
			metrics.IncDeleteFailed()
			telemetry.Error("delete failed", map[string]any{
				"userId": actor.ID,
				"fileId": storageName,
				"error":  err.Error(),
			})
		}
		s.record(ctx, "DELETE", storageName, actor.ID, audit.OutcomeFailure, err.Error())
		return err
	}
	metrics.IncDelete()
	s.record(ctx, "DELETE", storageName, actor.ID, audit.OutcomeSuccess, "")
	return nil
}

func (s *Service) runDelete(ctx context.Context, actor Actor, storageName string) error {
	rec, err := s.Repo.GetByStorageName(ctx, storageName)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("load metadata %s: %w", storageName, err)
	}
	if actor.Role != users.RoleAdmin && rec.UserID != actor.ID {
		return ErrAccessDenied
	}

	if err := s.Store.Delete(ctx, storageName); err != nil {
		return fmt.Errorf("delete object %s: %w", storageName, err)
	}
	rows, err := s.Repo.DeleteByStorageName(ctx, storageName)
	if err != nil {
		return fmt.Errorf("delete metadata %s: %w", storageName, err)
	}
	// A concurrent delete already removed the row; the file is gone either
	// way, but this caller loses.
	if rows == 0 {
		return ErrNotFound
	}
	if err := s.Quota.Release(ctx, rec.UserID); err != nil {
		return fmt.Errorf("release quota for %s: %w", rec.UserID, err)
	}
	return nil
}

// IsPolicyError reports whether err is a deliberate refusal rather than an
// infrastructure failure.
func IsPolicyError(err error) bool {
	var verr *validation.Error
	var berr *BatchError
	return errors.As(err, &verr) ||
		errors.As(err, &berr) ||
		errors.Is(err, quota.ErrQuotaExceeded) ||
		errors.Is(err, ErrDuplicateFile) ||
		errors.Is(err, ErrAccessDenied) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrEmptyBatch) ||
		errors.Is(err, ErrTooManyFiles)
}

func failureMessage(err error) string {
	if IsPolicyError(err) {
		return err.Error()
	}
	return "internal error"
}

func (s *Service) record(ctx context.Context, operation, resourceID, userID, outcome, message string) {
	if s.Audit == nil {
		return
	}
	// Audit entries for failed operations must outlive the request that
	// produced them.
	s.Audit.Record(context.WithoutCancel(ctx), audit.Event{
		Operation:  operation,
		ResourceID: resourceID,
		UserID:     userID,
		Outcome:    outcome,
		Message:    message,
	})
}

func (s *Service) discardObject(ctx context.Context, storageName string) {
	// The failure being compensated may be the request context's own
	// cancellation, so the cleanup call must not inherit it.
	ctx = context.WithoutCancel(ctx)
	if err := s.Store.Delete(ctx, storageName); err != nil {
		telemetry.Error("compensating object delete failed", map[string]any{
			"fileId": storageName,
			"error":  err.Error(),
		})
	}
}
