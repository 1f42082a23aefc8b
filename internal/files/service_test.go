package files

import (
	"context"
	"errors"
	"sync"
	"testing"

	"filevault-backend/internal/audit"
	"filevault-backend/internal/quota"
	"filevault-backend/internal/shared/metrics"
	"filevault-backend/internal/shared/storage/object"
	"filevault-backend/internal/users"
)

type stubStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	putErr  error
	getErr  error
	delErr  error
}

func newStubStore() *stubStore {
	return &stubStore{objects: make(map[string][]byte)}
}

func (s *stubStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.putErr != nil {
		return s.putErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = append([]byte(nil), data...)
	return nil
}

func (s *stubStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.getErr != nil {
		return nil, s.getErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[key]
	if !ok {
		return nil, object.ErrNotFound
	}
	return append([]byte(nil), data...), nil
}

func (s *stubStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.delErr != nil {
		return s.delErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

func (s *stubStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}

type failingCreateRepo struct {
	Repo
	createErr error
}

func (r *failingCreateRepo) Create(ctx context.Context, rec Record) error {
	return r.createErr
}

// cancelingCreateRepo cancels the request context mid-save, the shape a
// request timeout takes during the metadata phase.
type cancelingCreateRepo struct {
	Repo
	cancel context.CancelFunc
}

func (r *cancelingCreateRepo) Create(ctx context.Context, rec Record) error {
	r.cancel()
	return ctx.Err()
}

func newTestService(store *stubStore, quotaStore *quota.MemoryStore) *Service {
	return &Service{
		Store:        store,
		Repo:         NewMemoryRepo(),
		Quota:        quota.NewService(quotaStore),
		Audit:        audit.NewMemoryRecorder(),
		MaxBatchSize: 3,
	}
}

var owner = Actor{ID: "u1", Role: users.RoleUser}

func TestUploadStoresBytesAndMetadata(t *testing.T) {
	store := newStubStore()
	quotaStore := quota.NewMemoryStore()
	svc := newTestService(store, quotaStore)
	ctx := context.Background()

	rec, err := svc.Upload(ctx, owner, "notes.txt", "text/plain", []byte("hello world"))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if rec.SizeBytes != int64(len("hello world")) || rec.UserID != owner.ID {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if _, err := store.Get(ctx, rec.StorageName); err != nil {
		t.Fatalf("bytes missing after upload: %v", err)
	}
	status, err := quotaStore.Status(ctx, owner.ID)
	if err != nil || status != quota.StatusUploaded {
		t.Fatalf("expected quota consumed, got %v %v", status, err)
	}
}

func TestUploadRejectsDuplicateContentWithoutOrphan(t *testing.T) {
	store := newStubStore()
	quotaStore := quota.NewMemoryStore()
	quotaStore.Seed(owner.ID, quota.StatusUnlimited)
	svc := newTestService(store, quotaStore)
	ctx := context.Background()

	if _, err := svc.Upload(ctx, owner, "a.txt", "text/plain", []byte("same bytes")); err != nil {
		t.Fatalf("first upload: %v", err)
	}
	_, err := svc.Upload(ctx, owner, "b.txt", "text/plain", []byte("same bytes"))
	if !errors.Is(err, ErrDuplicateFile) {
		t.Fatalf("expected ErrDuplicateFile, got %v", err)
	}
	if store.count() != 1 {
		t.Fatalf("duplicate left an orphan blob, %d objects stored", store.count())
	}
}

func TestUploadAllowsSameContentForDifferentOwners(t *testing.T) {
	svc := newTestService(newStubStore(), quota.NewMemoryStore())
	ctx := context.Background()

	if _, err := svc.Upload(ctx, owner, "a.txt", "text/plain", []byte("shared")); err != nil {
		t.Fatalf("owner upload: %v", err)
	}
	other := Actor{ID: "u2", Role: users.RoleUser}
	if _, err := svc.Upload(ctx, other, "a.txt", "text/plain", []byte("shared")); err != nil {
		t.Fatalf("other owner upload: %v", err)
	}
}

func TestUploadQuotaCycle(t *testing.T) {
	store := newStubStore()
	quotaStore := quota.NewMemoryStore()
	svc := newTestService(store, quotaStore)
	ctx := context.Background()

	rec, err := svc.Upload(ctx, owner, "first.txt", "text/plain", []byte("first"))
	if err != nil {
		t.Fatalf("first upload: %v", err)
	}

	_, err = svc.Upload(ctx, owner, "second.txt", "text/plain", []byte("second"))
	if !errors.Is(err, quota.ErrQuotaExceeded) {
		t.Fatalf("expected ErrQuotaExceeded, got %v", err)
	}
	if store.count() != 1 {
		t.Fatalf("rejected upload left an orphan blob")
	}

	if err := svc.Delete(ctx, owner, rec.StorageName); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := svc.Upload(ctx, owner, "second.txt", "text/plain", []byte("second")); err != nil {
		t.Fatalf("upload after delete: %v", err)
	}
}

func TestUploadUnlimitedUserSkipsQuota(t *testing.T) {
	quotaStore := quota.NewMemoryStore()
	quotaStore.Seed("admin", quota.StatusUnlimited)
	svc := newTestService(newStubStore(), quotaStore)
	ctx := context.Background()
	admin := Actor{ID: "admin", Role: users.RoleAdmin}

	for _, body := range []string{"one", "two", "three"} {
		if _, err := svc.Upload(ctx, admin, body+".txt", "text/plain", []byte(body)); err != nil {
			t.Fatalf("upload %q: %v", body, err)
		}
	}
	status, _ := quotaStore.Status(ctx, "admin")
	if status != quota.StatusUnlimited {
		t.Fatalf("unlimited status must never change, got %v", status)
	}
}

func TestUploadCompensatesFailedMetadataSave(t *testing.T) {
	store := newStubStore()
	quotaStore := quota.NewMemoryStore()
	svc := newTestService(store, quotaStore)
	svc.Repo = &failingCreateRepo{Repo: NewMemoryRepo(), createErr: errors.New("db down")}
	ctx := context.Background()

	_, err := svc.Upload(ctx, owner, "notes.txt", "text/plain", []byte("hello"))
	if err == nil || IsPolicyError(err) {
		t.Fatalf("expected infra error, got %v", err)
	}
	if store.count() != 0 {
		t.Fatalf("compensating delete did not run, %d objects left", store.count())
	}
	status, _ := quotaStore.Status(ctx, owner.ID)
	if status != quota.StatusNotUploaded {
		t.Fatalf("quota slot not released, status %v", status)
	}
}

func TestUploadCompensatesWhenContextDiesDuringSave(t *testing.T) {
	store := newStubStore()
	quotaStore := quota.NewMemoryStore()
	svc := newTestService(store, quotaStore)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc.Repo = &cancelingCreateRepo{Repo: NewMemoryRepo(), cancel: cancel}

	_, err := svc.Upload(ctx, owner, "notes.txt", "text/plain", []byte("hello"))
	if err == nil || IsPolicyError(err) {
		t.Fatalf("expected infra error, got %v", err)
	}
	if store.count() != 0 {
		t.Fatalf("canceled save left %d orphaned object(s)", store.count())
	}
	status, err := quotaStore.Status(context.Background(), owner.ID)
	if err != nil {
		t.Fatalf("quota status: %v", err)
	}
	if status != quota.StatusNotUploaded {
		t.Fatalf("quota slot not released after canceled save, status %v", status)
	}
}

func TestUploadBatchPartialSuccess(t *testing.T) {
	quotaStore := quota.NewMemoryStore()
	quotaStore.Seed(owner.ID, quota.StatusUnlimited)
	svc := newTestService(newStubStore(), quotaStore)

	outcomes, err := svc.UploadBatch(context.Background(), owner, []BatchItem{
		{FileName: "good.txt", ContentType: "text/plain", Data: []byte("fine")},
		{FileName: "bad.png", ContentType: "image/png", Data: []byte("not a png")},
		{FileName: "torn.txt", ContentType: "text/plain", ReadErr: errors.New("read: EOF")},
	})
	if err != nil {
		t.Fatalf("partial success must not error: %v", err)
	}
	if len(outcomes) != 3 {
		t.Fatalf("expected 3 outcomes, got %d", len(outcomes))
	}
	if outcomes[0].Status != BatchStatusUploaded || outcomes[0].StorageName == "" {
		t.Fatalf("first outcome: %+v", outcomes[0])
	}
	if outcomes[1].Status != BatchStatusFailed || outcomes[1].Message == "" {
		t.Fatalf("second outcome: %+v", outcomes[1])
	}
	if outcomes[2].Status != BatchStatusFailed || outcomes[2].Message != "unable to read file" {
		t.Fatalf("third outcome: %+v", outcomes[2])
	}
}

func TestUploadBatchAllFailed(t *testing.T) {
	store := newStubStore()
	svc := newTestService(store, quota.NewMemoryStore())
	ctx := context.Background()

	outcomes, err := svc.UploadBatch(ctx, owner, []BatchItem{
		{FileName: "fake.png", ContentType: "image/png", Data: []byte("text")},
		{FileName: "empty.txt", ContentType: "text/plain"},
	})
	var berr *BatchError
	if !errors.As(err, &berr) {
		t.Fatalf("expected BatchError, got %v", err)
	}
	if len(berr.Outcomes) != 2 || len(outcomes) != 2 {
		t.Fatalf("outcomes must cover every file: %+v", berr.Outcomes)
	}
	if store.count() != 0 {
		t.Fatalf("failed batch wrote %d object(s)", store.count())
	}
	exists, err := svc.Repo.ExistsByHashAndOwner(ctx, ContentHash([]byte("text")), owner.ID)
	if err != nil {
		t.Fatalf("repo check: %v", err)
	}
	if exists {
		t.Fatalf("failed batch left a metadata row")
	}
}

func TestUploadBatchLimits(t *testing.T) {
	svc := newTestService(newStubStore(), quota.NewMemoryStore())
	ctx := context.Background()

	if _, err := svc.UploadBatch(ctx, owner, nil); !errors.Is(err, ErrEmptyBatch) {
		t.Fatalf("expected ErrEmptyBatch, got %v", err)
	}

	items := make([]BatchItem, 4)
	for i := range items {
		items[i] = BatchItem{FileName: "f.txt", ContentType: "text/plain", Data: []byte("x")}
	}
	if _, err := svc.UploadBatch(ctx, owner, items); !errors.Is(err, ErrTooManyFiles) {
		t.Fatalf("expected ErrTooManyFiles, got %v", err)
	}
}

func TestDownloadReturnsBytesAndMetadata(t *testing.T) {
	svc := newTestService(newStubStore(), quota.NewMemoryStore())
	ctx := context.Background()

	rec, err := svc.Upload(ctx, owner, "notes.txt", "text/plain", []byte("payload"))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	dl, err := svc.Download(ctx, owner, rec.StorageName)
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if string(dl.Data) != "payload" || dl.Record.OriginalName != "notes.txt" {
		t.Fatalf("unexpected download: %+v", dl.Record)
	}
}

func TestDownloadUnknownNameIsNotFound(t *testing.T) {
	svc := newTestService(newStubStore(), quota.NewMemoryStore())
	if _, err := svc.Download(context.Background(), owner, "ghost.txt"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDownloadNotFoundIsAuditedNotCounted(t *testing.T) {
	svc := newTestService(newStubStore(), quota.NewMemoryStore())
	sink := audit.NewMemoryRecorder()
	svc.Audit = sink

	before := metrics.Render()
	if _, err := svc.Download(context.Background(), owner, "ghost.txt"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if metrics.Render() != before {
		t.Fatalf("a not-found download must not move the failure counters")
	}
	events := sink.Events()
	if len(events) != 1 {
		t.Fatalf("expected one audit event, got %d", len(events))
	}
	if events[0].Operation != "DOWNLOAD" || events[0].Outcome != audit.OutcomeFailure || events[0].ResourceID != "ghost.txt" {
		t.Fatalf("unexpected audit event: %+v", events[0])
	}
}

func TestDownloadMissingBytesIsIntegrityFailure(t *testing.T) {
	store := newStubStore()
	svc := newTestService(store, quota.NewMemoryStore())
	ctx := context.Background()

	rec, err := svc.Upload(ctx, owner, "notes.txt", "text/plain", []byte("payload"))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if err := store.Delete(ctx, rec.StorageName); err != nil {
		t.Fatalf("prime store: %v", err)
	}

	_, err = svc.Download(ctx, owner, rec.StorageName)
	if err == nil || errors.Is(err, ErrNotFound) {
		t.Fatalf("metadata without bytes must not look like not-found, got %v", err)
	}
}

func TestDeleteEnforcesOwnership(t *testing.T) {
	svc := newTestService(newStubStore(), quota.NewMemoryStore())
	ctx := context.Background()

	rec, err := svc.Upload(ctx, owner, "notes.txt", "text/plain", []byte("payload"))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}

	stranger := Actor{ID: "u2", Role: users.RoleUser}
	if err := svc.Delete(ctx, stranger, rec.StorageName); !errors.Is(err, ErrAccessDenied) {
		t.Fatalf("expected ErrAccessDenied, got %v", err)
	}
	if _, err := svc.Download(ctx, owner, rec.StorageName); err != nil {
		t.Fatalf("file must survive a denied delete: %v", err)
	}
}

func TestAdminDeleteReleasesOwnerQuota(t *testing.T) {
	store := newStubStore()
	quotaStore := quota.NewMemoryStore()
	quotaStore.Seed("admin", quota.StatusUnlimited)
	svc := newTestService(store, quotaStore)
	ctx := context.Background()

	rec, err := svc.Upload(ctx, owner, "notes.txt", "text/plain", []byte("payload"))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}

	admin := Actor{ID: "admin", Role: users.RoleAdmin}
	if err := svc.Delete(ctx, admin, rec.StorageName); err != nil {
		t.Fatalf("admin delete: %v", err)
	}

	status, _ := quotaStore.Status(ctx, owner.ID)
	if status != quota.StatusNotUploaded {
		t.Fatalf("owner quota not released, status %v", status)
	}
	adminStatus, _ := quotaStore.Status(ctx, "admin")
	if adminStatus != quota.StatusUnlimited {
		t.Fatalf("admin quota must stay unlimited, status %v", adminStatus)
	}
	if store.count() != 0 {
		t.Fatalf("object not deleted")
	}
}

func TestDeleteUnknownNameIsNotFound(t *testing.T) {
	svc := newTestService(newStubStore(), quota.NewMemoryStore())
	if err := svc.Delete(context.Background(), owner, "ghost.txt"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestNewStorageNameKeepsExtension(t *testing.T) {
	name := NewStorageName("Report Final.PDF")
	if len(name) < 5 || name[len(name)-4:] != ".pdf" {
		t.Fatalf("expected .pdf suffix, got %s", name)
	}
	if NewStorageName("README")[len(NewStorageName("README"))-4:] != ".tmp" {
		t.Fatalf("missing extension must fall back to .tmp")
	}
	if NewStorageName("a.txt") == NewStorageName("a.txt") {
		t.Fatalf("identifiers must be unique")
	}
}

func TestUploadRejectsTraversalNames(t *testing.T) {
	store := newStubStore()
	svc := newTestService(store, quota.NewMemoryStore())

	_, err := svc.Upload(context.Background(), owner, "../../etc/secrets.txt", "text/plain", []byte("x"))
	if err == nil || !IsPolicyError(err) {
		t.Fatalf("expected policy rejection, got %v", err)
	}
	if store.count() != 0 {
		t.Fatalf("rejected upload must not store bytes")
	}
}
