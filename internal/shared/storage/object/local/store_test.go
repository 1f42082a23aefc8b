package local

import (
	"context"
	"errors"
	"testing"

	"filevault-backend/internal/shared/storage/object"
)

func TestPutGetDeleteRoundTrip(t *testing.T) {
	store := New(t.TempDir())
	ctx := context.Background()

	if err := store.Put(ctx, "abc.txt", []byte("hello"), "text/plain"); err != nil {
		t.Fatalf("Put: %v", err)
	}

	data, err := store.Get(ctx, "abc.txt")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(data) != "hello" {
		t.Fatalf("unexpected content: %q", data)
	}

	if err := store.Delete(ctx, "abc.txt"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.Get(ctx, "abc.txt"); !errors.Is(err, object.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestGetMissingKeyReturnsNotFound(t *testing.T) {
	store := New(t.TempDir())
	if _, err := store.Get(context.Background(), "nope.bin"); !errors.Is(err, object.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteMissingKeyIsNoError(t *testing.T) {
	store := New(t.TempDir())
	if err := store.Delete(context.Background(), "nope.bin"); err != nil {
		t.Fatalf("Delete of missing key: %v", err)
	}
}

func TestRejectsTraversalKey(t *testing.T) {
	store := New(t.TempDir())
	if err := store.Put(context.Background(), "../escape", []byte("x"), ""); err == nil {
		t.Fatalf("expected error for traversal key")
	}
}
