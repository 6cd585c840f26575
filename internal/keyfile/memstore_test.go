package keyfile

import (
	"context"
	"testing"
)

func TestMemStoreBasicCRUD(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()

	if ok, _ := s.Exists(ctx, []byte("k")); ok {
		t.Fatal("expected key to be absent")
	}
	if _, err := s.Get(ctx, []byte("k")); !IsNotFound(err) {
		t.Fatalf("expected NotFound, got %v", err)
	}

	if err := s.Set(ctx, []byte("k"), []byte("v")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if ok, _ := s.Exists(ctx, []byte("k")); !ok {
		t.Fatal("expected key to exist after Set")
	}
	got, err := s.Get(ctx, []byte("k"))
	if err != nil || string(got) != "v" {
		t.Fatalf("Get = (%q, %v)", got, err)
	}

	if err := s.Delete(ctx, []byte("k")); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Delete(ctx, []byte("k")); !IsNotFound(err) {
		t.Fatalf("expected NotFound on double delete, got %v", err)
	}
}

func TestMemStoreAtomicChangeKey(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()
	if err := s.Set(ctx, []byte("old"), []byte("payload")); err != nil {
		t.Fatal(err)
	}

	err := s.Atomic(ctx, func(tx Tx) error {
		exists, _ := tx.Exists([]byte("new"))
		if exists {
			t.Fatal("new key should not exist yet")
		}
		v, err := tx.Get([]byte("old"))
		if err != nil {
			return err
		}
		if err := tx.Delete([]byte("old")); err != nil {
			return err
		}
		return tx.Set([]byte("new"), v)
	})
	if err != nil {
		t.Fatalf("Atomic: %v", err)
	}

	if ok, _ := s.Exists(ctx, []byte("old")); ok {
		t.Error("old key should be gone")
	}
	got, err := s.Get(ctx, []byte("new"))
	if err != nil || string(got) != "payload" {
		t.Fatalf("Get(new) = (%q, %v)", got, err)
	}
}

func TestMemStoreAtomicAbortsOnError(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()
	if err := s.Set(ctx, []byte("old"), []byte("payload")); err != nil {
		t.Fatal(err)
	}
	if err := s.Set(ctx, []byte("new"), []byte("existing")); err != nil {
		t.Fatal(err)
	}

	sentinel := NotFound([]byte("irrelevant"))
	err := s.Atomic(ctx, func(tx Tx) error {
		exists, _ := tx.Exists([]byte("new"))
		if exists {
			return sentinel
		}
		return tx.Delete([]byte("old"))
	})
	if err != sentinel {
		t.Fatalf("expected sentinel error, got %v", err)
	}

	if ok, _ := s.Exists(ctx, []byte("old")); !ok {
		t.Error("old key should remain: Atomic must not apply partial effects on abort in this fake")
	}
}
