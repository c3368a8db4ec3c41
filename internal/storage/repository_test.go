package storage

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"

	"expensetracker/internal/kv"
)

var _ kv.Storage = (*SQLiteRepository)(nil)

func newTestRepo(t *testing.T) (*SQLiteRepository, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "kv.db")
	repo, err := NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })
	return repo, path
}

func TestSQLiteRepositorySetGetRemove(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepo(t)

	if _, ok, err := repo.GetItem(ctx, "missing"); ok || err != nil {
		t.Fatalf("missing key: ok=%v err=%v", ok, err)
	}

	if err := repo.SetItem(ctx, "expense-tracker-theme", "light"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := repo.SetItem(ctx, "expense-tracker-theme", "dark"); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	v, ok, err := repo.GetItem(ctx, "expense-tracker-theme")
	if err != nil || !ok || v != "dark" {
		t.Fatalf("unexpected get: v=%q ok=%v err=%v", v, ok, err)
	}

	if err := repo.RemoveItem(ctx, "expense-tracker-theme"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, ok, _ := repo.GetItem(ctx, "expense-tracker-theme"); ok {
		t.Fatalf("key should be gone")
	}
	if err := repo.RemoveItem(ctx, "expense-tracker-theme"); err != nil {
		t.Fatalf("removing a missing key should not fail: %v", err)
	}
}

func TestSQLiteRepositoryPersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	repo, path := newTestRepo(t)

	if err := repo.SetItem(ctx, "b", "2"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := repo.SetItem(ctx, "a", "1"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := repo.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	keys, err := reopened.Keys(ctx)
	if err != nil {
		t.Fatalf("keys: %v", err)
	}
	if !reflect.DeepEqual(keys, []string{"a", "b"}) {
		t.Fatalf("unexpected keys %v", keys)
	}
	if err := reopened.Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}
}
