package cache

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
)

func newTestSQLiteStore(t *testing.T, cfg SQLiteStoreConfig) *SQLiteStore {
	t.Helper()
	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join(t.TempDir(), "cache.db")
	}
	store, err := NewSQLiteStore(cfg)
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStorePutGet(t *testing.T) {
	store := newTestSQLiteStore(t, SQLiteStoreConfig{MaxBytes: 1024})
	ctx := context.Background()

	if err := store.Put(ctx, "k1", []byte("response body")); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	entry, err := store.Get(ctx, "k1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if entry == nil {
		t.Fatal("Get() returned nil for stored key")
	}
	if string(entry.Value) != "response body" {
		t.Errorf("Value = %q, want %q", entry.Value, "response body")
	}
}

func TestSQLiteStoreMiss(t *testing.T) {
	store := newTestSQLiteStore(t, SQLiteStoreConfig{MaxBytes: 1024})

	entry, err := store.Get(context.Background(), "absent")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if entry != nil {
		t.Errorf("Get() = %v, want nil for absent key", entry)
	}
}

func TestSQLiteStoreOverwrite(t *testing.T) {
	store := newTestSQLiteStore(t, SQLiteStoreConfig{MaxBytes: 1024})
	ctx := context.Background()

	if err := store.Put(ctx, "k1", []byte("first")); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if err := store.Put(ctx, "k1", []byte("second value")); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	entry, err := store.Get(ctx, "k1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if string(entry.Value) != "second value" {
		t.Errorf("Value = %q, want overwrite to win", entry.Value)
	}
	if store.Len() != 1 {
		t.Errorf("Len() = %d, want 1", store.Len())
	}
}

func TestSQLiteStoreEvictionBound(t *testing.T) {
	store := newTestSQLiteStore(t, SQLiteStoreConfig{MaxBytes: 30})
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		key := Key(fmt.Sprintf("k%d", i))
		if err := store.Put(ctx, key, []byte("0123456789")); err != nil {
			t.Fatalf("Put(%s) error = %v", key, err)
		}
		if got := store.SizeBytes(); got > 30 {
			t.Fatalf("SizeBytes() = %d exceeds bound after insert %d", got, i)
		}
	}

	if store.Len() != 3 {
		t.Errorf("Len() = %d, want 3", store.Len())
	}
}

func TestSQLiteStoreMaxEntries(t *testing.T) {
	store := newTestSQLiteStore(t, SQLiteStoreConfig{MaxBytes: 1 << 20, MaxEntries: 2})
	ctx := context.Background()

	for _, key := range []Key{"a", "b", "c"} {
		if err := store.Put(ctx, key, []byte("x")); err != nil {
			t.Fatalf("Put(%s) error = %v", key, err)
		}
	}

	if store.Len() != 2 {
		t.Errorf("Len() = %d, want 2", store.Len())
	}
}

func TestSQLiteStoreEntryTooLarge(t *testing.T) {
	store := newTestSQLiteStore(t, SQLiteStoreConfig{MaxBytes: 10})

	err := store.Put(context.Background(), "big", make([]byte, 11))
	if err == nil {
		t.Fatal("expected error for oversized entry")
	}
	var tooLarge *EntryTooLargeError
	if !errors.As(err, &tooLarge) {
		t.Fatalf("expected EntryTooLargeError, got %T: %v", err, err)
	}
	if store.Len() != 0 {
		t.Errorf("store should be empty after rejected Put, got %d entries", store.Len())
	}
}

func TestSQLiteStoreInvalidateAll(t *testing.T) {
	store := newTestSQLiteStore(t, SQLiteStoreConfig{MaxBytes: 1024})
	ctx := context.Background()

	for _, key := range []Key{"a", "b"} {
		if err := store.Put(ctx, key, []byte("value")); err != nil {
			t.Fatalf("Put(%s) error = %v", key, err)
		}
	}

	if err := store.InvalidateAll(ctx); err != nil {
		t.Fatalf("InvalidateAll() error = %v", err)
	}
	if store.Len() != 0 || store.SizeBytes() != 0 {
		t.Errorf("store should be empty, got %d entries / %d bytes", store.Len(), store.SizeBytes())
	}
}

func TestSQLiteStorePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	ctx := context.Background()

	store, err := NewSQLiteStore(SQLiteStoreConfig{DBPath: path, MaxBytes: 1024})
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	if err := store.Put(ctx, "k1", []byte("survives restarts")); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	reopened := newTestSQLiteStore(t, SQLiteStoreConfig{DBPath: path, MaxBytes: 1024})
	entry, err := reopened.Get(ctx, "k1")
	if err != nil {
		t.Fatalf("Get() after reopen error = %v", err)
	}
	if entry == nil || string(entry.Value) != "survives restarts" {
		t.Errorf("entry should survive a reopen, got %v", entry)
	}
}

func TestSQLiteStoreRejectsBadConfig(t *testing.T) {
	if _, err := NewSQLiteStore(SQLiteStoreConfig{MaxBytes: 1024}); err == nil {
		t.Error("expected error for empty db path")
	}
	if _, err := NewSQLiteStore(SQLiteStoreConfig{DBPath: "x.db", MaxBytes: 0}); err == nil {
		t.Error("expected error for non-positive max bytes")
	}
}
