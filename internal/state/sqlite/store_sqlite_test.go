package sqlite

import (
	"context"
	"path/filepath"
	"testing"
)

func TestStoreRoundTrip(t *testing.T) {
	store, err := New(filepath.Join(t.TempDir(), "panel.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer store.Close()
	ctx := context.Background()

	if _, ok, err := store.Get(ctx, "missing"); err != nil || ok {
		t.Fatalf("missing key: ok=%t err=%v", ok, err)
	}
	if err := store.Set(ctx, "nonce", "1700000000000"); err != nil {
		t.Fatalf("set: %v", err)
	}
	val, ok, err := store.Get(ctx, "nonce")
	if err != nil || !ok || val != "1700000000000" {
		t.Fatalf("get: val=%q ok=%t err=%v", val, ok, err)
	}
	if err := store.Set(ctx, "nonce", "1700000000001"); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	val, _, _ = store.Get(ctx, "nonce")
	if val != "1700000000001" {
		t.Fatalf("upsert lost: %q", val)
	}
	if err := store.Delete(ctx, "nonce"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := store.Get(ctx, "nonce"); ok {
		t.Fatal("deleted key still present")
	}
}
