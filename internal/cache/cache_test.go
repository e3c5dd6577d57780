package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryGetSet(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	if _, err := m.Get(ctx, "k"); !errors.Is(err, ErrMiss) {
		t.Fatalf("Get on empty cache: got %v, want ErrMiss", err)
	}

	if err := m.Set(ctx, "k", []byte("v1"), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := m.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != "v1" {
		t.Errorf("Get = %q, want %q", got, "v1")
	}

	// Returned slices are copies.
	got[0] = 'x'
	again, _ := m.Get(ctx, "k")
	if string(again) != "v1" {
		t.Errorf("cache entry mutated through returned slice: %q", again)
	}

	if err := m.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := m.Get(ctx, "k"); !errors.Is(err, ErrMiss) {
		t.Errorf("Get after Delete: got %v, want ErrMiss", err)
	}
}

func TestMemoryExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	m := NewMemory()
	m.now = func() time.Time { return now }

	m.Set(ctx, "short", []byte("a"), time.Second)
	m.Set(ctx, "forever", []byte("b"), 0)

	now = now.Add(2 * time.Second)

	if _, err := m.Get(ctx, "short"); !errors.Is(err, ErrMiss) {
		t.Errorf("expired entry: got %v, want ErrMiss", err)
	}
	if _, err := m.Get(ctx, "forever"); err != nil {
		t.Errorf("entry without ttl: %v", err)
	}
}

func TestMemoryPurge(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	m := NewMemory()
	m.now = func() time.Time { return now }

	m.Set(ctx, "a", []byte("1"), time.Second)
	m.Set(ctx, "b", []byte("2"), time.Hour)
	now = now.Add(time.Minute)

	if n := m.Purge(); n != 1 {
		t.Errorf("Purge removed %d entries, want 1", n)
	}
}
