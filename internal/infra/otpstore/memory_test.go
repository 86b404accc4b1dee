package otpstore

import (
	"context"
	"testing"
	"time"

	"docrequest/internal/domain"
)

func TestMemoryLazyExpiry(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	store := NewMemory(func() time.Time { return now })
	ctx := context.Background()

	if err := store.Set(ctx, "req:a@example.com", domain.OTPEntry{CodeHash: "h"}, 10*time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	entry, ok, err := store.Get(ctx, "req:a@example.com")
	if err != nil || !ok {
		t.Fatalf("expected entry, got ok=%v err=%v", ok, err)
	}
	if entry.CodeHash != "h" {
		t.Fatalf("expected code hash h, got %q", entry.CodeHash)
	}

	now = now.Add(10 * time.Minute)
	if _, ok, _ := store.Get(ctx, "req:a@example.com"); ok {
		t.Fatalf("expected entry to expire")
	}
	if store.Len() != 0 {
		t.Fatalf("expected expired entry dropped on read")
	}
}

func TestMemorySweepRemovesOnlyExpired(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	store := NewMemory(func() time.Time { return now })
	ctx := context.Background()
	_ = store.Set(ctx, "short", domain.OTPEntry{}, time.Minute)
	_ = store.Set(ctx, "long", domain.OTPEntry{}, time.Hour)

	now = now.Add(5 * time.Minute)
	if removed := store.Sweep(); removed != 1 {
		t.Fatalf("expected 1 removed, got %d", removed)
	}
	if _, ok, _ := store.Get(ctx, "long"); !ok {
		t.Fatalf("expected long entry to survive sweep")
	}
}

func TestMemoryDelete(t *testing.T) {
	store := NewMemory(nil)
	ctx := context.Background()
	_ = store.Set(ctx, "k", domain.OTPEntry{}, time.Minute)
	if err := store.Delete(ctx, "k"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := store.Get(ctx, "k"); ok {
		t.Fatalf("expected entry deleted")
	}
}

func TestMemoryReserveAttemptAndConsume(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	store := NewMemory(func() time.Time { return now })
	ctx := context.Background()

	if _, ok, _ := store.ReserveAttempt(ctx, "missing"); ok {
		t.Fatal("expected no reservation for a missing entry")
	}
	_ = store.Set(ctx, "k", domain.OTPEntry{CodeHash: "h"}, time.Minute)
	for want := 1; want <= 3; want++ {
		n, ok, err := store.ReserveAttempt(ctx, "k")
		if err != nil || !ok || n != want {
			t.Fatalf("reserve %d: got n=%d ok=%v err=%v", want, n, ok, err)
		}
	}
	if entry, _, _ := store.Get(ctx, "k"); entry.Attempts != 3 {
		t.Fatalf("expected 3 recorded attempts, got %d", entry.Attempts)
	}

	_ = store.Set(ctx, "k", domain.OTPEntry{CodeHash: "h2"}, time.Minute)
	if n, _, _ := store.ReserveAttempt(ctx, "k"); n != 1 {
		t.Fatalf("expected reissue to reset attempts, got %d", n)
	}

	if ok, _ := store.Consume(ctx, "k"); !ok {
		t.Fatal("expected first consume to remove the entry")
	}
	if ok, _ := store.Consume(ctx, "k"); ok {
		t.Fatal("expected second consume to find nothing")
	}

	_ = store.Set(ctx, "old", domain.OTPEntry{}, time.Minute)
	now = now.Add(time.Minute)
	if ok, _ := store.Consume(ctx, "old"); ok {
		t.Fatal("expired entry must not be consumable")
	}
}
