package queue

import (
	"context"
	"testing"
)

func TestMemoryLockerSingleFlight(t *testing.T) {
	locker := NewMemoryLocker()
	ctx := context.Background()

	ok, err := locker.TryLock(ctx, "vid-1")
	if err != nil || !ok {
		t.Fatalf("first TryLock = (%v, %v), want (true, nil)", ok, err)
	}

	// Second acquisition on the same video must fail.
	ok, err = locker.TryLock(ctx, "vid-1")
	if err != nil {
		t.Fatalf("second TryLock error: %v", err)
	}
	if ok {
		t.Error("second TryLock succeeded, want contention")
	}

	// A different video is independent.
	ok, err = locker.TryLock(ctx, "vid-2")
	if err != nil || !ok {
		t.Fatalf("TryLock on other video = (%v, %v), want (true, nil)", ok, err)
	}

	// Unlock makes the video lockable again.
	if err := locker.Unlock(ctx, "vid-1"); err != nil {
		t.Fatalf("Unlock error: %v", err)
	}
	ok, err = locker.TryLock(ctx, "vid-1")
	if err != nil || !ok {
		t.Fatalf("TryLock after Unlock = (%v, %v), want (true, nil)", ok, err)
	}
}
