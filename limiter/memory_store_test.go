package limiter

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestMemoryStoreIncrementCounts(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	ctx := context.Background()
	now := time.Now()

	for want := 1; want <= 5; want++ {
		e, err := store.Increment(ctx, "k", now)
		if err != nil {
			t.Fatalf("Increment: %v", err)
		}
		if e.Count != want {
			t.Fatalf("count = %d, want %d", e.Count, want)
		}
		if !e.WindowStart.Equal(now) {
			t.Fatalf("window start = %v, want %v", e.WindowStart, now)
		}
	}
}

func TestMemoryStoreKeysAreIndependent(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	ctx := context.Background()
	now := time.Now()

	store.Increment(ctx, "a", now)
	store.Increment(ctx, "a", now)
	store.Increment(ctx, "b", now)

	ea, _ := store.Peek(ctx, "a", now)
	eb, _ := store.Peek(ctx, "b", now)
	if ea.Count != 2 || eb.Count != 1 {
		t.Fatalf("counts = %d/%d, want 2/1", ea.Count, eb.Count)
	}
}

func TestMemoryStorePeekUnknownKey(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	now := time.Now()

	e, err := store.Peek(context.Background(), "ghost", now)
	if err != nil {
		t.Fatalf("Peek: %v", err)
	}
	if e.Count != 0 || !e.WindowStart.Equal(now) {
		t.Fatalf("got %+v, want a virtual entry starting at now", e)
	}

	ms := store.(*memoryStore)
	ms.mu.Lock()
	defer ms.mu.Unlock()
	if len(ms.entries) != 0 {
		t.Fatalf("peek created %d entries, want none", len(ms.entries))
	}
}

func TestMemoryStoreExpiryBoundary(t *testing.T) {
	store := NewMemoryStore(time.Second)
	ctx := context.Background()
	start := time.Unix(1700000000, 0)

	store.Increment(ctx, "k", start)
	store.Increment(ctx, "k", start)

	// one instant before the boundary the window still counts
	e, _ := store.Peek(ctx, "k", start.Add(time.Second-time.Nanosecond))
	if e.Count != 2 {
		t.Fatalf("count just before boundary = %d, want 2", e.Count)
	}

	// at exactly one window length the entry restarts
	e, _ = store.Peek(ctx, "k", start.Add(time.Second))
	if e.Count != 0 {
		t.Fatalf("count at boundary = %d, want 0", e.Count)
	}
}

func TestMemoryStorePeekDoesNotPersistReset(t *testing.T) {
	store := NewMemoryStore(time.Second)
	ctx := context.Background()
	start := time.Unix(1700000000, 0)
	later := start.Add(2 * time.Second)

	store.Increment(ctx, "k", start)
	store.Increment(ctx, "k", start)

	if e, _ := store.Peek(ctx, "k", later); e.Count != 0 {
		t.Fatalf("peeked count = %d, want 0", e.Count)
	}

	ms := store.(*memoryStore)
	ms.mu.Lock()
	persisted := ms.entries["k"]
	ms.mu.Unlock()
	if persisted.Count != 2 || !persisted.WindowStart.Equal(start) {
		t.Fatalf("persisted entry = %+v, want the old window untouched", persisted)
	}

	// the reset only lands once a mutation commits it
	if e, _ := store.Increment(ctx, "k", later); e.Count != 1 {
		t.Fatalf("count after committing the new window = %d, want 1", e.Count)
	}
}

func TestMemoryStoreIncrementRewritesExpiredEntry(t *testing.T) {
	store := NewMemoryStore(time.Second)
	ctx := context.Background()
	start := time.Unix(1700000000, 0)

	for i := 0; i < 3; i++ {
		store.Increment(ctx, "k", start)
	}

	later := start.Add(5 * time.Second)
	e, _ := store.Increment(ctx, "k", later)
	if e.Count != 1 || !e.WindowStart.Equal(later) {
		t.Fatalf("got %+v, want a fresh window at %v", e, later)
	}

	// still exactly one entry for the key: rewritten, not duplicated
	ms := store.(*memoryStore)
	ms.mu.Lock()
	defer ms.mu.Unlock()
	if len(ms.entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(ms.entries))
	}
}

func TestMemoryStoreClear(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	ctx := context.Background()
	now := time.Now()

	store.Increment(ctx, "a", now)
	store.Increment(ctx, "b", now)
	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}

	e, _ := store.Peek(ctx, "a", now)
	if e.Count != 0 {
		t.Fatalf("count after clear = %d, want 0", e.Count)
	}

	ms := store.(*memoryStore)
	ms.mu.Lock()
	defer ms.mu.Unlock()
	if len(ms.entries) != 0 {
		t.Fatalf("entries after clear = %d, want 0", len(ms.entries))
	}
}

func TestMemoryStoreConcurrentIncrements(t *testing.T) {
	const (
		goroutines = 50
		perG       = 20
	)
	store := NewMemoryStore(time.Hour)
	ctx := context.Background()
	now := time.Now()

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perG; j++ {
				if _, err := store.Increment(ctx, "shared", now); err != nil {
					t.Errorf("Increment: %v", err)
				}
			}
		}()
	}
	wg.Wait()

	e, _ := store.Peek(ctx, "shared", now)
	if want := goroutines * perG; e.Count != want {
		t.Fatalf("count = %d, want %d (no lost increments)", e.Count, want)
	}
}
