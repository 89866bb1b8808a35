package limiter

import (
	"context"
	"time"
)

// Entry is the per-key window state tracked by a Store.
type Entry struct {
	Count       int       // requests counted in the current window
	WindowStart time.Time // when the current window began
}

// Store defines the interface for keeping per-key window counters.
//
// Implementations must normalize an entry against expiry before any read or
// mutation: once now minus WindowStart reaches the window length, the entry
// restarts as {0, now}. Peek must not persist that normalization; Increment
// must apply it and persist in the same atomic step.
type Store interface {
	// Peek returns the normalized entry for key without mutating the store.
	// A key that was never seen yields {Count: 0, WindowStart: now}.
	Peek(ctx context.Context, key string, now time.Time) (Entry, error)

	// Increment normalizes, increments, and persists the entry for key,
	// returning the post-increment state. Two concurrent calls for the same
	// key must never observe the same pre-increment count.
	Increment(ctx context.Context, key string, now time.Time) (Entry, error)

	// Clear removes every entry. Meant for operational resets and test
	// isolation, not the request-serving path.
	Clear(ctx context.Context) error
}
