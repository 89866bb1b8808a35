package limiter

// Option defines a function type for configuring a RateLimiter.
type Option func(*RateLimiter)

// WithStore replaces the default in-memory store, e.g. to plug in an
// external counter backend. The store must honor the Store contract,
// in particular atomic Increment.
func WithStore(store Store) Option {
	return func(rl *RateLimiter) {
		if store != nil {
			rl.store = store
		}
	}
}

// WithClock replaces the wall clock used to timestamp window operations.
// Meant for deterministic tests of window expiry.
func WithClock(clock Clock) Option {
	return func(rl *RateLimiter) {
		if clock != nil {
			rl.clock = clock
		}
	}
}

// WithFallbackHook registers a hook invoked whenever custom key derivation
// falls back to the IP key. The fallback itself stays silent toward callers;
// the hook exists for diagnostics.
func WithFallbackHook(hook FallbackHook) Option {
	return func(rl *RateLimiter) {
		if hook != nil {
			rl.onFallback = hook
		}
	}
}
