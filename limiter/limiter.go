package limiter

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// Clock supplies the current time for window bookkeeping.
type Clock interface {
	Now() time.Time
}

// systemClock is the wall-clock default.
type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Verdict is the admission decision for a single call. It is a value,
// computed fresh per call and never stored.
type Verdict struct {
	Allowed   bool // whether the request may proceed
	Remaining int  // quota left in the current window, never negative
	Total     int  // the configured quota
}

// FallbackHook observes key-derivation fallbacks. The error explains why the
// custom derivation was abandoned for this request.
type FallbackHook func(req Request, err error)

// RateLimiter contains the configuration and store for request admission.
// It is stateless apart from its configuration and its store reference, and
// is safe for concurrent use.
type RateLimiter struct {
	config     *Config
	store      Store
	clock      Clock
	onFallback FallbackHook
}

// NewRateLimiter creates a new RateLimiter instance. The config is validated
// and prepared up front; a misconfiguration fails construction. Unless
// WithStore is given, counters live in a fresh in-memory store owned by this
// instance alone.
func NewRateLimiter(cfg *Config, opts ...Option) (*RateLimiter, error) {
	if cfg == nil {
		return nil, errors.New("limiter: nil config")
	}
	if err := cfg.ValidateAndPrepare(); err != nil {
		return nil, fmt.Errorf("limiter: %w", err)
	}

	rl := &RateLimiter{
		config: cfg,
		clock:  systemClock{},
	}
	for _, opt := range opts {
		opt(rl)
	}
	if rl.store == nil {
		rl.store = NewMemoryStore(cfg.Window)
	}

	log.Debug().Int("max", cfg.Max).Dur("window", cfg.Window).Str("strategy", string(cfg.Strategy)).Msg("new rate limiter created")
	return rl, nil
}

// Check admits or rejects the request against its key's quota. The counter
// is incremented regardless of the outcome, so rejected traffic keeps
// counting past the quota and the verdict stays at zero remaining until the
// window turns over.
func (rl *RateLimiter) Check(ctx context.Context, req Request) Verdict {
	key := rl.generateKey(req)

	entry, err := rl.store.Increment(ctx, key, rl.clock.Now())
	if err != nil {
		return rl.storeErrorVerdict(key, err)
	}

	v := rl.verdict(entry.Count)
	if !v.Allowed {
		log.Warn().Str("key", key).Int("count", entry.Count).Int("max", rl.config.Max).Msg("rate limit exceeded")
	}
	return v
}

// Status reports the key's current standing without consuming quota.
// Repeated calls with no intervening Check return identical verdicts.
func (rl *RateLimiter) Status(ctx context.Context, req Request) Verdict {
	key := rl.generateKey(req)

	entry, err := rl.store.Peek(ctx, key, rl.clock.Now())
	if err != nil {
		return rl.storeErrorVerdict(key, err)
	}
	return rl.verdict(entry.Count)
}

// GenerateKey derives the identity key for req without touching any counter,
// for callers that want the key for logging or debugging.
func (rl *RateLimiter) GenerateKey(req Request) string {
	return DeriveKey(req, rl.config)
}

// Clear empties the underlying store. For operational resets and test
// isolation only.
func (rl *RateLimiter) Clear(ctx context.Context) error {
	return rl.store.Clear(ctx)
}

// generateKey derives the key for an admission call and surfaces any custom
// derivation fallback through the log and the configured hook.
func (rl *RateLimiter) generateKey(req Request) string {
	key, genErr := deriveKey(req, rl.config)
	if genErr != nil {
		if errors.Is(genErr, ErrNoKeyGenerator) {
			// misconfiguration was already warned about at construction
			log.Debug().Str("key", key).Msg("no key generator, using ip key")
		} else {
			log.Warn().Err(genErr).Str("key", key).Msg("custom key derivation failed, falling back to ip key")
		}
		if rl.onFallback != nil {
			rl.onFallback(req, genErr)
		}
	}
	return key
}

// verdict computes the admission verdict for an observed count.
func (rl *RateLimiter) verdict(count int) Verdict {
	remaining := rl.config.Max - count
	if remaining < 0 {
		remaining = 0
	}
	return Verdict{
		Allowed:   count <= rl.config.Max,
		Remaining: remaining,
		Total:     rl.config.Max,
	}
}

// storeErrorVerdict maps a store failure onto the configured policy. Only
// reachable with external stores; the memory store never errors.
func (rl *RateLimiter) storeErrorVerdict(key string, err error) Verdict {
	log.Error().Err(err).Str("key", key).Str("policy", string(rl.config.OnStoreError)).Msg("store failure during admission check")

	if rl.config.OnStoreError == FailClosed {
		return Verdict{Allowed: false, Remaining: 0, Total: rl.config.Max}
	}
	return Verdict{Allowed: true, Remaining: rl.config.Max, Total: rl.config.Max}
}
