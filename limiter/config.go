package limiter

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// Strategy selects how the identity key is derived from a request.
type Strategy string

// FailurePolicy decides the verdict when the store reports an error.
type FailurePolicy string

// KeyGenerator derives the custom portion of an identity key from a request.
// A generator that returns an error or panics makes derivation fall back to
// the IP key for that request.
type KeyGenerator func(req Request) (string, error)

// Valid strategies
var validStrategies = map[Strategy]bool{
	StrategyIP:     true,
	StrategyCustom: true,
}

// Config holds the admission engine configuration.
type Config struct {
	Max      int           `mapstructure:"max"`      // allowed requests per window
	Window   time.Duration `mapstructure:"window"`   // window length
	Strategy Strategy      `mapstructure:"strategy"` // key derivation mode ("ip" or "custom")

	// KeyGenerator is consulted only by the custom strategy.
	KeyGenerator KeyGenerator `mapstructure:"-"`

	// OnStoreError selects fail-open or fail-closed behavior when the store
	// errors. The bundled memory store never errors, so this only matters
	// when an external store is plugged in.
	OnStoreError FailurePolicy `mapstructure:"on_store_error"`
}

// ValidateAndPrepare processes the raw config, validates it, and fills in defaults.
func (c *Config) ValidateAndPrepare() error {
	if c.Max <= 0 {
		return fmt.Errorf("invalid max: %d, must be positive", c.Max)
	}
	if c.Window <= 0 {
		return fmt.Errorf("invalid window: %s, must be positive", c.Window)
	}

	if c.Strategy == "" {
		c.Strategy = StrategyIP
	}
	if !validStrategies[c.Strategy] {
		return fmt.Errorf("invalid strategy: %q, must be '%s' or '%s'", c.Strategy, StrategyIP, StrategyCustom)
	}

	if c.Strategy == StrategyCustom && c.KeyGenerator == nil {
		// not fatal: every derivation degrades to the ip fallback
		log.Warn().Msg("custom strategy configured without a key generator, keys will fall back to ip")
	}

	switch c.OnStoreError {
	case "":
		c.OnStoreError = FailOpen
	case FailOpen, FailClosed:
	default:
		return fmt.Errorf("invalid on_store_error: %q, must be '%s' or '%s'", c.OnStoreError, FailOpen, FailClosed)
	}

	return nil
}
