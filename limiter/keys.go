package limiter

import (
	"errors"
	"fmt"
)

// ErrNoKeyGenerator reports a custom-strategy derivation that found no
// generator configured. It is never returned to callers; it only reaches the
// fallback hook.
var ErrNoKeyGenerator = errors.New("limiter: no key generator configured")

// FormatKey builds the store key for a strategy and identity value.
func FormatKey(s Strategy, value string) string {
	return fmt.Sprintf("%s:%s:%s", keyPrefix, s, value)
}

// DeriveKey resolves the identity key for a request under cfg. It is a pure
// function of its inputs: identical (request, config) pairs always yield the
// identical key. The custom strategy runs cfg.KeyGenerator inside a recover
// boundary; a missing, erroring, or panicking generator silently falls back
// to the IP key, custom prefix not retained.
func DeriveKey(req Request, cfg *Config) string {
	key, _ := deriveKey(req, cfg)
	return key
}

// deriveKey also reports the generator failure that forced an IP fallback,
// so the engine can surface it through logging and the fallback hook.
func deriveKey(req Request, cfg *Config) (string, error) {
	if cfg.Strategy != StrategyCustom {
		return FormatKey(StrategyIP, req.Origin()), nil
	}

	if cfg.KeyGenerator == nil {
		return FormatKey(StrategyIP, req.Origin()), ErrNoKeyGenerator
	}

	part, err := runKeyGenerator(cfg.KeyGenerator, req)
	if err != nil {
		return FormatKey(StrategyIP, req.Origin()), err
	}
	return FormatKey(StrategyCustom, part), nil
}

// runKeyGenerator invokes gen with panics converted to errors, so a buggy
// generator can never take down request admission.
func runKeyGenerator(gen KeyGenerator, req Request) (part string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("key generator panicked: %v", r)
		}
	}()
	return gen(req)
}
