package middleware

import (
	"context"

	"github.com/toolink/throttle/limiter"
)

// verdictKey is the private key type used for context.WithValue.
// Using a private type prevents collisions with other context keys.
type verdictKey struct{}

// newContext returns a context derived from ctx that carries the admission
// verdict for the current request.
func newContext(ctx context.Context, v limiter.Verdict) context.Context {
	return context.WithValue(ctx, verdictKey{}, v)
}

// VerdictFromContext extracts the verdict stashed by the middleware, so
// handlers behind it can inspect their remaining quota without consulting
// the limiter again. The boolean is false when no middleware ran for this
// request.
func VerdictFromContext(ctx context.Context) (limiter.Verdict, bool) {
	if ctx == nil {
		return limiter.Verdict{}, false
	}
	v, ok := ctx.Value(verdictKey{}).(limiter.Verdict)
	return v, ok
}
