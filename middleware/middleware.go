// Package middleware adapts the admission engine to net/http servers.
// It derives the caller's identity from the incoming request, consults the
// limiter, attaches quota headers, and turns rejections into 429 responses.
package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/toolink/throttle/limiter"
)

// Response headers describing the caller's quota standing.
const (
	HeaderLimit      = "X-RateLimit-Limit"
	HeaderRemaining  = "X-RateLimit-Remaining"
	HeaderKey        = "X-RateLimit-Key"
	HeaderRetryAfter = "Retry-After"

	requestIDHeader = "X-Request-ID"
)

// defaultRejectionHandler writes the plain-text 429 response.
var defaultRejectionHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
})

// RateLimit wraps handlers with request admission control. Every request
// consumes one unit of its key's quota; rejected requests receive a 429 with
// a Retry-After hint, admitted requests proceed with the verdict stashed in
// their context (see VerdictFromContext).
func RateLimit(rl *limiter.RateLimiter, opts ...Option) func(next http.Handler) http.Handler {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			req := httpRequest{r: r, trustXFF: o.trustForwardedFor}

			v := rl.Check(r.Context(), req)
			key := rl.GenerateKey(req)

			if o.headers {
				w.Header().Set(HeaderLimit, strconv.Itoa(v.Total))
				w.Header().Set(HeaderRemaining, strconv.Itoa(v.Remaining))
				w.Header().Set(HeaderKey, key)
			}

			if o.recorder != nil {
				o.recorder.Record(r.Context(), newEvent(r, req, key, v))
			}

			if !v.Allowed {
				log.Warn().Str("key", key).Str("method", r.Method).Str("path", r.URL.Path).Msg("request throttled")
				w.Header().Set(HeaderRetryAfter, strconv.Itoa(int(o.retryAfter.Seconds())))
				o.onRejected.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(newContext(r.Context(), v)))
		})
	}
}

// newEvent assembles the decision event for recorders. The request id is
// taken from the inbound header when present, otherwise minted here.
func newEvent(r *http.Request, req httpRequest, key string, v limiter.Verdict) Event {
	id := r.Header.Get(requestIDHeader)
	if id == "" {
		id = uuid.NewString()
	}
	return Event{
		RequestID: id,
		Key:       key,
		Origin:    req.Origin(),
		Route:     r.URL.Path,
		Method:    r.Method,
		Allowed:   v.Allowed,
		Remaining: v.Remaining,
		At:        time.Now(),
	}
}
