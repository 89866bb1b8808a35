// Package ginmw adapts the admission engine to gin handler chains.
package ginmw

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/toolink/throttle/limiter"
	"github.com/toolink/throttle/middleware"
)

const (
	requestIDHeader = "X-Request-ID"

	// verdictContextKey is where the admission verdict is stored on the gin
	// context for downstream handlers.
	verdictContextKey = "throttle.verdict"
)

// errorResponse is the JSON body attached to rejected requests.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ginRequest adapts a gin context to the limiter's request descriptor.
// Origin resolution goes through ClientIP, which honors gin's trusted proxy
// configuration.
type ginRequest struct {
	c *gin.Context
}

func (g ginRequest) Origin() string {
	return g.c.ClientIP()
}

func (g ginRequest) Header(name string) string {
	return g.c.GetHeader(name)
}

func (g ginRequest) Route() string {
	if path := g.c.FullPath(); path != "" {
		return path
	}
	return g.c.Request.URL.Path
}

// RateLimit returns a gin middleware enforcing request admission. Rejected
// requests are aborted with a 429 JSON body and a Retry-After hint; admitted
// requests continue with the verdict stored on the gin context (see
// VerdictFrom).
func RateLimit(rl *limiter.RateLimiter, opts ...Option) gin.HandlerFunc {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	return func(c *gin.Context) {
		req := ginRequest{c: c}

		v := rl.Check(c.Request.Context(), req)
		key := rl.GenerateKey(req)

		if o.headers {
			c.Header(middleware.HeaderLimit, strconv.Itoa(v.Total))
			c.Header(middleware.HeaderRemaining, strconv.Itoa(v.Remaining))
			c.Header(middleware.HeaderKey, key)
		}

		if o.recorder != nil {
			o.recorder.Record(c.Request.Context(), newEvent(c, req, key, v))
		}

		if !v.Allowed {
			log.Warn().Str("key", key).Str("method", c.Request.Method).Str("path", c.Request.URL.Path).Msg("request throttled")
			c.Header(middleware.HeaderRetryAfter, strconv.Itoa(int(o.retryAfter.Seconds())))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, errorResponse{Code: "RATE_LIMITED", Message: "too many requests"})
			return
		}

		c.Set(verdictContextKey, v)
		c.Next()
	}
}

// VerdictFrom returns the admission verdict stored by the middleware for the
// current request. The boolean is false when the middleware did not run or
// the request was rejected before reaching the handler.
func VerdictFrom(c *gin.Context) (limiter.Verdict, bool) {
	value, ok := c.Get(verdictContextKey)
	if !ok {
		return limiter.Verdict{}, false
	}
	v, ok := value.(limiter.Verdict)
	return v, ok
}

// newEvent assembles the decision event for recorders. The request id is
// taken from the inbound header when present, otherwise minted here.
func newEvent(c *gin.Context, req ginRequest, key string, v limiter.Verdict) middleware.Event {
	id := c.GetHeader(requestIDHeader)
	if id == "" {
		id = uuid.NewString()
	}
	return middleware.Event{
		RequestID: id,
		Key:       key,
		Origin:    req.Origin(),
		Route:     req.Route(),
		Method:    c.Request.Method,
		Allowed:   v.Allowed,
		Remaining: v.Remaining,
		At:        time.Now(),
	}
}
