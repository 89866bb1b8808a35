package ginmw

import (
	"time"

	"github.com/toolink/throttle/middleware"
)

const (
	// defaultRetryAfter is the Retry-After hint attached to rejections if
	// not set via WithRetryAfter.
	defaultRetryAfter = 1 * time.Second
)

type options struct {
	retryAfter time.Duration
	headers    bool
	recorder   middleware.Recorder
}

func defaultOptions() options {
	return options{
		retryAfter: defaultRetryAfter,
		headers:    true,
	}
}

// Option configures the middleware.
type Option func(*options)

// WithRetryAfter sets the Retry-After hint attached to rejections.
// Default is 1 second.
func WithRetryAfter(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.retryAfter = d
		}
	}
}

// WithHeaders toggles the X-RateLimit-* response headers. Default is on.
func WithHeaders(enabled bool) Option {
	return func(o *options) {
		o.headers = enabled
	}
}

// WithRecorder registers a recorder that receives one Event per admission
// decision.
func WithRecorder(r middleware.Recorder) Option {
	return func(o *options) {
		if r != nil {
			o.recorder = r
		}
	}
}
