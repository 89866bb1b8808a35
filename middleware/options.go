package middleware

import (
	"net/http"
	"time"
)

const (
	// defaultRetryAfter is the Retry-After hint attached to rejections if
	// not set via WithRetryAfter.
	defaultRetryAfter = 1 * time.Second
)

type options struct {
	trustForwardedFor bool
	retryAfter        time.Duration
	headers           bool
	recorder          Recorder
	onRejected        http.Handler
}

func defaultOptions() options {
	return options{
		retryAfter: defaultRetryAfter,
		headers:    true,
		onRejected: defaultRejectionHandler,
	}
}

// Option configures the middleware.
type Option func(*options)

// WithTrustForwardedFor makes origin extraction honor the first hop of the
// X-Forwarded-For header. Only enable behind a proxy that overwrites the
// header, otherwise clients can spoof their way out of their own quota.
func WithTrustForwardedFor(trust bool) Option {
	return func(o *options) {
		o.trustForwardedFor = trust
	}
}

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
// decision, e.g. a metrics sink.
func WithRecorder(r Recorder) Option {
	return func(o *options) {
		if r != nil {
			o.recorder = r
		}
	}
}

// WithRejectionHandler replaces the default plain-text 429 response. The
// Retry-After header is already set when the handler runs.
func WithRejectionHandler(h http.Handler) Option {
	return func(o *options) {
		if h != nil {
			o.onRejected = h
		}
	}
}
