package middleware

import (
	"net"
	"net/http"
	"strings"
)

// httpRequest adapts *http.Request to the limiter's request descriptor.
type httpRequest struct {
	r        *http.Request
	trustXFF bool
}

func (h httpRequest) Origin() string {
	return extractOrigin(h.r, h.trustXFF)
}

func (h httpRequest) Header(name string) string {
	return h.r.Header.Get(name)
}

func (h httpRequest) Route() string {
	return h.r.URL.Path
}

// extractOrigin resolves the client origin address. X-Forwarded-For is only
// consulted when the proxy chain is trusted; its first hop is the original
// client.
func extractOrigin(r *http.Request, trustXFF bool) string {
	if trustXFF {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			if ip := strings.TrimSpace(strings.Split(xff, ",")[0]); ip != "" {
				return ip
			}
		}
	}

	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil && host != "" {
		return host
	}
	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}
	return "unknown"
}
