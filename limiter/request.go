package limiter

// Request describes the inbound request the engine derives identity from.
// Implementations are provided by transport adapters; the engine treats all
// three values as opaque strings and uses them only for key construction.
type Request interface {
	// Origin returns the network origin of the request, typically the
	// client address.
	Origin() string
	// Header returns the named header value, or "" when absent.
	Header(name string) string
	// Route returns the route or path identifier of the request.
	Route() string
}
