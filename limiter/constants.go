package limiter

// Key derivation strategies
const (
	StrategyIP     Strategy = "ip"
	StrategyCustom Strategy = "custom"
)

// Store failure policies
const (
	FailOpen   FailurePolicy = "open"
	FailClosed FailurePolicy = "closed"
)

// keyPrefix namespaces every store key. The resulting format is shared with
// external inspection tooling and must stay stable:
// "ratelimit:ip:203.0.113.7", "ratelimit:custom:tenant-42".
const keyPrefix = "ratelimit"
