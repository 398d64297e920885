package ratelimit

import (
	"context"
	"fmt"
	"time"
)

// Result describes the outcome of recording one attempt.
// Blocked means this attempt exceeded the budget and must be refused.
type Result struct {
	Blocked   bool
	Remaining int
	ResetAt   time.Time
}

// Limiter counts attempts per key within a fixed reset window. Implementations
// must be safe for concurrent use. Limiters are always injected explicitly;
// there is no package-level instance.
type Limiter interface {
	// Record counts an attempt and reports whether it pushed the key over
	// the limit.
	Record(ctx context.Context, key string) (Result, error)
	// Blocked is a read-only pre-flight check; it never increments.
	Blocked(ctx context.Context, key string) (bool, error)
	// Reset clears the key, forgiving prior attempts.
	Reset(ctx context.Context, key string) error
	// Cleanup purges expired state; safe to call periodically.
	Cleanup(ctx context.Context) error
}

// Policy is a window/threshold pair. Thresholds are configuration, not
// hard-coded invariants.
type Policy struct {
	Window      time.Duration
	MaxAttempts int
}

// Key namespaces an identifier, e.g. Key("login", username) -> "login:alice".
func Key(class, id string) string {
	return fmt.Sprintf("%s:%s", class, id)
}
