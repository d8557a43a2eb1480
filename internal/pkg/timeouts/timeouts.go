package timeouts

import (
	"context"
	"time"
)

const (
	// DefaultRequestTimeout bounds every indexer request when none is configured.
	DefaultRequestTimeout = 30 * time.Second
	// MaxRequestTimeout caps configured request timeouts.
	MaxRequestTimeout = 5 * time.Minute
)

// RequestTimeout clamps a configured per-request timeout.
func RequestTimeout(configured time.Duration) time.Duration {
	if configured <= 0 {
		return DefaultRequestTimeout
	}
	if configured > MaxRequestTimeout {
		return MaxRequestTimeout
	}
	return configured
}

// WithRunTimeout bounds a whole search run. A non-positive timeout or a parent
// that already has a deadline leaves the context unchanged.
func WithRunTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
