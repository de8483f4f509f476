package retryx

import (
	"context"
	"time"
)

type retryOptions struct {
	ctx             context.Context
	retryCount      int
	initialInterval time.Duration
}

type RetryOption func(*retryOptions)

// WithRetryCount sets the maximum number of attempts, the first one included.
func WithRetryCount(count int) RetryOption {
	return func(ro *retryOptions) {
		ro.retryCount = count
	}
}

func WithInterval(interval time.Duration) RetryOption {
	return func(ro *retryOptions) {
		ro.initialInterval = interval
	}
}

// WithContext stops waiting between attempts once ctx is done.
func WithContext(ctx context.Context) RetryOption {
	return func(ro *retryOptions) {
		ro.ctx = ctx
	}
}
