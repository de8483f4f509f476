package retryx

import (
	"time"

	"github.com/cenkalti/backoff"

	"github.com/clinia/elasticbud/errorx"
)

const (
	DefaultInterval   = 500 * time.Millisecond
	DefaultMaxRetries = 3
)

// ConstantRetry executes the provided function `fn` with a constant retry interval.
// This function is designed for simple retry scenarios where the interval between retries
// and the maximum number of retries are the only customizable options.
//
// Parameters:
// - fn: The function to be executed and retried upon failure.
// - opts: Optional retry configurations, such as initial interval and maximum retries.
//
// The retry interval defaults to `DefaultInterval` unless overridden by the `WithInterval`
// option. Typed errors that are not temporary (see errorx.IsTemporary) stop the retries
// immediately. If more advanced control over the retry behavior is required, consider using the
// `backoff` package directly.
func ConstantRetry(fn func() error, opts ...RetryOption) error {
	rOpts := &retryOptions{}
	for _, opt := range opts {
		opt(rOpts)
	}

	duration := DefaultInterval
	if rOpts.initialInterval > 0 {
		duration = rOpts.initialInterval
	}

	return retry(fn, backoff.NewConstantBackOff(duration), rOpts)
}

func retry(fn func() error, bo backoff.BackOff, rOpts *retryOptions) error {
	maxRetryCount := DefaultMaxRetries
	if rOpts.retryCount > 0 {
		maxRetryCount = rOpts.retryCount
	}

	if rOpts.ctx != nil {
		bo = backoff.WithContext(bo, rOpts.ctx)
	}
	bo.Reset()

	retries := 0
	return backoff.Retry(func() error {
		err := fn()
		if err == nil {
			return nil
		}

		if _, ok := err.(*backoff.PermanentError); ok {
			return err
		}

		retries++
		if retries >= maxRetryCount || !errorx.IsTemporary(err) {
			return backoff.Permanent(err)
		}

		return err
	}, bo)
}
