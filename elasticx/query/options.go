package elasticxquery

import (
	"time"

	"github.com/clinia/elasticbud/elasticx"
	"github.com/clinia/elasticbud/loggerx"
)

type options struct {
	l             *loggerx.Logger
	debug         bool
	pageSize      int
	maxPages      int
	retryAttempts int
	retryInterval time.Duration
}

type Option func(*options)

func newOptions(opts []Option) *options {
	o := &options{
		retryAttempts: elasticx.DefaultRetryAttempts,
		retryInterval: elasticx.DefaultRetryInterval,
	}
	for _, opt := range opts {
		opt(o)
	}
	o.l = loggerx.OrDiscard(o.l)
	return o
}

func WithLogger(l *loggerx.Logger) Option {
	return func(o *options) {
		o.l = l
	}
}

// WithDebug logs every request body and the number of values extracted from its response.
func WithDebug() Option {
	return func(o *options) {
		o.debug = true
	}
}

// WithPageSize sets the number of composite buckets requested per page.
// By default the size of the query is used.
func WithPageSize(size int) Option {
	return func(o *options) {
		o.pageSize = size
	}
}

// WithMaxPages bounds the number of search requests a Paginator issues.
// Zero, the default, means unbounded.
func WithMaxPages(n int) Option {
	return func(o *options) {
		o.maxPages = n
	}
}

// WithRetry overrides the attempts and the fixed interval used for every search.
func WithRetry(attempts int, interval time.Duration) Option {
	return func(o *options) {
		o.retryAttempts = attempts
		o.retryInterval = interval
	}
}
