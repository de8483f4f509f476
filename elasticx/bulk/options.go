package elasticxbulk

import (
	"time"

	"go.opentelemetry.io/otel/metric"

	"github.com/clinia/elasticbud/elasticx"
	"github.com/clinia/elasticbud/loggerx"
)

type options struct {
	identityFields []string
	overwrite      bool
	template       any
	batchSize      int
	quiet          bool
	l              *loggerx.Logger
	meterProvider  metric.MeterProvider
	retryAttempts  int
	retryInterval  time.Duration
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

// WithIdentityFields makes IndexDocuments skip documents equal, on these fields, to an indexed one.
func WithIdentityFields(fields ...string) Option {
	return func(o *options) {
		o.identityFields = fields
	}
}

// WithOverwrite deletes the indexed documents matching a new document's identity
// instead of skipping the new document.
func WithOverwrite(overwrite bool) Option {
	return func(o *options) {
		o.overwrite = overwrite
	}
}

// WithTemplate registers an index template before indexing. See elasticx.TemplateBody for the accepted sources.
func WithTemplate(src any) Option {
	return func(o *options) {
		o.template = src
	}
}

// WithBatchSize splits the documents in bulk requests of at most size documents.
func WithBatchSize(size int) Option {
	return func(o *options) {
		o.batchSize = size
	}
}

// WithQuiet turns off the per batch summary log.
func WithQuiet() Option {
	return func(o *options) {
		o.quiet = true
	}
}

func WithLogger(l *loggerx.Logger) Option {
	return func(o *options) {
		o.l = l
	}
}

func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *options) {
		o.meterProvider = mp
	}
}

// WithRetry overrides the attempts and the fixed interval between them.
func WithRetry(attempts int, interval time.Duration) Option {
	return func(o *options) {
		o.retryAttempts = attempts
		o.retryInterval = interval
	}
}
