package elasticxbulk

import (
	"context"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentation = "github.com/clinia/elasticbud/elasticx/bulk"

type metrics struct {
	indexed  metric.Int64Counter
	skipped  metric.Int64Counter
	requests metric.Int64Counter
}

func newMetrics(mp metric.MeterProvider) (*metrics, error) {
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	meter := mp.Meter(instrumentation)

	indexed, err := meter.Int64Counter("elasticbud.documents.indexed",
		metric.WithDescription("Documents accepted by bulk requests."),
		metric.WithUnit("{document}"))
	if err != nil {
		return nil, errors.WithStack(err)
	}

	skipped, err := meter.Int64Counter("elasticbud.documents.skipped",
		metric.WithDescription("Documents skipped because an equal document was already indexed."),
		metric.WithUnit("{document}"))
	if err != nil {
		return nil, errors.WithStack(err)
	}

	requests, err := meter.Int64Counter("elasticbud.bulk.requests",
		metric.WithDescription("Bulk requests sent."),
		metric.WithUnit("{request}"))
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return &metrics{indexed: indexed, skipped: skipped, requests: requests}, nil
}

// record counts one batch. requests is 0 when every document of the batch was skipped.
func (m *metrics) record(ctx context.Context, index string, requests, indexed, skipped int) {
	attrs := metric.WithAttributes(attribute.String("index", index))
	m.requests.Add(ctx, int64(requests), attrs)
	m.indexed.Add(ctx, int64(indexed), attrs)
	m.skipped.Add(ctx, int64(skipped), attrs)
}
