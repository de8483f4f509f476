// Package otelx sets up the OpenTelemetry trace and meter providers of the elasticbud command line.
package otelx

import (
	"context"
	"io"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.7.0"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/clinia/elasticbud/errorx"
	"github.com/clinia/elasticbud/loggerx"
)

// Telemetry holds the configured providers. Shutdown flushes them.
type Telemetry struct {
	TracerProvider trace.TracerProvider
	MeterProvider  metric.MeterProvider

	shutdown []func(context.Context) error
}

// New builds the providers described by c. The stdout provider writes to w.
func New(ctx context.Context, l *loggerx.Logger, c Config, w io.Writer) (*Telemetry, error) {
	l = loggerx.OrDiscard(l)

	var (
		spans   sdktrace.SpanExporter
		metrics sdkmetric.Exporter
		err     error
	)
	switch c.Provider {
	case "":
		l.Debug(ctx, "Missing provider in config - skipping telemetry setup")
		return &Telemetry{
			TracerProvider: tracenoop.NewTracerProvider(),
			MeterProvider:  metricnoop.NewMeterProvider(),
		}, nil
	case ProviderStdout:
		spans, metrics, err = stdoutExporters(w)
		if err != nil {
			return nil, err
		}
		l.Debug(ctx, "Stdout telemetry configured")
	case ProviderOTLP:
		spans, metrics, err = otlpExporters(ctx, c.OTLP)
		if err != nil {
			return nil, err
		}
		l.Debug(ctx, "OTLP telemetry configured! Sending spans and measurements to "+c.OTLP.ServerURL)
	default:
		return nil, errorx.InvalidArgumentErrorf("unknown telemetry provider %q, expected %q or %q", c.Provider, ProviderStdout, ProviderOTLP)
	}

	res := resource.NewWithAttributes(semconv.SchemaURL, semconv.ServiceNameKey.String(c.ServiceName))

	ratio := c.OTLP.SamplingRatio
	if c.Provider == ProviderStdout || ratio == 0 {
		ratio = 1
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(spans),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))),
	)
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metrics)),
		sdkmetric.WithResource(res),
	)

	return &Telemetry{
		TracerProvider: tp,
		MeterProvider:  mp,
		shutdown:       []func(context.Context) error{tp.Shutdown, mp.Shutdown},
	}, nil
}

// Shutdown flushes pending spans and measurements.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	var first error
	for _, fn := range t.shutdown {
		if err := fn(ctx); err != nil && first == nil {
			first = err
		}
	}
	if first != nil {
		return errors.Wrap(first, "could not flush telemetry")
	}
	return nil
}

func stdoutExporters(w io.Writer) (sdktrace.SpanExporter, sdkmetric.Exporter, error) {
	spans, err := stdouttrace.New(stdouttrace.WithWriter(w))
	if err != nil {
		return nil, nil, errors.WithStack(err)
	}

	metrics, err := stdoutmetric.New(stdoutmetric.WithWriter(w))
	if err != nil {
		return nil, nil, errors.WithStack(err)
	}

	return spans, metrics, nil
}

func otlpExporters(ctx context.Context, c OTLPConfig) (sdktrace.SpanExporter, sdkmetric.Exporter, error) {
	if c.ServerURL == "" {
		return nil, nil, errorx.InvalidArgumentErrorf("an OTLP server URL is required")
	}

	traceOpts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(c.ServerURL)}
	metricOpts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(c.ServerURL)}
	if c.Insecure {
		traceOpts = append(traceOpts, otlptracehttp.WithInsecure())
		metricOpts = append(metricOpts, otlpmetrichttp.WithInsecure())
	}

	spans, err := otlptrace.New(ctx, otlptracehttp.NewClient(traceOpts...))
	if err != nil {
		return nil, nil, errors.WithStack(err)
	}

	metrics, err := otlpmetrichttp.New(ctx, metricOpts...)
	if err != nil {
		return nil, nil, errors.WithStack(err)
	}

	return spans, metrics, nil
}
