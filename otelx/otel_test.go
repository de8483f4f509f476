package otelx

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinia/elasticbud/errorx"
)

func TestNew(t *testing.T) {
	ctx := context.Background()

	t.Run("should write spans and measurements to stdout", func(t *testing.T) {
		var buf bytes.Buffer
		tel, err := New(ctx, nil, Config{ServiceName: "elasticbud", Provider: ProviderStdout}, &buf)
		require.NoError(t, err)

		_, span := tel.TracerProvider.Tracer("test").Start(ctx, "elasticx.client.Search")
		span.End()

		counter, err := tel.MeterProvider.Meter("test").Int64Counter("elasticbud.documents.indexed")
		require.NoError(t, err)
		counter.Add(ctx, 3)

		require.NoError(t, tel.Shutdown(ctx))
		assert.Contains(t, buf.String(), "elasticx.client.Search")
		assert.Contains(t, buf.String(), "elasticbud.documents.indexed")
	})

	t.Run("should be a noop without provider", func(t *testing.T) {
		var buf bytes.Buffer
		tel, err := New(ctx, nil, Config{}, &buf)
		require.NoError(t, err)

		_, span := tel.TracerProvider.Tracer("test").Start(ctx, "noop")
		span.End()
		assert.False(t, span.SpanContext().IsValid())

		require.NoError(t, tel.Shutdown(ctx))
		assert.Empty(t, buf.String())
	})

	t.Run("should refuse an unknown provider", func(t *testing.T) {
		_, err := New(ctx, nil, Config{Provider: "jaeger"}, nil)
		assert.True(t, errorx.IsInvalidArgumentError(err))
	})

	t.Run("should require an OTLP endpoint", func(t *testing.T) {
		_, err := New(ctx, nil, Config{Provider: ProviderOTLP}, nil)
		assert.True(t, errorx.IsInvalidArgumentError(err))
	})

	t.Run("should build OTLP exporters without connecting", func(t *testing.T) {
		tel, err := New(ctx, nil, Config{Provider: ProviderOTLP, OTLP: OTLPConfig{ServerURL: "localhost:4318", Insecure: true, SamplingRatio: 0.5}}, nil)
		require.NoError(t, err)
		assert.NotNil(t, tel.TracerProvider)

		sctx, cancel := context.WithCancel(ctx)
		cancel()
		_ = tel.Shutdown(sctx)
	})
}
