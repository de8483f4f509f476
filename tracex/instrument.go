package tracex

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/clinia/elasticbud/loggerx"
)

const ComponentNameSeparator = "."

func ComponentName(packageName, structName string) string {
	return packageName + ComponentNameSeparator + structName
}

/*
Instrument starts a span named after the component and returns a logger scoped to it. `span.End()` must be called at the end of using the span.

	const componentName = "elasticx.client"

	func (c *client) Search(ctx context.Context, index string, body []byte, size int) ([]byte, error) {
		ctx, span, l := tracex.Instrument(ctx, c.tracer, c.l, componentName, "Search")
		defer span.End()
	}
*/
func Instrument(ctx context.Context, tracer trace.Tracer, l *loggerx.Logger, componentName string, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span, *loggerx.Logger) {
	fullComponentName := ComponentName(componentName, name)
	ctx, span := tracer.Start(ctx, fullComponentName, opts...)
	return ctx, span, loggerx.OrDiscard(l).WithFields(attribute.Key("component").String(fullComponentName))
}

// End records err on the span, if any, and ends it.
func End(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
