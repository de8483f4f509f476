package elasticxquery

import (
	"context"
	"encoding/json"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"github.com/clinia/elasticbud/elasticx"
	"github.com/clinia/elasticbud/errorx"
	"github.com/clinia/elasticbud/pathx"
	"github.com/clinia/elasticbud/retryx"
)

func search(ctx context.Context, c elasticx.Client, index string, body []byte, size int, o *options) ([]byte, error) {
	var resp []byte
	err := retryx.ConstantRetry(func() error {
		var err error
		resp, err = c.Search(ctx, index, body, size)
		return err
	}, retryx.WithContext(ctx), retryx.WithRetryCount(o.retryAttempts), retryx.WithInterval(o.retryInterval))

	return resp, err
}

func decode(resp []byte) (any, error) {
	var tree any
	if err := json.Unmarshal(resp, &tree); err != nil {
		return nil, errorx.InternalErrorf("could not decode search response: %v", err).WithCause(err)
	}
	return tree, nil
}

// Response runs req and returns the decoded response tree.
func Response(ctx context.Context, c elasticx.Client, req Request, opts ...Option) (any, error) {
	o := newOptions(opts)

	body, err := req.body()
	if err != nil {
		return nil, err
	}

	if o.debug {
		o.l.Info(ctx, fmt.Sprintf("GET /%s/_search?size=%d", req.Index, req.Size), attribute.String("body", string(body)))
	}

	resp, err := search(ctx, c, req.Index, body, req.Size, o)
	if err != nil {
		return nil, err
	}

	return decode(resp)
}

// ResponseValues runs req and returns every value found at path in the response, in response order.
func ResponseValues(ctx context.Context, c elasticx.Client, req Request, path pathx.Path, opts ...Option) ([]any, error) {
	o := newOptions(opts)

	if o.debug {
		o.l.Info(ctx, fmt.Sprintf("retrieving value from query against %s at %s", req.Index, path),
			attribute.String("index", req.Index),
			attribute.String("path", path.String()))
	}

	tree, err := Response(ctx, c, req, opts...)
	if err != nil {
		return nil, err
	}

	values, err := pathx.Collect(tree, path)
	if err != nil {
		return nil, err
	}

	if o.debug {
		o.l.Info(ctx, fmt.Sprintf("query returned %d values", len(values)), attribute.Int("values", len(values)))
	}

	return values, nil
}
