package elasticxbulk

import (
	"context"
	"fmt"
	"net/http"

	"github.com/samber/lo"
	"go.opentelemetry.io/otel/attribute"

	"github.com/clinia/elasticbud/elasticx"
	"github.com/clinia/elasticbud/errorx"
	"github.com/clinia/elasticbud/retryx"
)

// Result summarises the last attempt of IndexDocuments.
type Result struct {
	Indexed int
	Skipped int
	Batches int
}

// IndexDocuments bulk indexes docs into index.
//
// With identity fields, the index is refreshed before every batch and each document
// goes through DocumentExists: duplicates are skipped, or replaced WithOverwrite.
// The whole operation is retried on temporary failures, which only avoids writing
// documents twice when identity fields are set.
func IndexDocuments(ctx context.Context, c elasticx.Client, index string, docs []elasticx.Document, opts ...Option) (*Result, error) {
	o := newOptions(opts)

	if index == "" {
		return nil, errorx.InvalidArgumentErrorf("index is required")
	}
	if o.batchSize < 0 {
		return nil, errorx.InvalidArgumentErrorf("batch size must be positive, got %d", o.batchSize)
	}

	m, err := newMetrics(o.meterProvider)
	if err != nil {
		return nil, err
	}

	var res *Result
	err = retryx.ConstantRetry(func() error {
		var err error
		res, err = indexDocuments(ctx, c, index, docs, o, m)
		if err != nil {
			o.l.WithError(err).Debug(ctx, "indexing attempt failed", attribute.String("index", index))
		}
		return err
	}, retryx.WithContext(ctx), retryx.WithRetryCount(o.retryAttempts), retryx.WithInterval(o.retryInterval))
	if err != nil {
		return nil, err
	}

	if !o.quiet {
		o.l.Debug(ctx, "bulk indexing complete", attribute.String("index", index))
	}

	return res, nil
}

func indexDocuments(ctx context.Context, c elasticx.Client, index string, docs []elasticx.Document, o *options, m *metrics) (*Result, error) {
	if o.template != nil {
		if err := elasticx.PutTemplate(ctx, c, index, o.template, o.l); err != nil {
			return nil, err
		}
	}

	batches := [][]elasticx.Document{docs}
	if o.batchSize > 0 {
		batches = lo.Chunk(docs, o.batchSize)
	}

	res := &Result{}
	for _, batch := range batches {
		actions, skipped, err := admit(ctx, c, index, batch, o)
		if err != nil {
			return nil, err
		}

		indexed := 0
		if len(actions) == 0 {
			m.record(ctx, index, 0, 0, skipped)
		} else {
			resp, err := c.Bulk(ctx, actions)
			if err != nil {
				return nil, err
			}
			m.record(ctx, index, 1, resp.Indexed, skipped)

			if resp.HasFailures() {
				return nil, bulkFailure(index, resp)
			}
			indexed = resp.Indexed
		}

		res.Indexed += indexed
		res.Skipped += skipped
		res.Batches++
	}

	return res, nil
}

// admit gates every document of batch and tags the admitted ones with index.
func admit(ctx context.Context, c elasticx.Client, index string, batch []elasticx.Document, o *options) ([]elasticx.BulkAction, int, error) {
	if len(o.identityFields) > 0 {
		if err := c.RefreshIndex(ctx, index); err != nil {
			return nil, 0, err
		}
	}

	actions := make([]elasticx.BulkAction, 0, len(batch))
	exists := 0
	for _, doc := range batch {
		if len(o.identityFields) > 0 {
			found, err := documentExists(ctx, c, doc, index, o.identityFields, o)
			if err != nil {
				return nil, 0, err
			}
			if found {
				exists++
				continue
			}
		}

		actions = append(actions, elasticx.BulkAction{Index: index, Source: doc})
	}

	if !o.quiet {
		msg := fmt.Sprintf("%d documents yielded for indexing to %s", len(actions), index)
		if exists > 0 {
			msg += fmt.Sprintf(" (%d already existed)", exists)
		}
		o.l.Info(ctx, msg, attribute.String("index", index), attribute.Int("yielded", len(actions)), attribute.Int("existed", exists))
	}

	return actions, exists, nil
}

// bulkFailure reports rejected items. Throttling and server side failures are temporary,
// any other rejection is a problem with the documents themselves.
func bulkFailure(index string, resp *elasticx.BulkResponse) error {
	first := resp.Failures[0]
	msg := fmt.Sprintf("%d documents were rejected by %s, first: %d %s: %s", len(resp.Failures), index, first.Status, first.Type, first.Reason)

	for _, f := range resp.Failures {
		if f.Status == 0 || f.Status == http.StatusTooManyRequests || f.Status >= http.StatusInternalServerError {
			return errorx.UnavailableErrorf("%s", msg)
		}
	}
	return errorx.InvalidArgumentErrorf("%s", msg)
}
