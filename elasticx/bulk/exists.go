package elasticxbulk

import (
	"context"
	"encoding/json"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"github.com/clinia/elasticbud/elasticx"
	"github.com/clinia/elasticbud/errorx"
	"github.com/clinia/elasticbud/jsonx"
	"github.com/clinia/elasticbud/retryx"
)

// DuplicateSearchSize is the maximum number of duplicates looked up for a single document.
const DuplicateSearchSize = 100

// DocumentExists reports whether index holds a document equal to doc on every identity field.
//
// A document missing an identity field, or holding an empty list in one, never exists.
// A list value matches documents holding every element of the list.
// With WithOverwrite, the matching documents are deleted and false is returned.
// A missing index holds no document.
func DocumentExists(ctx context.Context, c elasticx.Client, doc elasticx.Document, index string, identityFields []string, opts ...Option) (bool, error) {
	o := newOptions(opts)
	return documentExists(ctx, c, doc, index, identityFields, o)
}

func documentExists(ctx context.Context, c elasticx.Client, doc elasticx.Document, index string, identityFields []string, o *options) (bool, error) {
	query, ok, err := identityQuery(doc, identityFields)
	if err != nil || !ok {
		return false, err
	}

	var exists bool
	err = retryx.ConstantRetry(func() error {
		var err error
		exists, err = lookup(ctx, c, index, query, o)
		return err
	}, retryx.WithContext(ctx), retryx.WithRetryCount(o.retryAttempts), retryx.WithInterval(o.retryInterval))

	return exists, err
}

func lookup(ctx context.Context, c elasticx.Client, index string, query []byte, o *options) (bool, error) {
	resp, err := searchDuplicates(ctx, c, index, query)
	if err != nil || len(resp.Hits.Hits) == 0 {
		return false, err
	}
	if !o.overwrite {
		return true, nil
	}

	l := o.l.WithFields(attribute.String("index", index))
	if total := max(resp.Hits.Total.Value, len(resp.Hits.Hits)); total > 1 {
		l.Warn(ctx, fmt.Sprintf("%d %s documents matched the query: %s", total, index, query), attribute.Int("hits", total))
	}

	// Each page holds at most DuplicateSearchSize hits; deleted documents leave
	// the search results once the index is refreshed.
	for {
		deleted := 0
		for _, hit := range resp.Hits.Hits {
			l.Info(ctx, fmt.Sprintf("deleting existing %s document matching query (id: %s)", index, hit.ID), attribute.String("id", hit.ID))

			err := c.DeleteDocument(ctx, index, hit.ID)
			if errorx.IsNotFoundError(err) {
				continue
			}
			if err != nil {
				return false, err
			}
			deleted++
		}

		if len(resp.Hits.Hits) < DuplicateSearchSize || deleted == 0 {
			return false, nil
		}

		if err := c.RefreshIndex(ctx, index); err != nil {
			return false, err
		}
		if resp, err = searchDuplicates(ctx, c, index, query); err != nil || len(resp.Hits.Hits) == 0 {
			return false, err
		}
	}
}

// searchDuplicates returns the first DuplicateSearchSize documents matching query.
// A missing index yields no hits.
func searchDuplicates(ctx context.Context, c elasticx.Client, index string, query []byte) (*elasticx.SearchResponse, error) {
	raw, err := c.Search(ctx, index, query, DuplicateSearchSize)
	if errorx.IsNotFoundError(err) {
		return &elasticx.SearchResponse{}, nil
	}
	if err != nil {
		return nil, err
	}

	var resp elasticx.SearchResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, errorx.InternalErrorf("could not decode search response: %v", err).WithCause(err)
	}

	return &resp, nil
}

// identityQuery builds a filter-only query matching doc on every identity field.
// ok is false when doc lacks a field and is therefore never a duplicate.
func identityQuery(doc elasticx.Document, identityFields []string) (query []byte, ok bool, err error) {
	if len(identityFields) == 0 {
		return nil, false, nil
	}

	filters := make([]any, 0, len(identityFields))
	for _, field := range identityFields {
		raw, present := doc[field]
		if !present || raw == nil {
			return nil, false, nil
		}

		value, err := jsonx.Normalize(raw)
		if err != nil {
			return nil, false, errorx.InvalidArgumentErrorf("could not encode identity field %s: %v", field, err).WithCause(err)
		}

		list, isList := value.([]any)
		if !isList {
			filters = append(filters, term(field, value))
			continue
		}
		if len(list) == 0 {
			return nil, false, nil
		}
		for _, v := range list {
			filters = append(filters, term(field, v))
		}
	}

	query, err = json.Marshal(map[string]any{
		"query": map[string]any{
			"bool": map[string]any{
				"filter": filters,
			},
		},
	})
	if err != nil {
		return nil, false, errorx.InvalidArgumentErrorf("could not encode identity query: %v", err).WithCause(err)
	}

	return query, true, nil
}

func term(field string, value any) map[string]any {
	return map[string]any{"term": map[string]any{field: value}}
}
