package elasticxquery

import (
	"context"
	"fmt"
	"iter"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"go.opentelemetry.io/otel/attribute"

	"github.com/clinia/elasticbud/elasticx"
	"github.com/clinia/elasticbud/errorx"
	"github.com/clinia/elasticbud/jsonx"
	"github.com/clinia/elasticbud/pathx"
)

// Paginator walks every page of a composite aggregation.
//
// Each page is searched, the values at the path are extracted and handed out one
// by one, then the next page is requested with the response's after_key. Iteration
// ends on the first page that yields no values. Pages are fetched strictly one
// after the other and only when the previous page is drained.
//
// A Paginator is not safe for concurrent use. Independent paginators are.
type Paginator struct {
	c           elasticx.Client
	index       string
	size        int
	aggregation string
	path        pathx.Path
	o           *options

	body    []byte
	cursor  []byte
	pending []any
	pages   int
	yielded int
	started bool
	done    bool
	err     error
}

// NewPaginator prepares the pagination of the composite aggregation named aggregation in req.
// No request is sent until Next is called.
func NewPaginator(c elasticx.Client, req Request, aggregation string, path pathx.Path, opts ...Option) (*Paginator, error) {
	body, err := req.body()
	if err != nil {
		return nil, err
	}
	if len(path) == 0 {
		return nil, errorx.InvalidArgumentErrorf("path must have at least one segment")
	}

	if !gjson.GetBytes(body, jsonx.Path("aggs", aggregation, "composite")).IsObject() {
		return nil, errorx.InvalidArgumentErrorf("query has no composite aggregation at aggs.%s", aggregation)
	}

	o := newOptions(opts)
	if o.pageSize > 0 {
		body, err = sjson.SetBytes(body, jsonx.Path("aggs", aggregation, "composite", "size"), o.pageSize)
		if err != nil {
			return nil, errorx.InternalErrorf("could not set composite size: %v", err).WithCause(err)
		}
	}

	return &Paginator{
		c:           c,
		index:       req.Index,
		size:        req.Size,
		aggregation: aggregation,
		path:        path,
		o:           o,
		body:        body,
	}, nil
}

// Next returns the next value. ok is false once the aggregation is exhausted or after an error.
func (p *Paginator) Next(ctx context.Context) (value any, ok bool, err error) {
	for {
		if len(p.pending) > 0 {
			value, p.pending = p.pending[0], p.pending[1:]
			p.yielded++
			return value, true, nil
		}

		if p.err != nil {
			return nil, false, p.err
		}
		if p.done {
			return nil, false, nil
		}

		if err := p.fetch(ctx); err != nil {
			p.err = err
			return nil, false, err
		}
	}
}

// All returns an iterator over the remaining values. An error is yielded once and ends the iteration.
func (p *Paginator) All(ctx context.Context) iter.Seq2[any, error] {
	return func(yield func(any, error) bool) {
		for {
			v, ok, err := p.Next(ctx)
			if err != nil {
				yield(nil, err)
				return
			}
			if !ok {
				return
			}
			if !yield(v, nil) {
				return
			}
		}
	}
}

// Pages returns the number of search requests sent so far.
func (p *Paginator) Pages() int {
	return p.pages
}

func (p *Paginator) fetch(ctx context.Context) error {
	if p.started {
		if p.cursor == nil {
			return p.missingCursor()
		}

		body, err := sjson.SetRawBytes(p.body, jsonx.Path("aggs", p.aggregation, "composite", "after"), p.cursor)
		if err != nil {
			return errorx.InternalErrorf("could not set composite after key: %v", err).WithCause(err)
		}
		p.body = body
	}

	if p.o.maxPages > 0 && p.pages >= p.o.maxPages {
		return errorx.OutOfRangeErrorf("composite aggregation %s did not end within %d pages", p.aggregation, p.o.maxPages).
			WithCause(ErrPageLimitExceeded)
	}

	if p.o.debug {
		p.o.l.Info(ctx, fmt.Sprintf("GET /%s/_search?size=%d", p.index, p.size), attribute.String("body", string(p.body)))
	}

	resp, err := search(ctx, p.c, p.index, p.body, p.size, p.o)
	if err != nil {
		return err
	}
	p.pages++

	afterKey := gjson.GetBytes(resp, jsonx.Path("aggregations", p.aggregation, "after_key"))
	if !p.started && !afterKey.Exists() {
		return p.missingCursor()
	}
	p.started = true

	p.cursor = nil
	if afterKey.Exists() {
		p.cursor = []byte(afterKey.Raw)
	}

	tree, err := decode(resp)
	if err != nil {
		return err
	}

	values, err := pathx.Collect(tree, p.path)
	if err != nil {
		return err
	}

	// A path that stops at the buckets without a wildcard matches a single empty list on the last page.
	if len(values) == 0 || (len(values) == 1 && isEmptySequence(values[0])) {
		p.done = true
		p.o.l.Debug(ctx, fmt.Sprintf("composite aggregation yielded %d values", p.yielded),
			attribute.String("aggregation", p.aggregation),
			attribute.Int("pages", p.pages))
		return nil
	}

	p.pending = values
	return nil
}

func (p *Paginator) missingCursor() error {
	return errorx.FailedPreconditionErrorf("no composite aggregation continuation key found at '%s'", p.aggregation).
		WithCause(ErrMissingContinuationCursor)
}

func isEmptySequence(v any) bool {
	s, ok := v.([]any)
	return ok && len(s) == 0
}

// CompositeValues drains a Paginator into a slice.
func CompositeValues(ctx context.Context, c elasticx.Client, req Request, aggregation string, path pathx.Path, opts ...Option) ([]any, error) {
	p, err := NewPaginator(c, req, aggregation, path, opts...)
	if err != nil {
		return nil, err
	}

	values := []any{}
	for v, err := range p.All(ctx) {
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, nil
}
