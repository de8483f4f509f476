package elasticxquery

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/clinia/elasticbud/assertx"
	"github.com/clinia/elasticbud/elasticx/elasticxtest"
	"github.com/clinia/elasticbud/errorx"
	"github.com/clinia/elasticbud/pathx"
)

func TestPaginator(t *testing.T) {
	ctx := context.Background()

	c := elasticxtest.NewClient()
	seedPageviews(t, c, 30, 30)

	req := Request{Index: pageviewsIndex, Query: compositeQuery("combos")}

	t.Run("should yield every bucket then stop", func(t *testing.T) {
		before := c.Requests(elasticxtest.OpSearch)

		p, err := NewPaginator(c, req, "combos", pathx.MustParse("aggregations.combos.buckets.*"), WithPageSize(10))
		require.NoError(t, err)

		var buckets []any
		for v, err := range p.All(ctx) {
			require.NoError(t, err)
			buckets = append(buckets, v)
		}

		assert.Len(t, buckets, 900)
		assert.Equal(t, 91, p.Pages())
		assert.Equal(t, 91, c.Requests(elasticxtest.OpSearch)-before)

		seen := map[string]bool{}
		for _, b := range buckets {
			key := b.(map[string]any)["key"].(map[string]any)
			seen[key["article"].(string)+"|"+key["date"].(string)] = true
		}
		assert.Len(t, seen, 900)

		first := buckets[0].(map[string]any)
		assert.Equal(t, map[string]any{"article": "article-00", "date": "2024-01-01"}, first["key"])

		_, ok, err := p.Next(ctx)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Equal(t, 91, p.Pages())
	})

	t.Run("should yield one bucket group per page", func(t *testing.T) {
		values, err := CompositeValues(ctx, c, req, "combos", pathx.MustParse("aggregations.combos.buckets"), WithPageSize(10))
		require.NoError(t, err)

		require.Len(t, values, 90)
		total := 0
		for _, v := range values {
			group := v.([]any)
			assert.Len(t, group, 10)
			total += len(group)
		}
		assert.Equal(t, 900, total)
	})

	t.Run("should flatten bucket keys", func(t *testing.T) {
		values, err := CompositeValues(ctx, c, req, "combos", pathx.MustParse("aggregations.combos.buckets.*.key.article"), WithPageSize(100))
		require.NoError(t, err)
		assert.Len(t, values, 900)
		assert.Equal(t, "article-00", values[0])
		assert.Equal(t, "article-29", values[899])
	})

	t.Run("should stop requesting when the consumer stops", func(t *testing.T) {
		p, err := NewPaginator(c, req, "combos", pathx.MustParse("aggregations.combos.buckets.*"), WithPageSize(10))
		require.NoError(t, err)

		n := 0
		for _, err := range p.All(ctx) {
			require.NoError(t, err)
			n++
			if n == 15 {
				break
			}
		}
		assert.Equal(t, 2, p.Pages())
	})

	t.Run("should fail past the page ceiling", func(t *testing.T) {
		p, err := NewPaginator(c, req, "combos", pathx.MustParse("aggregations.combos.buckets.*"), WithPageSize(10), WithMaxPages(3))
		require.NoError(t, err)

		n := 0
		var lastErr error
		for _, err := range p.All(ctx) {
			if err != nil {
				lastErr = err
				break
			}
			n++
		}

		assert.Equal(t, 30, n)
		assert.ErrorIs(t, lastErr, ErrPageLimitExceeded)
		assert.True(t, errorx.IsOutOfRangeError(lastErr))
		assert.Equal(t, 3, p.Pages())
	})

	t.Run("should not modify the caller's query", func(t *testing.T) {
		q := compositeQuery("combos")
		before, err := json.Marshal(q)
		require.NoError(t, err)

		_, err = CompositeValues(ctx, c, Request{Index: pageviewsIndex, Query: q}, "combos", pathx.MustParse("aggregations.combos.buckets.*"), WithPageSize(50))
		require.NoError(t, err)

		after, err := json.Marshal(q)
		require.NoError(t, err)
		assert.JSONEq(t, string(before), string(after))
	})

	t.Run("should retry transient search failures", func(t *testing.T) {
		c := elasticxtest.NewClient()
		seedPageviews(t, c, 2, 2)
		c.FailNext(elasticxtest.OpSearch, 2, errorx.UnavailableErrorf("node left the cluster"))

		values, err := CompositeValues(ctx, c, req, "combos", pathx.MustParse("aggregations.combos.buckets.*"), fastRetry)
		require.NoError(t, err)
		assert.Len(t, values, 4)
		assert.Equal(t, 4, c.Requests(elasticxtest.OpSearch))
	})

	t.Run("should not retry schema errors", func(t *testing.T) {
		_, err := CompositeValues(ctx, c, req, "combos", pathx.MustParse("aggregations.combos.nope"), fastRetry)
		assert.ErrorIs(t, err, pathx.ErrKeyNotFound)
	})

	t.Run("should reject a query without the composite aggregation", func(t *testing.T) {
		_, err := NewPaginator(c, Request{Index: pageviewsIndex, Query: map[string]any{}}, "combos", pathx.MustParse("a"))
		assert.True(t, errorx.IsInvalidArgumentError(err))
	})
}

func TestPaginatorCursor(t *testing.T) {
	ctx := context.Background()
	path := pathx.MustParse("aggregations.by.day.buckets.*.key.day")

	t.Run("should send the previous after_key on the next request", func(t *testing.T) {
		c := &scriptedClient{responses: []string{
			`{"aggregations": {"by.day": {"after_key": {"day": "2024-01-02"}, "buckets": [{"key": {"day": "2024-01-01"}}, {"key": {"day": "2024-01-02"}}]}}}`,
			`{"aggregations": {"by.day": {"after_key": {"day": "2024-01-03"}, "buckets": [{"key": {"day": "2024-01-03"}}]}}}`,
			`{"aggregations": {"by.day": {"buckets": []}}}`,
		}}
		query := `{"aggs": {"by.day": {"composite": {"sources": [{"day": {"terms": {"field": "day"}}}]}}}}`

		values, err := CompositeValues(ctx, c, Request{Index: "logs", Query: query}, "by.day", pathx.Path{"aggregations", "by.day", "buckets", "*", "key", "day"})
		require.NoError(t, err)

		assertx.Equal(t, []any{"2024-01-01", "2024-01-02", "2024-01-03"}, values)
		require.Len(t, c.bodies, 3)
		assert.False(t, gjson.Get(c.bodies[0], `aggs.by\.day.composite.after`).Exists())
		assert.JSONEq(t, `{"day": "2024-01-02"}`, gjson.Get(c.bodies[1], `aggs.by\.day.composite.after`).Raw)
		assert.JSONEq(t, `{"day": "2024-01-03"}`, gjson.Get(c.bodies[2], `aggs.by\.day.composite.after`).Raw)
		assert.Equal(t, 1, len(gjson.Get(c.bodies[2], `aggs.by\.day.composite.sources`).Array()))
	})

	t.Run("should fail when the first page has no after_key", func(t *testing.T) {
		c := &scriptedClient{responses: []string{
			`{"aggregations": {"by": {"buckets": []}}}`,
		}}
		query := `{"aggs": {"by": {"composite": {"sources": []}}}}`

		_, err := CompositeValues(ctx, c, Request{Index: "logs", Query: query}, "by", path)
		assert.ErrorIs(t, err, ErrMissingContinuationCursor)
		assert.True(t, errorx.IsFailedPreconditionError(err))
		assert.Len(t, c.bodies, 1)
	})

	t.Run("should yield a page then fail when a later page has no after_key", func(t *testing.T) {
		c := &scriptedClient{responses: []string{
			`{"aggregations": {"by": {"after_key": {"day": "a"}, "buckets": [{"key": {"day": "a"}}]}}}`,
			`{"aggregations": {"by": {"buckets": [{"key": {"day": "b"}}]}}}`,
		}}
		query := `{"aggs": {"by": {"composite": {"sources": []}}}}`

		p, err := NewPaginator(c, Request{Index: "logs", Query: query}, "by", pathx.MustParse("aggregations.by.buckets.*.key.day"))
		require.NoError(t, err)

		var values []any
		var lastErr error
		for v, err := range p.All(ctx) {
			if err != nil {
				lastErr = err
				break
			}
			values = append(values, v)
		}

		assertx.Equal(t, []any{"a", "b"}, values)
		assert.ErrorIs(t, lastErr, ErrMissingContinuationCursor)
		assert.Len(t, c.bodies, 2)
	})

	t.Run("should end on a single empty bucket list", func(t *testing.T) {
		c := &scriptedClient{responses: []string{
			`{"aggregations": {"by": {"after_key": {"day": "a"}, "buckets": [{"key": {"day": "a"}}]}}}`,
			`{"aggregations": {"by": {"buckets": []}}}`,
		}}
		query := `{"aggs": {"by": {"composite": {"sources": []}}}}`

		values, err := CompositeValues(ctx, c, Request{Index: "logs", Query: query}, "by", pathx.MustParse("aggregations.by.buckets"))
		require.NoError(t, err)
		assertx.Equal(t, []any{[]any{map[string]any{"key": map[string]any{"day": "a"}}}}, values)
	})
}
