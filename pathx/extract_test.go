package pathx

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinia/elasticbud/assertx"
	"github.com/clinia/elasticbud/errorx"
)

func tree(t *testing.T, raw string) any {
	t.Helper()
	var v any
	require.NoError(t, json.Unmarshal([]byte(raw), &v))
	return v
}

const topPages = `{
	"hits": {"total": {"value": 1000}, "hits": []},
	"aggregations": {
		"top_pages": {
			"doc_count_error_upper_bound": 0,
			"sum_other_doc_count": 900,
			"buckets": [
				{"key": "Main_Page", "doc_count": 100, "views": {"value": 9741.5}},
				{"key": "Special:Search", "doc_count": 100, "views": {"value": 2301.25}},
				{"key": "Cleopatra", "doc_count": 100, "views": {"value": 812}},
				{"key": "Go_(language)", "doc_count": 100, "views": {"value": 433.75}},
				{"key": "Ada_Lovelace", "doc_count": 100, "views": {"value": 120.5}}
			]
		}
	}
}`

func TestExtract(t *testing.T) {
	t.Run("should yield the averages of every bucket in server order", func(t *testing.T) {
		values, err := Collect(tree(t, topPages), Path{"aggregations", "top_pages", "buckets", "*", "views", "value"})
		require.NoError(t, err)

		assertx.Equal(t, []any{9741.5, 2301.25, 812.0, 433.75, 120.5}, values)
		for _, v := range values {
			assert.IsType(t, float64(0), v)
		}
	})

	t.Run("should yield every element of a trailing wildcard as-is", func(t *testing.T) {
		tr := tree(t, `{"a": {"b": [1, {"c": 2}, [3], null, "x"]}}`)

		values, err := Collect(tr, MustParse("a.b.*"))
		require.NoError(t, err)

		assertx.Equal(t, []any{1.0, map[string]any{"c": 2.0}, []any{3.0}, nil, "x"}, values)
	})

	t.Run("should flatten inner wildcards in outer then inner order", func(t *testing.T) {
		tr := tree(t, `{"groups": [
			{"items": [{"v": 1}, {"v": 2}]},
			{"items": []},
			{"items": [{"v": 3}]},
			{"items": [{"v": 4}, {"v": 5}, {"v": 6}]}
		]}`)

		values, err := Collect(tr, MustParse("groups.*.items.*.v"))
		require.NoError(t, err)

		assertx.Equal(t, []any{1.0, 2.0, 3.0, 4.0, 5.0, 6.0}, values)
	})

	t.Run("should yield a single value for a literal path", func(t *testing.T) {
		values, err := Collect(tree(t, topPages), MustParse("hits.total.value"))
		require.NoError(t, err)
		assertx.Equal(t, []any{1000.0}, values)
	})

	t.Run("should yield an empty sequence under an empty list", func(t *testing.T) {
		values, err := Collect(tree(t, `{"buckets": []}`), MustParse("buckets.*.key"))
		require.NoError(t, err)
		assert.Empty(t, values)
	})

	t.Run("should yield a nil value when the key exists", func(t *testing.T) {
		values, err := Collect(tree(t, `{"a": null}`), MustParse("a"))
		require.NoError(t, err)
		assertx.Equal(t, []any{nil}, values)
	})

	t.Run("should not mutate the tree", func(t *testing.T) {
		tr := tree(t, topPages)
		before, err := json.Marshal(tr)
		require.NoError(t, err)

		_, err = Collect(tr, MustParse("aggregations.top_pages.buckets.*.views"))
		require.NoError(t, err)

		after, err := json.Marshal(tr)
		require.NoError(t, err)
		assert.JSONEq(t, string(before), string(after))
	})

	t.Run("should stop pulling when the consumer stops", func(t *testing.T) {
		var got []any
		for v, err := range Extract(tree(t, topPages), MustParse("aggregations.top_pages.buckets.*.key")) {
			require.NoError(t, err)
			got = append(got, v)
			if len(got) == 2 {
				break
			}
		}
		assertx.Equal(t, []any{"Main_Page", "Special:Search"}, got)
	})
}

func TestExtractErrors(t *testing.T) {
	t.Run("should fail on every missing intermediate literal key", func(t *testing.T) {
		tr := tree(t, `{"a": {"b": {"c": 1}}}`)
		full := MustParse("a.b.c")

		for i := range full {
			p := append(Path{}, full...)
			p[i] = "missing"

			_, err := Collect(tr, p)
			require.Error(t, err, p.String())
			assert.ErrorIs(t, err, ErrKeyNotFound)
			assert.True(t, errorx.IsNotFoundError(err))
		}
	})

	t.Run("should fail when a literal key is applied to a sequence", func(t *testing.T) {
		_, err := Collect(tree(t, `{"a": [1, 2]}`), MustParse("a.b"))
		assert.ErrorIs(t, err, ErrKeyNotFound)
	})

	t.Run("should fail when a wildcard is applied to a map", func(t *testing.T) {
		_, err := Collect(tree(t, `{"a": {"b": 1}}`), MustParse("a.*"))
		assert.ErrorIs(t, err, ErrWildcardOnNonSequence)
		assert.True(t, errorx.IsInvalidArgumentError(err))
	})

	t.Run("should fail when a wildcard is applied to a scalar", func(t *testing.T) {
		_, err := Collect(tree(t, `{"a": 3}`), MustParse("a.*.b"))
		assert.ErrorIs(t, err, ErrWildcardOnNonSequence)
	})

	t.Run("should yield values found before the error", func(t *testing.T) {
		tr := tree(t, `{"buckets": [{"key": "a"}, {"key": "b"}, {"other": "c"}]}`)

		var values []any
		var lastErr error
		for v, err := range Extract(tr, MustParse("buckets.*.key")) {
			if err != nil {
				lastErr = err
				break
			}
			values = append(values, v)
		}

		assertx.Equal(t, []any{"a", "b"}, values)
		assert.ErrorIs(t, lastErr, ErrKeyNotFound)
	})

	t.Run("should reject an empty path", func(t *testing.T) {
		_, err := Collect(tree(t, `{}`), Path{})
		assert.True(t, errorx.IsInvalidArgumentError(err))
	})
}

func TestParse(t *testing.T) {
	p, err := Parse("aggregations.top_pages.buckets.*.key")
	require.NoError(t, err)
	assert.Equal(t, Path{"aggregations", "top_pages", "buckets", "*", "key"}, p)
	assert.Equal(t, "aggregations.top_pages.buckets.*.key", p.String())

	_, err = Parse("")
	assert.True(t, errorx.IsInvalidArgumentError(err))

	_, err = Parse("a..b")
	assert.True(t, errorx.IsInvalidArgumentError(err))
}
