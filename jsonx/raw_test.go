package jsonx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

func TestNormalize(t *testing.T) {
	in := map[string]any{"views": 3, "tags": []string{"a", "b"}}

	out, err := Normalize(in)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"views": float64(3), "tags": []any{"a", "b"}}, out)

	out.(map[string]any)["views"] = float64(4)
	assert.Equal(t, 3, in["views"])
}

func TestPath(t *testing.T) {
	body := []byte(`{"aggs":{"by.day":{"composite":{"size":10}}}}`)

	p := Path("aggs", "by.day", "composite", "after")
	assert.Equal(t, `aggs.by\.day.composite.after`, p)

	out, err := sjson.SetRawBytes(body, p, []byte(`{"date":"2024-01-01"}`))
	require.NoError(t, err)
	assert.Equal(t, "2024-01-01", gjson.GetBytes(out, Path("aggs", "by.day", "composite", "after", "date")).String())
	assert.EqualValues(t, 10, gjson.GetBytes(out, Path("aggs", "by.day", "composite", "size")).Int())
}

func TestPathEscapesQueryCharacters(t *testing.T) {
	body := []byte(`{"aggregations":{"top|pages*#1":{"after_key":{"k":"v"}}}}`)

	p := Path("aggregations", "top|pages*#1", "after_key")
	assert.Equal(t, `aggregations.top\|pages\*\#1.after_key`, p)
	assert.JSONEq(t, `{"k":"v"}`, gjson.GetBytes(body, p).Raw)
}
