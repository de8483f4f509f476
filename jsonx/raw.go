package jsonx

import (
	"encoding/json"
	"strings"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/tidwall/gjson"
)

// Normalize round-trips v through encoding/json so that the result only holds
// map[string]any, []any, float64, string, bool and nil. The result shares nothing with v.
func Normalize(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, errors.WithStack(err)
	}

	return out, nil
}

// Path joins keys into a gjson / sjson path, escaping every key with gjson.Escape.
func Path(keys ...string) string {
	return strings.Join(lo.Map(keys, func(k string, _ int) string {
		return gjson.Escape(k)
	}), ".")
}
