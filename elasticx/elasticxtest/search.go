package elasticxtest

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/clinia/elasticbud/errorx"
)

func parseError(format string, args ...any) error {
	return errorx.InvalidArgumentErrorf("elasticsearch responded 400 parsing_exception: "+format, args...)
}

func search(name string, idx *index, body []byte, size int) ([]byte, error) {
	if len(body) > 0 && !gjson.ValidBytes(body) {
		return nil, parseError("request body is not valid JSON")
	}
	req := gjson.ParseBytes(body)

	matched := []*storedDocument{}
	for _, d := range idx.docs {
		if !d.visible {
			continue
		}
		ok, err := matchQuery(req.Get("query"), d.source)
		if err != nil {
			return nil, err
		}
		if ok {
			matched = append(matched, d)
		}
	}

	hits := []any{}
	for i, d := range matched {
		if i >= size {
			break
		}
		hits = append(hits, map[string]any{
			"_index":  name,
			"_id":     d.id,
			"_score":  0.0,
			"_source": d.source,
		})
	}

	resp := map[string]any{
		"took":      1,
		"timed_out": false,
		"hits": map[string]any{
			"total":     map[string]any{"value": len(matched), "relation": "eq"},
			"max_score": 0.0,
			"hits":      hits,
		},
	}

	aggs := req.Get("aggs")
	if !aggs.Exists() {
		aggs = req.Get("aggregations")
	}
	if aggs.Exists() {
		sources := make([]map[string]any, 0, len(matched))
		for _, d := range matched {
			sources = append(sources, d.source)
		}

		out, err := aggregate(aggs, sources)
		if err != nil {
			return nil, err
		}
		resp["aggregations"] = out
	}

	return json.Marshal(resp)
}

func matchQuery(q gjson.Result, doc map[string]any) (bool, error) {
	if !q.Exists() {
		return true, nil
	}
	if !q.IsObject() {
		return false, parseError("query must be an object")
	}

	matched := true
	var err error
	q.ForEach(func(kind, clause gjson.Result) bool {
		var ok bool
		switch kind.String() {
		case "match_all":
			ok = true
		case "term":
			ok, err = matchTerm(clause, doc)
		case "terms":
			ok, err = matchTerms(clause, doc)
		case "bool":
			ok, err = matchBool(clause, doc)
		default:
			err = parseError("unknown query [%s]", kind.String())
		}
		matched = matched && ok
		return err == nil && matched
	})

	return matched, err
}

func matchBool(clause gjson.Result, doc map[string]any) (bool, error) {
	for _, occur := range []string{"filter", "must"} {
		for _, q := range asArray(clause.Get(occur)) {
			ok, err := matchQuery(q, doc)
			if err != nil || !ok {
				return false, err
			}
		}
	}

	for _, q := range asArray(clause.Get("must_not")) {
		ok, err := matchQuery(q, doc)
		if err != nil || ok {
			return false, err
		}
	}

	return true, nil
}

func asArray(r gjson.Result) []gjson.Result {
	if !r.Exists() {
		return nil
	}
	if r.IsArray() {
		return r.Array()
	}
	return []gjson.Result{r}
}

func matchTerm(clause gjson.Result, doc map[string]any) (bool, error) {
	field, want, err := singleField(clause, "term")
	if err != nil {
		return false, err
	}
	if want.IsObject() {
		want = want.Get("value")
	}

	return containsValue(fieldValue(doc, field), want.Value()), nil
}

func matchTerms(clause gjson.Result, doc map[string]any) (bool, error) {
	field, wants, err := singleField(clause, "terms")
	if err != nil {
		return false, err
	}
	if !wants.IsArray() {
		return false, parseError("[terms] query for [%s] requires an array", field)
	}

	got := fieldValue(doc, field)
	for _, w := range wants.Array() {
		if containsValue(got, w.Value()) {
			return true, nil
		}
	}
	return false, nil
}

func singleField(clause gjson.Result, kind string) (string, gjson.Result, error) {
	var (
		field string
		value gjson.Result
		n     int
	)
	clause.ForEach(func(k, v gjson.Result) bool {
		field, value = k.String(), v
		n++
		return true
	})
	if n != 1 {
		return "", gjson.Result{}, parseError("[%s] query must target exactly one field", kind)
	}
	return field, value, nil
}

// fieldValue resolves a possibly dotted field name in doc.
func fieldValue(doc map[string]any, field string) any {
	if v, ok := doc[field]; ok {
		return v
	}

	var cur any = doc
	for _, part := range strings.Split(field, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = m[part]
	}
	return cur
}

// fieldValues returns every indexed value of field: array elements one by one.
func fieldValues(doc map[string]any, field string) []any {
	switch v := fieldValue(doc, field).(type) {
	case nil:
		return nil
	case []any:
		return v
	default:
		return []any{v}
	}
}

func containsValue(got, want any) bool {
	if arr, ok := got.([]any); ok {
		for _, g := range arr {
			if reflect.DeepEqual(g, want) {
				return true
			}
		}
		return false
	}
	return got != nil && reflect.DeepEqual(got, want)
}

// compareValues orders JSON scalars: nil, booleans, numbers, strings, then anything else by text.
func compareValues(a, b any) int {
	ra, rb := rank(a), rank(b)
	if ra != rb {
		return ra - rb
	}

	switch av := a.(type) {
	case bool:
		bv := b.(bool)
		switch {
		case av == bv:
			return 0
		case !av:
			return -1
		default:
			return 1
		}
	case float64:
		bv := b.(float64)
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		default:
			return 0
		}
	case string:
		return strings.Compare(av, b.(string))
	case nil:
		return 0
	default:
		return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
	}
}

func rank(v any) int {
	switch v.(type) {
	case nil:
		return 0
	case bool:
		return 1
	case float64:
		return 2
	case string:
		return 3
	default:
		return 4
	}
}
