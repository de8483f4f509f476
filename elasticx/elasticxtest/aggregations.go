package elasticxtest

import (
	"encoding/json"
	"slices"

	"github.com/tidwall/gjson"
)

const defaultBucketSize = 10

type bucket struct {
	key  []any
	docs []map[string]any
	out  map[string]any
}

func aggregate(aggs gjson.Result, docs []map[string]any) (map[string]any, error) {
	out := map[string]any{}

	var err error
	aggs.ForEach(func(name, def gjson.Result) bool {
		sub := def.Get("aggs")
		if !sub.Exists() {
			sub = def.Get("aggregations")
		}

		var res map[string]any
		switch {
		case def.Get("composite").Exists():
			res, err = compositeAgg(def.Get("composite"), sub, docs)
		case def.Get("terms").Exists():
			res, err = termsAgg(def.Get("terms"), sub, docs)
		case def.Get("avg").Exists():
			res = metricAgg("avg", def.Get("avg.field").String(), docs)
		case def.Get("sum").Exists():
			res = metricAgg("sum", def.Get("sum.field").String(), docs)
		case def.Get("min").Exists():
			res = metricAgg("min", def.Get("min.field").String(), docs)
		case def.Get("max").Exists():
			res = metricAgg("max", def.Get("max.field").String(), docs)
		case def.Get("value_count").Exists():
			res = metricAgg("value_count", def.Get("value_count.field").String(), docs)
		default:
			err = parseError("unknown aggregation type for [%s]", name.String())
		}
		out[name.String()] = res
		return err == nil
	})

	if err != nil {
		return nil, err
	}
	return out, nil
}

// group puts every doc in one bucket per distinct tuple of field values.
// Multi-valued fields produce one tuple per combination. Docs missing a field are left out.
func group(docs []map[string]any, fields []string) []*bucket {
	byKey := map[string]*bucket{}
	var buckets []*bucket

	for _, doc := range docs {
		tuples := [][]any{{}}
		for _, f := range fields {
			vals := fieldValues(doc, f)
			var next [][]any
			for _, t := range tuples {
				for _, v := range vals {
					next = append(next, append(slices.Clone(t), v))
				}
			}
			tuples = next
		}

		seen := map[string]bool{}
		for _, t := range tuples {
			raw, _ := json.Marshal(t)
			k := string(raw)
			if seen[k] {
				continue
			}
			seen[k] = true

			b, ok := byKey[k]
			if !ok {
				b = &bucket{key: t}
				byKey[k] = b
				buckets = append(buckets, b)
			}
			b.docs = append(b.docs, doc)
		}
	}

	return buckets
}

func compareTuples(a, b []any) int {
	for i := range a {
		if c := compareValues(a[i], b[i]); c != 0 {
			return c
		}
	}
	return 0
}

func compositeAgg(def, sub gjson.Result, docs []map[string]any) (map[string]any, error) {
	var names, fields []string
	for _, src := range def.Get("sources").Array() {
		var err error
		src.ForEach(func(name, source gjson.Result) bool {
			field := source.Get("terms.field")
			if !field.Exists() {
				err = parseError("composite source [%s] must be a terms source with a field", name.String())
				return false
			}
			names = append(names, name.String())
			fields = append(fields, field.String())
			return true
		})
		if err != nil {
			return nil, err
		}
	}
	if len(names) == 0 {
		return nil, parseError("[composite] requires at least one source")
	}

	size := defaultBucketSize
	if s := def.Get("size"); s.Exists() {
		size = int(s.Int())
	}

	buckets := group(docs, fields)
	slices.SortFunc(buckets, func(a, b *bucket) int { return compareTuples(a.key, b.key) })

	if after := def.Get("after"); after.Exists() {
		afterKey := make([]any, len(names))
		for i, n := range names {
			afterKey[i] = after.Get(gjson.Escape(n)).Value()
		}
		buckets = slices.DeleteFunc(buckets, func(b *bucket) bool { return compareTuples(b.key, afterKey) <= 0 })
	}

	if len(buckets) > size {
		buckets = buckets[:size]
	}

	out := []any{}
	var lastKey map[string]any
	for _, b := range buckets {
		key := map[string]any{}
		for i, n := range names {
			key[n] = b.key[i]
		}

		entry, err := bucketEntry(key, b.docs, sub)
		if err != nil {
			return nil, err
		}
		out = append(out, entry)
		lastKey = key
	}

	res := map[string]any{"buckets": out}
	if lastKey != nil {
		res["after_key"] = lastKey
	}
	return res, nil
}

func termsAgg(def, sub gjson.Result, docs []map[string]any) (map[string]any, error) {
	field := def.Get("field")
	if !field.Exists() {
		return nil, parseError("[terms] aggregation requires a field")
	}

	size := defaultBucketSize
	if s := def.Get("size"); s.Exists() {
		size = int(s.Int())
	}

	buckets := group(docs, []string{field.String()})
	for _, b := range buckets {
		entry, err := bucketEntry(b.key[0], b.docs, sub)
		if err != nil {
			return nil, err
		}
		b.out = entry
	}

	orderBy, desc := "_count", true
	def.Get("order").ForEach(func(k, v gjson.Result) bool {
		orderBy, desc = k.String(), v.String() == "desc"
		return false
	})

	slices.SortStableFunc(buckets, func(a, b *bucket) int {
		var c int
		switch orderBy {
		case "_count":
			c = len(a.docs) - len(b.docs)
		case "_key":
			c = compareValues(a.key[0], b.key[0])
		default:
			c = compareValues(metricValue(a.out, orderBy), metricValue(b.out, orderBy))
		}
		if desc {
			c = -c
		}
		if c == 0 {
			c = compareValues(a.key[0], b.key[0])
		}
		return c
	})

	other := 0
	if len(buckets) > size {
		for _, b := range buckets[size:] {
			other += len(b.docs)
		}
		buckets = buckets[:size]
	}

	out := []any{}
	for _, b := range buckets {
		out = append(out, b.out)
	}

	return map[string]any{
		"doc_count_error_upper_bound": 0,
		"sum_other_doc_count":         other,
		"buckets":                     out,
	}, nil
}

func metricValue(entry map[string]any, name string) any {
	m, ok := entry[name].(map[string]any)
	if !ok {
		return nil
	}
	return m["value"]
}

func bucketEntry(key any, docs []map[string]any, sub gjson.Result) (map[string]any, error) {
	entry := map[string]any{
		"key":       key,
		"doc_count": len(docs),
	}

	if sub.Exists() {
		subOut, err := aggregate(sub, docs)
		if err != nil {
			return nil, err
		}
		for k, v := range subOut {
			entry[k] = v
		}
	}

	return entry, nil
}

func metricAgg(kind, field string, docs []map[string]any) map[string]any {
	var values []float64
	for _, d := range docs {
		for _, v := range fieldValues(d, field) {
			if f, ok := v.(float64); ok {
				values = append(values, f)
			}
		}
	}

	var value any
	switch kind {
	case "value_count":
		value = float64(len(values))
	case "sum":
		sum := 0.0
		for _, v := range values {
			sum += v
		}
		value = sum
	case "avg":
		if len(values) > 0 {
			sum := 0.0
			for _, v := range values {
				sum += v
			}
			value = sum / float64(len(values))
		}
	case "min":
		if len(values) > 0 {
			value = slices.Min(values)
		}
	case "max":
		if len(values) > 0 {
			value = slices.Max(values)
		}
	}

	return map[string]any{"value": value}
}
