package elasticxquery

import (
	"sort"

	"github.com/samber/lo"

	"github.com/clinia/elasticbud/errorx"
	"github.com/clinia/elasticbud/pathx"
)

var sourcePath = pathx.Path{"_source"}

// FieldsInHits lists the unique top-level _source field names across hits, sorted.
func FieldsInHits(hits []any) ([]string, error) {
	var fields []string
	for _, hit := range hits {
		sources, err := pathx.Collect(hit, sourcePath)
		if err != nil {
			return nil, err
		}

		source, ok := sources[0].(map[string]any)
		if !ok {
			return nil, errorx.InvalidArgumentErrorf("hit _source is %T, expected an object", sources[0])
		}
		fields = append(fields, lo.Keys(source)...)
	}

	fields = lo.Uniq(fields)
	sort.Strings(fields)
	return fields, nil
}
