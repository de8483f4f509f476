package elasticxquery

import (
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"

	"github.com/clinia/elasticbud/errorx"
)

var (
	// ErrMissingContinuationCursor is the cause of errors returned when a composite
	// aggregation response has no after_key to resume from.
	ErrMissingContinuationCursor = errors.New("missing composite aggregation continuation cursor")
	// ErrPageLimitExceeded is the cause of errors returned when a Paginator reaches its page ceiling.
	ErrPageLimitExceeded = errors.New("composite aggregation page limit exceeded")
)

// Request is a search against a single index.
type Request struct {
	Index string
	// Query is the request body: a map, a struct, or raw JSON as json.RawMessage, []byte or string.
	Query any
	// Size is the number of hits to return. Aggregation-only queries leave it at 0.
	Size int
}

// body returns a private JSON copy of the query.
func (r Request) body() ([]byte, error) {
	if r.Index == "" {
		return nil, errorx.InvalidArgumentErrorf("search index is required")
	}

	var raw []byte
	switch q := r.Query.(type) {
	case nil:
		return []byte(`{}`), nil
	case json.RawMessage:
		raw = append([]byte(nil), q...)
	case []byte:
		raw = append([]byte(nil), q...)
	case string:
		raw = []byte(q)
	default:
		b, err := json.Marshal(q)
		if err != nil {
			return nil, errorx.InvalidArgumentErrorf("could not encode query: %v", err).WithCause(err)
		}
		raw = b
	}

	if !gjson.ValidBytes(raw) || !gjson.ParseBytes(raw).IsObject() {
		return nil, errorx.InvalidArgumentErrorf("query must be a JSON object")
	}

	return raw, nil
}
