package elasticxquery

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/clinia/elasticbud/elasticx"
	"github.com/clinia/elasticbud/elasticx/elasticxtest"
)

const pageviewsIndex = "pageviews"

var fastRetry = WithRetry(5, time.Millisecond)

// seedPageviews stores one document per (article, date) combination.
func seedPageviews(t *testing.T, c *elasticxtest.Client, articles, dates int) {
	t.Helper()

	docs := make([]elasticx.Document, 0, articles*dates)
	for a := 0; a < articles; a++ {
		for d := 0; d < dates; d++ {
			docs = append(docs, elasticx.Document{
				"article": fmt.Sprintf("article-%02d", a),
				"date":    fmt.Sprintf("2024-01-%02d", d+1),
				"views":   (a + 1) * (d + 1),
			})
		}
	}
	require.NoError(t, c.AddDocuments(pageviewsIndex, docs...))
}

func compositeQuery(name string) map[string]any {
	return map[string]any{
		"aggs": map[string]any{
			name: map[string]any{
				"composite": map[string]any{
					"sources": []any{
						map[string]any{"article": map[string]any{"terms": map[string]any{"field": "article"}}},
						map[string]any{"date": map[string]any{"terms": map[string]any{"field": "date"}}},
					},
				},
			},
		},
	}
}

// scriptedClient answers searches with canned responses, in order.
type scriptedClient struct {
	elasticx.Client
	responses []string
	bodies    []string
}

func (s *scriptedClient) Search(_ context.Context, _ string, body []byte, _ int) ([]byte, error) {
	s.bodies = append(s.bodies, string(body))
	if len(s.bodies) > len(s.responses) {
		return nil, fmt.Errorf("unexpected search #%d", len(s.bodies))
	}
	return []byte(s.responses[len(s.bodies)-1]), nil
}
