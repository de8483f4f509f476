package elasticxquery

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/clinia/elasticbud/elasticx"
	"github.com/clinia/elasticbud/pathx"
)

// PathRequest pairs a search with the path to extract from its response.
type PathRequest struct {
	Request
	Path pathx.Path
}

// MultiResponseValues runs independent searches concurrently, at most limit at a time
// (unbounded when limit <= 0). Results are returned in the order of reqs. The first
// error cancels the searches still running.
func MultiResponseValues(ctx context.Context, c elasticx.Client, reqs []PathRequest, limit int, opts ...Option) ([][]any, error) {
	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}

	results := make([][]any, len(reqs))
	for i, r := range reqs {
		g.Go(func() error {
			values, err := ResponseValues(ctx, c, r.Request, r.Path, opts...)
			if err != nil {
				return err
			}
			results[i] = values
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
