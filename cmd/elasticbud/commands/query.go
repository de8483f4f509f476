package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/clinia/elasticbud/elasticx"
	elasticxquery "github.com/clinia/elasticbud/elasticx/query"
	"github.com/clinia/elasticbud/errorx"
	"github.com/clinia/elasticbud/loggerx"
	"github.com/clinia/elasticbud/pathx"
)

type queryFlags struct {
	index     string
	query     string
	path      string
	composite string
	size      int
	pageSize  int
	maxPages  int
	debug     bool
}

func (a *app) queryCommand() *cobra.Command {
	f := &queryFlags{}

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Run a search and print the response, or the values found at a path",
		Long: `Run a search and print the response, or the values found at --path.

With --composite, the named composite aggregation is paged through and the
values found at --path on every page are printed as a single list.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.run(cmd, func(ctx context.Context, s *session) error {
				out, err := runQuery(ctx, s.c, s.l, f)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), out)
			})
		},
	}

	cmd.Flags().StringVar(&f.index, "index", "", "index to search")
	cmd.Flags().StringVar(&f.query, "query", "", "inline JSON query, or a JSON or YAML file")
	cmd.Flags().StringVar(&f.path, "path", "", "dotted path of the values to print, * expands lists")
	cmd.Flags().StringVar(&f.composite, "composite", "", "name of a composite aggregation to page through")
	cmd.Flags().IntVar(&f.size, "size", 0, "number of hits to return")
	cmd.Flags().IntVar(&f.pageSize, "page-size", 0, "composite page size, overrides the query's")
	cmd.Flags().IntVar(&f.maxPages, "max-pages", 0, "maximum composite pages to fetch, 0 is unbounded")
	cmd.Flags().BoolVar(&f.debug, "debug", false, "log every request")
	_ = cmd.MarkFlagRequired("index")

	return cmd
}

func runQuery(ctx context.Context, c elasticx.Client, l *loggerx.Logger, f *queryFlags) (any, error) {
	req := elasticxquery.Request{Index: f.index, Size: f.size}
	if f.query != "" {
		q, err := readJSON(f.query)
		if err != nil {
			return nil, err
		}
		req.Query = q
	}

	opts := []elasticxquery.Option{
		elasticxquery.WithLogger(l),
		elasticxquery.WithPageSize(f.pageSize),
		elasticxquery.WithMaxPages(f.maxPages),
	}
	if f.debug {
		opts = append(opts, elasticxquery.WithDebug())
	}

	if f.path == "" {
		if f.composite != "" {
			return nil, errorx.InvalidArgumentErrorf("--composite requires --path")
		}
		return elasticxquery.Response(ctx, c, req, opts...)
	}

	path, err := pathx.Parse(f.path)
	if err != nil {
		return nil, err
	}

	if f.composite != "" {
		return elasticxquery.CompositeValues(ctx, c, req, f.composite, path, opts...)
	}
	return elasticxquery.ResponseValues(ctx, c, req, path, opts...)
}
