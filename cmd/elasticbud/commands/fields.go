package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	elasticxquery "github.com/clinia/elasticbud/elasticx/query"
	"github.com/clinia/elasticbud/pathx"
)

var hitsPath = pathx.MustParse("hits.hits")

func (a *app) fieldsCommand() *cobra.Command {
	var (
		index string
		query string
		size  int
	)

	cmd := &cobra.Command{
		Use:   "fields",
		Short: "List the top-level source fields of a sample of documents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.run(cmd, func(ctx context.Context, s *session) error {
				req := elasticxquery.Request{Index: index, Size: size}
				if query != "" {
					q, err := readJSON(query)
					if err != nil {
						return err
					}
					req.Query = q
				}

				values, err := elasticxquery.ResponseValues(ctx, s.c, req, hitsPath, elasticxquery.WithLogger(s.l))
				if err != nil {
					return err
				}
				hits, _ := values[0].([]any)

				fields, err := elasticxquery.FieldsInHits(hits)
				if err != nil {
					return err
				}
				for _, field := range fields {
					fmt.Fprintln(cmd.OutOrStdout(), field)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&index, "index", "", "index to sample")
	cmd.Flags().StringVar(&query, "query", "", "inline JSON query, or a JSON or YAML file")
	cmd.Flags().IntVar(&size, "size", 10, "number of documents to sample")
	_ = cmd.MarkFlagRequired("index")

	return cmd
}
