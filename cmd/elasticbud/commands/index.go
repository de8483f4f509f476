package commands

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/clinia/elasticbud/elasticx"
	elasticxbulk "github.com/clinia/elasticbud/elasticx/bulk"
	"github.com/clinia/elasticbud/errorx"
)

type indexFlags struct {
	index          string
	identityFields []string
	overwrite      bool
	template       string
	batchSize      int
	quiet          bool
}

func (a *app) indexCommand() *cobra.Command {
	f := &indexFlags{}

	cmd := &cobra.Command{
		Use:   "index FILE",
		Short: "Bulk index the documents of a JSON array or NDJSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, func(ctx context.Context, s *session) error {
				docs, err := readDocuments(args[0])
				if err != nil {
					return err
				}

				opts := []elasticxbulk.Option{
					elasticxbulk.WithLogger(s.l),
					elasticxbulk.WithMeterProvider(s.mp),
					elasticxbulk.WithIdentityFields(f.identityFields...),
					elasticxbulk.WithOverwrite(f.overwrite),
					elasticxbulk.WithBatchSize(f.batchSize),
				}
				if f.template != "" {
					opts = append(opts, elasticxbulk.WithTemplate(f.template))
				}
				if f.quiet {
					opts = append(opts, elasticxbulk.WithQuiet())
				}

				res, err := elasticxbulk.IndexDocuments(ctx, s.c, f.index, docs, opts...)
				if err != nil {
					return err
				}

				return printJSON(cmd.OutOrStdout(), map[string]int{
					"indexed": res.Indexed,
					"skipped": res.Skipped,
					"batches": res.Batches,
				})
			})
		},
	}

	cmd.Flags().StringVar(&f.index, "index", "", "target index")
	cmd.Flags().StringSliceVar(&f.identityFields, "identity-fields", nil, "fields identifying a document, duplicates are skipped")
	cmd.Flags().BoolVar(&f.overwrite, "overwrite", false, "replace documents with the same identity instead of skipping")
	cmd.Flags().StringVar(&f.template, "template", "", "JSON or YAML index template file applied before indexing")
	cmd.Flags().IntVar(&f.batchSize, "batch-size", 0, "documents per bulk request, 0 sends a single request")
	cmd.Flags().BoolVar(&f.quiet, "quiet", false, "do not log a summary per batch")
	_ = cmd.MarkFlagRequired("index")

	return cmd
}

// readDocuments reads a JSON array of objects, or one object per line.
func readDocuments(path string) ([]elasticx.Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errorx.InvalidArgumentErrorf("could not read %s: %v", path, err).WithCause(err)
	}

	trimmed := bytes.TrimSpace(raw)
	if bytes.HasPrefix(trimmed, []byte("[")) {
		var docs []elasticx.Document
		if err := json.Unmarshal(trimmed, &docs); err != nil {
			return nil, errorx.InvalidArgumentErrorf("could not decode %s: %v", path, err).WithCause(err)
		}
		return docs, nil
	}

	var docs []elasticx.Document
	sc := bufio.NewScanner(bytes.NewReader(trimmed))
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for line := 1; sc.Scan(); line++ {
		if len(bytes.TrimSpace(sc.Bytes())) == 0 {
			continue
		}

		var doc elasticx.Document
		if err := json.Unmarshal(sc.Bytes(), &doc); err != nil {
			return nil, errorx.InvalidArgumentErrorf("could not decode %s line %d: %v", path, line, err).WithCause(err)
		}
		docs = append(docs, doc)
	}
	if err := sc.Err(); err != nil {
		return nil, errorx.InvalidArgumentErrorf("could not read %s: %v", path, err).WithCause(err)
	}

	return docs, nil
}
