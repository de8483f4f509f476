package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/clinia/elasticbud/elasticx"
)

func (a *app) checkCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Fail unless the cluster is reachable and not red",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.run(cmd, func(ctx context.Context, s *session) error {
				return elasticx.CheckCluster(ctx, s.c, s.l)
			})
		},
	}
}
