package elasticx

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"github.com/clinia/elasticbud/errorx"
	"github.com/clinia/elasticbud/loggerx"
)

// CheckCluster fails fast when the cluster behind c cannot serve requests.
// A connection failure is reported as ErrUnreachable, a red cluster as ErrNotReady.
// Yellow clusters pass.
func CheckCluster(ctx context.Context, c Client, l *loggerx.Logger) error {
	l = loggerx.OrDiscard(l)

	health, err := c.ClusterHealth(ctx)
	if err != nil {
		return unreachable(c, err)
	}

	info, err := c.Info(ctx)
	if err != nil {
		return unreachable(c, err)
	}

	l.Info(ctx,
		fmt.Sprintf("cluster at %s is called '%s' on %s and is %s", c.Address(), health.ClusterName, info.Version.Number, health.Status),
		attribute.String("cluster_name", health.ClusterName),
		attribute.String("version", info.Version.Number),
		attribute.String("status", string(health.Status)),
	)

	if health.Status == HealthStatusRed {
		return errorx.FailedPreconditionErrorf("cluster is red").WithCause(ErrNotReady)
	}

	return nil
}

func unreachable(c Client, err error) error {
	if !errorx.IsUnavailableError(err) {
		return err
	}

	return errorx.UnavailableErrorf("while attempting to connect to elasticsearch at %s", c.Address()).
		WithCause(fmt.Errorf("%w: %w", ErrUnreachable, err))
}
