package elasticx

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/pkg/errors"
	"github.com/tidwall/gjson"

	"github.com/clinia/elasticbud/errorx"
)

var (
	// ErrUnreachable is the cause of errors returned when the cluster cannot be reached.
	ErrUnreachable = errors.New("elasticsearch unreachable")
	// ErrNotReady is the cause of errors returned when the cluster health is red.
	ErrNotReady = errors.New("elasticsearch not ready")
	// ErrMissingTemplate is the cause of errors returned for an unusable index template source.
	ErrMissingTemplate = errors.New("missing index template")
)

const IndexNotFoundException = "index_not_found_exception"

// withElasticError maps an error response to an errorx.Error.
// The response body is consumed.
func withElasticError(res *esapi.Response) error {
	body, _ := io.ReadAll(res.Body)

	errType := gjson.GetBytes(body, "error.type").String()
	reason := gjson.GetBytes(body, "error.reason").String()
	if errType == "" && reason == "" {
		reason = strings.TrimSpace(string(body))
	}

	msg := fmt.Sprintf("elasticsearch responded %d", res.StatusCode)
	if errType != "" {
		msg += " " + errType
	}
	if reason != "" {
		msg += ": " + reason
	}

	switch {
	case res.StatusCode == http.StatusNotFound:
		return errorx.NotFoundErrorf("%s", msg)
	case res.StatusCode == http.StatusTooManyRequests:
		return errorx.UnavailableErrorf("%s", msg)
	case res.StatusCode >= 400 && res.StatusCode < 500:
		return errorx.InvalidArgumentErrorf("%s", msg)
	case res.StatusCode == http.StatusBadGateway, res.StatusCode == http.StatusServiceUnavailable, res.StatusCode == http.StatusGatewayTimeout:
		return errorx.UnavailableErrorf("%s", msg)
	default:
		return errorx.InternalErrorf("%s", msg)
	}
}

// withTransportError wraps a failure to get any response from the cluster.
func withTransportError(ctx context.Context, op string, err error) error {
	if ctx.Err() != nil {
		return errors.WithStack(ctx.Err())
	}

	return errorx.UnavailableErrorf("%s: %v", op, err).WithCause(err)
}
