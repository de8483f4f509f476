package elasticx

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/clinia/elasticbud/errorx"
	"github.com/clinia/elasticbud/loggerx"
	"github.com/clinia/elasticbud/tracex"
)

const (
	componentName   = "elasticx.client"
	instrumentation = "github.com/clinia/elasticbud/elasticx"
)

type client struct {
	es      *elasticsearch.Client
	address string
	timeout time.Duration
	l       *loggerx.Logger
	tracer  trace.Tracer
}

var _ Client = (*client)(nil)

type ClientOption func(*clientOptions)

type clientOptions struct {
	l              *loggerx.Logger
	tracerProvider trace.TracerProvider
	transport      http.RoundTripper
}

func WithLogger(l *loggerx.Logger) ClientOption {
	return func(o *clientOptions) {
		o.l = l
	}
}

func WithTracerProvider(tp trace.TracerProvider) ClientOption {
	return func(o *clientOptions) {
		o.tracerProvider = tp
	}
}

// WithTransport replaces the HTTP transport. It must be an *http.Transport when a CA certificate is configured.
func WithTransport(t http.RoundTripper) ClientOption {
	return func(o *clientOptions) {
		o.transport = t
	}
}

// NewClient creates a new Client based on the given config.
// The client always talks TLS and always verifies the server certificate.
func NewClient(cfg Config, opts ...ClientOption) (Client, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := &clientOptions{}
	for _, opt := range opts {
		opt(o)
	}
	if o.tracerProvider == nil {
		o.tracerProvider = otel.GetTracerProvider()
	}

	transport := o.transport
	if transport == nil {
		t := http.DefaultTransport.(*http.Transport).Clone()
		t.TLSClientConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		transport = t
	}

	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses:    []string{cfg.URL()},
		Username:     cfg.Username,
		Password:     cfg.Password,
		CACert:       cfg.CACert,
		Transport:    transport,
		DisableRetry: true,
	})
	if err != nil {
		return nil, errorx.InvalidArgumentErrorf("could not create elasticsearch client: %v", err).WithCause(err)
	}

	return &client{
		es:      es,
		address: cfg.Address(),
		timeout: cfg.Timeout,
		l:       loggerx.OrDiscard(o.l),
		tracer:  o.tracerProvider.Tracer(instrumentation),
	}, nil
}

func (c *client) Address() string {
	return c.address
}

// perform runs req under the client timeout and returns the full response body.
func (c *client) perform(ctx context.Context, op string, req esapi.Request) ([]byte, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	res, err := req.Do(reqCtx, c.es)
	if err != nil {
		return nil, withTransportError(ctx, op, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, withElasticError(res)
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, withTransportError(ctx, op, err)
	}

	return body, nil
}

func (c *client) Info(ctx context.Context) (_ *InfoResponse, err error) {
	ctx, span, _ := tracex.Instrument(ctx, c.tracer, c.l, componentName, "Info")
	defer func() { tracex.End(span, err) }()

	body, err := c.perform(ctx, "info", esapi.InfoRequest{})
	if err != nil {
		return nil, err
	}

	var info InfoResponse
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, errorx.InternalErrorf("could not decode info response: %v", err).WithCause(err)
	}

	return &info, nil
}

func (c *client) ClusterHealth(ctx context.Context) (_ *ClusterHealthResponse, err error) {
	ctx, span, _ := tracex.Instrument(ctx, c.tracer, c.l, componentName, "ClusterHealth")
	defer func() { tracex.End(span, err) }()

	body, err := c.perform(ctx, "cluster health", esapi.ClusterHealthRequest{})
	if err != nil {
		return nil, err
	}

	var health ClusterHealthResponse
	if err := json.Unmarshal(body, &health); err != nil {
		return nil, errorx.InternalErrorf("could not decode cluster health response: %v", err).WithCause(err)
	}

	return &health, nil
}

func (c *client) Search(ctx context.Context, index string, body []byte, size int) (_ []byte, err error) {
	ctx, span, _ := tracex.Instrument(ctx, c.tracer, c.l, componentName, "Search", trace.WithAttributes(indexAttr(index)))
	defer func() { tracex.End(span, err) }()

	return c.perform(ctx, "search", esapi.SearchRequest{
		Index: []string{index},
		Body:  bytes.NewReader(body),
		Size:  esapi.IntPtr(size),
	})
}

func (c *client) Bulk(ctx context.Context, actions []BulkAction) (_ *BulkResponse, err error) {
	ctx, span, l := tracex.Instrument(ctx, c.tracer, c.l, componentName, "Bulk", trace.WithAttributes(attribute.Int("elasticsearch.bulk.actions", len(actions))))
	defer func() { tracex.End(span, err) }()

	resp := &BulkResponse{}
	if len(actions) == 0 {
		return resp, nil
	}

	body, err := bulkBody(actions)
	if err != nil {
		return nil, err
	}

	raw, err := c.perform(ctx, "bulk", esapi.BulkRequest{
		Body: bytes.NewReader(body),
	})
	if err != nil {
		return nil, err
	}

	var result bulkResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, errorx.InternalErrorf("could not decode bulk response: %v", err).WithCause(err)
	}

	for i, item := range result.Items {
		for _, res := range item {
			if res.Error.Type == "" && res.Status <= http.StatusCreated {
				resp.Indexed++
				continue
			}

			f := BulkItemFailure{
				Index:  res.Index,
				Status: res.Status,
				Type:   res.Error.Type,
				Reason: res.Error.Reason,
			}
			if i < len(actions) {
				f.Index = actions[i].Index
			}
			resp.Failures = append(resp.Failures, f)
		}
	}

	if resp.HasFailures() {
		l.Debug(ctx, "bulk request had rejected items", attribute.Int("failed", len(resp.Failures)))
	}

	return resp, nil
}

// bulkBody encodes actions as index operations in the newline delimited bulk format.
func bulkBody(actions []BulkAction) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, a := range actions {
		meta := bulkMeta{}
		meta.Index.Index = a.Index
		if err := enc.Encode(meta); err != nil {
			return nil, errorx.InvalidArgumentErrorf("could not encode bulk action for %s: %v", a.Index, err).WithCause(err)
		}
		if err := enc.Encode(a.Source); err != nil {
			return nil, errorx.InvalidArgumentErrorf("could not encode document for %s: %v", a.Index, err).WithCause(err)
		}
	}

	return buf.Bytes(), nil
}

func (c *client) DeleteDocument(ctx context.Context, index, id string) (err error) {
	ctx, span, _ := tracex.Instrument(ctx, c.tracer, c.l, componentName, "DeleteDocument", trace.WithAttributes(indexAttr(index)))
	defer func() { tracex.End(span, err) }()

	_, err = c.perform(ctx, "delete document", esapi.DeleteRequest{
		Index:      index,
		DocumentID: id,
	})
	return err
}

func (c *client) IndexExists(ctx context.Context, index string) (_ bool, err error) {
	ctx, span, _ := tracex.Instrument(ctx, c.tracer, c.l, componentName, "IndexExists", trace.WithAttributes(indexAttr(index)))
	defer func() { tracex.End(span, err) }()

	_, err = c.perform(ctx, "index exists", esapi.IndicesExistsRequest{
		Index: []string{index},
	})
	if errorx.IsNotFoundError(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	return true, nil
}

func (c *client) DeleteIndex(ctx context.Context, index string) (err error) {
	ctx, span, _ := tracex.Instrument(ctx, c.tracer, c.l, componentName, "DeleteIndex", trace.WithAttributes(indexAttr(index)))
	defer func() { tracex.End(span, err) }()

	_, err = c.perform(ctx, "delete index", esapi.IndicesDeleteRequest{
		Index: []string{index},
	})
	return err
}

func (c *client) RefreshIndex(ctx context.Context, index string) (err error) {
	ctx, span, _ := tracex.Instrument(ctx, c.tracer, c.l, componentName, "RefreshIndex", trace.WithAttributes(indexAttr(index)))
	defer func() { tracex.End(span, err) }()

	_, err = c.perform(ctx, "refresh index", esapi.IndicesRefreshRequest{
		Index:             []string{index},
		IgnoreUnavailable: esapi.BoolPtr(true),
	})
	if errorx.IsNotFoundError(err) {
		return nil
	}
	return err
}

func (c *client) PutIndexTemplate(ctx context.Context, name string, body []byte) (err error) {
	ctx, span, _ := tracex.Instrument(ctx, c.tracer, c.l, componentName, "PutIndexTemplate", trace.WithAttributes(attribute.String("elasticsearch.template", name)))
	defer func() { tracex.End(span, err) }()

	_, err = c.perform(ctx, "put index template", esapi.IndicesPutTemplateRequest{
		Name: name,
		Body: bytes.NewReader(body),
	})
	return err
}

func (c *client) Count(ctx context.Context, index string) (_ int, err error) {
	ctx, span, _ := tracex.Instrument(ctx, c.tracer, c.l, componentName, "Count", trace.WithAttributes(indexAttr(index)))
	defer func() { tracex.End(span, err) }()

	body, err := c.perform(ctx, "count", esapi.CountRequest{
		Index: []string{index},
	})
	if err != nil {
		return 0, err
	}

	var count CountResponse
	if err := json.Unmarshal(body, &count); err != nil {
		return 0, errors.WithStack(err)
	}

	return count.Count, nil
}

func indexAttr(index string) attribute.KeyValue {
	return attribute.String("elasticsearch.index", index)
}
