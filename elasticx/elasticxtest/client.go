// Package elasticxtest provides an in-memory elasticx.Client.
//
// It understands the subset of the query DSL used across elasticbud: match_all,
// term and terms queries (alone or in a bool filter), and composite, terms and
// single value metric aggregations. Writes only become searchable after
// RefreshIndex, like a real cluster.
package elasticxtest

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/pkg/errors"
	"github.com/segmentio/ksuid"

	"github.com/clinia/elasticbud/elasticx"
	"github.com/clinia/elasticbud/errorx"
	"github.com/clinia/elasticbud/jsonx"
)

type Op string

const (
	OpInfo             Op = "info"
	OpClusterHealth    Op = "cluster_health"
	OpSearch           Op = "search"
	OpBulk             Op = "bulk"
	OpDeleteDocument   Op = "delete_document"
	OpIndexExists      Op = "index_exists"
	OpDeleteIndex      Op = "delete_index"
	OpRefreshIndex     Op = "refresh_index"
	OpPutIndexTemplate Op = "put_index_template"
	OpCount            Op = "count"
)

const (
	Address     = "elasticxtest:9200"
	ClusterName = "elasticxtest"
	Version     = "8.19.0"
)

type storedDocument struct {
	id      string
	source  map[string]any
	visible bool
}

type index struct {
	docs []*storedDocument
}

type failure struct {
	remaining int
	err       error
}

// Client is an in-memory elasticx.Client. It is safe for concurrent use.
type Client struct {
	mu sync.Mutex

	indices   map[string]*index
	templates map[string][]byte
	status    elasticx.HealthStatus

	requests      map[Op]int
	failures      map[Op]*failure
	rejectedItems int
}

var _ elasticx.Client = (*Client)(nil)

func NewClient() *Client {
	return &Client{
		indices:   map[string]*index{},
		templates: map[string][]byte{},
		status:    elasticx.HealthStatusGreen,
		requests:  map[Op]int{},
		failures:  map[Op]*failure{},
	}
}

// SetHealth changes the status reported by ClusterHealth.
func (c *Client) SetHealth(status elasticx.HealthStatus) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.status = status
}

// FailNext makes the next n calls of op return err.
func (c *Client) FailNext(op Op, n int, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failures[op] = &failure{remaining: n, err: err}
}

// RejectNextItems makes the next n bulk items fail with a 429 item error.
func (c *Client) RejectNextItems(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rejectedItems = n
}

// Requests returns how many times op was called, failed calls included.
func (c *Client) Requests(op Op) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.requests[op]
}

// Template returns the body registered under name.
func (c *Client) Template(name string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.templates[name]
	return t, ok
}

// AddDocuments stores docs in index as already refreshed documents.
func (c *Client) AddDocuments(index string, docs ...elasticx.Document) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, d := range docs {
		if err := c.store(index, d, true); err != nil {
			return err
		}
	}
	return nil
}

// Documents returns the sources of every document in index, refreshed or not, in insertion order.
func (c *Client) Documents(index string) []elasticx.Document {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx, ok := c.indices[index]
	if !ok {
		return nil
	}

	docs := make([]elasticx.Document, 0, len(idx.docs))
	for _, d := range idx.docs {
		docs = append(docs, d.source)
	}
	return docs
}

// begin counts the call and returns the injected failure, if any. c.mu must be held.
func (c *Client) begin(ctx context.Context, op Op) error {
	c.requests[op]++

	if err := ctx.Err(); err != nil {
		return errors.WithStack(err)
	}

	f, ok := c.failures[op]
	if !ok || f.remaining == 0 {
		return nil
	}
	f.remaining--
	return f.err
}

func (c *Client) store(name string, source elasticx.Document, visible bool) error {
	normalized, err := jsonx.Normalize(source)
	if err != nil {
		return errorx.InvalidArgumentErrorf("could not encode document: %v", err).WithCause(err)
	}
	m, ok := normalized.(map[string]any)
	if !ok {
		return errorx.InvalidArgumentErrorf("document must be a JSON object")
	}

	idx, ok := c.indices[name]
	if !ok {
		idx = &index{}
		c.indices[name] = idx
	}

	idx.docs = append(idx.docs, &storedDocument{
		id:      ksuid.New().String(),
		source:  m,
		visible: visible,
	})
	return nil
}

func indexNotFound(name string) error {
	return errorx.NotFoundErrorf("elasticsearch responded 404 %s: no such index [%s]", elasticx.IndexNotFoundException, name)
}

func (c *Client) Address() string {
	return Address
}

func (c *Client) Info(ctx context.Context) (*elasticx.InfoResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.begin(ctx, OpInfo); err != nil {
		return nil, err
	}

	info := &elasticx.InfoResponse{Name: "node-0", ClusterName: ClusterName}
	info.Version.Number = Version
	return info, nil
}

func (c *Client) ClusterHealth(ctx context.Context) (*elasticx.ClusterHealthResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.begin(ctx, OpClusterHealth); err != nil {
		return nil, err
	}

	return &elasticx.ClusterHealthResponse{
		ClusterName:   ClusterName,
		Status:        c.status,
		NumberOfNodes: 1,
	}, nil
}

func (c *Client) Search(ctx context.Context, name string, body []byte, size int) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.begin(ctx, OpSearch); err != nil {
		return nil, err
	}

	idx, ok := c.indices[name]
	if !ok {
		return nil, indexNotFound(name)
	}

	return search(name, idx, body, size)
}

func (c *Client) Bulk(ctx context.Context, actions []elasticx.BulkAction) (*elasticx.BulkResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.begin(ctx, OpBulk); err != nil {
		return nil, err
	}

	resp := &elasticx.BulkResponse{}
	for _, a := range actions {
		if c.rejectedItems > 0 {
			c.rejectedItems--
			resp.Failures = append(resp.Failures, elasticx.BulkItemFailure{
				Index:  a.Index,
				Status: 429,
				Type:   "es_rejected_execution_exception",
				Reason: "rejected execution",
			})
			continue
		}

		if err := c.store(a.Index, a.Source, false); err != nil {
			resp.Failures = append(resp.Failures, elasticx.BulkItemFailure{
				Index:  a.Index,
				Status: 400,
				Type:   "mapper_parsing_exception",
				Reason: err.Error(),
			})
			continue
		}
		resp.Indexed++
	}

	return resp, nil
}

func (c *Client) DeleteDocument(ctx context.Context, name, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.begin(ctx, OpDeleteDocument); err != nil {
		return err
	}

	idx, ok := c.indices[name]
	if !ok {
		return indexNotFound(name)
	}

	for i, d := range idx.docs {
		if d.id == id {
			idx.docs = append(idx.docs[:i], idx.docs[i+1:]...)
			return nil
		}
	}

	return errorx.NotFoundErrorf("elasticsearch responded 404: document %s not found in %s", id, name)
}

func (c *Client) IndexExists(ctx context.Context, name string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.begin(ctx, OpIndexExists); err != nil {
		return false, err
	}

	_, ok := c.indices[name]
	return ok, nil
}

func (c *Client) DeleteIndex(ctx context.Context, name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.begin(ctx, OpDeleteIndex); err != nil {
		return err
	}

	if _, ok := c.indices[name]; !ok {
		return indexNotFound(name)
	}
	delete(c.indices, name)
	return nil
}

func (c *Client) RefreshIndex(ctx context.Context, name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.begin(ctx, OpRefreshIndex); err != nil {
		return err
	}

	idx, ok := c.indices[name]
	if !ok {
		return nil
	}
	for _, d := range idx.docs {
		d.visible = true
	}
	return nil
}

func (c *Client) PutIndexTemplate(ctx context.Context, name string, body []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.begin(ctx, OpPutIndexTemplate); err != nil {
		return err
	}

	if !json.Valid(body) {
		return errorx.InvalidArgumentErrorf("elasticsearch responded 400 parse_exception: template body is not valid JSON")
	}
	c.templates[name] = append([]byte(nil), body...)
	return nil
}

func (c *Client) Count(ctx context.Context, name string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.begin(ctx, OpCount); err != nil {
		return 0, err
	}

	idx, ok := c.indices[name]
	if !ok {
		return 0, indexNotFound(name)
	}

	n := 0
	for _, d := range idx.docs {
		if d.visible {
			n++
		}
	}
	return n, nil
}
