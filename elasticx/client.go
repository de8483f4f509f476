package elasticx

import "context"

// Document is a single Elasticsearch document source.
type Document = map[string]any

// BulkAction indexes Source into Index.
type BulkAction struct {
	Index  string
	Source Document
}

// Client provides access to a single Elastic server, or an entire cluster of Elastic servers.
type Client interface {
	// Address returns the host:port the client talks to.
	Address() string

	// Info returns the cluster name and version.
	Info(ctx context.Context) (*InfoResponse, error)

	// ClusterHealth returns the health of the cluster.
	ClusterHealth(ctx context.Context) (*ClusterHealthResponse, error)

	// Search runs body against index and returns the raw response document.
	// size is sent as the `size` query parameter and overrides any size in body.
	Search(ctx context.Context, index string, body []byte, size int) ([]byte, error)

	// Bulk indexes every action. Per-item failures are reported in the response, not as an error.
	Bulk(ctx context.Context, actions []BulkAction) (*BulkResponse, error)

	DeleteDocument(ctx context.Context, index, id string) error

	IndexExists(ctx context.Context, index string) (bool, error)
	DeleteIndex(ctx context.Context, index string) error

	// RefreshIndex makes recent writes to index visible to search. A missing index is not an error.
	RefreshIndex(ctx context.Context, index string) error

	// PutIndexTemplate registers a legacy index template.
	PutIndexTemplate(ctx context.Context, name string, body []byte) error

	// Count returns the number of searchable documents in index.
	Count(ctx context.Context, index string) (int, error)
}
