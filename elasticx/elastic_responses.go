package elasticx

import "encoding/json"

type SearchResponse struct {
	Took int `json:"took"`
	Hits struct {
		Total struct {
			Value int `json:"value"`
		}
		Hits []struct {
			Index  string          `json:"_index"`
			ID     string          `json:"_id"`
			Source json.RawMessage `json:"_source"`
			Sort   []interface{}   `json:"sort"`
		}
	}
}

type InfoResponse struct {
	Name        string `json:"name"`
	ClusterName string `json:"cluster_name"`
	Version     struct {
		Number string `json:"number"`
	} `json:"version"`
}

type ClusterHealthResponse struct {
	ClusterName      string       `json:"cluster_name"`
	Status           HealthStatus `json:"status"`
	NumberOfNodes    int          `json:"number_of_nodes"`
	ActiveShards     int          `json:"active_shards"`
	UnassignedShards int          `json:"unassigned_shards"`
}

type HealthStatus string

const (
	HealthStatusGreen  HealthStatus = "green"
	HealthStatusYellow HealthStatus = "yellow"
	HealthStatusRed    HealthStatus = "red"
)

type CountResponse struct {
	Count int `json:"count"`
}

// BulkResponse summarises a bulk call.
type BulkResponse struct {
	Indexed  int
	Failures []BulkItemFailure
}

// HasFailures reports whether at least one item was rejected.
func (r *BulkResponse) HasFailures() bool {
	return len(r.Failures) > 0
}

type BulkItemFailure struct {
	Index  string
	Status int
	Type   string
	Reason string
}

type bulkMeta struct {
	Index struct {
		Index string `json:"_index"`
	} `json:"index"`
}

type bulkResult struct {
	Errors bool                        `json:"errors"`
	Items  []map[string]bulkResultItem `json:"items"`
}

type bulkResultItem struct {
	Index  string `json:"_index"`
	Status int    `json:"status"`
	Error  struct {
		Type   string `json:"type"`
		Reason string `json:"reason"`
	} `json:"error"`
}
