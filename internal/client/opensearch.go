// Package client implements the search-backend contract over OpenSearch.
package client

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/opensearch-project/opensearch-go/v2"

	"github.com/conntrace-systems/conntrace/internal/query"
)

// ErrUnavailable marks a backend that could not be reached (connection
// refused, timeout, or gateway failure). Callers must be able to tell this
// apart from a query that matched zero events.
var ErrUnavailable = errors.New("search backend unavailable")

// Hit is one raw backend record prior to projection.
type Hit struct {
	Source map[string]interface{} `json:"_source"`
}

// Result is the backend response for one query execution.
type Result struct {
	Hits   []Hit
	Total  int
	TookMS int
}

// Searcher executes compiled backend queries. Satisfied by *OpenSearchClient
// and by test fakes.
type Searcher interface {
	Search(ctx context.Context, q query.BackendQuery) (*Result, error)
}

// Config captures OpenSearch connection settings.
type Config struct {
	URL      string
	Username string
	Password string
	Insecure bool
}

// OpenSearchClient wraps the OpenSearch API client for the CGNAT log index.
type OpenSearchClient struct {
	client *opensearch.Client
}

// NewOpenSearchClient builds the OpenSearch client. It does not contact the
// node; call Ping to verify reachability.
func NewOpenSearchClient(cfg Config) (*OpenSearchClient, error) {
	httpClient := &http.Client{
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{
				InsecureSkipVerify: cfg.Insecure,
			},
		},
	}

	osCfg := opensearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.Username,
		Password:  cfg.Password,
		Transport: httpClient.Transport,
	}

	client, err := opensearch.NewClient(osCfg)
	if err != nil {
		return nil, fmt.Errorf("create opensearch client: %w", err)
	}

	return &OpenSearchClient{client: client}, nil
}

// Ping verifies the node responds. An unreachable node reports
// ErrUnavailable.
func (c *OpenSearchClient) Ping() error {
	info, err := c.client.Info()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer info.Body.Close()

	if info.IsError() {
		return fmt.Errorf("opensearch returned error: %s", info.Status())
	}
	return nil
}

// Search executes a compiled query against the CGNAT log indices. Transport
// failures surface as ErrUnavailable; a query matching nothing returns an
// empty Result and no error.
func (c *OpenSearchClient) Search(ctx context.Context, q query.BackendQuery) (*Result, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(q); err != nil {
		return nil, fmt.Errorf("encode query: %w", err)
	}

	res, err := c.client.Search(
		c.client.Search.WithContext(ctx),
		c.client.Search.WithIndex(query.IndexPattern),
		c.client.Search.WithBody(&buf),
		c.client.Search.WithTrackTotalHits(true),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		switch res.StatusCode {
		case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return nil, fmt.Errorf("%w: %s", ErrUnavailable, res.Status())
		}
		return nil, fmt.Errorf("search error: %s", res.String())
	}

	var searchResult struct {
		Took int `json:"took"`
		Hits struct {
			Total struct {
				Value int `json:"value"`
			} `json:"total"`
			Hits []Hit `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&searchResult); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return &Result{
		Hits:   searchResult.Hits.Hits,
		Total:  searchResult.Hits.Total.Value,
		TookMS: searchResult.Took,
	}, nil
}
