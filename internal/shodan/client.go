package shodan

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/vulnscout/vulnscout/internal/config"
	"github.com/vulnscout/vulnscout/internal/pkg/errors"
)

// Searcher executes a device-index search and returns normalized host
// records in upstream relevance order.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]HostRecord, error)
}

// Client is an HTTP implementation of Searcher against the Shodan
// REST API.
type Client struct {
	cfg        config.ShodanConfig
	httpClient *http.Client
}

// NewClient creates a Shodan client from configuration.
func NewClient(cfg config.ShodanConfig) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.ValidationError("shodan api_key must not be empty")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.shodan.io"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:    100,
				MaxConnsPerHost: 100,
				IdleConnTimeout: 90 * time.Second,
			},
		},
	}, nil
}

type searchResponse struct {
	Matches []json.RawMessage `json:"matches"`
	Total   int               `json:"total"`
	Error   string            `json:"error"`
}

// Search implements Searcher. The returned slice never exceeds limit.
// Individual malformed matches are skipped rather than aborting the
// whole search; transport and auth failures are hard errors.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]HostRecord, error) {
	if limit <= 0 {
		limit = 5
	}

	params := url.Values{}
	params.Set("key", c.cfg.APIKey)
	params.Set("query", query)
	params.Set("limit", strconv.Itoa(limit))

	reqURL := c.cfg.BaseURL + "/shodan/host/search?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, errors.InternalError("building search request", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.SearchError("search request failed", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.SearchError("reading search response", err)
	}

	if resp.StatusCode != http.StatusOK {
		var parsed searchResponse
		if json.Unmarshal(data, &parsed) == nil && parsed.Error != "" {
			return nil, errors.SearchError(
				fmt.Sprintf("search service returned %d: %s", resp.StatusCode, parsed.Error), nil)
		}
		return nil, errors.SearchError(
			fmt.Sprintf("search service returned %d", resp.StatusCode), nil)
	}

	var parsed searchResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, errors.SearchError("decoding search response", err)
	}

	records := make([]HostRecord, 0, len(parsed.Matches))
	for _, raw := range parsed.Matches {
		if len(records) >= limit {
			break
		}

		var m rawMatch
		if err := json.Unmarshal(raw, &m); err != nil {
			// One bad match never aborts the search.
			continue
		}
		records = append(records, m.normalize())
	}

	return records, nil
}
