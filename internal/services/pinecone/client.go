// Package pinecone provides a client for the Pinecone vector index data
// plane, plus the batch index writer used to populate it.
package pinecone

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scriptura/internal/models"
	"golang.org/x/time/rate"
)

const (
	// DefaultTimeout is the default HTTP timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultRateLimit is the default rate limit (requests per second).
	DefaultRateLimit = 5
)

// Client is a Pinecone data-plane API client bound to one index host.
type Client struct {
	indexHost  string
	apiKey     string
	httpClient *http.Client
	logger     arbor.ILogger
	limiter    *rate.Limiter
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithLogger sets a logger.
func WithLogger(logger arbor.ILogger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets a custom rate limit.
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// WithTimeout sets a custom HTTP timeout.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new Pinecone client for the given index host.
func NewClient(indexHost, apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		indexHost: indexHost,
		apiKey:    apiKey,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

type upsertRequest struct {
	Vectors []models.IndexEntry `json:"vectors"`
}

type upsertResponse struct {
	UpsertedCount int `json:"upsertedCount"`
}

type queryRequest struct {
	Vector          []float32 `json:"vector"`
	TopK            int       `json:"topK"`
	IncludeMetadata bool      `json:"includeMetadata"`
}

type queryMatch struct {
	ID       string               `json:"id"`
	Score    float64              `json:"score"`
	Metadata models.EntryMetadata `json:"metadata"`
}

type queryResponse struct {
	Matches []queryMatch `json:"matches"`
}

// IndexStats describes the remote index.
type IndexStats struct {
	Dimension        int `json:"dimension"`
	TotalVectorCount int `json:"totalVectorCount"`
}

// Upsert writes a batch of entries to the index. Entries sharing an id with
// an existing vector overwrite it.
func (c *Client) Upsert(ctx context.Context, entries []models.IndexEntry) error {
	var resp upsertResponse
	if err := c.post(ctx, "/vectors/upsert", upsertRequest{Vectors: entries}, &resp); err != nil {
		return err
	}

	if c.logger != nil {
		c.logger.Debug().
			Int("requested", len(entries)).
			Int("upserted", resp.UpsertedCount).
			Msg("Pinecone upsert completed")
	}

	return nil
}

// Query returns up to topK nearest neighbors for the vector, ordered by
// descending similarity score as returned by the index.
func (c *Client) Query(ctx context.Context, vector []float32, topK int) ([]models.RetrievalMatch, error) {
	var resp queryResponse
	req := queryRequest{
		Vector:          vector,
		TopK:            topK,
		IncludeMetadata: true,
	}
	if err := c.post(ctx, "/query", req, &resp); err != nil {
		return nil, err
	}

	matches := make([]models.RetrievalMatch, 0, len(resp.Matches))
	for _, match := range resp.Matches {
		matches = append(matches, models.RetrievalMatch{
			Score:    match.Score,
			Metadata: match.Metadata,
		})
	}

	return matches, nil
}

// DescribeIndexStats fetches dimension and vector count for the index.
// Used at startup to verify the configured embedding dimension matches the
// index before any upload work begins.
func (c *Client) DescribeIndexStats(ctx context.Context) (*IndexStats, error) {
	var stats IndexStats
	if err := c.post(ctx, "/describe_index_stats", struct{}{}, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// post issues a JSON POST against the index data plane.
func (c *Client) post(ctx context.Context, path string, payload interface{}, result interface{}) error {
	// Wait for rate limiter
	if err := c.limiter.Wait(ctx); err != nil {
		return &RateLimitError{RetryAfter: time.Second}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.indexHost+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Api-Key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	if c.logger != nil {
		c.logger.Debug().
			Str("endpoint", path).
			Msg("Pinecone API request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return &RateLimitError{RetryAfter: 5 * time.Second}
	}

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(respBody),
			Endpoint:   path,
		}
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}
