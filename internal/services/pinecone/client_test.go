package pinecone

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/scriptura/internal/models"
)

func TestClientUpsert(t *testing.T) {
	t.Run("sends api key and entries", func(t *testing.T) {
		var gotPath, gotKey, gotContentType string
		var gotBody upsertRequest

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			gotKey = r.Header.Get("Api-Key")
			gotContentType = r.Header.Get("Content-Type")
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
			json.NewEncoder(w).Encode(upsertResponse{UpsertedCount: 2})
		}))
		defer server.Close()

		client := NewClient(server.URL, "test-key", WithRateLimit(1000))

		entries := []models.IndexEntry{
			{ID: "창세기-1-1-0", Values: []float32{0.1, 0.2}},
			{ID: "창세기-1-2-1", Values: []float32{0.3, 0.4}},
		}
		require.NoError(t, client.Upsert(context.Background(), entries))

		assert.Equal(t, "/vectors/upsert", gotPath)
		assert.Equal(t, "test-key", gotKey)
		assert.Equal(t, "application/json", gotContentType)
		require.Len(t, gotBody.Vectors, 2)
		assert.Equal(t, "창세기-1-1-0", gotBody.Vectors[0].ID)
	})

	t.Run("429 returns typed rate limit error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer server.Close()

		client := NewClient(server.URL, "test-key", WithRateLimit(1000))

		err := client.Upsert(context.Background(), []models.IndexEntry{{ID: "x"}})
		require.Error(t, err)

		var rateErr *RateLimitError
		assert.True(t, errors.As(err, &rateErr))
		assert.True(t, IsRateLimit(err))
	})

	t.Run("server error returns api error with status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte("index unavailable"))
		}))
		defer server.Close()

		client := NewClient(server.URL, "test-key", WithRateLimit(1000))

		err := client.Upsert(context.Background(), []models.IndexEntry{{ID: "x"}})
		require.Error(t, err)

		var apiErr *APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
		assert.Contains(t, apiErr.Message, "index unavailable")
		assert.False(t, IsRateLimit(err))
	})
}

func TestClientQuery(t *testing.T) {
	t.Run("returns matches with metadata", func(t *testing.T) {
		var gotBody queryRequest

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/query", r.URL.Path)
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
			json.NewEncoder(w).Encode(queryResponse{
				Matches: []queryMatch{
					{
						ID:    "요한복음-3-16-25",
						Score: 0.93,
						Metadata: models.EntryMetadata{
							Book:    "요한복음",
							Chapter: "3",
							Verse:   "16",
							Text:    "하나님이 세상을 이처럼 사랑하사",
						},
					},
				},
			})
		}))
		defer server.Close()

		client := NewClient(server.URL, "test-key", WithRateLimit(1000))

		matches, err := client.Query(context.Background(), []float32{0.1, 0.2}, 5)
		require.NoError(t, err)

		assert.Equal(t, 5, gotBody.TopK)
		assert.True(t, gotBody.IncludeMetadata)
		require.Len(t, matches, 1)
		assert.InDelta(t, 0.93, matches[0].Score, 1e-9)
		assert.Equal(t, "요한복음", matches[0].Metadata.Book)
	})

	t.Run("empty result set is not an error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(queryResponse{})
		}))
		defer server.Close()

		client := NewClient(server.URL, "test-key", WithRateLimit(1000))

		matches, err := client.Query(context.Background(), []float32{0.1}, 5)
		require.NoError(t, err)
		assert.Empty(t, matches)
	})
}

func TestClientDescribeIndexStats(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/describe_index_stats", r.URL.Path)
		json.NewEncoder(w).Encode(IndexStats{Dimension: 768, TotalVectorCount: 31173})
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", WithRateLimit(1000))

	stats, err := client.DescribeIndexStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 768, stats.Dimension)
	assert.Equal(t, 31173, stats.TotalVectorCount)
}
