package tavily

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stocklens/stocklens/internal/resilience"
)

func TestSearchInjectsAPIKey(t *testing.T) {
	var got SearchRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/search", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"query": "AAPL revenue",
			"results": [
				{"title": "Apple 10-K", "url": "https://sec.gov/aapl", "content": "Total Revenue: $394B", "score": 0.97}
			],
			"response_time": 0.4
		}`))
	}))
	t.Cleanup(srv.Close)

	c := NewClient("test-key", WithBaseURL(srv.URL))
	resp, err := c.Search(context.Background(), SearchRequest{Query: "AAPL revenue", MaxResults: 3})
	require.NoError(t, err)

	assert.Equal(t, "test-key", got.APIKey)
	assert.Equal(t, "AAPL revenue", got.Query)
	assert.Equal(t, "basic", got.SearchDepth, "default depth applies when unset")
	assert.Equal(t, 3, got.MaxResults)

	require.Len(t, resp.Results, 1)
	assert.Equal(t, "https://sec.gov/aapl", resp.Results[0].URL)
	assert.Equal(t, 0.97, resp.Results[0].Score)
}

func TestSearchDepthOverrides(t *testing.T) {
	var got SearchRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"results": []}`))
	}))
	t.Cleanup(srv.Close)

	c := NewClient("test-key", WithBaseURL(srv.URL), WithSearchDepth("advanced"))

	_, err := c.Search(context.Background(), SearchRequest{Query: "q"})
	require.NoError(t, err)
	assert.Equal(t, "advanced", got.SearchDepth)

	_, err = c.Search(context.Background(), SearchRequest{Query: "q", SearchDepth: "basic"})
	require.NoError(t, err)
	assert.Equal(t, "basic", got.SearchDepth, "request-level depth wins")
}

func TestSearchUnexpectedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid api key", http.StatusUnauthorized)
	}))
	t.Cleanup(srv.Close)

	c := NewClient("bad-key", WithBaseURL(srv.URL))
	_, err := c.Search(context.Background(), SearchRequest{Query: "q"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
	assert.False(t, resilience.IsTransient(err), "auth failures must not be retried")
}

func TestSearchTransientStatusClassification(t *testing.T) {
	for _, code := range []int{http.StatusTooManyRequests, http.StatusServiceUnavailable, http.StatusBadGateway} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "upstream busy", code)
		}))

		c := NewClient("test-key", WithBaseURL(srv.URL))
		_, err := c.Search(context.Background(), SearchRequest{Query: "q"})
		require.Error(t, err)
		assert.True(t, resilience.IsTransient(err), "status %d should be retryable", code)

		srv.Close()
	}
}
