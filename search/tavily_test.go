package search_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/MohsenSoleimanis/BANK-ASSISTANCE-SUPPORT/search"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturedRequest struct {
	APIKey         string   `json:"api_key"`
	Query          string   `json:"query"`
	MaxResults     int      `json:"max_results"`
	SearchDepth    string   `json:"search_depth"`
	IncludeDomains []string `json:"include_domains"`
}

func newTestServer(t *testing.T, results []search.Result) (*httptest.Server, *[]capturedRequest) {
	t.Helper()

	var requests []capturedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/search", r.URL.Path)

		var req capturedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		requests = append(requests, req)

		json.NewEncoder(w).Encode(map[string]any{"results": results})
	}))
	t.Cleanup(srv.Close)

	return srv, &requests
}

func TestSearchPreservesProviderOrder(t *testing.T) {
	results := []search.Result{
		{Title: "First", URL: "https://a.example", Content: strings.Repeat("a", 80), Score: 0.5},
		{Title: "Second", URL: "https://b.example", Content: strings.Repeat("b", 80), Score: 0.9},
	}
	srv, requests := newTestServer(t, results)

	client := search.NewTavilyClient(search.TavilyConfig{APIKey: "key", BaseURL: srv.URL}, nil, nil)
	got, err := client.Search(context.Background(), "mortgage rates", search.Options{MaxResults: 3})
	require.NoError(t, err)

	// Provider order stands even when scores disagree with it.
	require.Len(t, got, 2)
	assert.Equal(t, "First", got[0].Title)
	assert.Equal(t, "Second", got[1].Title)

	require.Len(t, *requests, 1)
	req := (*requests)[0]
	assert.Equal(t, "key", req.APIKey)
	assert.Equal(t, "mortgage rates", req.Query)
	assert.Equal(t, 3, req.MaxResults)
	assert.Equal(t, "basic", req.SearchDepth)
}

func TestSearchServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	t.Cleanup(srv.Close)

	client := search.NewTavilyClient(search.TavilyConfig{APIKey: "key", BaseURL: srv.URL}, nil, nil)
	_, err := client.Search(context.Background(), "rates", search.Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status=429")
}

func TestSearchBankingInfoFiltersThinContent(t *testing.T) {
	srv, _ := newTestServer(t, []search.Result{
		{Title: "Thin", URL: "https://a.example", Content: "too short"},
		{Title: "Substantial", URL: "https://b.example", Content: strings.Repeat("x", 80)},
	})

	client := search.NewTavilyClient(search.TavilyConfig{APIKey: "key", BaseURL: srv.URL}, nil, nil)
	got, err := client.SearchBankingInfo(context.Background(), "overdraft fees")
	require.NoError(t, err)

	require.Len(t, got, 1)
	assert.Equal(t, "Substantial", got[0].Title)
}

func TestSearchRegulationsScopesDomains(t *testing.T) {
	srv, requests := newTestServer(t, nil)

	client := search.NewTavilyClient(search.TavilyConfig{APIKey: "key", BaseURL: srv.URL}, nil, nil)
	_, err := client.SearchRegulations(context.Background(), "overdraft")
	require.NoError(t, err)

	require.Len(t, *requests, 1)
	req := (*requests)[0]
	assert.Equal(t, "advanced", req.SearchDepth)
	assert.Contains(t, req.IncludeDomains, "fdic.gov")
	assert.Contains(t, req.Query, "overdraft")
}

func TestSearchUsesCache(t *testing.T) {
	srv, requests := newTestServer(t, []search.Result{
		{Title: "Cached", URL: "https://a.example", Content: strings.Repeat("x", 80)},
	})

	mr := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { cache.Close() })

	client := search.NewTavilyClient(search.TavilyConfig{
		APIKey:   "key",
		BaseURL:  srv.URL,
		CacheTTL: time.Minute,
	}, cache, nil)

	first, err := client.Search(context.Background(), "cd rates", search.Options{})
	require.NoError(t, err)
	second, err := client.Search(context.Background(), "cd rates", search.Options{})
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, *requests, 1, "second call must be served from cache")

	// Different options miss the cache.
	_, err = client.Search(context.Background(), "cd rates", search.Options{Depth: search.DepthAdvanced})
	require.NoError(t, err)
	assert.Len(t, *requests, 2)
}

func TestSearchCacheExpiry(t *testing.T) {
	srv, requests := newTestServer(t, []search.Result{
		{Title: "Fresh", URL: "https://a.example", Content: strings.Repeat("x", 80)},
	})

	mr := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { cache.Close() })

	client := search.NewTavilyClient(search.TavilyConfig{
		APIKey:   "key",
		BaseURL:  srv.URL,
		CacheTTL: time.Minute,
	}, cache, nil)

	_, err := client.Search(context.Background(), "cd rates", search.Options{})
	require.NoError(t, err)
	mr.FastForward(2 * time.Minute)
	_, err = client.Search(context.Background(), "cd rates", search.Options{})
	require.NoError(t, err)

	assert.Len(t, *requests, 2)
}
