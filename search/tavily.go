package search

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	defaultMaxResults = 5
	minContentLength  = 50

	DepthBasic    = "basic"
	DepthAdvanced = "advanced"
)

// TavilyConfig configures the Tavily search client.
type TavilyConfig struct {
	APIKey     string
	BaseURL    string
	MaxResults int
	Timeout    time.Duration
	CacheTTL   time.Duration
}

// TavilyClient calls the Tavily search API. When a Redis client is
// provided, results are cached per query+options for CacheTTL.
type TavilyClient struct {
	cfg    TavilyConfig
	client *http.Client
	cache  *redis.Client
	logger *zap.Logger
}

func NewTavilyClient(cfg TavilyConfig, cache *redis.Client, logger *zap.Logger) *TavilyClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.tavily.com"
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = defaultMaxResults
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.CacheTTL == 0 {
		cfg.CacheTTL = time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &TavilyClient{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		cache:  cache,
		logger: logger.With(zap.String("component", "tavily")),
	}
}

type tavilyRequest struct {
	APIKey         string   `json:"api_key"`
	Query          string   `json:"query"`
	MaxResults     int      `json:"max_results"`
	SearchDepth    string   `json:"search_depth"`
	IncludeDomains []string `json:"include_domains,omitempty"`
	ExcludeDomains []string `json:"exclude_domains,omitempty"`
}

type tavilyResponse struct {
	Results []Result `json:"results"`
}

func (t *TavilyClient) Search(ctx context.Context, query string, opts Options) ([]Result, error) {
	if opts.MaxResults <= 0 {
		opts.MaxResults = t.cfg.MaxResults
	}
	if opts.Depth == "" {
		opts.Depth = DepthBasic
	}

	key := cacheKey(query, opts)
	if cached, ok := t.cachedResults(ctx, key); ok {
		t.logger.Debug("search cache hit", zap.String("query", query))
		return cached, nil
	}

	start := time.Now()
	results, err := t.search(ctx, query, opts)
	if err != nil {
		return nil, err
	}

	t.logger.Info("web search completed",
		zap.String("query", query),
		zap.Int("results", len(results)),
		zap.Duration("duration", time.Since(start)))

	t.storeResults(ctx, key, results)
	return results, nil
}

func (t *TavilyClient) search(ctx context.Context, query string, opts Options) ([]Result, error) {
	body, err := json.Marshal(tavilyRequest{
		APIKey:         t.cfg.APIKey,
		Query:          query,
		MaxResults:     opts.MaxResults,
		SearchDepth:    opts.Depth,
		IncludeDomains: opts.IncludeDomains,
		ExcludeDomains: opts.ExcludeDomains,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal search request: %w", err)
	}

	endpoint := strings.TrimRight(t.cfg.BaseURL, "/") + "/search"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("search request failed: status=%d body=%s", resp.StatusCode, string(raw))
	}

	var parsed tavilyResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	return parsed.Results, nil
}

// SearchBankingInfo runs a basic search and filters out results without
// enough content to ground an answer. Relevance is left to the model.
func (t *TavilyClient) SearchBankingInfo(ctx context.Context, query string) ([]Result, error) {
	results, err := t.Search(ctx, query, Options{Depth: DepthBasic})
	if err != nil {
		return nil, err
	}

	filtered := make([]Result, 0, len(results))
	for _, r := range results {
		if len(r.Content) > minContentLength {
			filtered = append(filtered, r)
		}
	}
	return filtered, nil
}

// SearchRegulations searches official regulator sites only.
func (t *TavilyClient) SearchRegulations(ctx context.Context, topic string) ([]Result, error) {
	query := fmt.Sprintf("banking regulations %s fdic federal reserve", topic)
	return t.Search(ctx, query, Options{
		Depth:          DepthAdvanced,
		IncludeDomains: []string{"fdic.gov", "federalreserve.gov", "occ.gov"},
	})
}

// CurrentRates searches for current deposit rates, optionally scoped to
// one bank.
func (t *TavilyClient) CurrentRates(ctx context.Context, bankName string) ([]Result, error) {
	query := "current interest rates savings checking"
	if bankName != "" {
		query = bankName + " " + query
	}
	return t.Search(ctx, query, Options{Depth: DepthAdvanced})
}

func cacheKey(query string, opts Options) string {
	raw := fmt.Sprintf("search:%s:%d:%s:%v:%v", query, opts.MaxResults, opts.Depth, opts.IncludeDomains, opts.ExcludeDomains)
	sum := sha256.Sum256([]byte(raw))
	return "search:" + hex.EncodeToString(sum[:])
}

func (t *TavilyClient) cachedResults(ctx context.Context, key string) ([]Result, bool) {
	if t.cache == nil {
		return nil, false
	}

	raw, err := t.cache.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			t.logger.Warn("search cache read failed", zap.Error(err))
		}
		return nil, false
	}

	var results []Result
	if err := json.Unmarshal([]byte(raw), &results); err != nil {
		return nil, false
	}
	return results, true
}

func (t *TavilyClient) storeResults(ctx context.Context, key string, results []Result) {
	if t.cache == nil || len(results) == 0 {
		return
	}

	raw, err := json.Marshal(results)
	if err != nil {
		return
	}
	if err := t.cache.Set(ctx, key, raw, t.cfg.CacheTTL).Err(); err != nil {
		t.logger.Warn("search cache write failed", zap.Error(err))
	}
}

var _ Client = (*TavilyClient)(nil)
