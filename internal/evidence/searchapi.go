package evidence

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/veridex/veridex/internal/cache"
	"github.com/veridex/veridex/internal/model"
	"github.com/veridex/veridex/internal/worker"
)

// SearchClient talks to the evidence search API over HTTP. The
// underlying client is shared read-only across concurrent calls; no
// field is mutated after construction.
type SearchClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *worker.Limiter
	cache      cache.Cache
	cacheTTL   time.Duration
}

type searchRequest struct {
	Query    string `json:"query"`
	Category string `json:"category"`
	Limit    int    `json:"limit"`
}

type searchResponse struct {
	Items []struct {
		Title          string  `json:"title"`
		URL            string  `json:"url"`
		Snippet        string  `json:"snippet"`
		PublishedAt    string  `json:"published_at"`
		RelevanceScore float64 `json:"relevance_score"`
	} `json:"items"`
	ProviderError string `json:"provider_error,omitempty"`
}

// NewSearchClient creates the live search adapter. Missing credentials
// are a construction-time ProviderUnavailable, not a per-request issue:
// an unconfigured provider must never reach the job path.
func NewSearchClient(cfg model.SearchConfig, c cache.Cache) (*SearchClient, error) {
	if cfg.BaseURL == "" {
		return nil, &model.ProviderUnavailableError{Provider: "search", Err: fmt.Errorf("base URL not configured")}
	}
	if cfg.APIKey == "" {
		return nil, &model.ProviderUnavailableError{Provider: "search", Err: fmt.Errorf("API key not configured")}
	}

	return &SearchClient{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: cfg.CategoryTimeout,
		},
		limiter:  worker.NewLimiter(cfg.RequestsPerSecond, cfg.Burst),
		cache:    c,
		cacheTTL: cfg.CacheTTL,
	}, nil
}

// Name returns the provider name
func (s *SearchClient) Name() string {
	return "search"
}

// Health probes the provider with authentication. Run at startup; a
// failure here is fatal in live mode.
func (s *SearchClient) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/v1/health", nil)
	if err != nil {
		return &model.ProviderUnavailableError{Provider: s.Name(), Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return &model.ProviderUnavailableError{Provider: s.Name(), Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return &model.ProviderUnavailableError{Provider: s.Name(), Err: fmt.Errorf("authentication rejected (status %d)", resp.StatusCode)}
	}
	if resp.StatusCode != http.StatusOK {
		return &model.ProviderUnavailableError{Provider: s.Name(), Err: fmt.Errorf("health probe returned status %d", resp.StatusCode)}
	}
	return nil
}

// Search runs one category search, consulting the cache first. Cache
// hits cost nothing and skip the rate limiter.
func (s *SearchClient) Search(ctx context.Context, query string, category model.SourceType, limit int) ([]model.EvidenceItem, error) {
	key := cache.SearchKey(query, string(category), limit)
	if s.cache != nil {
		if data, found := s.cache.Get(key); found {
			var items []model.EvidenceItem
			if err := json.Unmarshal(data, &items); err == nil {
				return items, nil
			}
		}
	}

	if err := s.limiter.Wait(ctx, s.baseURL); err != nil {
		return nil, &model.ProviderError{Category: category, Provider: s.Name(), Message: fmt.Sprintf("rate limit wait: %v", err)}
	}

	items, err := s.doSearch(ctx, query, category, limit)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if data, err := json.Marshal(items); err == nil {
			_ = s.cache.Set(key, data, s.cacheTTL)
		}
	}
	return items, nil
}

func (s *SearchClient) doSearch(ctx context.Context, query string, category model.SourceType, limit int) ([]model.EvidenceItem, error) {
	body, err := json.Marshal(searchRequest{Query: query, Category: string(category), Limit: limit})
	if err != nil {
		return nil, &model.ProviderError{Category: category, Provider: s.Name(), Message: fmt.Sprintf("marshal request: %v", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/v1/search", bytes.NewReader(body))
	if err != nil {
		return nil, &model.ProviderError{Category: category, Provider: s.Name(), Message: fmt.Sprintf("create request: %v", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, &model.ProviderError{Category: category, Provider: s.Name(), Message: fmt.Sprintf("request failed: %v", err)}
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, &model.ProviderError{Category: category, Provider: s.Name(), Message: fmt.Sprintf("read response: %v", err)}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &model.ProviderError{Category: category, Provider: s.Name(), Message: fmt.Sprintf("status %d", resp.StatusCode)}
	}

	var parsed searchResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, &model.ProviderError{Category: category, Provider: s.Name(), Message: fmt.Sprintf("decode response: %v", err)}
	}
	if parsed.ProviderError != "" {
		return nil, &model.ProviderError{Category: category, Provider: s.Name(), Message: parsed.ProviderError}
	}

	items := make([]model.EvidenceItem, 0, len(parsed.Items))
	for _, it := range parsed.Items {
		item := model.EvidenceItem{
			SourceType:     category,
			Title:          it.Title,
			URL:            it.URL,
			Snippet:        it.Snippet,
			RelevanceScore: it.RelevanceScore,
		}
		if it.PublishedAt != "" {
			if ts, err := time.Parse(time.RFC3339, it.PublishedAt); err == nil {
				item.PublishedAt = &ts
			}
		}
		items = append(items, item)
	}
	return items, nil
}
