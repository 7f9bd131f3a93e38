package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"gloo-search-gateway/internal/models"

	"github.com/rs/zerolog"
)

const defaultRequestTimeout = 60 * time.Second

type SearchClientConfig struct {
	SearchURL string
	Tenant    string
	Timeout   time.Duration
}

type SearchClient struct {
	tokens     TokenSource
	searchURL  string
	tenant     string
	httpClient *http.Client
	logger     zerolog.Logger
}

func NewSearchClient(tokens TokenSource, cfg SearchClientConfig, logger zerolog.Logger) *SearchClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	return &SearchClient{
		tokens:    tokens,
		searchURL: cfg.SearchURL,
		tenant:    cfg.Tenant,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger.With().Str("component", "search_client").Logger(),
	}
}

// Search performs a single semantic search. Results keep the server's
// relevance order unless sortBy is SortCertainty. Data is never nil.
func (c *SearchClient) Search(ctx context.Context, query string, limit int, sortBy SortOrder) (*models.SearchResponse, error) {
	token, err := c.tokens.EnsureValidToken(ctx)
	if err != nil {
		return nil, err
	}

	payload := models.SearchRequest{
		Query:      query,
		Collection: models.Collection,
		Tenant:     c.tenant,
		Limit:      models.ClampLimit(limit),
		Certainty:  models.DefaultCertainty,
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal search request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.searchURL, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create search request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+token)
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, &SearchError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var result models.SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}
	if result.Data == nil {
		result.Data = []models.SearchResult{}
	}

	if sortBy == SortCertainty {
		SortByCertainty(result.Data)
	}

	c.logger.Debug().
		Int("limit", payload.Limit).
		Int("results", len(result.Data)).
		Str("sort", string(sortBy)).
		Dur("latency", time.Since(start)).
		Msg("Search completed")

	return &result, nil
}
