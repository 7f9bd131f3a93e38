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

// DefaultMaxTokens is the generation budget used outside server mode.
const DefaultMaxTokens = 1000

type CompletionClientConfig struct {
	CompletionsURL string
	MaxTokens      int
	Timeout        time.Duration
}

type CompletionClient struct {
	tokens         TokenSource
	completionsURL string
	maxTokens      int
	httpClient     *http.Client
	logger         zerolog.Logger
}

func NewCompletionClient(tokens TokenSource, cfg CompletionClientConfig, logger zerolog.Logger) *CompletionClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}

	return &CompletionClient{
		tokens:         tokens,
		completionsURL: cfg.CompletionsURL,
		maxTokens:      maxTokens,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger.With().Str("component", "completion_client").Logger(),
	}
}

// Complete sends messages with auto routing enabled and returns the content
// of the first choice, or "" when the response has no choices.
func (c *CompletionClient) Complete(ctx context.Context, messages []models.CompletionMessage) (string, error) {
	token, err := c.tokens.EnsureValidToken(ctx)
	if err != nil {
		return "", err
	}

	payload := models.CompletionRequest{
		Messages:    messages,
		AutoRouting: true,
		MaxTokens:   c.maxTokens,
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal completions request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.completionsURL, bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create completions request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+token)
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("completions request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", &CompletionError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var result models.CompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode completions response: %w", err)
	}

	c.logger.Debug().
		Int("max_tokens", c.maxTokens).
		Int("choices", len(result.Choices)).
		Dur("latency", time.Since(start)).
		Msg("Completion received")

	if len(result.Choices) == 0 {
		return "", nil
	}

	return result.Choices[0].Message.Content, nil
}
