package services

import (
	"context"

	"gloo-search-gateway/internal/models"
)

// TokenSource hands out bearer tokens for outbound calls.
type TokenSource interface {
	// EnsureValidToken returns a token valid for at least the expiry buffer.
	EnsureValidToken(ctx context.Context) (string, error)
}

// SearchClientInterface defines the interface for semantic search operations.
type SearchClientInterface interface {
	// Search runs one semantic query and returns the decoded response.
	Search(ctx context.Context, query string, limit int, sortBy SortOrder) (*models.SearchResponse, error)
}

// CompletionClientInterface defines the interface for chat completion operations.
type CompletionClientInterface interface {
	// Complete posts messages and returns the first choice's content.
	Complete(ctx context.Context, messages []models.CompletionMessage) (string, error)
}

// RAGOrchestratorInterface defines the interface for the search-then-generate flow.
type RAGOrchestratorInterface interface {
	// Answer runs search, snippet extraction and generation for query.
	Answer(ctx context.Context, query string, limit int, systemPrompt string) (*models.RAGResponse, error)
}
