package mocks

import (
	"context"

	"gloo-search-gateway/internal/models"
	"gloo-search-gateway/internal/services"

	"github.com/stretchr/testify/mock"
)

// MockTokenSource is a mock implementation of TokenSource.
type MockTokenSource struct {
	mock.Mock
}

func NewMockTokenSource() *MockTokenSource {
	return &MockTokenSource{}
}

func (m *MockTokenSource) EnsureValidToken(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

// MockSearchClient is a mock implementation of SearchClientInterface.
type MockSearchClient struct {
	mock.Mock
}

func NewMockSearchClient() *MockSearchClient {
	return &MockSearchClient{}
}

func (m *MockSearchClient) Search(ctx context.Context, query string, limit int, sortBy services.SortOrder) (*models.SearchResponse, error) {
	args := m.Called(ctx, query, limit, sortBy)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SearchResponse), args.Error(1)
}

// MockCompletionClient is a mock implementation of CompletionClientInterface.
type MockCompletionClient struct {
	mock.Mock
}

func NewMockCompletionClient() *MockCompletionClient {
	return &MockCompletionClient{}
}

func (m *MockCompletionClient) Complete(ctx context.Context, messages []models.CompletionMessage) (string, error) {
	args := m.Called(ctx, messages)
	return args.String(0), args.Error(1)
}

// MockRAGOrchestrator is a mock implementation of RAGOrchestratorInterface.
type MockRAGOrchestrator struct {
	mock.Mock
}

func NewMockRAGOrchestrator() *MockRAGOrchestrator {
	return &MockRAGOrchestrator{}
}

func (m *MockRAGOrchestrator) Answer(ctx context.Context, query string, limit int, systemPrompt string) (*models.RAGResponse, error) {
	args := m.Called(ctx, query, limit, systemPrompt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RAGResponse), args.Error(1)
}
