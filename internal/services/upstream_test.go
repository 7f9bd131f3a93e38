package services_test

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"gloo-search-gateway/internal/auth"
	"gloo-search-gateway/internal/models"
	"gloo-search-gateway/internal/services"

	"github.com/rs/zerolog"
)

type recordedRequest struct {
	Path string
	Auth string
	Body string
}

// upstream stubs the token, search and completions endpoints on one server.
type upstream struct {
	server *httptest.Server

	mu       sync.Mutex
	requests []recordedRequest

	searchStatus     int
	searchBody       string
	completionStatus int
	completionBody   string
}

type upstreamOption func(*upstream)

func withSearch(status int, body string) upstreamOption {
	return func(u *upstream) {
		u.searchStatus = status
		u.searchBody = body
	}
}

func withCompletion(status int, body string) upstreamOption {
	return func(u *upstream) {
		u.completionStatus = status
		u.completionBody = body
	}
}

func newUpstream(t *testing.T, opts ...upstreamOption) *upstream {
	t.Helper()
	u := &upstream{
		searchStatus:     http.StatusOK,
		searchBody:       `{"data":[],"intent":0}`,
		completionStatus: http.StatusOK,
		completionBody:   `{"choices":[{"message":{"role":"assistant","content":"generated"}}]}`,
	}
	for _, opt := range opts {
		opt(u)
	}

	u.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)

		u.mu.Lock()
		u.requests = append(u.requests, recordedRequest{
			Path: r.URL.Path,
			Auth: r.Header.Get("Authorization"),
			Body: string(body),
		})
		u.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/oauth2/token":
			fmt.Fprint(w, `{"access_token":"test-token","expires_in":3600,"token_type":"Bearer"}`)
		case "/search":
			w.WriteHeader(u.searchStatus)
			fmt.Fprint(w, u.searchBody)
		case "/completions":
			w.WriteHeader(u.completionStatus)
			fmt.Fprint(w, u.completionBody)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(u.server.Close)
	return u
}

func (u *upstream) calls(path string) []recordedRequest {
	u.mu.Lock()
	defer u.mu.Unlock()

	var out []recordedRequest
	for _, r := range u.requests {
		if r.Path == path {
			out = append(out, r)
		}
	}
	return out
}

func (u *upstream) tokens() *auth.CredentialCache {
	return auth.NewCredentialCache(auth.CredentialCacheConfig{
		ClientID:     "id",
		ClientSecret: "secret",
		TokenURL:     u.server.URL + "/oauth2/token",
	}, zerolog.Nop())
}

func (u *upstream) searchClient(tokens services.TokenSource) *services.SearchClient {
	return services.NewSearchClient(tokens, services.SearchClientConfig{
		SearchURL: u.server.URL + "/search",
		Tenant:    "test-tenant",
	}, zerolog.Nop())
}

func (u *upstream) completionClient(tokens services.TokenSource, maxTokens int) *services.CompletionClient {
	return services.NewCompletionClient(tokens, services.CompletionClientConfig{
		CompletionsURL: u.server.URL + "/completions",
		MaxTokens:      maxTokens,
	}, zerolog.Nop())
}

func searchBody(t *testing.T, results ...models.SearchResult) string {
	t.Helper()
	b, err := json.Marshal(models.SearchResponse{Data: results, Intent: 1})
	if err != nil {
		t.Fatal(err)
	}
	return string(b)
}

func result(id, title, contentType string, certainty float64, snippet string) models.SearchResult {
	return models.SearchResult{
		ID:       id,
		Metadata: models.SearchMetadata{Certainty: certainty},
		Properties: models.SearchProperties{
			Title:       title,
			ContentType: contentType,
			Authors:     []string{"Author"},
			Snippet:     snippet,
		},
		CollectionName: models.Collection,
	}
}
