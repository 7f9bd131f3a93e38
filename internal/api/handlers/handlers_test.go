package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"gloo-search-gateway/internal/api/handlers"
	"gloo-search-gateway/internal/models"
	"gloo-search-gateway/internal/services"
	"gloo-search-gateway/internal/services/mocks"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func setupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func newTestHandlers() (*handlers.Handlers, *mocks.MockSearchClient, *mocks.MockRAGOrchestrator, *mocks.MockTokenSource) {
	search := mocks.NewMockSearchClient()
	rag := mocks.NewMockRAGOrchestrator()
	tokens := mocks.NewMockTokenSource()
	return handlers.NewHandlers(search, rag, tokens, "", zerolog.Nop()), search, rag, tokens
}

func decodeError(t *testing.T, body []byte) string {
	t.Helper()
	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	return resp.Error
}

func TestHealthHandler(t *testing.T) {
	t.Run("Health_Success", func(t *testing.T) {
		h, _, _, _ := newTestHandlers()

		router := setupTestRouter()
		router.GET("/healthz", h.Health)

		req, _ := http.NewRequest("GET", "/healthz", nil)
		resp := httptest.NewRecorder()

		router.ServeHTTP(resp, req)

		assert.Equal(t, http.StatusOK, resp.Code)

		var response models.HealthResponse
		err := json.Unmarshal(resp.Body.Bytes(), &response)
		assert.NoError(t, err)
		assert.Equal(t, "healthy", response.Status)
		assert.NotEmpty(t, response.Timestamp)
	})
}

func TestReadyHandler(t *testing.T) {
	t.Run("Ready_Success", func(t *testing.T) {
		h, _, _, tokens := newTestHandlers()
		tokens.On("EnsureValidToken", mock.Anything).Return("token", nil)

		router := setupTestRouter()
		router.GET("/readyz", h.Ready)

		req, _ := http.NewRequest("GET", "/readyz", nil)
		resp := httptest.NewRecorder()

		router.ServeHTTP(resp, req)

		assert.Equal(t, http.StatusOK, resp.Code)

		var response models.ReadinessResponse
		err := json.Unmarshal(resp.Body.Bytes(), &response)
		assert.NoError(t, err)
		assert.Equal(t, "ready", response.Status)
		assert.Equal(t, "ok", response.Dependencies["token_endpoint"])
		tokens.AssertExpectations(t)
	})

	t.Run("Ready_TokenEndpointUnavailable", func(t *testing.T) {
		h, _, _, tokens := newTestHandlers()
		tokens.On("EnsureValidToken", mock.Anything).Return("", fmt.Errorf("secret-detail: %w", assert.AnError))

		router := setupTestRouter()
		router.GET("/readyz", h.Ready)

		req, _ := http.NewRequest("GET", "/readyz", nil)
		resp := httptest.NewRecorder()

		router.ServeHTTP(resp, req)

		assert.Equal(t, http.StatusServiceUnavailable, resp.Code)
		assert.NotContains(t, resp.Body.String(), "secret-detail")

		var response models.ReadinessResponse
		err := json.Unmarshal(resp.Body.Bytes(), &response)
		assert.NoError(t, err)
		assert.Equal(t, "not_ready", response.Status)
		assert.Equal(t, "unavailable", response.Dependencies["token_endpoint"])
		tokens.AssertExpectations(t)
	})
}

func TestSearchHandler(t *testing.T) {
	t.Run("Search_MissingQuery", func(t *testing.T) {
		h, search, _, _ := newTestHandlers()

		router := setupTestRouter()
		router.POST("/api/search", h.SearchContent)

		req, _ := http.NewRequest("POST", "/api/search", nil)
		resp := httptest.NewRecorder()

		router.ServeHTTP(resp, req)

		assert.Equal(t, http.StatusBadRequest, resp.Code)
		assert.JSONEq(t, `{"error":"Query parameter 'q' is required"}`, resp.Body.String())
		search.AssertNotCalled(t, "Search", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Search_EmptyQuery", func(t *testing.T) {
		h, _, _, _ := newTestHandlers()

		router := setupTestRouter()
		router.GET("/api/search", h.SearchContent)

		req, _ := http.NewRequest("GET", "/api/search?q=", nil)
		resp := httptest.NewRecorder()

		router.ServeHTTP(resp, req)

		assert.Equal(t, http.StatusBadRequest, resp.Code)
		assert.Equal(t, "Query parameter 'q' is required", decodeError(t, resp.Body.Bytes()))
	})

	t.Run("Search_Success", func(t *testing.T) {
		h, search, _, _ := newTestHandlers()
		upstream := &models.SearchResponse{
			Data: []models.SearchResult{{
				ID:       "abc",
				Metadata: models.SearchMetadata{Certainty: 0.87},
				Properties: models.SearchProperties{
					Title:       "Finding Purpose",
					ContentType: "Article",
					Authors:     []string{"Jane"},
					Snippet:     "Purpose is...",
				},
				CollectionName: "GlooProd",
			}},
			Intent: 2,
		}
		search.On("Search", mock.Anything, "purpose", 5, services.SortRelevance).Return(upstream, nil)

		router := setupTestRouter()
		router.GET("/api/search", h.SearchContent)

		req, _ := http.NewRequest("GET", "/api/search?q=purpose&limit=5", nil)
		resp := httptest.NewRecorder()

		router.ServeHTTP(resp, req)

		assert.Equal(t, http.StatusOK, resp.Code)
		assert.JSONEq(t, `{
			"data": [{
				"uuid": "abc",
				"metadata": {"distance": 0, "certainty": 0.87, "score": 0},
				"properties": {"item_title": "Finding Purpose", "type": "Article", "author": ["Jane"], "snippet": "Purpose is..."},
				"collection": "GlooProd"
			}],
			"intent": 2
		}`, resp.Body.String())
		search.AssertExpectations(t)
	})

	t.Run("Search_LimitNormalized", func(t *testing.T) {
		tests := []struct {
			name  string
			limit string
			want  int
		}{
			{"Default", "", 10},
			{"NonNumeric", "many", 10},
			{"TooHigh", "250", 100},
			{"TooLow", "0", 1},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				h, search, _, _ := newTestHandlers()
				search.On("Search", mock.Anything, "q", tt.want, services.SortRelevance).
					Return(&models.SearchResponse{Data: []models.SearchResult{}}, nil)

				router := setupTestRouter()
				router.GET("/api/search", h.SearchContent)

				req, _ := http.NewRequest("GET", "/api/search?q=q&limit="+tt.limit, nil)
				resp := httptest.NewRecorder()

				router.ServeHTTP(resp, req)

				assert.Equal(t, http.StatusOK, resp.Code)
				search.AssertExpectations(t)
			})
		}
	})

	t.Run("Search_UpstreamFailureIsGeneric", func(t *testing.T) {
		h, search, _, _ := newTestHandlers()
		search.On("Search", mock.Anything, "q", 10, services.SortRelevance).
			Return(nil, &services.SearchError{StatusCode: 401, Body: "token abc123 rejected"})

		router := setupTestRouter()
		router.GET("/api/search", h.SearchContent)

		req, _ := http.NewRequest("GET", "/api/search?q=q", nil)
		resp := httptest.NewRecorder()

		router.ServeHTTP(resp, req)

		assert.Equal(t, http.StatusInternalServerError, resp.Code)
		assert.JSONEq(t, `{"error":"Search request failed"}`, resp.Body.String())
		assert.NotContains(t, resp.Body.String(), "abc123")
	})
}

func TestRAGHandler(t *testing.T) {
	post := func(router *gin.Engine, body string) *httptest.ResponseRecorder {
		req, _ := http.NewRequest("POST", "/api/search/rag", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		return resp
	}

	t.Run("RAG_Success", func(t *testing.T) {
		h, _, rag, _ := newTestHandlers()
		rag.On("Answer", mock.Anything, "What is hope?", 3, "Be brief.").Return(&models.RAGResponse{
			Response: "Hope is...",
			Sources:  []models.SourceInfo{{Title: "On Hope", Type: "Article"}},
		}, nil)

		router := setupTestRouter()
		router.POST("/api/search/rag", h.RAGSearch)

		resp := post(router, `{"query":"What is hope?","limit":3,"systemPrompt":"Be brief."}`)

		assert.Equal(t, http.StatusOK, resp.Code)
		assert.JSONEq(t, `{"response":"Hope is...","sources":[{"title":"On Hope","type":"Article"}]}`, resp.Body.String())
		rag.AssertExpectations(t)
	})

	t.Run("RAG_NoResults", func(t *testing.T) {
		h, _, rag, _ := newTestHandlers()
		rag.On("Answer", mock.Anything, "What is X?", 5, "").Return(&models.RAGResponse{
			Response: services.NoResultsResponse,
			Sources:  []models.SourceInfo{},
		}, nil)

		router := setupTestRouter()
		router.POST("/api/search/rag", h.RAGSearch)

		resp := post(router, `{"query":"What is X?"}`)

		assert.Equal(t, http.StatusOK, resp.Code)
		assert.JSONEq(t, `{"response":"No relevant content found.","sources":[]}`, resp.Body.String())
	})

	t.Run("RAG_LimitForms", func(t *testing.T) {
		tests := []struct {
			name string
			body string
			want int
		}{
			{"StringLimit", `{"query":"q","limit":"8"}`, 8},
			{"GarbageLimit", `{"query":"q","limit":"lots"}`, 5},
			{"NullLimit", `{"query":"q","limit":null}`, 5},
			{"HugeLimit", `{"query":"q","limit":5000}`, 100},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				h, _, rag, _ := newTestHandlers()
				rag.On("Answer", mock.Anything, "q", tt.want, "").
					Return(&models.RAGResponse{Response: "ok", Sources: []models.SourceInfo{}}, nil)

				router := setupTestRouter()
				router.POST("/api/search/rag", h.RAGSearch)

				resp := post(router, tt.body)

				assert.Equal(t, http.StatusOK, resp.Code)
				rag.AssertExpectations(t)
			})
		}
	})

	t.Run("RAG_ValidationError", func(t *testing.T) {
		h, _, rag, _ := newTestHandlers()
		rag.On("Answer", mock.Anything, "", 5, "").
			Return(nil, &services.ValidationError{Field: "query", Message: "Field 'query' is required"})

		router := setupTestRouter()
		router.POST("/api/search/rag", h.RAGSearch)

		resp := post(router, `{"limit":5}`)

		assert.Equal(t, http.StatusBadRequest, resp.Code)
		assert.JSONEq(t, `{"error":"Field 'query' is required"}`, resp.Body.String())
	})

	t.Run("RAG_MalformedBody", func(t *testing.T) {
		h, _, rag, _ := newTestHandlers()
		rag.On("Answer", mock.Anything, "", 5, "").
			Return(nil, &services.ValidationError{Field: "query", Message: "Field 'query' is required"})

		router := setupTestRouter()
		router.POST("/api/search/rag", h.RAGSearch)

		resp := post(router, `not json`)

		assert.Equal(t, http.StatusBadRequest, resp.Code)
		assert.Equal(t, "Field 'query' is required", decodeError(t, resp.Body.Bytes()))
	})

	t.Run("RAG_WrongTypedFieldIsRejected", func(t *testing.T) {
		h, _, rag, _ := newTestHandlers()
		rag.On("Answer", mock.Anything, "", 5, "").
			Return(nil, &services.ValidationError{Field: "query", Message: "Field 'query' is required"})

		router := setupTestRouter()
		router.POST("/api/search/rag", h.RAGSearch)

		resp := post(router, `{"query":"x","systemPrompt":5}`)

		assert.Equal(t, http.StatusBadRequest, resp.Code)
		assert.JSONEq(t, `{"error":"Field 'query' is required"}`, resp.Body.String())
		rag.AssertNotCalled(t, "Answer", mock.Anything, "x", mock.Anything, mock.Anything)
		rag.AssertExpectations(t)
	})

	t.Run("RAG_DownstreamFailureIsGeneric", func(t *testing.T) {
		h, _, rag, _ := newTestHandlers()
		rag.On("Answer", mock.Anything, "q", 5, "").
			Return(nil, fmt.Errorf("rag generation: %w", &services.CompletionError{StatusCode: 500, Body: "internal trace"}))

		router := setupTestRouter()
		router.POST("/api/search/rag", h.RAGSearch)

		resp := post(router, `{"query":"q"}`)

		assert.Equal(t, http.StatusInternalServerError, resp.Code)
		assert.JSONEq(t, `{"error":"RAG request failed"}`, resp.Body.String())
		assert.NotContains(t, resp.Body.String(), "internal trace")
	})
}

func TestStaticHandler(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "index.html"), []byte("<h1>home</h1>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "app.js"), []byte("console.log(1)"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(root, "docs"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "docs", "index.html"), []byte("docs"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(root, "empty"), 0o755))

	outside := filepath.Join(filepath.Dir(root), "outside-"+filepath.Base(root)+".txt")
	require.NoError(t, os.WriteFile(outside, []byte("secret"), 0o644))
	t.Cleanup(func() { os.Remove(outside) })

	h := handlers.NewHandlers(nil, nil, nil, root, zerolog.Nop())
	router := setupTestRouter()
	router.NoRoute(h.Static)

	get := func(path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest("GET", "/", nil)
		req.URL.Path = path
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		return resp
	}

	t.Run("Static_RootServesIndex", func(t *testing.T) {
		resp := get("/")
		assert.Equal(t, http.StatusOK, resp.Code)
		assert.Equal(t, "<h1>home</h1>", resp.Body.String())
		assert.Contains(t, resp.Header().Get("Content-Type"), "text/html")
	})

	t.Run("Static_File", func(t *testing.T) {
		resp := get("/app.js")
		assert.Equal(t, http.StatusOK, resp.Code)
		assert.Equal(t, "console.log(1)", resp.Body.String())
	})

	t.Run("Static_DirectoryIndex", func(t *testing.T) {
		resp := get("/docs/")
		assert.Equal(t, http.StatusOK, resp.Code)
		assert.Equal(t, "docs", resp.Body.String())
	})

	t.Run("Static_Unknown", func(t *testing.T) {
		resp := get("/missing.css")
		assert.Equal(t, http.StatusNotFound, resp.Code)
		assert.JSONEq(t, `{"error":"Not found"}`, resp.Body.String())
	})

	t.Run("Static_DirectoryWithoutIndex", func(t *testing.T) {
		assert.Equal(t, http.StatusNotFound, get("/empty").Code)
	})

	t.Run("Static_Traversal", func(t *testing.T) {
		resp := get("/../" + filepath.Base(outside))
		assert.Equal(t, http.StatusNotFound, resp.Code)
		assert.NotContains(t, resp.Body.String(), "secret")
	})
}

func TestResolveStaticPath(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "index.html"), []byte("x"), 0o644))

	tests := []struct {
		name    string
		urlPath string
		want    string
		wantErr bool
	}{
		{"Root", "/", filepath.Join(root, "index.html"), false},
		{"Explicit", "/index.html", filepath.Join(root, "index.html"), false},
		{"DotDot", "/../../etc/passwd", "", true},
		{"EncodedStyleDotDot", "/a/../../index.html", filepath.Join(root, "index.html"), false},
		{"Missing", "/nope", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := handlers.ResolveStaticPath(root, tt.urlPath)
			if tt.wantErr {
				var notFound *handlers.NotFoundError
				assert.ErrorAs(t, err, &notFound)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("NoRoot", func(t *testing.T) {
		_, err := handlers.ResolveStaticPath("", "/")
		var notFound *handlers.NotFoundError
		assert.ErrorAs(t, err, &notFound)
	})
}
