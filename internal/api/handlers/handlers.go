package handlers

import (
	"errors"
	"net/http"
	"time"

	"gloo-search-gateway/internal/models"
	"gloo-search-gateway/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const (
	msgQueryParamRequired = "Query parameter 'q' is required"
	msgSearchFailed       = "Search request failed"
	msgRAGFailed          = "RAG request failed"
)

type Handlers struct {
	Search      services.SearchClientInterface
	RAG         services.RAGOrchestratorInterface
	Tokens      services.TokenSource
	FrontendDir string
	Logger      zerolog.Logger
}

func NewHandlers(search services.SearchClientInterface, rag services.RAGOrchestratorInterface, tokens services.TokenSource, frontendDir string, logger zerolog.Logger) *Handlers {
	return &Handlers{
		Search:      search,
		RAG:         rag,
		Tokens:      tokens,
		FrontendDir: frontendDir,
		Logger:      logger,
	}
}

func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, models.HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

// Ready reports whether a token can be obtained from the token endpoint.
func (h *Handlers) Ready(c *gin.Context) {
	if _, err := h.Tokens.EnsureValidToken(c.Request.Context()); err != nil {
		h.Logger.Warn().Err(err).Msg("Token endpoint unavailable")
		c.JSON(http.StatusServiceUnavailable, models.ReadinessResponse{
			Status:       "not_ready",
			Dependencies: map[string]string{"token_endpoint": "unavailable"},
		})
		return
	}

	c.JSON(http.StatusOK, models.ReadinessResponse{
		Status:       "ready",
		Dependencies: map[string]string{"token_endpoint": "ok"},
	})
}

// SearchContent proxies a semantic search. The raw upstream response is
// returned unchanged.
func (h *Handlers) SearchContent(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: msgQueryParamRequired})
		return
	}

	limit := models.NormalizeLimit(c.Query("limit"), models.DefaultSearchLimit)

	resp, err := h.Search.Search(c.Request.Context(), query, limit, services.SortRelevance)
	if err != nil {
		h.Logger.Error().Err(err).Str("query", query).Int("limit", limit).Msg("Search request failed")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: msgSearchFailed})
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *Handlers) RAGSearch(c *gin.Context) {
	var req models.RAGRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Logger.Debug().Err(err).Msg("Invalid RAG request body")
		// A failed decode may leave fields half set.
		req = models.RAGRequest{}
	}

	limit := req.Limit.Int(models.DefaultRAGLimit)

	resp, err := h.RAG.Answer(c.Request.Context(), req.Query, limit, req.SystemPrompt)
	if err != nil {
		var valErr *services.ValidationError
		if errors.As(err, &valErr) {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: valErr.Message})
			return
		}

		h.Logger.Error().Err(err).Str("query", req.Query).Int("limit", limit).Msg("RAG request failed")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: msgRAGFailed})
		return
	}

	c.JSON(http.StatusOK, resp)
}
