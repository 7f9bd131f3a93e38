package routes

import (
	"gloo-search-gateway/internal/api/handlers"
	"gloo-search-gateway/internal/api/middleware"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// SetupRoutes registers middleware, the API routes and the static fallback.
func SetupRoutes(router *gin.Engine, h *handlers.Handlers, logger zerolog.Logger) {
	// Redirects skip middleware and would carry no CORS headers.
	router.RedirectTrailingSlash = false

	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(logger))
	router.Use(middleware.CORS())

	api := router.Group("/api")
	{
		api.GET("/search", h.SearchContent)
		api.POST("/search", h.SearchContent)
		api.POST("/search/rag", h.RAGSearch)
	}

	router.GET("/healthz", h.Health)
	router.GET("/readyz", h.Ready)

	router.NoRoute(h.Static)
}
