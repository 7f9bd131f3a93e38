package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"gloo-search-gateway/internal/models"

	"github.com/gin-gonic/gin"
)

const indexFile = "index.html"

// NotFoundError is returned when a request path does not resolve to a file
// inside the frontend directory.
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("static asset not found: %s", e.Path)
}

// Static serves the frontend for every path without an API route.
func (h *Handlers) Static(c *gin.Context) {
	if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "Not found"})
		return
	}

	file, err := ResolveStaticPath(h.FrontendDir, c.Request.URL.Path)
	if err != nil {
		h.Logger.Debug().Err(err).Msg("Static lookup failed")
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "Not found"})
		return
	}

	f, err := os.Open(file)
	if err != nil {
		h.Logger.Debug().Err(err).Str("file", file).Msg("Static open failed")
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "Not found"})
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "Not found"})
		return
	}

	http.ServeContent(c.Writer, c.Request, info.Name(), info.ModTime(), f)
}

// ResolveStaticPath maps a URL path to a regular file under root. "/" and
// directories resolve to their index.html. Paths escaping root are rejected.
func ResolveStaticPath(root, urlPath string) (string, error) {
	if root == "" {
		return "", &NotFoundError{Path: urlPath}
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolve frontend dir: %w", err)
	}

	cleaned := path.Clean("/" + urlPath)
	candidate := filepath.Join(absRoot, filepath.FromSlash(strings.TrimPrefix(cleaned, "/")))

	rel, err := filepath.Rel(absRoot, candidate)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", &NotFoundError{Path: urlPath}
	}

	info, err := os.Stat(candidate)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", &NotFoundError{Path: urlPath}
		}
		return "", err
	}

	if info.IsDir() {
		candidate = filepath.Join(candidate, indexFile)
		info, err = os.Stat(candidate)
		if err != nil || info.IsDir() {
			return "", &NotFoundError{Path: urlPath}
		}
	}

	if !info.Mode().IsRegular() {
		return "", &NotFoundError{Path: urlPath}
	}

	return candidate, nil
}
