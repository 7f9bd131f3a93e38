package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"gloo-search-gateway/internal/models"

	"github.com/fatih/color"
)

const snippetPreviewChars = 200

var (
	successColor = color.New(color.FgGreen)
	errorColor   = color.New(color.FgRed)
	warningColor = color.New(color.FgYellow)
	stepColor    = color.New(color.FgCyan)
	headerColor  = color.New(color.FgCyan, color.Bold)
	labelColor   = color.New(color.Bold)
)

func printError(format string, args ...any) {
	errorColor.Fprintln(os.Stderr, "✗ "+fmt.Sprintf(format, args...))
}

func printWarning(format string, args ...any) {
	warningColor.Fprintln(os.Stderr, "⚠ "+fmt.Sprintf(format, args...))
}

func printSuccess(w io.Writer, format string, args ...any) {
	successColor.Fprintln(w, "✓ "+fmt.Sprintf(format, args...))
}

func printStep(w io.Writer, format string, args ...any) {
	stepColor.Fprintln(w, "→ "+fmt.Sprintf(format, args...))
}

func printField(w io.Writer, label, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", labelColor.Sprint(label+":"), fmt.Sprintf(format, args...))
}

func printCredentialsHint() {
	printWarning("GLOO_CLIENT_ID and GLOO_CLIENT_SECRET must be set.")
	fmt.Fprintln(os.Stderr, "Create a .env file with:")
	fmt.Fprintln(os.Stderr, "  GLOO_CLIENT_ID=your_client_id_here")
	fmt.Fprintln(os.Stderr, "  GLOO_CLIENT_SECRET=your_client_secret_here")
	fmt.Fprintln(os.Stderr, "  GLOO_TENANT=your-tenant-name")
}

func printResults(w io.Writer, results []models.SearchResult) {
	if len(results) == 0 {
		fmt.Fprintln(w, "No results found.")
		return
	}

	fmt.Fprintf(w, "Found %d results:\n\n", len(results))
	for i, r := range results {
		headerColor.Fprintf(w, "--- Result %d ---\n", i+1)
		printField(w, "Title", "%s", r.Properties.Title)
		printField(w, "Type", "%s", r.Properties.ContentType)
		printField(w, "Author", "%s", strings.Join(r.Properties.Authors, ", "))
		printField(w, "Relevance Score", "%.4f", r.Metadata.Certainty)
		if r.Properties.Snippet != "" {
			printField(w, "Snippet", "%s...", preview(r.Properties.Snippet, snippetPreviewChars))
		}
		fmt.Fprintln(w)
	}
}

func printFiltered(w io.Writer, results []models.SearchResult) {
	if len(results) == 0 {
		fmt.Fprintln(w, "No results found matching filters.")
		return
	}

	fmt.Fprintf(w, "Found %d results:\n\n", len(results))
	for i, r := range results {
		fmt.Fprintf(w, "%d. %s (%s)\n", i+1, r.Properties.Title, r.Properties.ContentType)
		fmt.Fprintf(w, "   Relevance: %.4f\n", r.Metadata.Certainty)
	}
}

func printRAGResponse(w io.Writer, resp *models.RAGResponse) {
	headerColor.Fprintln(w, "=== Generated Response ===")
	fmt.Fprintln(w, resp.Response)
	fmt.Fprintln(w)
	headerColor.Fprintln(w, "=== Sources Used ===")
	for _, s := range resp.Sources {
		fmt.Fprintf(w, "- %s (%s)\n", s.Title, s.Type)
	}
}

func preview(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
