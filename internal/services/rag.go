package services

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"gloo-search-gateway/internal/models"

	"github.com/rs/zerolog"
)

const (
	DefaultSystemPrompt = "You are a helpful assistant. Answer the user's question based on the " +
		"provided context. If the context doesn't contain relevant information, " +
		"say so honestly."

	// NoResultsResponse is returned instead of calling the completion API
	// when the search finds nothing.
	NoResultsResponse = "No relevant content found."

	DefaultMaxSnippets        = 5
	DefaultMaxCharsPerSnippet = 350

	contextSeparator = "\n---\n"
)

// Stage is a step of the RAG flow.
type Stage string

const (
	StageSearching  Stage = "searching"
	StageExtracting Stage = "extracting"
	StageGenerating Stage = "generating"
	StageDone       Stage = "done"
)

type RAGOptions struct {
	MaxSnippets        int
	MaxCharsPerSnippet int

	// OnStage, when set, is called on entry to each stage with the number of
	// items carried into it (results for extracting, snippets for generating).
	OnStage func(stage Stage, count int)
}

// RAGOrchestrator runs search, snippet extraction and generation in sequence.
type RAGOrchestrator struct {
	search             SearchClientInterface
	completion         CompletionClientInterface
	maxSnippets        int
	maxCharsPerSnippet int
	onStage            func(Stage, int)
	logger             zerolog.Logger
}

func NewRAGOrchestrator(search SearchClientInterface, completion CompletionClientInterface, opts RAGOptions, logger zerolog.Logger) *RAGOrchestrator {
	if opts.MaxSnippets <= 0 {
		opts.MaxSnippets = DefaultMaxSnippets
	}
	if opts.MaxCharsPerSnippet <= 0 {
		opts.MaxCharsPerSnippet = DefaultMaxCharsPerSnippet
	}

	return &RAGOrchestrator{
		search:             search,
		completion:         completion,
		maxSnippets:        opts.MaxSnippets,
		maxCharsPerSnippet: opts.MaxCharsPerSnippet,
		onStage:            opts.OnStage,
		logger:             logger.With().Str("component", "rag").Logger(),
	}
}

// Answer runs the full flow for query. limit is clamped to [1,100] and the
// number of snippets put into the prompt never exceeds the configured maximum.
func (o *RAGOrchestrator) Answer(ctx context.Context, query string, limit int, systemPrompt string) (*models.RAGResponse, error) {
	if query == "" {
		return nil, &ValidationError{Field: "query", Message: "Field 'query' is required"}
	}
	limit = models.ClampLimit(limit)

	o.enter(StageSearching, limit)
	results, err := o.search.Search(ctx, query, limit, SortRelevance)
	if err != nil {
		return nil, fmt.Errorf("rag search: %w", err)
	}

	if len(results.Data) == 0 {
		o.enter(StageDone, 0)
		return &models.RAGResponse{
			Response: NoResultsResponse,
			Sources:  []models.SourceInfo{},
		}, nil
	}

	o.enter(StageExtracting, len(results.Data))
	snippets := ExtractSnippets(results.Data, min(limit, o.maxSnippets), o.maxCharsPerSnippet)
	llmContext := FormatContextForLLM(snippets)

	o.enter(StageGenerating, len(snippets))
	text, err := o.GenerateWithContext(ctx, query, llmContext, systemPrompt)
	if err != nil {
		return nil, fmt.Errorf("rag generation: %w", err)
	}

	sources := make([]models.SourceInfo, len(snippets))
	for i, s := range snippets {
		sources[i] = models.SourceInfo{Title: s.Title, Type: s.ContentType}
	}

	o.enter(StageDone, len(sources))
	return &models.RAGResponse{
		Response: text,
		Sources:  sources,
	}, nil
}

// GenerateWithContext asks the completion API to answer query from
// llmContext. An empty systemPrompt selects DefaultSystemPrompt.
func (o *RAGOrchestrator) GenerateWithContext(ctx context.Context, query, llmContext, systemPrompt string) (string, error) {
	return o.completion.Complete(ctx, BuildMessages(query, llmContext, systemPrompt))
}

func (o *RAGOrchestrator) enter(stage Stage, count int) {
	o.logger.Debug().Str("stage", string(stage)).Int("count", count).Msg("RAG stage")
	if o.onStage != nil {
		o.onStage(stage, count)
	}
}

// BuildMessages returns the system and user messages sent for generation.
func BuildMessages(query, llmContext, systemPrompt string) []models.CompletionMessage {
	if systemPrompt == "" {
		systemPrompt = DefaultSystemPrompt
	}

	return []models.CompletionMessage{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: fmt.Sprintf("Context:\n%s\n\nQuestion: %s", llmContext, query)},
	}
}

// ExtractSnippets takes the first maxSnippets results in order and truncates
// each snippet to maxCharsPerSnippet characters.
func ExtractSnippets(results []models.SearchResult, maxSnippets, maxCharsPerSnippet int) []models.Snippet {
	n := min(len(results), max(maxSnippets, 0))
	snippets := make([]models.Snippet, 0, n)

	for _, r := range results[:n] {
		snippets = append(snippets, models.Snippet{
			Text:        truncateChars(r.Properties.Snippet, maxCharsPerSnippet),
			Title:       r.Properties.Title,
			ContentType: r.Properties.ContentType,
			Relevance:   r.Metadata.Certainty,
		})
	}

	return snippets
}

// FormatContextForLLM renders snippets as numbered source blocks separated by
// a "---" line. No snippets yields "".
func FormatContextForLLM(snippets []models.Snippet) string {
	parts := make([]string, len(snippets))
	for i, s := range snippets {
		parts[i] = fmt.Sprintf("[Source %d: %s (%s)]\n%s\n", i+1, s.Title, s.ContentType, s.Text)
	}
	return strings.Join(parts, contextSeparator)
}

func truncateChars(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= limit {
		return s
	}

	count := 0
	for i := range s {
		if count == limit {
			return s[:i]
		}
		count++
	}
	return s
}
