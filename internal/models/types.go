package models

// Collection is the fixed content collection queried by the search API.
const Collection = "GlooProd"

// DefaultCertainty is the minimum certainty sent with every search.
const DefaultCertainty = 0.5

// TokenResponse is the OAuth2 token endpoint reply. ExpiresIn is a pointer so
// that a missing field can be told apart from zero.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   *int64 `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

type SearchRequest struct {
	Query      string  `json:"query"`
	Collection string  `json:"collection"`
	Tenant     string  `json:"tenant"`
	Limit      int     `json:"limit"`
	Certainty  float64 `json:"certainty"`
}

type SearchMetadata struct {
	Distance  float64 `json:"distance"`
	Certainty float64 `json:"certainty"`
	Score     float64 `json:"score"`
}

type SearchProperties struct {
	Title       string   `json:"item_title"`
	ContentType string   `json:"type"`
	Authors     []string `json:"author"`
	Snippet     string   `json:"snippet"`
}

type SearchResult struct {
	ID             string           `json:"uuid"`
	Metadata       SearchMetadata   `json:"metadata"`
	Properties     SearchProperties `json:"properties"`
	CollectionName string           `json:"collection"`
}

type SearchResponse struct {
	Data   []SearchResult `json:"data"`
	Intent int            `json:"intent"`
}

type CompletionMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type CompletionRequest struct {
	Messages    []CompletionMessage `json:"messages"`
	AutoRouting bool                `json:"auto_routing"`
	MaxTokens   int                 `json:"max_tokens"`
}

type CompletionChoice struct {
	Message CompletionMessage `json:"message"`
}

type CompletionResponse struct {
	Choices []CompletionChoice `json:"choices"`
}

// Snippet is a bounded excerpt of a search result prepared for an LLM prompt.
type Snippet struct {
	Text        string
	Title       string
	ContentType string
	Relevance   float64
}

// RAGRequest is the body of POST /api/search/rag. Limit is kept raw so that
// numbers, numeric strings and garbage can all be normalized the same way.
type RAGRequest struct {
	Query        string     `json:"query"`
	Limit        LimitValue `json:"limit,omitempty"`
	SystemPrompt string     `json:"systemPrompt,omitempty"`
}

type SourceInfo struct {
	Title string `json:"title"`
	Type  string `json:"type"`
}

type RAGResponse struct {
	Response string       `json:"response"`
	Sources  []SourceInfo `json:"sources"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

type ReadinessResponse struct {
	Status       string            `json:"status"`
	Dependencies map[string]string `json:"dependencies"`
}
