package services

import "fmt"

// SearchError is returned when the search endpoint answers with a non-200
// status. Body is the raw upstream body and is meant for server-side logs only.
type SearchError struct {
	StatusCode int
	Body       string
}

func (e *SearchError) Error() string {
	return fmt.Sprintf("search failed with status %d: %s", e.StatusCode, e.Body)
}

// CompletionError is returned when the completions endpoint answers with a
// non-200 status.
type CompletionError struct {
	StatusCode int
	Body       string
}

func (e *CompletionError) Error() string {
	return fmt.Sprintf("completions API failed with status %d: %s", e.StatusCode, e.Body)
}

// ValidationError reports a missing or empty required input. It is always
// detected before any network call.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
