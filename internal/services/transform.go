package services

import (
	"fmt"
	"slices"
	"strings"

	"gloo-search-gateway/internal/models"
)

// SortOrder selects how search results are ordered.
type SortOrder string

const (
	SortRelevance SortOrder = "relevance"
	SortCertainty SortOrder = "certainty"
)

func ParseSortOrder(s string) (SortOrder, error) {
	switch SortOrder(strings.ToLower(strings.TrimSpace(s))) {
	case "", SortRelevance:
		return SortRelevance, nil
	case SortCertainty:
		return SortCertainty, nil
	}
	return "", fmt.Errorf("unknown sort order %q (want %q or %q)", s, SortRelevance, SortCertainty)
}

// FilterByContentType returns the results whose content type is one of
// types, in their original order. The result is never nil.
func FilterByContentType(results []models.SearchResult, types []string) []models.SearchResult {
	filtered := make([]models.SearchResult, 0, len(results))
	if len(types) == 0 {
		return filtered
	}

	typeSet := make(map[string]struct{}, len(types))
	for _, t := range types {
		typeSet[t] = struct{}{}
	}

	for _, r := range results {
		if _, ok := typeSet[r.Properties.ContentType]; ok {
			filtered = append(filtered, r)
		}
	}

	return filtered
}

// SortByCertainty sorts results in place by descending certainty. Ties keep
// their relative order.
func SortByCertainty(results []models.SearchResult) {
	slices.SortStableFunc(results, func(a, b models.SearchResult) int {
		switch {
		case a.Metadata.Certainty > b.Metadata.Certainty:
			return -1
		case a.Metadata.Certainty < b.Metadata.Certainty:
			return 1
		}
		return 0
	})
}
