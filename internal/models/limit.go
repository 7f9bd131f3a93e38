package models

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

const (
	MinLimit           = 1
	MaxLimit           = 100
	DefaultSearchLimit = 10
	DefaultRAGLimit    = 5
)

// NormalizeLimit parses value as an integer result limit and clamps it to
// [MinLimit, MaxLimit]. Anything that is not a base-10 integer, including
// "2.5" and "1e3", yields fallback.
func NormalizeLimit(value string, fallback int) int {
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return ClampLimit(parsed)
}

// ClampLimit bounds v to [MinLimit, MaxLimit].
func ClampLimit(v int) int {
	if v < MinLimit {
		return MinLimit
	}
	if v > MaxLimit {
		return MaxLimit
	}
	return v
}

// LimitValue holds the textual form of a JSON limit field. Numbers are kept
// verbatim, strings are unquoted and null or absent values stay empty.
type LimitValue string

func (l *LimitValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*l = ""
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*l = LimitValue(s)
		return nil
	}

	*l = LimitValue(data)
	return nil
}

func (l LimitValue) MarshalJSON() ([]byte, error) {
	if _, err := strconv.Atoi(string(l)); err == nil {
		return []byte(l), nil
	}
	return json.Marshal(string(l))
}

// Int resolves the limit, using fallback when it is missing or not numeric.
func (l LimitValue) Int(fallback int) int {
	if l == "" {
		return fallback
	}
	return NormalizeLimit(string(l), fallback)
}
