package llm

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrNoJSONObject is returned when model content carries no parseable JSON object.
var ErrNoJSONObject = errors.New("model output contains no JSON object")

// ExtractJSONObject pulls the JSON object out of a chat completion, tolerating
// fenced code blocks and prose around the object.
func ExtractJSONObject(content string) (json.RawMessage, error) {
	s := strings.TrimSpace(content)
	if s == "" {
		return nil, ErrNoJSONObject
	}

	if idx := strings.Index(s, "```"); idx >= 0 {
		rest := s[idx+3:]
		rest = strings.TrimPrefix(rest, "json")
		rest = strings.TrimPrefix(rest, "JSON")
		if end := strings.Index(rest, "```"); end >= 0 {
			s = strings.TrimSpace(rest[:end])
		}
	}

	if isJSONObject(s) {
		return json.RawMessage(s), nil
	}

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start >= 0 && end > start {
		inner := s[start : end+1]
		if isJSONObject(inner) {
			return json.RawMessage(inner), nil
		}
	}

	return nil, fmt.Errorf("%w: %s", ErrNoJSONObject, abbreviate(s, 200))
}

func isJSONObject(s string) bool {
	trimmed := bytes.TrimSpace([]byte(s))
	return len(trimmed) > 1 && trimmed[0] == '{' && json.Valid(trimmed)
}

func abbreviate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 3 {
		return string(runes[:n])
	}
	return string(runes[:n-3]) + "..."
}
