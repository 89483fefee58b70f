package llm

import (
	"net/url"
	"strings"
)

const (
	// DefaultEndpoint is Gemini's OpenAI-compatible surface.
	DefaultEndpoint = "https://generativelanguage.googleapis.com/v1beta/openai"
	// DefaultModel is used when no model is configured.
	DefaultModel = "gemini-2.0-flash"
)

// normalizeBaseURL turns user input such as "localhost:11434/v1/" or a full
// ".../chat/completions" URL into the API base that the other paths hang off.
func normalizeBaseURL(raw string) string {
	endpoint := strings.TrimSpace(raw)
	if endpoint == "" {
		return DefaultEndpoint
	}
	if !strings.Contains(endpoint, "://") {
		endpoint = "http://" + endpoint
	}

	parsed, err := url.Parse(endpoint)
	if err != nil || strings.TrimSpace(parsed.Host) == "" {
		return DefaultEndpoint
	}

	path := strings.TrimRight(parsed.Path, "/")
	path = strings.TrimSuffix(path, "/chat/completions")
	path = strings.TrimSuffix(path, "/models")
	if path == "" {
		path = "/v1"
	}
	parsed.Path = path
	parsed.RawQuery = ""
	parsed.Fragment = ""
	return parsed.String()
}

func chatCompletionsURL(base string) string {
	return base + "/chat/completions"
}

func modelsURL(base string) string {
	return base + "/models"
}
