// Package llm talks to OpenAI-compatible chat completion endpoints
// (Gemini's OpenAI surface, Ollama, vLLM, OpenRouter).
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/tommyzki/tommyzki-translate/internal/globaltime"
)

const defaultTimeout = 60 * time.Second

// Options configures a Client.
type Options struct {
	Endpoint    string
	Model       string
	APIKey      string
	Timeout     time.Duration
	Temperature float64
}

// Schema asks the endpoint for structured output matching Definition.
type Schema struct {
	Name       string
	Definition json.RawMessage
}

// Request is one system+user exchange.
type Request struct {
	System string
	User   string
	Schema *Schema
}

// Response is the first choice of a completion.
type Response struct {
	Content    string
	Model      string
	Structured bool
	Latency    time.Duration
}

// StatusError is a non-2xx answer from the endpoint.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("model endpoint status %d: %s", e.Code, e.Message)
}

// Client calls one model on one endpoint.
type Client struct {
	baseURL     string
	model       string
	temperature float64
	http        *resty.Client
}

func NewClient(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = DefaultModel
	}

	httpClient := resty.New().
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	if key := strings.TrimSpace(opts.APIKey); key != "" {
		httpClient.SetAuthToken(key)
	}

	return &Client{
		baseURL:     normalizeBaseURL(opts.Endpoint),
		model:       model,
		temperature: opts.Temperature,
		http:        httpClient,
	}
}

// ModelName returns the configured model identifier.
func (c *Client) ModelName() string {
	if c == nil {
		return ""
	}
	return c.model
}

// BaseURL returns the normalized API base.
func (c *Client) BaseURL() string {
	if c == nil {
		return ""
	}
	return c.baseURL
}

// Complete runs one chat completion. When req.Schema is set the endpoint is asked
// for strict json_schema output first and, if it rejects that with 400, for a
// plain json_object.
func (c *Client) Complete(ctx context.Context, req Request) (*Response, error) {
	if c == nil || c.http == nil {
		return nil, fmt.Errorf("model client is not initialized")
	}
	if strings.TrimSpace(req.User) == "" {
		return nil, fmt.Errorf("user prompt is required")
	}

	messages := make([]chatMessage, 0, 2)
	if system := strings.TrimSpace(req.System); system != "" {
		messages = append(messages, chatMessage{Role: "system", Content: system})
	}
	messages = append(messages, chatMessage{Role: "user", Content: req.User})

	body := chatRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: c.temperature,
	}
	structured := false
	if req.Schema != nil && len(req.Schema.Definition) > 0 {
		body.ResponseFormat = &responseFormat{
			Type: "json_schema",
			JSONSchema: &jsonSchemaFormat{
				Name:   req.Schema.Name,
				Strict: true,
				Schema: req.Schema.Definition,
			},
		}
		structured = true
	}

	started := globaltime.Now()
	parsed, err := c.postChat(ctx, body)
	var statusErr *StatusError
	if err != nil && structured && errors.As(err, &statusErr) && statusErr.Code == http.StatusBadRequest {
		body.ResponseFormat = &responseFormat{Type: "json_object"}
		structured = false
		parsed, err = c.postChat(ctx, body)
	}
	if err != nil {
		return nil, err
	}

	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("model response missing choices")
	}
	content := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if content == "" {
		return nil, fmt.Errorf("model response was empty")
	}

	model := strings.TrimSpace(parsed.Model)
	if model == "" {
		model = c.model
	}
	return &Response{
		Content:    content,
		Model:      model,
		Structured: structured,
		Latency:    globaltime.Since(started),
	}, nil
}

// ListModels returns the model identifiers the endpoint advertises.
func (c *Client) ListModels(ctx context.Context) ([]string, error) {
	if c == nil || c.http == nil {
		return nil, fmt.Errorf("model client is not initialized")
	}

	var (
		result   modelsResponse
		errorOut chatErrorResponse
	)
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&result).
		SetError(&errorOut).
		Get(modelsURL(c.baseURL))
	if err != nil {
		return nil, fmt.Errorf("list models: %w", err)
	}
	if resp.IsError() {
		return nil, statusError(resp, errorOut)
	}

	names := make([]string, 0, len(result.Data))
	for _, m := range result.Data {
		if id := strings.TrimSpace(m.ID); id != "" {
			names = append(names, id)
		}
	}
	return names, nil
}

func (c *Client) postChat(ctx context.Context, body chatRequest) (*chatResponse, error) {
	var (
		result   chatResponse
		errorOut chatErrorResponse
	)
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&result).
		SetError(&errorOut).
		Post(chatCompletionsURL(c.baseURL))
	if err != nil {
		return nil, fmt.Errorf("send chat completion: %w", err)
	}
	if resp.IsError() {
		return nil, statusError(resp, errorOut)
	}
	return &result, nil
}

func statusError(resp *resty.Response, payload chatErrorResponse) error {
	msg := strings.TrimSpace(payload.Error.Message)
	if msg == "" {
		msg = abbreviate(strings.TrimSpace(resp.String()), 500)
	}
	if msg == "" {
		msg = resp.Status()
	}
	return &StatusError{Code: resp.StatusCode(), Message: msg}
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    float64         `json:"temperature"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type       string            `json:"type"`
	JSONSchema *jsonSchemaFormat `json:"json_schema,omitempty"`
}

type jsonSchemaFormat struct {
	Name   string          `json:"name"`
	Strict bool            `json:"strict"`
	Schema json.RawMessage `json:"schema"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type chatErrorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

type modelsResponse struct {
	Data []struct {
		ID string `json:"id"`
	} `json:"data"`
}
