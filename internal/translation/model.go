package translation

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/tommyzki/tommyzki-translate/internal/language"
	"github.com/tommyzki/tommyzki-translate/internal/llm"
	payloadschema "github.com/tommyzki/tommyzki-translate/internal/translation/schema"
)

// ModelDetectorName is the registry name of the model-backed detector.
const ModelDetectorName = "model"

// Completer is the part of llm.Client the model provider needs.
type Completer interface {
	Complete(ctx context.Context, req llm.Request) (*llm.Response, error)
}

// ModelProvider translates and detects languages with one chat model.
type ModelProvider struct {
	client Completer
	logger zerolog.Logger
}

func NewModelProvider(client Completer, logger zerolog.Logger) *ModelProvider {
	return &ModelProvider{
		client: client,
		logger: logger.With().Str("component", "model_provider").Logger(),
	}
}

func (p *ModelProvider) Name() string {
	return ModelDetectorName
}

// Translate asks the model for all three renderings of req.Text.
//
// The reported source code is normalized. When it falls outside the supported
// set the hint is used instead; without a hint the result is rejected.
func (p *ModelProvider) Translate(ctx context.Context, req Request) (*Result, error) {
	if p == nil || p.client == nil {
		return nil, fmt.Errorf("model provider is not initialized")
	}
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, ErrEmptyText
	}
	hint := req.SourceHint
	if hint != "" && !hint.Valid() {
		hint = ""
	}

	userPrompt, err := renderPrompt("translate.tmpl", text, hint)
	if err != nil {
		return nil, err
	}

	resp, err := p.client.Complete(ctx, llm.Request{
		System: systemPrompt,
		User:   userPrompt,
		Schema: &llm.Schema{Name: "translation_result", Definition: payloadschema.TranslationSchema()},
	})
	if err != nil {
		return nil, fmt.Errorf("translate: %w", err)
	}

	raw, err := llm.ExtractJSONObject(resp.Content)
	if err != nil {
		return nil, fmt.Errorf("parse translation output: %w", err)
	}
	payload, err := payloadschema.ValidateTranslationPayload(raw)
	if err != nil {
		return nil, fmt.Errorf("validate translation output: %w", err)
	}

	source, ok := language.Parse(payload.Source.Code)
	if !ok {
		if hint == "" {
			return nil, fmt.Errorf("%w: model reported %q", ErrUnsupportedSource, payload.Source.Code)
		}
		p.logger.Warn().
			Str("reported", payload.Source.Code).
			Str("hint", hint.String()).
			Msg("model reported unsupported source language, using hint")
		source = hint
	}

	p.logger.Debug().
		Str("model", resp.Model).
		Bool("structured", resp.Structured).
		Dur("latency", resp.Latency).
		Str("source", source.String()).
		Msg("translation completed")

	return &Result{
		Source: Source{Code: source, Name: source.Name()},
		EN:     strings.TrimSpace(payload.EN),
		ID:     strings.TrimSpace(payload.ID),
		JA: Japanese{
			Kanji:  strings.TrimSpace(payload.JA.Kanji),
			Romaji: strings.TrimSpace(payload.JA.Romaji),
		},
	}, nil
}

// Detect asks the model which supported language text is written in. Answers
// outside the supported set fall back to language.Default.
func (p *ModelProvider) Detect(ctx context.Context, text string) (language.Code, error) {
	if p == nil || p.client == nil {
		return "", fmt.Errorf("model provider is not initialized")
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyText
	}

	userPrompt, err := renderPrompt("detect.tmpl", text, "")
	if err != nil {
		return "", err
	}

	resp, err := p.client.Complete(ctx, llm.Request{
		System: systemPrompt,
		User:   userPrompt,
		Schema: &llm.Schema{Name: "detection_result", Definition: payloadschema.DetectionSchema()},
	})
	if err != nil {
		return "", fmt.Errorf("detect language: %w", err)
	}

	raw, err := llm.ExtractJSONObject(resp.Content)
	if err != nil {
		return "", fmt.Errorf("parse detection output: %w", err)
	}
	payload, err := payloadschema.ValidateDetectionPayload(raw)
	if err != nil {
		return "", fmt.Errorf("validate detection output: %w", err)
	}

	code, ok := language.Parse(payload.Language)
	if !ok {
		p.logger.Warn().
			Str("reported", payload.Language).
			Str("fallback", language.Default.String()).
			Msg("detected language is not supported, using default")
		return language.Default, nil
	}
	return code, nil
}
