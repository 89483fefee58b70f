package payloadschema

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed translation_result.schema.json
var translationResultSchemaJSON string

//go:embed detection_result.schema.json
var detectionResultSchemaJSON string

const (
	translationResultSchemaName = "translation_result.schema.json"
	detectionResultSchemaName   = "detection_result.schema.json"
)

// TranslationPayload is the model's answer to a translation prompt.
type TranslationPayload struct {
	Source struct {
		Code string `json:"code"`
		Name string `json:"name"`
	} `json:"source"`
	EN string `json:"en"`
	ID string `json:"id"`
	JA struct {
		Kanji  string `json:"kanji"`
		Romaji string `json:"romaji"`
	} `json:"ja"`
}

// DetectionPayload is the model's answer to a detection prompt.
type DetectionPayload struct {
	Language string `json:"language"`
}

type compiledSchema struct {
	once   sync.Once
	schema *jsonschema.Schema
	err    error
}

var (
	translationSchema compiledSchema
	detectionSchema   compiledSchema
)

// TranslationSchema returns the raw schema, for structured-output requests.
func TranslationSchema() json.RawMessage {
	return json.RawMessage(stripSchemaMeta(translationResultSchemaJSON))
}

// DetectionSchema returns the raw schema, for structured-output requests.
func DetectionSchema() json.RawMessage {
	return json.RawMessage(stripSchemaMeta(detectionResultSchemaJSON))
}

func ValidateTranslationPayload(payload json.RawMessage) (*TranslationPayload, error) {
	var out TranslationPayload
	if err := validateInto(payload, &translationSchema, translationResultSchemaName, translationResultSchemaJSON, &out); err != nil {
		return nil, err
	}

	checks := []struct {
		field string
		value string
	}{
		{field: "source.code", value: out.Source.Code},
		{field: "en", value: out.EN},
		{field: "id", value: out.ID},
		{field: "ja.kanji", value: out.JA.Kanji},
		{field: "ja.romaji", value: out.JA.Romaji},
	}
	for _, check := range checks {
		if strings.TrimSpace(check.value) == "" {
			return nil, fmt.Errorf("%s must not be empty", check.field)
		}
	}

	return &out, nil
}

func ValidateDetectionPayload(payload json.RawMessage) (*DetectionPayload, error) {
	var out DetectionPayload
	if err := validateInto(payload, &detectionSchema, detectionResultSchemaName, detectionResultSchemaJSON, &out); err != nil {
		return nil, err
	}
	if strings.TrimSpace(out.Language) == "" {
		return nil, fmt.Errorf("language must not be empty")
	}
	return &out, nil
}

func validateInto(payload json.RawMessage, compiled *compiledSchema, name, source string, out any) error {
	value, err := decodeStrictJSON(payload)
	if err != nil {
		return fmt.Errorf("decode payload JSON: %w", err)
	}

	schema, err := loadSchema(compiled, name, source)
	if err != nil {
		return fmt.Errorf("load schema: %w", err)
	}

	if err := schema.Validate(value); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}

	normalized, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("normalize payload JSON: %w", err)
	}
	if err := json.Unmarshal(normalized, out); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}
	return nil
}

func loadSchema(compiled *compiledSchema, name, source string) (*jsonschema.Schema, error) {
	compiled.once.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020

		if err := compiler.AddResource(name, strings.NewReader(source)); err != nil {
			compiled.err = fmt.Errorf("add schema resource: %w", err)
			return
		}

		schema, err := compiler.Compile(name)
		if err != nil {
			compiled.err = fmt.Errorf("compile schema: %w", err)
			return
		}

		compiled.schema = schema
	})

	if compiled.err != nil {
		return nil, compiled.err
	}
	if compiled.schema == nil {
		return nil, fmt.Errorf("schema not initialized")
	}
	return compiled.schema, nil
}

func decodeStrictJSON(raw []byte) (any, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("payload is empty")
	}

	decoder := json.NewDecoder(bytes.NewReader(trimmed))
	decoder.UseNumber()

	var value any
	if err := decoder.Decode(&value); err != nil {
		return nil, err
	}

	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return nil, fmt.Errorf("payload contains trailing content")
	}

	return value, nil
}

// stripSchemaMeta drops the $schema/$id keywords that structured-output
// endpoints tend to reject.
func stripSchemaMeta(source string) string {
	var doc map[string]any
	if err := json.Unmarshal([]byte(source), &doc); err != nil {
		return source
	}
	delete(doc, "$schema")
	delete(doc, "$id")
	delete(doc, "title")
	out, err := json.Marshal(doc)
	if err != nil {
		return source
	}
	return string(out)
}
