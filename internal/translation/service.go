// Package translation turns one piece of text into its English, Indonesian
// and Japanese renderings and identifies the language it was written in.
package translation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tommyzki/tommyzki-translate/internal/language"
)

var (
	// ErrEmptyText is returned for blank input.
	ErrEmptyText = errors.New("text is empty")
	// ErrUnsupportedSource is returned when the source language cannot be
	// resolved to a supported code.
	ErrUnsupportedSource = errors.New("source language is not supported")
)

// Translator produces the full trilingual result for one text.
type Translator interface {
	Translate(ctx context.Context, req Request) (*Result, error)
}

// Detector identifies the language of one text.
type Detector interface {
	Detect(ctx context.Context, text string) (language.Code, error)
	Name() string
}

// Request describes one translation. SourceHint may be empty.
type Request struct {
	Text       string
	SourceHint language.Code
}

// Source identifies the language the input was written in.
type Source struct {
	Code language.Code `json:"code"`
	Name string        `json:"name"`
}

// Japanese carries both renderings of the Japanese translation.
type Japanese struct {
	Kanji  string `json:"kanji"`
	Romaji string `json:"romaji"`
}

// Result is one trilingual translation.
type Result struct {
	Source Source   `json:"source"`
	EN     string   `json:"en"`
	ID     string   `json:"id"`
	JA     Japanese `json:"ja"`
}

// Text returns the rendering for code. Japanese resolves to the kanji form.
func (r Result) Text(code language.Code) string {
	switch code {
	case language.English:
		return r.EN
	case language.Indonesian:
		return r.ID
	case language.Japanese:
		return r.JA.Kanji
	default:
		return ""
	}
}

// Validate reports whether every field of r is populated.
func (r Result) Validate() error {
	if !r.Source.Code.Valid() {
		return fmt.Errorf("%w: %q", ErrUnsupportedSource, r.Source.Code)
	}
	fields := []struct {
		name  string
		value string
	}{
		{name: "source.name", value: r.Source.Name},
		{name: "en", value: r.EN},
		{name: "id", value: r.ID},
		{name: "ja.kanji", value: r.JA.Kanji},
		{name: "ja.romaji", value: r.JA.Romaji},
	}
	for _, field := range fields {
		if strings.TrimSpace(field.value) == "" {
			return fmt.Errorf("translation result field %s is empty", field.name)
		}
	}
	return nil
}
