package preview

import (
	"strings"

	"github.com/tommyzki/tommyzki-translate/internal/language"
	"github.com/tommyzki/tommyzki-translate/internal/translation"
)

// mergeResult places the user's own text in the field of the source language.
// For Japanese input the romaji from the model is kept.
func mergeResult(result translation.Result, text string) translation.Result {
	text = strings.TrimSpace(text)
	if text == "" {
		return result
	}

	switch result.Source.Code {
	case language.English:
		result.EN = text
	case language.Indonesian:
		result.ID = text
	case language.Japanese:
		result.JA.Kanji = text
	}
	return result
}
