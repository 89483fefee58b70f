// Package langdetect holds local, model-free language detectors restricted to
// the supported languages.
package langdetect

import (
	"context"
	"errors"
	"strings"
	"sync"
	"unicode"

	lingua "github.com/pemistahl/lingua-go"

	"github.com/tommyzki/tommyzki-translate/internal/language"
)

// ErrUndetermined is returned when a detector has no confident answer.
var ErrUndetermined = errors.New("language could not be determined")

const minLetters = 2

// Lingua detects languages with statistical n-gram models.
type Lingua struct {
	once     sync.Once
	detector lingua.LanguageDetector
}

func NewLingua() *Lingua {
	return &Lingua{}
}

func (l *Lingua) Name() string {
	return "lingua"
}

func (l *Lingua) Detect(ctx context.Context, text string) (language.Code, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	sample := strings.TrimSpace(text)
	if countLetters(sample) < minLetters {
		return "", ErrUndetermined
	}

	detected, exists := l.getDetector().DetectLanguageOf(sample)
	if !exists {
		return "", ErrUndetermined
	}

	switch detected {
	case lingua.English:
		return language.English, nil
	case lingua.Indonesian:
		return language.Indonesian, nil
	case lingua.Japanese:
		return language.Japanese, nil
	default:
		return "", ErrUndetermined
	}
}

func (l *Lingua) getDetector() lingua.LanguageDetector {
	l.once.Do(func() {
		l.detector = lingua.NewLanguageDetectorBuilder().
			FromLanguages(lingua.English, lingua.Indonesian, lingua.Japanese).
			WithPreloadedLanguageModels().
			Build()
	})
	return l.detector
}

func countLetters(sample string) int {
	count := 0
	for _, r := range sample {
		if unicode.IsLetter(r) {
			count++
		}
	}
	return count
}
