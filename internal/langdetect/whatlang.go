package langdetect

import (
	"context"
	"strings"

	"github.com/abadojack/whatlanggo"

	"github.com/tommyzki/tommyzki-translate/internal/language"
)

// Han-only text is reported as Mandarin; it is folded into Japanese here.
var whatlangWhitelist = map[whatlanggo.Lang]bool{
	whatlanggo.Eng: true,
	whatlanggo.Ind: true,
	whatlanggo.Jpn: true,
	whatlanggo.Cmn: true,
}

// Whatlang detects languages with trigram profiles and script heuristics.
type Whatlang struct{}

func NewWhatlang() *Whatlang {
	return &Whatlang{}
}

func (w *Whatlang) Name() string {
	return "whatlang"
}

func (w *Whatlang) Detect(ctx context.Context, text string) (language.Code, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	sample := strings.TrimSpace(text)
	if countLetters(sample) < minLetters {
		return "", ErrUndetermined
	}
	if whatlanggo.DetectScript(sample) == nil {
		return "", ErrUndetermined
	}

	info := whatlanggo.DetectWithOptions(sample, whatlanggo.Options{Whitelist: whatlangWhitelist})
	switch info.Lang {
	case whatlanggo.Eng:
		return language.English, nil
	case whatlanggo.Ind:
		return language.Indonesian, nil
	case whatlanggo.Jpn, whatlanggo.Cmn:
		return language.Japanese, nil
	default:
		return "", ErrUndetermined
	}
}
