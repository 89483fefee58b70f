package view

import (
	"embed"

	"github.com/leonelquinteros/gotext"

	"github.com/tommyzki/tommyzki-translate/internal/language"
)

// Directory structure: locales/{lang}/LC_MESSAGES/tommyzki.po
//
//go:embed all:locales
var locales embed.FS

const (
	domain        = "tommyzki"
	romajiContext = "romaji"

	msgLoading      = "Loading preview..."
	msgAwaiting     = "Awaiting input..."
	msgEmptyHistory = "Saved translations will appear here."
	msgSource       = "Source"
)

// Message is one localized UI string. Romaji is set for Japanese only.
type Message struct {
	Text   string `json:"text"`
	Romaji string `json:"romaji,omitempty"`
}

// Catalog holds the embedded gettext catalogs, one per non-English language.
// English strings are the message ids themselves.
type Catalog struct {
	locales map[language.Code]*gotext.Locale
}

func NewCatalog() *Catalog {
	catalog := &Catalog{locales: make(map[language.Code]*gotext.Locale)}
	for _, code := range []language.Code{language.Indonesian, language.Japanese} {
		locale := gotext.NewLocaleFSWithPath(code.String(), locales, "locales")
		locale.AddDomain(domain)
		locale.SetDomain(domain)
		catalog.locales[code] = locale
	}
	return catalog
}

// Message returns msgid rendered in the language of code.
func (c *Catalog) Message(code language.Code, msgid string) Message {
	if c == nil {
		return Message{Text: msgid}
	}
	locale, ok := c.locales[code]
	if !ok {
		return Message{Text: msgid}
	}

	out := Message{Text: locale.Get(msgid)}
	if romaji := locale.GetC(msgid, romajiContext); romaji != msgid {
		out.Romaji = romaji
	}
	return out
}
