package language

import "strings"

// Code is one member of the closed set of supported languages.
type Code string

const (
	English    Code = "en"
	Indonesian Code = "id"
	Japanese   Code = "ja"
)

// Default is used whenever detection fails or answers outside the supported set.
const Default = English

// Info describes one supported language.
type Info struct {
	Code        Code   `json:"code"`
	Name        string `json:"name"`
	Placeholder string `json:"placeholder"`
}

var languages = map[Code]Info{
	Indonesian: {Code: Indonesian, Name: "Bahasa Indonesia", Placeholder: "Ketik Bahasa Indonesia di sini..."},
	English:    {Code: English, Name: "English", Placeholder: "Type English here..."},
	Japanese:   {Code: Japanese, Name: "Japanese", Placeholder: "日本語で入力してください..."},
}

// uiOrder is the order cards are displayed in.
var uiOrder = []Code{Indonesian, English, Japanese}

func (c Code) String() string {
	return string(c)
}

// Valid reports whether c is one of the supported languages.
func (c Code) Valid() bool {
	_, ok := languages[c]
	return ok
}

// Name returns the display name, or an empty string for unsupported codes.
func (c Code) Name() string {
	return languages[c].Name
}

// Parse normalizes raw and returns the matching supported code.
func Parse(raw string) (Code, bool) {
	code := Code(NormalizeCode(raw))
	if !code.Valid() {
		return "", false
	}
	return code, true
}

// Lookup returns metadata for one supported language.
func Lookup(code Code) (Info, bool) {
	info, ok := languages[code]
	return info, ok
}

// Codes returns the supported codes in UI order.
func Codes() []Code {
	return append([]Code(nil), uiOrder...)
}

// All returns metadata for every supported language in UI order.
func All() []Info {
	out := make([]Info, 0, len(uiOrder))
	for _, code := range uiOrder {
		out = append(out, languages[code])
	}
	return out
}

// CodeList renders the supported codes for messages and prompts, for example "'en', 'id', or 'ja'".
func CodeList(quote string, conjunction string) string {
	sorted := []Code{English, Indonesian, Japanese}
	parts := make([]string, 0, len(sorted))
	for _, code := range sorted {
		parts = append(parts, quote+string(code)+quote)
	}
	if len(parts) < 2 || conjunction == "" {
		return strings.Join(parts, ", ")
	}
	return strings.Join(parts[:len(parts)-1], ", ") + ", " + conjunction + " " + parts[len(parts)-1]
}
