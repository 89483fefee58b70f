package language

import "strings"

// aliases folds deprecated three-letter and country-style codes onto the
// supported ISO 639-1 codes. "in" is the pre-1989 code for Indonesian.
var aliases = map[string]Code{
	"in":  Indonesian,
	"ind": Indonesian,
	"jp":  Japanese,
	"jpn": Japanese,
	"eng": English,
}

// NormalizeTag lowercases a BCP 47-ish tag and joins its subtags with "-".
// Blank tags and tags with non-letter subtags normalize to "".
func NormalizeTag(raw string) string {
	cleaned := strings.Trim(strings.ToLower(strings.TrimSpace(raw)), `'".`)
	subtags := strings.FieldsFunc(cleaned, func(r rune) bool {
		return r == '-' || r == '_' || r == ' '
	})
	if len(subtags) == 0 {
		return ""
	}
	for _, subtag := range subtags {
		if strings.IndexFunc(subtag, func(r rune) bool { return r < 'a' || r > 'z' }) >= 0 {
			return ""
		}
	}
	return strings.Join(subtags, "-")
}

// NormalizeCode returns the primary subtag of raw ("en" for "en-US") with
// aliases folded. The result is not checked against the supported set.
func NormalizeCode(raw string) string {
	primary, _, _ := strings.Cut(NormalizeTag(raw), "-")
	if alias, ok := aliases[primary]; ok {
		return string(alias)
	}
	return primary
}
