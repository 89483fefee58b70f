package translation

import (
	"bytes"
	"embed"
	"fmt"
	"text/template"

	"github.com/tommyzki/tommyzki-translate/internal/language"
)

//go:embed prompts/*.tmpl
var promptFS embed.FS

var prompts = template.Must(template.ParseFS(promptFS, "prompts/*.tmpl"))

const systemPrompt = "You translate short texts between English, Bahasa Indonesia and Japanese and answer with JSON only."

type promptData struct {
	Text       string
	SourceName string
	Codes      string
}

func renderPrompt(name string, text string, hint language.Code) (string, error) {
	data := promptData{
		Text:       text,
		SourceName: hint.Name(),
		Codes:      language.CodeList("'", "or"),
	}
	var buf bytes.Buffer
	if err := prompts.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s prompt: %w", name, err)
	}
	return buf.String(), nil
}
