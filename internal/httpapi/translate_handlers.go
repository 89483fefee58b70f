package httpapi

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/tommyzki/tommyzki-translate/internal/language"
	"github.com/tommyzki/tommyzki-translate/internal/translation"
)

const (
	msgEmptyText      = "Text cannot be empty."
	msgInvalidInput   = "Invalid input"
	msgTranslateError = "Failed to translate text"
)

type translateRequest struct {
	Text           *string `json:"text"`
	SourceLanguage *string `json:"sourceLanguage"`
}

func invalidSourceMessage() string {
	return "Invalid source language. Must be " + language.CodeList("'", "or") + "."
}

func (s *Server) handleTranslateUsage(c echo.Context) error {
	codes := make([]string, 0, 3)
	for _, code := range []language.Code{language.English, language.Indonesian, language.Japanese} {
		codes = append(codes, "'"+code.String()+"'")
	}
	return c.JSON(http.StatusOK, map[string]string{
		"message": "Tommyzki Translator API",
		"usage":   "POST to this endpoint with { text: string, sourceLanguage: " + strings.Join(codes, "|") + " } to get translations.",
	})
}

func (s *Server) handleTranslate(c echo.Context) error {
	var req translateRequest
	if err := decodeJSONBody(c, &req); err != nil {
		return legacyFail(c, http.StatusBadRequest, msgInvalidInput, map[string][]string{"body": {err.Error()}})
	}

	details := map[string][]string{}
	text := ""
	if req.Text != nil {
		text = *req.Text
	}
	if strings.TrimSpace(text) == "" {
		details["text"] = []string{msgEmptyText}
	}
	// The source code must match exactly; aliases are not accepted here.
	var source language.Code
	if req.SourceLanguage != nil {
		source = language.Code(*req.SourceLanguage)
	}
	if !source.Valid() {
		details["sourceLanguage"] = []string{invalidSourceMessage()}
	}
	if len(details) > 0 {
		return legacyFail(c, http.StatusBadRequest, msgInvalidInput, details)
	}

	result, err := s.translator.Translate(c.Request().Context(), translation.Request{
		Text:       text,
		SourceHint: source,
	})
	if err != nil {
		s.logger.Error().Err(err).Str("source_language", source.String()).Msg("api translation failed")
		return legacyFail(c, http.StatusInternalServerError, msgTranslateError, err.Error())
	}

	return c.JSON(http.StatusOK, result)
}

func (s *Server) handleLanguages(c echo.Context) error {
	return success(c, map[string]any{
		"items":   language.All(),
		"default": language.Default,
	})
}
