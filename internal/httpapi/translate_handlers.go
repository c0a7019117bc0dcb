package httpapi

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"horse.fit/newsdesk/internal/langdetect"
)

// translateUnavailableReason explains why a translation request was refused.
type translateUnavailableReason string

const (
	translateNoProvider    translateUnavailableReason = "no_provider_configured"
	translateSameLanguage  translateUnavailableReason = "source_equals_target"
	translateUnknownTarget translateUnavailableReason = "unknown_target_language"
	translateNothingToDo   translateUnavailableReason = "empty_text"
	translateTextTooLong   translateUnavailableReason = "text_too_long"
)

const translateMaxSourceChars = 10_000

type translateRequest struct {
	Text           string `json:"text"`
	TargetLanguage string `json:"target_language"`
}

// handleTranslate validates the request and reports that no translation
// provider is wired up. Keeping the validation here means clients see the
// same errors once a provider lands.
func (s *Server) handleTranslate(c echo.Context) error {
	var req translateRequest
	if err := decodeJSONBody(c, &req); err != nil {
		return failValidation(c, map[string]string{"body": err.Error()})
	}

	text := strings.TrimSpace(req.Text)
	if text == "" {
		return fail(c, http.StatusBadRequest, "Nothing to translate", map[string]any{
			"reason": translateNothingToDo,
		})
	}
	if len([]rune(text)) > translateMaxSourceChars {
		return fail(c, http.StatusBadRequest, "Text exceeds the translation size limit", map[string]any{
			"reason": translateTextTooLong,
		})
	}

	target := langdetect.NormalizeCode(req.TargetLanguage)
	if target == "" {
		return fail(c, http.StatusBadRequest, "Unknown target language", map[string]any{
			"reason": translateUnknownTarget,
		})
	}
	if detected := langdetect.ResolveLanguage("", text); detected == target {
		return fail(c, http.StatusBadRequest, "Text already appears to be in the target language", map[string]any{
			"reason": translateSameLanguage,
		})
	}

	return fail(c, http.StatusNotImplemented, "Translation is not available", map[string]any{
		"reason": translateNoProvider,
	})
}
