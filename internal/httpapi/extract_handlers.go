package httpapi

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"

	"horse.fit/newsdesk/internal/langdetect"
	"horse.fit/newsdesk/internal/reader"
)

type extractRequest struct {
	URL string `json:"url"`
}

func (s *Server) handleExtractPreview(c echo.Context) error {
	var req extractRequest
	if err := decodeJSONBody(c, &req); err != nil {
		return failValidation(c, map[string]string{"body": err.Error()})
	}

	pageURL := strings.TrimSpace(req.URL)
	parsed, err := url.Parse(pageURL)
	if err != nil || parsed.Hostname() == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return failValidation(c, map[string]string{"url": "must be an absolute http or https URL"})
	}

	extract, err := reader.FetchExtract(c.Request().Context(), pageURL)
	if err != nil {
		s.logger.Warn().Err(err).Str("url", pageURL).Msg("extract failed")
		return fail(c, http.StatusUnprocessableEntity, "Could not extract readable content from the page", nil)
	}

	sample := extract.Title + " " + extract.Text
	return success(c, map[string]any{
		"extract":  extract,
		"language": langdetect.ResolveLanguage("", sample),
	})
}
