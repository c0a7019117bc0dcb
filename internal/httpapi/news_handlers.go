package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"horse.fit/newsdesk/internal/db"
	"horse.fit/newsdesk/internal/langdetect"
	"horse.fit/newsdesk/internal/similarity"
	"horse.fit/newsdesk/schema"
)

type setCategoryRequest struct {
	CategoryID *int64 `json:"category_id"`
}

func (s *Server) handleListNews(c echo.Context) error {
	limit, err := parsePositiveInt(c.QueryParam("limit"), defaultPageSize, 1, maxPageSize)
	if err != nil {
		return failValidation(c, map[string]string{"limit": err.Error()})
	}
	offset, err := parsePositiveInt(c.QueryParam("offset"), 0, 0, 1_000_000)
	if err != nil {
		return failValidation(c, map[string]string{"offset": err.Error()})
	}

	filter := db.NewsFilter{
		Source:        c.QueryParam("source"),
		Language:      c.QueryParam("language"),
		Search:        c.QueryParam("q"),
		HideDuplicate: !strings.EqualFold(strings.TrimSpace(c.QueryParam("include_duplicates")), "true"),
		Limit:         limit,
		Offset:        offset,
	}
	if raw := strings.TrimSpace(c.QueryParam("category_id")); raw != "" {
		categoryID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || categoryID <= 0 {
			return failValidation(c, map[string]string{"category_id": "must be a positive integer"})
		}
		filter.CategoryID = &categoryID
	}
	if raw := strings.TrimSpace(c.QueryParam("processed")); raw != "" {
		processed, err := strconv.ParseBool(raw)
		if err != nil {
			return failValidation(c, map[string]string{"processed": "must be true or false"})
		}
		filter.Processed = &processed
	}

	items, total, err := s.pool.ListNewsItems(c.Request().Context(), filter)
	if err != nil {
		s.logger.Error().Err(err).Msg("list news failed")
		return internalError(c, "Failed to load news items")
	}
	return success(c, map[string]any{
		"items": items,
		"pagination": map[string]any{
			"limit":       limit,
			"offset":      offset,
			"total_items": total,
		},
	})
}

func (s *Server) handleGetNews(c echo.Context) error {
	newsID, err := parseIDParam(c, "news_id")
	if err != nil {
		return failValidation(c, map[string]string{"news_id": err.Error()})
	}

	item, err := s.pool.GetNewsItem(c.Request().Context(), newsID)
	if err != nil {
		if errors.Is(err, db.ErrNoRows) {
			return failNotFound(c, "News item not found")
		}
		s.logger.Error().Err(err).Int64("news_id", newsID).Msg("load news item failed")
		return internalError(c, "Failed to load news item")
	}
	return success(c, map[string]any{"item": item})
}

func (s *Server) handleDeleteNews(c echo.Context) error {
	newsID, err := parseIDParam(c, "news_id")
	if err != nil {
		return failValidation(c, map[string]string{"news_id": err.Error()})
	}

	if err := s.pool.SoftDeleteNewsItem(c.Request().Context(), newsID); err != nil {
		if errors.Is(err, db.ErrNoRows) {
			return failNotFound(c, "News item not found")
		}
		s.logger.Error().Err(err).Int64("news_id", newsID).Msg("delete news item failed")
		return internalError(c, "Failed to delete news item")
	}
	return success(c, map[string]any{"deleted": true})
}

func (s *Server) handleSetNewsCategory(c echo.Context) error {
	newsID, err := parseIDParam(c, "news_id")
	if err != nil {
		return failValidation(c, map[string]string{"news_id": err.Error()})
	}

	var req setCategoryRequest
	if err := decodeJSONBody(c, &req); err != nil {
		return failValidation(c, map[string]string{"body": err.Error()})
	}
	if req.CategoryID != nil && *req.CategoryID <= 0 {
		return failValidation(c, map[string]string{"category_id": "must be a positive integer or null"})
	}

	if err := s.pool.SetNewsCategory(c.Request().Context(), newsID, req.CategoryID); err != nil {
		if errors.Is(err, db.ErrNoRows) {
			return failNotFound(c, "News item not found")
		}
		s.logger.Error().Err(err).Int64("news_id", newsID).Msg("set news category failed")
		return internalError(c, "Failed to update news category")
	}

	item, err := s.pool.GetNewsItem(c.Request().Context(), newsID)
	if err != nil {
		s.logger.Error().Err(err).Int64("news_id", newsID).Msg("reload news item failed")
		return internalError(c, "Failed to update news category")
	}
	return success(c, map[string]any{"item": item})
}

func (s *Server) handleSetNewsTags(c echo.Context) error {
	newsID, err := parseIDParam(c, "news_id")
	if err != nil {
		return failValidation(c, map[string]string{"news_id": err.Error()})
	}
	if _, err := s.pool.GetNewsItem(c.Request().Context(), newsID); err != nil {
		if errors.Is(err, db.ErrNoRows) {
			return failNotFound(c, "News item not found")
		}
		s.logger.Error().Err(err).Int64("news_id", newsID).Msg("load news item failed")
		return internalError(c, "Failed to update news tags")
	}

	var req articleTagsRequest
	if err := decodeJSONBody(c, &req); err != nil {
		return failValidation(c, map[string]string{"body": err.Error()})
	}
	if len(req.TagNames) > 20 {
		return failValidation(c, map[string]string{"tag_names": "at most 20 tags are allowed"})
	}

	tagIDs, fieldErr := s.ensureTags(c, req.TagNames)
	if fieldErr != nil {
		return fieldErr
	}

	if err := s.pool.SetNewsTags(c.Request().Context(), newsID, tagIDs); err != nil {
		s.logger.Error().Err(err).Int64("news_id", newsID).Msg("set news tags failed")
		return internalError(c, "Failed to update news tags")
	}

	item, err := s.pool.GetNewsItem(c.Request().Context(), newsID)
	if err != nil {
		s.logger.Error().Err(err).Int64("news_id", newsID).Msg("reload news item failed")
		return internalError(c, "Failed to update news tags")
	}
	return success(c, map[string]any{"item": item})
}

func (s *Server) handleIngestNews(c echo.Context) error {
	body := c.Request().Body
	if body == nil {
		return failValidation(c, map[string]string{"body": "is required"})
	}
	defer func() { _ = body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(body, 4<<20))
	if err != nil {
		return failValidation(c, map[string]string{"body": "could not be read"})
	}

	item, err := schema.ValidateNewsItemPayload(raw)
	if err != nil {
		// Keep the rejected payload for debugging if we can attribute it.
		source, sourceItemID := sniffPayloadIdentity(raw)
		if source != "" && sourceItemID != "" {
			if recordErr := s.pool.RecordRejectedArrival(c.Request().Context(), source, sourceItemID, raw); recordErr != nil {
				s.logger.Error().Err(recordErr).Msg("record rejected arrival failed")
			}
		}
		return failValidation(c, map[string]string{"payload": err.Error()})
	}

	input := buildNewsInsert(item, raw)
	if item.Category != nil {
		category, err := s.pool.GetCategoryBySlug(c.Request().Context(), *item.Category)
		if err != nil && !errors.Is(err, db.ErrNoRows) {
			s.logger.Error().Err(err).Str("category", *item.Category).Msg("resolve ingest category failed")
			return internalError(c, "Failed to ingest news item")
		}
		if category != nil {
			input.CategoryID = &category.CategoryID
		}
	}

	result, err := s.pool.InsertNewsItem(c.Request().Context(), input)
	if err != nil {
		s.logger.Error().Err(err).
			Str("source", item.Source).
			Str("source_item_id", item.SourceItemID).
			Msg("insert news item failed")
		return internalError(c, "Failed to ingest news item")
	}

	if !result.Duplicate && len(item.Tags) > 0 {
		tagIDs, fieldErr := s.ensureTags(c, item.Tags)
		if fieldErr != nil {
			return fieldErr
		}
		if err := s.pool.SetNewsTags(c.Request().Context(), result.NewsID, tagIDs); err != nil {
			s.logger.Error().Err(err).Int64("news_id", result.NewsID).Msg("link ingest tags failed")
		}
	}

	status := http.StatusCreated
	if result.Duplicate {
		status = http.StatusOK
	}
	return successWithStatus(c, status, map[string]any{"result": result})
}

func buildNewsInsert(item *schema.NewsItem, raw []byte) db.NewNewsItem {
	content := ""
	if item.BodyText != nil {
		content = strings.TrimSpace(*item.BodyText)
	}

	var (
		itemURL       *string
		normalizedURL string
		sourceDomain  *string
	)
	if item.URL != nil {
		trimmed := strings.TrimSpace(*item.URL)
		if trimmed != "" {
			itemURL = &trimmed
			normalizedURL = similarity.NormalizeURL(trimmed)
		}
	}
	sourceDomain = item.SourceDomain
	if sourceDomain == nil && itemURL != nil {
		if parsed, err := url.Parse(*itemURL); err == nil && parsed.Hostname() != "" {
			host := parsed.Hostname()
			sourceDomain = &host
		}
	}

	var publishedAt *time.Time
	if item.PublishedAt != nil {
		if ts, err := time.Parse(time.RFC3339, strings.TrimSpace(*item.PublishedAt)); err == nil {
			utc := ts.UTC()
			publishedAt = &utc
		}
	}

	declared := ""
	if item.Language != nil {
		declared = *item.Language
	}
	language := langdetect.ResolveLanguage(declared, item.Title+" "+content)

	return db.NewNewsItem{
		Source:        item.Source,
		SourceItemID:  item.SourceItemID,
		Title:         item.Title,
		Content:       content,
		Summary:       item.Summary,
		URL:           itemURL,
		NormalizedURL: normalizedURL,
		Language:      language,
		SourceDomain:  sourceDomain,
		ImageURL:      item.ImageURL,
		PublishedAt:   publishedAt,
		RawPayload:    json.RawMessage(raw),
	}
}

// sniffPayloadIdentity pulls source identifiers out of an otherwise invalid
// payload so the rejection can still be recorded.
func sniffPayloadIdentity(raw []byte) (string, string) {
	var probe struct {
		Source       string `json:"source"`
		SourceItemID string `json:"source_item_id"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return "", ""
	}
	return strings.TrimSpace(probe.Source), strings.TrimSpace(probe.SourceItemID)
}
