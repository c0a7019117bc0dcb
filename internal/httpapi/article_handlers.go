package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"horse.fit/newsdesk/internal/auth"
	"horse.fit/newsdesk/internal/db"
	"horse.fit/newsdesk/internal/globaltime"
	"horse.fit/newsdesk/internal/langdetect"
)

type articleRequest struct {
	Title      string  `json:"title"`
	Slug       string  `json:"slug"`
	Summary    *string `json:"summary,omitempty"`
	Content    string  `json:"content"`
	Language   string  `json:"language"`
	CategoryID *int64  `json:"category_id,omitempty"`
}

type articleStatusRequest struct {
	Status string `json:"status"`
}

type articleTagsRequest struct {
	TagNames []string `json:"tag_names"`
}

func (s *Server) handleListArticles(c echo.Context) error {
	principal, ok := principalFromContext(c)
	if !ok {
		return unauthorizedResponse(c)
	}

	limit, err := parsePositiveInt(c.QueryParam("limit"), defaultPageSize, 1, maxPageSize)
	if err != nil {
		return failValidation(c, map[string]string{"limit": err.Error()})
	}
	offset, err := parsePositiveInt(c.QueryParam("offset"), 0, 0, 1_000_000)
	if err != nil {
		return failValidation(c, map[string]string{"offset": err.Error()})
	}

	filter := db.ArticleFilter{
		Status: c.QueryParam("status"),
		Search: c.QueryParam("q"),
		Limit:  limit,
		Offset: offset,
	}
	if raw := strings.TrimSpace(c.QueryParam("category_id")); raw != "" {
		categoryID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || categoryID <= 0 {
			return failValidation(c, map[string]string{"category_id": "must be a positive integer"})
		}
		filter.CategoryID = &categoryID
	}

	// Authors see only their own articles.
	if !auth.RoleSatisfies(principal.Role, auth.RoleEditor) {
		authorID := principal.UserID
		filter.AuthorID = &authorID
	}

	items, total, err := s.pool.ListArticles(c.Request().Context(), filter)
	if err != nil {
		s.logger.Error().Err(err).Msg("list articles failed")
		return internalError(c, "Failed to load articles")
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

func (s *Server) handleGetArticle(c echo.Context) error {
	principal, ok := principalFromContext(c)
	if !ok {
		return unauthorizedResponse(c)
	}

	article, err := s.loadArticle(c)
	if err != nil {
		return err
	}
	if !canViewArticle(principal, article) {
		return failForbidden(c, "You can only view your own articles")
	}
	return success(c, map[string]any{"article": article})
}

func (s *Server) handleCreateArticle(c echo.Context) error {
	principal, ok := principalFromContext(c)
	if !ok {
		return unauthorizedResponse(c)
	}

	var req articleRequest
	if err := decodeJSONBody(c, &req); err != nil {
		return failValidation(c, map[string]string{"body": err.Error()})
	}
	if fieldErrors := validateArticleRequest(&req); len(fieldErrors) > 0 {
		return failValidation(c, fieldErrors)
	}

	language := langdetect.ResolveLanguage(req.Language, req.Title+" "+req.Content)

	article, err := s.pool.CreateArticle(c.Request().Context(), db.NewArticle{
		Title:      req.Title,
		Slug:       req.Slug,
		Summary:    req.Summary,
		Content:    req.Content,
		Language:   language,
		CategoryID: req.CategoryID,
		AuthorID:   principal.UserID,
	})
	if err != nil {
		s.logger.Error().Err(err).Str("slug", req.Slug).Msg("create article failed")
		return internalError(c, "Failed to create article")
	}
	return successWithStatus(c, http.StatusCreated, map[string]any{"article": article})
}

func (s *Server) handleUpdateArticle(c echo.Context) error {
	principal, ok := principalFromContext(c)
	if !ok {
		return unauthorizedResponse(c)
	}

	article, err := s.loadArticle(c)
	if err != nil {
		return err
	}
	if !canEditArticle(principal, article) {
		return failForbidden(c, "You can only edit your own unpublished articles")
	}

	var req articleRequest
	if err := decodeJSONBody(c, &req); err != nil {
		return failValidation(c, map[string]string{"body": err.Error()})
	}
	if fieldErrors := validateArticleRequest(&req); len(fieldErrors) > 0 {
		return failValidation(c, fieldErrors)
	}

	language := langdetect.ResolveLanguage(req.Language, req.Title+" "+req.Content)

	updated, err := s.pool.UpdateArticle(c.Request().Context(), article.ArticleID, db.ArticleUpdate{
		Title:      req.Title,
		Slug:       req.Slug,
		Summary:    req.Summary,
		Content:    req.Content,
		Language:   language,
		CategoryID: req.CategoryID,
	})
	if err != nil {
		if errors.Is(err, db.ErrNoRows) {
			return failNotFound(c, "Article not found")
		}
		s.logger.Error().Err(err).Int64("article_id", article.ArticleID).Msg("update article failed")
		return internalError(c, "Failed to update article")
	}
	return success(c, map[string]any{"article": updated})
}

func (s *Server) handleSetArticleStatus(c echo.Context) error {
	principal, ok := principalFromContext(c)
	if !ok {
		return unauthorizedResponse(c)
	}

	article, err := s.loadArticle(c)
	if err != nil {
		return err
	}

	var req articleStatusRequest
	if err := decodeJSONBody(c, &req); err != nil {
		return failValidation(c, map[string]string{"body": err.Error()})
	}

	status := db.NormalizeArticleStatus(req.Status)
	if status == "" {
		return failValidation(c, map[string]string{"status": "must be one of draft, review, published, archived"})
	}
	if !db.ArticleTransitionAllowed(article.Status, status) {
		return failValidation(c, map[string]string{
			"status": "cannot move from " + article.Status + " to " + status,
		})
	}
	if !canTransitionArticle(principal, article, status) {
		return failForbidden(c, "Publishing and archiving require the editor role")
	}

	updated, err := s.pool.SetArticleStatus(c.Request().Context(), article.ArticleID, status, globaltime.UTC())
	if err != nil {
		if errors.Is(err, db.ErrNoRows) {
			return failNotFound(c, "Article not found")
		}
		s.logger.Error().Err(err).Int64("article_id", article.ArticleID).Str("status", status).Msg("set article status failed")
		return internalError(c, "Failed to update article status")
	}
	return success(c, map[string]any{"article": updated})
}

func (s *Server) handleSetArticleTags(c echo.Context) error {
	principal, ok := principalFromContext(c)
	if !ok {
		return unauthorizedResponse(c)
	}

	article, err := s.loadArticle(c)
	if err != nil {
		return err
	}
	if !canEditArticle(principal, article) {
		return failForbidden(c, "You can only edit your own unpublished articles")
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

	if err := s.pool.SetArticleTags(c.Request().Context(), article.ArticleID, tagIDs); err != nil {
		s.logger.Error().Err(err).Int64("article_id", article.ArticleID).Msg("set article tags failed")
		return internalError(c, "Failed to update article tags")
	}

	updated, err := s.pool.GetArticle(c.Request().Context(), article.ArticleID)
	if err != nil {
		s.logger.Error().Err(err).Int64("article_id", article.ArticleID).Msg("reload article after tag update failed")
		return internalError(c, "Failed to update article tags")
	}
	return success(c, map[string]any{"article": updated})
}

func (s *Server) handleDeleteArticle(c echo.Context) error {
	principal, ok := principalFromContext(c)
	if !ok {
		return unauthorizedResponse(c)
	}

	article, err := s.loadArticle(c)
	if err != nil {
		return err
	}
	if !canEditArticle(principal, article) {
		return failForbidden(c, "You can only delete your own unpublished articles")
	}

	if err := s.pool.SoftDeleteArticle(c.Request().Context(), article.ArticleID); err != nil {
		if errors.Is(err, db.ErrNoRows) {
			return failNotFound(c, "Article not found")
		}
		s.logger.Error().Err(err).Int64("article_id", article.ArticleID).Msg("delete article failed")
		return internalError(c, "Failed to delete article")
	}
	return success(c, map[string]any{"deleted": true})
}

func (s *Server) loadArticle(c echo.Context) (*db.ArticleRecord, error) {
	articleID, err := parseIDParam(c, "article_id")
	if err != nil {
		return nil, failValidation(c, map[string]string{"article_id": err.Error()})
	}

	article, err := s.pool.GetArticle(c.Request().Context(), articleID)
	if err != nil {
		if errors.Is(err, db.ErrNoRows) {
			return nil, failNotFound(c, "Article not found")
		}
		s.logger.Error().Err(err).Int64("article_id", articleID).Msg("load article failed")
		return nil, internalError(c, "Failed to load article")
	}
	return article, nil
}

func (s *Server) ensureTags(c echo.Context, names []string) ([]int64, error) {
	tagIDs := make([]int64, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		trimmed := strings.TrimSpace(name)
		if trimmed == "" {
			return nil, failValidation(c, map[string]string{"tag_names": "must not contain empty names"})
		}
		key := strings.ToLower(trimmed)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		tag, err := s.pool.EnsureTag(c.Request().Context(), trimmed)
		if err != nil {
			s.logger.Error().Err(err).Str("tag", trimmed).Msg("ensure tag failed")
			return nil, internalError(c, "Failed to resolve tags")
		}
		tagIDs = append(tagIDs, tag.TagID)
	}
	return tagIDs, nil
}

// canViewArticle: editors see everything, authors only their own.
func canViewArticle(principal authPrincipal, article *db.ArticleRecord) bool {
	if auth.RoleSatisfies(principal.Role, auth.RoleEditor) {
		return true
	}
	return article.AuthorID == principal.UserID
}

/// canEditArticle: editors edit anything; authors edit their own articles
// while still unpublished.
func canEditArticle(principal authPrincipal, article *db.ArticleRecord) bool {
	if auth.RoleSatisfies(principal.Role, auth.RoleEditor) {
		return true
	}
	if article.AuthorID != principal.UserID {
		return false
	}
	return article.Status == db.ArticleStatusDraft || article.Status == db.ArticleStatusReview
}

/// canTransitionArticle: authors may only move their own work between draft
// and review; publish and archive are editor actions.
func canTransitionArticle(principal authPrincipal, article *db.ArticleRecord, target string) bool {
	if auth.RoleSatisfies(principal.Role, auth.RoleEditor) {
		return true
	}
	if article.AuthorID != principal.UserID {
		return false
	}
	return target == db.ArticleStatusDraft || target == db.ArticleStatusReview
}

func validateArticleRequest(req *articleRequest) map[string]string {
	fieldErrors := map[string]string{}
	if strings.TrimSpace(req.Title) == "" {
		fieldErrors["title"] = "is required"
	}
	if strings.TrimSpace(req.Slug) == "" {
		fieldErrors["slug"] = "is required"
	}
	if req.CategoryID != nil && *req.CategoryID <= 0 {
		fieldErrors["category_id"] = "must be a positive integer"
	}
	return fieldErrors
}
