package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"horse.fit/newsdesk/internal/db"
)

type categoryRequest struct {
	Slug        string  `json:"slug"`
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	SortOrder   int     `json:"sort_order"`
	Enabled     *bool   `json:"enabled,omitempty"`
}

type reorderRequest struct {
	CategoryIDs []int64 `json:"category_ids"`
}

type tagRequest struct {
	Slug string `json:"slug"`
	Name string `json:"name"`
}

type mergeTagsRequest struct {
	TargetTagID int64 `json:"target_tag_id"`
}

func (s *Server) handleListCategories(c echo.Context) error {
	includeDisabled := strings.EqualFold(strings.TrimSpace(c.QueryParam("include_disabled")), "true")

	items, err := s.pool.ListCategories(c.Request().Context(), includeDisabled)
	if err != nil {
		s.logger.Error().Err(err).Msg("list categories failed")
		return internalError(c, "Failed to load categories")
	}
	return success(c, map[string]any{"items": items})
}

func (s *Server) handleCreateCategory(c echo.Context) error {
	var req categoryRequest
	if err := decodeJSONBody(c, &req); err != nil {
		return failValidation(c, map[string]string{"body": err.Error()})
	}
	if fieldErrors := validateCategoryRequest(&req); len(fieldErrors) > 0 {
		return failValidation(c, fieldErrors)
	}

	category, err := s.pool.CreateCategory(c.Request().Context(), req.Slug, req.Name, req.Description, req.SortOrder)
	if err != nil {
		s.logger.Error().Err(err).Str("slug", req.Slug).Msg("create category failed")
		return internalError(c, "Failed to create category")
	}
	return successWithStatus(c, http.StatusCreated, map[string]any{"category": category})
}

func (s *Server) handleUpdateCategory(c echo.Context) error {
	categoryID, err := parseIDParam(c, "category_id")
	if err != nil {
		return failValidation(c, map[string]string{"category_id": err.Error()})
	}

	var req categoryRequest
	if err := decodeJSONBody(c, &req); err != nil {
		return failValidation(c, map[string]string{"body": err.Error()})
	}
	if fieldErrors := validateCategoryRequest(&req); len(fieldErrors) > 0 {
		return failValidation(c, fieldErrors)
	}

	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}

	category, err := s.pool.UpdateCategory(c.Request().Context(), categoryID, req.Slug, req.Name, req.Description, enabled)
	if err != nil {
		if errors.Is(err, db.ErrNoRows) {
			return failNotFound(c, "Category not found")
		}
		s.logger.Error().Err(err).Int64("category_id", categoryID).Msg("update category failed")
		return internalError(c, "Failed to update category")
	}
	return success(c, map[string]any{"category": category})
}

func (s *Server) handleReorderCategories(c echo.Context) error {
	var req reorderRequest
	if err := decodeJSONBody(c, &req); err != nil {
		return failValidation(c, map[string]string{"body": err.Error()})
	}
	if len(req.CategoryIDs) == 0 {
		return failValidation(c, map[string]string{"category_ids": "must not be empty"})
	}
	seen := make(map[int64]struct{}, len(req.CategoryIDs))
	for _, id := range req.CategoryIDs {
		if id <= 0 {
			return failValidation(c, map[string]string{"category_ids": "must contain positive IDs"})
		}
		if _, dup := seen[id]; dup {
			return failValidation(c, map[string]string{"category_ids": "must not contain duplicates"})
		}
		seen[id] = struct{}{}
	}

	updated, err := s.pool.ReorderCategories(c.Request().Context(), req.CategoryIDs)
	if err != nil {
		s.logger.Error().Err(err).Msg("reorder categories failed")
		return internalError(c, "Failed to reorder categories")
	}
	return success(c, map[string]any{"updated": updated})
}

func (s *Server) handleDeleteCategory(c echo.Context) error {
	categoryID, err := parseIDParam(c, "category_id")
	if err != nil {
		return failValidation(c, map[string]string{"category_id": err.Error()})
	}

	if err := s.pool.SoftDeleteCategory(c.Request().Context(), categoryID); err != nil {
		if errors.Is(err, db.ErrNoRows) {
			return failNotFound(c, "Category not found")
		}
		s.logger.Error().Err(err).Int64("category_id", categoryID).Msg("delete category failed")
		return internalError(c, "Failed to delete category")
	}
	return success(c, map[string]any{"deleted": true})
}

func (s *Server) handleListTags(c echo.Context) error {
	limit, err := parsePositiveInt(c.QueryParam("limit"), 100, 1, 500)
	if err != nil {
		return failValidation(c, map[string]string{"limit": err.Error()})
	}

	items, err := s.pool.ListTags(c.Request().Context(), c.QueryParam("q"), limit)
	if err != nil {
		s.logger.Error().Err(err).Msg("list tags failed")
		return internalError(c, "Failed to load tags")
	}
	return success(c, map[string]any{"items": items})
}

func (s *Server) handleCreateTag(c echo.Context) error {
	var req tagRequest
	if err := decodeJSONBody(c, &req); err != nil {
		return failValidation(c, map[string]string{"body": err.Error()})
	}
	if strings.TrimSpace(req.Name) == "" {
		return failValidation(c, map[string]string{"name": "is required"})
	}

	tag, err := s.pool.EnsureTag(c.Request().Context(), req.Name)
	if err != nil {
		s.logger.Error().Err(err).Str("name", req.Name).Msg("create tag failed")
		return internalError(c, "Failed to create tag")
	}
	return successWithStatus(c, http.StatusCreated, map[string]any{"tag": tag})
}

func (s *Server) handleUpdateTag(c echo.Context) error {
	tagID, err := parseIDParam(c, "tag_id")
	if err != nil {
		return failValidation(c, map[string]string{"tag_id": err.Error()})
	}

	var req tagRequest
	if err := decodeJSONBody(c, &req); err != nil {
		return failValidation(c, map[string]string{"body": err.Error()})
	}
	fieldErrors := map[string]string{}
	if strings.TrimSpace(req.Slug) == "" {
		fieldErrors["slug"] = "is required"
	}
	if strings.TrimSpace(req.Name) == "" {
		fieldErrors["name"] = "is required"
	}
	if len(fieldErrors) > 0 {
		return failValidation(c, fieldErrors)
	}

	tag, err := s.pool.UpdateTag(c.Request().Context(), tagID, req.Slug, req.Name)
	if err != nil {
		if errors.Is(err, db.ErrNoRows) {
			return failNotFound(c, "Tag not found")
		}
		s.logger.Error().Err(err).Int64("tag_id", tagID).Msg("update tag failed")
		return internalError(c, "Failed to update tag")
	}
	return success(c, map[string]any{"tag": tag})
}

func (s *Server) handleDeleteTag(c echo.Context) error {
	tagID, err := parseIDParam(c, "tag_id")
	if err != nil {
		return failValidation(c, map[string]string{"tag_id": err.Error()})
	}

	if err := s.pool.DeleteTag(c.Request().Context(), tagID); err != nil {
		if errors.Is(err, db.ErrNoRows) {
			return failNotFound(c, "Tag not found")
		}
		s.logger.Error().Err(err).Int64("tag_id", tagID).Msg("delete tag failed")
		return internalError(c, "Failed to delete tag")
	}
	return success(c, map[string]any{"deleted": true})
}

func (s *Server) handleMergeTags(c echo.Context) error {
	sourceID, err := parseIDParam(c, "tag_id")
	if err != nil {
		return failValidation(c, map[string]string{"tag_id": err.Error()})
	}

	var req mergeTagsRequest
	if err := decodeJSONBody(c, &req); err != nil {
		return failValidation(c, map[string]string{"body": err.Error()})
	}
	if req.TargetTagID <= 0 {
		return failValidation(c, map[string]string{"target_tag_id": "must be a positive integer"})
	}
	if req.TargetTagID == sourceID {
		return failValidation(c, map[string]string{"target_tag_id": "must differ from the source tag"})
	}

	tag, err := s.pool.MergeTags(c.Request().Context(), sourceID, req.TargetTagID)
	if err != nil {
		if errors.Is(err, db.ErrNoRows) {
			return failNotFound(c, "Tag not found")
		}
		s.logger.Error().Err(err).
			Int64("source_tag_id", sourceID).
			Int64("target_tag_id", req.TargetTagID).
			Msg("merge tags failed")
		return internalError(c, "Failed to merge tags")
	}
	return success(c, map[string]any{"tag": tag})
}

func validateCategoryRequest(req *categoryRequest) map[string]string {
	fieldErrors := map[string]string{}
	if strings.TrimSpace(req.Slug) == "" {
		fieldErrors["slug"] = "is required"
	}
	if strings.TrimSpace(req.Name) == "" {
		fieldErrors["name"] = "is required"
	}
	if req.SortOrder < 0 {
		fieldErrors["sort_order"] = "must be >= 0"
	}
	return fieldErrors
}
