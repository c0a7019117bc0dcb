package httpapi

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"horse.fit/newsdesk/internal/db"
	"horse.fit/newsdesk/internal/globaltime"
)

// maxBulkIDs caps one bulk request; larger batches go through multiple runs.
const maxBulkIDs = 100

type bulkRequest struct {
	Operation  string  `json:"operation"`
	IDs        []int64 `json:"ids"`
	Status     string  `json:"status,omitempty"`
	CategoryID *int64  `json:"category_id,omitempty"`
}

type bulkItemResult struct {
	ID    int64  `json:"id"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

func validateBulkRequest(req *bulkRequest, allowed ...string) map[string]string {
	req.Operation = strings.ToLower(strings.TrimSpace(req.Operation))
	ok := false
	for _, op := range allowed {
		if req.Operation == op {
			ok = true
			break
		}
	}
	if !ok {
		return map[string]string{"operation": "must be one of " + strings.Join(allowed, ", ")}
	}
	if len(req.IDs) == 0 {
		return map[string]string{"ids": "must contain at least one ID"}
	}
	if len(req.IDs) > maxBulkIDs {
		return map[string]string{"ids": fmt.Sprintf("must contain at most %d IDs", maxBulkIDs)}
	}
	seen := make(map[int64]struct{}, len(req.IDs))
	for _, id := range req.IDs {
		if id <= 0 {
			return map[string]string{"ids": "must contain positive integers"}
		}
		if _, dup := seen[id]; dup {
			return map[string]string{"ids": "must not contain duplicates"}
		}
		seen[id] = struct{}{}
	}
	return nil
}

func (s *Server) handleBulkArticles(c echo.Context) error {
	principal, ok := principalFromContext(c)
	if !ok {
		return unauthorizedResponse(c)
	}

	var req bulkRequest
	if err := decodeJSONBody(c, &req); err != nil {
		return failValidation(c, map[string]string{"body": err.Error()})
	}
	if fields := validateBulkRequest(&req, "set_status", "set_category", "delete", "restore"); fields != nil {
		return failValidation(c, fields)
	}

	targetStatus := ""
	if req.Operation == "set_status" {
		targetStatus = db.NormalizeArticleStatus(req.Status)
		if targetStatus == "" {
			return failValidation(c, map[string]string{"status": "must be one of draft, review, published, archived"})
		}
	}

	apply := func(ctx context.Context, id int64) error {
		switch req.Operation {
		case "set_status":
			article, err := s.pool.GetArticle(ctx, id)
			if err != nil {
				return err
			}
			if !db.ArticleTransitionAllowed(article.Status, targetStatus) {
				return fmt.Errorf("cannot move from %s to %s", article.Status, targetStatus)
			}
			_, err = s.pool.SetArticleStatus(ctx, id, targetStatus, globaltime.UTC())
			return err
		case "set_category":
			return s.pool.SetArticleCategory(ctx, id, req.CategoryID)
		case "restore":
			return s.pool.RestoreArticle(ctx, id)
		default:
			return s.pool.SoftDeleteArticle(ctx, id)
		}
	}

	return s.runBulk(c, &req, db.EntityArticle, principal.UserID, apply)
}

func (s *Server) handleBulkNews(c echo.Context) error {
	principal, ok := principalFromContext(c)
	if !ok {
		return unauthorizedResponse(c)
	}

	var req bulkRequest
	if err := decodeJSONBody(c, &req); err != nil {
		return failValidation(c, map[string]string{"body": err.Error()})
	}
	if fields := validateBulkRequest(&req, "set_category", "delete"); fields != nil {
		return failValidation(c, fields)
	}

	apply := func(ctx context.Context, id int64) error {
		if req.Operation == "set_category" {
			return s.pool.SetNewsCategory(ctx, id, req.CategoryID)
		}
		return s.pool.SoftDeleteNewsItem(ctx, id)
	}

	return s.runBulk(c, &req, db.EntityNews, principal.UserID, apply)
}

// runBulk records the run in the ledger, applies the operation per ID and
// reports per-item outcomes. Item failures do not abort the batch.
func (s *Server) runBulk(
	c echo.Context,
	req *bulkRequest,
	entityType string,
	actorUserID int64,
	apply func(ctx context.Context, id int64) error,
) error {
	ctx := c.Request().Context()
	runUUID := uuid.NewString()

	runID, err := s.pool.CreateBulkRun(ctx, runUUID, req.Operation, entityType, len(req.IDs), actorUserID)
	if err != nil {
		s.logger.Error().Err(err).Str("operation", req.Operation).Msg("create bulk run failed")
		return internalError(c, "Failed to start bulk run")
	}

	results := make([]bulkItemResult, 0, len(req.IDs))
	succeeded, failed := 0, 0
	for _, id := range req.IDs {
		if err := apply(ctx, id); err != nil {
			failed++
			message := err.Error()
			if errors.Is(err, db.ErrNoRows) {
				message = "not found"
			}
			results = append(results, bulkItemResult{ID: id, Error: message})
			continue
		}
		succeeded++
		results = append(results, bulkItemResult{ID: id, OK: true})
	}

	status := db.BulkStatusCompleted
	var errorMessage *string
	if succeeded == 0 {
		status = db.BulkStatusFailed
		msg := "no items succeeded"
		errorMessage = &msg
	}
	if err := s.pool.FinishBulkRun(ctx, runID, succeeded, failed, status, errorMessage, globaltime.UTC()); err != nil {
		s.logger.Error().Err(err).Int64("run_id", runID).Msg("finish bulk run failed")
	}

	s.logger.Info().
		Str("run_uuid", runUUID).
		Str("operation", req.Operation).
		Str("entity_type", entityType).
		Int("succeeded", succeeded).
		Int("failed", failed).
		Msg("bulk run finished")

	return success(c, map[string]any{
		"run_uuid":  runUUID,
		"status":    status,
		"succeeded": succeeded,
		"failed":    failed,
		"results":   results,
	})
}

func (s *Server) handleListBulkRuns(c echo.Context) error {
	limit, err := parsePositiveInt(c.QueryParam("limit"), 50, 1, 200)
	if err != nil {
		return failValidation(c, map[string]string{"limit": err.Error()})
	}

	runs, err := s.pool.ListBulkRuns(c.Request().Context(), limit)
	if err != nil {
		s.logger.Error().Err(err).Msg("list bulk runs failed")
		return internalError(c, "Failed to load bulk runs")
	}
	return success(c, map[string]any{"items": runs})
}

func (s *Server) handleGetBulkRun(c echo.Context) error {
	runUUID := strings.TrimSpace(c.Param("run_uuid"))
	if _, err := uuid.Parse(runUUID); err != nil {
		return failValidation(c, map[string]string{"run_uuid": "must be a valid UUID"})
	}

	run, err := s.pool.GetBulkRun(c.Request().Context(), runUUID)
	if err != nil {
		if errors.Is(err, db.ErrNoRows) {
			return failNotFound(c, "Bulk run not found")
		}
		s.logger.Error().Err(err).Str("run_uuid", runUUID).Msg("load bulk run failed")
		return internalError(c, "Failed to load bulk run")
	}
	return success(c, map[string]any{"run": run})
}
