package httpapi

import (
	"errors"
	"strings"

	"github.com/labstack/echo/v4"

	"horse.fit/newsdesk/internal/db"
	"horse.fit/newsdesk/internal/globaltime"
	"horse.fit/newsdesk/internal/jobs"
)

func (s *Server) handleDetectDuplicates(c echo.Context) error {
	report, err := jobs.RunDedup(
		c.Request().Context(),
		s.pool,
		s.logger,
		s.opts.DedupLookback,
		s.opts.DedupCandidatePool,
	)
	if err != nil {
		s.logger.Error().Err(err).Msg("dedup run failed")
		return internalError(c, "Duplicate detection failed")
	}
	return success(c, map[string]any{"report": report})
}

func (s *Server) handleListDuplicateGroups(c echo.Context) error {
	limit, err := parsePositiveInt(c.QueryParam("limit"), defaultPageSize, 1, maxPageSize)
	if err != nil {
		return failValidation(c, map[string]string{"limit": err.Error()})
	}
	offset, err := parsePositiveInt(c.QueryParam("offset"), 0, 0, 1_000_000)
	if err != nil {
		return failValidation(c, map[string]string{"offset": err.Error()})
	}

	status := strings.ToLower(strings.TrimSpace(c.QueryParam("status")))
	switch status {
	case "", db.GroupStatusOpen, db.GroupStatusMerged, db.GroupStatusDismissed:
		// Valid.
	default:
		return failValidation(c, map[string]string{"status": "must be one of open, merged, dismissed"})
	}

	groups, total, err := s.pool.ListDuplicateGroups(c.Request().Context(), status, limit, offset)
	if err != nil {
		s.logger.Error().Err(err).Msg("list duplicate groups failed")
		return internalError(c, "Failed to load duplicate groups")
	}
	return success(c, map[string]any{
		"items": groups,
		"pagination": map[string]any{
			"limit":       limit,
			"offset":      offset,
			"total_items": total,
		},
	})
}

func (s *Server) handleGetDuplicateGroup(c echo.Context) error {
	groupID, err := parseIDParam(c, "group_id")
	if err != nil {
		return failValidation(c, map[string]string{"group_id": err.Error()})
	}

	group, err := s.pool.GetDuplicateGroup(c.Request().Context(), groupID)
	if err != nil {
		if errors.Is(err, db.ErrNoRows) {
			return failNotFound(c, "Duplicate group not found")
		}
		s.logger.Error().Err(err).Int64("group_id", groupID).Msg("load duplicate group failed")
		return internalError(c, "Failed to load duplicate group")
	}
	return success(c, map[string]any{"group": group})
}

func (s *Server) handleMergeDuplicateGroup(c echo.Context) error {
	principal, ok := principalFromContext(c)
	if !ok {
		return unauthorizedResponse(c)
	}
	groupID, err := parseIDParam(c, "group_id")
	if err != nil {
		return failValidation(c, map[string]string{"group_id": err.Error()})
	}

	group, err := s.pool.MergeDuplicateGroup(c.Request().Context(), groupID, principal.UserID, globaltime.UTC())
	if err != nil {
		if errors.Is(err, db.ErrNoRows) {
			return failNotFound(c, "Duplicate group not found")
		}
		if strings.Contains(err.Error(), "already") {
			return failValidation(c, map[string]string{"group": err.Error()})
		}
		s.logger.Error().Err(err).Int64("group_id", groupID).Msg("merge duplicate group failed")
		return internalError(c, "Failed to merge duplicate group")
	}
	return success(c, map[string]any{"group": group})
}

func (s *Server) handleDismissDuplicateGroup(c echo.Context) error {
	principal, ok := principalFromContext(c)
	if !ok {
		return unauthorizedResponse(c)
	}
	groupID, err := parseIDParam(c, "group_id")
	if err != nil {
		return failValidation(c, map[string]string{"group_id": err.Error()})
	}

	group, err := s.pool.DismissDuplicateGroup(c.Request().Context(), groupID, principal.UserID, globaltime.UTC())
	if err != nil {
		if errors.Is(err, db.ErrNoRows) {
			return failNotFound(c, "Duplicate group not found")
		}
		if strings.Contains(err.Error(), "already") {
			return failValidation(c, map[string]string{"group": err.Error()})
		}
		s.logger.Error().Err(err).Int64("group_id", groupID).Msg("dismiss duplicate group failed")
		return internalError(c, "Failed to dismiss duplicate group")
	}
	return success(c, map[string]any{"group": group})
}

func (s *Server) handleCronDedup(c echo.Context) error {
	return s.handleDetectDuplicates(c)
}

func (s *Server) handleCronSessionCleanup(c echo.Context) error {
	removed, err := s.pool.DeleteExpiredSessions(c.Request().Context(), globaltime.UTC())
	if err != nil {
		s.logger.Error().Err(err).Msg("session cleanup failed")
		return internalError(c, "Session cleanup failed")
	}
	return success(c, map[string]any{"sessions_removed": removed})
}
