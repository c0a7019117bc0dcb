package httpapi

import (
	"github.com/labstack/echo/v4"

	"horse.fit/newsdesk/internal/globaltime"
)

func (s *Server) handleAnalyticsOverview(c echo.Context) error {
	stats, err := s.pool.GetOverviewStats(c.Request().Context(), globaltime.UTC())
	if err != nil {
		s.logger.Error().Err(err).Msg("load overview stats failed")
		return internalError(c, "Failed to load overview stats")
	}
	return success(c, map[string]any{"overview": stats})
}

func (s *Server) handleAnalyticsArticles(c echo.Context) error {
	limit, err := parsePositiveInt(c.QueryParam("limit"), 10, 1, 100)
	if err != nil {
		return failValidation(c, map[string]string{"limit": err.Error()})
	}

	articles, err := s.pool.ListTopArticles(c.Request().Context(), limit)
	if err != nil {
		s.logger.Error().Err(err).Msg("load top articles failed")
		return internalError(c, "Failed to load article stats")
	}
	return success(c, map[string]any{"items": articles})
}

func (s *Server) handleAnalyticsEngagement(c echo.Context) error {
	days, err := parsePositiveInt(c.QueryParam("days"), 14, 1, 90)
	if err != nil {
		return failValidation(c, map[string]string{"days": err.Error()})
	}

	buckets, err := s.pool.ListEngagementDaily(c.Request().Context(), days, globaltime.UTC())
	if err != nil {
		s.logger.Error().Err(err).Msg("load engagement buckets failed")
		return internalError(c, "Failed to load engagement stats")
	}
	return success(c, map[string]any{
		"days":    days,
		"buckets": buckets,
	})
}
