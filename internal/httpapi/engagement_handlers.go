package httpapi

import (
	"errors"

	"github.com/labstack/echo/v4"

	"horse.fit/newsdesk/internal/db"
	"horse.fit/newsdesk/internal/metrics"
	"horse.fit/newsdesk/internal/points"
)

type engageRequest struct {
	EntityType string `json:"entity_type"`
	EntityID   int64  `json:"entity_id"`
	Action     string `json:"action"`
}

func (s *Server) handleEngage(c echo.Context) error {
	var req engageRequest
	if err := decodeJSONBody(c, &req); err != nil {
		return failValidation(c, map[string]string{"body": err.Error()})
	}

	entityType := db.NormalizeEntityType(req.EntityType)
	if entityType == "" {
		return failValidation(c, map[string]string{"entity_type": "must be one of article, news"})
	}
	action := points.NormalizeAction(req.Action)
	if action == "" {
		return failValidation(c, map[string]string{"action": "must be one of view, like, share, comment"})
	}
	if req.EntityID <= 0 {
		return failValidation(c, map[string]string{"entity_id": "must be a positive integer"})
	}

	// Views and comments are open to anonymous visitors; likes and shares
	// need an account so the once-per-user rule can hold.
	principal, signedIn := principalFromContext(c)
	var userID *int64
	if signedIn {
		userID = &principal.UserID
	} else if action == points.ActionLike || action == points.ActionShare {
		return unauthorizedResponse(c)
	}

	ctx := c.Request().Context()
	inserted, err := s.pool.RecordEngagement(ctx, entityType, req.EntityID, action, userID)
	if err != nil {
		if errors.Is(err, db.ErrNoRows) {
			return failNotFound(c, "Entity not found")
		}
		s.logger.Error().Err(err).
			Str("entity_type", entityType).
			Int64("entity_id", req.EntityID).
			Str("action", action).
			Msg("record engagement failed")
		return internalError(c, "Failed to record engagement")
	}

	pointsAwarded := 0
	if inserted && signedIn {
		if rule, ok := points.RuleFor(action); ok {
			if err := s.pool.InsertPointTransaction(ctx, principal.UserID, action, rule.Points, &entityType, &req.EntityID); err != nil {
				s.logger.Error().Err(err).
					Int64("user_id", principal.UserID).
					Str("action", action).
					Msg("insert point transaction failed")
			} else {
				pointsAwarded = rule.Points
				metrics.PointsAwardedTotal.WithLabelValues(action).Add(float64(rule.Points))
			}
		}
	}

	return success(c, map[string]any{
		"recorded":       inserted,
		"points_awarded": pointsAwarded,
	})
}

func (s *Server) handleMyPoints(c echo.Context) error {
	principal, ok := principalFromContext(c)
	if !ok {
		return unauthorizedResponse(c)
	}
	limit, err := parsePositiveInt(c.QueryParam("limit"), 50, 1, 200)
	if err != nil {
		return failValidation(c, map[string]string{"limit": err.Error()})
	}

	ctx := c.Request().Context()
	total, err := s.pool.UserLifetimePoints(ctx, principal.UserID)
	if err != nil {
		s.logger.Error().Err(err).Int64("user_id", principal.UserID).Msg("sum points failed")
		return internalError(c, "Failed to load points")
	}
	transactions, err := s.pool.ListPointTransactions(ctx, principal.UserID, limit)
	if err != nil {
		s.logger.Error().Err(err).Int64("user_id", principal.UserID).Msg("list point transactions failed")
		return internalError(c, "Failed to load points")
	}

	return success(c, map[string]any{
		"lifetime_points": total,
		"transactions":    transactions,
	})
}

func (s *Server) handleMyCitizenship(c echo.Context) error {
	principal, ok := principalFromContext(c)
	if !ok {
		return unauthorizedResponse(c)
	}

	total, err := s.pool.UserLifetimePoints(c.Request().Context(), principal.UserID)
	if err != nil {
		s.logger.Error().Err(err).Int64("user_id", principal.UserID).Msg("sum points failed")
		return internalError(c, "Failed to load citizenship progress")
	}

	return success(c, map[string]any{
		"progress": points.ProgressFor(total),
		"levels":   points.AllLevels(),
	})
}
