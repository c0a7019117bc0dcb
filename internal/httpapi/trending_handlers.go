package httpapi

import (
	"sort"
	"time"

	"github.com/labstack/echo/v4"

	"horse.fit/newsdesk/internal/globaltime"
	"horse.fit/newsdesk/internal/jobs"
	"horse.fit/newsdesk/internal/trending"
)

// affinityWindow bounds how far back engagement history counts toward the
// personalized feed.
const affinityWindow = 30 * 24 * time.Hour

func (s *Server) handleTrendingNews(c echo.Context) error {
	limit, err := parsePositiveInt(c.QueryParam("limit"), 20, 1, 100)
	if err != nil {
		return failValidation(c, map[string]string{"limit": err.Error()})
	}

	items, err := s.pool.ListTrendingNews(c.Request().Context(), limit)
	if err != nil {
		s.logger.Error().Err(err).Msg("list trending news failed")
		return internalError(c, "Failed to load trending news")
	}
	return success(c, map[string]any{"items": items})
}

type feedItem struct {
	NewsID            int64      `json:"news_id"`
	Title             string     `json:"title"`
	Summary           *string    `json:"summary,omitempty"`
	URL               *string    `json:"url,omitempty"`
	Source            string     `json:"source"`
	Language          string     `json:"language"`
	CategoryID        *int64     `json:"category_id,omitempty"`
	Tags              []string   `json:"tags"`
	PublishedAt       *time.Time `json:"published_at,omitempty"`
	TrendingScore     float64    `json:"trending_score"`
	PersonalizedScore float64    `json:"personalized_score"`
}

func (s *Server) handleNewsFeed(c echo.Context) error {
	principal, ok := principalFromContext(c)
	if !ok {
		return unauthorizedResponse(c)
	}
	limit, err := parsePositiveInt(c.QueryParam("limit"), 20, 1, 100)
	if err != nil {
		return failValidation(c, map[string]string{"limit": err.Error()})
	}

	ctx := c.Request().Context()
	now := globaltime.UTC()
	since := now.Add(-affinityWindow)

	categoryCounts, err := s.pool.UserCategoryAffinity(ctx, principal.UserID, since)
	if err != nil {
		s.logger.Error().Err(err).Msg("load category affinity failed")
		return internalError(c, "Failed to build feed")
	}
	tagCounts, err := s.pool.UserTagAffinity(ctx, principal.UserID, since)
	if err != nil {
		s.logger.Error().Err(err).Msg("load tag affinity failed")
		return internalError(c, "Failed to build feed")
	}
	prefs := trending.BuildPreferences(categoryCounts, tagCounts)

	// Rank a wider candidate pool than the page, then cut.
	candidates, err := s.pool.ListFeedCandidates(ctx, limit*5)
	if err != nil {
		s.logger.Error().Err(err).Msg("load feed candidates failed")
		return internalError(c, "Failed to build feed")
	}

	items := make([]feedItem, 0, len(candidates))
	for _, cand := range candidates {
		score := trending.PersonalizedScore(trending.FeedItem{
			TrendingScore: cand.TrendingScore,
			CategoryID:    cand.CategoryID,
			TagIDs:        cand.TagIDs,
			PublishedAt:   cand.PublishedAt,
		}, prefs, now)
		items = append(items, feedItem{
			NewsID:            cand.NewsID,
			Title:             cand.Title,
			Summary:           cand.Summary,
			URL:               cand.URL,
			Source:            cand.Source,
			Language:          cand.Language,
			CategoryID:        cand.CategoryID,
			Tags:              cand.Tags,
			PublishedAt:       cand.PublishedAt,
			TrendingScore:     cand.TrendingScore,
			PersonalizedScore: score,
		})
	}
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].PersonalizedScore != items[j].PersonalizedScore {
			return items[i].PersonalizedScore > items[j].PersonalizedScore
		}
		return items[i].NewsID > items[j].NewsID
	})
	if len(items) > limit {
		items = items[:limit]
	}

	return success(c, map[string]any{"items": items})
}

func (s *Server) handleCronTrending(c echo.Context) error {
	report, err := jobs.RunTrending(c.Request().Context(), s.pool, s.logger, s.opts.DedupLookback)
	if err != nil {
		s.logger.Error().Err(err).Msg("trending recompute failed")
		return internalError(c, "Trending recompute failed")
	}
	return success(c, map[string]any{"report": report})
}
