package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"horse.fit/newsdesk/internal/db"
	"horse.fit/newsdesk/internal/globaltime"
	"horse.fit/newsdesk/internal/metrics"
	"horse.fit/newsdesk/internal/trending"
)

// TrendingReport summarizes one recompute batch.
type TrendingReport struct {
	NewsUpdated     int    `json:"news_updated"`
	ArticlesUpdated int    `json:"articles_updated"`
	Elapsed         string `json:"elapsed"`
}

// RunTrending recomputes trending scores for recent news items and for
// published articles.
func RunTrending(
	ctx context.Context,
	pool *db.Pool,
	logger zerolog.Logger,
	newsLookback time.Duration,
) (*TrendingReport, error) {
	start := globaltime.UTC()
	report := &TrendingReport{}

	newsInputs, err := pool.ListNewsTrendingInputs(ctx, start.Add(-newsLookback))
	if err != nil {
		metrics.TrendingRecomputesTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("load news trending inputs: %w", err)
	}
	for _, input := range newsInputs {
		score := trending.Score(trending.Engagement{
			Views:    input.Views,
			Likes:    input.Likes,
			Shares:   input.Shares,
			Comments: input.Comments,
		}, input.PublishedAt, start)
		if err := pool.SetNewsTrendingScore(ctx, input.ID, score); err != nil {
			metrics.TrendingRecomputesTotal.WithLabelValues("error").Inc()
			return nil, fmt.Errorf("store news trending score: %w", err)
		}
		report.NewsUpdated++
	}

	articleInputs, err := pool.ListArticleTrendingInputs(ctx)
	if err != nil {
		metrics.TrendingRecomputesTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("load article trending inputs: %w", err)
	}
	for _, input := range articleInputs {
		score := trending.Score(trending.Engagement{
			Views:    input.Views,
			Likes:    input.Likes,
			Shares:   input.Shares,
			Comments: input.Comments,
		}, input.PublishedAt, start)
		if err := pool.SetArticleTrendingScore(ctx, input.ID, score); err != nil {
			metrics.TrendingRecomputesTotal.WithLabelValues("error").Inc()
			return nil, fmt.Errorf("store article trending score: %w", err)
		}
		report.ArticlesUpdated++
	}

	report.Elapsed = globaltime.UTC().Sub(start).Round(time.Millisecond).String()
	metrics.TrendingRecomputesTotal.WithLabelValues("ok").Inc()

	logger.Info().
		Int("news_updated", report.NewsUpdated).
		Int("articles_updated", report.ArticlesUpdated).
		Str("elapsed", report.Elapsed).
		Msg("trending recompute finished")

	return report, nil
}
