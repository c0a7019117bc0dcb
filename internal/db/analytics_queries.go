package db

import (
	"context"
	"fmt"
	"time"
)

type OverviewStats struct {
	ArticlesTotal      int64            `json:"articles_total"`
	ArticlesByStatus   map[string]int64 `json:"articles_by_status"`
	NewsItemsTotal     int64            `json:"news_items_total"`
	NewsItemsProcessed int64            `json:"news_items_processed"`
	OpenDuplicates     int64            `json:"open_duplicate_groups"`
	UsersTotal         int64            `json:"users_total"`
	EventsLast24h      int64            `json:"events_last_24h"`
	EventsLast7d       int64            `json:"events_last_7d"`
	PointsAwarded      int64            `json:"points_awarded_total"`
}

func (p *Pool) GetOverviewStats(ctx context.Context, now time.Time) (*OverviewStats, error) {
	stats := &OverviewStats{
		ArticlesByStatus: make(map[string]int64, 4),
	}

	const statusQ = `
SELECT status, COUNT(*)
FROM cms.articles
WHERE deleted_at IS NULL
GROUP BY status
`
	rows, err := p.Query(ctx, statusQ)
	if err != nil {
		return nil, fmt.Errorf("query article status counts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			status string
			count  int64
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan article status count: %w", err)
		}
		stats.ArticlesByStatus[status] = count
		stats.ArticlesTotal += count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate article status counts: %w", err)
	}

	const newsQ = `
SELECT
	COUNT(*),
	COUNT(*) FILTER (WHERE processed)
FROM cms.news_items
WHERE deleted_at IS NULL
`
	if err := p.QueryRow(ctx, newsQ).Scan(&stats.NewsItemsTotal, &stats.NewsItemsProcessed); err != nil {
		return nil, fmt.Errorf("query news counts: %w", err)
	}

	const groupsQ = `
SELECT COUNT(*)
FROM cms.duplicate_groups
WHERE status = 'open'
`
	if err := p.QueryRow(ctx, groupsQ).Scan(&stats.OpenDuplicates); err != nil {
		return nil, fmt.Errorf("query open group count: %w", err)
	}

	if stats.UsersTotal, err = p.CountUsers(ctx); err != nil {
		return nil, err
	}

	const eventsQ = `
SELECT
	COUNT(*) FILTER (WHERE created_at >= $1),
	COUNT(*) FILTER (WHERE created_at >= $2)
FROM cms.engagement_events
`
	utcNow := now.UTC()
	if err := p.QueryRow(ctx, eventsQ, utcNow.Add(-24*time.Hour), utcNow.Add(-7*24*time.Hour)).Scan(
		&stats.EventsLast24h,
		&stats.EventsLast7d,
	); err != nil {
		return nil, fmt.Errorf("query event counts: %w", err)
	}

	const pointsQ = `
SELECT COALESCE(SUM(points), 0)
FROM cms.point_transactions
`
	if err := p.QueryRow(ctx, pointsQ).Scan(&stats.PointsAwarded); err != nil {
		return nil, fmt.Errorf("query points total: %w", err)
	}

	return stats, nil
}

type TopArticleStat struct {
	ArticleID     int64      `json:"article_id"`
	Title         string     `json:"title"`
	Slug          string     `json:"slug"`
	Status        string     `json:"status"`
	Views         int64      `json:"views"`
	Likes         int64      `json:"likes"`
	Shares        int64      `json:"shares"`
	Comments      int64      `json:"comments"`
	TrendingScore float64    `json:"trending_score"`
	PublishedAt   *time.Time `json:"published_at,omitempty"`
}

func (p *Pool) ListTopArticles(ctx context.Context, limit int) ([]TopArticleStat, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}

	const q = `
SELECT
	article_id,
	title,
	slug,
	status,
	views,
	likes,
	shares,
	comments,
	trending_score,
	published_at
FROM cms.articles
WHERE deleted_at IS NULL
ORDER BY views DESC, article_id DESC
LIMIT $1
`

	rows, err := p.Query(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("query top articles: %w", err)
	}
	defer rows.Close()

	out := make([]TopArticleStat, 0, limit)
	for rows.Next() {
		var rec TopArticleStat
		if err := rows.Scan(
			&rec.ArticleID,
			&rec.Title,
			&rec.Slug,
			&rec.Status,
			&rec.Views,
			&rec.Likes,
			&rec.Shares,
			&rec.Comments,
			&rec.TrendingScore,
			&rec.PublishedAt,
		); err != nil {
			return nil, fmt.Errorf("scan top article: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate top articles: %w", err)
	}
	return out, nil
}

type EngagementBucket struct {
	Day      time.Time `json:"day"`
	Views    int64     `json:"views"`
	Likes    int64     `json:"likes"`
	Shares   int64     `json:"shares"`
	Comments int64     `json:"comments"`
}

// ListEngagementDaily buckets events per UTC day for the last N days.
func (p *Pool) ListEngagementDaily(ctx context.Context, days int, now time.Time) ([]EngagementBucket, error) {
	if days <= 0 || days > 90 {
		days = 14
	}

	const q = `
SELECT
	date_trunc('day', created_at AT TIME ZONE 'UTC') AS day,
	COUNT(*) FILTER (WHERE action = 'view'),
	COUNT(*) FILTER (WHERE action = 'like'),
	COUNT(*) FILTER (WHERE action = 'share'),
	COUNT(*) FILTER (WHERE action = 'comment')
FROM cms.engagement_events
WHERE created_at >= $1
GROUP BY day
ORDER BY day ASC
`

	since := now.UTC().AddDate(0, 0, -days)
	rows, err := p.Query(ctx, q, since)
	if err != nil {
		return nil, fmt.Errorf("query engagement buckets: %w", err)
	}
	defer rows.Close()

	out := make([]EngagementBucket, 0, days)
	for rows.Next() {
		var rec EngagementBucket
		if err := rows.Scan(&rec.Day, &rec.Views, &rec.Likes, &rec.Shares, &rec.Comments); err != nil {
			return nil, fmt.Errorf("scan engagement bucket: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate engagement buckets: %w", err)
	}
	return out, nil
}
