package db

import (
	"context"
	"fmt"
	"time"
)

// TrendingInput carries the counters a recompute needs for one entity.
type TrendingInput struct {
	ID          int64
	Views       int64
	Likes       int64
	Shares      int64
	Comments    int64
	PublishedAt *time.Time
}

// ListNewsTrendingInputs returns counters for live news items fetched after
// the cutoff; older items keep their last computed score.
func (p *Pool) ListNewsTrendingInputs(ctx context.Context, since time.Time) ([]TrendingInput, error) {
	const q = `
SELECT news_id, views, likes, shares, comments, published_at
FROM cms.news_items
WHERE deleted_at IS NULL
	AND fetched_at >= $1
`

	return p.queryTrendingInputs(ctx, q, since.UTC())
}

// ListArticleTrendingInputs returns counters for published articles.
func (p *Pool) ListArticleTrendingInputs(ctx context.Context) ([]TrendingInput, error) {
	const q = `
SELECT article_id, views, likes, shares, comments, published_at
FROM cms.articles
WHERE deleted_at IS NULL
	AND status = 'published'
`

	return p.queryTrendingInputs(ctx, q)
}

func (p *Pool) queryTrendingInputs(ctx context.Context, q string, args ...any) ([]TrendingInput, error) {
	rows, err := p.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query trending inputs: %w", err)
	}
	defer rows.Close()

	out := make([]TrendingInput, 0, 64)
	for rows.Next() {
		var rec TrendingInput
		if err := rows.Scan(
			&rec.ID,
			&rec.Views,
			&rec.Likes,
			&rec.Shares,
			&rec.Comments,
			&rec.PublishedAt,
		); err != nil {
			return nil, fmt.Errorf("scan trending input: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trending inputs: %w", err)
	}
	return out, nil
}

func (p *Pool) SetNewsTrendingScore(ctx context.Context, newsID int64, score float64) error {
	const q = `
UPDATE cms.news_items
SET trending_score = $2, updated_at = now()
WHERE news_id = $1
	AND deleted_at IS NULL
`

	if _, err := p.Exec(ctx, q, newsID, score); err != nil {
		return fmt.Errorf("set news trending score: %w", err)
	}
	return nil
}

func (p *Pool) SetArticleTrendingScore(ctx context.Context, articleID int64, score float64) error {
	const q = `
UPDATE cms.articles
SET trending_score = $2, updated_at = now()
WHERE article_id = $1
	AND deleted_at IS NULL
`

	if _, err := p.Exec(ctx, q, articleID, score); err != nil {
		return fmt.Errorf("set article trending score: %w", err)
	}
	return nil
}

// FeedCandidate is the projection the personalized feed ranks.
type FeedCandidate struct {
	NewsID        int64      `json:"news_id"`
	Title         string     `json:"title"`
	Summary       *string    `json:"summary,omitempty"`
	URL           *string    `json:"url,omitempty"`
	Source        string     `json:"source"`
	Language      string     `json:"language"`
	CategoryID    *int64     `json:"category_id,omitempty"`
	TagIDs        []int64    `json:"-"`
	Tags          []string   `json:"tags"`
	PublishedAt   *time.Time `json:"published_at,omitempty"`
	TrendingScore float64    `json:"trending_score"`
}

// ListFeedCandidates returns the top live news items by trending score with
// the category and tag IDs the ranking needs.
func (p *Pool) ListFeedCandidates(ctx context.Context, limit int) ([]FeedCandidate, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	const q = `
SELECT
	n.news_id,
	n.title,
	n.summary,
	n.url,
	n.source,
	n.language,
	n.category_id,
	COALESCE((
		SELECT string_agg(nt.tag_id::text, ',' ORDER BY nt.tag_id)
		FROM cms.news_item_tags nt
		WHERE nt.news_id = n.news_id
	), ''),
	COALESCE((
		SELECT string_agg(t.slug, ',' ORDER BY t.tag_id)
		FROM cms.news_item_tags nt
		JOIN cms.tags t ON t.tag_id = nt.tag_id
		WHERE nt.news_id = n.news_id
	), ''),
	n.published_at,
	n.trending_score
FROM cms.news_items n
WHERE n.deleted_at IS NULL
	AND (
		n.duplicate_group_id IS NULL
		OR n.news_id IN (
			SELECT g.primary_news_id
			FROM cms.duplicate_groups g
			WHERE g.group_id = n.duplicate_group_id
		)
	)
ORDER BY n.trending_score DESC, n.news_id DESC
LIMIT $1
`

	rows, err := p.Query(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("query feed candidates: %w", err)
	}
	defer rows.Close()

	out := make([]FeedCandidate, 0, limit)
	for rows.Next() {
		var (
			rec       FeedCandidate
			tagIDCSV  string
			tagSlugCS string
		)
		if err := rows.Scan(
			&rec.NewsID,
			&rec.Title,
			&rec.Summary,
			&rec.URL,
			&rec.Source,
			&rec.Language,
			&rec.CategoryID,
			&tagIDCSV,
			&tagSlugCS,
			&rec.PublishedAt,
			&rec.TrendingScore,
		); err != nil {
			return nil, fmt.Errorf("scan feed candidate: %w", err)
		}
		rec.TagIDs = parseIDCSV(tagIDCSV)
		rec.Tags = splitTagCSV(tagSlugCS)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate feed candidates: %w", err)
	}
	return out, nil
}

// ListTrendingNews returns live news items by descending trending score,
// hiding non-primary members of open duplicate groups.
func (p *Pool) ListTrendingNews(ctx context.Context, limit int) ([]NewsRecord, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	q := `
SELECT ` + newsColumns + `
FROM cms.news_items n
WHERE n.deleted_at IS NULL
	AND (
		n.duplicate_group_id IS NULL
		OR n.news_id IN (
			SELECT g.primary_news_id
			FROM cms.duplicate_groups g
			WHERE g.group_id = n.duplicate_group_id
		)
	)
ORDER BY n.trending_score DESC, n.published_at DESC NULLS LAST, n.news_id DESC
LIMIT $1
`

	rows, err := p.Query(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("query trending news: %w", err)
	}
	defer rows.Close()

	out := make([]NewsRecord, 0, limit)
	for rows.Next() {
		rec, err := scanNews(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan trending news row: %w", err)
		}
		out = append(out, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trending news rows: %w", err)
	}
	return out, nil
}
