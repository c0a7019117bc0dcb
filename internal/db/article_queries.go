package db

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Article lifecycle states.
const (
	ArticleStatusDraft     = "draft"
	ArticleStatusReview    = "review"
	ArticleStatusPublished = "published"
	ArticleStatusArchived  = "archived"
)

// allowedArticleTransitions holds the editorial workflow edges.
var allowedArticleTransitions = map[string][]string{
	ArticleStatusDraft:     {ArticleStatusReview, ArticleStatusArchived},
	ArticleStatusReview:    {ArticleStatusDraft, ArticleStatusPublished, ArticleStatusArchived},
	ArticleStatusPublished: {ArticleStatusArchived},
	ArticleStatusArchived:  {ArticleStatusDraft},
}

// NormalizeArticleStatus lowercases a status and returns "" for unknown ones.
func NormalizeArticleStatus(raw string) string {
	status := strings.ToLower(strings.TrimSpace(raw))
	switch status {
	case ArticleStatusDraft, ArticleStatusReview, ArticleStatusPublished, ArticleStatusArchived:
		return status
	default:
		return ""
	}
}

// ArticleTransitionAllowed reports whether the workflow permits from -> to.
func ArticleTransitionAllowed(from, to string) bool {
	for _, next := range allowedArticleTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type ArticleRecord struct {
	ArticleID     int64      `json:"article_id"`
	ArticleUUID   string     `json:"article_uuid"`
	Title         string     `json:"title"`
	Slug          string     `json:"slug"`
	Summary       *string    `json:"summary,omitempty"`
	Content       string     `json:"content"`
	Language      string     `json:"language"`
	Status        string     `json:"status"`
	CategoryID    *int64     `json:"category_id,omitempty"`
	CategorySlug  *string    `json:"category_slug,omitempty"`
	AuthorID      int64      `json:"author_id"`
	AuthorName    string     `json:"author_name"`
	Tags          []string   `json:"tags"`
	PublishedAt   *time.Time `json:"published_at,omitempty"`
	Views         int64      `json:"views"`
	Likes         int64      `json:"likes"`
	Shares        int64      `json:"shares"`
	Comments      int64      `json:"comments"`
	TrendingScore float64    `json:"trending_score"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

type ArticleFilter struct {
	Status     string
	CategoryID *int64
	AuthorID   *int64
	Search     string
	Limit      int
	Offset     int
}

type NewArticle struct {
	Title      string
	Slug       string
	Summary    *string
	Content    string
	Language   string
	CategoryID *int64
	AuthorID   int64
}

type ArticleUpdate struct {
	Title      string
	Slug       string
	Summary    *string
	Content    string
	Language   string
	CategoryID *int64
}

const articleColumns = `
	a.article_id,
	a.article_uuid::text,
	a.title,
	a.slug,
	a.summary,
	a.content,
	a.language,
	a.status,
	a.category_id,
	c.slug,
	a.author_id,
	u.username,
	COALESCE((
		SELECT string_agg(t.slug, ',' ORDER BY t.slug)
		FROM cms.article_tags at
		JOIN cms.tags t ON t.tag_id = at.tag_id
		WHERE at.article_id = a.article_id
	), ''),
	a.published_at,
	a.views,
	a.likes,
	a.shares,
	a.comments,
	a.trending_score,
	a.created_at,
	a.updated_at
`

func scanArticle(scan func(dest ...any) error) (*ArticleRecord, error) {
	var (
		rec     ArticleRecord
		tagCSV  string
		catSlug *string
	)
	if err := scan(
		&rec.ArticleID,
		&rec.ArticleUUID,
		&rec.Title,
		&rec.Slug,
		&rec.Summary,
		&rec.Content,
		&rec.Language,
		&rec.Status,
		&rec.CategoryID,
		&catSlug,
		&rec.AuthorID,
		&rec.AuthorName,
		&tagCSV,
		&rec.PublishedAt,
		&rec.Views,
		&rec.Likes,
		&rec.Shares,
		&rec.Comments,
		&rec.TrendingScore,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	); err != nil {
		return nil, err
	}
	rec.CategorySlug = catSlug
	rec.Tags = splitTagCSV(tagCSV)
	return &rec, nil
}

func splitTagCSV(csv string) []string {
	if strings.TrimSpace(csv) == "" {
		return []string{}
	}
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if tag := strings.TrimSpace(part); tag != "" {
			out = append(out, tag)
		}
	}
	return out
}

func parseIDCSV(csv string) []int64 {
	if strings.TrimSpace(csv) == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	out := make([]int64, 0, len(parts))
	for _, part := range parts {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil || id <= 0 {
			continue
		}
		out = append(out, id)
	}
	return out
}

func (p *Pool) GetArticle(ctx context.Context, articleID int64) (*ArticleRecord, error) {
	q := `
SELECT ` + articleColumns + `
FROM cms.articles a
LEFT JOIN cms.categories c ON c.category_id = a.category_id
JOIN cms.users u ON u.user_id = a.author_id
WHERE a.article_id = $1
	AND a.deleted_at IS NULL
LIMIT 1
`

	rec, err := scanArticle(p.QueryRow(ctx, q, articleID).Scan)
	if err != nil {
		if IsNoRows(err) {
			return nil, ErrNoRows
		}
		return nil, fmt.Errorf("query article: %w", err)
	}
	return rec, nil
}

func (p *Pool) ListArticles(ctx context.Context, filter ArticleFilter) ([]ArticleRecord, int64, error) {
	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	where := []string{"a.deleted_at IS NULL"}
	args := []any{}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if status := NormalizeArticleStatus(filter.Status); status != "" {
		where = append(where, "a.status = "+arg(status))
	}
	if filter.CategoryID != nil {
		where = append(where, "a.category_id = "+arg(*filter.CategoryID))
	}
	if filter.AuthorID != nil {
		where = append(where, "a.author_id = "+arg(*filter.AuthorID))
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		ph := arg(search)
		where = append(where, "(a.title ILIKE '%' || "+ph+" || '%' OR a.slug ILIKE '%' || "+ph+" || '%')")
	}

	whereSQL := strings.Join(where, "\n\tAND ")

	countQ := `
SELECT COUNT(*)
FROM cms.articles a
WHERE ` + whereSQL

	var total int64
	if err := p.QueryRow(ctx, countQ, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count articles: %w", err)
	}

	listQ := `
SELECT ` + articleColumns + `
FROM cms.articles a
LEFT JOIN cms.categories c ON c.category_id = a.category_id
JOIN cms.users u ON u.user_id = a.author_id
WHERE ` + whereSQL + `
ORDER BY a.updated_at DESC, a.article_id DESC
LIMIT ` + arg(limit) + ` OFFSET ` + arg(offset)

	rows, err := p.Query(ctx, listQ, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query articles: %w", err)
	}
	defer rows.Close()

	out := make([]ArticleRecord, 0, limit)
	for rows.Next() {
		rec, err := scanArticle(rows.Scan)
		if err != nil {
			return nil, 0, fmt.Errorf("scan article row: %w", err)
		}
		out = append(out, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate article rows: %w", err)
	}
	return out, total, nil
}

func (p *Pool) CreateArticle(ctx context.Context, input NewArticle) (*ArticleRecord, error) {
	const q = `
INSERT INTO cms.articles (
	title,
	slug,
	summary,
	content,
	language,
	status,
	category_id,
	author_id
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING article_id
`

	language := strings.TrimSpace(input.Language)
	if language == "" {
		language = "und"
	}

	var articleID int64
	if err := p.QueryRow(
		ctx,
		q,
		strings.TrimSpace(input.Title),
		normalizeSlug(input.Slug),
		input.Summary,
		input.Content,
		language,
		ArticleStatusDraft,
		input.CategoryID,
		input.AuthorID,
	).Scan(&articleID); err != nil {
		return nil, fmt.Errorf("insert article: %w", err)
	}
	return p.GetArticle(ctx, articleID)
}

func (p *Pool) UpdateArticle(ctx context.Context, articleID int64, input ArticleUpdate) (*ArticleRecord, error) {
	const q = `
UPDATE cms.articles
SET
	title = $2,
	slug = $3,
	summary = $4,
	content = $5,
	language = $6,
	category_id = $7,
	updated_at = now()
WHERE article_id = $1
	AND deleted_at IS NULL
`

	language := strings.TrimSpace(input.Language)
	if language == "" {
		language = "und"
	}

	tag, err := p.Exec(
		ctx,
		q,
		articleID,
		strings.TrimSpace(input.Title),
		normalizeSlug(input.Slug),
		input.Summary,
		input.Content,
		language,
		input.CategoryID,
	)
	if err != nil {
		return nil, fmt.Errorf("update article: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNoRows
	}
	return p.GetArticle(ctx, articleID)
}

// SetArticleStatus moves an article through the workflow. The first publish
// stamps published_at; republishing after archive keeps the original stamp.
func (p *Pool) SetArticleStatus(ctx context.Context, articleID int64, status string, now time.Time) (*ArticleRecord, error) {
	const q = `
UPDATE cms.articles
SET
	status = $2,
	published_at = CASE
		WHEN $2 = 'published' AND published_at IS NULL THEN $3
		ELSE published_at
	END,
	updated_at = now()
WHERE article_id = $1
	AND deleted_at IS NULL
`

	tag, err := p.Exec(ctx, q, articleID, status, now.UTC())
	if err != nil {
		return nil, fmt.Errorf("set article status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNoRows
	}
	return p.GetArticle(ctx, articleID)
}

func (p *Pool) SoftDeleteArticle(ctx context.Context, articleID int64) error {
	const q = `
UPDATE cms.articles
SET deleted_at = now(), updated_at = now()
WHERE article_id = $1
	AND deleted_at IS NULL
`

	tag, err := p.Exec(ctx, q, articleID)
	if err != nil {
		return fmt.Errorf("soft delete article: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNoRows
	}
	return nil
}

// RestoreArticle clears the soft-delete marker.
func (p *Pool) RestoreArticle(ctx context.Context, articleID int64) error {
	const q = `
UPDATE cms.articles
SET deleted_at = NULL, updated_at = now()
WHERE article_id = $1
	AND deleted_at IS NOT NULL
`

	tag, err := p.Exec(ctx, q, articleID)
	if err != nil {
		return fmt.Errorf("restore article: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNoRows
	}
	return nil
}

func (p *Pool) SetArticleCategory(ctx context.Context, articleID int64, categoryID *int64) error {
	const q = `
UPDATE cms.articles
SET category_id = $2, updated_at = now()
WHERE article_id = $1
	AND deleted_at IS NULL
`

	tag, err := p.Exec(ctx, q, articleID, categoryID)
	if err != nil {
		return fmt.Errorf("set article category: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNoRows
	}
	return nil
}

// SetArticleTags replaces the article's tag links with the given tag IDs.
func (p *Pool) SetArticleTags(ctx context.Context, articleID int64, tagIDs []int64) error {
	tx, err := p.BeginTx(ctx, TxOptions{})
	if err != nil {
		return fmt.Errorf("begin article tags tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM cms.article_tags WHERE article_id = $1`, articleID); err != nil {
		return fmt.Errorf("clear article tags: %w", err)
	}

	const insertQ = `
INSERT INTO cms.article_tags (article_id, tag_id)
VALUES ($1, $2)
ON CONFLICT DO NOTHING
`
	for _, tagID := range tagIDs {
		if _, err := tx.Exec(ctx, insertQ, articleID, tagID); err != nil {
			return fmt.Errorf("link article tag %d: %w", tagID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit article tags tx: %w", err)
	}
	return nil
}
