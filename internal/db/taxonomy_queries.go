package db

import (
	"context"
	"fmt"
	"strings"
	"time"
)

type CategoryRecord struct {
	CategoryID   int64     `json:"category_id"`
	CategoryUUID string    `json:"category_uuid"`
	Slug         string    `json:"slug"`
	Name         string    `json:"name"`
	Description  *string   `json:"description,omitempty"`
	SortOrder    int       `json:"sort_order"`
	Enabled      bool      `json:"enabled"`
	ArticleCount int64     `json:"article_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type TagRecord struct {
	TagID     int64     `json:"tag_id"`
	TagUUID   string    `json:"tag_uuid"`
	Slug      string    `json:"slug"`
	Name      string    `json:"name"`
	UseCount  int64     `json:"use_count"`
	CreatedAt time.Time `json:"created_at"`
}

const categoryColumns = `
	c.category_id,
	c.category_uuid::text,
	c.slug,
	c.name,
	c.description,
	c.sort_order,
	c.enabled,
	(
		SELECT COUNT(*)
		FROM cms.articles a
		WHERE a.category_id = c.category_id
			AND a.deleted_at IS NULL
	),
	c.created_at,
	c.updated_at
`

func scanCategory(row *Row) (*CategoryRecord, error) {
	var rec CategoryRecord
	if err := row.Scan(
		&rec.CategoryID,
		&rec.CategoryUUID,
		&rec.Slug,
		&rec.Name,
		&rec.Description,
		&rec.SortOrder,
		&rec.Enabled,
		&rec.ArticleCount,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (p *Pool) ListCategories(ctx context.Context, includeDisabled bool) ([]CategoryRecord, error) {
	q := `
SELECT ` + categoryColumns + `
FROM cms.categories c
WHERE c.deleted_at IS NULL
`
	if !includeDisabled {
		q += ` AND c.enabled`
	}
	q += `
ORDER BY c.sort_order ASC, c.name ASC
`

	rows, err := p.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	out := make([]CategoryRecord, 0, 16)
	for rows.Next() {
		var rec CategoryRecord
		if err := rows.Scan(
			&rec.CategoryID,
			&rec.CategoryUUID,
			&rec.Slug,
			&rec.Name,
			&rec.Description,
			&rec.SortOrder,
			&rec.Enabled,
			&rec.ArticleCount,
			&rec.CreatedAt,
			&rec.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan category row: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate category rows: %w", err)
	}
	return out, nil
}

func (p *Pool) GetCategory(ctx context.Context, categoryID int64) (*CategoryRecord, error) {
	q := `
SELECT ` + categoryColumns + `
FROM cms.categories c
WHERE c.category_id = $1
	AND c.deleted_at IS NULL
LIMIT 1
`

	rec, err := scanCategory(p.QueryRow(ctx, q, categoryID))
	if err != nil {
		if IsNoRows(err) {
			return nil, ErrNoRows
		}
		return nil, fmt.Errorf("query category: %w", err)
	}
	return rec, nil
}

func (p *Pool) GetCategoryBySlug(ctx context.Context, slug string) (*CategoryRecord, error) {
	q := `
SELECT ` + categoryColumns + `
FROM cms.categories c
WHERE c.slug = $1
	AND c.deleted_at IS NULL
LIMIT 1
`

	rec, err := scanCategory(p.QueryRow(ctx, q, normalizeSlug(slug)))
	if err != nil {
		if IsNoRows(err) {
			return nil, ErrNoRows
		}
		return nil, fmt.Errorf("query category by slug: %w", err)
	}
	return rec, nil
}

func (p *Pool) CreateCategory(ctx context.Context, slug, name string, description *string, sortOrder int) (*CategoryRecord, error) {
	const q = `
INSERT INTO cms.categories (slug, name, description, sort_order)
VALUES ($1, $2, $3, $4)
RETURNING category_id
`

	var categoryID int64
	if err := p.QueryRow(ctx, q, normalizeSlug(slug), strings.TrimSpace(name), description, sortOrder).Scan(&categoryID); err != nil {
		return nil, fmt.Errorf("insert category: %w", err)
	}
	return p.GetCategory(ctx, categoryID)
}

func (p *Pool) UpdateCategory(
	ctx context.Context,
	categoryID int64,
	slug, name string,
	description *string,
	enabled bool,
) (*CategoryRecord, error) {
	const q = `
UPDATE cms.categories
SET
	slug = $2,
	name = $3,
	description = $4,
	enabled = $5,
	updated_at = now()
WHERE category_id = $1
	AND deleted_at IS NULL
`

	tag, err := p.Exec(ctx, q, categoryID, normalizeSlug(slug), strings.TrimSpace(name), description, enabled)
	if err != nil {
		return nil, fmt.Errorf("update category: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNoRows
	}
	return p.GetCategory(ctx, categoryID)
}

// ReorderCategories assigns sort_order by position in the given ID list.
// Unknown IDs are ignored; the count of updated rows is returned.
func (p *Pool) ReorderCategories(ctx context.Context, orderedIDs []int64) (int64, error) {
	if len(orderedIDs) == 0 {
		return 0, nil
	}

	tx, err := p.BeginTx(ctx, TxOptions{})
	if err != nil {
		return 0, fmt.Errorf("begin reorder tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	const q = `
UPDATE cms.categories
SET sort_order = $2, updated_at = now()
WHERE category_id = $1
	AND deleted_at IS NULL
`

	var updated int64
	for position, categoryID := range orderedIDs {
		tag, err := tx.Exec(ctx, q, categoryID, position)
		if err != nil {
			return 0, fmt.Errorf("reorder category %d: %w", categoryID, err)
		}
		updated += tag.RowsAffected()
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit reorder tx: %w", err)
	}
	return updated, nil
}

func (p *Pool) SoftDeleteCategory(ctx context.Context, categoryID int64) error {
	tx, err := p.BeginTx(ctx, TxOptions{})
	if err != nil {
		return fmt.Errorf("begin category delete tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	const detachArticles = `
UPDATE cms.articles
SET category_id = NULL, updated_at = now()
WHERE category_id = $1
`
	if _, err := tx.Exec(ctx, detachArticles, categoryID); err != nil {
		return fmt.Errorf("detach articles from category: %w", err)
	}

	const detachNews = `
UPDATE cms.news_items
SET category_id = NULL, updated_at = now()
WHERE category_id = $1
`
	if _, err := tx.Exec(ctx, detachNews, categoryID); err != nil {
		return fmt.Errorf("detach news items from category: %w", err)
	}

	const q = `
UPDATE cms.categories
SET deleted_at = now(), updated_at = now()
WHERE category_id = $1
	AND deleted_at IS NULL
`
	tag, err := tx.Exec(ctx, q, categoryID)
	if err != nil {
		return fmt.Errorf("soft delete category: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNoRows
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit category delete tx: %w", err)
	}
	return nil
}

func (p *Pool) ListTags(ctx context.Context, search string, limit int) ([]TagRecord, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	q := `
SELECT
	t.tag_id,
	t.tag_uuid::text,
	t.slug,
	t.name,
	(
		SELECT COUNT(*) FROM cms.article_tags at WHERE at.tag_id = t.tag_id
	) + (
		SELECT COUNT(*) FROM cms.news_item_tags nt WHERE nt.tag_id = t.tag_id
	),
	t.created_at
FROM cms.tags t
`
	args := []any{}
	if trimmed := strings.TrimSpace(search); trimmed != "" {
		q += `WHERE t.slug ILIKE '%' || $1 || '%' OR t.name ILIKE '%' || $1 || '%'
`
		args = append(args, trimmed)
	}
	q += fmt.Sprintf("ORDER BY t.slug ASC\nLIMIT %d", limit)

	rows, err := p.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query tags: %w", err)
	}
	defer rows.Close()

	out := make([]TagRecord, 0, limit)
	for rows.Next() {
		var rec TagRecord
		if err := rows.Scan(
			&rec.TagID,
			&rec.TagUUID,
			&rec.Slug,
			&rec.Name,
			&rec.UseCount,
			&rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan tag row: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tag rows: %w", err)
	}
	return out, nil
}

func (p *Pool) GetTag(ctx context.Context, tagID int64) (*TagRecord, error) {
	const q = `
SELECT
	t.tag_id,
	t.tag_uuid::text,
	t.slug,
	t.name,
	(
		SELECT COUNT(*) FROM cms.article_tags at WHERE at.tag_id = t.tag_id
	) + (
		SELECT COUNT(*) FROM cms.news_item_tags nt WHERE nt.tag_id = t.tag_id
	),
	t.created_at
FROM cms.tags t
WHERE t.tag_id = $1
LIMIT 1
`

	var rec TagRecord
	if err := p.QueryRow(ctx, q, tagID).Scan(
		&rec.TagID,
		&rec.TagUUID,
		&rec.Slug,
		&rec.Name,
		&rec.UseCount,
		&rec.CreatedAt,
	); err != nil {
		if IsNoRows(err) {
			return nil, ErrNoRows
		}
		return nil, fmt.Errorf("query tag: %w", err)
	}
	return &rec, nil
}

// EnsureTag inserts a tag if its slug is new and returns the row either way.
func (p *Pool) EnsureTag(ctx context.Context, name string) (*TagRecord, error) {
	slug := normalizeSlug(name)
	if slug == "" {
		return nil, fmt.Errorf("tag name is empty")
	}

	const q = `
INSERT INTO cms.tags (slug, name)
VALUES ($1, $2)
ON CONFLICT (slug) DO UPDATE SET name = cms.tags.name
RETURNING tag_id
`

	var tagID int64
	if err := p.QueryRow(ctx, q, slug, strings.TrimSpace(name)).Scan(&tagID); err != nil {
		return nil, fmt.Errorf("ensure tag: %w", err)
	}
	return p.GetTag(ctx, tagID)
}

func (p *Pool) UpdateTag(ctx context.Context, tagID int64, slug, name string) (*TagRecord, error) {
	const q = `
UPDATE cms.tags
SET slug = $2, name = $3
WHERE tag_id = $1
`

	tag, err := p.Exec(ctx, q, tagID, normalizeSlug(slug), strings.TrimSpace(name))
	if err != nil {
		return nil, fmt.Errorf("update tag: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNoRows
	}
	return p.GetTag(ctx, tagID)
}

func (p *Pool) DeleteTag(ctx context.Context, tagID int64) error {
	tx, err := p.BeginTx(ctx, TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tag delete tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM cms.article_tags WHERE tag_id = $1`, tagID); err != nil {
		return fmt.Errorf("delete article tag links: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM cms.news_item_tags WHERE tag_id = $1`, tagID); err != nil {
		return fmt.Errorf("delete news tag links: %w", err)
	}

	tag, err := tx.Exec(ctx, `DELETE FROM cms.tags WHERE tag_id = $1`, tagID)
	if err != nil {
		return fmt.Errorf("delete tag: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNoRows
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tag delete tx: %w", err)
	}
	return nil
}

// MergeTags repoints every use of sourceID onto targetID and removes the
// source tag. Links that would collide with an existing target link are
// dropped instead of duplicated.
func (p *Pool) MergeTags(ctx context.Context, sourceID, targetID int64) (*TagRecord, error) {
	if sourceID == targetID {
		return nil, fmt.Errorf("cannot merge a tag into itself")
	}

	if _, err := p.GetTag(ctx, targetID); err != nil {
		return nil, err
	}

	tx, err := p.BeginTx(ctx, TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("begin tag merge tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	const moveArticleLinks = `
INSERT INTO cms.article_tags (article_id, tag_id)
SELECT article_id, $2
FROM cms.article_tags
WHERE tag_id = $1
ON CONFLICT DO NOTHING
`
	if _, err := tx.Exec(ctx, moveArticleLinks, sourceID, targetID); err != nil {
		return nil, fmt.Errorf("move article tag links: %w", err)
	}

	const moveNewsLinks = `
INSERT INTO cms.news_item_tags (news_id, tag_id)
SELECT news_id, $2
FROM cms.news_item_tags
WHERE tag_id = $1
ON CONFLICT DO NOTHING
`
	if _, err := tx.Exec(ctx, moveNewsLinks, sourceID, targetID); err != nil {
		return nil, fmt.Errorf("move news tag links: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM cms.article_tags WHERE tag_id = $1`, sourceID); err != nil {
		return nil, fmt.Errorf("clear source article links: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM cms.news_item_tags WHERE tag_id = $1`, sourceID); err != nil {
		return nil, fmt.Errorf("clear source news links: %w", err)
	}

	tag, err := tx.Exec(ctx, `DELETE FROM cms.tags WHERE tag_id = $1`, sourceID)
	if err != nil {
		return nil, fmt.Errorf("delete source tag: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNoRows
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tag merge tx: %w", err)
	}
	return p.GetTag(ctx, targetID)
}

func normalizeSlug(raw string) string {
	slug := strings.ToLower(strings.TrimSpace(raw))
	var b strings.Builder
	b.Grow(len(slug))
	lastHyphen := true
	for _, r := range slug {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}
