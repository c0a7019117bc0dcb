package db

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Ingest arrival outcomes recorded in cms.ingest_arrivals.
const (
	ArrivalOutcomeInserted  = "inserted"
	ArrivalOutcomeDuplicate = "duplicate"
	ArrivalOutcomeRejected  = "rejected"
)

type NewsRecord struct {
	NewsID           int64      `json:"news_id"`
	NewsUUID         string     `json:"news_uuid"`
	Source           string     `json:"source"`
	SourceItemID     string     `json:"source_item_id"`
	Title            string     `json:"title"`
	Content          string     `json:"content"`
	Summary          *string    `json:"summary,omitempty"`
	URL              *string    `json:"url,omitempty"`
	Language         string     `json:"language"`
	SourceDomain     *string    `json:"source_domain,omitempty"`
	ImageURL         *string    `json:"image_url,omitempty"`
	CategoryID       *int64     `json:"category_id,omitempty"`
	Tags             []string   `json:"tags"`
	PublishedAt      *time.Time `json:"published_at,omitempty"`
	FetchedAt        time.Time  `json:"fetched_at"`
	Processed        bool       `json:"processed"`
	DuplicateGroupID *int64     `json:"duplicate_group_id,omitempty"`
	Views            int64      `json:"views"`
	Likes            int64      `json:"likes"`
	Shares           int64      `json:"shares"`
	Comments         int64      `json:"comments"`
	TrendingScore    float64    `json:"trending_score"`
	CreatedAt        time.Time  `json:"created_at"`
}

type NewNewsItem struct {
	Source        string
	SourceItemID  string
	Title         string
	Content       string
	Summary       *string
	URL           *string
	NormalizedURL string
	Language      string
	SourceDomain  *string
	ImageURL      *string
	CategoryID    *int64
	PublishedAt   *time.Time
	RawPayload    json.RawMessage
}

type NewsFilter struct {
	Source        string
	Language      string
	CategoryID    *int64
	Processed     *bool
	HideDuplicate bool
	Search        string
	Limit         int
	Offset        int
}

// InsertResult reports what happened to one ingested payload.
type InsertResult struct {
	NewsID    int64  `json:"news_id"`
	NewsUUID  string `json:"news_uuid,omitempty"`
	Outcome   string `json:"outcome"`
	Duplicate bool   `json:"duplicate"`
}

const newsColumns = `
	n.news_id,
	n.news_uuid::text,
	n.source,
	n.source_item_id,
	n.title,
	n.content,
	n.summary,
	n.url,
	n.language,
	n.source_domain,
	n.image_url,
	n.category_id,
	COALESCE((
		SELECT string_agg(t.slug, ',' ORDER BY t.slug)
		FROM cms.news_item_tags nt
		JOIN cms.tags t ON t.tag_id = nt.tag_id
		WHERE nt.news_id = n.news_id
	), ''),
	n.published_at,
	n.fetched_at,
	n.processed,
	n.duplicate_group_id,
	n.views,
	n.likes,
	n.shares,
	n.comments,
	n.trending_score,
	n.created_at
`

func scanNews(scan func(dest ...any) error) (*NewsRecord, error) {
	var (
		rec    NewsRecord
		tagCSV string
	)
	if err := scan(
		&rec.NewsID,
		&rec.NewsUUID,
		&rec.Source,
		&rec.SourceItemID,
		&rec.Title,
		&rec.Content,
		&rec.Summary,
		&rec.URL,
		&rec.Language,
		&rec.SourceDomain,
		&rec.ImageURL,
		&rec.CategoryID,
		&tagCSV,
		&rec.PublishedAt,
		&rec.FetchedAt,
		&rec.Processed,
		&rec.DuplicateGroupID,
		&rec.Views,
		&rec.Likes,
		&rec.Shares,
		&rec.Comments,
		&rec.TrendingScore,
		&rec.CreatedAt,
	); err != nil {
		return nil, err
	}
	rec.Tags = splitTagCSV(tagCSV)
	return &rec, nil
}

// HashURL derives the dedupe key for a normalized URL.
func HashURL(normalizedURL string) []byte {
	trimmed := strings.TrimSpace(normalizedURL)
	if trimmed == "" {
		return nil
	}
	sum := sha256.Sum256([]byte(trimmed))
	return sum[:]
}

// InsertNewsItem stores one ingested item, recording the raw payload in the
// arrival ledger either way. A second arrival with the same (source,
// source_item_id) or the same normalized URL is reported as a duplicate
// instead of inserted.
func (p *Pool) InsertNewsItem(ctx context.Context, input NewNewsItem) (*InsertResult, error) {
	urlHash := HashURL(input.NormalizedURL)
	payloadHash := sha256.Sum256(input.RawPayload)

	tx, err := p.BeginTx(ctx, TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("begin ingest tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	const existingQ = `
SELECT news_id, news_uuid::text
FROM cms.news_items
WHERE deleted_at IS NULL
	AND (
		(source = $1 AND source_item_id = $2)
		OR ($3::bytea IS NOT NULL AND url_hash = $3)
	)
LIMIT 1
`

	var (
		existingID   int64
		existingUUID string
	)
	err = tx.QueryRow(ctx, existingQ, input.Source, input.SourceItemID, urlHash).Scan(&existingID, &existingUUID)
	switch {
	case err == nil:
		if err := insertArrival(ctx, tx, input, payloadHash[:], &existingID, ArrivalOutcomeDuplicate); err != nil {
			return nil, err
		}
		if err := tx.Commit(ctx); err != nil {
			return nil, fmt.Errorf("commit ingest tx: %w", err)
		}
		return &InsertResult{
			NewsID:    existingID,
			NewsUUID:  existingUUID,
			Outcome:   ArrivalOutcomeDuplicate,
			Duplicate: true,
		}, nil
	case IsNoRows(err):
		// New arrival, fall through to insert.
	default:
		return nil, fmt.Errorf("check existing news item: %w", err)
	}

	const insertQ = `
INSERT INTO cms.news_items (
	source,
	source_item_id,
	title,
	content,
	summary,
	url,
	url_hash,
	language,
	source_domain,
	image_url,
	category_id,
	published_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
RETURNING news_id, news_uuid::text
`

	language := strings.TrimSpace(input.Language)
	if language == "" {
		language = "und"
	}

	var (
		newsID   int64
		newsUUID string
	)
	if err := tx.QueryRow(
		ctx,
		insertQ,
		strings.TrimSpace(input.Source),
		strings.TrimSpace(input.SourceItemID),
		strings.TrimSpace(input.Title),
		input.Content,
		input.Summary,
		input.URL,
		urlHash,
		language,
		input.SourceDomain,
		input.ImageURL,
		input.CategoryID,
		input.PublishedAt,
	).Scan(&newsID, &newsUUID); err != nil {
		return nil, fmt.Errorf("insert news item: %w", err)
	}

	if err := insertArrival(ctx, tx, input, payloadHash[:], &newsID, ArrivalOutcomeInserted); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit ingest tx: %w", err)
	}
	return &InsertResult{
		NewsID:   newsID,
		NewsUUID: newsUUID,
		Outcome:  ArrivalOutcomeInserted,
	}, nil
}

func insertArrival(ctx context.Context, tx Tx, input NewNewsItem, payloadHash []byte, newsID *int64, outcome string) error {
	const q = `
INSERT INTO cms.ingest_arrivals (
	source,
	source_item_id,
	raw_payload,
	payload_hash,
	news_id,
	outcome
)
VALUES ($1, $2, $3, $4, $5, $6)
`

	payload := input.RawPayload
	if len(payload) == 0 {
		payload = json.RawMessage(`{}`)
	}
	if _, err := tx.Exec(ctx, q, input.Source, input.SourceItemID, payload, payloadHash, newsID, outcome); err != nil {
		return fmt.Errorf("insert ingest arrival: %w", err)
	}
	return nil
}

// RecordRejectedArrival keeps a ledger row for payloads that failed validation.
func (p *Pool) RecordRejectedArrival(ctx context.Context, source, sourceItemID string, rawPayload json.RawMessage) error {
	const q = `
INSERT INTO cms.ingest_arrivals (
	source,
	source_item_id,
	raw_payload,
	payload_hash,
	outcome
)
VALUES ($1, $2, $3, $4, $5)
`

	if len(rawPayload) == 0 {
		rawPayload = json.RawMessage(`{}`)
	}
	payloadHash := sha256.Sum256(rawPayload)
	if _, err := p.Exec(ctx, q, strings.TrimSpace(source), strings.TrimSpace(sourceItemID), rawPayload, payloadHash[:], ArrivalOutcomeRejected); err != nil {
		return fmt.Errorf("record rejected arrival: %w", err)
	}
	return nil
}

func (p *Pool) GetNewsItem(ctx context.Context, newsID int64) (*NewsRecord, error) {
	q := `
SELECT ` + newsColumns + `
FROM cms.news_items n
WHERE n.news_id = $1
	AND n.deleted_at IS NULL
LIMIT 1
`

	rec, err := scanNews(p.QueryRow(ctx, q, newsID).Scan)
	if err != nil {
		if IsNoRows(err) {
			return nil, ErrNoRows
		}
		return nil, fmt.Errorf("query news item: %w", err)
	}
	return rec, nil
}

func (p *Pool) ListNewsItems(ctx context.Context, filter NewsFilter) ([]NewsRecord, int64, error) {
	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	where := []string{"n.deleted_at IS NULL"}
	args := []any{}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if source := strings.TrimSpace(filter.Source); source != "" {
		where = append(where, "n.source = "+arg(source))
	}
	if language := strings.TrimSpace(filter.Language); language != "" {
		where = append(where, "n.language = "+arg(language))
	}
	if filter.CategoryID != nil {
		where = append(where, "n.category_id = "+arg(*filter.CategoryID))
	}
	if filter.Processed != nil {
		where = append(where, "n.processed = "+arg(*filter.Processed))
	}
	if filter.HideDuplicate {
		where = append(where, `(
		n.duplicate_group_id IS NULL
		OR n.news_id IN (
			SELECT g.primary_news_id
			FROM cms.duplicate_groups g
			WHERE g.group_id = n.duplicate_group_id
		)
	)`)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		ph := arg(search)
		where = append(where, "n.title ILIKE '%' || "+ph+" || '%'")
	}

	whereSQL := strings.Join(where, "\n\tAND ")

	countQ := `
SELECT COUNT(*)
FROM cms.news_items n
WHERE ` + whereSQL

	var total int64
	if err := p.QueryRow(ctx, countQ, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count news items: %w", err)
	}

	listQ := `
SELECT ` + newsColumns + `
FROM cms.news_items n
WHERE ` + whereSQL + `
ORDER BY n.published_at DESC NULLS LAST, n.news_id DESC
LIMIT ` + arg(limit) + ` OFFSET ` + arg(offset)

	rows, err := p.Query(ctx, listQ, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query news items: %w", err)
	}
	defer rows.Close()

	out := make([]NewsRecord, 0, limit)
	for rows.Next() {
		rec, err := scanNews(rows.Scan)
		if err != nil {
			return nil, 0, fmt.Errorf("scan news row: %w", err)
		}
		out = append(out, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate news rows: %w", err)
	}
	return out, total, nil
}

func (p *Pool) SoftDeleteNewsItem(ctx context.Context, newsID int64) error {
	const q = `
UPDATE cms.news_items
SET deleted_at = now(), updated_at = now()
WHERE news_id = $1
	AND deleted_at IS NULL
`

	tag, err := p.Exec(ctx, q, newsID)
	if err != nil {
		return fmt.Errorf("soft delete news item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNoRows
	}
	return nil
}

func (p *Pool) SetNewsCategory(ctx context.Context, newsID int64, categoryID *int64) error {
	const q = `
UPDATE cms.news_items
SET category_id = $2, updated_at = now()
WHERE news_id = $1
	AND deleted_at IS NULL
`

	tag, err := p.Exec(ctx, q, newsID, categoryID)
	if err != nil {
		return fmt.Errorf("set news category: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNoRows
	}
	return nil
}

// SetNewsTags replaces the item's tag links with the given tag IDs.
func (p *Pool) SetNewsTags(ctx context.Context, newsID int64, tagIDs []int64) error {
	tx, err := p.BeginTx(ctx, TxOptions{})
	if err != nil {
		return fmt.Errorf("begin news tags tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM cms.news_item_tags WHERE news_id = $1`, newsID); err != nil {
		return fmt.Errorf("clear news tags: %w", err)
	}

	const insertQ = `
INSERT INTO cms.news_item_tags (news_id, tag_id)
VALUES ($1, $2)
ON CONFLICT DO NOTHING
`
	for _, tagID := range tagIDs {
		if _, err := tx.Exec(ctx, insertQ, newsID, tagID); err != nil {
			return fmt.Errorf("link news tag %d: %w", tagID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit news tags tx: %w", err)
	}
	return nil
}

func (p *Pool) MarkNewsProcessed(ctx context.Context, newsID int64, processed bool) error {
	const q = `
UPDATE cms.news_items
SET processed = $2, updated_at = now()
WHERE news_id = $1
	AND deleted_at IS NULL
`

	tag, err := p.Exec(ctx, q, newsID, processed)
	if err != nil {
		return fmt.Errorf("mark news processed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNoRows
	}
	return nil
}
