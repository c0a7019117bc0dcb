package db

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Engagement entity kinds.
const (
	EntityArticle = "article"
	EntityNews    = "news"
)

// NormalizeEntityType lowercases an entity type and returns "" for unknown
// ones.
func NormalizeEntityType(raw string) string {
	entity := strings.ToLower(strings.TrimSpace(raw))
	switch entity {
	case EntityArticle, EntityNews:
		return entity
	default:
		return ""
	}
}

var engagementColumns = map[string]string{
	"view":    "views",
	"like":    "likes",
	"share":   "shares",
	"comment": "comments",
}

// RecordEngagement stores one event and bumps the matching counter. For
// signed-in likes and shares the unique index makes the insert a no-op on
// repeat, and the counter is left alone; the bool reports whether the event
// was new.
func (p *Pool) RecordEngagement(ctx context.Context, entityType string, entityID int64, action string, userID *int64) (bool, error) {
	column, ok := engagementColumns[action]
	if !ok {
		return false, fmt.Errorf("unknown engagement action %q", action)
	}
	if NormalizeEntityType(entityType) == "" {
		return false, fmt.Errorf("unknown entity type %q", entityType)
	}

	tx, err := p.BeginTx(ctx, TxOptions{})
	if err != nil {
		return false, fmt.Errorf("begin engagement tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	const insertQ = `
INSERT INTO cms.engagement_events (entity_type, entity_id, action, user_id)
VALUES ($1, $2, $3, $4)
ON CONFLICT (user_id, entity_type, entity_id, action)
	WHERE user_id IS NOT NULL AND action IN ('like', 'share')
	DO NOTHING
`

	tag, err := tx.Exec(ctx, insertQ, entityType, entityID, action, userID)
	if err != nil {
		return false, fmt.Errorf("insert engagement event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Repeated like/share from the same user.
		if err := tx.Commit(ctx); err != nil {
			return false, fmt.Errorf("commit engagement tx: %w", err)
		}
		return false, nil
	}

	table := "cms.articles"
	idColumn := "article_id"
	if entityType == EntityNews {
		table = "cms.news_items"
		idColumn = "news_id"
	}
	bumpQ := fmt.Sprintf(`
UPDATE %s
SET %s = %s + 1, updated_at = now()
WHERE %s = $1
	AND deleted_at IS NULL
`, table, column, column, idColumn)

	bumped, err := tx.Exec(ctx, bumpQ, entityID)
	if err != nil {
		return false, fmt.Errorf("bump engagement counter: %w", err)
	}
	if bumped.RowsAffected() == 0 {
		return false, ErrNoRows
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit engagement tx: %w", err)
	}
	return true, nil
}

type PointTransactionRecord struct {
	TransactionID int64     `json:"transaction_id"`
	Action        string    `json:"action"`
	Points        int       `json:"points"`
	EntityType    *string   `json:"entity_type,omitempty"`
	EntityID      *int64    `json:"entity_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

func (p *Pool) InsertPointTransaction(
	ctx context.Context,
	userID int64,
	action string,
	pointsAwarded int,
	entityType *string,
	entityID *int64,
) error {
	const q = `
INSERT INTO cms.point_transactions (user_id, action, points, entity_type, entity_id)
VALUES ($1, $2, $3, $4, $5)
`

	if _, err := p.Exec(ctx, q, userID, action, pointsAwarded, entityType, entityID); err != nil {
		return fmt.Errorf("insert point transaction: %w", err)
	}
	return nil
}

func (p *Pool) UserLifetimePoints(ctx context.Context, userID int64) (int64, error) {
	const q = `
SELECT COALESCE(SUM(points), 0)
FROM cms.point_transactions
WHERE user_id = $1
`

	var total int64
	if err := p.QueryRow(ctx, q, userID).Scan(&total); err != nil {
		return 0, fmt.Errorf("sum user points: %w", err)
	}
	return total, nil
}

func (p *Pool) ListPointTransactions(ctx context.Context, userID int64, limit int) ([]PointTransactionRecord, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	const q = `
SELECT
	transaction_id,
	action,
	points,
	entity_type,
	entity_id,
	created_at
FROM cms.point_transactions
WHERE user_id = $1
ORDER BY created_at DESC, transaction_id DESC
LIMIT $2
`

	rows, err := p.Query(ctx, q, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query point transactions: %w", err)
	}
	defer rows.Close()

	out := make([]PointTransactionRecord, 0, limit)
	for rows.Next() {
		var rec PointTransactionRecord
		if err := rows.Scan(
			&rec.TransactionID,
			&rec.Action,
			&rec.Points,
			&rec.EntityType,
			&rec.EntityID,
			&rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan point transaction: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate point transactions: %w", err)
	}
	return out, nil
}

// UserCategoryAffinity counts a user's news engagement per category ID.
func (p *Pool) UserCategoryAffinity(ctx context.Context, userID int64, since time.Time) (map[int64]int64, error) {
	const q = `
SELECT c.category_id, COUNT(*)
FROM cms.engagement_events e
JOIN cms.news_items n ON n.news_id = e.entity_id
JOIN cms.categories c ON c.category_id = n.category_id
WHERE e.user_id = $1
	AND e.entity_type = 'news'
	AND e.created_at >= $2
	AND c.deleted_at IS NULL
GROUP BY c.category_id
`

	return p.queryAffinity(ctx, q, userID, since)
}

// UserTagAffinity counts a user's news engagement per tag ID.
func (p *Pool) UserTagAffinity(ctx context.Context, userID int64, since time.Time) (map[int64]int64, error) {
	const q = `
SELECT t.tag_id, COUNT(*)
FROM cms.engagement_events e
JOIN cms.news_item_tags nt ON nt.news_id = e.entity_id
JOIN cms.tags t ON t.tag_id = nt.tag_id
WHERE e.user_id = $1
	AND e.entity_type = 'news'
	AND e.created_at >= $2
GROUP BY t.tag_id
`

	return p.queryAffinity(ctx, q, userID, since)
}

func (p *Pool) queryAffinity(ctx context.Context, q string, userID int64, since time.Time) (map[int64]int64, error) {
	rows, err := p.Query(ctx, q, userID, since.UTC())
	if err != nil {
		return nil, fmt.Errorf("query affinity counts: %w", err)
	}
	defer rows.Close()

	out := make(map[int64]int64)
	for rows.Next() {
		var (
			id    int64
			count int64
		)
		if err := rows.Scan(&id, &count); err != nil {
			return nil, fmt.Errorf("scan affinity count: %w", err)
		}
		out[id] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate affinity counts: %w", err)
	}
	return out, nil
}
