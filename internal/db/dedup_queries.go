package db

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Duplicate group states.
const (
	GroupStatusOpen      = "open"
	GroupStatusMerged    = "merged"
	GroupStatusDismissed = "dismissed"
)

type DedupCandidate struct {
	NewsID      int64
	NewsUUID    string
	Title       string
	Content     string
	URL         string
	PublishedAt *time.Time
	Processed   bool
}

type GroupMemberInput struct {
	NewsID       int64
	Similarity   float64
	Confidence   float64
	MatchDetails json.RawMessage
}

type GroupMemberRecord struct {
	NewsID       int64           `json:"news_id"`
	Title        string          `json:"title"`
	Source       string          `json:"source"`
	URL          *string         `json:"url,omitempty"`
	Similarity   float64         `json:"similarity"`
	Confidence   float64         `json:"confidence"`
	MatchDetails json.RawMessage `json:"match_details,omitempty"`
	AddedAt      time.Time       `json:"added_at"`
}

type GroupRecord struct {
	GroupID       int64               `json:"group_id"`
	GroupUUID     string              `json:"group_uuid"`
	Status        string              `json:"status"`
	PrimaryNewsID int64               `json:"primary_news_id"`
	Confidence    float64             `json:"confidence"`
	DetectedAt    time.Time           `json:"detected_at"`
	ResolvedAt    *time.Time          `json:"resolved_at,omitempty"`
	ResolvedBy    *int64              `json:"resolved_by,omitempty"`
	Members       []GroupMemberRecord `json:"members"`
}

// ListDedupCandidates returns recent, not-yet-grouped items for a detection
// run, newest first.
func (p *Pool) ListDedupCandidates(ctx context.Context, since time.Time, limit int) ([]DedupCandidate, error) {
	if limit <= 0 || limit > 1000 {
		limit = 200
	}

	const q = `
SELECT
	n.news_id,
	n.news_uuid::text,
	n.title,
	n.content,
	COALESCE(n.url, ''),
	n.published_at,
	n.processed
FROM cms.news_items n
WHERE n.deleted_at IS NULL
	AND n.duplicate_group_id IS NULL
	AND n.fetched_at >= $1
ORDER BY n.fetched_at DESC
LIMIT $2
`

	rows, err := p.Query(ctx, q, since.UTC(), limit)
	if err != nil {
		return nil, fmt.Errorf("query dedup candidates: %w", err)
	}
	defer rows.Close()

	out := make([]DedupCandidate, 0, limit)
	for rows.Next() {
		var rec DedupCandidate
		if err := rows.Scan(
			&rec.NewsID,
			&rec.NewsUUID,
			&rec.Title,
			&rec.Content,
			&rec.URL,
			&rec.PublishedAt,
			&rec.Processed,
		); err != nil {
			return nil, fmt.Errorf("scan dedup candidate: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate dedup candidates: %w", err)
	}
	return out, nil
}

// CreateDuplicateGroup persists one detected cluster and stamps every member
// with the group ID.
func (p *Pool) CreateDuplicateGroup(
	ctx context.Context,
	primaryNewsID int64,
	confidence float64,
	members []GroupMemberInput,
) (int64, error) {
	if len(members) < 2 {
		return 0, fmt.Errorf("a duplicate group needs at least two members")
	}

	tx, err := p.BeginTx(ctx, TxOptions{})
	if err != nil {
		return 0, fmt.Errorf("begin group tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	const insertGroup = `
INSERT INTO cms.duplicate_groups (status, primary_news_id, confidence)
VALUES ($1, $2, $3)
RETURNING group_id
`

	var groupID int64
	if err := tx.QueryRow(ctx, insertGroup, GroupStatusOpen, primaryNewsID, confidence).Scan(&groupID); err != nil {
		return 0, fmt.Errorf("insert duplicate group: %w", err)
	}

	const insertMember = `
INSERT INTO cms.duplicate_group_members (group_id, news_id, similarity, confidence, match_details)
VALUES ($1, $2, $3, $4, $5)
`
	const stampItem = `
UPDATE cms.news_items
SET duplicate_group_id = $2, updated_at = now()
WHERE news_id = $1
	AND deleted_at IS NULL
`

	for _, member := range members {
		details := member.MatchDetails
		if len(details) == 0 {
			details = json.RawMessage(`{}`)
		}
		if _, err := tx.Exec(ctx, insertMember, groupID, member.NewsID, member.Similarity, member.Confidence, details); err != nil {
			return 0, fmt.Errorf("insert group member %d: %w", member.NewsID, err)
		}
		if _, err := tx.Exec(ctx, stampItem, member.NewsID, groupID); err != nil {
			return 0, fmt.Errorf("stamp group member %d: %w", member.NewsID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit group tx: %w", err)
	}
	return groupID, nil
}

func (p *Pool) GetDuplicateGroup(ctx context.Context, groupID int64) (*GroupRecord, error) {
	const q = `
SELECT
	g.group_id,
	g.group_uuid::text,
	g.status,
	g.primary_news_id,
	g.confidence,
	g.detected_at,
	g.resolved_at,
	g.resolved_by
FROM cms.duplicate_groups g
WHERE g.group_id = $1
LIMIT 1
`

	var rec GroupRecord
	if err := p.QueryRow(ctx, q, groupID).Scan(
		&rec.GroupID,
		&rec.GroupUUID,
		&rec.Status,
		&rec.PrimaryNewsID,
		&rec.Confidence,
		&rec.DetectedAt,
		&rec.ResolvedAt,
		&rec.ResolvedBy,
	); err != nil {
		if IsNoRows(err) {
			return nil, ErrNoRows
		}
		return nil, fmt.Errorf("query duplicate group: %w", err)
	}

	members, err := p.listGroupMembers(ctx, groupID)
	if err != nil {
		return nil, err
	}
	rec.Members = members
	return &rec, nil
}

func (p *Pool) listGroupMembers(ctx context.Context, groupID int64) ([]GroupMemberRecord, error) {
	const q = `
SELECT
	m.news_id,
	n.title,
	n.source,
	n.url,
	m.similarity,
	m.confidence,
	m.match_details,
	m.added_at
FROM cms.duplicate_group_members m
JOIN cms.news_items n ON n.news_id = m.news_id
WHERE m.group_id = $1
ORDER BY m.confidence DESC, m.news_id ASC
`

	rows, err := p.Query(ctx, q, groupID)
	if err != nil {
		return nil, fmt.Errorf("query group members: %w", err)
	}
	defer rows.Close()

	out := make([]GroupMemberRecord, 0, 4)
	for rows.Next() {
		var (
			rec     GroupMemberRecord
			details []byte
		)
		if err := rows.Scan(
			&rec.NewsID,
			&rec.Title,
			&rec.Source,
			&rec.URL,
			&rec.Similarity,
			&rec.Confidence,
			&details,
			&rec.AddedAt,
		); err != nil {
			return nil, fmt.Errorf("scan group member: %w", err)
		}
		if len(details) > 0 {
			rec.MatchDetails = append(json.RawMessage(nil), details...)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate group members: %w", err)
	}
	return out, nil
}

func (p *Pool) ListDuplicateGroups(ctx context.Context, status string, limit, offset int) ([]GroupRecord, int64, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	where := "1 = 1"
	args := []any{}
	if trimmed := strings.ToLower(strings.TrimSpace(status)); trimmed != "" {
		args = append(args, trimmed)
		where = "g.status = $1"
	}

	countQ := `
SELECT COUNT(*)
FROM cms.duplicate_groups g
WHERE ` + where

	var total int64
	if err := p.QueryRow(ctx, countQ, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count duplicate groups: %w", err)
	}

	args = append(args, limit, offset)
	listQ := fmt.Sprintf(`
SELECT
	g.group_id,
	g.group_uuid::text,
	g.status,
	g.primary_news_id,
	g.confidence,
	g.detected_at,
	g.resolved_at,
	g.resolved_by
FROM cms.duplicate_groups g
WHERE %s
ORDER BY g.confidence DESC, g.group_id DESC
LIMIT $%d OFFSET $%d
`, where, len(args)-1, len(args))

	rows, err := p.Query(ctx, listQ, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query duplicate groups: %w", err)
	}
	defer rows.Close()

	out := make([]GroupRecord, 0, limit)
	for rows.Next() {
		var rec GroupRecord
		if err := rows.Scan(
			&rec.GroupID,
			&rec.GroupUUID,
			&rec.Status,
			&rec.PrimaryNewsID,
			&rec.Confidence,
			&rec.DetectedAt,
			&rec.ResolvedAt,
			&rec.ResolvedBy,
		); err != nil {
			return nil, 0, fmt.Errorf("scan duplicate group: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate duplicate groups: %w", err)
	}

	for i := range out {
		members, err := p.listGroupMembers(ctx, out[i].GroupID)
		if err != nil {
			return nil, 0, err
		}
		out[i].Members = members
	}
	return out, total, nil
}

// MergeDuplicateGroup accepts the detection: non-primary members are soft
// deleted and the group is closed.
func (p *Pool) MergeDuplicateGroup(ctx context.Context, groupID, resolvedBy int64, now time.Time) (*GroupRecord, error) {
	group, err := p.GetDuplicateGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if group.Status != GroupStatusOpen {
		return nil, fmt.Errorf("group %d is already %s", groupID, group.Status)
	}

	tx, err := p.BeginTx(ctx, TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("begin merge tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	const removeOthers = `
UPDATE cms.news_items
SET deleted_at = $3, updated_at = now()
WHERE duplicate_group_id = $1
	AND news_id <> $2
	AND deleted_at IS NULL
`
	if _, err := tx.Exec(ctx, removeOthers, groupID, group.PrimaryNewsID, now.UTC()); err != nil {
		return nil, fmt.Errorf("soft delete merged members: %w", err)
	}

	const markPrimary = `
UPDATE cms.news_items
SET processed = true, updated_at = now()
WHERE news_id = $1
	AND deleted_at IS NULL
`
	if _, err := tx.Exec(ctx, markPrimary, group.PrimaryNewsID); err != nil {
		return nil, fmt.Errorf("mark primary processed: %w", err)
	}

	const closeGroup = `
UPDATE cms.duplicate_groups
SET status = $2, resolved_at = $3, resolved_by = $4, updated_at = now()
WHERE group_id = $1
	AND status = 'open'
`
	tag, err := tx.Exec(ctx, closeGroup, groupID, GroupStatusMerged, now.UTC(), resolvedBy)
	if err != nil {
		return nil, fmt.Errorf("close merged group: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNoRows
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit merge tx: %w", err)
	}
	return p.GetDuplicateGroup(ctx, groupID)
}

// DismissDuplicateGroup rejects the detection: members are unstamped so later
// runs can look at them again.
func (p *Pool) DismissDuplicateGroup(ctx context.Context, groupID, resolvedBy int64, now time.Time) (*GroupRecord, error) {
	group, err := p.GetDuplicateGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if group.Status != GroupStatusOpen {
		return nil, fmt.Errorf("group %d is already %s", groupID, group.Status)
	}

	tx, err := p.BeginTx(ctx, TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("begin dismiss tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	const unstamp = `
UPDATE cms.news_items
SET duplicate_group_id = NULL, updated_at = now()
WHERE duplicate_group_id = $1
`
	if _, err := tx.Exec(ctx, unstamp, groupID); err != nil {
		return nil, fmt.Errorf("unstamp dismissed members: %w", err)
	}

	const closeGroup = `
UPDATE cms.duplicate_groups
SET status = $2, resolved_at = $3, resolved_by = $4, updated_at = now()
WHERE group_id = $1
	AND status = 'open'
`
	tag, err := tx.Exec(ctx, closeGroup, groupID, GroupStatusDismissed, now.UTC(), resolvedBy)
	if err != nil {
		return nil, fmt.Errorf("close dismissed group: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNoRows
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit dismiss tx: %w", err)
	}
	return p.GetDuplicateGroup(ctx, groupID)
}
