package db

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Bulk run states.
const (
	BulkStatusRunning   = "running"
	BulkStatusCompleted = "completed"
	BulkStatusFailed    = "failed"
)

type BulkRunRecord struct {
	RunID        int64      `json:"run_id"`
	RunUUID      string     `json:"run_uuid"`
	Operation    string     `json:"operation"`
	EntityType   string     `json:"entity_type"`
	Requested    int        `json:"requested"`
	Succeeded    int        `json:"succeeded"`
	Failed       int        `json:"failed"`
	ActorUserID  int64      `json:"actor_user_id"`
	Status       string     `json:"status"`
	ErrorMessage *string    `json:"error_message,omitempty"`
	StartedAt    time.Time  `json:"started_at"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"`
}

func (p *Pool) CreateBulkRun(
	ctx context.Context,
	runUUID, operation, entityType string,
	requested int,
	actorUserID int64,
) (int64, error) {
	const q = `
INSERT INTO cms.bulk_runs (run_uuid, operation, entity_type, requested, actor_user_id, status)
VALUES ($1::uuid, $2, $3, $4, $5, $6)
RETURNING run_id
`

	var runID int64
	if err := p.QueryRow(
		ctx,
		q,
		strings.TrimSpace(runUUID),
		strings.TrimSpace(operation),
		strings.TrimSpace(entityType),
		requested,
		actorUserID,
		BulkStatusRunning,
	).Scan(&runID); err != nil {
		return 0, fmt.Errorf("insert bulk run: %w", err)
	}
	return runID, nil
}

func (p *Pool) FinishBulkRun(
	ctx context.Context,
	runID int64,
	succeeded, failed int,
	status string,
	errorMessage *string,
	now time.Time,
) error {
	const q = `
UPDATE cms.bulk_runs
SET
	succeeded = $2,
	failed = $3,
	status = $4,
	error_message = $5,
	finished_at = $6
WHERE run_id = $1
`

	tag, err := p.Exec(ctx, q, runID, succeeded, failed, status, errorMessage, now.UTC())
	if err != nil {
		return fmt.Errorf("finish bulk run: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNoRows
	}
	return nil
}

func (p *Pool) GetBulkRun(ctx context.Context, runUUID string) (*BulkRunRecord, error) {
	const q = `
SELECT
	run_id,
	run_uuid::text,
	operation,
	entity_type,
	requested,
	succeeded,
	failed,
	actor_user_id,
	status,
	error_message,
	started_at,
	finished_at
FROM cms.bulk_runs
WHERE run_uuid = $1::uuid
LIMIT 1
`

	var rec BulkRunRecord
	if err := p.QueryRow(ctx, q, strings.TrimSpace(runUUID)).Scan(
		&rec.RunID,
		&rec.RunUUID,
		&rec.Operation,
		&rec.EntityType,
		&rec.Requested,
		&rec.Succeeded,
		&rec.Failed,
		&rec.ActorUserID,
		&rec.Status,
		&rec.ErrorMessage,
		&rec.StartedAt,
		&rec.FinishedAt,
	); err != nil {
		if IsNoRows(err) {
			return nil, ErrNoRows
		}
		return nil, fmt.Errorf("query bulk run: %w", err)
	}
	return &rec, nil
}

func (p *Pool) ListBulkRuns(ctx context.Context, limit int) ([]BulkRunRecord, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	const q = `
SELECT
	run_id,
	run_uuid::text,
	operation,
	entity_type,
	requested,
	succeeded,
	failed,
	actor_user_id,
	status,
	error_message,
	started_at,
	finished_at
FROM cms.bulk_runs
ORDER BY started_at DESC, run_id DESC
LIMIT $1
`

	rows, err := p.Query(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("query bulk runs: %w", err)
	}
	defer rows.Close()

	out := make([]BulkRunRecord, 0, limit)
	for rows.Next() {
		var rec BulkRunRecord
		if err := rows.Scan(
			&rec.RunID,
			&rec.RunUUID,
			&rec.Operation,
			&rec.EntityType,
			&rec.Requested,
			&rec.Succeeded,
			&rec.Failed,
			&rec.ActorUserID,
			&rec.Status,
			&rec.ErrorMessage,
			&rec.StartedAt,
			&rec.FinishedAt,
		); err != nil {
			return nil, fmt.Errorf("scan bulk run: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bulk runs: %w", err)
	}
	return out, nil
}
