package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/henrypygall05-byte/plana-ai-backend-sub001/internal/model"
)

const runLogColumns = `id, reference, mode, council, raw_decision, calibrated_decision,
	confidence, policy_ids, similar_cases_count, duration_ms, success, error_message,
	started_at, created_at`

// CreateRunLog inserts an immutable run log record and returns it.
func (db *DB) CreateRunLog(ctx context.Context, rl model.RunLog) (model.RunLog, error) {
	return createRunLog(ctx, db.pool, rl)
}

// CreateRunLog inserts a run log within the transaction.
func (tx *Tx) CreateRunLog(ctx context.Context, rl model.RunLog) (model.RunLog, error) {
	return createRunLog(ctx, tx.q, rl)
}

func createRunLog(ctx context.Context, q querier, rl model.RunLog) (model.RunLog, error) {
	if rl.ID == uuid.Nil {
		rl.ID = uuid.New()
	}
	if rl.StartedAt.IsZero() {
		rl.StartedAt = time.Now().UTC()
	}
	rl.CreatedAt = time.Now().UTC()
	if rl.PolicyIDs == nil {
		rl.PolicyIDs = []string{}
	}

	_, err := q.Exec(ctx,
		`INSERT INTO run_logs (id, reference, mode, council, raw_decision, calibrated_decision,
		   confidence, policy_ids, similar_cases_count, duration_ms, success, error_message,
		   started_at, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		rl.ID, rl.Reference, rl.Mode, rl.Council, string(rl.RawDecision), string(rl.CalibratedDecision),
		rl.Confidence, rl.PolicyIDs, rl.SimilarCasesCount, rl.DurationMS, rl.Success, rl.ErrorMessage,
		rl.StartedAt, rl.CreatedAt,
	)
	if err != nil {
		return model.RunLog{}, fmt.Errorf("storage: create run log: %w", err)
	}
	return rl, nil
}

// LatestRunLog returns the most recent run log for a reference, or
// ErrNotFound when the reference has never been processed.
func (db *DB) LatestRunLog(ctx context.Context, reference string) (model.RunLog, error) {
	return latestRunLog(ctx, db.pool, reference)
}

// LatestRunLog returns the most recent run log within the transaction.
func (tx *Tx) LatestRunLog(ctx context.Context, reference string) (model.RunLog, error) {
	return latestRunLog(ctx, tx.q, reference)
}

func latestRunLog(ctx context.Context, q querier, reference string) (model.RunLog, error) {
	row := q.QueryRow(ctx,
		`SELECT `+runLogColumns+`
		 FROM run_logs WHERE reference = $1
		 ORDER BY started_at DESC LIMIT 1`, reference,
	)
	rl, err := scanRunLog(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.RunLog{}, ErrNotFound
		}
		return model.RunLog{}, fmt.Errorf("storage: latest run log: %w", err)
	}
	return rl, nil
}

// ListRunLogsByType returns run logs whose reference classifies to the
// given application type, newest first. When successOnly is set, failed
// runs are excluded.
func (db *DB) ListRunLogsByType(ctx context.Context, appType string, successOnly bool, limit int) ([]model.RunLog, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `SELECT ` + runLogColumns + ` FROM run_logs WHERE reference LIKE '%/' || $1`
	if successOnly {
		query += ` AND success`
	}
	query += ` ORDER BY started_at DESC LIMIT $2`

	rows, err := db.pool.Query(ctx, query, appType, limit)
	if err != nil {
		return nil, fmt.Errorf("storage: list run logs by type: %w", err)
	}
	defer rows.Close()

	var logs []model.RunLog
	for rows.Next() {
		rl, err := scanRunLog(rows)
		if err != nil {
			return nil, fmt.Errorf("storage: scan run log: %w", err)
		}
		logs = append(logs, rl)
	}
	return logs, rows.Err()
}

// RunFeedbackPairsByType joins each successful run of an application
// type with the most recent feedback for its reference. Runs without
// feedback are omitted; mismatch rates are computed over this set.
func (db *DB) RunFeedbackPairsByType(ctx context.Context, appType string, limit int) ([]model.RunFeedbackPair, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := db.pool.Query(ctx,
		`SELECT r.id, r.reference, r.mode, r.council, r.raw_decision, r.calibrated_decision,
		        r.confidence, r.policy_ids, r.similar_cases_count, r.duration_ms, r.success,
		        r.error_message, r.started_at, r.created_at, f.decision
		 FROM run_logs r
		 JOIN LATERAL (
		   SELECT decision FROM feedback
		   WHERE reference = r.reference
		   ORDER BY created_at DESC LIMIT 1
		 ) f ON TRUE
		 WHERE r.reference LIKE '%/' || $1 AND r.success
		 ORDER BY r.started_at DESC
		 LIMIT $2`,
		appType, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: run/feedback pairs: %w", err)
	}
	defer rows.Close()

	var pairs []model.RunFeedbackPair
	for rows.Next() {
		var p model.RunFeedbackPair
		var raw, calibrated, actual string
		if err := rows.Scan(
			&p.Run.ID, &p.Run.Reference, &p.Run.Mode, &p.Run.Council, &raw, &calibrated,
			&p.Run.Confidence, &p.Run.PolicyIDs, &p.Run.SimilarCasesCount, &p.Run.DurationMS,
			&p.Run.Success, &p.Run.ErrorMessage, &p.Run.StartedAt, &p.Run.CreatedAt, &actual,
		); err != nil {
			return nil, fmt.Errorf("storage: scan run/feedback pair: %w", err)
		}
		p.Run.RawDecision = model.Decision(raw)
		p.Run.CalibratedDecision = model.Decision(calibrated)
		p.Actual = model.Decision(actual)
		pairs = append(pairs, p)
	}
	return pairs, rows.Err()
}

func scanRunLog(row pgx.Row) (model.RunLog, error) {
	var rl model.RunLog
	var raw, calibrated string
	err := row.Scan(
		&rl.ID, &rl.Reference, &rl.Mode, &rl.Council, &raw, &calibrated,
		&rl.Confidence, &rl.PolicyIDs, &rl.SimilarCasesCount, &rl.DurationMS,
		&rl.Success, &rl.ErrorMessage, &rl.StartedAt, &rl.CreatedAt,
	)
	if err != nil {
		return model.RunLog{}, err
	}
	rl.RawDecision = model.Decision(raw)
	rl.CalibratedDecision = model.Decision(calibrated)
	return rl, nil
}
