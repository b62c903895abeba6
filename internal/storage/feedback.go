package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/henrypygall05-byte/plana-ai-backend-sub001/internal/model"
)

const feedbackColumns = `id, reference, decision, notes, conditions, refusal_reasons,
	submitted_by, created_at`

// CreateFeedback inserts an officer feedback record and returns it.
// Submissions are append-only and intentionally not deduplicated.
func (db *DB) CreateFeedback(ctx context.Context, fb model.FeedbackRecord) (model.FeedbackRecord, error) {
	return createFeedback(ctx, db.pool, fb)
}

// CreateFeedback inserts a feedback record within the transaction.
func (tx *Tx) CreateFeedback(ctx context.Context, fb model.FeedbackRecord) (model.FeedbackRecord, error) {
	return createFeedback(ctx, tx.q, fb)
}

func createFeedback(ctx context.Context, q querier, fb model.FeedbackRecord) (model.FeedbackRecord, error) {
	if fb.ID == uuid.Nil {
		fb.ID = uuid.New()
	}
	fb.CreatedAt = time.Now().UTC()
	if fb.Conditions == nil {
		fb.Conditions = []string{}
	}
	if fb.RefusalReasons == nil {
		fb.RefusalReasons = []string{}
	}

	_, err := q.Exec(ctx,
		`INSERT INTO feedback (id, reference, decision, notes, conditions, refusal_reasons,
		   submitted_by, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		fb.ID, fb.Reference, string(fb.Decision), fb.Notes, fb.Conditions, fb.RefusalReasons,
		fb.SubmittedBy, fb.CreatedAt,
	)
	if err != nil {
		return model.FeedbackRecord{}, fmt.Errorf("storage: create feedback: %w", err)
	}
	return fb, nil
}

// ListFeedbackByReference returns feedback for a reference, newest first.
func (db *DB) ListFeedbackByReference(ctx context.Context, reference string) ([]model.FeedbackRecord, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+feedbackColumns+`
		 FROM feedback WHERE reference = $1
		 ORDER BY created_at DESC`, reference,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: list feedback: %w", err)
	}
	defer rows.Close()
	return collectFeedback(rows)
}

// AllFeedback returns the most recent feedback records across all
// references, newest first.
func (db *DB) AllFeedback(ctx context.Context, limit int) ([]model.FeedbackRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := db.pool.Query(ctx,
		`SELECT `+feedbackColumns+`
		 FROM feedback ORDER BY created_at DESC LIMIT $1`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: all feedback: %w", err)
	}
	defer rows.Close()
	return collectFeedback(rows)
}

func collectFeedback(rows pgx.Rows) ([]model.FeedbackRecord, error) {
	var records []model.FeedbackRecord
	for rows.Next() {
		var fb model.FeedbackRecord
		var decision string
		if err := rows.Scan(
			&fb.ID, &fb.Reference, &decision, &fb.Notes, &fb.Conditions,
			&fb.RefusalReasons, &fb.SubmittedBy, &fb.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("storage: scan feedback: %w", err)
		}
		fb.Decision = model.Decision(decision)
		records = append(records, fb)
	}
	return records, rows.Err()
}
