package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/henrypygall05-byte/plana-ai-backend-sub001/internal/model"
)

// The weight formula keeps a ratio-based boost: matches pull the
// weight toward 1.5 via the match fraction, mismatches additionally
// subtract a flat 0.1 step. Results are clamped to [0.1, 2.0] so
// repeated updates cannot drift unboundedly.
const (
	incrementMatchSQL = `
		INSERT INTO policy_weights (policy_id, application_type, weight, match_count, mismatch_count, last_updated, created_at)
		VALUES ($1, $2, 1.5, 1, 0, now(), now())
		ON CONFLICT (policy_id, application_type) DO UPDATE SET
			match_count = policy_weights.match_count + 1,
			weight = LEAST(2.0, GREATEST(0.1,
				1.0 + (policy_weights.match_count + 1)::double precision
					/ (policy_weights.match_count + policy_weights.mismatch_count + 1) * 0.5)),
			last_updated = now()`

	incrementMismatchSQL = `
		INSERT INTO policy_weights (policy_id, application_type, weight, match_count, mismatch_count, last_updated, created_at)
		VALUES ($1, $2, 0.9, 0, 1, now(), now())
		ON CONFLICT (policy_id, application_type) DO UPDATE SET
			mismatch_count = policy_weights.mismatch_count + 1,
			weight = LEAST(2.0, GREATEST(0.1,
				1.0 + policy_weights.match_count::double precision
					/ (policy_weights.match_count + policy_weights.mismatch_count + 1) * 0.5 - 0.1)),
			last_updated = now()`
)

// GetPolicyWeight returns the stored weight for a (policy,
// application type) key, or ErrNotFound when no feedback has touched it.
func (db *DB) GetPolicyWeight(ctx context.Context, policyID, appType string) (model.PolicyWeight, error) {
	var w model.PolicyWeight
	err := db.pool.QueryRow(ctx,
		`SELECT policy_id, application_type, weight, match_count, mismatch_count, last_updated, created_at
		 FROM policy_weights WHERE policy_id = $1 AND application_type = $2`,
		policyID, appType,
	).Scan(&w.PolicyID, &w.ApplicationType, &w.Weight, &w.MatchCount, &w.MismatchCount, &w.LastUpdated, &w.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.PolicyWeight{}, ErrNotFound
		}
		return model.PolicyWeight{}, fmt.Errorf("storage: get policy weight: %w", err)
	}
	return w, nil
}

// IncrementPolicyMatch bumps the match or mismatch counter for a key
// and recomputes the weight. The upsert is a single atomic statement,
// so concurrent updates to the same row serialize at the database.
func (db *DB) IncrementPolicyMatch(ctx context.Context, policyID, appType string, isMatch bool) error {
	return incrementPolicyMatch(ctx, db.pool, policyID, appType, isMatch)
}

// IncrementPolicyMatch bumps a weight counter within the transaction.
func (tx *Tx) IncrementPolicyMatch(ctx context.Context, policyID, appType string, isMatch bool) error {
	return incrementPolicyMatch(ctx, tx.q, policyID, appType, isMatch)
}

func incrementPolicyMatch(ctx context.Context, q querier, policyID, appType string, isMatch bool) error {
	sql := incrementMismatchSQL
	if isMatch {
		sql = incrementMatchSQL
	}
	if _, err := q.Exec(ctx, sql, policyID, appType); err != nil {
		return fmt.Errorf("storage: increment policy weight: %w", err)
	}
	return nil
}

// ListPolicyWeightsByType returns all weights for an application type,
// highest weight first.
func (db *DB) ListPolicyWeightsByType(ctx context.Context, appType string) ([]model.PolicyWeight, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT policy_id, application_type, weight, match_count, mismatch_count, last_updated, created_at
		 FROM policy_weights WHERE application_type = $1
		 ORDER BY weight DESC, policy_id`, appType,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: list policy weights: %w", err)
	}
	defer rows.Close()

	var weights []model.PolicyWeight
	for rows.Next() {
		var w model.PolicyWeight
		if err := rows.Scan(&w.PolicyID, &w.ApplicationType, &w.Weight, &w.MatchCount,
			&w.MismatchCount, &w.LastUpdated, &w.CreatedAt); err != nil {
			return nil, fmt.Errorf("storage: scan policy weight: %w", err)
		}
		weights = append(weights, w)
	}
	return weights, rows.Err()
}
