// Package feedback records officer decisions against pipeline runs and
// computes mismatch statistics from the accumulated history.
package feedback

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/henrypygall05-byte/plana-ai-backend-sub001/internal/model"
	"github.com/henrypygall05-byte/plana-ai-backend-sub001/internal/storage"
	"github.com/henrypygall05-byte/plana-ai-backend-sub001/internal/telemetry"
)

// Input is one officer feedback submission.
type Input struct {
	Reference      string
	Decision       model.Decision
	Notes          *string
	Conditions     []string
	RefusalReasons []string
	SubmittedBy    *string
}

// Reranker is the weight-store surface the tracker drives: weight
// attribution on mismatches, transaction-scoped, and the per-type
// mismatch rate computed over run/feedback pairs. Implemented by the
// rerank service.
type Reranker interface {
	UpdateWeightsFromFeedbackTx(ctx context.Context, tx *storage.Tx, reference string, predicted, actual model.Decision, policyIDs []string) error
	MismatchRate(ctx context.Context, appType string) (float64, error)
}

// Service persists feedback and updates policy weights on mismatches.
type Service struct {
	db       *storage.DB
	reranker Reranker
	logger   *slog.Logger

	submissions metric.Int64Counter
	mismatches  metric.Int64Counter
}

// New creates a feedback service.
func New(db *storage.DB, reranker Reranker, logger *slog.Logger) *Service {
	meter := telemetry.Meter("plana.feedback")
	submissions, _ := meter.Int64Counter("plana.feedback.submissions",
		metric.WithDescription("Officer feedback submissions recorded"))
	mismatches, _ := meter.Int64Counter("plana.feedback.mismatches",
		metric.WithDescription("Feedback submissions that contradicted the predicted decision"))

	return &Service{
		db:          db,
		reranker:    reranker,
		logger:      logger,
		submissions: submissions,
		mismatches:  mismatches,
	}
}

// Record persists a feedback submission and returns its id and whether
// the actual decision contradicted the prediction. A reference with no
// prior run is recorded as a mismatch but leaves policy weights alone,
// since there is no run to attribute policies from. The lookup, insert,
// and weight updates run in one transaction.
func (s *Service) Record(ctx context.Context, in Input) (uuid.UUID, bool, error) {
	var (
		feedbackID uuid.UUID
		isMismatch bool
	)

	err := s.db.InTx(ctx, func(tx *storage.Tx) error {
		run, err := tx.LatestRunLog(ctx, in.Reference)
		haveRun := true
		if err != nil {
			if !errors.Is(err, storage.ErrNotFound) {
				return err
			}
			haveRun = false
		}

		if haveRun {
			isMismatch = !model.Matches(run.Decision(), in.Decision)
		} else {
			isMismatch = true
		}

		fb, err := tx.CreateFeedback(ctx, model.FeedbackRecord{
			Reference:      in.Reference,
			Decision:       in.Decision,
			Notes:          in.Notes,
			Conditions:     in.Conditions,
			RefusalReasons: in.RefusalReasons,
			SubmittedBy:    in.SubmittedBy,
		})
		if err != nil {
			return err
		}
		feedbackID = fb.ID

		if isMismatch && haveRun {
			if err := s.reranker.UpdateWeightsFromFeedbackTx(ctx, tx, in.Reference, run.Decision(), in.Decision, run.PolicyIDs); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("feedback: record: %w", err)
	}

	s.submissions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("decision", string(in.Decision)),
	))
	if isMismatch {
		s.mismatches.Add(ctx, 1)
	}

	s.logger.Info("feedback recorded",
		"feedback_id", feedbackID,
		"reference", in.Reference,
		"decision", in.Decision,
		"mismatch", isMismatch,
	)
	return feedbackID, isMismatch, nil
}

// MismatchRate returns the fraction of recent runs of an application
// type whose latest feedback contradicts the prediction. The rate is
// computed by the rerank service over run/feedback pairs; exposed here
// because feedback summaries report it per type.
func (s *Service) MismatchRate(ctx context.Context, appType string) (float64, error) {
	return s.reranker.MismatchRate(ctx, appType)
}

// Stats aggregates recent feedback into overall match statistics. Each
// record is compared against the latest run for its reference; records
// without a run count as mismatches.
func (s *Service) Stats(ctx context.Context, limit int) (model.FeedbackStats, error) {
	records, err := s.db.AllFeedback(ctx, limit)
	if err != nil {
		return model.FeedbackStats{}, fmt.Errorf("feedback: stats: %w", err)
	}

	stats := model.FeedbackStats{
		ByDecision: make(map[model.Decision]int),
	}
	for _, fb := range records {
		stats.TotalFeedback++
		stats.ByDecision[fb.Decision]++

		run, err := s.db.LatestRunLog(ctx, fb.Reference)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				stats.MismatchCount++
				continue
			}
			return model.FeedbackStats{}, fmt.Errorf("feedback: stats: %w", err)
		}
		if model.Matches(run.Decision(), fb.Decision) {
			stats.MatchCount++
		} else {
			stats.MismatchCount++
		}
	}
	if stats.TotalFeedback > 0 {
		stats.MatchRate = float64(stats.MatchCount) / float64(stats.TotalFeedback)
	}
	return stats, nil
}

// Summary combines overall stats with per-type mismatch rates. Only
// application types with at least one observed mismatch appear in the
// rate map; rates are percentages.
func (s *Service) Summary(ctx context.Context) (model.FeedbackSummary, error) {
	stats, err := s.Stats(ctx, 100)
	if err != nil {
		return model.FeedbackSummary{}, err
	}

	rates := make(map[string]float64)
	for _, appType := range model.KnownApplicationTypes {
		rate, err := s.MismatchRate(ctx, appType)
		if err != nil {
			return model.FeedbackSummary{}, err
		}
		if rate > 0 {
			rates[appType] = rate * 100
		}
	}

	return model.FeedbackSummary{
		FeedbackStats:       stats,
		MismatchRatesByType: rates,
	}, nil
}
