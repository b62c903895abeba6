// Package rerank applies feedback-learned policy weights to rank
// policy and case candidates, and adjusts per-type confidence from
// observed mismatch rates.
package rerank

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/henrypygall05-byte/plana-ai-backend-sub001/internal/model"
	"github.com/henrypygall05-byte/plana-ai-backend-sub001/internal/storage"
	"github.com/henrypygall05-byte/plana-ai-backend-sub001/internal/telemetry"
)

// Similar-case boost factors. A case whose past run agreed with its
// officer feedback is promoted, a contradicted one demoted, and a case
// with no feedback history left neutral.
const (
	caseBoostAgreed       = 1.2
	caseBoostContradicted = 0.8
	caseBoostNeutral      = 1.0
)

// Confidence adjustment bounds.
const (
	minConfidence = 0.4
	maxConfidence = 0.95
)

// ConfidenceTable maps application types to default confidence values.
type ConfidenceTable struct {
	byType   map[string]float64
	fallback float64
}

// DefaultConfidence returns the standard per-type confidence table.
// Discharge-of-conditions applications are near-mechanical and default
// high; tree works are judgment-heavy and default low.
func DefaultConfidence() ConfidenceTable {
	return ConfidenceTable{
		byType: map[string]float64{
			"HOU": 0.80,
			"LBC": 0.75,
			"DET": 0.75,
			"LDC": 0.85,
			"DCC": 0.90,
			"TPO": 0.65,
			"TCA": 0.65,
		},
		fallback: 0.70,
	}
}

// Default returns the default confidence for an application type.
func (t ConfidenceTable) Default(appType string) float64 {
	if v, ok := t.byType[appType]; ok {
		return v
	}
	return t.fallback
}

// weightStore is the increment surface shared by storage.DB and
// storage.Tx, so one attribution path serves both transactional and
// standalone callers.
type weightStore interface {
	IncrementPolicyMatch(ctx context.Context, policyID, appType string, isMatch bool) error
}

// Ranked is anything that can be reranked by policy weight.
type Ranked interface {
	PolicyID() string
}

// Case is a historic application that can be boosted by its feedback
// track record.
type Case interface {
	Reference() string
}

// CaseBoost pairs a similar case with its computed boost factor.
type CaseBoost struct {
	Case   Case
	Factor float64
}

// Service ranks candidates using stored policy weights.
type Service struct {
	db         *storage.DB
	confidence ConfidenceTable
	logger     *slog.Logger

	weightUpdates metric.Int64Counter
}

// New creates a rerank service.
func New(db *storage.DB, confidence ConfidenceTable, logger *slog.Logger) *Service {
	meter := telemetry.Meter("plana.rerank")
	weightUpdates, _ := meter.Int64Counter("plana.rerank.weight_updates",
		metric.WithDescription("Policy weight adjustments applied from feedback"))

	return &Service{
		db:            db,
		confidence:    confidence,
		logger:        logger,
		weightUpdates: weightUpdates,
	}
}

// PolicyBoost returns the stored weight for a policy within an
// application type, defaulting to 1.0 when no feedback has touched it.
func (s *Service) PolicyBoost(ctx context.Context, policyID, appType string) (float64, error) {
	w, err := s.db.GetPolicyWeight(ctx, policyID, appType)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return 1.0, nil
		}
		return 0, fmt.Errorf("rerank: policy boost: %w", err)
	}
	return w.Weight, nil
}

// UpdateWeightsFromFeedback adjusts the weight of every policy cited in
// a run according to whether the prediction matched the officer's
// decision.
func (s *Service) UpdateWeightsFromFeedback(ctx context.Context, reference string, predicted, actual model.Decision, policyIDs []string) error {
	return s.updateWeights(ctx, s.db, reference, predicted, actual, policyIDs)
}

// UpdateWeightsFromFeedbackTx is the transaction-scoped variant, used by
// the feedback tracker so the feedback insert and the weight updates
// commit or roll back together.
func (s *Service) UpdateWeightsFromFeedbackTx(ctx context.Context, tx *storage.Tx, reference string, predicted, actual model.Decision, policyIDs []string) error {
	return s.updateWeights(ctx, tx, reference, predicted, actual, policyIDs)
}

func (s *Service) updateWeights(ctx context.Context, store weightStore, reference string, predicted, actual model.Decision, policyIDs []string) error {
	appType := model.ParseApplicationType(reference)
	isMatch := model.Matches(predicted, actual)

	for _, policyID := range policyIDs {
		if err := store.IncrementPolicyMatch(ctx, policyID, appType, isMatch); err != nil {
			return fmt.Errorf("rerank: update weights: %w", err)
		}
	}

	s.weightUpdates.Add(ctx, int64(len(policyIDs)), metric.WithAttributes(
		attribute.String("application_type", appType),
		attribute.Bool("match", isMatch),
	))

	s.logger.Debug("policy weights updated",
		"reference", reference,
		"application_type", appType,
		"match", isMatch,
		"policies", len(policyIDs),
	)
	return nil
}

// MismatchRate returns the fraction of recent successful runs of an
// application type whose latest feedback contradicts the prediction.
// Returns 0 when no run of that type has feedback yet.
func (s *Service) MismatchRate(ctx context.Context, appType string) (float64, error) {
	pairs, err := s.db.RunFeedbackPairsByType(ctx, appType, 100)
	if err != nil {
		return 0, fmt.Errorf("rerank: mismatch rate: %w", err)
	}
	if len(pairs) == 0 {
		return 0, nil
	}

	mismatches := 0
	for _, p := range pairs {
		if !model.Matches(p.Run.Decision(), p.Actual) {
			mismatches++
		}
	}
	return float64(mismatches) / float64(len(pairs)), nil
}

// RerankPolicies sorts candidates by descending boost factor. The sort
// is stable, so unweighted candidates keep their retrieval order, and
// the output is always a permutation of the input.
func (s *Service) RerankPolicies(ctx context.Context, reference string, policies []Ranked) ([]Ranked, error) {
	appType := model.ParseApplicationType(reference)

	boosts := make([]float64, len(policies))
	for i, p := range policies {
		boost, err := s.PolicyBoost(ctx, p.PolicyID(), appType)
		if err != nil {
			return nil, err
		}
		boosts[i] = boost
	}

	idx := make([]int, len(policies))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return boosts[idx[a]] > boosts[idx[b]]
	})

	out := make([]Ranked, len(policies))
	for i, j := range idx {
		out[i] = policies[j]
	}
	return out, nil
}

// SimilarCaseBoost computes a boost factor for each historic case from
// its own feedback track record, sorted descending by factor. The sort
// is stable, so equal factors keep their similarity order.
func (s *Service) SimilarCaseBoost(ctx context.Context, cases []Case) ([]CaseBoost, error) {
	out := make([]CaseBoost, len(cases))
	for i, c := range cases {
		factor, err := s.caseFactor(ctx, c.Reference())
		if err != nil {
			return nil, err
		}
		out[i] = CaseBoost{Case: c, Factor: factor}
	}

	sort.SliceStable(out, func(a, b int) bool {
		return out[a].Factor > out[b].Factor
	})
	return out, nil
}

func (s *Service) caseFactor(ctx context.Context, reference string) (float64, error) {
	records, err := s.db.ListFeedbackByReference(ctx, reference)
	if err != nil {
		return 0, fmt.Errorf("rerank: case feedback: %w", err)
	}
	if len(records) == 0 {
		return caseBoostNeutral, nil
	}

	run, err := s.db.LatestRunLog(ctx, reference)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return caseBoostNeutral, nil
		}
		return 0, fmt.Errorf("rerank: case run: %w", err)
	}

	if model.Matches(run.Decision(), records[0].Decision) {
		return caseBoostAgreed, nil
	}
	return caseBoostContradicted, nil
}

// AdjustConfidence computes the confidence for a reference from its
// type's default minus half the observed mismatch rate, clamped to
// [0.4, 0.95]. Pure function of persisted history.
func (s *Service) AdjustConfidence(ctx context.Context, reference string) (float64, error) {
	appType := model.ParseApplicationType(reference)

	rate, err := s.MismatchRate(ctx, appType)
	if err != nil {
		return 0, fmt.Errorf("rerank: adjust confidence: %w", err)
	}

	adjusted := s.confidence.Default(appType) - rate*0.5
	if adjusted < minConfidence {
		adjusted = minConfidence
	}
	if adjusted > maxConfidence {
		adjusted = maxConfidence
	}
	return adjusted, nil
}

// WeightSummary aggregates the stored weights for an application type.
func (s *Service) WeightSummary(ctx context.Context, appType string) (model.WeightSummary, error) {
	weights, err := s.db.ListPolicyWeightsByType(ctx, appType)
	if err != nil {
		return model.WeightSummary{}, fmt.Errorf("rerank: weight summary: %w", err)
	}

	summary := model.WeightSummary{
		ApplicationType: appType,
		TotalPolicies:   len(weights),
	}
	for _, w := range weights {
		switch {
		case w.Weight > 1.0:
			summary.BoostedPolicies++
		case w.Weight < 1.0:
			summary.DemotedPolicies++
		}
	}

	top := weights
	if len(top) > 10 {
		top = top[:10]
	}
	summary.TopPolicies = top
	return summary, nil
}
