// Package qc scores calibrated decisions against officer-confirmed
// ground truth and aggregates the results into benchmark metrics.
//
// Scoring and aggregation are pure functions, safe to invoke in
// parallel; a benchmark run is a parallel map over independent cases
// followed by a sequential reduce.
package qc

import "github.com/henrypygall05-byte/plana-ai-backend-sub001/internal/model"

// CaseScore grades one case comparison. Derived, never persisted.
type CaseScore struct {
	Reference string          `json:"reference"`
	Predicted model.Decision  `json:"predicted"`
	Actual    model.Decision  `json:"actual"`
	MatchType model.MatchType `json:"match_type"`
	Score     float64         `json:"score"`
	Notes     string          `json:"notes"`
}

// ScoreCase compares a predicted decision against the actual officer
// decision.
//
// Rules, in order:
//   - either side UNKNOWN: miss, 0.0
//   - equal: exact, 1.0
//   - both approval-family but different: partial, 0.5
//   - approval vs refusal: miss, 0.0, with a note distinguishing the
//     direction for mismatch-analysis prose
func ScoreCase(reference string, predicted, actual model.Decision) CaseScore {
	cs := CaseScore{Reference: reference, Predicted: predicted, Actual: actual}

	switch {
	case predicted == model.DecisionUnknown || actual == model.DecisionUnknown:
		cs.MatchType, cs.Score = model.MatchMiss, 0.0
		cs.Notes = "Unknown or missing decision"
	case predicted == actual:
		cs.MatchType, cs.Score = model.MatchExact, 1.0
		cs.Notes = "Exact match"
	case predicted.IsApproval() && actual.IsApproval():
		cs.MatchType, cs.Score = model.MatchPartial, 0.5
		cs.Notes = "Partial match (approval types differ)"
	case predicted.IsApproval() && actual == model.DecisionRefuse:
		cs.MatchType, cs.Score = model.MatchMiss, 0.0
		cs.Notes = "Predicted approval but officer refused"
	case predicted == model.DecisionRefuse && actual.IsApproval():
		cs.MatchType, cs.Score = model.MatchMiss, 0.0
		cs.Notes = "Predicted refusal but officer approved"
	default:
		cs.MatchType, cs.Score = model.MatchMiss, 0.0
		cs.Notes = "Decision mismatch"
	}
	return cs
}
