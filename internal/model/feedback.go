package model

import (
	"time"

	"github.com/google/uuid"
)

// FeedbackRecord is one officer submission of the actual decision for
// an application. It is weakly linked to the most recent RunLog for
// the same reference (lookup by reference, not an owning relation).
// Submissions are not deduplicated; each is an independent event.
type FeedbackRecord struct {
	ID             uuid.UUID `json:"id"`
	Reference      string    `json:"reference"`
	Decision       Decision  `json:"decision"`
	Notes          *string   `json:"notes,omitempty"`
	Conditions     []string  `json:"conditions,omitempty"`
	RefusalReasons []string  `json:"refusal_reasons,omitempty"`
	SubmittedBy    *string   `json:"submitted_by,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// FeedbackStats summarizes feedback against prior runs.
type FeedbackStats struct {
	TotalFeedback int              `json:"total_feedback"`
	MatchCount    int              `json:"match_count"`
	MismatchCount int              `json:"mismatch_count"`
	MatchRate     float64          `json:"match_rate"`
	ByDecision    map[Decision]int `json:"by_decision"`
}

// FeedbackSummary is the operator-facing rollup: overall stats plus
// per-type mismatch rates (percent, only types with observed
// mismatches).
type FeedbackSummary struct {
	FeedbackStats
	MismatchRatesByType map[string]float64 `json:"mismatch_rates_by_type"`
}
