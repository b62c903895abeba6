package model

import "time"

// PolicyWeight is the persistent ranking weight for a policy within
// one application type. Rows start at weight 1.0 and are adjusted
// incrementally on feedback-driven mismatch evaluation; they are never
// deleted or reset.
type PolicyWeight struct {
	PolicyID        string    `json:"policy_id"`
	ApplicationType string    `json:"application_type"`
	Weight          float64   `json:"weight"`
	MatchCount      int       `json:"match_count"`
	MismatchCount   int       `json:"mismatch_count"`
	LastUpdated     time.Time `json:"last_updated"`
	CreatedAt       time.Time `json:"created_at"`
}

// WeightSummary aggregates the stored weights for one application type.
type WeightSummary struct {
	ApplicationType string         `json:"application_type"`
	TotalPolicies   int            `json:"total_policies"`
	BoostedPolicies int            `json:"boosted_policies"`
	DemotedPolicies int            `json:"demoted_policies"`
	TopPolicies     []PolicyWeight `json:"top_policies"`
}

// RunFeedbackPair joins a successful run with the most recent feedback
// for the same reference. Produced by a single storage query so
// mismatch-rate calculation does not fan out per run.
type RunFeedbackPair struct {
	Run    RunLog   `json:"run"`
	Actual Decision `json:"actual"`
}
