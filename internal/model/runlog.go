package model

import (
	"time"

	"github.com/google/uuid"
)

// RunLog is an immutable record of one automated processing pass over
// an application reference. Created by the calibration path, queried
// latest-first by reference for feedback correlation, and by
// application type for mismatch-rate calculations. Never mutated.
type RunLog struct {
	ID                 uuid.UUID `json:"id"`
	Reference          string    `json:"reference"`
	Mode               string    `json:"mode"` // demo or live
	Council            string    `json:"council"`
	RawDecision        Decision  `json:"raw_decision"`
	CalibratedDecision Decision  `json:"calibrated_decision"`
	Confidence         float64   `json:"confidence"`
	PolicyIDs          []string  `json:"policy_ids"` // ordered as used by the run
	SimilarCasesCount  int       `json:"similar_cases_count"`
	DurationMS         int64     `json:"duration_ms"`
	Success            bool      `json:"success"`
	ErrorMessage       *string   `json:"error_message,omitempty"`
	StartedAt          time.Time `json:"started_at"`
	CreatedAt          time.Time `json:"created_at"`
}

// Decision returns the decision the run stands behind: the calibrated
// value when present, otherwise the raw value.
func (r RunLog) Decision() Decision {
	if r.CalibratedDecision != "" {
		return r.CalibratedDecision
	}
	return r.RawDecision
}
