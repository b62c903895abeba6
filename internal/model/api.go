package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Error codes returned in API error responses.
const (
	ErrCodeValidation   = "validation_error"
	ErrCodeUnauthorized = "unauthorized"
	ErrCodeNotFound     = "not_found"
	ErrCodeInternal     = "internal_error"
)

// ErrorResponse is the standard API error envelope.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries the error code, message, and request correlation id.
type ErrorDetail struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// AuthTokenRequest exchanges an API key for a JWT.
type AuthTokenRequest struct {
	APIKey string `json:"api_key"`
}

// AuthTokenResponse carries the issued token.
type AuthTokenResponse struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
}

// CreateRunRequest records one completed pipeline run. The raw decision
// may be any free-text string; it is normalized and calibrated on
// ingestion. A run with an error message is stored as failed.
type CreateRunRequest struct {
	Reference         string     `json:"reference"`
	RawDecision       string     `json:"raw_decision"`
	PolicyIDs         []string   `json:"policy_ids,omitempty"`
	SimilarCasesCount int        `json:"similar_cases_count,omitempty"`
	DurationMS        int64      `json:"duration_ms,omitempty"`
	ErrorMessage      *string    `json:"error_message,omitempty"`
	StartedAt         *time.Time `json:"started_at,omitempty"`
}

// Validate checks required fields.
func (r CreateRunRequest) Validate() error {
	if strings.TrimSpace(r.Reference) == "" {
		return fmt.Errorf("reference is required")
	}
	if r.DurationMS < 0 {
		return fmt.Errorf("duration_ms must not be negative")
	}
	return nil
}

// CreateRunResponse returns the calibrated outcome of a recorded run.
type CreateRunResponse struct {
	RunID              uuid.UUID `json:"run_id"`
	Reference          string    `json:"reference"`
	ApplicationType    string    `json:"application_type"`
	RawDecision        Decision  `json:"raw_decision"`
	CalibratedDecision Decision  `json:"calibrated_decision"`
	Confidence         float64   `json:"confidence"`
}

// SubmitFeedbackRequest is an officer feedback submission.
// Decision must be one of the three submittable tags; UNKNOWN is rejected.
type SubmitFeedbackRequest struct {
	Reference      string   `json:"reference"`
	Decision       string   `json:"decision"`
	Notes          *string  `json:"notes,omitempty"`
	Conditions     []string `json:"conditions,omitempty"`
	RefusalReasons []string `json:"refusal_reasons,omitempty"`
}

// Validate checks required fields and the decision tag.
func (r SubmitFeedbackRequest) Validate() error {
	if strings.TrimSpace(r.Reference) == "" {
		return fmt.Errorf("reference is required")
	}
	if d := ParseDecision(r.Decision); !d.Valid() {
		return fmt.Errorf("decision must be one of APPROVE, APPROVE_WITH_CONDITIONS, REFUSE")
	}
	return nil
}

// SubmitFeedbackResponse confirms a recorded submission.
type SubmitFeedbackResponse struct {
	FeedbackID uuid.UUID `json:"feedback_id"`
	Reference  string    `json:"reference"`
	Mismatch   bool      `json:"mismatch"`
	Message    string    `json:"message"`
}

// RerankPoliciesRequest reorders candidate policies for a reference.
// Every candidate must carry an id; inputs without one are rejected at
// the boundary rather than silently passed through unboosted.
type RerankPoliciesRequest struct {
	Reference string            `json:"reference"`
	Policies  []PolicyCandidate `json:"policies"`
}

// PolicyCandidate is one policy in a rerank request. Metadata rides
// along untouched so callers get their own fields back in the new order.
type PolicyCandidate struct {
	ID       string         `json:"id"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Validate checks the reference and candidate ids.
func (r RerankPoliciesRequest) Validate() error {
	if strings.TrimSpace(r.Reference) == "" {
		return fmt.Errorf("reference is required")
	}
	for i, p := range r.Policies {
		if strings.TrimSpace(p.ID) == "" {
			return fmt.Errorf("policies[%d]: id is required", i)
		}
	}
	return nil
}

// RerankPoliciesResponse returns the candidates in boosted order.
type RerankPoliciesResponse struct {
	Reference string            `json:"reference"`
	Policies  []PolicyCandidate `json:"policies"`
}

// RerankCasesRequest reorders similar historic cases by their feedback
// track record.
type RerankCasesRequest struct {
	Cases []CaseCandidate `json:"cases"`
}

// CaseCandidate is one historic case in a rerank request. Metadata
// rides along untouched, same as policy candidates.
type CaseCandidate struct {
	Reference string         `json:"reference"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// Validate checks the candidate references.
func (r RerankCasesRequest) Validate() error {
	for i, c := range r.Cases {
		if strings.TrimSpace(c.Reference) == "" {
			return fmt.Errorf("cases[%d]: reference is required", i)
		}
	}
	return nil
}

// RankedCase is one case with its computed boost factor.
type RankedCase struct {
	Reference string         `json:"reference"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Boost     float64        `json:"boost"`
}

// RerankCasesResponse returns the cases in boosted order.
type RerankCasesResponse struct {
	Cases []RankedCase `json:"cases"`
}

// ConfidenceResponse carries the adjusted confidence for a reference.
type ConfidenceResponse struct {
	Reference       string  `json:"reference"`
	ApplicationType string  `json:"application_type"`
	Confidence      float64 `json:"confidence"`
}
