// Package model defines the core domain types for the Plana QC engine.
//
// Types correspond directly to database tables and API payloads. The
// decision taxonomy is a closed four-valued tag set; every parse path
// is total and degrades to DecisionUnknown rather than failing.
package model

import "strings"

// Decision is a canonical planning decision tag.
type Decision string

const (
	DecisionApprove        Decision = "APPROVE"
	DecisionApproveWithCdn Decision = "APPROVE_WITH_CONDITIONS"
	DecisionRefuse         Decision = "REFUSE"
	DecisionUnknown        Decision = "UNKNOWN"
)

// Decisions lists all canonical tags in display order. Confusion
// matrices and reports iterate this so every tag is always present.
var Decisions = []Decision{
	DecisionApprove,
	DecisionApproveWithCdn,
	DecisionRefuse,
	DecisionUnknown,
}

// ParseDecision normalizes free-text decision strings to a canonical tag.
// Whitespace is trimmed, the input upper-cased, and spaces/hyphens
// collapsed to underscores before synonym matching. Anything
// unrecognized, including the empty string, maps to DecisionUnknown.
func ParseDecision(s string) Decision {
	norm := strings.ToUpper(strings.TrimSpace(s))
	norm = strings.ReplaceAll(norm, " ", "_")
	norm = strings.ReplaceAll(norm, "-", "_")

	switch norm {
	case "APPROVE", "APPROVED", "GRANT", "GRANTED":
		return DecisionApprove
	case "APPROVE_WITH_CONDITIONS", "APPROVED_WITH_CONDITIONS",
		"GRANT_WITH_CONDITIONS", "CONDITIONAL", "CONDITIONAL_APPROVAL":
		return DecisionApproveWithCdn
	case "REFUSE", "REFUSED", "REJECT", "REJECTED":
		return DecisionRefuse
	}
	return DecisionUnknown
}

// IsApproval reports whether d is in the approval family
// (APPROVE or APPROVE_WITH_CONDITIONS).
func (d Decision) IsApproval() bool {
	return d == DecisionApprove || d == DecisionApproveWithCdn
}

// Valid reports whether d is one of the three submittable decisions.
// UNKNOWN is a parse result, never an accepted input.
func (d Decision) Valid() bool {
	return d == DecisionApprove || d == DecisionApproveWithCdn || d == DecisionRefuse
}

// Matches is the lenient predicate used by feedback correlation and
// policy weight attribution: exact equality matches (UNKNOWN against
// UNKNOWN included), and the approval-family pair (APPROVE vs
// APPROVE_WITH_CONDITIONS) matches in either direction. Submitted
// feedback is validated to one of the three real decisions, so an
// UNKNOWN actual only arises from callers comparing two predictions.
//
// QC scoring grades the approval-family pair as a half-credit partial
// instead; the divergence is intentional, since weight attribution
// should not demote policies that steered the right outcome but
// differed on conditions.
func Matches(predicted, actual Decision) bool {
	if predicted == actual {
		return true
	}
	return predicted.IsApproval() && actual.IsApproval()
}

// MatchType classifies how a predicted decision compares to the actual one.
type MatchType string

const (
	MatchExact   MatchType = "exact"
	MatchPartial MatchType = "partial"
	MatchMiss    MatchType = "miss"
)
