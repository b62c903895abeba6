// Package calibration adjusts raw automated planning decisions to
// match observed case officer patterns for each application type.
//
// Newcastle case officers routinely issue "Grant Conditionally" for
// most application types. Calibration reflects those local patterns
// without touching the core assessment: refusals are never overridden,
// and types with variable outcomes pass through unchanged.
package calibration

import "github.com/henrypygall05-byte/plana-ai-backend-sub001/internal/model"

// Rule describes how one application type calibrates an
// approval-family decision. A rule with Force unset means the type is
// known but its outcomes are too variable to override.
type Rule struct {
	Force       model.Decision // zero value = no override
	Explanation string
}

// Rules maps application type codes to calibration behavior. Treated
// as immutable after construction; build with DefaultRules and inject.
type Rules map[string]Rule

// DefaultRules returns the observed Newcastle decision patterns.
// A fresh map is returned each call so a caller cannot mutate the
// table under a running Calibrator.
func DefaultRules() Rules {
	return Rules{
		// Types that almost always get conditions.
		"HOU": {Force: model.DecisionApproveWithCdn, Explanation: "Householder applications typically receive conditions"},
		"LBC": {Force: model.DecisionApproveWithCdn, Explanation: "Listed Building Consent typically includes protective conditions"},
		"DET": {Force: model.DecisionApproveWithCdn, Explanation: "Full planning applications typically receive standard conditions"},
		"LDC": {Force: model.DecisionApproveWithCdn, Explanation: "Lawful Development Certificates typically include conditions"},

		// Types that typically get plain approval.
		"DCC": {Force: model.DecisionApprove, Explanation: "Discharge of Conditions typically granted without further conditions"},

		// Variable outcomes, no forced calibration.
		"TPO": {Explanation: "Tree works outcomes vary based on arboricultural assessment"},
		"TCA": {Explanation: "Tree works in conservation areas have variable outcomes"},
	}
}

// Calibrator applies a static rule table to raw decisions.
// Safe for concurrent use; the rule table is never written after New.
type Calibrator struct {
	rules Rules
}

// New creates a Calibrator over the given rule table.
func New(rules Rules) *Calibrator {
	return &Calibrator{rules: rules}
}

// Calibrate normalizes rawDecision and adjusts it for the reference's
// application type.
//
//  1. Unparseable decisions stay UNKNOWN.
//  2. REFUSE is never recalibrated.
//  3. Approval-family decisions take the type's forced decision when a
//     rule specifies one; otherwise the normalized decision is kept.
func (c *Calibrator) Calibrate(reference, rawDecision string) model.Decision {
	decision := model.ParseDecision(rawDecision)
	if decision == model.DecisionUnknown {
		return model.DecisionUnknown
	}
	if decision == model.DecisionRefuse {
		return model.DecisionRefuse
	}

	appType := model.ParseApplicationType(reference)
	if rule, ok := c.rules[appType]; ok && rule.Force != "" {
		return rule.Force
	}
	return decision
}

// Explain returns the human-readable rationale for a type's
// calibration behavior, if one is on record.
func (c *Calibrator) Explain(appType string) (string, bool) {
	rule, ok := c.rules[appType]
	if !ok || rule.Explanation == "" {
		return "", false
	}
	return rule.Explanation, true
}
