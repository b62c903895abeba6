package model_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/henrypygall05-byte/plana-ai-backend-sub001/internal/model"
)

func TestParseDecision(t *testing.T) {
	tests := []struct {
		input string
		want  model.Decision
	}{
		{"APPROVE", model.DecisionApprove},
		{"approve", model.DecisionApprove},
		{"  Approved  ", model.DecisionApprove},
		{"GRANT", model.DecisionApprove},
		{"granted", model.DecisionApprove},
		{"APPROVE_WITH_CONDITIONS", model.DecisionApproveWithCdn},
		{"approve with conditions", model.DecisionApproveWithCdn},
		{"Approved-With-Conditions", model.DecisionApproveWithCdn},
		{"grant with conditions", model.DecisionApproveWithCdn},
		{"conditional", model.DecisionApproveWithCdn},
		{"Conditional Approval", model.DecisionApproveWithCdn},
		{"REFUSE", model.DecisionRefuse},
		{"refused", model.DecisionRefuse},
		{"Reject", model.DecisionRefuse},
		{"REJECTED", model.DecisionRefuse},
		{"", model.DecisionUnknown},
		{"   ", model.DecisionUnknown},
		{"pending", model.DecisionUnknown},
		{"withdrawn", model.DecisionUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, model.ParseDecision(tt.input))
		})
	}
}

// Parsing a canonical tag must return that tag unchanged.
func TestParseDecisionIdempotent(t *testing.T) {
	for _, d := range model.Decisions {
		assert.Equal(t, d, model.ParseDecision(string(d)), "tag %s", d)
	}
}

func TestIsApproval(t *testing.T) {
	assert.True(t, model.DecisionApprove.IsApproval())
	assert.True(t, model.DecisionApproveWithCdn.IsApproval())
	assert.False(t, model.DecisionRefuse.IsApproval())
	assert.False(t, model.DecisionUnknown.IsApproval())
}

func TestValid(t *testing.T) {
	assert.True(t, model.DecisionApprove.Valid())
	assert.True(t, model.DecisionApproveWithCdn.Valid())
	assert.True(t, model.DecisionRefuse.Valid())
	assert.False(t, model.DecisionUnknown.Valid())
	assert.False(t, model.Decision("").Valid())
}

func TestMatches(t *testing.T) {
	tests := []struct {
		name      string
		predicted model.Decision
		actual    model.Decision
		want      bool
	}{
		{"exact approve", model.DecisionApprove, model.DecisionApprove, true},
		{"exact refuse", model.DecisionRefuse, model.DecisionRefuse, true},
		{"approval family forward", model.DecisionApprove, model.DecisionApproveWithCdn, true},
		{"approval family reverse", model.DecisionApproveWithCdn, model.DecisionApprove, true},
		{"approve vs refuse", model.DecisionApprove, model.DecisionRefuse, false},
		{"refuse vs approve", model.DecisionRefuse, model.DecisionApprove, false},
		{"unknown equality matches", model.DecisionUnknown, model.DecisionUnknown, true},
		{"unknown vs approve", model.DecisionUnknown, model.DecisionApprove, false},
		{"unknown vs refuse", model.DecisionUnknown, model.DecisionRefuse, false},
		{"approve vs unknown", model.DecisionApprove, model.DecisionUnknown, false},
		{"empty vs approve", model.Decision(""), model.DecisionApprove, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, model.Matches(tt.predicted, tt.actual))
		})
	}
}
