package calibration_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/henrypygall05-byte/plana-ai-backend-sub001/internal/calibration"
	"github.com/henrypygall05-byte/plana-ai-backend-sub001/internal/model"
)

func TestCalibrate(t *testing.T) {
	c := calibration.New(calibration.DefaultRules())

	tests := []struct {
		name      string
		reference string
		raw       string
		want      model.Decision
	}{
		{"householder approval gains conditions", "2025/1974/01/HOU", "APPROVE", model.DecisionApproveWithCdn},
		{"listed building approval gains conditions", "2025/0042/03/LBC", "APPROVE", model.DecisionApproveWithCdn},
		{"full planning approval gains conditions", "2025/0100/01/DET", "GRANT", model.DecisionApproveWithCdn},
		{"lawful development gains conditions", "2025/0200/02/LDC", "APPROVE", model.DecisionApproveWithCdn},
		{"discharge drops conditions", "2025/0486/04/DCC", "APPROVE_WITH_CONDITIONS", model.DecisionApprove},
		{"tree works pass through", "2025/1739/01/TPO", "APPROVE", model.DecisionApprove},
		{"conservation trees pass through", "2025/1740/01/TCA", "APPROVE_WITH_CONDITIONS", model.DecisionApproveWithCdn},
		{"refusal never overridden for HOU", "2025/1974/01/HOU", "REFUSE", model.DecisionRefuse},
		{"refusal never overridden for TPO", "2025/1739/01/TPO", "REFUSE", model.DecisionRefuse},
		{"refusal never overridden for DCC", "2025/0486/04/DCC", "REFUSED", model.DecisionRefuse},
		{"unknown type passes through", "2025/0001/01/ADV", "APPROVE", model.DecisionApprove},
		{"empty reference passes through", "", "APPROVE", model.DecisionApprove},
		{"unparseable decision stays unknown", "2025/1974/01/HOU", "pending", model.DecisionUnknown},
		{"empty decision stays unknown", "2025/1974/01/HOU", "", model.DecisionUnknown},
		{"synonym normalized before rule", "2025/1974/01/HOU", "granted", model.DecisionApproveWithCdn},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Calibrate(tt.reference, tt.raw))
		})
	}
}

// Refusals must survive calibration for every known type.
func TestCalibrateNeverOverridesRefusal(t *testing.T) {
	c := calibration.New(calibration.DefaultRules())

	for _, appType := range model.KnownApplicationTypes {
		ref := "2025/0001/01/" + appType
		assert.Equal(t, model.DecisionRefuse, c.Calibrate(ref, "REFUSE"), "type %s", appType)
	}
}

func TestExplain(t *testing.T) {
	c := calibration.New(calibration.DefaultRules())

	explanation, ok := c.Explain("HOU")
	assert.True(t, ok)
	assert.NotEmpty(t, explanation)

	explanation, ok = c.Explain("TPO")
	assert.True(t, ok)
	assert.NotEmpty(t, explanation)

	_, ok = c.Explain("ADV")
	assert.False(t, ok)
}

func TestCustomRules(t *testing.T) {
	c := calibration.New(calibration.Rules{
		"ADV": {Force: model.DecisionRefuse, Explanation: "advertisements refused by default"},
	})

	// Custom rules can force any decision except over a refusal.
	assert.Equal(t, model.DecisionRefuse, c.Calibrate("2025/0001/01/ADV", "APPROVE"))
	assert.Equal(t, model.DecisionApprove, c.Calibrate("2025/0001/01/HOU", "APPROVE"))
}
