package qc

import "github.com/henrypygall05-byte/plana-ai-backend-sub001/internal/model"

// PassThreshold is the headline QC percentage required to pass.
const PassThreshold = 70.0

// Metrics are the aggregate results of one QC run. Derived per run,
// not persisted.
type Metrics struct {
	TotalCases     int         `json:"total_cases"`
	ExactMatches   int         `json:"exact_matches"`
	PartialMatches int         `json:"partial_matches"`
	Misses         int         `json:"misses"`
	TotalScore     float64     `json:"total_score"`
	Percentage     float64     `json:"qc_percentage"`
	CaseScores     []CaseScore `json:"case_scores"`

	// ConfusionMatrix counts actual → predicted. All four decision
	// tags are always present as keys, zero-filled, so rendering
	// never needs nil checks.
	ConfusionMatrix map[model.Decision]map[model.Decision]int `json:"confusion_matrix"`
}

// Passed reports whether the headline percentage meets PassThreshold.
func (m Metrics) Passed() bool {
	return m.Percentage >= PassThreshold
}

// Aggregate reduces case scores into aggregate metrics. An empty input
// yields zero counts and a 0.0 percentage (not NaN).
func Aggregate(scores []CaseScore) Metrics {
	m := Metrics{
		TotalCases:      len(scores),
		CaseScores:      scores,
		ConfusionMatrix: emptyConfusionMatrix(),
	}

	for _, cs := range scores {
		switch cs.MatchType {
		case model.MatchExact:
			m.ExactMatches++
		case model.MatchPartial:
			m.PartialMatches++
		case model.MatchMiss:
			m.Misses++
		}
		m.TotalScore += cs.Score
		m.ConfusionMatrix[cs.Actual][cs.Predicted]++
	}

	if m.TotalCases > 0 {
		m.Percentage = m.TotalScore / float64(m.TotalCases) * 100
	}
	return m
}

func emptyConfusionMatrix() map[model.Decision]map[model.Decision]int {
	cm := make(map[model.Decision]map[model.Decision]int, len(model.Decisions))
	for _, actual := range model.Decisions {
		row := make(map[model.Decision]int, len(model.Decisions))
		for _, predicted := range model.Decisions {
			row[predicted] = 0
		}
		cm[actual] = row
	}
	return cm
}
