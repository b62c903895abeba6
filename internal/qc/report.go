package qc

import (
	"fmt"
	"strings"
	"time"

	"github.com/henrypygall05-byte/plana-ai-backend-sub001/internal/model"
)

var shortLabels = map[model.Decision]string{
	model.DecisionApprove:        "Approve",
	model.DecisionApproveWithCdn: "Approve+Cond",
	model.DecisionRefuse:         "Refuse",
	model.DecisionUnknown:        "Unknown",
}

// Render formats QC metrics as a markdown report: headline pass/fail,
// summary counts, confusion matrix, per-case breakdown, and a
// mismatch-analysis section keyed off the mismatch direction.
func Render(m Metrics) string {
	sections := []string{
		renderHeader(m),
		renderSummary(m),
		renderConfusionMatrix(m),
		renderCaseBreakdown(m),
		renderMismatchAnalysis(m),
		renderFooter(),
	}
	return strings.Join(sections, "\n\n")
}

func renderHeader(m Metrics) string {
	verdict := "FAIL"
	interpretation := "The system needs improvement to match case officer consistency"
	if m.Passed() {
		verdict = "PASS"
		interpretation = "The system is performing at or above junior/mid case officer consistency"
	}

	return fmt.Sprintf(`# Quality Control Report

## Overall QC Score: %.1f%% %s

This report compares calibrated decisions against actual case officer outcomes.

- **Threshold for PASS**: %.0f%%
- **Current Score**: %.1f%%
- **Interpretation**: %s`,
		m.Percentage, verdict, PassThreshold, m.Percentage, interpretation)
}

func renderSummary(m Metrics) string {
	pct := func(n int) float64 {
		if m.TotalCases == 0 {
			return 0
		}
		return float64(n) / float64(m.TotalCases) * 100
	}

	return fmt.Sprintf(`## Summary

| Metric | Count | Percentage |
|--------|-------|------------|
| Total Cases | %d | 100%% |
| Exact Matches | %d | %.1f%% |
| Partial Matches | %d | %.1f%% |
| Misses | %d | %.1f%% |

**Scoring Rules:**
- **Exact Match (1.0 points)**: system and officer made the same decision
- **Partial Match (0.5 points)**: both approved, but one with conditions and one without
- **Miss (0.0 points)**: fundamental disagreement (approve vs refuse) or unknown decision`,
		m.TotalCases,
		m.ExactMatches, pct(m.ExactMatches),
		m.PartialMatches, pct(m.PartialMatches),
		m.Misses, pct(m.Misses))
}

func renderConfusionMatrix(m Metrics) string {
	header := "| Actual \\ Predicted |"
	sep := "|---|"
	for _, d := range model.Decisions {
		header += " " + shortLabels[d] + " |"
		sep += "---|"
	}
	header += " Total |"
	sep += "---|"

	var rows []string
	for _, actual := range model.Decisions {
		row := m.ConfusionMatrix[actual]
		total := 0
		cells := make([]string, 0, len(model.Decisions))
		for _, predicted := range model.Decisions {
			total += row[predicted]
			cells = append(cells, fmt.Sprintf("%d", row[predicted]))
		}
		if total == 0 {
			continue
		}
		rows = append(rows, fmt.Sprintf("| **%s** | %s | %d |",
			shortLabels[actual], strings.Join(cells, " | "), total))
	}

	if len(rows) == 0 {
		return "## Confusion Matrix\n\n*No data available*"
	}

	return fmt.Sprintf(`## Confusion Matrix

Rows = actual case officer decision, Columns = predicted decision

%s
%s
%s`, header, sep, strings.Join(rows, "\n"))
}

func renderCaseBreakdown(m Metrics) string {
	if len(m.CaseScores) == 0 {
		return "## Per-Case Breakdown\n\n*No cases evaluated*"
	}

	var b strings.Builder
	b.WriteString("## Per-Case Breakdown\n\n")
	b.WriteString("| Reference | Predicted | Actual | Match Type | Score |\n")
	b.WriteString("|-----------|-----------|--------|------------|-------|\n")
	for _, cs := range m.CaseScores {
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %.1f |\n",
			cs.Reference, cs.Predicted, cs.Actual, matchLabel(cs.MatchType), cs.Score)
	}
	fmt.Fprintf(&b, "\n**Total Score**: %.1f / %d = %.1f%%",
		m.TotalScore, m.TotalCases, m.Percentage)
	return b.String()
}

func matchLabel(mt model.MatchType) string {
	switch mt {
	case model.MatchExact:
		return "Exact"
	case model.MatchPartial:
		return "Partial"
	case model.MatchMiss:
		return "Miss"
	}
	return "Unknown"
}

func renderMismatchAnalysis(m Metrics) string {
	var misses []CaseScore
	for _, cs := range m.CaseScores {
		if cs.MatchType == model.MatchMiss {
			misses = append(misses, cs)
		}
	}

	if len(misses) == 0 {
		return `## Mismatch Analysis

No mismatches found. Calibrated decisions aligned with case officer outcomes for all evaluated cases.`
	}

	var b strings.Builder
	b.WriteString("## Mismatch Analysis\n\n")
	b.WriteString("The following cases had fundamental disagreements with the case officer:\n\n")
	for _, cs := range misses {
		fmt.Fprintf(&b, "### %s\n\n%s\n", cs.Reference, explainMismatch(cs))
	}
	return strings.TrimRight(b.String(), "\n")
}

// explainMismatch produces the plain-language analysis for a missed
// case, keyed off the direction of the disagreement.
func explainMismatch(cs CaseScore) string {
	switch {
	case cs.Predicted == model.DecisionUnknown:
		return fmt.Sprintf(
			"- **Predicted**: could not determine a decision (UNKNOWN)\n"+
				"- **Officer**: %s\n"+
				"- **Analysis**: the run failed to produce a clear recommendation. "+
				"This may indicate a processing error, unsupported application type, or missing data.",
			cs.Actual)
	case cs.Actual == model.DecisionUnknown:
		return fmt.Sprintf(
			"- **Predicted**: %s\n"+
				"- **Officer**: decision not recorded (UNKNOWN)\n"+
				"- **Analysis**: the actual case officer decision was not provided in the gold standard file. "+
				"Update the gold file with the correct decision.",
			cs.Predicted)
	case cs.Predicted.IsApproval() && cs.Actual == model.DecisionRefuse:
		return fmt.Sprintf(
			"- **Predicted**: %s (recommended approval)\n"+
				"- **Officer**: REFUSE\n"+
				"- **Analysis**: the system recommended approval but the case officer refused. "+
				"Negative planning considerations (heritage impact, neighbour amenity, design quality, "+
				"policy non-compliance, cumulative harm) may have been underweighted. "+
				"Review the officer's refusal reasons and update policy weighting.",
			cs.Predicted)
	case cs.Predicted == model.DecisionRefuse && cs.Actual.IsApproval():
		return fmt.Sprintf(
			"- **Predicted**: REFUSE\n"+
				"- **Officer**: %s\n"+
				"- **Analysis**: the system recommended refusal but the case officer approved. "+
				"Mitigating factors (negotiated design improvements, conditions addressing concerns, "+
				"planning balance, policy flexibility) may have been missed. "+
				"Review the approval reasoning and adjust sensitivity.",
			cs.Actual)
	}
	return fmt.Sprintf("- **Predicted**: %s\n- **Officer**: %s\n- **Analysis**: decision mismatch.",
		cs.Predicted, cs.Actual)
}

func renderFooter() string {
	return fmt.Sprintf("---\n\n*Generated %s*", time.Now().UTC().Format(time.RFC3339))
}
