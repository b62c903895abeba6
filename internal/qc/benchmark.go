package qc

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/henrypygall05-byte/plana-ai-backend-sub001/internal/model"
)

// Run scores every gold-standard case against the results file and
// aggregates the outcome. References missing from the results file are
// scored as UNKNOWN predictions. Cases are independent, so scoring
// fans out across CPUs; the output order follows the gold file.
func Run(ctx context.Context, goldPath, resultsPath string) (Metrics, error) {
	gold, err := LoadGoldFile(goldPath)
	if err != nil {
		return Metrics{}, err
	}
	results, err := LoadResultsFile(resultsPath)
	if err != nil {
		return Metrics{}, err
	}
	return Score(ctx, gold, results), nil
}

// Score grades gold cases against predicted decisions in parallel.
func Score(ctx context.Context, gold []GoldCase, results map[string]model.Decision) Metrics {
	scores := make([]CaseScore, len(gold))

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, gc := range gold {
		g.Go(func() error {
			predicted, ok := results[gc.Reference]
			if !ok {
				predicted = model.DecisionUnknown
			}
			scores[i] = ScoreCase(gc.Reference, predicted, gc.Actual)
			return nil
		})
	}
	// Scoring never returns an error; Wait only provides the barrier.
	_ = g.Wait()

	return Aggregate(scores)
}

// RunAndRender executes a QC run and writes the markdown report when
// reportPath is non-empty.
func RunAndRender(ctx context.Context, goldPath, resultsPath, reportPath string) (Metrics, string, error) {
	metrics, err := Run(ctx, goldPath, resultsPath)
	if err != nil {
		return Metrics{}, "", err
	}
	report := Render(metrics)
	if reportPath != "" {
		if err := os.WriteFile(reportPath, []byte(report), 0o644); err != nil {
			return Metrics{}, "", fmt.Errorf("qc: write report: %w", err)
		}
	}
	return metrics, report, nil
}
