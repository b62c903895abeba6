// Command planaqc runs the QC benchmark: it grades a results file
// against a gold-standard file of officer-confirmed decisions and
// renders a markdown report.
//
// Usage:
//
//	planaqc -gold gold.csv -results results.csv [-report report.md]
//	planaqc -template -refs refs.txt -gold gold.csv
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/henrypygall05-byte/plana-ai-backend-sub001/internal/qc"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		goldPath    = flag.String("gold", "", "gold-standard CSV (reference,actual_decision)")
		resultsPath = flag.String("results", "", "evaluation results CSV")
		reportPath  = flag.String("report", "", "write the markdown report to this path (optional)")
		refsPath    = flag.String("refs", "", "newline-delimited reference list (template mode)")
		template    = flag.Bool("template", false, "generate a blank gold-standard template from -refs")
	)
	flag.Parse()

	if *template {
		return runTemplate(*refsPath, *goldPath)
	}

	if *goldPath == "" || *resultsPath == "" {
		fmt.Fprintln(os.Stderr, "planaqc: -gold and -results are required")
		flag.Usage()
		return 2
	}

	metrics, report, err := qc.RunAndRender(context.Background(), *goldPath, *resultsPath, *reportPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "planaqc: %v\n", err)
		return 1
	}

	if *reportPath == "" {
		fmt.Print(report)
	} else {
		fmt.Printf("report written to %s\n", *reportPath)
	}

	verdict := "PASS"
	if !metrics.Passed() {
		verdict = "FAIL"
	}
	fmt.Printf("%s: %d cases, %d exact, %d partial, %d miss, %.1f%% (threshold %.0f%%)\n",
		verdict, metrics.TotalCases, metrics.ExactMatches, metrics.PartialMatches,
		metrics.Misses, metrics.Percentage, qc.PassThreshold)

	if !metrics.Passed() {
		return 1
	}
	return 0
}

func runTemplate(refsPath, goldPath string) int {
	if refsPath == "" || goldPath == "" {
		fmt.Fprintln(os.Stderr, "planaqc: -template requires -refs and -gold")
		return 2
	}

	refs, err := qc.LoadRefsFile(refsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "planaqc: %v\n", err)
		return 1
	}
	if err := qc.WriteGoldTemplate(goldPath, refs); err != nil {
		fmt.Fprintf(os.Stderr, "planaqc: %v\n", err)
		return 1
	}

	fmt.Printf("gold template with %d references written to %s\n", len(refs), goldPath)
	return 0
}
