package qc

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/henrypygall05-byte/plana-ai-backend-sub001/internal/model"
)

// GoldCase is one row of the gold-standard file: an officer-confirmed
// decision for a reference. An empty or missing decision column parses
// to UNKNOWN so the case still scores (as a miss) instead of dropping
// silently.
type GoldCase struct {
	Reference string
	Actual    model.Decision
}

// LoadGoldFile reads a gold-standard CSV (header: reference,
// actual_decision), preserving row order. Rows without a reference are
// skipped. A reference appearing more than once keeps its first
// position and its last decision, so an edited row appended to the
// file supersedes the original without double-counting the case.
func LoadGoldFile(path string) ([]GoldCase, error) {
	rows, err := readCSV(path)
	if err != nil {
		return nil, fmt.Errorf("qc: load gold file: %w", err)
	}

	var cases []GoldCase
	index := make(map[string]int)
	for _, row := range rows {
		ref := strings.TrimSpace(row["reference"])
		if ref == "" {
			continue
		}
		gc := GoldCase{
			Reference: ref,
			Actual:    model.ParseDecision(row["actual_decision"]),
		}
		if i, ok := index[ref]; ok {
			cases[i] = gc
			continue
		}
		index[ref] = len(cases)
		cases = append(cases, gc)
	}
	return cases, nil
}

// LoadResultsFile reads an evaluation results CSV (header: reference,
// raw_decision,decision,status). Only the calibrated decision column
// is interpreted; status is an opaque marker from the external run.
func LoadResultsFile(path string) (map[string]model.Decision, error) {
	rows, err := readCSV(path)
	if err != nil {
		return nil, fmt.Errorf("qc: load results file: %w", err)
	}

	results := make(map[string]model.Decision, len(rows))
	for _, row := range rows {
		ref := strings.TrimSpace(row["reference"])
		if ref == "" {
			continue
		}
		results[ref] = model.ParseDecision(row["decision"])
	}
	return results, nil
}

// LoadRefsFile reads a newline-delimited reference list. Blank lines
// and lines starting with # are ignored.
func LoadRefsFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("qc: load refs file: %w", err)
	}
	defer f.Close()

	var refs []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		refs = append(refs, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("qc: read refs file: %w", err)
	}
	return refs, nil
}

// WriteRefsFile writes a newline-delimited reference list.
func WriteRefsFile(path string, refs []string) error {
	content := strings.Join(refs, "\n") + "\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("qc: write refs file: %w", err)
	}
	return nil
}

// WriteGoldTemplate writes a gold-standard CSV with the given
// references and blank decision columns, ready for officers to fill in.
func WriteGoldTemplate(path string, refs []string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("qc: write gold template: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"reference", "actual_decision"}); err != nil {
		return fmt.Errorf("qc: write gold template header: %w", err)
	}
	for _, ref := range refs {
		if err := w.Write([]string{ref, ""}); err != nil {
			return fmt.Errorf("qc: write gold template row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("qc: flush gold template: %w", err)
	}
	return nil
}

// readCSV parses a headered CSV into one map per row, keyed by the
// lower-cased header names. Short rows are tolerated.
func readCSV(path string) ([]map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, err
	}
	for i := range header {
		header[i] = strings.ToLower(strings.TrimSpace(header[i]))
	}

	var rows []map[string]string
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		row := make(map[string]string, len(header))
		for i, name := range header {
			if i < len(record) {
				row[name] = record[i]
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}
