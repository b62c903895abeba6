// Package runs ingests completed pipeline runs. The raw decision is
// normalized, calibrated for the application type, assigned a
// history-adjusted confidence, and persisted as an immutable run log
// that feedback correlation and case boosting read back.
package runs

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/henrypygall05-byte/plana-ai-backend-sub001/internal/calibration"
	"github.com/henrypygall05-byte/plana-ai-backend-sub001/internal/model"
	"github.com/henrypygall05-byte/plana-ai-backend-sub001/internal/storage"
	"github.com/henrypygall05-byte/plana-ai-backend-sub001/internal/telemetry"
)

// ConfidenceAdjuster computes the history-adjusted confidence for a
// reference. Implemented by the rerank service.
type ConfidenceAdjuster interface {
	AdjustConfidence(ctx context.Context, reference string) (float64, error)
}

// Input is one completed run to ingest.
type Input struct {
	Reference         string
	RawDecision       string
	PolicyIDs         []string
	SimilarCasesCount int
	DurationMS        int64
	ErrorMessage      *string
	StartedAt         time.Time
}

// Service calibrates and persists run logs.
type Service struct {
	db         *storage.DB
	calibrator *calibration.Calibrator
	confidence ConfidenceAdjuster
	council    string
	mode       string
	logger     *slog.Logger

	ingested metric.Int64Counter
}

// New creates a run ingestion service. Council and mode are stamped on
// every run log, taken from deployment configuration.
func New(db *storage.DB, calibrator *calibration.Calibrator, confidence ConfidenceAdjuster, council, mode string, logger *slog.Logger) *Service {
	meter := telemetry.Meter("plana.runs")
	ingested, _ := meter.Int64Counter("plana.runs.ingested",
		metric.WithDescription("Pipeline runs recorded"))

	return &Service{
		db:         db,
		calibrator: calibrator,
		confidence: confidence,
		council:    council,
		mode:       mode,
		logger:     logger,
		ingested:   ingested,
	}
}

// Ingest records a completed run: the raw decision is parsed to a
// canonical tag, the calibrator applies the per-type override rules,
// and the confidence is adjusted from the type's feedback history. A
// run carrying an error message is stored as failed, so it never counts
// toward mismatch rates.
func (s *Service) Ingest(ctx context.Context, in Input) (model.RunLog, error) {
	reference := strings.TrimSpace(in.Reference)

	raw := model.ParseDecision(in.RawDecision)
	calibrated := s.calibrator.Calibrate(reference, in.RawDecision)

	confidence, err := s.confidence.AdjustConfidence(ctx, reference)
	if err != nil {
		return model.RunLog{}, fmt.Errorf("runs: ingest: %w", err)
	}

	run, err := s.db.CreateRunLog(ctx, model.RunLog{
		Reference:          reference,
		Mode:               s.mode,
		Council:            s.council,
		RawDecision:        raw,
		CalibratedDecision: calibrated,
		Confidence:         confidence,
		PolicyIDs:          in.PolicyIDs,
		SimilarCasesCount:  in.SimilarCasesCount,
		DurationMS:         in.DurationMS,
		Success:            in.ErrorMessage == nil,
		ErrorMessage:       in.ErrorMessage,
		StartedAt:          in.StartedAt,
	})
	if err != nil {
		return model.RunLog{}, fmt.Errorf("runs: ingest: %w", err)
	}

	appType := model.ParseApplicationType(reference)
	s.ingested.Add(ctx, 1, metric.WithAttributes(
		attribute.String("application_type", appType),
		attribute.Bool("success", run.Success),
	))

	s.logger.Info("run ingested",
		"run_id", run.ID,
		"reference", reference,
		"raw_decision", raw,
		"calibrated_decision", calibrated,
		"confidence", confidence,
		"success", run.Success,
	)
	return run, nil
}
