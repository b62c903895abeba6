package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/henrypygall05-byte/plana-ai-backend-sub001/internal/auth"
	"github.com/henrypygall05-byte/plana-ai-backend-sub001/internal/calibration"
	"github.com/henrypygall05-byte/plana-ai-backend-sub001/internal/config"
	"github.com/henrypygall05-byte/plana-ai-backend-sub001/internal/server"
	"github.com/henrypygall05-byte/plana-ai-backend-sub001/internal/service/feedback"
	"github.com/henrypygall05-byte/plana-ai-backend-sub001/internal/service/rerank"
	"github.com/henrypygall05-byte/plana-ai-backend-sub001/internal/service/runs"
	"github.com/henrypygall05-byte/plana-ai-backend-sub001/internal/storage"
	"github.com/henrypygall05-byte/plana-ai-backend-sub001/internal/telemetry"
	"github.com/henrypygall05-byte/plana-ai-backend-sub001/migrations"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	os.Exit(run0())
}

func run0() int {
	level := slog.LevelInfo
	if os.Getenv("PLANA_LOG_LEVEL") == "debug" {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, logger); err != nil {
		slog.Error("fatal error", "error", err)
		return 1
	}
	return 0
}

func run(ctx context.Context, logger *slog.Logger) error {
	// Load .env file if present (non-fatal; production won't have one).
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	slog.Info("plana starting", "version", version, "port", cfg.Port, "mode", cfg.Mode)

	// Initialize OpenTelemetry.
	otelShutdown, err := telemetry.Init(ctx, cfg.OTELEndpoint, cfg.ServiceName, version, cfg.OTELInsecure)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer func() { _ = otelShutdown(context.Background()) }()

	// Connect to database.
	db, err := storage.New(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	defer db.Close()

	// Run migrations. Applied files are tracked in schema_migrations, so
	// errors here indicate real failures (not "already exists").
	if err := db.RunMigrations(ctx, migrations.FS); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}

	// Create JWT manager.
	jwtMgr, err := auth.NewJWTManager(cfg.JWTPrivateKeyPath, cfg.JWTPublicKeyPath, cfg.JWTExpiration)
	if err != nil {
		return fmt.Errorf("auth: %w", err)
	}

	// Create services.
	rerankSvc := rerank.New(db, rerank.DefaultConfidence(), logger)
	feedbackSvc := feedback.New(db, rerankSvc, logger)
	calibrator := calibration.New(calibration.DefaultRules())
	runSvc := runs.New(db, calibrator, rerankSvc, cfg.CouncilID, cfg.Mode, logger)

	// Create and start HTTP server.
	srv := server.New(server.ServerConfig{
		DB:                  db,
		JWTMgr:              jwtMgr,
		RunSvc:              runSvc,
		FeedbackSvc:         feedbackSvc,
		RerankSvc:           rerankSvc,
		Logger:              logger,
		Port:                cfg.Port,
		ReadTimeout:         cfg.ReadTimeout,
		WriteTimeout:        cfg.WriteTimeout,
		Version:             version,
		APIKeyHash:          cfg.APIKeyHash,
		MaxRequestBodyBytes: cfg.MaxRequestBodyBytes,
	})

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
