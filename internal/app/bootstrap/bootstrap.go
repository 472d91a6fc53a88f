package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	committeeengine "meridian/contexts/rating-operations/committee-engine"
	committeepostgres "meridian/contexts/rating-operations/committee-engine/adapters/postgres"
	ratingscale "meridian/contexts/rating-operations/rating-scale"
	ratingscalepostgres "meridian/contexts/rating-operations/rating-scale/adapters/postgres"
	workflowengine "meridian/contexts/rating-operations/workflow-engine"
	workflowpostgres "meridian/contexts/rating-operations/workflow-engine/adapters/postgres"
	workflowworkers "meridian/contexts/rating-operations/workflow-engine/application/workers"
	"meridian/internal/platform/config"
	"meridian/internal/platform/db"
	"meridian/internal/platform/httpserver"
	"meridian/internal/platform/messaging"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

type APIApp struct {
	server   *httpserver.Server
	postgres *db.Postgres
	logger   *slog.Logger
}

type WorkerApp struct {
	postgres     *db.Postgres
	auditRelay   workflowworkers.AuditRelay
	pollInterval time.Duration
	logger       *slog.Logger
}

// classifierBridge adapts the rating-scale module to the untyped Classify
// port the committee engine declares.
type classifierBridge struct {
	scale ratingscale.Module
}

func (b classifierBridge) Classify(ctx context.Context, previousRating string, currentRating string) (string, error) {
	action, err := b.scale.Classifier.Classify(ctx, previousRating, currentRating)
	if err != nil {
		return "", err
	}
	return string(action), nil
}

func BuildAPI() (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "api")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	scaleRepo := ratingscalepostgres.NewRepository(pg.DB, logger)
	scaleModule := ratingscale.NewModule(ratingscale.Dependencies{
		Symbols: scaleRepo,
		Logger:  logger,
	})

	committeeRepo := committeepostgres.NewRepository(pg.DB, logger)
	committeeModule := committeeengine.NewModule(committeeengine.Dependencies{
		Repository: committeeRepo,
		Classifier: classifierBridge{scale: scaleModule},
		Atomic:     committeeRepo,
		Audit:      committeeRepo,
		Clock:      committeepostgres.SystemClock{},
		IDGen:      committeepostgres.UUIDGenerator{},
		Logger:     logger,
	})

	workflowRepo := workflowpostgres.NewRepository(pg.DB, logger)
	workflowModule := workflowengine.NewModule(workflowengine.Dependencies{
		Repository: workflowRepo,
		Register:   committeeModule.Gateway,
		Atomic:     workflowRepo,
		Audit:      workflowRepo,
		Clock:      workflowpostgres.SystemClock{},
		IDGen:      workflowpostgres.UUIDGenerator{},
		Logger:     logger,
	})

	server := httpserver.New(scaleModule, workflowModule, committeeModule, logger, normalizeAddr(cfg.HTTPPort))
	return &APIApp{
		server:   server,
		postgres: pg,
		logger:   logger,
	}, nil
}

func BuildWorker() (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "worker")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	kafka, err := messaging.NewKafka(cfg.KafkaBrokers, logger)
	if err != nil {
		return nil, err
	}

	repo := workflowpostgres.NewRepository(pg.DB, logger)
	return &WorkerApp{
		postgres: pg,
		auditRelay: workflowworkers.AuditRelay{
			Audit:     repo,
			Publisher: kafka,
			Clock:     workflowpostgres.SystemClock{},
			BatchSize: cfg.RelayBatchSize,
			Logger:    logger,
		},
		pollInterval: cfg.RelayPollInterval,
		logger:       logger,
	}, nil
}

func (a *APIApp) Run(_ context.Context) error {
	if a.logger != nil {
		a.logger.Info("api app started",
			"event", "bootstrap_api_started",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
	}
	return a.server.Start()
}

func (a *APIApp) Close() error {
	if a.postgres != nil {
		return a.postgres.Close()
	}
	return nil
}

func (w *WorkerApp) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"poll_interval", w.pollInterval.String(),
	)

	for {
		if err := w.auditRelay.RunOnce(ctx); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (w *WorkerApp) Close() error {
	if w.postgres != nil {
		return w.postgres.Close()
	}
	return nil
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}
