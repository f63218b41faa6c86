package app

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/jaennil/guide_helper/backend/pyramid/internal/usecase"
	"github.com/jaennil/guide_helper/backend/pyramid/pkg/config"
	"github.com/jaennil/guide_helper/backend/pyramid/pkg/logger"
)

// Precompute materializes the whole pyramid for every configured layer and
// returns when done or interrupted.
func Precompute(cfg *config.Config) error {
	l := logger.NewZapLogger(cfg.Logger)
	defer l.Sync()

	l.Info("precompute config", "cfg", cfg.Redacted())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = logger.WithLogger(ctx, l)

	shutdownTelemetry := initTelemetry(cfg.Telemetry, l)
	defer shutdownTelemetry()

	p, err := newPyramid(cfg, l)
	if err != nil {
		return err
	}
	defer p.Close()

	batch := usecase.NewBatchUseCase(p.engine, p.bounds, cfg.Pyramid.Workers, l)

	l.Info("starting precompute", "layers", p.layers, "zooms", batch.Zooms(), "scope", p.bounds.Scope)

	report, err := batch.Run(ctx, p.layers)
	if err != nil {
		l.Error("precompute interrupted", "tiles", report.Tiles, "duration", report.Duration, "error", err)
		return err
	}

	s := p.engine.Stats()
	l.Info("precompute completed",
		"tiles", report.Tiles,
		"duration", report.Duration,
		"computed", report.ByOrigin[usecase.OriginComputed],
		"sentinel", report.ByOrigin[usecase.OriginSentinel],
		"fallback", report.ByOrigin[usecase.OriginFallback],
		"cached", report.ByOrigin[usecase.OriginCache],
		"persist_failures", s.PersistFailures,
	)

	return nil
}
