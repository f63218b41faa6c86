package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	v1 "github.com/jaennil/guide_helper/backend/pyramid/internal/infrastructure/http/v1"
	"github.com/jaennil/guide_helper/backend/pyramid/internal/infrastructure/http/v1/handler"
	"github.com/jaennil/guide_helper/backend/pyramid/internal/raster"
	"github.com/jaennil/guide_helper/backend/pyramid/internal/usecase"
	"github.com/jaennil/guide_helper/backend/pyramid/pkg/config"
	"github.com/jaennil/guide_helper/backend/pyramid/pkg/http_server"
	"github.com/jaennil/guide_helper/backend/pyramid/pkg/logger"
)

func Run(cfg *config.Config) {
	l := logger.NewZapLogger(cfg.Logger)
	defer l.Sync()

	l.Info("app config", "cfg", cfg.Redacted())

	ctx := logger.WithLogger(context.Background(), l)

	shutdownTelemetry := initTelemetry(cfg.Telemetry, l)
	defer shutdownTelemetry()

	p, err := newPyramid(cfg, l)
	if err != nil {
		l.Fatal("failed to initialize tile pyramid", "error", err)
	}
	defer p.Close()

	tileUseCase := usecase.NewTileUseCase(p.engine, p.bounds, l)

	if cfg.HTTP.Production {
		gin.SetMode(gin.ReleaseMode)
	}

	validate := validator.New()
	h := handler.NewHandler(validate, tileUseCase, handler.Options{
		CacheMaxAge: cfg.HTTP.CacheMaxAge,
		Production:  cfg.HTTP.Production,
		ContentType: contentType(p.codec),
		Ext:         p.codec.Ext(),
	})
	router := v1.NewRouter(h, l, v1.RouterOptions{
		TelemetryEnabled: cfg.Telemetry.Enabled,
		ServiceName:      cfg.Telemetry.ServiceName,
		RequestTimeout:   cfg.HTTP.Timeout,
	})

	httpServer := http_server.NewServer(ctx, cfg.HTTP.Server, router)

	go func() {
		l.Info("starting http server...", "address", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Fatal("http server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	l.Info("received shutdown signal")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	l.Info("shutting down http server...", "address", httpServer.Addr)
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		l.Error("http server shutdown failed", "error", err)
	} else {
		l.Info("http server shutdown completed")
	}

	s := p.engine.Stats()
	l.Info("application shutdown completed",
		"cache_hits", s.CacheHits,
		"upscales", s.Upscales,
		"downscales", s.Downscales,
		"fallbacks", s.Fallbacks,
	)
}

func contentType(c raster.Codec) string {
	return "image/" + c.Ext()
}
