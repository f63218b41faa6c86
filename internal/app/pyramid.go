package app

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/jaennil/guide_helper/backend/pyramid/internal/raster"
	"github.com/jaennil/guide_helper/backend/pyramid/internal/repository/cache"
	"github.com/jaennil/guide_helper/backend/pyramid/internal/repository/source"
	"github.com/jaennil/guide_helper/backend/pyramid/internal/sentinel"
	"github.com/jaennil/guide_helper/backend/pyramid/internal/tile"
	"github.com/jaennil/guide_helper/backend/pyramid/internal/usecase"
	"github.com/jaennil/guide_helper/backend/pyramid/pkg/config"
	"github.com/jaennil/guide_helper/backend/pyramid/pkg/logger"
	"github.com/jaennil/guide_helper/backend/pyramid/pkg/telemetry"
)

// pyramid is everything the serving and the batch entry points share.
type pyramid struct {
	engine *usecase.Engine
	bounds tile.Bounds
	layers []tile.Layer
	codec  raster.Codec

	closers []func()
}

func (p *pyramid) Close() {
	for i := len(p.closers) - 1; i >= 0; i-- {
		p.closers[i]()
	}
}

func newPyramid(cfg *config.Config, l logger.Logger) (*pyramid, error) {
	p := &pyramid{}

	codec, err := raster.NewCodec(cfg.Pyramid.Format, cfg.Pyramid.LossyQuality)
	if err != nil {
		return nil, err
	}
	p.codec = codec

	layers, err := parseLayers(cfg.Pyramid.Layers)
	if err != nil {
		return nil, err
	}
	p.layers = layers

	sentinels, err := sentinel.Load(cfg.Pyramid.SentinelDir, codec, sentinelSpecs(codec.Ext()))
	if err != nil {
		return nil, fmt.Errorf("init sentinel registry: %w", err)
	}
	l.Info("sentinel registry loaded", "dir", cfg.Pyramid.SentinelDir, "count", len(sentinels.All()))

	store := source.NewStore(cfg.Pyramid.SourceDir, l)

	scopeLayer, err := tile.ParseLayer(cfg.Pyramid.ScopeLayer)
	if err != nil {
		return nil, fmt.Errorf("scope layer: %w", err)
	}

	p.bounds = tile.Bounds{
		ZoomMin:  cfg.Pyramid.ZoomMin,
		ZoomMax:  cfg.Pyramid.ZoomMax,
		PlaneMin: cfg.Pyramid.PlaneMin,
		PlaneMax: cfg.Pyramid.PlaneMax,
	}
	if p.bounds.ZoomMin > 0 || p.bounds.ZoomMax < 0 || p.bounds.PlaneMin > p.bounds.PlaneMax {
		return nil, fmt.Errorf("invalid ranges: zoom [%d, %d], plane [%d, %d]",
			p.bounds.ZoomMin, p.bounds.ZoomMax, p.bounds.PlaneMin, p.bounds.PlaneMax)
	}

	scope, err := store.Scope(scopeLayer, p.bounds.Planes())
	if err != nil {
		return nil, fmt.Errorf("resolve scope: %w", err)
	}
	p.bounds.Scope = scope
	l.Info("scope resolved", "layer", scopeLayer, "scope", scope)

	c, err := newTileCache(cfg, codec.Ext(), l, p)
	if err != nil {
		p.Close()
		return nil, err
	}

	engine, err := usecase.NewEngine(usecase.Env{
		Scope:     scope,
		Sentinels: sentinels,
		Codec:     codec,
		TileSize:  cfg.Pyramid.TileSize,
	}, c, store, cfg.Pyramid.Workers, l)
	if err != nil {
		p.Close()
		return nil, err
	}
	p.engine = engine

	return p, nil
}

// newTileCache builds the configured durable backend, optionally fronted by
// the memory tier. Backends that hold resources register a closer on p.
func newTileCache(cfg *config.Config, ext string, l logger.Logger, p *pyramid) (cache.TileCache, error) {
	var backend cache.TileCache

	switch cfg.Cache.Backend {
	case "filesystem":
		fs, err := cache.NewFilesystemCache(cfg.Cache.Dir, ext)
		if err != nil {
			return nil, err
		}
		backend = fs
	case "sqlite":
		sq, err := cache.NewSQLiteCache(cfg.Cache.SQLitePath, l)
		if err != nil {
			return nil, fmt.Errorf("init sqlite cache: %w", err)
		}
		p.closers = append(p.closers, func() { sq.Close() })
		backend = sq
	case "redis":
		rc, err := cache.NewRedisCache(cache.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, fmt.Errorf("init redis cache: %w", err)
		}
		p.closers = append(p.closers, func() { rc.Close() })
		backend = rc
	case "memory":
		backend = cache.NewMapCache()
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Cache.Backend)
	}
	l.Info("tile cache initialized", "backend", cfg.Cache.Backend)

	if !cfg.Cache.MemoryEnabled {
		return backend, nil
	}

	tiered, err := cache.NewTieredCache(backend, cfg.Cache.MemoryMaxCost)
	if err != nil {
		return nil, fmt.Errorf("init memory tier: %w", err)
	}
	p.closers = append(p.closers, tiered.Close)
	l.Info("memory tier enabled", "max_cost", cfg.Cache.MemoryMaxCost)

	return tiered, nil
}

func parseLayers(names []string) ([]tile.Layer, error) {
	layers := make([]tile.Layer, 0, len(names))
	for _, n := range names {
		layer, err := tile.ParseLayer(strings.TrimSpace(n))
		if err != nil {
			return nil, err
		}
		layers = append(layers, layer)
	}
	return layers, nil
}

// sentinelSpecs points the default sentinel files at the output format, so
// that sentinel bytes and stored tiles share one encoding.
func sentinelSpecs(ext string) []sentinel.Spec {
	specs := make([]sentinel.Spec, len(sentinel.DefaultSpecs))
	for i, s := range sentinel.DefaultSpecs {
		s.File = strings.TrimSuffix(s.File, filepath.Ext(s.File)) + "." + ext
		specs[i] = s
	}
	return specs
}

func initTelemetry(cfg config.Telemetry, l logger.Logger) func() {
	if !cfg.Enabled {
		return func() {}
	}

	shutdown, err := telemetry.InitTracer(telemetry.Config{
		ServiceName:    cfg.ServiceName,
		ServiceVersion: cfg.ServiceVersion,
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTLPEndpoint,
	}, l)
	if err != nil {
		l.Fatal("failed to initialize telemetry", "error", err)
	}
	l.Info("telemetry initialized", "service", cfg.ServiceName)

	return func() {
		if err := shutdown(context.Background()); err != nil {
			l.Error("failed to shutdown telemetry", "error", err)
		}
	}
}
