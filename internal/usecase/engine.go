package usecase

import (
	"context"
	"errors"
	"fmt"
	"image"
	"runtime"
	"sync/atomic"

	"github.com/jaennil/guide_helper/backend/pyramid/internal/raster"
	"github.com/jaennil/guide_helper/backend/pyramid/internal/repository/cache"
	"github.com/jaennil/guide_helper/backend/pyramid/internal/sentinel"
	"github.com/jaennil/guide_helper/backend/pyramid/internal/tile"
	"github.com/jaennil/guide_helper/backend/pyramid/pkg/logger"
	"github.com/jaennil/guide_helper/backend/pyramid/pkg/metrics"
	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"
)

// SourceReader loads encoded base rasters; ok is false when none exists.
type SourceReader interface {
	Load(layer tile.Layer, plane, x, y int) (data []byte, ok bool, err error)
}

// Env is the read-only context shared by every computation. It is built
// once at startup and never changes.
type Env struct {
	Scope     tile.Scope
	Sentinels *sentinel.Registry
	Codec     raster.Codec
	TileSize  int
}

func (env Env) validate() error {
	if env.Sentinels == nil {
		return errors.New("env: sentinel registry is required")
	}
	if env.Codec == nil {
		return errors.New("env: codec is required")
	}
	if env.TileSize <= 0 || env.TileSize%2 != 0 {
		return fmt.Errorf("env: tile size must be a positive even number, got %d", env.TileSize)
	}
	return nil
}

// Stats counts engine work since construction.
type Stats struct {
	CacheHits       int64
	Upscales        int64
	Downscales      int64
	Composites      int64
	SentinelHits    int64
	Fallbacks       int64
	PersistFailures int64
}

type counters struct {
	cacheHits       atomic.Int64
	upscales        atomic.Int64
	downscales      atomic.Int64
	composites      atomic.Int64
	sentinelHits    atomic.Int64
	fallbacks       atomic.Int64
	persistFailures atomic.Int64
}

// Engine resolves any key of the pyramid. Zoom >= 0 magnifies base rasters,
// zoom < 0 reduces four finer tiles recursively down to zoom 0. Concurrent
// requests for the same key share one computation.
type Engine struct {
	env    Env
	cache  cache.TileCache
	source SourceReader
	logger logger.Logger

	flight singleflight.Group
	cpu    *semaphore.Weighted

	blankQuarter image.Image
	stats        counters
}

// NewEngine validates env and prepares the shared blank quadrant. workers
// bounds concurrent decode/resize/encode work; zero means GOMAXPROCS.
func NewEngine(env Env, c cache.TileCache, src SourceReader, workers int, l logger.Logger) (*Engine, error) {
	if err := env.validate(); err != nil {
		return nil, err
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	blank, err := env.Codec.Decode(env.Sentinels.Blank().Data)
	if err != nil {
		return nil, fmt.Errorf("decode blank sentinel: %w", err)
	}

	return &Engine{
		env:          env,
		cache:        c,
		source:       src,
		logger:       l,
		cpu:          semaphore.NewWeighted(int64(workers)),
		blankQuarter: raster.Halve(blank, env.TileSize/2),
	}, nil
}

func (e *Engine) Env() Env {
	return e.env
}

func (e *Engine) Stats() Stats {
	return Stats{
		CacheHits:       e.stats.cacheHits.Load(),
		Upscales:        e.stats.upscales.Load(),
		Downscales:      e.stats.downscales.Load(),
		Composites:      e.stats.composites.Load(),
		SentinelHits:    e.stats.sentinelHits.Load(),
		Fallbacks:       e.stats.fallbacks.Load(),
		PersistFailures: e.stats.persistFailures.Load(),
	}
}

// Compute returns the encoded tile for k. It only fails when ctx is done;
// every per-tile problem degrades to a sentinel instead. Keys are not
// range-checked here.
func (e *Engine) Compute(ctx context.Context, k tile.Key) (Tile, error) {
	for {
		if err := ctx.Err(); err != nil {
			return Tile{}, err
		}

		ch := e.flight.DoChan(k.String(), func() (any, error) {
			return e.compute(ctx, k)
		})

		select {
		case <-ctx.Done():
			return Tile{}, ctx.Err()
		case res := <-ch:
			if res.Err == nil {
				return res.Val.(Tile), nil
			}
			// the caller that led this flight went away; we did not
			if isCanceled(res.Err) && ctx.Err() == nil {
				continue
			}
			return Tile{}, res.Err
		}
	}
}

func (e *Engine) compute(ctx context.Context, k tile.Key) (Tile, error) {
	if data, ok, err := e.lookup(ctx, k); err != nil {
		return Tile{}, err
	} else if ok {
		return Tile{Key: k, Data: data, Origin: OriginCache}, nil
	}

	var (
		out outcome
		err error
	)
	if k.Zoom >= 0 {
		out, err = e.upscale(ctx, k)
	} else {
		out, err = e.downscale(ctx, k)
	}
	if err != nil {
		return Tile{}, err
	}

	return e.finish(ctx, k, out), nil
}

func (e *Engine) lookup(ctx context.Context, k tile.Key) ([]byte, bool, error) {
	data, ok, err := e.cache.Get(ctx, k)
	if err != nil {
		if isCanceled(err) {
			return nil, false, err
		}
		e.logger.Warn("cache lookup failed, recomputing", "tile", k.String(), "error", err)
		metrics.CacheMisses.Inc()
		return nil, false, nil
	}
	if !ok {
		metrics.CacheMisses.Inc()
		return nil, false, nil
	}

	e.stats.cacheHits.Add(1)
	metrics.CacheHits.Inc()
	e.logger.Debug("cache hit", "tile", k.String())
	return data, true, nil
}

// finish is the single place where failures turn into the blank sentinel
// and where results are written through to the cache.
func (e *Engine) finish(ctx context.Context, k tile.Key, out outcome) Tile {
	t := Tile{Key: k, Failure: out.failure}

	switch {
	case out.failure == FailureMissingSource:
		out.sentinel = e.env.Sentinels.Blank()
		fallthrough
	case out.sentinel != nil:
		t.Data = out.sentinel.Data
		t.Origin = OriginSentinel
		t.Sentinel = out.sentinel.Name
		e.stats.sentinelHits.Add(1)
		metrics.SentinelHits.WithLabelValues(out.sentinel.Name).Inc()
	case out.failure != FailureNone:
		t.Data = e.env.Sentinels.Blank().Data
		t.Origin = OriginFallback
		t.Sentinel = sentinel.Blank
		e.stats.fallbacks.Add(1)
		metrics.TransformFailures.WithLabelValues(out.stage).Inc()
		e.logger.Warn("tile degraded to blank", "tile", k.String(), "reason", out.failure.String(), "stage", out.stage, "error", out.err)
	default:
		t.Data = out.data
		t.Origin = OriginComputed
	}

	t.Transient = out.degraded || !out.failure.persistent()
	if t.Transient {
		if out.degraded {
			e.logger.Debug("tile built from transient children, not persisting", "tile", k.String())
		}
		return t
	}

	if err := e.cache.Set(ctx, k, t.Data); err != nil {
		e.stats.persistFailures.Add(1)
		metrics.PersistFailures.Inc()
		e.logger.Warn("failed to persist tile", "tile", k.String(), "error", err)
		return t
	}
	metrics.CacheStores.Inc()

	return t
}

func isCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
