package usecase

import (
	"context"
	"time"

	"github.com/jaennil/guide_helper/backend/pyramid/internal/raster"
	"github.com/jaennil/guide_helper/backend/pyramid/internal/tile"
	"github.com/jaennil/guide_helper/backend/pyramid/pkg/metrics"
)

// upscale materializes a tile at zoom >= 0 from its base raster. Zoom 0 is
// the base raster re-encoded; zoom n is magnified to (n+1) tiles per edge.
// Only a done ctx is returned as an error. Scope bounds every base raster,
// so keys outside it are missing without a read.
func (e *Engine) upscale(ctx context.Context, k tile.Key) (outcome, error) {
	if !e.env.Scope.Contains(k.X, k.Y) {
		return failed(FailureMissingSource, "scope", nil), nil
	}

	raw, ok, err := e.source.Load(k.Layer, k.Plane, k.X, k.Y)
	if err != nil {
		return failed(FailureSourceRead, "read", err), nil
	}
	if !ok {
		return failed(FailureMissingSource, "read", nil), nil
	}

	if s, ok := e.env.Sentinels.CanonicalizeBytes(k.Layer, raw); ok {
		return canonical(s), nil
	}

	if err := e.cpu.Acquire(ctx, 1); err != nil {
		return outcome{}, err
	}
	defer e.cpu.Release(1)

	start := time.Now()
	e.stats.upscales.Add(1)
	metrics.TilesComputed.WithLabelValues("upscale").Inc()
	defer func() {
		metrics.ComputeDuration.WithLabelValues("upscale").Observe(time.Since(start).Seconds())
	}()

	img, err := raster.DecodeSource(raw)
	if err != nil {
		return failed(FailureTransform, "decode", err), nil
	}

	if s, ok := e.env.Sentinels.CanonicalizeImage(k.Layer, img); ok {
		return canonical(s), nil
	}

	if k.Zoom > 0 {
		img = raster.Magnify(img, (k.Zoom+1)*e.env.TileSize)
	}

	data, err := e.env.Codec.EncodeLossless(img)
	if err != nil {
		return failed(FailureTransform, "encode", err), nil
	}

	return produced(data), nil
}
