package usecase

import (
	"context"
	"image"
	"time"

	"github.com/jaennil/guide_helper/backend/pyramid/internal/raster"
	"github.com/jaennil/guide_helper/backend/pyramid/internal/sentinel"
	"github.com/jaennil/guide_helper/backend/pyramid/internal/tile"
	"github.com/jaennil/guide_helper/backend/pyramid/pkg/metrics"
	"golang.org/x/sync/errgroup"
)

// downscale reduces the 2×2 block of children one level finer into one tile.
// Children are resolved concurrently through Compute, so shared subtrees are
// computed once. Only a done ctx is returned as an error. The result is
// degraded when any child is transient.
func (e *Engine) downscale(ctx context.Context, k tile.Key) (outcome, error) {
	resolved, err := e.children(ctx, k)
	if err != nil {
		return outcome{}, err
	}

	out, err := e.reduce(ctx, k, resolved)
	if err != nil {
		return outcome{}, err
	}
	for _, c := range resolved {
		out.degraded = out.degraded || c.Transient
	}
	return out, nil
}

func (e *Engine) children(ctx context.Context, k tile.Key) ([4]Tile, error) {
	children := k.Children()

	var resolved [len(children)]Tile
	g, gctx := errgroup.WithContext(ctx)
	for i, c := range children {
		g.Go(func() error {
			t, err := e.Compute(gctx, c)
			if err != nil {
				return err
			}
			resolved[i] = t
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return resolved, err
	}
	return resolved, nil
}

func (e *Engine) reduce(ctx context.Context, k tile.Key, resolved [4]Tile) (outcome, error) {
	data := make([][]byte, len(resolved))
	for i, t := range resolved {
		data[i] = t.Data
	}
	if s, ok := e.env.Sentinels.Common(k.Layer, data...); ok {
		return canonical(s), nil
	}

	if err := e.cpu.Acquire(ctx, 1); err != nil {
		return outcome{}, err
	}
	defer e.cpu.Release(1)

	start := time.Now()
	e.stats.downscales.Add(1)
	metrics.TilesComputed.WithLabelValues("downscale").Inc()
	defer func() {
		metrics.ComputeDuration.WithLabelValues("downscale").Observe(time.Since(start).Seconds())
	}()

	canvas := e.compose(resolved)

	encoded, err := e.env.Codec.EncodeLossy(canvas)
	if err != nil {
		return failed(FailureTransform, "encode", err), nil
	}

	return produced(encoded), nil
}

// compose halves each child and draws it at its quadrant. A child that
// cannot be decoded is drawn as the blank quadrant.
func (e *Engine) compose(children [4]Tile) image.Image {
	e.stats.composites.Add(1)

	half := e.env.TileSize / 2
	canvas := raster.Canvas(e.env.TileSize)
	quadrants := tile.Quadrants()

	for i, c := range children {
		part := e.quarter(c, half)
		x, y := quadrants[i].Offset(half)
		raster.Overlay(canvas, part, x, y)
	}

	return canvas
}

func (e *Engine) quarter(c Tile, half int) image.Image {
	if c.Sentinel == sentinel.Blank {
		return e.blankQuarter
	}

	img, err := e.env.Codec.Decode(c.Data)
	if err != nil {
		metrics.TransformFailures.WithLabelValues("decode_child").Inc()
		e.logger.Warn("child tile undecodable, using blank quadrant", "tile", c.Key.String(), "error", err)
		return e.blankQuarter
	}

	return raster.Halve(img, half)
}
