package usecase

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/jaennil/guide_helper/backend/pyramid/internal/tile"
	"github.com/jaennil/guide_helper/backend/pyramid/pkg/logger"
	"github.com/jaennil/guide_helper/backend/pyramid/pkg/metrics"
	"github.com/jaennil/guide_helper/backend/pyramid/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

// BatchReport summarizes one precompute run.
type BatchReport struct {
	Tiles    int
	ByOrigin map[Origin]int
	Duration time.Duration
}

// BatchUseCase eagerly materializes every aligned tile within bounds.
type BatchUseCase struct {
	engine  *Engine
	bounds  tile.Bounds
	workers int
	logger  logger.Logger

	// visit observes every resolved tile in traversal order; tests only.
	visit func(Tile)
}

func NewBatchUseCase(engine *Engine, bounds tile.Bounds, workers int, l logger.Logger) *BatchUseCase {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &BatchUseCase{
		engine:  engine,
		bounds:  bounds,
		workers: workers,
		logger:  l,
	}
}

// Zooms returns the traversal order of levels: the downscale sweep from 0 to
// ZoomMin, then the upscale sweep from 1 to ZoomMax.
func (uc *BatchUseCase) Zooms() []int {
	var out []int
	for z := min(0, uc.bounds.ZoomMax); z >= uc.bounds.ZoomMin; z-- {
		out = append(out, z)
	}
	for z := max(1, uc.bounds.ZoomMin); z <= uc.bounds.ZoomMax; z++ {
		out = append(out, z)
	}
	return out
}

// Run sweeps each layer in turn. Every plane of one zoom completes before
// the next zoom starts. Only a done ctx stops the run early.
func (uc *BatchUseCase) Run(ctx context.Context, layers []tile.Layer) (BatchReport, error) {
	ctx, span := telemetry.Tracer("usecase").Start(ctx, "BatchUseCase.Run")
	defer span.End()

	report := BatchReport{ByOrigin: make(map[Origin]int)}
	start := time.Now()

	if uc.bounds.Scope.Empty() {
		uc.logger.Warn("scope is empty, nothing to precompute")
		return report, nil
	}

	for _, layer := range layers {
		for _, z := range uc.Zooms() {
			for _, plane := range uc.bounds.Planes() {
				n, err := uc.sweep(ctx, layer, z, plane, report.ByOrigin)
				report.Tiles += n
				if err != nil {
					report.Duration = time.Since(start)
					span.RecordError(err)
					return report, fmt.Errorf("precompute %s zoom %d plane %d: %w", layer, z, plane, err)
				}
			}
		}
		uc.logger.Info("layer precomputed", "layer", layer, "elapsed", time.Since(start))
	}

	report.Duration = time.Since(start)
	span.SetAttributes(attribute.Int("batch.tiles", report.Tiles))
	uc.logger.Info("precompute finished", "tiles", report.Tiles, "duration", report.Duration)

	return report, nil
}

func (uc *BatchUseCase) sweep(ctx context.Context, layer tile.Layer, z, plane int, byOrigin map[Origin]int) (int, error) {
	scope := uc.bounds.Scope
	rows, cols := scope.Rows(z), scope.Cols(z)
	keys := make([]tile.Key, 0, len(rows)*len(cols))
	for _, y := range rows {
		for _, x := range cols {
			keys = append(keys, tile.Key{Layer: layer, Zoom: z, Plane: plane, X: x, Y: y})
		}
	}

	started := time.Now()
	results := make([]Tile, len(keys))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uc.workers)
	for i, k := range keys {
		g.Go(func() error {
			t, err := uc.engine.Compute(gctx, k)
			if err != nil {
				return err
			}
			results[i] = t
			metrics.BatchTiles.WithLabelValues(string(layer)).Inc()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	for _, t := range results {
		byOrigin[t.Origin]++
		if uc.visit != nil {
			uc.visit(t)
		}
	}

	uc.logger.Info("zoom precomputed",
		"layer", layer,
		"zoom", z,
		"plane", plane,
		"tiles", len(keys),
		"elapsed", time.Since(started),
	)

	return len(keys), nil
}
