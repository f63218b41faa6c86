package usecase

import (
	"context"

	"github.com/jaennil/guide_helper/backend/pyramid/internal/tile"
	"github.com/jaennil/guide_helper/backend/pyramid/pkg/logger"
	"github.com/jaennil/guide_helper/backend/pyramid/pkg/metrics"
	"github.com/jaennil/guide_helper/backend/pyramid/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type TileUseCase struct {
	engine *Engine
	bounds tile.Bounds
	logger logger.Logger
}

func NewTileUseCase(engine *Engine, bounds tile.Bounds, l logger.Logger) *TileUseCase {
	return &TileUseCase{
		engine: engine,
		bounds: bounds,
		logger: l,
	}
}

// GetTile validates k against the served range and resolves it. Validation
// errors wrap the tile package sentinels; *tile.MisalignedError carries the
// aligned coordinates.
func (uc *TileUseCase) GetTile(ctx context.Context, k tile.Key) (Tile, error) {
	ctx, span := telemetry.Tracer("usecase").Start(ctx, "TileUseCase.GetTile")
	defer span.End()
	span.SetAttributes(attribute.String("tile.key", k.String()))

	metrics.TilesRequests.Inc()

	if err := uc.bounds.Validate(k); err != nil {
		uc.logger.Debug("rejected tile request", "tile", k.String(), "error", err)
		span.SetStatus(codes.Error, err.Error())
		return Tile{}, err
	}

	t, err := uc.engine.Compute(ctx, k)
	if err != nil {
		uc.logger.Warn("tile request aborted", "tile", k.String(), "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Tile{}, err
	}

	span.SetAttributes(
		attribute.String("tile.origin", t.Origin.String()),
		attribute.Int("tile.size", len(t.Data)),
	)
	uc.logger.Debug("tile resolved", "tile", k.String(), "origin", t.Origin.String(), "size", len(t.Data))

	return t, nil
}

func (uc *TileUseCase) Bounds() tile.Bounds {
	return uc.bounds
}

func (uc *TileUseCase) Scope() tile.Scope {
	return uc.bounds.Scope
}

func (uc *TileUseCase) Stats() Stats {
	return uc.engine.Stats()
}
