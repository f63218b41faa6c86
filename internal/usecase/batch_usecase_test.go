package usecase

import (
	"context"
	"errors"
	"image/color"
	"slices"
	"testing"

	"github.com/jaennil/guide_helper/backend/pyramid/internal/repository/cache"
	"github.com/jaennil/guide_helper/backend/pyramid/internal/tile"
	"github.com/jaennil/guide_helper/backend/pyramid/pkg/logger"
)

func testBounds(scope tile.Scope) tile.Bounds {
	return tile.Bounds{ZoomMin: -2, ZoomMax: 1, PlaneMin: 0, PlaneMax: 1, Scope: scope}
}

func TestBatchZooms(t *testing.T) {
	tests := []struct {
		name     string
		min, max int
		want     []int
	}{
		{"both sweeps", -3, 2, []int{0, -1, -2, -3, 1, 2}},
		{"downscale only", -2, 0, []int{0, -1, -2}},
		{"upscale only", 0, 2, []int{0, 1, 2}},
		{"zoom zero", 0, 0, []int{0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := NewBatchUseCase(nil, tile.Bounds{ZoomMin: tt.min, ZoomMax: tt.max}, 1, logger.NewNoOp())
			if got := uc.Zooms(); !slices.Equal(got, tt.want) {
				t.Errorf("Zooms() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBatchMaterializesEveryAlignedTile(t *testing.T) {
	c := cache.NewMapCache()
	f := newFixture(t, c)
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			f.source.put(tile.LayerMap, 0, x, y, encodePNG(t, solid(testTileSize, red)))
		}
	}

	bounds := testBounds(f.engine.Env().Scope)
	uc := NewBatchUseCase(f.engine, bounds, 3, logger.NewNoOp())

	type level struct{ zoom, plane int }
	var order []level
	uc.visit = func(got Tile) {
		l := level{got.Key.Zoom, got.Key.Plane}
		if len(order) == 0 || order[len(order)-1] != l {
			order = append(order, l)
		}
	}

	report, err := uc.Run(context.Background(), []tile.Layer{tile.LayerMap})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	// per plane: 16 at zoom 0, 4 at -1, 1 at -2, 16 at 1
	want := 2 * (16 + 4 + 1 + 16)
	if report.Tiles != want {
		t.Errorf("Tiles = %d, want %d", report.Tiles, want)
	}
	// children below the scope edge are persisted as blank too
	if c.Len() < want {
		t.Errorf("cache holds %d tiles, want at least %d", c.Len(), want)
	}

	wantOrder := []level{{0, 0}, {0, 1}, {-1, 0}, {-1, 1}, {-2, 0}, {-2, 1}, {1, 0}, {1, 1}}
	if !slices.Equal(order, wantOrder) {
		t.Errorf("traversal order = %v, want %v", order, wantOrder)
	}

	for _, k := range []tile.Key{
		{Layer: tile.LayerMap, Zoom: -1, Plane: 0, X: 2, Y: 2},
		{Layer: tile.LayerMap, Zoom: -2, Plane: 1, X: 0, Y: 0},
		{Layer: tile.LayerMap, Zoom: 1, Plane: 0, X: 3, Y: 3},
	} {
		if _, ok, _ := c.Get(context.Background(), k); !ok {
			t.Errorf("%s was not materialized", k)
		}
	}
}

func TestBatchReusesFinerLevels(t *testing.T) {
	f := newFixture(t, cache.NewMapCache())
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			f.source.put(tile.LayerHeightmap, 0, x, y, encodePNG(t, solid(testTileSize, color.NRGBA{uint8(x * 40), uint8(y * 40), 90, 255})))
		}
	}

	bounds := testBounds(f.engine.Env().Scope)
	bounds.PlaneMax = 0
	uc := NewBatchUseCase(f.engine, bounds, 2, logger.NewNoOp())
	layers := []tile.Layer{tile.LayerHeightmap}

	if _, err := uc.Run(context.Background(), layers); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	first := f.engine.Stats()
	loads := f.source.loads.Load()
	if first.Upscales < 16 {
		t.Errorf("Upscales = %d, want at least one per source tile", first.Upscales)
	}

	report, err := uc.Run(context.Background(), layers)
	if err != nil {
		t.Fatalf("second Run() error = %v", err)
	}
	second := f.engine.Stats()
	if second.Upscales != first.Upscales || second.Downscales != first.Downscales {
		t.Errorf("second run recomputed tiles: %+v then %+v", first, second)
	}
	if got := f.source.loads.Load(); got != loads {
		t.Errorf("second run read %d source tiles", got-loads)
	}
	if report.ByOrigin[OriginCache] != report.Tiles {
		t.Errorf("second run: %d of %d tiles from cache", report.ByOrigin[OriginCache], report.Tiles)
	}
}

func TestBatchEmptyScope(t *testing.T) {
	f := newFixture(t, cache.NewMapCache())
	uc := NewBatchUseCase(f.engine, testBounds(tile.EmptyScope), 1, logger.NewNoOp())

	report, err := uc.Run(context.Background(), tile.Layers)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if report.Tiles != 0 {
		t.Errorf("Tiles = %d, want 0", report.Tiles)
	}
}

func TestBatchStopsOnCancel(t *testing.T) {
	f := newFixture(t, cache.NewMapCache())
	uc := NewBatchUseCase(f.engine, testBounds(f.engine.Env().Scope), 1, logger.NewNoOp())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := uc.Run(ctx, tile.Layers); !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
}
