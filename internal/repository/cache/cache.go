package cache

import (
	"context"

	"github.com/jaennil/guide_helper/backend/pyramid/internal/tile"
)

type TileCacheKey = tile.Key

type TileCacheValue []byte

// TileCache is a write-once store of encoded tiles. A miss is reported as
// (nil, false, nil). Set may be called concurrently for the same key with
// identical bytes; the last write wins and readers never see a partial value.
type TileCache interface {
	Get(context.Context, TileCacheKey) (TileCacheValue, bool, error)
	Set(context.Context, TileCacheKey, TileCacheValue) error
}
