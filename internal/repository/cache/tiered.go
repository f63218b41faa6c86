package cache

import (
	"context"
	"fmt"

	"github.com/dgraph-io/ristretto/v2"
)

// TieredCache keeps recently served tiles in memory in front of a durable
// backend. Only the memory tier ever drops entries; the backend keeps every
// tile it was given.
type TieredCache struct {
	memory  *ristretto.Cache[string, []byte]
	backend TileCache
}

var _ TileCache = (*TieredCache)(nil)

func NewTieredCache(backend TileCache, maxCost int64) (*TieredCache, error) {
	memory, err := ristretto.NewCache(&ristretto.Config[string, []byte]{
		NumCounters: max(maxCost/1024*10, 1000),
		MaxCost:     maxCost,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("create memory tier: %w", err)
	}

	return &TieredCache{
		memory:  memory,
		backend: backend,
	}, nil
}

func (c *TieredCache) Get(ctx context.Context, k TileCacheKey) (TileCacheValue, bool, error) {
	id := k.String()
	if v, ok := c.memory.Get(id); ok {
		return v, true, nil
	}

	v, ok, err := c.backend.Get(ctx, k)
	if err != nil || !ok {
		return v, ok, err
	}

	c.memory.Set(id, v, int64(len(v)))
	return v, true, nil
}

func (c *TieredCache) Set(ctx context.Context, k TileCacheKey, v TileCacheValue) error {
	if err := c.backend.Set(ctx, k, v); err != nil {
		return err
	}
	c.memory.Set(k.String(), v, int64(len(v)))
	return nil
}

// Wait blocks until buffered memory-tier writes are applied.
func (c *TieredCache) Wait() {
	c.memory.Wait()
}

func (c *TieredCache) Close() {
	c.memory.Close()
}
