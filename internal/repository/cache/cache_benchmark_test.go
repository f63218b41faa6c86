package cache

import (
	"context"
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/jaennil/guide_helper/backend/pyramid/internal/tile"
	"github.com/jaennil/guide_helper/backend/pyramid/pkg/logger"
)

const (
	smallTileSize  = 1024      // 1KB
	mediumTileSize = 10 * 1024 // 10KB
	largeTileSize  = 50 * 1024 // 50KB
)

func generateTileData(size int) []byte {
	data := make([]byte, size)
	rand.Read(data)
	return data
}

func benchKey(i int) TileCacheKey {
	return TileCacheKey{
		Layer: tile.Layers[i%len(tile.Layers)],
		Zoom:  -(i % 7),
		Plane: i % 4,
		X:     i % 100,
		Y:     i % 100,
	}
}

type backendSetup func(b *testing.B) (TileCache, func())

func setupSQLiteCache(b *testing.B) (TileCache, func()) {
	b.Helper()
	cache, err := NewSQLiteCache(filepath.Join(b.TempDir(), "test.db"), logger.NewNoOp())
	if err != nil {
		b.Fatalf("Failed to create SQLite cache: %v", err)
	}
	return cache, func() {
		cache.Close()
	}
}

func setupMapCache(b *testing.B) (TileCache, func()) {
	b.Helper()
	return NewMapCache(), func() {}
}

func setupFilesystemCache(b *testing.B) (TileCache, func()) {
	b.Helper()
	cache, err := NewFilesystemCache(b.TempDir(), "webp")
	if err != nil {
		b.Fatalf("Failed to create filesystem cache: %v", err)
	}
	return cache, func() {}
}

func setupTieredCache(b *testing.B) (TileCache, func()) {
	b.Helper()
	backend, _ := setupFilesystemCache(b)
	cache, err := NewTieredCache(backend, 64<<20)
	if err != nil {
		b.Fatalf("Failed to create tiered cache: %v", err)
	}
	return cache, cache.Close
}

var backends = []struct {
	name  string
	setup backendSetup
}{
	{"SQLite", setupSQLiteCache},
	{"Map", setupMapCache},
	{"Filesystem", setupFilesystemCache},
	{"Tiered", setupTieredCache},
}

var sizes = []struct {
	name string
	size int
}{
	{"Small", smallTileSize},
	{"Large", largeTileSize},
}

func BenchmarkSet(b *testing.B) {
	ctx := context.Background()
	for _, be := range backends {
		for _, sz := range sizes {
			b.Run(be.name+"_"+sz.name, func(b *testing.B) {
				cache, cleanup := be.setup(b)
				defer cleanup()
				data := generateTileData(sz.size)

				b.ResetTimer()
				for i := 0; i < b.N; i++ {
					if err := cache.Set(ctx, benchKey(i), data); err != nil {
						b.Fatalf("Set failed: %v", err)
					}
				}
			})
		}
	}
}

func BenchmarkGet(b *testing.B) {
	ctx := context.Background()
	for _, be := range backends {
		for _, sz := range sizes {
			b.Run(be.name+"_"+sz.name, func(b *testing.B) {
				cache, cleanup := be.setup(b)
				defer cleanup()
				data := generateTileData(sz.size)

				// Populate cache
				for i := 0; i < 100; i++ {
					cache.Set(ctx, benchKey(i), data)
				}

				b.ResetTimer()
				for i := 0; i < b.N; i++ {
					_, _, err := cache.Get(ctx, benchKey(i%100))
					if err != nil {
						b.Fatalf("Get failed: %v", err)
					}
				}
			})
		}
	}
}

// Benchmark concurrent operations (80% reads, 20% writes - typical cache pattern)
func BenchmarkConcurrent(b *testing.B) {
	ctx := context.Background()
	for _, be := range backends {
		b.Run(be.name, func(b *testing.B) {
			cache, cleanup := be.setup(b)
			defer cleanup()
			data := generateTileData(mediumTileSize)

			b.RunParallel(func(pb *testing.PB) {
				i := 0
				for pb.Next() {
					key := benchKey(i % 100)
					if i%5 == 0 {
						cache.Set(ctx, key, data)
					} else {
						cache.Get(ctx, key)
					}
					i++
				}
			})
		})
	}
}
