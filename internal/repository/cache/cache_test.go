package cache

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/jaennil/guide_helper/backend/pyramid/internal/tile"
	"github.com/jaennil/guide_helper/backend/pyramid/pkg/logger"
)

func testBackends(t *testing.T) map[string]TileCache {
	t.Helper()

	fsCache, err := NewFilesystemCache(t.TempDir(), "webp")
	if err != nil {
		t.Fatalf("NewFilesystemCache() error = %v", err)
	}

	sqliteCache, err := NewSQLiteCache(filepath.Join(t.TempDir(), "tiles.db"), logger.NewNoOp())
	if err != nil {
		t.Fatalf("NewSQLiteCache() error = %v", err)
	}
	t.Cleanup(func() { sqliteCache.Close() })

	tiered, err := NewTieredCache(NewMapCache(), 1<<20)
	if err != nil {
		t.Fatalf("NewTieredCache() error = %v", err)
	}
	t.Cleanup(tiered.Close)

	return map[string]TileCache{
		"filesystem": fsCache,
		"map":        NewMapCache(),
		"sqlite":     sqliteCache,
		"tiered":     tiered,
	}
}

func TestGetSet(t *testing.T) {
	ctx := context.Background()
	key := TileCacheKey{Layer: tile.LayerMap, Zoom: -3, Plane: 2, X: 8, Y: 16}
	other := TileCacheKey{Layer: tile.LayerCollision, Zoom: -3, Plane: 2, X: 8, Y: 16}

	for name, c := range testBackends(t) {
		t.Run(name, func(t *testing.T) {
			if _, ok, err := c.Get(ctx, key); err != nil || ok {
				t.Fatalf("Get() on empty cache = %v, %v", ok, err)
			}

			if err := c.Set(ctx, key, []byte("first")); err != nil {
				t.Fatalf("Set() error = %v", err)
			}
			got, ok, err := c.Get(ctx, key)
			if err != nil || !ok || string(got) != "first" {
				t.Fatalf("Get() = %q, %v, %v", got, ok, err)
			}

			if _, ok, _ := c.Get(ctx, other); ok {
				t.Fatal("layers must not share entries")
			}

			// last write wins
			if err := c.Set(ctx, key, []byte("second")); err != nil {
				t.Fatalf("Set() error = %v", err)
			}
			got, _, _ = c.Get(ctx, key)
			if string(got) != "second" {
				t.Fatalf("Get() after overwrite = %q", got)
			}
		})
	}
}

func TestFilesystemLayout(t *testing.T) {
	root := t.TempDir()
	c, err := NewFilesystemCache(root, "webp")
	if err != nil {
		t.Fatal(err)
	}

	key := TileCacheKey{Layer: tile.LayerHeightmap, Zoom: -1, Plane: 3, X: 4, Y: 6}
	want := filepath.Join(root, "heightmap", "-1", "3", "4-6.webp")
	if got := c.Path(key); got != want {
		t.Fatalf("Path() = %q, want %q", got, want)
	}

	if err := c.Set(context.Background(), key, []byte("tile")); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	data, err := os.ReadFile(want)
	if err != nil || string(data) != "tile" {
		t.Fatalf("file content = %q, %v", data, err)
	}
}

func TestFilesystemConcurrentSetSameKey(t *testing.T) {
	root := t.TempDir()
	c, err := NewFilesystemCache(root, "webp")
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	key := TileCacheKey{Layer: tile.LayerMap, Zoom: 0, Plane: 0, X: 1, Y: 1}
	value := bytes.Repeat([]byte{0xAB}, 64*1024)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := c.Set(ctx, key, value); err != nil {
				t.Errorf("Set() error = %v", err)
			}
			// a reader never observes a truncated tile
			if got, ok, err := c.Get(ctx, key); ok && err == nil && !bytes.Equal(got, value) {
				t.Errorf("observed partial tile of %d bytes", len(got))
			}
		}()
	}
	wg.Wait()

	entries, err := os.ReadDir(filepath.Dir(c.Path(key)))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "1-1.webp" {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Fatalf("directory holds %v, want only 1-1.webp", names)
	}
}

func TestFilesystemCancelledSetLeavesNothing(t *testing.T) {
	c, err := NewFilesystemCache(t.TempDir(), "webp")
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	key := TileCacheKey{Layer: tile.LayerMap, Zoom: -2, X: 0, Y: 0}
	if err := c.Set(ctx, key, []byte("tile")); !errors.Is(err, context.Canceled) {
		t.Fatalf("Set() error = %v, want context.Canceled", err)
	}

	entries, _ := os.ReadDir(filepath.Dir(c.Path(key)))
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), tempPrefix) || e.Name() == "0-0.webp" {
			t.Fatalf("cancelled Set left %s behind", e.Name())
		}
	}
}

func TestSQLiteCount(t *testing.T) {
	c, err := NewSQLiteCache(filepath.Join(t.TempDir(), "tiles.db"), logger.NewNoOp())
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	ctx := context.Background()
	key := TileCacheKey{Layer: tile.LayerMap, Zoom: 1, X: 2, Y: 3}
	for i := 0; i < 3; i++ {
		if err := c.Set(ctx, key, []byte("same")); err != nil {
			t.Fatal(err)
		}
	}

	n, err := c.Count(ctx)
	if err != nil || n != 1 {
		t.Fatalf("Count() = %d, %v; want 1", n, err)
	}
}

func TestTieredServesFromBackend(t *testing.T) {
	ctx := context.Background()
	backend := NewMapCache()
	key := TileCacheKey{Layer: tile.LayerMap, X: 7, Y: 7}
	backend.Set(ctx, key, []byte("durable"))

	c, err := NewTieredCache(backend, 1<<20)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	got, ok, err := c.Get(ctx, key)
	if err != nil || !ok || string(got) != "durable" {
		t.Fatalf("Get() = %q, %v, %v", got, ok, err)
	}

	other := TileCacheKey{Layer: tile.LayerMap, X: 8, Y: 7}
	if err := c.Set(ctx, other, []byte("new")); err != nil {
		t.Fatal(err)
	}
	if backend.Len() != 2 {
		t.Fatalf("backend holds %d tiles, want 2", backend.Len())
	}
}
