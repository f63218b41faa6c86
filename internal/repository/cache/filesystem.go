package cache

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
)

const tempPrefix = ".tmp-"

// FilesystemCache stores one file per tile at
// <root>/<layer>/<zoom>/<plane>/<x>-<y>.<ext>. Files are published with a
// rename so a reader sees either nothing or the complete tile.
type FilesystemCache struct {
	root string
	ext  string
}

var _ TileCache = (*FilesystemCache)(nil)

func NewFilesystemCache(root, ext string) (*FilesystemCache, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("create cache root: %w", err)
	}
	return &FilesystemCache{root: root, ext: ext}, nil
}

func (c *FilesystemCache) Get(ctx context.Context, k TileCacheKey) (TileCacheValue, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	content, err := os.ReadFile(c.Path(k))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}

	return content, true, nil
}

func (c *FilesystemCache) Set(ctx context.Context, k TileCacheKey, v TileCacheValue) error {
	path := c.Path(k)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create tile directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, tempPrefix+k.Name()+"-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	publish := func() error {
		if _, err := tmp.Write(v); err != nil {
			tmp.Close()
			return err
		}
		if err := tmp.Close(); err != nil {
			return err
		}
		if err := os.Chmod(tmpName, 0644); err != nil {
			return err
		}
		// a cancelled request leaves nothing behind
		if err := ctx.Err(); err != nil {
			return err
		}
		return os.Rename(tmpName, path)
	}

	if err := publish(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write tile %s: %w", k, err)
	}

	return nil
}

// Path is where k is stored.
func (c *FilesystemCache) Path(k TileCacheKey) string {
	return filepath.Join(c.root, string(k.Layer), strconv.Itoa(k.Zoom), strconv.Itoa(k.Plane), k.Name()+"."+c.ext)
}
