// Package source reads the base-resolution rasters the pyramid is derived
// from. It never writes.
package source

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/jaennil/guide_helper/backend/pyramid/internal/tile"
	"github.com/jaennil/guide_helper/backend/pyramid/pkg/logger"
)

const Ext = "png"

// Store serves base tiles laid out as <root>/<layer>/<plane>/<x>-<y>.png.
type Store struct {
	root   string
	logger logger.Logger
}

func NewStore(root string, l logger.Logger) *Store {
	return &Store{
		root:   root,
		logger: l,
	}
}

// Load returns the encoded base raster, or ok=false when there is none.
func (s *Store) Load(layer tile.Layer, plane, x, y int) ([]byte, bool, error) {
	data, err := os.ReadFile(s.Path(layer, plane, x, y))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("read source %s/%d/%d-%d: %w", layer, plane, x, y, err)
	}
	return data, true, nil
}

func (s *Store) Path(layer tile.Layer, plane, x, y int) string {
	return filepath.Join(s.root, string(layer), strconv.Itoa(plane), fmt.Sprintf("%d-%d.%s", x, y, Ext))
}

// List returns the file names of one layer and plane. A missing directory is
// an empty listing.
func (s *Store) List(layer tile.Layer, plane int) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.root, string(layer), strconv.Itoa(plane)))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		names = append(names, e.Name())
	}
	return names, nil
}

// Scope resolves the coordinate extent of layer over every given plane.
// Names not shaped like <x>-<y> are ignored; no match at all yields
// tile.EmptyScope.
func (s *Store) Scope(layer tile.Layer, planes []int) (tile.Scope, error) {
	listings := make([][]string, 0, len(planes))
	for _, p := range planes {
		names, err := s.List(layer, p)
		if err != nil {
			return tile.EmptyScope, fmt.Errorf("list %s plane %d: %w", layer, p, err)
		}
		s.logger.Debug("source listing", "layer", layer, "plane", p, "files", len(names))
		listings = append(listings, names)
	}

	scope := tile.ResolveScope(listings...)
	if scope.Empty() {
		s.logger.Warn("no source tiles found, scope is empty", "root", s.root, "layer", layer)
	}
	return scope, nil
}
