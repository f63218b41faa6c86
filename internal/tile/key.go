// Package tile holds the identity types of the tile pyramid: layers, keys,
// the coordinate scope and the quadtree geometry that links zoom levels.
package tile

import (
	"fmt"
)

type Layer string

const (
	LayerMap       Layer = "map"
	LayerHeightmap Layer = "heightmap"
	LayerCollision Layer = "collision"
)

var Layers = []Layer{LayerMap, LayerHeightmap, LayerCollision}

func ParseLayer(s string) (Layer, error) {
	for _, l := range Layers {
		if string(l) == s {
			return l, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownLayer, s)
}

// Key uniquely identifies one tile of the pyramid.
type Key struct {
	Layer Layer
	Zoom  int
	Plane int
	X     int
	Y     int
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%d/%d/%d-%d", k.Layer, k.Zoom, k.Plane, k.X, k.Y)
}

// Name is the base file name of the tile, without extension.
func (k Key) Name() string {
	return fmt.Sprintf("%d-%d", k.X, k.Y)
}

// Children returns the four keys one level finer that a downscaled tile is
// composed from, in quadrant order. Calling it on a key with Zoom >= 0 panics.
func (k Key) Children() [4]Key {
	step := Step(k.Zoom)
	child := k
	child.Zoom = k.Zoom + 1

	var out [4]Key
	for i, d := range quadrants {
		c := child
		c.X = k.X + d.dx*step
		c.Y = k.Y - d.dy*step
		out[i] = c
	}
	return out
}

// Quadrant describes where child i of Children lands on the parent canvas,
// in units of half a tile.
type Quadrant struct {
	dx, dy int
}

func (q Quadrant) Offset(half int) (x, y int) {
	return q.dx * half, q.dy * half
}

var quadrants = [4]Quadrant{
	{0, 0},
	{0, 1},
	{1, 0},
	{1, 1},
}

func Quadrants() [4]Quadrant {
	return quadrants
}

// Step is the coordinate distance between sibling children of a tile at
// zoom z < 0. It equals the grid size of the child level: 1, 2, 4, ...
func Step(z int) int {
	if z >= 0 {
		panic(fmt.Sprintf("tile: step is undefined for zoom %d", z))
	}
	return Grid(z + 1)
}

// Grid is the coordinate spacing of valid tiles at zoom z: 1 for z >= 0,
// 2^|z| below.
func Grid(z int) int {
	if z >= 0 {
		return 1
	}
	return 1 << -z
}
