// Package raster holds the pixel-level primitives the pyramid engine consumes:
// decoding and encoding tiles, magnifying base rasters, halving children and
// compositing quadrants.
package raster

import (
	"image"
	"image/draw"

	xdraw "golang.org/x/image/draw"
)

// Codec encodes and decodes tile bytes. Lossless output must decode back to
// the exact input pixels.
type Codec interface {
	Decode(data []byte) (image.Image, error)
	EncodeLossless(img image.Image) ([]byte, error)
	EncodeLossy(img image.Image) ([]byte, error)
	// Ext is the file extension of encoded tiles, without the dot.
	Ext() string
}

// box averages every source pixel that falls inside the destination pixel.
var box = &xdraw.Kernel{
	Support: 0.5,
	At: func(t float64) float64 {
		return 1
	},
}

// Magnify scales img to size×size with nearest-neighbor sampling, keeping
// hard edges between map features.
func Magnify(img image.Image, size int) *image.NRGBA {
	dst := image.NewNRGBA(image.Rect(0, 0, size, size))
	xdraw.NearestNeighbor.Scale(dst, dst.Bounds(), img, img.Bounds(), xdraw.Src, nil)
	return dst
}

// Halve box-downsamples img to size×size, where size is normally half of
// the source edge.
func Halve(img image.Image, size int) *image.NRGBA {
	dst := image.NewNRGBA(image.Rect(0, 0, size, size))
	box.Scale(dst, dst.Bounds(), img, img.Bounds(), xdraw.Src, nil)
	return dst
}

// Canvas is a fully transparent tile-sized image the quadrants are drawn on.
func Canvas(size int) *image.NRGBA {
	return image.NewNRGBA(image.Rect(0, 0, size, size))
}

// Overlay draws part over canvas with its top-left corner at (x, y).
func Overlay(canvas draw.Image, part image.Image, x, y int) {
	b := part.Bounds()
	r := image.Rect(x, y, x+b.Dx(), y+b.Dy())
	draw.Draw(canvas, r, part, b.Min, draw.Over)
}

// NRGBA returns img as a zero-origin *image.NRGBA, converting if needed.
func NRGBA(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok && n.Rect.Min == (image.Point{}) {
		return n
	}
	b := img.Bounds()
	n := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(n, n.Bounds(), img, b.Min, draw.Src)
	return n
}
