package raster

import (
	"bytes"
	"fmt"
	"image"
	_ "image/png"

	_ "golang.org/x/image/webp"
)

// DecodeSource decodes a base raster in any registered format (png, webp).
func DecodeSource(data []byte) (image.Image, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode source raster: %w", err)
	}
	if img.Bounds().Empty() {
		return nil, fmt.Errorf("decode source raster: empty %s image", format)
	}
	return img, nil
}
