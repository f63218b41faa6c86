package raster

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"github.com/gen2brain/webp"
	xwebp "golang.org/x/image/webp"
)

const (
	FormatWebP = "webp"
	FormatPNG  = "png"
)

// NewCodec returns the codec for a configured output format.
func NewCodec(format string, lossyQuality int) (Codec, error) {
	switch format {
	case FormatWebP, "":
		return NewWebPCodec(lossyQuality), nil
	case FormatPNG:
		return NewPNGCodec(), nil
	default:
		return nil, fmt.Errorf("unsupported tile format %q", format)
	}
}

type WebPCodec struct {
	quality int
}

var _ Codec = (*WebPCodec)(nil)

func NewWebPCodec(quality int) *WebPCodec {
	if quality <= 0 || quality > 100 {
		quality = webp.DefaultQuality
	}
	return &WebPCodec{quality: quality}
}

// Decode goes through x/image/webp, which keeps VP8L pixels exact. The
// encoder's own decoder converts everything to YCbCr.
func (c *WebPCodec) Decode(data []byte) (image.Image, error) {
	img, err := xwebp.Decode(bytes.NewReader(data))
	if err != nil {
		// base tiles and foreign sentinels may still be png
		if pngImg, pngErr := png.Decode(bytes.NewReader(data)); pngErr == nil {
			return pngImg, nil
		}
		return nil, fmt.Errorf("decode webp: %w", err)
	}
	return img, nil
}

func (c *WebPCodec) EncodeLossless(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	err := webp.Encode(&buf, img, webp.Options{
		Lossless: true,
		Exact:    true,
		Method:   webp.DefaultMethod,
	})
	if err != nil {
		return nil, fmt.Errorf("encode lossless webp: %w", err)
	}
	return buf.Bytes(), nil
}

func (c *WebPCodec) EncodeLossy(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	err := webp.Encode(&buf, img, webp.Options{
		Quality: c.quality,
		Method:  webp.DefaultMethod,
	})
	if err != nil {
		return nil, fmt.Errorf("encode lossy webp: %w", err)
	}
	return buf.Bytes(), nil
}

func (c *WebPCodec) Ext() string {
	return FormatWebP
}

// PNGCodec stores every tile losslessly. EncodeLossy is the same as
// EncodeLossless.
type PNGCodec struct {
	enc png.Encoder
}

var _ Codec = (*PNGCodec)(nil)

func NewPNGCodec() *PNGCodec {
	return &PNGCodec{enc: png.Encoder{CompressionLevel: png.BestCompression}}
}

func (c *PNGCodec) Decode(data []byte) (image.Image, error) {
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode png: %w", err)
	}
	return img, nil
}

func (c *PNGCodec) EncodeLossless(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := c.enc.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func (c *PNGCodec) EncodeLossy(img image.Image) ([]byte, error) {
	return c.EncodeLossless(img)
}

func (c *PNGCodec) Ext() string {
	return FormatPNG
}
