// Package sentinel fingerprints the canonical degenerate tiles (blank, solid
// ocean, solid walkable) so that results identical to one of them can be
// replaced by a single shared instance.
package sentinel

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/jaennil/guide_helper/backend/pyramid/internal/raster"
	"github.com/jaennil/guide_helper/backend/pyramid/internal/tile"
)

const (
	Blank    = "blank"
	Ocean    = "ocean"
	Walkable = "walkable"
)

var ErrNoBlank = errors.New("sentinel registry has no blank tile")

// Fingerprint is a SHA-256 content hash.
type Fingerprint [sha256.Size]byte

func FingerprintBytes(data []byte) Fingerprint {
	return sha256.Sum256(data)
}

// FingerprintPixels hashes the decoded content of img, so that the same
// picture matches regardless of how it was encoded.
func FingerprintPixels(img image.Image) Fingerprint {
	n := raster.NRGBA(img)
	h := sha256.New()
	fmt.Fprintf(h, "%dx%d:", n.Rect.Dx(), n.Rect.Dy())
	for y := 0; y < n.Rect.Dy(); y++ {
		off := y * n.Stride
		h.Write(n.Pix[off : off+4*n.Rect.Dx()])
	}
	var fp Fingerprint
	copy(fp[:], h.Sum(nil))
	return fp
}

// Spec describes one sentinel to load. A nil Layers applies it everywhere.
type Spec struct {
	Name   string
	File   string
	Layers []tile.Layer
}

// DefaultSpecs are the sentinels shipped with the map assets.
var DefaultSpecs = []Spec{
	{Name: Blank, File: "empty.webp"},
	{Name: Ocean, File: "empty-blue.webp", Layers: []tile.Layer{tile.LayerMap}},
	{Name: Walkable, File: "empty-white.webp", Layers: []tile.Layer{tile.LayerCollision}},
}

// Sentinel is one canonical tile.
type Sentinel struct {
	Name   string
	Data   []byte
	Bytes  Fingerprint
	Pixels Fingerprint
	layers map[tile.Layer]bool
}

func (s *Sentinel) AppliesTo(l tile.Layer) bool {
	return s.layers == nil || s.layers[l]
}

// Registry is immutable after construction and safe for concurrent use.
type Registry struct {
	ordered  []*Sentinel
	byBytes  map[Fingerprint]*Sentinel
	byPixels map[Fingerprint]*Sentinel
	blank    *Sentinel
}

// Load reads every spec from dir. Missing files are fatal: the registry is
// part of startup configuration.
func Load(dir string, codec raster.Codec, specs []Spec) (*Registry, error) {
	entries := make([]Entry, 0, len(specs))
	for _, s := range specs {
		data, err := os.ReadFile(filepath.Join(dir, s.File))
		if err != nil {
			return nil, fmt.Errorf("load sentinel %q: %w", s.Name, err)
		}
		entries = append(entries, Entry{Spec: s, Data: data})
	}
	return New(codec, entries)
}

// Entry pairs a spec with its encoded bytes.
type Entry struct {
	Spec Spec
	Data []byte
}

func New(codec raster.Codec, entries []Entry) (*Registry, error) {
	r := &Registry{
		byBytes:  make(map[Fingerprint]*Sentinel, len(entries)),
		byPixels: make(map[Fingerprint]*Sentinel, len(entries)),
	}

	for _, e := range entries {
		img, err := codec.Decode(e.Data)
		if err != nil {
			return nil, fmt.Errorf("decode sentinel %q: %w", e.Spec.Name, err)
		}

		s := &Sentinel{
			Name:   e.Spec.Name,
			Data:   e.Data,
			Bytes:  FingerprintBytes(e.Data),
			Pixels: FingerprintPixels(img),
		}
		if e.Spec.Layers != nil {
			s.layers = make(map[tile.Layer]bool, len(e.Spec.Layers))
			for _, l := range e.Spec.Layers {
				s.layers[l] = true
			}
		}

		if _, dup := r.byBytes[s.Bytes]; dup {
			return nil, fmt.Errorf("sentinel %q duplicates the content of another sentinel", s.Name)
		}
		r.byBytes[s.Bytes] = s
		if _, dup := r.byPixels[s.Pixels]; !dup {
			r.byPixels[s.Pixels] = s
		}
		r.ordered = append(r.ordered, s)

		if s.Name == Blank {
			r.blank = s
		}
	}

	if r.blank == nil {
		return nil, ErrNoBlank
	}

	return r, nil
}

func (r *Registry) Blank() *Sentinel {
	return r.blank
}

func (r *Registry) All() []*Sentinel {
	return r.ordered
}

// Canonicalize returns the sentinel whose encoded bytes hash to fp, if it
// applies to layer.
func (r *Registry) Canonicalize(layer tile.Layer, fp Fingerprint) (*Sentinel, bool) {
	s, ok := r.byBytes[fp]
	if !ok || !s.AppliesTo(layer) {
		return nil, false
	}
	return s, true
}

// CanonicalizeBytes is Canonicalize over the fingerprint of data.
func (r *Registry) CanonicalizeBytes(layer tile.Layer, data []byte) (*Sentinel, bool) {
	return r.Canonicalize(layer, FingerprintBytes(data))
}

// CanonicalizeImage matches on decoded pixel content, for rasters that were
// not produced by the registry's codec.
func (r *Registry) CanonicalizeImage(layer tile.Layer, img image.Image) (*Sentinel, bool) {
	s, ok := r.byPixels[FingerprintPixels(img)]
	if !ok || !s.AppliesTo(layer) {
		return nil, false
	}
	return s, true
}

// Common returns the sentinel shared by every tile in data, if all of them
// canonicalize to the same one.
func (r *Registry) Common(layer tile.Layer, data ...[]byte) (*Sentinel, bool) {
	var common *Sentinel
	for _, d := range data {
		s, ok := r.CanonicalizeBytes(layer, d)
		if !ok {
			return nil, false
		}
		if common != nil && common != s {
			return nil, false
		}
		common = s
	}
	return common, common != nil
}
