package tile

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownLayer    = errors.New("unknown layer")
	ErrZoomOutOfRange  = errors.New("zoom out of range")
	ErrPlaneOutOfRange = errors.New("plane out of range")
	ErrOutOfScope      = errors.New("coordinates out of scope")
	ErrMisaligned      = errors.New("coordinates not aligned to zoom grid")
)

// Bounds are the configured ranges a Key must lie within, together with the
// resolved scope.
type Bounds struct {
	ZoomMin  int
	ZoomMax  int
	PlaneMin int
	PlaneMax int
	Scope    Scope
}

// MisalignedError carries the nearest valid coordinates for a rejected key.
type MisalignedError struct {
	Key      Key
	AlignedX int
	AlignedY int
}

func (e *MisalignedError) Error() string {
	return fmt.Sprintf("%s: request %d-%d instead", ErrMisaligned, e.AlignedX, e.AlignedY)
}

func (e *MisalignedError) Unwrap() error {
	return ErrMisaligned
}

// Validate rejects keys that are outside the configured ranges or the scope,
// and negative-zoom keys that are not on their level's grid.
func (b Bounds) Validate(k Key) error {
	if _, err := ParseLayer(string(k.Layer)); err != nil {
		return err
	}
	if k.Zoom < b.ZoomMin || k.Zoom > b.ZoomMax {
		return fmt.Errorf("%w: %d is not in [%d, %d]", ErrZoomOutOfRange, k.Zoom, b.ZoomMin, b.ZoomMax)
	}
	if k.Plane < b.PlaneMin || k.Plane > b.PlaneMax {
		return fmt.Errorf("%w: %d is not in [%d, %d]", ErrPlaneOutOfRange, k.Plane, b.PlaneMin, b.PlaneMax)
	}
	if !b.Scope.Contains(k.X, k.Y) {
		s := b.Scope
		return fmt.Errorf("%w: %d-%d is not in x [%d, %d], y [%d, %d]", ErrOutOfScope, k.X, k.Y, s.X1, s.X2, s.Y1, s.Y2)
	}
	if !b.Scope.Aligned(k.Zoom, k.X, k.Y) {
		ax, ay := b.Scope.Align(k.Zoom, k.X, k.Y)
		return &MisalignedError{Key: k, AlignedX: ax, AlignedY: ay}
	}
	return nil
}

func (b Bounds) Planes() []int {
	out := make([]int, 0, b.PlaneMax-b.PlaneMin+1)
	for p := b.PlaneMin; p <= b.PlaneMax; p++ {
		out = append(out, p)
	}
	return out
}
