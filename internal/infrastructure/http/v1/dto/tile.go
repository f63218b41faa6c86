package dto

import "github.com/jaennil/guide_helper/backend/pyramid/internal/tile"

// TileRequest is the parsed path of a tile request. Range checks that depend
// on configuration happen in the usecase.
type TileRequest struct {
	Layer string `validate:"required,oneof=map heightmap collision"`
	Zoom  int
	Plane int `validate:"min=0"`
	X     int `validate:"min=0"`
	Y     int `validate:"min=0"`
}

func (r TileRequest) Key() tile.Key {
	return tile.Key{
		Layer: tile.Layer(r.Layer),
		Zoom:  r.Zoom,
		Plane: r.Plane,
		X:     r.X,
		Y:     r.Y,
	}
}

type ScopeResponse struct {
	Scope    tile.Scope `json:"scope"`
	ZoomMin  int        `json:"zoom_min"`
	ZoomMax  int        `json:"zoom_max"`
	PlaneMin int        `json:"plane_min"`
	PlaneMax int        `json:"plane_max"`
}
