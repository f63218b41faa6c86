package tile

import (
	"errors"
	"testing"
)

func TestStep(t *testing.T) {
	want := map[int]int{-1: 1, -2: 2, -3: 4, -4: 8, -5: 16, -6: 32}
	for z, step := range want {
		if got := Step(z); got != step {
			t.Errorf("Step(%d) = %d, want %d", z, got, step)
		}
	}
}

func TestChildren(t *testing.T) {
	k := Key{Layer: LayerMap, Zoom: -2, Plane: 1, X: 10, Y: 20}
	got := k.Children()
	want := [4]Key{
		{Layer: LayerMap, Zoom: -1, Plane: 1, X: 10, Y: 20},
		{Layer: LayerMap, Zoom: -1, Plane: 1, X: 10, Y: 18},
		{Layer: LayerMap, Zoom: -1, Plane: 1, X: 12, Y: 20},
		{Layer: LayerMap, Zoom: -1, Plane: 1, X: 12, Y: 18},
	}
	if got != want {
		t.Fatalf("Children() = %v, want %v", got, want)
	}

	q := Quadrants()
	offsets := [4][2]int{{0, 0}, {0, 128}, {128, 0}, {128, 128}}
	for i := range q {
		x, y := q[i].Offset(128)
		if x != offsets[i][0] || y != offsets[i][1] {
			t.Errorf("quadrant %d offset = (%d, %d), want %v", i, x, y, offsets[i])
		}
	}
}

func TestChildrenOfLevelMinusOneAreBase(t *testing.T) {
	k := Key{Layer: LayerCollision, Zoom: -1, X: 4, Y: 4}
	for _, c := range k.Children() {
		if c.Zoom != 0 {
			t.Errorf("child %v has zoom %d, want 0", c, c.Zoom)
		}
	}
}

func TestResolveScope(t *testing.T) {
	tests := []struct {
		name  string
		files [][]string
		want  Scope
	}{
		{"empty", nil, EmptyScope},
		{"no matches", [][]string{{"readme.txt", ".DS_Store"}}, EmptyScope},
		{"single", [][]string{{"5-10.png"}}, Scope{5, 10, 5, 10}},
		{
			"skips junk",
			[][]string{{"3-7.png", "notes", "12-2.png", "8-40.png"}},
			Scope{X1: 3, Y1: 2, X2: 12, Y2: 40},
		},
		{
			"union of planes",
			[][]string{{"3-7.png"}, {"1-9.png", "20-8.png"}},
			Scope{X1: 1, Y1: 7, X2: 20, Y2: 9},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveScope(tt.files...)
			if got != tt.want {
				t.Errorf("ResolveScope() = %+v, want %+v", got, tt.want)
			}
		})
	}

	if !EmptyScope.Empty() {
		t.Error("EmptyScope.Empty() = false")
	}
}

func TestScopeGrid(t *testing.T) {
	s := Scope{X1: 1, Y1: 2, X2: 9, Y2: 6}

	if got := s.Cols(-2); len(got) != 3 || got[0] != 1 || got[2] != 9 {
		t.Errorf("Cols(-2) = %v", got)
	}
	if got := s.Rows(-1); len(got) != 3 || got[0] != 2 || got[2] != 6 {
		t.Errorf("Rows(-1) = %v", got)
	}
	if got := s.Count(0); got != 45 {
		t.Errorf("Count(0) = %d, want 45", got)
	}
	if !s.Aligned(-2, 5, 6) {
		t.Error("(5,6) should be aligned at zoom -2")
	}
	if s.Aligned(-2, 4, 6) {
		t.Error("(4,6) should not be aligned at zoom -2")
	}
	if x, y := s.Align(-2, 4, 7); x != 1 || y != 6 {
		t.Errorf("Align(-2, 4, 7) = (%d, %d), want (1, 6)", x, y)
	}
}

func TestBoundsValidate(t *testing.T) {
	b := Bounds{ZoomMin: -4, ZoomMax: 2, PlaneMin: 0, PlaneMax: 3, Scope: Scope{0, 0, 99, 199}}

	tests := []struct {
		name string
		key  Key
		want error
	}{
		{"valid base", Key{Layer: LayerMap, X: 5, Y: 10}, nil},
		{"valid negative", Key{Layer: LayerHeightmap, Zoom: -2, Plane: 3, X: 8, Y: 4}, nil},
		{"unknown layer", Key{Layer: "terrain"}, ErrUnknownLayer},
		{"zoom too low", Key{Layer: LayerMap, Zoom: -5}, ErrZoomOutOfRange},
		{"zoom too high", Key{Layer: LayerMap, Zoom: 3}, ErrZoomOutOfRange},
		{"plane", Key{Layer: LayerMap, Plane: 4}, ErrPlaneOutOfRange},
		{"x out of scope", Key{Layer: LayerMap, X: 100}, ErrOutOfScope},
		{"negative y", Key{Layer: LayerMap, Y: -1}, ErrOutOfScope},
		{"misaligned", Key{Layer: LayerMap, Zoom: -3, X: 9, Y: 8}, ErrMisaligned},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := b.Validate(tt.key)
			if tt.want == nil {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Fatalf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}

	var mis *MisalignedError
	err := b.Validate(Key{Layer: LayerMap, Zoom: -3, X: 9, Y: 10})
	if !errors.As(err, &mis) {
		t.Fatalf("expected MisalignedError, got %v", err)
	}
	if mis.AlignedX != 8 || mis.AlignedY != 8 {
		t.Errorf("aligned = %d-%d, want 8-8", mis.AlignedX, mis.AlignedY)
	}
}
