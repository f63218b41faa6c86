package tile

import (
	"regexp"
	"strconv"
)

// Scope is the bounding box of all base tiles, inclusive on both ends.
type Scope struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

// EmptyScope contains no coordinates at all.
var EmptyScope = Scope{X1: 0, Y1: 0, X2: -1, Y2: -1}

var coordPattern = regexp.MustCompile(`(\d+)-(\d+)`)

// ParseCoords extracts the x and y encoded in a source or cache file name
// such as "12-40.png".
func ParseCoords(name string) (x, y int, ok bool) {
	m := coordPattern.FindStringSubmatch(name)
	if m == nil {
		return 0, 0, false
	}
	x, errX := strconv.Atoi(m[1])
	y, errY := strconv.Atoi(m[2])
	if errX != nil || errY != nil {
		return 0, 0, false
	}
	return x, y, true
}

// ResolveScope computes the extent of every name matching <x>-<y>. Names
// that do not match are skipped. With no match at all the result is
// EmptyScope.
func ResolveScope(names ...[]string) Scope {
	s := EmptyScope
	first := true
	for _, list := range names {
		for _, name := range list {
			x, y, ok := ParseCoords(name)
			if !ok {
				continue
			}
			if first {
				s = Scope{X1: x, Y1: y, X2: x, Y2: y}
				first = false
				continue
			}
			s.X1 = min(s.X1, x)
			s.Y1 = min(s.Y1, y)
			s.X2 = max(s.X2, x)
			s.Y2 = max(s.Y2, y)
		}
	}
	return s
}

func (s Scope) Empty() bool {
	return s.X1 > s.X2 || s.Y1 > s.Y2
}

func (s Scope) Contains(x, y int) bool {
	return x >= s.X1 && x <= s.X2 && y >= s.Y1 && y <= s.Y2
}

// Aligned reports whether (x, y) sits on the tile grid of zoom z, measured
// from the scope origin.
func (s Scope) Aligned(z, x, y int) bool {
	g := Grid(z)
	return mod(x-s.X1, g) == 0 && mod(y-s.Y1, g) == 0
}

// Align snaps (x, y) down onto the grid of zoom z.
func (s Scope) Align(z, x, y int) (int, int) {
	g := Grid(z)
	return x - mod(x-s.X1, g), y - mod(y-s.Y1, g)
}

// Rows returns the aligned y coordinates of zoom z inside the scope, in
// ascending order.
func (s Scope) Rows(z int) []int {
	return axis(s.Y1, s.Y2, Grid(z))
}

// Cols returns the aligned x coordinates of zoom z inside the scope, in
// ascending order.
func (s Scope) Cols(z int) []int {
	return axis(s.X1, s.X2, Grid(z))
}

// Count is the number of valid tiles at zoom z for one layer and plane.
func (s Scope) Count(z int) int {
	return len(s.Rows(z)) * len(s.Cols(z))
}

func axis(lo, hi, g int) []int {
	if lo > hi {
		return nil
	}
	out := make([]int, 0, (hi-lo)/g+1)
	for v := lo; v <= hi; v += g {
		out = append(out, v)
	}
	return out
}

func mod(a, b int) int {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}
