// Package geom implements the integer rectangle algebra used by the tiling
// engine: intersection, subtraction, unions, unit slicing and directional
// neighbour search.
//
// Rectangles are plain values. Every function that derives new geometry
// expects well-formed input (positive width and height); degenerate input is
// a programming error and panics with ErrDegenerate rather than silently
// producing garbage that would later corrupt tile groups.
package geom

import (
	"errors"
	"fmt"
)

// DefaultSliverMargin is the size below which pieces produced by Minus are
// dropped. Near-aligned edges otherwise leave unusable strips a few pixels wide.
const DefaultSliverMargin = 15

// ErrDegenerate is returned (or panicked with) for rectangles whose width or
// height is not positive.
var ErrDegenerate = errors.New("degenerate rectangle")

// Rect represents a window position and size
type Rect struct {
	X      int `json:"x" yaml:"x"`
	Y      int `json:"y" yaml:"y"`
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

// New validates and returns a rectangle.
func New(x, y, width, height int) (Rect, error) {
	r := Rect{X: x, Y: y, Width: width, Height: height}
	if !r.Valid() {
		return Rect{}, fmt.Errorf("%w: %v", ErrDegenerate, r)
	}
	return r, nil
}

// Must is like New but panics on degenerate geometry.
func Must(x, y, width, height int) Rect {
	r, err := New(x, y, width, height)
	if err != nil {
		panic(err)
	}
	return r
}

// Valid reports whether r has a positive area.
func (r Rect) Valid() bool {
	return r.Width > 0 && r.Height > 0
}

func (r Rect) X2() int   { return r.X + r.Width }
func (r Rect) Y2() int   { return r.Y + r.Height }
func (r Rect) Area() int { return r.Width * r.Height }

// Center returns the center point, rounded towards the origin.
func (r Rect) Center() (int, int) {
	return r.X + r.Width/2, r.Y + r.Height/2
}

func (r Rect) String() string {
	return fmt.Sprintf("%dx%d+%d+%d", r.Width, r.Height, r.X, r.Y)
}

// Equal reports exact geometric equality.
func (r Rect) Equal(o Rect) bool {
	return r == o
}

// ApproxEqual reports whether every coordinate of r and o differs by at most
// margin. Interactive moves and resizes can leave 1-2px of drift that should
// still count as the same rectangle.
func (r Rect) ApproxEqual(o Rect, margin int) bool {
	return Near(r.X, o.X, margin) &&
		Near(r.Y, o.Y, margin) &&
		Near(r.Width, o.Width, margin) &&
		Near(r.Height, o.Height, margin)
}

// Near reports |a-b| <= margin.
func Near(a, b, margin int) bool {
	return abs(a-b) <= margin
}

// Intersect returns the overlapping area of r and o. Rectangles that only
// touch along an edge do not intersect.
func (r Rect) Intersect(o Rect) (Rect, bool) {
	mustValid(r, o)

	x1 := max(r.X, o.X)
	y1 := max(r.Y, o.Y)
	x2 := min(r.X2(), o.X2())
	y2 := min(r.Y2(), o.Y2())
	if x2 <= x1 || y2 <= y1 {
		return Rect{}, false
	}
	return Rect{X: x1, Y: y1, Width: x2 - x1, Height: y2 - y1}, true
}

// Overlaps reports whether r and o share a non-zero area.
func (r Rect) Overlaps(o Rect) bool {
	_, ok := r.Intersect(o)
	return ok
}

// Contains reports whether o lies entirely inside r.
func (r Rect) Contains(o Rect) bool {
	mustValid(r, o)
	return o.X >= r.X && o.Y >= r.Y && o.X2() <= r.X2() && o.Y2() <= r.Y2()
}

// ContainsPoint reports whether (x, y) lies inside r. The far edges are exclusive.
func (r Rect) ContainsPoint(x, y int) bool {
	return x >= r.X && x < r.X2() && y >= r.Y && y < r.Y2()
}

// Union returns the smallest rectangle containing both r and o.
func (r Rect) Union(o Rect) Rect {
	mustValid(r, o)

	x1 := min(r.X, o.X)
	y1 := min(r.Y, o.Y)
	x2 := max(r.X2(), o.X2())
	y2 := max(r.Y2(), o.Y2())
	return Rect{X: x1, Y: y1, Width: x2 - x1, Height: y2 - y1}
}

// UnionAll folds Union over rects. It returns false for an empty slice.
func UnionAll(rects []Rect) (Rect, bool) {
	if len(rects) == 0 {
		return Rect{}, false
	}
	u := rects[0]
	for _, r := range rects[1:] {
		u = u.Union(r)
	}
	return u, true
}

// Minus subtracts o from r using DefaultSliverMargin.
func (r Rect) Minus(o Rect) []Rect {
	return r.MinusMargin(o, DefaultSliverMargin)
}

// MinusMargin returns the pieces of r not covered by o. There are at most four
// pieces, in the order left, right, top, bottom. The left and right pieces span
// the full height of r; the top and bottom pieces only span the horizontal
// overlap of r and o. Pieces narrower (left/right) or shorter (top/bottom)
// than margin are dropped.
func (r Rect) MinusMargin(o Rect, margin int) []Rect {
	isect, ok := r.Intersect(o)
	if !ok {
		return []Rect{r}
	}
	if isect == r {
		return nil
	}

	var pieces []Rect
	keep := func(size int) bool {
		return size > 0 && size >= margin
	}

	if w := isect.X - r.X; keep(w) {
		pieces = append(pieces, Rect{X: r.X, Y: r.Y, Width: w, Height: r.Height})
	}
	if w := r.X2() - isect.X2(); keep(w) {
		pieces = append(pieces, Rect{X: isect.X2(), Y: r.Y, Width: w, Height: r.Height})
	}
	if h := isect.Y - r.Y; keep(h) {
		pieces = append(pieces, Rect{X: isect.X, Y: r.Y, Width: isect.Width, Height: h})
	}
	if h := r.Y2() - isect.Y2(); keep(h) {
		pieces = append(pieces, Rect{X: isect.X, Y: isect.Y2(), Width: isect.Width, Height: h})
	}
	return pieces
}

// MinusAll removes every rectangle in others from r. Each one is subtracted
// from r independently and the leftover sets are then folded together by
// pairwise intersection, which yields the area free of all of them.
func (r Rect) MinusAll(others []Rect, margin int) []Rect {
	if len(others) == 0 {
		return []Rect{r}
	}

	free := r.MinusMargin(others[0], margin)
	for _, o := range others[1:] {
		if len(free) == 0 {
			return nil
		}
		leftover := r.MinusMargin(o, margin)
		free = intersectSets(free, leftover)
	}
	return free
}

func intersectSets(a, b []Rect) []Rect {
	var out []Rect
	for _, ra := range a {
		for _, rb := range b {
			if isect, ok := ra.Intersect(rb); ok {
				out = append(out, isect)
			}
		}
	}
	return out
}

// Inset shrinks r by the given amounts on each side.
func (r Rect) Inset(left, top, right, bottom int) Rect {
	return Rect{
		X:      r.X + left,
		Y:      r.Y + top,
		Width:  r.Width - left - right,
		Height: r.Height - top - bottom,
	}
}

// AddGaps converts a tiled rectangle into the frame that is applied on
// screen. Edges lying on the work area border get screenGap; interior edges
// get half of windowGap so two neighbours end up windowGap apart.
func (r Rect) AddGaps(workArea Rect, windowGap, screenGap int) Rect {
	half := windowGap / 2
	edge := func(onBorder bool) int {
		if onBorder {
			return screenGap
		}
		return half
	}
	return r.Inset(
		edge(r.X == workArea.X),
		edge(r.Y == workArea.Y),
		edge(r.X2() == workArea.X2()),
		edge(r.Y2() == workArea.Y2()),
	)
}

// Scale maps ratio coordinates (0..1) onto r. The far edge of each axis is
// rounded independently so adjacent ratio rects stay adjacent.
func (r Rect) Scale(x, y, width, height float64) Rect {
	x1 := r.X + round(float64(r.Width)*x)
	y1 := r.Y + round(float64(r.Height)*y)
	x2 := r.X + round(float64(r.Width)*(x+width))
	y2 := r.Y + round(float64(r.Height)*(y+height))
	return Rect{X: x1, Y: y1, Width: x2 - x1, Height: y2 - y1}
}

func round(f float64) int {
	if f < 0 {
		return -int(-f + 0.5)
	}
	return int(f + 0.5)
}

func mustValid(rects ...Rect) {
	for _, r := range rects {
		if !r.Valid() {
			panic(fmt.Errorf("%w: %v", ErrDegenerate, r))
		}
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
