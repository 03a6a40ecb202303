package tiling

import (
	"errors"
	"fmt"
	"strings"

	"github.com/1broseidon/snaptile/internal/geom"
)

// ErrUnknownPosition is returned by ParsePosition for unrecognised names.
var ErrUnknownPosition = errors.New("unknown tile position")

// Position is a symbolic tiling target.
type Position int

const (
	PositionMaximize Position = iota
	PositionLeft
	PositionRight
	PositionTop
	PositionBottom
	PositionTopLeft
	PositionTopRight
	PositionBottomLeft
	PositionBottomRight
)

var positionNames = map[Position]string{
	PositionMaximize:    "maximize",
	PositionLeft:        "left",
	PositionRight:       "right",
	PositionTop:         "top",
	PositionBottom:      "bottom",
	PositionTopLeft:     "top-left",
	PositionTopRight:    "top-right",
	PositionBottomLeft:  "bottom-left",
	PositionBottomRight: "bottom-right",
}

func (p Position) String() string {
	if name, ok := positionNames[p]; ok {
		return name
	}
	return fmt.Sprintf("Position(%d)", int(p))
}

// Positions returns every position in declaration order.
func Positions() []Position {
	return []Position{
		PositionMaximize,
		PositionLeft, PositionRight, PositionTop, PositionBottom,
		PositionTopLeft, PositionTopRight, PositionBottomLeft, PositionBottomRight,
	}
}

// ParsePosition accepts the names printed by Position.String. Underscores
// and spaces are treated like dashes.
func ParsePosition(s string) (Position, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.NewReplacer("_", "-", " ", "-").Replace(norm)
	for p, name := range positionNames {
		if name == norm {
			return p, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownPosition, s)
}

func (p Position) hasLeft() bool {
	return p == PositionLeft || p == PositionTopLeft || p == PositionBottomLeft
}

func (p Position) hasRight() bool {
	return p == PositionRight || p == PositionTopRight || p == PositionBottomRight
}

func (p Position) hasTop() bool {
	return p == PositionTop || p == PositionTopLeft || p == PositionTopRight
}

func (p Position) hasBottom() bool {
	return p == PositionBottom || p == PositionBottomLeft || p == PositionBottomRight
}

// TileRectFor resolves pos to a rectangle inside workArea. Sizes are taken
// from an existing split where possible: the occupied group rects (or the
// favorite layout while the group is empty) and the free regions around them
// are searched for a rect that already starts at the requested work-area edge
// without spanning the whole dimension. Without such a rect the work area is
// halved; left and top take ceil(dim/2), right and bottom the remainder.
func TileRectFor(pos Position, workArea geom.Rect, group, favorite []geom.Rect, margin int) geom.Rect {
	if pos == PositionMaximize {
		return workArea
	}

	occupied := group
	if len(occupied) == 0 {
		occupied = favorite
	}
	screenRects := append(append([]geom.Rect(nil), occupied...), FreeRegions(workArea, occupied, margin)...)

	find := func(match func(r geom.Rect) bool) (geom.Rect, bool) {
		for _, r := range screenRects {
			if match(r) {
				return r, true
			}
		}
		return geom.Rect{}, false
	}

	left, right := halves(workArea, geom.Vertical)
	top, bottom := halves(workArea, geom.Horizontal)

	leftWidth := func() int {
		if r, ok := find(func(r geom.Rect) bool { return r.X == workArea.X && r.Width != workArea.Width }); ok {
			return r.Width
		}
		return left.Width
	}
	rightWidth := func() int {
		if r, ok := find(func(r geom.Rect) bool { return r.X2() == workArea.X2() && r.Width != workArea.Width }); ok {
			return r.Width
		}
		return right.Width
	}
	topHeight := func() int {
		if r, ok := find(func(r geom.Rect) bool { return r.Y == workArea.Y && r.Height != workArea.Height }); ok {
			return r.Height
		}
		return top.Height
	}
	bottomHeight := func() int {
		if r, ok := find(func(r geom.Rect) bool { return r.Y2() == workArea.Y2() && r.Height != workArea.Height }); ok {
			return r.Height
		}
		return bottom.Height
	}

	out := workArea
	switch {
	case pos.hasLeft():
		out.Width = leftWidth()
	case pos.hasRight():
		out.Width = rightWidth()
		out.X = workArea.X2() - out.Width
	}
	switch {
	case pos.hasTop():
		out.Height = topHeight()
	case pos.hasBottom():
		out.Height = bottomHeight()
		out.Y = workArea.Y2() - out.Height
	}
	return out
}

// halves cuts workArea in two along orientation. The first half takes the
// odd pixel.
func halves(workArea geom.Rect, orientation geom.Orientation) (geom.Rect, geom.Rect) {
	length := workArea.Height
	if orientation == geom.Vertical {
		length = workArea.Width
	}
	unit := (length + 1) / 2
	first, err := workArea.UnitAt(0, unit, orientation)
	if err != nil {
		return workArea, workArea
	}
	second, err := workArea.UnitAt(1, unit, orientation)
	if err != nil {
		// A one pixel dimension has no second half.
		return first, first
	}
	return first, second
}

// BestFitRect returns where window should go to fill empty space. An untiled
// window takes the unambiguous free space, or the whole work area when there
// is none. A tiled window grows into free regions that border one of its
// sides along at least that side's full length; it reports false when there
// is nothing to grow into.
func BestFitRect(window geom.Rect, isTiled bool, group []geom.Rect, workArea geom.Rect, opts FreeSpaceOptions) (geom.Rect, bool) {
	if !isTiled {
		if free, ok := FreeSpace(workArea, group, opts); ok {
			return free, true
		}
		return workArea, true
	}

	occupied := append(append([]geom.Rect(nil), group...), window)
	var candidates []geom.Rect
	if free, ok := FreeSpace(workArea, occupied, opts); ok {
		candidates = []geom.Rect{free}
	} else {
		// Each piece is free of every occupied rect on its own, so a piece
		// spanning a whole side is not split by the fold order.
		candidates = workArea.MinusAll(occupied, opts.SliverMargin)
	}

	grown := window
	for _, dir := range []geom.Direction{geom.East, geom.West, geom.South, geom.North} {
		for _, free := range candidates {
			if next, ok := growInto(grown, free, dir); ok {
				grown = next
				break
			}
		}
	}
	return grown, grown != window
}

// growInto extends r over free when free touches r's side in dir and spans
// at least that whole side.
func growInto(r, free geom.Rect, dir geom.Direction) (geom.Rect, bool) {
	coversY := free.Y <= r.Y && free.Y2() >= r.Y2()
	coversX := free.X <= r.X && free.X2() >= r.X2()

	switch dir {
	case geom.East:
		if free.X == r.X2() && coversY {
			r.Width = free.X2() - r.X
			return r, true
		}
	case geom.West:
		if free.X2() == r.X && coversY {
			r.Width = r.X2() - free.X
			r.X = free.X
			return r, true
		}
	case geom.South:
		if free.Y == r.Y2() && coversX {
			r.Height = free.Y2() - r.Y
			return r, true
		}
	case geom.North:
		if free.Y2() == r.Y && coversX {
			r.Height = r.Y2() - free.Y
			r.Y = free.Y
			return r, true
		}
	}
	return r, false
}

// ClosestRect finds the candidate strictly on dir's side of current: its near
// edge must touch or lie beyond current's edge. The smallest gap wins, ties go
// to the best cross-axis alignment. With wrap set and nothing on that side,
// the candidate furthest the other way is returned instead.
func ClosestRect(current geom.Rect, candidates []geom.Rect, dir geom.Direction, wrap bool) (geom.Rect, bool) {
	gap := func(c geom.Rect) int {
		switch dir {
		case geom.North:
			return current.Y - c.Y2()
		case geom.South:
			return c.Y - current.Y2()
		case geom.West:
			return current.X - c.X2()
		default:
			return c.X - current.X2()
		}
	}
	cross := func(c geom.Rect) int {
		if dir.Horizontal() {
			return abs(c.Y - current.Y)
		}
		return abs(c.X - current.X)
	}

	var (
		best  geom.Rect
		found bool
	)
	better := func(c geom.Rect, key func(geom.Rect) int) bool {
		if !found {
			return true
		}
		if key(c) != key(best) {
			return key(c) < key(best)
		}
		return cross(c) < cross(best)
	}

	for _, c := range candidates {
		if c == current || gap(c) < 0 {
			continue
		}
		if better(c, gap) {
			best, found = c, true
		}
	}
	if found || !wrap {
		return best, found
	}

	// Furthest the other way means the largest negative gap.
	for _, c := range candidates {
		if c == current {
			continue
		}
		if better(c, gap) {
			best, found = c, true
		}
	}
	return best, found
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
