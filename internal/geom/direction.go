package geom

import (
	"fmt"
	"sort"
	"strings"
)

// Direction is a cardinal direction on screen.
type Direction int

const (
	North Direction = iota
	South
	West
	East
)

// String returns the string representation of the direction
func (d Direction) String() string {
	switch d {
	case North:
		return "up"
	case South:
		return "down"
	case West:
		return "left"
	case East:
		return "right"
	default:
		return "unknown"
	}
}

// ParseDirection accepts up/down/left/right and the compass names.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "up", "north", "n":
		return North, nil
	case "down", "south", "s":
		return South, nil
	case "left", "west", "w":
		return West, nil
	case "right", "east", "e":
		return East, nil
	}
	return 0, fmt.Errorf("unknown direction %q", s)
}

// Opposite returns the reverse direction.
func (d Direction) Opposite() Direction {
	switch d {
	case North:
		return South
	case South:
		return North
	case West:
		return East
	default:
		return West
	}
}

// Horizontal reports whether d moves along the x axis.
func (d Direction) Horizontal() bool {
	return d == West || d == East
}

// Orientation selects the axis along which UnitAt slices a rectangle.
type Orientation int

const (
	// Vertical slices produce columns (the rect is cut along x).
	Vertical Orientation = iota
	// Horizontal slices produce rows (the rect is cut along y).
	Horizontal
)

// UnitAt splits r into consecutive slices of unitSize along orientation and
// returns the slice at index. The last slice absorbs whatever is left over, so
// rounding error never accumulates on interior slices.
func (r Rect) UnitAt(index, unitSize int, orientation Orientation) (Rect, error) {
	mustValid(r)
	if unitSize <= 0 {
		return Rect{}, fmt.Errorf("invalid unit size %d", unitSize)
	}

	vertical := orientation == Vertical
	length := r.Height
	if vertical {
		length = r.Width
	}

	lastIndex := (length+unitSize/2)/unitSize - 1
	if lastIndex < 0 {
		lastIndex = 0
	}
	if index < 0 || index > lastIndex {
		return Rect{}, fmt.Errorf("unit index %d out of range [0,%d]", index, lastIndex)
	}

	if index == lastIndex {
		offset := unitSize * lastIndex
		if vertical {
			return Rect{X: r.X + offset, Y: r.Y, Width: r.Width - offset, Height: r.Height}, nil
		}
		return Rect{X: r.X, Y: r.Y + offset, Width: r.Width, Height: r.Height - offset}, nil
	}

	return r.unitFrom(index, unitSize, vertical), nil
}

func (r Rect) unitFrom(index, unitSize int, vertical bool) Rect {
	first := Rect{X: r.X, Y: r.Y, Width: r.Width, Height: unitSize}
	if vertical {
		first = Rect{X: r.X, Y: r.Y, Width: unitSize, Height: r.Height}
	}
	if index <= 0 {
		return first
	}
	rest := r.MinusMargin(first, 0)
	return rest[0].unitFrom(index-1, unitSize, vertical)
}

// Neighbor finds the rectangle adjacent to r in direction dir among
// candidates. Candidates equal to r are ignored. The nearest rectangle whose
// facing edge touches or lies beyond r's edge wins; ties go to the candidate
// best aligned with r on the other axis. When nothing qualifies and wrap is
// set, the search wraps to the candidates furthest in the opposite direction.
func (r Rect) Neighbor(dir Direction, candidates []Rect, wrap bool) (Rect, bool) {
	start, facing, cross := neighborAxes(dir)
	forward := dir == South || dir == East

	byPos := make(map[int][]Rect)
	for _, c := range candidates {
		if c == r {
			continue
		}
		pos := facing(c)
		byPos[pos] = append(byPos[pos], c)
	}
	if len(byPos) == 0 {
		return Rect{}, false
	}

	poses := make([]int, 0, len(byPos))
	for pos := range byPos {
		poses = append(poses, pos)
	}
	sort.Slice(poses, func(i, j int) bool {
		if forward {
			return poses[i] < poses[j]
		}
		return poses[i] > poses[j]
	})

	edge := start(r)
	found := false
	var target int
	for _, pos := range poses {
		if (forward && pos >= edge) || (!forward && pos <= edge) {
			target = pos
			found = true
			break
		}
	}
	if !found {
		if !wrap {
			return Rect{}, false
		}
		// poses is sorted in travel order, so its head is the far side.
		target = poses[0]
	}

	return nearestOnAxis(byPos[target], cross(r), cross), true
}

func neighborAxes(dir Direction) (start, facing, cross func(Rect) int) {
	x := func(r Rect) int { return r.X }
	y := func(r Rect) int { return r.Y }
	x2 := func(r Rect) int { return r.X2() }
	y2 := func(r Rect) int { return r.Y2() }

	switch dir {
	case North:
		return y, y2, x
	case South:
		return y2, y, x
	case West:
		return x, x2, y
	default:
		return x2, x, y
	}
}

func nearestOnAxis(rects []Rect, ref int, cross func(Rect) int) Rect {
	best := rects[0]
	for _, c := range rects[1:] {
		if abs(cross(c)-ref) < abs(cross(best)-ref) {
			best = c
		}
	}
	return best
}
