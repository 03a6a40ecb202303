package tiling

import (
	"errors"
	"fmt"
	"strings"

	"github.com/1broseidon/snaptile/internal/geom"
)

var (
	// ErrResizeActive is returned when a resize is started while another one
	// is still in progress.
	ErrResizeActive = errors.New("resize already in progress")
	// ErrNoResize is returned when there is no resize to act on.
	ErrNoResize = errors.New("no resize in progress")
)

// GrabDirection is the set of edges moved by an interactive resize. Cardinal
// grabs have one bit set, intercardinal grabs one horizontal and one vertical.
type GrabDirection uint8

const (
	GrabNorth GrabDirection = 1 << iota
	GrabSouth
	GrabWest
	GrabEast

	GrabNorthWest = GrabNorth | GrabWest
	GrabNorthEast = GrabNorth | GrabEast
	GrabSouthWest = GrabSouth | GrabWest
	GrabSouthEast = GrabSouth | GrabEast
)

func (d GrabDirection) valid() bool {
	if d == 0 || d&^(GrabNorth|GrabSouth|GrabWest|GrabEast) != 0 {
		return false
	}
	return d&(GrabNorth|GrabSouth) != GrabNorth|GrabSouth && d&(GrabWest|GrabEast) != GrabWest|GrabEast
}

func (d GrabDirection) String() string {
	var b strings.Builder
	if d&GrabNorth != 0 {
		b.WriteString("n")
	}
	if d&GrabSouth != 0 {
		b.WriteString("s")
	}
	if d&GrabWest != 0 {
		b.WriteString("w")
	}
	if d&GrabEast != 0 {
		b.WriteString("e")
	}
	if b.Len() == 0 {
		return "none"
	}
	return b.String()
}

// ParseGrabDirection accepts compass abbreviations such as "e", "nw" or "se".
func ParseGrabDirection(s string) (GrabDirection, error) {
	var d GrabDirection
	for _, c := range strings.ToLower(strings.TrimSpace(s)) {
		switch c {
		case 'n':
			d |= GrabNorth
		case 's':
			d |= GrabSouth
		case 'w':
			d |= GrabWest
		case 'e':
			d |= GrabEast
		default:
			return 0, fmt.Errorf("invalid grab direction %q", s)
		}
	}
	if !d.valid() {
		return 0, fmt.Errorf("invalid grab direction %q", s)
	}
	return d, nil
}

// GrabFromPoint picks the edges to move for a pointer at (x, y) inside frame:
// the frame is split in thirds on each axis and the middle third moves
// nothing on that axis. The center cell resizes from the nearest corner.
func GrabFromPoint(frame geom.Rect, x, y int) GrabDirection {
	var d GrabDirection
	switch {
	case x < frame.X+frame.Width/3:
		d |= GrabWest
	case x >= frame.X2()-frame.Width/3:
		d |= GrabEast
	}
	switch {
	case y < frame.Y+frame.Height/3:
		d |= GrabNorth
	case y >= frame.Y2()-frame.Height/3:
		d |= GrabSouth
	}
	if d != 0 {
		return d
	}
	cx, cy := frame.Center()
	if x < cx {
		d |= GrabWest
	} else {
		d |= GrabEast
	}
	if y < cy {
		d |= GrabNorth
	} else {
		d |= GrabSouth
	}
	return d
}

// Relation describes how a group member is tied to the grabbed window's
// moving edge on one axis.
type Relation int

const (
	RelationNone Relation = iota
	// RelationSameSide members share the moving edge on the same side, like a
	// window stacked above the grabbed one. They follow the edge.
	RelationSameSide
	// RelationOpposing members sit on the other side of the moving edge. They
	// give up (or gain) exactly what the grabbed window gains (or gives up).
	RelationOpposing
)

func (r Relation) String() string {
	switch r {
	case RelationSameSide:
		return "same-side"
	case RelationOpposing:
		return "opposing"
	default:
		return "none"
	}
}

// Member is a window taking part in a resize, captured at grab start.
type Member struct {
	ID        WindowID
	Frame     geom.Rect
	TiledRect geom.Rect
}

// Adjustment is a new geometry for one window. TiledRect is only set by End.
type Adjustment struct {
	ID        WindowID
	Frame     geom.Rect
	TiledRect geom.Rect
}

type resizePeer struct {
	Member
	horizontal Relation
	vertical   Relation
}

// ResizeGaps describes how frames relate to tiled rects, see geom.AddGaps.
// A zero WorkArea makes End move tiled rects by the frame deltas only.
type ResizeGaps struct {
	WorkArea  geom.Rect
	WindowGap int
	ScreenGap int
}

// lowEdge converts a frame's west or north edge to the tiled edge. An edge
// that reaches the work-area border snaps to it.
func (g ResizeGaps) lowEdge(frame, border int) int {
	if frame-g.ScreenGap <= border {
		return border
	}
	return frame - g.WindowGap/2
}

func (g ResizeGaps) highEdge(frame, border int) int {
	if frame+g.ScreenGap >= border {
		return border
	}
	return frame + g.WindowGap/2
}

// Resizer propagates an interactive resize of one tile-group member to the
// members sharing its moving edges. All geometry is derived from the state
// captured by Begin plus the grabbed window's live frame, never from earlier
// updates, so no drift accumulates over a long drag.
//
// The expected call order is Begin, any number of Update, then End or Abort.
type Resizer struct {
	// Gaps survive across resizes.
	Gaps ResizeGaps

	active  bool
	grabbed Member
	dir     GrabDirection
	peers   []resizePeer
	last    geom.Rect
}

// Active reports whether a resize is in progress.
func (r *Resizer) Active() bool {
	return r.active
}

// Grabbed returns the member being resized.
func (r *Resizer) Grabbed() (Member, bool) {
	return r.grabbed, r.active
}

// Begin starts a resize of grabbed along dir. Members of group whose tiled
// rect has an edge within margin of a moving edge of grabbed's tiled rect are
// tracked; the horizontal and vertical axes are classified independently.
func (r *Resizer) Begin(grabbed Member, dir GrabDirection, group []Member, margin int) error {
	if r.active {
		return ErrResizeActive
	}
	if !dir.valid() {
		return fmt.Errorf("begin resize: invalid direction %v", dir)
	}
	if !grabbed.Frame.Valid() || !grabbed.TiledRect.Valid() {
		return fmt.Errorf("begin resize of window %d: %w", grabbed.ID, geom.ErrDegenerate)
	}

	g := grabbed.TiledRect
	var peers []resizePeer
	for _, m := range group {
		if m.ID == grabbed.ID || !m.TiledRect.Valid() || !m.Frame.Valid() {
			continue
		}
		p := resizePeer{Member: m}
		t := m.TiledRect

		switch {
		case dir&GrabEast != 0:
			p.horizontal = classify(t.X, t.X2(), g.X2(), false, margin)
		case dir&GrabWest != 0:
			p.horizontal = classify(t.X, t.X2(), g.X, true, margin)
		}
		switch {
		case dir&GrabSouth != 0:
			p.vertical = classify(t.Y, t.Y2(), g.Y2(), false, margin)
		case dir&GrabNorth != 0:
			p.vertical = classify(t.Y, t.Y2(), g.Y, true, margin)
		}

		if p.horizontal != RelationNone || p.vertical != RelationNone {
			peers = append(peers, p)
		}
	}

	r.active = true
	r.grabbed = grabbed
	r.dir = dir
	r.peers = peers
	r.last = grabbed.Frame
	return nil
}

// classify relates a peer spanning [low, high) to a moving edge. lowEdge is
// true when the moving edge is the grabbed window's low (west or north) edge.
func classify(low, high, edge int, lowEdge bool, margin int) Relation {
	switch {
	case geom.Near(low, edge, margin):
		if lowEdge {
			return RelationSameSide
		}
		return RelationOpposing
	case geom.Near(high, edge, margin):
		if lowEdge {
			return RelationOpposing
		}
		return RelationSameSide
	}
	return RelationNone
}

// Relations returns the tracked members and their per-axis relation.
func (r *Resizer) Relations() map[WindowID][2]Relation {
	out := make(map[WindowID][2]Relation, len(r.peers))
	for _, p := range r.peers {
		out[p.ID] = [2]Relation{p.horizontal, p.vertical}
	}
	return out
}

// Update returns the frames the tracked members should have while the
// grabbed window is at live. Members for which alive returns false are
// dropped for the rest of the grab. A nil alive keeps everyone.
func (r *Resizer) Update(live geom.Rect, alive func(WindowID) bool) ([]Adjustment, error) {
	if !r.active {
		return nil, ErrNoResize
	}
	r.last = live
	r.dropDead(alive)

	dx, dy := r.deltas(live)
	adjustments := make([]Adjustment, 0, len(r.peers))
	for _, p := range r.peers {
		frame, ok := r.shift(p.Frame, p.horizontal, p.vertical, dx, dy)
		if !ok {
			continue
		}
		adjustments = append(adjustments, Adjustment{ID: p.ID, Frame: frame})
	}
	return adjustments, nil
}

// End finishes the resize with the grabbed window at live. It returns the
// final frame and tiled rect for every tracked member and for the grabbed
// window itself (last), then clears all per-grab state. Tiled rects are moved
// by the same deltas as the frames, so tiled rects that touched before still
// touch. With Gaps set, each moved tiled edge is then derived from its frame
// edge, so an edge moving onto or off the work-area border trades the screen
// gap for half the window gap.
func (r *Resizer) End(live geom.Rect, alive func(WindowID) bool) ([]Adjustment, error) {
	if !r.active {
		return nil, ErrNoResize
	}
	defer r.reset()
	r.dropDead(alive)

	dx, dy := r.deltas(live)
	adjustments := make([]Adjustment, 0, len(r.peers)+1)
	for _, p := range r.peers {
		frame, ok := r.shift(p.Frame, p.horizontal, p.vertical, dx, dy)
		if !ok {
			continue
		}
		tiled, ok := r.shift(p.TiledRect, p.horizontal, p.vertical, dx, dy)
		if !ok {
			continue
		}
		if tiled, ok = r.retile(tiled, frame, p.horizontal, p.vertical); !ok {
			continue
		}
		adjustments = append(adjustments, Adjustment{ID: p.ID, Frame: frame, TiledRect: tiled})
	}

	if alive == nil || alive(r.grabbed.ID) {
		h, v := RelationNone, RelationNone
		if r.dir&(GrabWest|GrabEast) != 0 {
			h = RelationSameSide
		}
		if r.dir&(GrabNorth|GrabSouth) != 0 {
			v = RelationSameSide
		}
		if tiled, ok := r.shift(r.grabbed.TiledRect, h, v, dx, dy); ok && live.Valid() {
			if tiled, ok = r.retile(tiled, live, h, v); ok {
				adjustments = append(adjustments, Adjustment{ID: r.grabbed.ID, Frame: live, TiledRect: tiled})
			}
		}
	}
	return adjustments, nil
}

// Abort ends the resize using the last frame seen by Update.
func (r *Resizer) Abort(alive func(WindowID) bool) ([]Adjustment, error) {
	return r.End(r.last, alive)
}

func (r *Resizer) reset() {
	*r = Resizer{Gaps: r.Gaps}
}

func (r *Resizer) dropDead(alive func(WindowID) bool) {
	if alive == nil {
		return
	}
	kept := r.peers[:0]
	for _, p := range r.peers {
		if alive(p.ID) {
			kept = append(kept, p)
		}
	}
	r.peers = kept
}

// deltas returns how far the moving edges of the grabbed frame travelled.
func (r *Resizer) deltas(live geom.Rect) (dx, dy int) {
	pre := r.grabbed.Frame
	switch {
	case r.dir&GrabEast != 0:
		dx = live.X2() - pre.X2()
	case r.dir&GrabWest != 0:
		dx = live.X - pre.X
	}
	switch {
	case r.dir&GrabSouth != 0:
		dy = live.Y2() - pre.Y2()
	case r.dir&GrabNorth != 0:
		dy = live.Y - pre.Y
	}
	return dx, dy
}

// movesLow reports whether a rect related to the moving edge by rel moves its
// low (west or north) edge rather than its high edge.
func (r *Resizer) movesLow(horizontal bool, rel Relation) bool {
	if horizontal {
		return (r.dir&GrabEast != 0) == (rel == RelationOpposing)
	}
	return (r.dir&GrabSouth != 0) == (rel == RelationOpposing)
}

// shift moves the edge of rect selected by its relation to the moving edge.
// It reports false when the result would be degenerate.
func (r *Resizer) shift(rect geom.Rect, horizontal, vertical Relation, dx, dy int) (geom.Rect, bool) {
	if horizontal != RelationNone {
		if r.movesLow(true, horizontal) {
			rect.X += dx
			rect.Width -= dx
		} else {
			rect.Width += dx
		}
	}
	if vertical != RelationNone {
		if r.movesLow(false, vertical) {
			rect.Y += dy
			rect.Height -= dy
		} else {
			rect.Height += dy
		}
	}
	return rect, rect.Valid()
}

// retile recomputes the moved edges of tiled from the matching edges of
// frame. Edges that did not move are left alone.
func (r *Resizer) retile(tiled, frame geom.Rect, horizontal, vertical Relation) (geom.Rect, bool) {
	g := r.Gaps
	if !g.WorkArea.Valid() {
		return tiled, true
	}
	wa := g.WorkArea
	if horizontal != RelationNone {
		if r.movesLow(true, horizontal) {
			x2 := tiled.X2()
			tiled.X = g.lowEdge(frame.X, wa.X)
			tiled.Width = x2 - tiled.X
		} else {
			tiled.Width = g.highEdge(frame.X2(), wa.X2()) - tiled.X
		}
	}
	if vertical != RelationNone {
		if r.movesLow(false, vertical) {
			y2 := tiled.Y2()
			tiled.Y = g.lowEdge(frame.Y, wa.Y)
			tiled.Height = y2 - tiled.Y
		} else {
			tiled.Height = g.highEdge(frame.Y2(), wa.Y2()) - tiled.Y
		}
	}
	return tiled, tiled.Valid()
}
