package tiling

import (
	"fmt"
	"slices"

	"github.com/1broseidon/snaptile/internal/geom"
	"github.com/1broseidon/snaptile/internal/platform"
)

// WindowID identifies a window across the engine and the host backend.
type WindowID = platform.WindowID

// Window is the engine's view of a host window, as delivered in stacking order.
type Window struct {
	ID        WindowID
	MonitorID int
	Frame     geom.Rect
	Above     bool // always on top; never occludes tiled windows
	Maximized bool
	Minimized bool
}

// TiledWindow is a member of a tile group.
type TiledWindow struct {
	ID         WindowID  `json:"id"`
	TiledRect  geom.Rect `json:"tiled_rect"`
	Frame      geom.Rect `json:"frame"`
	MonitorID  int       `json:"monitor_id"`
	StackOrder int       `json:"stack_order"`
}

// TiledRects resolves the tiled rect recorded for a window.
type TiledRects interface {
	TiledRect(id WindowID) (geom.Rect, bool)
}

// TopGroupOptions controls which windows TopGroup considers.
type TopGroupOptions struct {
	// IgnoreTop skips the topmost window, e.g. one that is being dragged.
	IgnoreTop bool
	// IgnoreID skips one specific window. Zero disables the filter.
	IgnoreID  WindowID
	MonitorID int
}

// TopGroup walks windows (topmost first) and returns the tiled windows that
// are visible together as one arrangement. The result only depends on its
// arguments.
func TopGroup(windows []Window, tiled TiledRects, workArea geom.Rect, opts TopGroupOptions) []TiledWindow {
	var (
		grouped     []TiledWindow
		notGrouped  []geom.Rect
		groupedArea int
	)

	overlapsAny := func(r geom.Rect) bool {
		for _, o := range notGrouped {
			if r.Overlaps(o) {
				return true
			}
		}
		for _, g := range grouped {
			if r.Overlaps(g.TiledRect) {
				return true
			}
		}
		return false
	}

	for i, w := range windows {
		if i == 0 && opts.IgnoreTop {
			continue
		}
		if opts.IgnoreID != 0 && w.ID == opts.IgnoreID {
			continue
		}
		if w.MonitorID != opts.MonitorID || w.Minimized {
			continue
		}
		if groupedArea >= workArea.Area() {
			break
		}

		rect, isTiled := tiled.TiledRect(w.ID)
		if !isTiled {
			if w.Maximized {
				break
			}
			if !w.Above && w.Frame.Valid() {
				notGrouped = append(notGrouped, w.Frame)
			}
			continue
		}

		// Nothing below a full screen window can share its group.
		if w.Maximized || rect == workArea {
			break
		}

		if overlapsAny(rect) {
			notGrouped = append(notGrouped, rect)
			continue
		}

		grouped = append(grouped, TiledWindow{
			ID:         w.ID,
			TiledRect:  rect,
			Frame:      w.Frame,
			MonitorID:  w.MonitorID,
			StackOrder: i,
		})
		groupedArea += rect.Area()
	}
	return grouped
}

// GroupRects returns the tiled rects of group in order.
func GroupRects(group []TiledWindow) []geom.Rect {
	rects := make([]geom.Rect, len(group))
	for i, w := range group {
		rects[i] = w.TiledRect
	}
	return rects
}

// GroupIDs returns the window ids of group in order.
func GroupIDs(group []TiledWindow) []WindowID {
	ids := make([]WindowID, len(group))
	for i, w := range group {
		ids[i] = w.ID
	}
	return ids
}

type tableEntry struct {
	tiled      geom.Rect
	untiled    geom.Rect
	hasUntiled bool
	monitorID  int
	peers      []WindowID
}

// Table is the engine-owned record of tiled windows, keyed by window id. It
// stores the tiled rect, the geometry a window had before it was tiled and
// the peers it was last grouped with. Membership lists are kept symmetric:
// dropping a window from one list drops it from every list.
//
// Table is not safe for concurrent use; the owner serializes access.
type Table struct {
	entries map[WindowID]*tableEntry
	raising map[WindowID]struct{}
}

func NewTable() *Table {
	return &Table{
		entries: make(map[WindowID]*tableEntry),
		raising: make(map[WindowID]struct{}),
	}
}

// SetTiled records id as tiled at rect. previous is remembered as the
// untiled geometry only when the window was not already tiled, so retiling a
// window never loses its original floating position.
func (t *Table) SetTiled(id WindowID, monitorID int, rect, previous geom.Rect) error {
	if !rect.Valid() {
		return fmt.Errorf("tile window %d: %w: %v", id, geom.ErrDegenerate, rect)
	}
	e, ok := t.entries[id]
	if !ok {
		e = &tableEntry{}
		t.entries[id] = e
		if previous.Valid() {
			e.untiled = previous
			e.hasUntiled = true
		}
	}
	e.tiled = rect
	e.monitorID = monitorID
	return nil
}

// TiledRect returns the tiled rect of id.
func (t *Table) TiledRect(id WindowID) (geom.Rect, bool) {
	e, ok := t.entries[id]
	if !ok {
		return geom.Rect{}, false
	}
	return e.tiled, true
}

// UntiledRect returns the geometry id had before it was first tiled.
func (t *Table) UntiledRect(id WindowID) (geom.Rect, bool) {
	e, ok := t.entries[id]
	if !ok || !e.hasUntiled {
		return geom.Rect{}, false
	}
	return e.untiled, true
}

// MonitorOf returns the monitor a tiled window was last placed on.
func (t *Table) MonitorOf(id WindowID) (int, bool) {
	e, ok := t.entries[id]
	if !ok {
		return 0, false
	}
	return e.monitorID, true
}

// Untile forgets id and returns its pre-tile geometry, if any.
func (t *Table) Untile(id WindowID) (geom.Rect, bool) {
	untiled, ok := t.UntiledRect(id)
	t.Remove(id)
	return untiled, ok
}

// IDs returns every tracked window id in ascending order.
func (t *Table) IDs() []WindowID {
	ids := make([]WindowID, 0, len(t.entries))
	for id := range t.entries {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func (t *Table) Len() int {
	return len(t.entries)
}

// UpdateGroup makes members one group. Tracked members leave whatever group
// they were in before; untracked ids are ignored.
func (t *Table) UpdateGroup(members []WindowID) {
	tracked := make([]WindowID, 0, len(members))
	for _, id := range members {
		if _, ok := t.entries[id]; ok && !slices.Contains(tracked, id) {
			tracked = append(tracked, id)
		}
	}
	for _, id := range tracked {
		t.DissolveGroup(id)
	}
	for _, id := range tracked {
		peers := make([]WindowID, 0, len(tracked)-1)
		for _, other := range tracked {
			if other != id {
				peers = append(peers, other)
			}
		}
		t.entries[id].peers = peers
	}
}

// DissolveGroup detaches id from its group. The remaining peers keep their
// membership with each other.
func (t *Table) DissolveGroup(id WindowID) {
	e, ok := t.entries[id]
	if !ok {
		return
	}
	for _, peer := range e.peers {
		if pe, ok := t.entries[peer]; ok {
			pe.peers = slices.DeleteFunc(pe.peers, func(p WindowID) bool { return p == id })
		}
	}
	e.peers = nil
}

// Remove forgets id entirely and purges it from every membership list.
func (t *Table) Remove(id WindowID) {
	t.DissolveGroup(id)
	delete(t.entries, id)
	for _, e := range t.entries {
		e.peers = slices.DeleteFunc(e.peers, func(p WindowID) bool { return p == id })
	}
}

// Prune removes every window for which alive returns false and returns the
// removed ids in ascending order.
func (t *Table) Prune(alive func(WindowID) bool) []WindowID {
	var removed []WindowID
	for _, id := range t.IDs() {
		if !alive(id) {
			t.Remove(id)
			removed = append(removed, id)
		}
	}
	return removed
}

// Members returns the peers of id in membership order.
func (t *Table) Members(id WindowID) []WindowID {
	e, ok := t.entries[id]
	if !ok {
		return nil
	}
	return slices.Clone(e.peers)
}

// RaiseOrder lists the windows to raise so that id ends up on top of its
// group: every peer in membership order, then id itself.
func (t *Table) RaiseOrder(id WindowID) []WindowID {
	order := t.Members(id)
	return append(order, id)
}

// Raise calls raise for every window in RaiseOrder(id). Windows in that
// order are marked as being raised until Raise returns, and a nested Raise
// for any of them is a no-op. This keeps host callbacks that react to a
// raise by raising the group again from recursing.
func (t *Table) Raise(id WindowID, raise func(WindowID)) {
	if _, busy := t.raising[id]; busy {
		return
	}
	order := t.RaiseOrder(id)
	var marked []WindowID
	for _, w := range order {
		if _, busy := t.raising[w]; !busy {
			t.raising[w] = struct{}{}
			marked = append(marked, w)
		}
	}
	defer func() {
		for _, w := range marked {
			delete(t.raising, w)
		}
	}()
	for _, w := range order {
		raise(w)
	}
}
