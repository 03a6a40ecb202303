package tiling

import (
	"fmt"

	"github.com/1broseidon/snaptile/internal/geom"
)

// DefaultEdgeMargin is how far apart two edges may be and still count as
// shared when classifying resize neighbours.
const DefaultEdgeMargin = 2

// Settings are the tunables the engine needs. They are passed in by the
// caller rather than read from global state.
type Settings struct {
	WindowGap    int `json:"window_gap"`
	ScreenGap    int `json:"screen_gap"`
	SliverMargin int `json:"sliver_margin"`
	EdgeMargin   int `json:"edge_margin"`
	MinFreeSpace int `json:"min_free_space"`
}

// DefaultSettings returns the engine defaults.
func DefaultSettings() Settings {
	return Settings{
		SliverMargin: geom.DefaultSliverMargin,
		EdgeMargin:   DefaultEdgeMargin,
		MinFreeSpace: DefaultMinFreeSpace,
	}
}

// FreeSpaceOptions returns the solver options every free-space query uses.
func (s Settings) FreeSpaceOptions() FreeSpaceOptions {
	return FreeSpaceOptions{SliverMargin: s.SliverMargin, MinSize: s.MinFreeSpace}
}

// Engine ties the pure tiling functions to the tile table and the resize
// state. It performs no I/O; callers apply the returned geometry.
type Engine struct {
	settings Settings
	table    *Table
	resizer  Resizer
}

func NewEngine(settings Settings) *Engine {
	return &Engine{settings: settings, table: NewTable()}
}

func (e *Engine) Settings() Settings { return e.settings }

func (e *Engine) SetSettings(s Settings) { e.settings = s }

// Table exposes the tile table.
func (e *Engine) Table() *Table { return e.table }

// ComputeTopGroup returns the top tile group for windows (topmost first).
func (e *Engine) ComputeTopGroup(windows []Window, workArea geom.Rect, opts TopGroupOptions) []TiledWindow {
	return TopGroup(windows, e.table, workArea, opts)
}

func (e *Engine) FreeRegions(workArea geom.Rect, occupied []geom.Rect) []geom.Rect {
	return FreeRegions(workArea, occupied, e.settings.FreeSpaceOptions().SliverMargin)
}

func (e *Engine) PlanFreeSpace(workArea geom.Rect, occupied []geom.Rect) FreeSpaceReport {
	return PlanFreeSpace(workArea, occupied, e.settings.FreeSpaceOptions())
}

func (e *Engine) FreeSpace(workArea geom.Rect, occupied []geom.Rect) (geom.Rect, bool) {
	return FreeSpace(workArea, occupied, e.settings.FreeSpaceOptions())
}

func (e *Engine) TileRectFor(pos Position, workArea geom.Rect, group []TiledWindow, favorite []geom.Rect) geom.Rect {
	return TileRectFor(pos, workArea, GroupRects(group), favorite, e.settings.FreeSpaceOptions().SliverMargin)
}

// BestFitRect resolves the best-fit target for window id currently at frame.
// Whether it counts as tiled comes from the tile table.
func (e *Engine) BestFitRect(id WindowID, frame geom.Rect, group []TiledWindow, workArea geom.Rect) (geom.Rect, bool) {
	rect, isTiled := e.table.TiledRect(id)
	if !isTiled {
		rect = frame
	}
	others := make([]geom.Rect, 0, len(group))
	for _, w := range group {
		if w.ID != id {
			others = append(others, w.TiledRect)
		}
	}
	return BestFitRect(rect, isTiled, others, workArea, e.settings.FreeSpaceOptions())
}

// BeginResize starts propagating a resize of grabbed to the rest of group
// inside workArea.
func (e *Engine) BeginResize(grabbed TiledWindow, dir GrabDirection, group []TiledWindow, workArea geom.Rect) error {
	members := make([]Member, 0, len(group))
	for _, w := range group {
		members = append(members, Member{ID: w.ID, Frame: w.Frame, TiledRect: w.TiledRect})
	}
	g := Member{ID: grabbed.ID, Frame: grabbed.Frame, TiledRect: grabbed.TiledRect}
	if !e.resizer.Active() {
		e.resizer.Gaps = ResizeGaps{
			WorkArea:  workArea,
			WindowGap: e.settings.WindowGap,
			ScreenGap: e.settings.ScreenGap,
		}
	}
	return e.resizer.Begin(g, dir, members, e.settings.EdgeMargin)
}

// ResizeActive reports whether a resize is in progress.
func (e *Engine) ResizeActive() bool { return e.resizer.Active() }

// ResizePeers returns the per-axis relation of every window tracked by the
// current resize.
func (e *Engine) ResizePeers() map[WindowID][2]Relation { return e.resizer.Relations() }

func (e *Engine) OnResizing(live geom.Rect, alive func(WindowID) bool) ([]Adjustment, error) {
	return e.resizer.Update(live, alive)
}

// EndResize finishes the resize and records the resulting tiled rects.
func (e *Engine) EndResize(live geom.Rect, alive func(WindowID) bool) ([]Adjustment, error) {
	adjustments, err := e.resizer.End(live, alive)
	if err != nil {
		return nil, err
	}
	return adjustments, e.commit(adjustments)
}

// AbortResize finishes the resize at the last live frame.
func (e *Engine) AbortResize(alive func(WindowID) bool) ([]Adjustment, error) {
	adjustments, err := e.resizer.Abort(alive)
	if err != nil {
		return nil, err
	}
	return adjustments, e.commit(adjustments)
}

func (e *Engine) commit(adjustments []Adjustment) error {
	for _, a := range adjustments {
		monitor, ok := e.table.MonitorOf(a.ID)
		if !ok {
			continue
		}
		if err := e.table.SetTiled(a.ID, monitor, a.TiledRect, geom.Rect{}); err != nil {
			return fmt.Errorf("commit resize: %w", err)
		}
	}
	return nil
}

func (e *Engine) UpdateGroup(members []TiledWindow) {
	e.table.UpdateGroup(GroupIDs(members))
}

func (e *Engine) DissolveGroup(id WindowID) {
	e.table.DissolveGroup(id)
}
