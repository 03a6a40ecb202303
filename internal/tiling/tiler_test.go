package tiling

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"testing"

	"github.com/1broseidon/snaptile/internal/config"
	"github.com/1broseidon/snaptile/internal/geom"
	"github.com/1broseidon/snaptile/internal/platform"
)

// fakeBackend is an in-memory window manager with a single display.
type fakeBackend struct {
	display  platform.Display
	windows  []platform.Window // topmost first
	active   WindowID
	focused  WindowID
	raised   []WindowID
	failMove map[WindowID]bool
}

func newFakeBackend(windows ...platform.Window) *fakeBackend {
	work := geom.Rect{Width: 1000, Height: 800}
	return &fakeBackend{
		display:  platform.Display{ID: 0, Name: "fake-0", Bounds: work, Usable: work},
		windows:  windows,
		failMove: make(map[WindowID]bool),
	}
}

func floating(id WindowID, r geom.Rect) platform.Window {
	return platform.Window{ID: id, Title: fmt.Sprintf("window %d", id), Bounds: r}
}

func (f *fakeBackend) Displays() ([]platform.Display, error) {
	return []platform.Display{f.display}, nil
}

func (f *fakeBackend) ActiveDisplay() (platform.Display, error) {
	return f.display, nil
}

func (f *fakeBackend) ActiveWindow() (WindowID, error) {
	if f.active == 0 {
		return 0, errors.New("no active window")
	}
	return f.active, nil
}

func (f *fakeBackend) StackedWindows(displayID int) ([]platform.Window, error) {
	var out []platform.Window
	for _, w := range f.windows {
		if w.DisplayID == displayID {
			out = append(out, w)
		}
	}
	return out, nil
}

func (f *fakeBackend) WindowIDs() ([]WindowID, error) {
	ids := make([]WindowID, 0, len(f.windows))
	for _, w := range f.windows {
		ids = append(ids, w.ID)
	}
	return ids, nil
}

func (f *fakeBackend) MoveResize(id WindowID, bounds geom.Rect) error {
	if f.failMove[id] {
		return fmt.Errorf("window %d is gone", id)
	}
	i := f.index(id)
	if i < 0 {
		return fmt.Errorf("window %d not found", id)
	}
	f.windows[i].Bounds = bounds
	return nil
}

func (f *fakeBackend) Raise(id WindowID) error {
	i := f.index(id)
	if i < 0 {
		return fmt.Errorf("window %d not found", id)
	}
	w := f.windows[i]
	f.windows = append([]platform.Window{w}, slices.Delete(f.windows, i, i+1)...)
	f.raised = append(f.raised, id)
	return nil
}

func (f *fakeBackend) Focus(id WindowID) error {
	if f.index(id) < 0 {
		return fmt.Errorf("window %d not found", id)
	}
	f.active = id
	f.focused = id
	return nil
}

func (f *fakeBackend) index(id WindowID) int {
	return slices.IndexFunc(f.windows, func(w platform.Window) bool { return w.ID == id })
}

func (f *fakeBackend) bounds(t *testing.T, id WindowID) geom.Rect {
	t.Helper()
	i := f.index(id)
	if i < 0 {
		t.Fatalf("window %d not found", id)
	}
	return f.windows[i].Bounds
}

func noGapConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.GapSize = 0
	cfg.ScreenGap = 0
	return cfg
}

// tileSideBySide tiles window 1 left and window 2 right.
func tileSideBySide(t *testing.T, tiler *Tiler, backend *fakeBackend) {
	t.Helper()
	backend.active = 1
	if err := tiler.Tile(PositionLeft); err != nil {
		t.Fatalf("Tile(left): %v", err)
	}
	backend.active = 2
	if err := tiler.Tile(PositionRight); err != nil {
		t.Fatalf("Tile(right): %v", err)
	}
}

func TestTiler_TileSideBySide(t *testing.T) {
	backend := newFakeBackend(
		floating(1, geom.Rect{X: 100, Y: 100, Width: 300, Height: 200}),
		floating(2, geom.Rect{X: 200, Y: 200, Width: 300, Height: 200}),
	)
	tiler := NewTiler(backend, noGapConfig())

	tileSideBySide(t, tiler, backend)

	if got := backend.bounds(t, 1); got != leftHalf {
		t.Fatalf("window 1 bounds = %v", got)
	}
	if got := backend.bounds(t, 2); got != rightHalf {
		t.Fatalf("window 2 bounds = %v", got)
	}

	st := tiler.Status()
	if len(st.Tiled) != 2 {
		t.Fatalf("expected 2 tiled windows, got %+v", st.Tiled)
	}
	if !reflect.DeepEqual(st.Tiled[0].Peers, []WindowID{2}) || !reflect.DeepEqual(st.Tiled[1].Peers, []WindowID{1}) {
		t.Fatalf("unexpected membership: %+v", st.Tiled)
	}
	if st.Tiled[0].Untiled == nil || *st.Tiled[0].Untiled != (geom.Rect{X: 100, Y: 100, Width: 300, Height: 200}) {
		t.Fatalf("window 1 untiled rect = %v", st.Tiled[0].Untiled)
	}

	// The last raise puts window 2 on top, after its peer.
	if n := len(backend.raised); n < 2 || !reflect.DeepEqual(backend.raised[n-2:], []WindowID{1, 2}) {
		t.Fatalf("raise order = %v", backend.raised)
	}
}

func TestTiler_TileAppliesGaps(t *testing.T) {
	backend := newFakeBackend(floating(1, geom.Rect{X: 100, Y: 100, Width: 300, Height: 200}))
	backend.active = 1
	tiler := NewTiler(backend, config.DefaultConfig())

	if err := tiler.Tile(PositionLeft); err != nil {
		t.Fatalf("Tile: %v", err)
	}
	if got := backend.bounds(t, 1); got != (geom.Rect{X: 8, Y: 8, Width: 488, Height: 784}) {
		t.Fatalf("window bounds = %v", got)
	}
	if st := tiler.Status(); st.Tiled[0].TiledRect != leftHalf {
		t.Fatalf("tiled rect = %v", st.Tiled[0].TiledRect)
	}
}

func TestTiler_Untile(t *testing.T) {
	backend := newFakeBackend(
		floating(1, geom.Rect{X: 100, Y: 100, Width: 300, Height: 200}),
		floating(2, geom.Rect{X: 200, Y: 200, Width: 300, Height: 200}),
	)
	tiler := NewTiler(backend, noGapConfig())
	tileSideBySide(t, tiler, backend)

	backend.active = 2
	if err := tiler.Untile(); err != nil {
		t.Fatalf("Untile: %v", err)
	}
	if got := backend.bounds(t, 2); got != (geom.Rect{X: 200, Y: 200, Width: 300, Height: 200}) {
		t.Fatalf("window 2 not restored: %v", got)
	}
	st := tiler.Status()
	if len(st.Tiled) != 1 || st.Tiled[0].ID != 1 || len(st.Tiled[0].Peers) != 0 {
		t.Fatalf("unexpected status after untile: %+v", st.Tiled)
	}

	if err := tiler.Untile(); !errors.Is(err, ErrNotTiled) {
		t.Fatalf("expected ErrNotTiled, got %v", err)
	}
}

func TestTiler_TileBestFit(t *testing.T) {
	backend := newFakeBackend(
		floating(1, geom.Rect{X: 100, Y: 100, Width: 300, Height: 200}),
		floating(2, geom.Rect{X: 200, Y: 200, Width: 300, Height: 200}),
	)
	tiler := NewTiler(backend, noGapConfig())

	backend.active = 1
	if err := tiler.Tile(PositionLeft); err != nil {
		t.Fatalf("Tile: %v", err)
	}
	backend.active = 2
	ok, err := tiler.TileBestFit()
	if err != nil || !ok {
		t.Fatalf("TileBestFit() = %v, %v", ok, err)
	}
	if got := backend.bounds(t, 2); got != rightHalf {
		t.Fatalf("window 2 bounds = %v", got)
	}

	// Nothing left to grow into.
	ok, err = tiler.TileBestFit()
	if err != nil || ok {
		t.Fatalf("second TileBestFit() = %v, %v", ok, err)
	}
}

func TestTiler_FocusNeighbor(t *testing.T) {
	backend := newFakeBackend(
		floating(1, geom.Rect{X: 100, Y: 100, Width: 300, Height: 200}),
		floating(2, geom.Rect{X: 200, Y: 200, Width: 300, Height: 200}),
	)
	cfg := noGapConfig()
	cfg.WrapFocus = false
	tiler := NewTiler(backend, cfg)
	tileSideBySide(t, tiler, backend)

	backend.active = 1
	id, ok, err := tiler.FocusNeighbor(geom.East)
	if err != nil || !ok || id != 2 {
		t.Fatalf("FocusNeighbor(east) = %d, %v, %v", id, ok, err)
	}
	if backend.focused != 2 {
		t.Fatalf("focused = %d", backend.focused)
	}

	_, ok, err = tiler.FocusNeighbor(geom.East)
	if err != nil || ok {
		t.Fatalf("expected no neighbour east of window 2, got %v, %v", ok, err)
	}

	cfg.WrapFocus = true
	tiler.UpdateConfig(cfg)
	id, ok, err = tiler.FocusNeighbor(geom.East)
	if err != nil || !ok || id != 1 {
		t.Fatalf("FocusNeighbor(east) with wrap = %d, %v, %v; want window 1", id, ok, err)
	}
}

func TestTiler_FocusNeighbor_MovedByHand(t *testing.T) {
	backend := newFakeBackend(
		floating(1, geom.Rect{X: 100, Y: 100, Width: 300, Height: 200}),
		floating(2, geom.Rect{X: 200, Y: 200, Width: 300, Height: 200}),
	)
	cfg := noGapConfig()
	cfg.WrapFocus = false
	tiler := NewTiler(backend, cfg)
	tileSideBySide(t, tiler, backend)
	backend.active = 1

	// A pixel of drift still counts as tiled.
	backend.windows[backend.index(1)].Bounds = geom.Rect{X: 0, Y: 0, Width: 501, Height: 800}
	if id, ok, err := tiler.FocusNeighbor(geom.East); err != nil || !ok || id != 2 {
		t.Fatalf("FocusNeighbor(east) after drift = %d, %v, %v", id, ok, err)
	}

	// Dragged over the right half, window 1 searches from its new frame.
	backend.active = 1
	backend.windows[backend.index(1)].Bounds = geom.Rect{X: 600, Y: 100, Width: 200, Height: 200}
	if _, ok, err := tiler.FocusNeighbor(geom.East); err != nil || ok {
		t.Fatalf("FocusNeighbor(east) from moved frame = %v, %v; want nothing", ok, err)
	}
}

func TestTiler_ApplyLayout(t *testing.T) {
	backend := newFakeBackend(
		floating(1, geom.Rect{X: 0, Y: 0, Width: 100, Height: 100}),
		floating(2, geom.Rect{X: 10, Y: 10, Width: 100, Height: 100}),
		floating(3, geom.Rect{X: 20, Y: 20, Width: 100, Height: 100}),
	)
	tiler := NewTiler(backend, noGapConfig())

	n, err := tiler.ApplyLayout("halves")
	if err != nil {
		t.Fatalf("ApplyLayout(halves): %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 windows tiled, got %d", n)
	}
	if got := backend.bounds(t, 1); got != leftHalf {
		t.Fatalf("window 1 bounds = %v", got)
	}
	if got := backend.bounds(t, 2); got != rightHalf {
		t.Fatalf("window 2 bounds = %v", got)
	}
	if got := backend.bounds(t, 3); got != (geom.Rect{X: 20, Y: 20, Width: 100, Height: 100}) {
		t.Fatalf("window 3 should not move: %v", got)
	}

	n, err = tiler.ApplyLayout("grid")
	if err != nil {
		t.Fatalf("ApplyLayout(grid): %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3 windows tiled, got %d", n)
	}
	group, err := tiler.Group()
	if err != nil {
		t.Fatalf("Group: %v", err)
	}
	if len(group) != 3 {
		t.Fatalf("expected a group of 3, got %v", GroupIDs(group))
	}

	if _, err := tiler.ApplyLayout("missing"); !errors.Is(err, config.ErrUnknownLayout) {
		t.Fatalf("expected ErrUnknownLayout, got %v", err)
	}
}

func TestTiler_GrabResizesNeighbour(t *testing.T) {
	backend := newFakeBackend(
		floating(1, geom.Rect{X: 100, Y: 100, Width: 300, Height: 200}),
		floating(2, geom.Rect{X: 200, Y: 200, Width: 300, Height: 200}),
	)
	tiler := NewTiler(backend, noGapConfig())
	tileSideBySide(t, tiler, backend)

	if err := tiler.BeginGrab(1, GrabEast); err != nil {
		t.Fatalf("BeginGrab: %v", err)
	}
	if err := tiler.BeginGrab(2, GrabWest); !errors.Is(err, ErrResizeActive) {
		t.Fatalf("expected ErrResizeActive, got %v", err)
	}

	live := geom.Rect{Width: 550, Height: 800}
	if err := tiler.StepGrab(live); err != nil {
		t.Fatalf("StepGrab: %v", err)
	}
	if got := backend.bounds(t, 2); got != (geom.Rect{X: 550, Y: 0, Width: 450, Height: 800}) {
		t.Fatalf("window 2 bounds during grab = %v", got)
	}
	if !tiler.Status().Resizing {
		t.Fatalf("expected status to report a resize")
	}

	if err := tiler.EndGrab(live); err != nil {
		t.Fatalf("EndGrab: %v", err)
	}
	st := tiler.Status()
	if st.Resizing {
		t.Fatalf("expected resize to be finished")
	}
	if st.Tiled[0].TiledRect != live || st.Tiled[1].TiledRect != (geom.Rect{X: 550, Y: 0, Width: 450, Height: 800}) {
		t.Fatalf("unexpected tiled rects: %+v", st.Tiled)
	}
	if err := tiler.EndGrab(live); !errors.Is(err, ErrNoResize) {
		t.Fatalf("expected ErrNoResize, got %v", err)
	}
}

func TestTiler_PointerGrab(t *testing.T) {
	backend := newFakeBackend(
		floating(1, geom.Rect{X: 100, Y: 100, Width: 300, Height: 200}),
		floating(2, geom.Rect{X: 200, Y: 200, Width: 300, Height: 200}),
	)
	tiler := NewTiler(backend, noGapConfig())
	tileSideBySide(t, tiler, backend)

	id, err := tiler.BeginGrabAt(490, 400)
	if err != nil {
		t.Fatalf("BeginGrabAt: %v", err)
	}
	if id != 1 {
		t.Fatalf("grabbed window %d, want 1", id)
	}
	if err := tiler.PointerMotion(520, 420); err != nil {
		t.Fatalf("PointerMotion: %v", err)
	}
	if err := tiler.EndPointerGrab(540, 420); err != nil {
		t.Fatalf("EndPointerGrab: %v", err)
	}
	if got := backend.bounds(t, 1); got != (geom.Rect{Width: 550, Height: 800}) {
		t.Fatalf("window 1 bounds = %v", got)
	}
	if got := backend.bounds(t, 2); got != (geom.Rect{X: 550, Y: 0, Width: 450, Height: 800}) {
		t.Fatalf("window 2 bounds = %v", got)
	}

	if _, err := tiler.BeginGrabAt(5000, 5000); err == nil {
		t.Fatalf("expected error with no window under the pointer")
	}
}

func TestTiler_GrabDropsWindowThatFailsToMove(t *testing.T) {
	backend := newFakeBackend(
		floating(1, geom.Rect{X: 100, Y: 100, Width: 300, Height: 200}),
		floating(2, geom.Rect{X: 200, Y: 200, Width: 300, Height: 200}),
	)
	tiler := NewTiler(backend, noGapConfig())
	tileSideBySide(t, tiler, backend)

	if err := tiler.BeginGrab(1, GrabEast); err != nil {
		t.Fatalf("BeginGrab: %v", err)
	}
	backend.failMove[2] = true
	live := geom.Rect{Width: 550, Height: 800}
	if err := tiler.StepGrab(live); err != nil {
		t.Fatalf("StepGrab: %v", err)
	}
	if err := tiler.EndGrab(live); err != nil {
		t.Fatalf("EndGrab: %v", err)
	}

	st := tiler.Status()
	if st.Tiled[1].TiledRect != rightHalf {
		t.Fatalf("dropped window should keep its tiled rect, got %v", st.Tiled[1].TiledRect)
	}
	if st.Tiled[0].TiledRect != live {
		t.Fatalf("grabbed window tiled rect = %v", st.Tiled[0].TiledRect)
	}
}

func TestTiler_PruneAbortsGrabOfClosedWindow(t *testing.T) {
	backend := newFakeBackend(
		floating(1, geom.Rect{X: 100, Y: 100, Width: 300, Height: 200}),
		floating(2, geom.Rect{X: 200, Y: 200, Width: 300, Height: 200}),
	)
	tiler := NewTiler(backend, noGapConfig())
	tileSideBySide(t, tiler, backend)

	if err := tiler.BeginGrab(1, GrabEast); err != nil {
		t.Fatalf("BeginGrab: %v", err)
	}
	removed := tiler.Prune(func(id WindowID) bool { return id != 1 })
	if !reflect.DeepEqual(removed, []WindowID{1}) {
		t.Fatalf("Prune() = %v", removed)
	}

	st := tiler.Status()
	if st.Resizing {
		t.Fatalf("expected grab to be aborted")
	}
	if len(st.Tiled) != 1 || st.Tiled[0].ID != 2 || len(st.Tiled[0].Peers) != 0 {
		t.Fatalf("unexpected status after prune: %+v", st.Tiled)
	}
}

func TestTiler_FreeSpace(t *testing.T) {
	backend := newFakeBackend(
		floating(1, geom.Rect{X: 100, Y: 100, Width: 300, Height: 200}),
		floating(2, geom.Rect{X: 200, Y: 200, Width: 300, Height: 200}),
	)
	backend.active = 1
	tiler := NewTiler(backend, noGapConfig())
	if err := tiler.Tile(PositionLeft); err != nil {
		t.Fatalf("Tile: %v", err)
	}

	report, err := tiler.FreeSpace()
	if err != nil {
		t.Fatalf("FreeSpace: %v", err)
	}
	if !reflect.DeepEqual(report.Occupied, []geom.Rect{leftHalf}) {
		t.Fatalf("occupied = %v", report.Occupied)
	}
	if report.Free == nil || *report.Free != rightHalf {
		t.Fatalf("free = %v", report.Free)
	}
}
