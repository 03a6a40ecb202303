package tiling

import (
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/1broseidon/snaptile/internal/config"
	"github.com/1broseidon/snaptile/internal/geom"
	"github.com/1broseidon/snaptile/internal/platform"
)

var (
	// ErrNotTiled is returned when an operation needs a tiled window.
	ErrNotTiled = errors.New("window is not tiled")
	// ErrWindowNotFound is returned when a window is not among the stacked
	// windows of the active display.
	ErrWindowNotFound = errors.New("window not found on active display")
)

// Tiler applies engine results to a platform backend. It owns the engine
// and serializes every operation, so hotkey, grab and IPC callbacks can run
// on different goroutines.
type Tiler struct {
	mu      sync.Mutex
	backend platform.Backend
	config  *config.Config
	engine  *Engine
	grab    *grabState
}

// grabState is the host side of an interactive resize.
type grabState struct {
	id      WindowID
	dir     GrabDirection
	frame   geom.Rect // pre-grab frame of the grabbed window
	originX int
	originY int
	dead    map[WindowID]struct{}
}

func (g *grabState) alive(id WindowID) bool {
	_, dead := g.dead[id]
	return !dead
}

// screen is everything an operation needs to know about one display.
type screen struct {
	display  platform.Display
	workArea geom.Rect
	windows  []Window
}

// NewTiler creates a new tiler instance
func NewTiler(backend platform.Backend, cfg *config.Config) *Tiler {
	return &Tiler{
		backend: backend,
		config:  cfg,
		engine:  NewEngine(SettingsFromConfig(cfg)),
	}
}

// SettingsFromConfig maps the user configuration onto engine settings.
func SettingsFromConfig(cfg *config.Config) Settings {
	return Settings{
		WindowGap:    cfg.GapSize,
		ScreenGap:    cfg.ScreenGap,
		SliverMargin: cfg.SliverMargin,
		EdgeMargin:   cfg.EdgeMargin,
		MinFreeSpace: cfg.MinFreeSpace,
	}
}

// UpdateConfig swaps the configuration. Tiled windows keep their rects.
func (t *Tiler) UpdateConfig(cfg *config.Config) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.config = cfg
	t.engine.SetSettings(SettingsFromConfig(cfg))
	log.Printf("Configuration updated (gap=%d, screen_gap=%d)", cfg.GapSize, cfg.ScreenGap)
}

// Tile moves the active window to pos on its display.
func (t *Tiler) Tile(pos Position) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	id, err := t.backend.ActiveWindow()
	if err != nil {
		return fmt.Errorf("failed to get active window: %w", err)
	}
	sc, err := t.activeScreenLocked()
	if err != nil {
		return err
	}
	frame, ok := sc.frameOf(id)
	if !ok {
		return fmt.Errorf("%w: %d", ErrWindowNotFound, id)
	}

	group := t.engine.ComputeTopGroup(sc.windows, sc.workArea, TopGroupOptions{
		IgnoreID:  id,
		MonitorID: sc.display.ID,
	})
	rect := t.engine.TileRectFor(pos, sc.workArea, group, t.favoriteRectsLocked(sc.workArea))
	log.Printf("Tiling window %d to %s: %v (group of %d)", id, pos, rect, len(group))

	if err := t.placeLocked(id, sc, rect, frame); err != nil {
		return err
	}
	t.regroupLocked(sc, id)
	return nil
}

// TileBestFit grows the active window into the free space around it. It
// reports false when there was nothing to grow into.
func (t *Tiler) TileBestFit() (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	id, err := t.backend.ActiveWindow()
	if err != nil {
		return false, fmt.Errorf("failed to get active window: %w", err)
	}
	sc, err := t.activeScreenLocked()
	if err != nil {
		return false, err
	}
	frame, ok := sc.frameOf(id)
	if !ok {
		return false, fmt.Errorf("%w: %d", ErrWindowNotFound, id)
	}

	group := t.engine.ComputeTopGroup(sc.windows, sc.workArea, TopGroupOptions{
		IgnoreID:  id,
		MonitorID: sc.display.ID,
	})
	rect, ok := t.engine.BestFitRect(id, frame, group, sc.workArea)
	if !ok {
		log.Printf("No free space next to window %d", id)
		return false, nil
	}
	log.Printf("Best fit for window %d: %v", id, rect)

	if err := t.placeLocked(id, sc, rect, frame); err != nil {
		return false, err
	}
	t.regroupLocked(sc, id)
	return true, nil
}

// Untile restores the active window to the geometry it had before it was
// first tiled and drops it from its group.
func (t *Tiler) Untile() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	id, err := t.backend.ActiveWindow()
	if err != nil {
		return fmt.Errorf("failed to get active window: %w", err)
	}
	if _, tiled := t.engine.Table().TiledRect(id); !tiled {
		return fmt.Errorf("%w: %d", ErrNotTiled, id)
	}

	previous, ok := t.engine.Table().Untile(id)
	if !ok {
		log.Printf("Window %d has no recorded floating geometry; leaving it in place", id)
		return nil
	}
	log.Printf("Restoring window %d to %v", id, previous)
	if err := t.backend.MoveResize(id, previous); err != nil {
		return fmt.Errorf("failed to restore window %d: %w", id, err)
	}
	return nil
}

// FocusNeighbor focuses the group member next to the active window in dir.
// It reports false when there is no such member.
func (t *Tiler) FocusNeighbor(dir geom.Direction) (WindowID, bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	id, err := t.backend.ActiveWindow()
	if err != nil {
		return 0, false, fmt.Errorf("failed to get active window: %w", err)
	}
	sc, err := t.activeScreenLocked()
	if err != nil {
		return 0, false, err
	}
	frame, ok := sc.frameOf(id)
	if !ok {
		return 0, false, fmt.Errorf("%w: %d", ErrWindowNotFound, id)
	}
	current, tiled := t.engine.Table().TiledRect(id)
	// A tiled window moved away by hand searches from where it is now.
	if tiled && !frame.ApproxEqual(t.gappedLocked(sc, current), t.engine.Settings().EdgeMargin) {
		tiled = false
	}
	if !tiled {
		current = frame
	}

	group := t.engine.ComputeTopGroup(sc.windows, sc.workArea, TopGroupOptions{
		IgnoreID:  id,
		MonitorID: sc.display.ID,
	})
	rects := GroupRects(group)
	var target geom.Rect
	if tiled {
		target, ok = current.Neighbor(dir, rects, t.config.WrapFocus)
	} else {
		// A floating frame may overlap the tiles, so only look strictly past it.
		target, ok = ClosestRect(current, rects, dir, t.config.WrapFocus)
	}
	if !ok {
		return 0, false, nil
	}
	for _, w := range group {
		if w.TiledRect != target {
			continue
		}
		log.Printf("Focusing window %d (%s of %d)", w.ID, dir, id)
		if err := t.backend.Focus(w.ID); err != nil {
			return 0, false, fmt.Errorf("failed to focus window %d: %w", w.ID, err)
		}
		t.raiseLocked(w.ID)
		return w.ID, true, nil
	}
	return 0, false, nil
}

// RaiseGroup raises id together with its group so that id ends up on top,
// then rebuilds membership from the live stacking order.
func (t *Tiler) RaiseGroup(id WindowID) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, tiled := t.engine.Table().TiledRect(id); !tiled {
		return fmt.Errorf("%w: %d", ErrNotTiled, id)
	}
	t.raiseLocked(id)

	monitor, _ := t.engine.Table().MonitorOf(id)
	sc, err := t.screenLocked(monitor)
	if err != nil {
		return err
	}
	t.updateGroupLocked(sc)
	return nil
}

// ApplyLayout tiles the topmost windows of the active display into the
// named layout, one window per rect.
func (t *Tiler) ApplyLayout(name string) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	layout, err := t.config.GetLayout(name)
	if err != nil {
		return 0, err
	}
	sc, err := t.activeScreenLocked()
	if err != nil {
		return 0, err
	}

	var candidates []Window
	for _, w := range sc.windows {
		if !w.Minimized && !w.Above {
			candidates = append(candidates, w)
		}
	}
	if len(candidates) == 0 {
		log.Println("No windows to tile")
		return 0, nil
	}

	rects, err := LayoutRects(layout, sc.workArea, len(candidates))
	if err != nil {
		return 0, err
	}
	log.Printf("Applying layout %s (%s) to %d window(s)", name, layout.Mode, len(rects))

	placed := make([]WindowID, 0, len(rects))
	for i, rect := range rects {
		w := candidates[i]
		if err := t.placeLocked(w.ID, sc, rect, w.Frame); err != nil {
			log.Printf("Warning: Failed to tile window %d: %v", w.ID, err)
			continue
		}
		placed = append(placed, w.ID)
	}
	if len(placed) == 0 {
		return 0, nil
	}

	t.engine.Table().UpdateGroup(placed)
	t.raiseLocked(placed[0])
	return len(placed), nil
}

// BeginGrab starts an interactive resize of a tiled window along dir.
func (t *Tiler) BeginGrab(id WindowID, dir GrabDirection) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.beginGrabLocked(id, dir, 0, 0)
}

// BeginGrabAt starts a resize of the topmost tiled window under the pointer.
// The edges to move follow from where inside the frame the pointer is.
func (t *Tiler) BeginGrabAt(x, y int) (WindowID, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	sc, err := t.activeScreenLocked()
	if err != nil {
		return 0, err
	}
	for _, w := range sc.windows {
		if w.Minimized || !w.Frame.ContainsPoint(x, y) {
			continue
		}
		if _, tiled := t.engine.Table().TiledRect(w.ID); !tiled {
			return 0, fmt.Errorf("%w: %d", ErrNotTiled, w.ID)
		}
		return w.ID, t.beginGrabLocked(w.ID, GrabFromPoint(w.Frame, x, y), x, y)
	}
	return 0, fmt.Errorf("no window under pointer at %d,%d", x, y)
}

func (t *Tiler) beginGrabLocked(id WindowID, dir GrabDirection, x, y int) error {
	if t.grab != nil {
		return ErrResizeActive
	}
	monitor, ok := t.engine.Table().MonitorOf(id)
	if !ok {
		return fmt.Errorf("%w: %d", ErrNotTiled, id)
	}
	sc, err := t.screenLocked(monitor)
	if err != nil {
		return err
	}
	frame, ok := sc.frameOf(id)
	if !ok {
		return fmt.Errorf("%w: %d", ErrWindowNotFound, id)
	}
	tiled, _ := t.engine.Table().TiledRect(id)

	// The grabbed window is raised first, so it is the top of its group.
	t.raiseLocked(id)
	group := t.engine.ComputeTopGroup(sc.windows, sc.workArea, TopGroupOptions{
		IgnoreID:  id,
		MonitorID: monitor,
	})
	grabbed := TiledWindow{ID: id, TiledRect: tiled, Frame: frame, MonitorID: monitor}
	if err := t.engine.BeginResize(grabbed, dir, group, sc.workArea); err != nil {
		return err
	}

	t.grab = &grabState{
		id:      id,
		dir:     dir,
		frame:   frame,
		originX: x,
		originY: y,
		dead:    make(map[WindowID]struct{}),
	}
	log.Printf("Resizing window %d from %s edge(s) with %d peer(s)", id, dir, len(t.engine.ResizePeers()))
	return nil
}

// StepGrab applies a new live frame of the grabbed window.
func (t *Tiler) StepGrab(live geom.Rect) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.grab == nil {
		return ErrNoResize
	}
	if !live.Valid() {
		return nil
	}
	if err := t.backend.MoveResize(t.grab.id, live); err != nil {
		log.Printf("Warning: Failed to resize grabbed window %d: %v", t.grab.id, err)
	}
	adjustments, err := t.engine.OnResizing(live, t.grab.alive)
	if err != nil {
		return err
	}
	t.applyAdjustmentsLocked(adjustments)
	return nil
}

// PointerMotion turns a pointer position into a live frame for the grab
// started by BeginGrabAt.
func (t *Tiler) PointerMotion(x, y int) error {
	live, err := t.pointerFrame(x, y)
	if err != nil {
		return err
	}
	return t.StepGrab(live)
}

// EndPointerGrab finishes a grab started by BeginGrabAt at pointer (x, y).
func (t *Tiler) EndPointerGrab(x, y int) error {
	live, err := t.pointerFrame(x, y)
	if err != nil {
		return err
	}
	return t.EndGrab(live)
}

func (t *Tiler) pointerFrame(x, y int) (geom.Rect, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.grab == nil {
		return geom.Rect{}, ErrNoResize
	}
	return dragFrame(t.grab.frame, t.grab.dir, x-t.grab.originX, y-t.grab.originY), nil
}

// dragFrame moves the edges of frame selected by dir by the pointer delta.
func dragFrame(frame geom.Rect, dir GrabDirection, dx, dy int) geom.Rect {
	switch {
	case dir&GrabEast != 0:
		frame.Width += dx
	case dir&GrabWest != 0:
		frame.X += dx
		frame.Width -= dx
	}
	switch {
	case dir&GrabSouth != 0:
		frame.Height += dy
	case dir&GrabNorth != 0:
		frame.Y += dy
		frame.Height -= dy
	}
	return frame
}

// EndGrab finishes the resize with the grabbed window at live and records
// the new tiled rects.
func (t *Tiler) EndGrab(live geom.Rect) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.grab == nil {
		return ErrNoResize
	}
	if !live.Valid() {
		return t.abortGrabLocked()
	}
	defer func() { t.grab = nil }()

	if err := t.backend.MoveResize(t.grab.id, live); err != nil {
		log.Printf("Warning: Failed to resize grabbed window %d: %v", t.grab.id, err)
	}
	adjustments, err := t.engine.EndResize(live, t.grab.alive)
	if err != nil {
		return err
	}
	t.applyAdjustmentsLocked(adjustments)
	log.Printf("Resize of window %d finished: %d window(s) adjusted", t.grab.id, len(adjustments))
	return nil
}

// AbortGrab ends the resize at the last live frame, e.g. when the pointer
// grab is lost.
func (t *Tiler) AbortGrab() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.grab == nil {
		return ErrNoResize
	}
	return t.abortGrabLocked()
}

func (t *Tiler) abortGrabLocked() error {
	defer func() { t.grab = nil }()

	adjustments, err := t.engine.AbortResize(t.grab.alive)
	if err != nil {
		return err
	}
	t.applyAdjustmentsLocked(adjustments)
	log.Printf("Resize of window %d aborted", t.grab.id)
	return nil
}

// applyAdjustmentsLocked moves every adjusted window except the grabbed one,
// whose frame is driven by the pointer. A window that cannot be moved is
// dropped for the rest of the grab.
func (t *Tiler) applyAdjustmentsLocked(adjustments []Adjustment) {
	for _, a := range adjustments {
		if a.ID == t.grab.id {
			continue
		}
		if err := t.backend.MoveResize(a.ID, a.Frame); err != nil {
			log.Printf("Warning: Dropping window %d from resize: %v", a.ID, err)
			t.grab.dead[a.ID] = struct{}{}
		}
	}
}

// Prune forgets tiled windows that no longer exist.
func (t *Tiler) Prune(alive func(WindowID) bool) []WindowID {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.grab != nil && !alive(t.grab.id) {
		t.grab.dead[t.grab.id] = struct{}{}
		if err := t.abortGrabLocked(); err != nil {
			log.Printf("Warning: Failed to abort resize: %v", err)
		}
	}
	removed := t.engine.Table().Prune(alive)
	if len(removed) > 0 {
		log.Printf("Pruned %d closed window(s): %v", len(removed), removed)
	}
	return removed
}

// TiledStatus describes one tracked window.
type TiledStatus struct {
	ID        WindowID   `json:"id"`
	MonitorID int        `json:"monitor_id"`
	TiledRect geom.Rect  `json:"tiled_rect"`
	Untiled   *geom.Rect `json:"untiled_rect,omitempty"`
	Peers     []WindowID `json:"peers,omitempty"`
}

// Status is a snapshot of the tile table.
type Status struct {
	Tiled    []TiledStatus `json:"tiled"`
	Resizing bool          `json:"resizing"`
	Settings Settings      `json:"settings"`
}

// Status returns a snapshot of every tracked window.
func (t *Tiler) Status() Status {
	t.mu.Lock()
	defer t.mu.Unlock()

	table := t.engine.Table()
	st := Status{
		Tiled:    make([]TiledStatus, 0, table.Len()),
		Resizing: t.engine.ResizeActive(),
		Settings: t.engine.Settings(),
	}
	for _, id := range table.IDs() {
		rect, _ := table.TiledRect(id)
		monitor, _ := table.MonitorOf(id)
		ts := TiledStatus{ID: id, MonitorID: monitor, TiledRect: rect, Peers: table.Members(id)}
		if untiled, ok := table.UntiledRect(id); ok {
			ts.Untiled = &untiled
		}
		st.Tiled = append(st.Tiled, ts)
	}
	return st
}

// Group returns the top tile group of the active display.
func (t *Tiler) Group() ([]TiledWindow, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	sc, err := t.activeScreenLocked()
	if err != nil {
		return nil, err
	}
	return t.engine.ComputeTopGroup(sc.windows, sc.workArea, TopGroupOptions{MonitorID: sc.display.ID}), nil
}

// FreeSpace reports the free regions left by the top group of the active
// display, and the single free rect when the regions are unambiguous.
func (t *Tiler) FreeSpace() (FreeSpaceReport, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	sc, err := t.activeScreenLocked()
	if err != nil {
		return FreeSpaceReport{}, err
	}
	group := t.engine.ComputeTopGroup(sc.windows, sc.workArea, TopGroupOptions{MonitorID: sc.display.ID})
	report := t.engine.PlanFreeSpace(sc.workArea, GroupRects(group))
	report.DisplayID = sc.display.ID
	return report, nil
}

// placeLocked records id as tiled at rect and moves it there, gaps applied.
func (t *Tiler) placeLocked(id WindowID, sc *screen, rect, frame geom.Rect) error {
	if err := t.engine.Table().SetTiled(id, sc.display.ID, rect, frame); err != nil {
		return err
	}
	target := t.gappedLocked(sc, rect)
	if err := t.backend.MoveResize(id, target); err != nil {
		return fmt.Errorf("failed to move window %d: %w", id, err)
	}
	sc.promote(id, target)
	return nil
}

// gappedLocked returns the frame a window tiled at rect is given.
func (t *Tiler) gappedLocked(sc *screen, rect geom.Rect) geom.Rect {
	s := t.engine.Settings()
	target := rect.AddGaps(sc.workArea, s.WindowGap, s.ScreenGap)
	if !target.Valid() {
		return rect
	}
	return target
}

// regroupLocked rebuilds the group around a freshly placed window and raises
// it with its new peers.
func (t *Tiler) regroupLocked(sc *screen, id WindowID) {
	t.engine.DissolveGroup(id)
	t.updateGroupLocked(sc)
	t.raiseLocked(id)
}

func (t *Tiler) updateGroupLocked(sc *screen) {
	group := t.engine.ComputeTopGroup(sc.windows, sc.workArea, TopGroupOptions{MonitorID: sc.display.ID})
	t.engine.UpdateGroup(group)
}

func (t *Tiler) raiseLocked(id WindowID) {
	t.engine.Table().Raise(id, func(w WindowID) {
		if err := t.backend.Raise(w); err != nil {
			log.Printf("Warning: Failed to raise window %d: %v", w, err)
		}
	})
}

func (t *Tiler) favoriteRectsLocked(workArea geom.Rect) []geom.Rect {
	if t.config.FavoriteLayout == "" {
		return nil
	}
	layout, err := t.config.GetLayout(t.config.FavoriteLayout)
	if err != nil {
		log.Printf("Warning: favorite layout unavailable: %v", err)
		return nil
	}
	rects, err := LayoutRects(layout, workArea, 0)
	if err != nil {
		log.Printf("Warning: favorite layout unavailable: %v", err)
		return nil
	}
	return rects
}

func (t *Tiler) activeScreenLocked() (*screen, error) {
	display, err := t.backend.ActiveDisplay()
	if err != nil {
		return nil, fmt.Errorf("failed to get active display: %w", err)
	}
	return t.loadScreenLocked(display)
}

func (t *Tiler) screenLocked(displayID int) (*screen, error) {
	displays, err := t.backend.Displays()
	if err != nil {
		return nil, fmt.Errorf("failed to list displays: %w", err)
	}
	for _, d := range displays {
		if d.ID == displayID {
			return t.loadScreenLocked(d)
		}
	}
	return nil, fmt.Errorf("display with id %d not found", displayID)
}

func (t *Tiler) loadScreenLocked(display platform.Display) (*screen, error) {
	workArea, err := t.config.WorkArea(display.Usable)
	if err != nil {
		return nil, err
	}
	stacked, err := t.backend.StackedWindows(display.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list windows: %w", err)
	}
	windows := make([]Window, 0, len(stacked))
	for _, w := range stacked {
		windows = append(windows, Window{
			ID:        w.ID,
			MonitorID: display.ID,
			Frame:     w.Bounds,
			Above:     w.Above,
			Maximized: w.Maximized,
			Minimized: w.Minimized,
		})
	}
	return &screen{display: display, workArea: workArea, windows: windows}, nil
}

func (s *screen) frameOf(id WindowID) (geom.Rect, bool) {
	for _, w := range s.windows {
		if w.ID == id {
			return w.Frame, true
		}
	}
	return geom.Rect{}, false
}

// promote moves id to the top of the stacking order with a new frame, the
// way the window manager will see it once the move and raise land.
func (s *screen) promote(id WindowID, frame geom.Rect) {
	w := Window{ID: id, MonitorID: s.display.ID}
	rest := make([]Window, 0, len(s.windows))
	for _, cur := range s.windows {
		if cur.ID == id {
			w = cur
			continue
		}
		rest = append(rest, cur)
	}
	w.Frame = frame
	w.Maximized = false
	w.Minimized = false
	s.windows = append([]Window{w}, rest...)
}
