package x11

import (
	"fmt"

	"github.com/1broseidon/snaptile/internal/geom"
	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
)

// Monitor represents a physical display. WorkArea is Bounds minus dock
// struts (or the EWMH work area when no dock publishes struts).
type Monitor struct {
	ID       int
	Name     string
	Bounds   geom.Rect
	WorkArea geom.Rect
}

// GetMonitors retrieves all active monitors using XRandR
func (c *Connection) GetMonitors() ([]Monitor, error) {
	if err := randr.Init(c.XUtil.Conn()); err != nil {
		return nil, fmt.Errorf("randr init failed: %w", err)
	}

	resources, err := randr.GetScreenResources(c.XUtil.Conn(), c.Root).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to get screen resources: %w", err)
	}

	var monitors []Monitor
	for i, crtc := range resources.Crtcs {
		crtcInfo, err := randr.GetCrtcInfo(c.XUtil.Conn(), crtc, resources.ConfigTimestamp).Reply()
		if err != nil {
			continue
		}

		// Skip disabled CRTCs
		if crtcInfo.Width == 0 || crtcInfo.Height == 0 || len(crtcInfo.Outputs) == 0 {
			continue
		}

		outputName := fmt.Sprintf("Monitor%d", i)
		outputInfo, err := randr.GetOutputInfo(c.XUtil.Conn(), crtcInfo.Outputs[0], resources.ConfigTimestamp).Reply()
		if err == nil {
			outputName = string(outputInfo.Name)
		}

		bounds := geom.Rect{
			X:      int(crtcInfo.X),
			Y:      int(crtcInfo.Y),
			Width:  int(crtcInfo.Width),
			Height: int(crtcInfo.Height),
		}
		monitors = append(monitors, Monitor{
			ID:       i,
			Name:     outputName,
			Bounds:   bounds,
			WorkArea: c.workAreaFor(bounds),
		})
	}

	if len(monitors) == 0 {
		return nil, fmt.Errorf("no monitors found")
	}
	return monitors, nil
}

// GetActiveMonitor returns the monitor containing the focused window, falling
// back to the one under the pointer and then the first monitor.
func (c *Connection) GetActiveMonitor() (*Monitor, error) {
	monitors, err := c.GetMonitors()
	if err != nil {
		return nil, err
	}

	if activeWin, err := ewmh.ActiveWindowGet(c.XUtil); err == nil && activeWin != 0 {
		if rect, err := c.WindowGeometry(activeWin); err == nil {
			if mon := MonitorOf(monitors, rect); mon != nil {
				return mon, nil
			}
		}
	}

	if pointer, err := xproto.QueryPointer(c.XUtil.Conn(), c.Root).Reply(); err == nil {
		if mon := MonitorAt(monitors, int(pointer.RootX), int(pointer.RootY)); mon != nil {
			return mon, nil
		}
	}

	return &monitors[0], nil
}

// MonitorAt returns the monitor whose bounds contain the point, or nil.
func MonitorAt(monitors []Monitor, x, y int) *Monitor {
	for i := range monitors {
		if monitors[i].Bounds.ContainsPoint(x, y) {
			return &monitors[i]
		}
	}
	return nil
}

// MonitorOf returns the monitor containing the center of rect, or nil.
func MonitorOf(monitors []Monitor, rect geom.Rect) *Monitor {
	cx, cy := rect.Center()
	return MonitorAt(monitors, cx, cy)
}

func (c *Connection) workAreaFor(bounds geom.Rect) geom.Rect {
	if area, ok := c.applyDockStruts(bounds); ok {
		return area
	}

	workArea, err := ewmh.WorkareaGet(c.XUtil)
	if err != nil || len(workArea) == 0 {
		return bounds
	}
	desktopIndex := 0
	if currentDesktop, err := ewmh.CurrentDesktopGet(c.XUtil); err == nil && int(currentDesktop) < len(workArea) {
		desktopIndex = int(currentDesktop)
	}
	wa := workArea[desktopIndex]
	waRect, err := geom.New(wa.X, wa.Y, int(wa.Width), int(wa.Height))
	if err != nil {
		return bounds
	}
	if area, ok := bounds.Intersect(waRect); ok {
		return area
	}
	return bounds
}

type dockStruts struct {
	left   int
	right  int
	top    int
	bottom int
}

func (c *Connection) applyDockStruts(bounds geom.Rect) (geom.Rect, bool) {
	rootGeom, err := xproto.GetGeometry(c.XUtil.Conn(), xproto.Drawable(c.Root)).Reply()
	if err != nil {
		return bounds, false
	}
	rootWidth := int(rootGeom.Width)
	rootHeight := int(rootGeom.Height)

	clients, err := ewmh.ClientListGet(c.XUtil)
	if err != nil {
		return bounds, false
	}

	var struts dockStruts
	for _, windowID := range clients {
		if !c.hasWindowType(windowID, "_NET_WM_WINDOW_TYPE_DOCK") {
			continue
		}

		if sp, err := ewmh.WmStrutPartialGet(c.XUtil, windowID); err == nil {
			struts.add(bounds, rootWidth, rootHeight, sp)
			continue
		}

		// Some docks only set _NET_WM_STRUT (no partial ranges).
		if s, err := ewmh.WmStrutGet(c.XUtil, windowID); err == nil {
			struts.add(bounds, rootWidth, rootHeight, &ewmh.WmStrutPartial{
				Left:       s.Left,
				Right:      s.Right,
				Top:        s.Top,
				Bottom:     s.Bottom,
				LeftEndY:   uint(rootHeight - 1),
				RightEndY:  uint(rootHeight - 1),
				TopEndX:    uint(rootWidth - 1),
				BottomEndX: uint(rootWidth - 1),
			})
		}
	}

	if struts == (dockStruts{}) {
		return bounds, false
	}

	area := bounds.Inset(struts.left, struts.top, struts.right, struts.bottom)
	if !area.Valid() {
		return bounds, false
	}
	return area, true
}

// add accumulates the part of each strut band that overlaps the monitor.
func (acc *dockStruts) add(mon geom.Rect, rootWidth, rootHeight int, sp *ewmh.WmStrutPartial) {
	band := func(x, y, x2, y2 int) (geom.Rect, bool) {
		if x2 <= x || y2 <= y {
			return geom.Rect{}, false
		}
		return mon.Intersect(geom.Rect{X: x, Y: y, Width: x2 - x, Height: y2 - y})
	}

	if sp.Top > 0 {
		if isect, ok := band(int(sp.TopStartX), 0, int(sp.TopEndX)+1, int(sp.Top)); ok {
			acc.top = max(acc.top, isect.Y2()-mon.Y)
		}
	}
	if sp.Bottom > 0 {
		if isect, ok := band(int(sp.BottomStartX), rootHeight-int(sp.Bottom), int(sp.BottomEndX)+1, rootHeight); ok {
			acc.bottom = max(acc.bottom, mon.Y2()-isect.Y)
		}
	}
	if sp.Left > 0 {
		if isect, ok := band(0, int(sp.LeftStartY), int(sp.Left), int(sp.LeftEndY)+1); ok {
			acc.left = max(acc.left, isect.X2()-mon.X)
		}
	}
	if sp.Right > 0 {
		if isect, ok := band(rootWidth-int(sp.Right), int(sp.RightStartY), rootWidth, int(sp.RightEndY)+1); ok {
			acc.right = max(acc.right, mon.X2()-isect.X)
		}
	}
}
