package x11

import (
	"log"

	"github.com/1broseidon/snaptile/internal/geom"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/xwindow"
)

// WindowState is the subset of _NET_WM_STATE the tiler cares about.
type WindowState struct {
	Above     bool
	Maximized bool
	Minimized bool
}

// MoveResizeWindow moves and resizes a window so its outer frame covers rect.
// _NET_MOVERESIZE_WINDOW takes the frame corner with north-west gravity but a
// client size, so the decorations are taken off the width and height.
func (c *Connection) MoveResizeWindow(windowID xproto.Window, rect geom.Rect) error {
	// A maximized window ignores geometry requests on most WMs.
	if err := c.unmaximizeWindow(windowID); err != nil {
		log.Printf("Warning: could not read state of window %d: %v", windowID, err)
	}

	client := ClientRect(rect, c.GetFrameExtents(windowID))
	err := ewmh.MoveresizeWindowExtra(c.XUtil, windowID, rect.X, rect.Y, client.Width, client.Height,
		xproto.GravityNorthWest, 2, true, true)
	if err != nil {
		// Fallback to direct window manipulation
		xwindow.New(c.XUtil, windowID).MoveResize(client.X, client.Y, client.Width, client.Height)
	}
	return nil
}

// unmaximizeWindow removes maximized state from a window
func (c *Connection) unmaximizeWindow(windowID xproto.Window) error {
	states, err := ewmh.WmStateGet(c.XUtil, windowID)
	if err != nil {
		return err
	}

	for _, state := range states {
		switch state {
		case "_NET_WM_STATE_MAXIMIZED_HORZ", "_NET_WM_STATE_MAXIMIZED_VERT":
			ewmh.WmStateReq(c.XUtil, windowID, ewmh.StateRemove, state)
		}
	}
	return nil
}

// GetWindowState reports the stacking and visibility flags of a window.
func (c *Connection) GetWindowState(windowID xproto.Window) WindowState {
	var st WindowState
	states, err := ewmh.WmStateGet(c.XUtil, windowID)
	if err != nil {
		return st
	}

	var maxH, maxV bool
	for _, state := range states {
		switch state {
		case "_NET_WM_STATE_ABOVE":
			st.Above = true
		case "_NET_WM_STATE_HIDDEN":
			st.Minimized = true
		case "_NET_WM_STATE_FULLSCREEN":
			st.Maximized = true
		case "_NET_WM_STATE_MAXIMIZED_HORZ":
			maxH = true
		case "_NET_WM_STATE_MAXIMIZED_VERT":
			maxV = true
		}
	}
	if maxH && maxV {
		st.Maximized = true
	}
	return st
}

// FrameExtents are the decoration sizes the WM adds around a client window.
type FrameExtents struct {
	Left, Right, Top, Bottom int
}

// GetFrameExtents returns the window decoration sizes, zero when unknown.
func (c *Connection) GetFrameExtents(windowID xproto.Window) FrameExtents {
	extents, err := ewmh.FrameExtentsGet(c.XUtil, windowID)
	if err != nil {
		return FrameExtents{}
	}
	return FrameExtents{Left: extents.Left, Right: extents.Right, Top: extents.Top, Bottom: extents.Bottom}
}

// OuterFrame grows a client rect by its decorations.
func OuterFrame(client geom.Rect, e FrameExtents) geom.Rect {
	return geom.Rect{
		X:      client.X - e.Left,
		Y:      client.Y - e.Top,
		Width:  client.Width + e.Left + e.Right,
		Height: client.Height + e.Top + e.Bottom,
	}
}

// ClientRect is the inverse of OuterFrame.
func ClientRect(frame geom.Rect, e FrameExtents) geom.Rect {
	return geom.Rect{
		X:      frame.X + e.Left,
		Y:      frame.Y + e.Top,
		Width:  frame.Width - e.Left - e.Right,
		Height: frame.Height - e.Top - e.Bottom,
	}
}

// WindowGeometry returns the root-relative outer frame of a window,
// decorations included. MoveResizeWindow accepts the same rect back.
func (c *Connection) WindowGeometry(windowID xproto.Window) (geom.Rect, error) {
	g, err := xproto.GetGeometry(c.XUtil.Conn(), xproto.Drawable(windowID)).Reply()
	if err != nil {
		return geom.Rect{}, err
	}

	translate, err := xproto.TranslateCoordinates(c.XUtil.Conn(), windowID, c.Root, 0, 0).Reply()
	if err != nil {
		return geom.Rect{}, err
	}

	client := geom.Rect{
		X:      int(translate.DstX),
		Y:      int(translate.DstY),
		Width:  int(g.Width),
		Height: int(g.Height),
	}
	return OuterFrame(client, c.GetFrameExtents(windowID)), nil
}

// IsNormalWindow checks if a window is a normal application window
func (c *Connection) IsNormalWindow(windowID xproto.Window) bool {
	types, err := ewmh.WmWindowTypeGet(c.XUtil, windowID)
	if err != nil {
		// If we can't determine type, assume it's normal
		return true
	}

	for _, t := range types {
		switch t {
		case "_NET_WM_WINDOW_TYPE_NORMAL":
			return true
		case "_NET_WM_WINDOW_TYPE_DESKTOP",
			"_NET_WM_WINDOW_TYPE_DOCK",
			"_NET_WM_WINDOW_TYPE_SPLASH",
			"_NET_WM_WINDOW_TYPE_NOTIFICATION":
			return false
		}
	}

	// If no specific type is set, assume it's normal
	return len(types) == 0
}

func (c *Connection) hasWindowType(windowID xproto.Window, want string) bool {
	types, err := ewmh.WmWindowTypeGet(c.XUtil, windowID)
	if err != nil {
		return false
	}
	for _, t := range types {
		if t == want {
			return true
		}
	}
	return false
}

func (c *Connection) GetActiveWindow() (xproto.Window, error) {
	return ewmh.ActiveWindowGet(c.XUtil)
}

// StackingOrder returns managed windows topmost first.
func (c *Connection) StackingOrder() ([]xproto.Window, error) {
	clients, err := ewmh.ClientListStackingGet(c.XUtil)
	if err != nil {
		return nil, err
	}
	// _NET_CLIENT_LIST_STACKING is bottom-to-top.
	out := make([]xproto.Window, len(clients))
	for i, w := range clients {
		out[len(clients)-1-i] = w
	}
	return out, nil
}

// RaiseWindow asks the WM to put a window on top of its siblings.
func (c *Connection) RaiseWindow(windowID xproto.Window) error {
	return ewmh.RestackWindow(c.XUtil, windowID)
}
