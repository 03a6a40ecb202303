package platform

import "github.com/1broseidon/snaptile/internal/geom"

// WindowID is a platform-neutral window identifier.
type WindowID uint32

// Rect describes a rectangular region in screen coordinates.
type Rect = geom.Rect

// Display describes a physical display and its usable work area.
type Display struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Bounds Rect   `json:"bounds"`
	Usable Rect   `json:"usable"`
}

// Window contains metadata and geometry for a top-level window. Bounds is
// the outer frame, decorations included.
type Window struct {
	ID        WindowID
	DisplayID int
	AppID     string
	Title     string
	Bounds    Rect
	Above     bool
	Maximized bool
	Minimized bool
}

// Backend abstracts window-system operations across platforms.
type Backend interface {
	Displays() ([]Display, error)
	ActiveDisplay() (Display, error)
	ActiveWindow() (WindowID, error)
	// StackedWindows lists the normal windows on a display, topmost first.
	StackedWindows(displayID int) ([]Window, error)
	// WindowIDs lists every managed window, on any display or desktop.
	WindowIDs() ([]WindowID, error)
	MoveResize(windowID WindowID, bounds Rect) error
	Raise(windowID WindowID) error
	Focus(windowID WindowID) error
}
