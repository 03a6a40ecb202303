package hotkeys

import (
	"fmt"
	"log"

	"github.com/1broseidon/snaptile/internal/platform"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/mousebind"
	"github.com/BurntSushi/xgbutil/xcursor"
)

// Grabber drives an interactive resize from pointer positions in root
// coordinates.
type Grabber interface {
	BeginGrabAt(x, y int) (platform.WindowID, error)
	PointerMotion(x, y int) error
	EndPointerGrab(x, y int) error
}

// RegisterResizeDrag binds buttonSequence (for example "Mod4-3") on the root
// window. Dragging with it resizes the tiled window under the pointer and
// carries the windows sharing the moved edges along.
//
// The binding lives for the lifetime of the connection; it is not touched
// by Unregister.
func (h *Handler) RegisterResizeDrag(buttonSequence string, grabber Grabber) error {
	if h.xu == nil {
		return fmt.Errorf("pointer resize needs an X11 backend")
	}
	if _, _, err := mousebind.ParseString(h.xu, buttonSequence); err != nil {
		return fmt.Errorf("invalid resize button %q: %w", buttonSequence, err)
	}

	cursor, err := xcursor.CreateCursor(h.xu, xcursor.Sizing)
	if err != nil {
		log.Printf("Warning: Failed to create resize cursor: %v", err)
		cursor = 0
	}

	begin := func(xu *xgbutil.XUtil, rootX, rootY, eventX, eventY int) (bool, xproto.Cursor) {
		id, err := grabber.BeginGrabAt(rootX, rootY)
		if err != nil {
			log.Printf("Resize not started: %v", err)
			return false, 0
		}
		log.Printf("Pointer resize of window %d started at %d,%d", id, rootX, rootY)
		return true, cursor
	}
	step := func(xu *xgbutil.XUtil, rootX, rootY, eventX, eventY int) {
		if err := grabber.PointerMotion(rootX, rootY); err != nil {
			log.Printf("Warning: Resize step failed: %v", err)
		}
	}
	end := func(xu *xgbutil.XUtil, rootX, rootY, eventX, eventY int) {
		if err := grabber.EndPointerGrab(rootX, rootY); err != nil {
			log.Printf("Warning: Failed to finish resize: %v", err)
		}
	}

	mousebind.Drag(h.xu, h.root, h.root, buttonSequence, true, begin, step, end)
	return nil
}
