package hotkeys

import (
	"fmt"
	"log"
	"sort"
	"sync"

	"github.com/1broseidon/snaptile/internal/config"
	"github.com/1broseidon/snaptile/internal/geom"
	"github.com/1broseidon/snaptile/internal/platform"
	"github.com/1broseidon/snaptile/internal/tiling"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/keybind"
	"github.com/BurntSushi/xgbutil/xevent"
)

// Tiler is the set of tiling operations bound to keys.
type Tiler interface {
	Tile(pos tiling.Position) error
	TileBestFit() (bool, error)
	Untile() error
	FocusNeighbor(dir geom.Direction) (platform.WindowID, bool, error)
}

// x11Accessor is an optional interface for backends that expose X11 internals.
type x11Accessor interface {
	XUtil() *xgbutil.XUtil
	RootWindow() xproto.Window
}

// Handler manages global keyboard shortcuts
type Handler struct {
	xu    *xgbutil.XUtil
	root  xproto.Window
	tiler Tiler
}

var ignoreModsOnce sync.Once

// NewHandler creates a new hotkey handler.
func NewHandler(backend platform.Backend, tiler Tiler) *Handler {
	var xu *xgbutil.XUtil
	var root xproto.Window
	if accessor, ok := backend.(x11Accessor); ok {
		xu = accessor.XUtil()
		root = accessor.RootWindow()
	}

	ignoreModsOnce.Do(func() {
		configureIgnoreMods(xu)
	})

	return &Handler{
		xu:    xu,
		root:  root,
		tiler: tiler,
	}
}

// RegisterConfig binds every hotkey in cfg and returns how many were bound.
// Bindings naming an unknown position or direction, and bindings the X
// server refuses, are logged and skipped.
func (h *Handler) RegisterConfig(cfg *config.Config) int {
	bound := 0

	for _, name := range sortedKeys(cfg.Hotkeys) {
		seq := cfg.Hotkeys[name]
		if seq == "" {
			continue
		}
		pos, err := tiling.ParsePosition(name)
		if err != nil {
			log.Printf("Warning: Skipping hotkey %q: %v", seq, err)
			continue
		}
		if err := h.RegisterPosition(pos, seq); err != nil {
			log.Printf("Warning: Failed to register %s hotkey %q: %v", pos, seq, err)
			continue
		}
		bound++
	}

	for _, name := range sortedKeys(cfg.FocusHotkeys) {
		seq := cfg.FocusHotkeys[name]
		if seq == "" {
			continue
		}
		dir, err := geom.ParseDirection(name)
		if err != nil {
			log.Printf("Warning: Skipping focus hotkey %q: %v", seq, err)
			continue
		}
		if err := h.RegisterFocus(dir, seq); err != nil {
			log.Printf("Warning: Failed to register focus %s hotkey %q: %v", dir, seq, err)
			continue
		}
		bound++
	}

	if cfg.UntileHotkey != "" {
		if err := h.RegisterUntile(cfg.UntileHotkey); err != nil {
			log.Printf("Warning: Failed to register untile hotkey %q: %v", cfg.UntileHotkey, err)
		} else {
			bound++
		}
	}
	if cfg.BestFitHotkey != "" {
		if err := h.RegisterBestFit(cfg.BestFitHotkey); err != nil {
			log.Printf("Warning: Failed to register best-fit hotkey %q: %v", cfg.BestFitHotkey, err)
		} else {
			bound++
		}
	}
	return bound
}

// RegisterPosition binds keySequence to tiling the active window at pos.
func (h *Handler) RegisterPosition(pos tiling.Position, keySequence string) error {
	return h.RegisterFunc(keySequence, func() {
		if err := h.tiler.Tile(pos); err != nil {
			log.Printf("Tiling to %s failed: %v", pos, err)
		}
	})
}

// RegisterFocus binds keySequence to focusing the neighbour in dir.
func (h *Handler) RegisterFocus(dir geom.Direction, keySequence string) error {
	return h.RegisterFunc(keySequence, func() {
		if _, ok, err := h.tiler.FocusNeighbor(dir); err != nil {
			log.Printf("Focus %s failed: %v", dir, err)
		} else if !ok {
			log.Printf("No window %s of the active window", dir)
		}
	})
}

// RegisterUntile binds keySequence to restoring the active window.
func (h *Handler) RegisterUntile(keySequence string) error {
	return h.RegisterFunc(keySequence, func() {
		if err := h.tiler.Untile(); err != nil {
			log.Printf("Untile failed: %v", err)
		}
	})
}

// RegisterBestFit binds keySequence to growing the active window into free space.
func (h *Handler) RegisterBestFit(keySequence string) error {
	return h.RegisterFunc(keySequence, func() {
		if _, err := h.tiler.TileBestFit(); err != nil {
			log.Printf("Best fit failed: %v", err)
		}
	})
}

// RegisterFunc registers an arbitrary hotkey callback.
func (h *Handler) RegisterFunc(keySequence string, callback func()) error {
	if h.xu == nil {
		return fmt.Errorf("hotkeys need an X11 backend")
	}
	return keybind.KeyPressFun(func(xu *xgbutil.XUtil, ev xevent.KeyPressEvent) {
		callback()
	}).Connect(h.xu, h.root, keySequence, true)
}

// Unregister removes every key binding on the root window, so a reloaded
// configuration can be bound from scratch.
func (h *Handler) Unregister() {
	if h.xu == nil {
		return
	}
	keybind.Detach(h.xu, h.root)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func configureIgnoreMods(xu *xgbutil.XUtil) {
	if xu == nil {
		return
	}
	// Always ignore CapsLock.
	caps := uint16(xproto.ModMaskLock)

	numLock := modMaskForKeysym(xu, "Num_Lock")
	scrollLock := modMaskForKeysym(xu, "Scroll_Lock")

	unique := make(map[uint16]struct{})
	add := func(mask uint16) {
		unique[mask] = struct{}{}
	}

	add(0)
	base := []uint16{caps}
	if numLock != 0 && numLock != caps {
		base = append(base, numLock)
	}
	if scrollLock != 0 && scrollLock != caps && scrollLock != numLock {
		base = append(base, scrollLock)
	}

	for subset := 1; subset < (1 << len(base)); subset++ {
		var mask uint16
		for bit := range base {
			if subset&(1<<bit) != 0 {
				mask |= base[bit]
			}
		}
		add(mask)
	}

	ignore := make([]uint16, 0, len(unique))
	for mask := range unique {
		ignore = append(ignore, mask)
	}

	xevent.IgnoreMods = ignore
}

func modMaskForKeysym(xu *xgbutil.XUtil, keysym string) uint16 {
	for _, keycode := range keybind.StrToKeycodes(xu, keysym) {
		if mask := keybind.ModGet(xu, keycode); mask != 0 {
			return mask
		}
	}
	return 0
}
