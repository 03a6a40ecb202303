package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/1broseidon/snaptile/internal/geom"
	"gopkg.in/yaml.v3"
)

// ErrUnknownLayout is returned when a layout name is not configured.
var ErrUnknownLayout = errors.New("layout not found")

// Margins represents padding applied to each side of the work area.
type Margins struct {
	Top    int `yaml:"top"`
	Bottom int `yaml:"bottom"`
	Left   int `yaml:"left"`
	Right  int `yaml:"right"`
}

// LayoutMode defines how a layout produces its rectangles.
type LayoutMode string

const (
	LayoutModeRatio LayoutMode = "ratio" // Fixed list of work-area fractions.
	LayoutModeGrid  LayoutMode = "grid"  // Near-square grid sized to the window count.
)

// LayoutRect is a rectangle expressed as fractions (0..1) of the work area.
type LayoutRect struct {
	X      float64 `yaml:"x" json:"x"`
	Y      float64 `yaml:"y" json:"y"`
	Width  float64 `yaml:"width" json:"width"`
	Height float64 `yaml:"height" json:"height"`
}

// Layout is a named arrangement of tiles.
type Layout struct {
	Mode        LayoutMode   `yaml:"mode"`
	Description string       `yaml:"description,omitempty"`
	Rects       []LayoutRect `yaml:"rects,omitempty"`
}

// Config holds the application configuration.
type Config struct {
	Include    IncludeList `yaml:"include,omitempty"`
	Display    string      `yaml:"display,omitempty"`
	XAuthority string      `yaml:"xauthority,omitempty"`

	GapSize       int     `yaml:"gap_size"`
	ScreenGap     int     `yaml:"screen_gap"`
	ScreenPadding Margins `yaml:"screen_padding"`
	SliverMargin  int     `yaml:"sliver_margin"`
	EdgeMargin    int     `yaml:"edge_margin"`
	MinFreeSpace  int     `yaml:"min_free_space"`

	Hotkeys       map[string]string `yaml:"hotkeys"`       // position -> key sequence
	FocusHotkeys  map[string]string `yaml:"focus_hotkeys"` // direction -> key sequence
	UntileHotkey  string            `yaml:"untile_hotkey"`
	BestFitHotkey string            `yaml:"best_fit_hotkey"`
	ResizeButton  string            `yaml:"resize_button"` // e.g. "Mod4-3"; empty disables
	WrapFocus     bool              `yaml:"wrap_focus"`

	FavoriteLayout string            `yaml:"favorite_layout,omitempty"`
	Layouts        map[string]Layout `yaml:"layouts"`

	LogLevel          string `yaml:"log_level"`
	ReconcileInterval int    `yaml:"reconcile_interval"` // seconds; 0 disables
}

func DefaultConfig() *Config {
	return &Config{
		GapSize:   8,
		ScreenGap: 8,
		ScreenPadding: Margins{
			Top:    0,
			Bottom: 0,
			Left:   0,
			Right:  0,
		},
		SliverMargin: geom.DefaultSliverMargin,
		EdgeMargin:   2,
		MinFreeSpace: 250,
		Hotkeys: map[string]string{
			"maximize":     "Mod4-Mod1-Return",
			"left":         "Mod4-Mod1-Left",
			"right":        "Mod4-Mod1-Right",
			"top":          "Mod4-Mod1-Up",
			"bottom":       "Mod4-Mod1-Down",
			"top-left":     "Mod4-Mod1-KP_Home",
			"top-right":    "Mod4-Mod1-KP_Prior",
			"bottom-left":  "Mod4-Mod1-KP_End",
			"bottom-right": "Mod4-Mod1-KP_Next",
		},
		FocusHotkeys: map[string]string{
			"up":    "Mod4-Control-Up",
			"down":  "Mod4-Control-Down",
			"left":  "Mod4-Control-Left",
			"right": "Mod4-Control-Right",
		},
		UntileHotkey:      "Mod4-Mod1-BackSpace",
		BestFitHotkey:     "Mod4-Mod1-f",
		ResizeButton:      "Mod4-3",
		WrapFocus:         true,
		Layouts:           BuiltinLayouts(),
		LogLevel:          "info",
		ReconcileInterval: 10,
	}
}

// Save writes the configuration to the standard location.
//
// Note: this marshals the effective config and will not preserve comments or
// include structure from the original YAML.
func (c *Config) Save() error {
	path, err := DefaultConfigPath()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

// SaveTo writes the configuration to path.
func (c *Config) SaveTo(path string) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	save := *c
	save.Include = nil
	save.Layouts = layoutsForSave(c.Layouts)

	data, err := yaml.Marshal(&save)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func layoutsForSave(layouts map[string]Layout) map[string]Layout {
	builtin := BuiltinLayouts()
	out := make(map[string]Layout)
	for name, layout := range layouts {
		if base, ok := builtin[name]; ok && layoutsEqual(base, layout) {
			continue
		}
		out[name] = layout
	}
	return out
}

func layoutsEqual(a, b Layout) bool {
	if a.Mode != b.Mode || a.Description != b.Description || len(a.Rects) != len(b.Rects) {
		return false
	}
	for i := range a.Rects {
		if a.Rects[i] != b.Rects[i] {
			return false
		}
	}
	return true
}

// GetLayout retrieves a layout by name with validation.
func (c *Config) GetLayout(name string) (*Layout, error) {
	layout, ok := c.Layouts[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownLayout, name)
	}

	if err := validateLayout(&layout); err != nil {
		return nil, fmt.Errorf("invalid layout %q: %w", name, err)
	}

	return &layout, nil
}

// LayoutNames returns the configured layout names in sorted order.
func (c *Config) LayoutNames() []string {
	names := make([]string, 0, len(c.Layouts))
	for name := range c.Layouts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// WorkArea applies screen_padding to usable. It fails when nothing is left.
func (c *Config) WorkArea(usable geom.Rect) (geom.Rect, error) {
	p := c.ScreenPadding
	area := usable.Inset(p.Left, p.Top, p.Right, p.Bottom)
	if !area.Valid() {
		return geom.Rect{}, fmt.Errorf("screen_padding leaves no usable space: %v", area)
	}
	return area, nil
}

// Validate performs strict validation of the effective configuration.
func (c *Config) Validate() error {
	if c.GapSize < 0 {
		return &ValidationError{Path: "gap_size", Err: fmt.Errorf("gap_size must be >= 0")}
	}
	if c.ScreenGap < 0 {
		return &ValidationError{Path: "screen_gap", Err: fmt.Errorf("screen_gap must be >= 0")}
	}
	if c.ScreenPadding.Top < 0 || c.ScreenPadding.Bottom < 0 || c.ScreenPadding.Left < 0 || c.ScreenPadding.Right < 0 {
		return &ValidationError{Path: "screen_padding", Err: fmt.Errorf("screen_padding values must be >= 0")}
	}
	if c.SliverMargin < 0 {
		return &ValidationError{Path: "sliver_margin", Err: fmt.Errorf("sliver_margin must be >= 0")}
	}
	if c.EdgeMargin < 0 {
		return &ValidationError{Path: "edge_margin", Err: fmt.Errorf("edge_margin must be >= 0")}
	}
	if c.MinFreeSpace <= 0 {
		return &ValidationError{Path: "min_free_space", Err: fmt.Errorf("min_free_space must be > 0")}
	}
	// An empty key sequence disables a binding.
	for pos := range c.Hotkeys {
		if strings.TrimSpace(pos) == "" {
			return &ValidationError{Path: "hotkeys", Err: fmt.Errorf("hotkeys contains an empty position name")}
		}
	}
	for dir := range c.FocusHotkeys {
		if _, err := geom.ParseDirection(dir); err != nil {
			return &ValidationError{Path: "focus_hotkeys." + dir, Err: err}
		}
	}
	if c.LogLevel != "debug" && c.LogLevel != "info" && c.LogLevel != "warning" && c.LogLevel != "error" {
		return &ValidationError{Path: "log_level", Err: fmt.Errorf("log_level must be one of: debug, info, warning, error")}
	}
	if c.ReconcileInterval < 0 {
		return &ValidationError{Path: "reconcile_interval", Err: fmt.Errorf("reconcile_interval must be >= 0")}
	}

	if len(c.Layouts) == 0 {
		return &ValidationError{Path: "layouts", Err: fmt.Errorf("layouts must not be empty")}
	}
	for name, layout := range c.Layouts {
		layout := layout
		if err := validateLayout(&layout); err != nil {
			return &ValidationError{Path: "layouts." + name, Err: err}
		}
	}
	if c.FavoriteLayout != "" {
		layout, ok := c.Layouts[c.FavoriteLayout]
		if !ok {
			return &ValidationError{Path: "favorite_layout", Err: fmt.Errorf("favorite_layout %q not found in layouts", c.FavoriteLayout)}
		}
		if layout.Mode != LayoutModeRatio {
			return &ValidationError{Path: "favorite_layout", Err: fmt.Errorf("favorite_layout must use mode %q", LayoutModeRatio)}
		}
	}

	return nil
}

// layoutCanvas is the virtual work area ratio layouts are checked against.
var layoutCanvas = geom.Rect{Width: 10000, Height: 10000}

// validateLayout checks if a layout configuration is valid.
func validateLayout(layout *Layout) error {
	switch layout.Mode {
	case LayoutModeGrid:
		if len(layout.Rects) > 0 {
			return fmt.Errorf("grid mode does not take rects")
		}
		return nil
	case LayoutModeRatio:
	default:
		return fmt.Errorf("invalid mode %q", layout.Mode)
	}

	if len(layout.Rects) == 0 {
		return fmt.Errorf("ratio mode requires at least one rect")
	}

	const eps = 1e-6
	scaled := make([]geom.Rect, 0, len(layout.Rects))
	for i, r := range layout.Rects {
		if r.X < 0 || r.Y < 0 || r.Width <= 0 || r.Height <= 0 {
			return fmt.Errorf("rects[%d]: x and y must be >= 0, width and height > 0", i)
		}
		if r.X+r.Width > 1+eps || r.Y+r.Height > 1+eps {
			return fmt.Errorf("rects[%d]: must lie within the work area (x+width and y+height <= 1)", i)
		}
		s := layoutCanvas.Scale(r.X, r.Y, r.Width, r.Height)
		if !s.Valid() {
			return fmt.Errorf("rects[%d]: too small", i)
		}
		for j, prev := range scaled {
			if s.Overlaps(prev) {
				return fmt.Errorf("rects[%d] overlaps rects[%d]", i, j)
			}
		}
		scaled = append(scaled, s)
	}
	return nil
}
