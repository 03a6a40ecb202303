package config

// BuiltinLayouts returns the built-in layout library.
//
// These are always available to users without needing to define them in YAML.
// Users can define additional custom layouts in their config file.
func BuiltinLayouts() map[string]Layout {
	return map[string]Layout{
		"halves": {
			Mode:        LayoutModeRatio,
			Description: "Two columns",
			Rects: []LayoutRect{
				{X: 0, Y: 0, Width: 0.5, Height: 1},
				{X: 0.5, Y: 0, Width: 0.5, Height: 1},
			},
		},
		"thirds": {
			Mode:        LayoutModeRatio,
			Description: "Three columns",
			Rects: []LayoutRect{
				{X: 0, Y: 0, Width: 1.0 / 3, Height: 1},
				{X: 1.0 / 3, Y: 0, Width: 1.0 / 3, Height: 1},
				{X: 2.0 / 3, Y: 0, Width: 1.0 / 3, Height: 1},
			},
		},
		"quarters": {
			Mode:        LayoutModeRatio,
			Description: "Four corners",
			Rects: []LayoutRect{
				{X: 0, Y: 0, Width: 0.5, Height: 0.5},
				{X: 0.5, Y: 0, Width: 0.5, Height: 0.5},
				{X: 0, Y: 0.5, Width: 0.5, Height: 0.5},
				{X: 0.5, Y: 0.5, Width: 0.5, Height: 0.5},
			},
		},
		"main-stack": {
			Mode:        LayoutModeRatio,
			Description: "Wide main pane left, two stacked panes right",
			Rects: []LayoutRect{
				{X: 0, Y: 0, Width: 0.6, Height: 1},
				{X: 0.6, Y: 0, Width: 0.4, Height: 0.5},
				{X: 0.6, Y: 0.5, Width: 0.4, Height: 0.5},
			},
		},
		"grid": {
			Mode:        LayoutModeGrid,
			Description: "Near-square grid sized to the window count",
		},
	}
}
