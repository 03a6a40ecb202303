package mcp

import (
	"github.com/1broseidon/snaptile/internal/geom"
	"github.com/1broseidon/snaptile/internal/tiling"
)

// TileWindowInput is the input for the tile_window tool.
type TileWindowInput struct {
	Position string `json:"position" jsonschema:"Tile position: maximize, left, right, top, bottom, top-left, top-right, bottom-left or bottom-right"`
}

// TileWindowOutput is the output for the tile_window tool.
type TileWindowOutput struct {
	Position string `json:"position"`
}

// EmptyInput is the input of tools that take no arguments.
type EmptyInput struct{}

// UntileWindowOutput is the output for the untile_window tool.
type UntileWindowOutput struct {
	Untiled bool `json:"untiled"`
}

// BestFitOutput is the output for the best_fit_window tool.
type BestFitOutput struct {
	Moved bool `json:"moved"`
}

// FocusNeighborInput is the input for the focus_neighbor tool.
type FocusNeighborInput struct {
	Direction string `json:"direction" jsonschema:"Direction to look in: up, down, left or right"`
}

// FocusNeighborOutput is the output for the focus_neighbor tool.
type FocusNeighborOutput struct {
	WindowID uint32 `json:"window_id"`
	Found    bool   `json:"found"`
}

// ApplyLayoutInput is the input for the apply_layout tool.
type ApplyLayoutInput struct {
	LayoutName string `json:"layout_name" jsonschema:"Name of a configured layout (see list_layouts)"`
}

// ApplyLayoutOutput is the output for the apply_layout tool.
type ApplyLayoutOutput struct {
	Layout string `json:"layout"`
	Tiled  int    `json:"tiled"`
}

// LayoutInfo describes one configured layout.
type LayoutInfo struct {
	Name        string `json:"name"`
	Mode        string `json:"mode"`
	Description string `json:"description,omitempty"`
}

// ListLayoutsOutput is the output for the list_layouts tool.
type ListLayoutsOutput struct {
	Layouts        []LayoutInfo `json:"layouts"`
	FavoriteLayout string       `json:"favorite_layout,omitempty"`
}

// TileGroupOutput is the output for the get_tile_group tool.
type TileGroupOutput struct {
	Windows []tiling.TiledWindow `json:"windows"`
}

// FreeSpaceOutput is the output for the get_free_space and plan_free_space
// tools. Free is set only when the regions form one block large enough to
// hold a window.
type FreeSpaceOutput struct {
	WorkArea geom.Rect   `json:"work_area"`
	Occupied []geom.Rect `json:"occupied"`
	Regions  []geom.Rect `json:"regions"`
	Free     *geom.Rect  `json:"free,omitempty"`
}

// PlanFreeSpaceInput is the input for the plan_free_space tool.
type PlanFreeSpaceInput struct {
	WorkArea     geom.Rect   `json:"work_area" jsonschema:"Usable screen area in pixels"`
	Occupied     []geom.Rect `json:"occupied,omitempty" jsonschema:"Rectangles of the windows already tiled, topmost first"`
	SliverMargin int         `json:"sliver_margin,omitempty" jsonschema:"Strips thinner than this many pixels are ignored (default: from config)"`
	MinFreeSpace int         `json:"min_free_space,omitempty" jsonschema:"Smallest usable width and height of the free block (default: from config)"`
}
