package mcp

import (
	"context"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/snaptile/internal/geom"
	"github.com/1broseidon/snaptile/internal/ipc"
	"github.com/1broseidon/snaptile/internal/tiling"
)

func (s *Server) handleTileWindow(_ context.Context, _ *mcpsdk.CallToolRequest, args TileWindowInput) (*mcpsdk.CallToolResult, TileWindowOutput, error) {
	pos, err := tiling.ParsePosition(args.Position)
	if err != nil {
		return nil, TileWindowOutput{}, err
	}
	if err := s.daemon.Tile(pos); err != nil {
		return nil, TileWindowOutput{}, fmt.Errorf("tile_window: %w", err)
	}
	return nil, TileWindowOutput{Position: pos.String()}, nil
}

func (s *Server) handleUntileWindow(_ context.Context, _ *mcpsdk.CallToolRequest, _ EmptyInput) (*mcpsdk.CallToolResult, UntileWindowOutput, error) {
	if err := s.daemon.Untile(); err != nil {
		return nil, UntileWindowOutput{}, fmt.Errorf("untile_window: %w", err)
	}
	return nil, UntileWindowOutput{Untiled: true}, nil
}

func (s *Server) handleBestFit(_ context.Context, _ *mcpsdk.CallToolRequest, _ EmptyInput) (*mcpsdk.CallToolResult, BestFitOutput, error) {
	moved, err := s.daemon.BestFit()
	if err != nil {
		return nil, BestFitOutput{}, fmt.Errorf("best_fit_window: %w", err)
	}
	return nil, BestFitOutput{Moved: moved}, nil
}

func (s *Server) handleFocusNeighbor(_ context.Context, _ *mcpsdk.CallToolRequest, args FocusNeighborInput) (*mcpsdk.CallToolResult, FocusNeighborOutput, error) {
	dir, err := geom.ParseDirection(args.Direction)
	if err != nil {
		return nil, FocusNeighborOutput{}, err
	}
	data, err := s.daemon.Focus(dir)
	if err != nil {
		return nil, FocusNeighborOutput{}, fmt.Errorf("focus_neighbor: %w", err)
	}
	return nil, FocusNeighborOutput{WindowID: uint32(data.WindowID), Found: data.Found}, nil
}

func (s *Server) handleApplyLayout(_ context.Context, _ *mcpsdk.CallToolRequest, args ApplyLayoutInput) (*mcpsdk.CallToolResult, ApplyLayoutOutput, error) {
	if args.LayoutName == "" {
		return nil, ApplyLayoutOutput{}, fmt.Errorf("layout_name is required")
	}
	n, err := s.daemon.ApplyLayout(args.LayoutName)
	if err != nil {
		return nil, ApplyLayoutOutput{}, fmt.Errorf("apply_layout: %w", err)
	}
	return nil, ApplyLayoutOutput{Layout: args.LayoutName, Tiled: n}, nil
}

func (s *Server) handleListLayouts(_ context.Context, _ *mcpsdk.CallToolRequest, _ EmptyInput) (*mcpsdk.CallToolResult, ListLayoutsOutput, error) {
	data, err := s.daemon.ListLayouts()
	if err != nil {
		// Fall back to the local config so agents can still plan layouts
		// without a running daemon.
		return nil, s.localLayouts(), nil
	}

	out := ListLayoutsOutput{
		Layouts:        make([]LayoutInfo, 0, len(data.Layouts)),
		FavoriteLayout: data.FavoriteLayout,
	}
	for _, l := range data.Layouts {
		out.Layouts = append(out.Layouts, LayoutInfo{Name: l.Name, Mode: l.Mode, Description: l.Description})
	}
	return nil, out, nil
}

func (s *Server) localLayouts() ListLayoutsOutput {
	out := ListLayoutsOutput{
		Layouts:        []LayoutInfo{},
		FavoriteLayout: s.config.FavoriteLayout,
	}
	for _, name := range s.config.LayoutNames() {
		l := s.config.Layouts[name]
		out.Layouts = append(out.Layouts, LayoutInfo{Name: name, Mode: string(l.Mode), Description: l.Description})
	}
	return out
}

func (s *Server) handleGetTileGroup(_ context.Context, _ *mcpsdk.CallToolRequest, _ EmptyInput) (*mcpsdk.CallToolResult, TileGroupOutput, error) {
	data, err := s.daemon.GetGroup()
	if err != nil {
		return nil, TileGroupOutput{}, fmt.Errorf("get_tile_group: %w", err)
	}
	out := TileGroupOutput{Windows: data.Windows}
	if out.Windows == nil {
		out.Windows = []tiling.TiledWindow{}
	}
	return nil, out, nil
}

func (s *Server) handleGetFreeSpace(_ context.Context, _ *mcpsdk.CallToolRequest, _ EmptyInput) (*mcpsdk.CallToolResult, FreeSpaceOutput, error) {
	report, err := s.daemon.GetFreeSpace()
	if err != nil {
		return nil, FreeSpaceOutput{}, fmt.Errorf("get_free_space: %w", err)
	}
	return nil, freeSpaceOutput(report), nil
}

func (s *Server) handlePlanFreeSpace(_ context.Context, _ *mcpsdk.CallToolRequest, args PlanFreeSpaceInput) (*mcpsdk.CallToolResult, FreeSpaceOutput, error) {
	if !args.WorkArea.Valid() {
		return nil, FreeSpaceOutput{}, fmt.Errorf("work_area %s is empty", args.WorkArea)
	}
	for i, r := range args.Occupied {
		if !r.Valid() {
			return nil, FreeSpaceOutput{}, fmt.Errorf("occupied[%d] %s is empty", i, r)
		}
	}

	opts := tiling.SettingsFromConfig(s.config).FreeSpaceOptions()
	if args.SliverMargin > 0 {
		opts.SliverMargin = args.SliverMargin
	}
	if args.MinFreeSpace > 0 {
		opts.MinSize = args.MinFreeSpace
	}

	report := tiling.PlanFreeSpace(args.WorkArea, args.Occupied, opts)
	return nil, freeSpaceOutput(&report), nil
}

// freeSpaceOutput converts a report, replacing nil slices so the output
// always carries arrays.
func freeSpaceOutput(report *ipc.FreeSpaceData) FreeSpaceOutput {
	out := FreeSpaceOutput{
		WorkArea: report.WorkArea,
		Occupied: report.Occupied,
		Regions:  report.Regions,
		Free:     report.Free,
	}
	if out.Occupied == nil {
		out.Occupied = []geom.Rect{}
	}
	if out.Regions == nil {
		out.Regions = []geom.Rect{}
	}
	return out
}
