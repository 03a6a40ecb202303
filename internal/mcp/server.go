package mcp

import (
	"context"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/snaptile/internal/config"
	"github.com/1broseidon/snaptile/internal/geom"
	"github.com/1broseidon/snaptile/internal/ipc"
	"github.com/1broseidon/snaptile/internal/tiling"
)

const (
	ServerName    = "snaptile"
	ServerVersion = "0.1.0"
)

// Daemon is the part of the IPC client the live tools use.
type Daemon interface {
	Tile(pos tiling.Position) error
	BestFit() (bool, error)
	Untile() error
	Focus(dir geom.Direction) (*ipc.FocusData, error)
	ApplyLayout(layoutName string) (int, error)
	ListLayouts() (*ipc.LayoutsData, error)
	GetGroup() (*ipc.GroupData, error)
	GetFreeSpace() (*ipc.FreeSpaceData, error)
}

// Server is the MCP server exposing the tiler to agents. Live tools talk to
// the running daemon; plan_free_space runs the solver locally.
type Server struct {
	mcpServer *mcpsdk.Server
	config    *config.Config
	daemon    Daemon
}

// NewServer creates an MCP server backed by the daemon's IPC socket.
func NewServer(cfg *config.Config) *Server {
	return NewServerWithDaemon(cfg, ipc.NewClient())
}

// NewServerWithDaemon creates an MCP server that sends live commands to d.
func NewServerWithDaemon(cfg *config.Config, d Daemon) *Server {
	s := &Server{
		config: cfg,
		daemon: d,
	}

	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    ServerName,
			Version: ServerVersion,
		},
		nil,
	)

	s.registerTools()
	return s
}

// Run starts the MCP server on stdio transport, blocking until done.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "tile_window",
		Description: "Snap the active window to a half, quarter or the whole of its display. The tile shares edges with the windows already tiled on top, so they form one group that is raised and resized together.",
	}, s.handleTileWindow)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "untile_window",
		Description: "Restore the active window to the size and position it had before it was tiled and remove it from its tile group.",
	}, s.handleUntileWindow)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "best_fit_window",
		Description: "Grow the active window into the free space next to it. Reports moved=false when there is no single free block to grow into.",
	}, s.handleBestFit)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "focus_neighbor",
		Description: "Activate the nearest tiled window in a direction from the active window.",
	}, s.handleFocusNeighbor)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "apply_layout",
		Description: "Tile the topmost windows of the active display into a configured layout. Returns how many windows were placed.",
	}, s.handleApplyLayout)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_layouts",
		Description: "List the configured layouts and the favorite layout used to place the first tile.",
	}, s.handleListLayouts)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "get_tile_group",
		Description: "Return the tile group on top of the active display, topmost window first, with each window's tiled rect and frame.",
	}, s.handleGetTileGroup)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "get_free_space",
		Description: "Return the regions of the active display not covered by the top tile group, and the single free block when there is one.",
	}, s.handleGetFreeSpace)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "plan_free_space",
		Description: "Compute free regions for a hypothetical screen: given a work area and the rects of tiled windows, return what is left. Does not need a running daemon.",
	}, s.handlePlanFreeSpace)
}
