package ipc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"sync"
	"time"

	"github.com/1broseidon/snaptile/internal/config"
	"github.com/1broseidon/snaptile/internal/geom"
	"github.com/1broseidon/snaptile/internal/platform"
	"github.com/1broseidon/snaptile/internal/runtimepath"
	"github.com/1broseidon/snaptile/internal/tiling"
)

// Tiler is the set of tiling operations exposed over IPC.
type Tiler interface {
	Tile(pos tiling.Position) error
	TileBestFit() (bool, error)
	Untile() error
	FocusNeighbor(dir geom.Direction) (platform.WindowID, bool, error)
	ApplyLayout(name string) (int, error)
	Group() ([]tiling.TiledWindow, error)
	FreeSpace() (tiling.FreeSpaceReport, error)
	Status() tiling.Status
}

// Server handles IPC requests from clients
type Server struct {
	socketPath   string
	listener     net.Listener
	cfg          *config.Config
	cfgMu        sync.RWMutex
	loadConfig   func() (*config.Config, error)
	tiler        Tiler
	backend      platform.Backend
	startTime    time.Time
	reloadChan   chan struct{}
	shuttingDown bool
	shutdownMu   sync.Mutex
}

// NewServer creates a new IPC server on the standard socket path.
func NewServer(cfg *config.Config, tiler Tiler, backend platform.Backend, reloadChan chan struct{}) (*Server, error) {
	socketPath, err := runtimepath.SocketPath()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve IPC socket path: %w", err)
	}
	return NewServerAt(socketPath, cfg, tiler, backend, reloadChan), nil
}

// NewServerAt creates a new IPC server listening on socketPath.
func NewServerAt(socketPath string, cfg *config.Config, tiler Tiler, backend platform.Backend, reloadChan chan struct{}) *Server {
	// Remove existing socket if present
	os.Remove(socketPath)

	return &Server{
		socketPath: socketPath,
		cfg:        cfg,
		loadConfig: config.Load,
		tiler:      tiler,
		backend:    backend,
		startTime:  time.Now(),
		reloadChan: reloadChan,
	}
}

// SetConfigLoader replaces the function RELOAD uses to read the config.
func (s *Server) SetConfigLoader(load func() (*config.Config, error)) {
	s.cfgMu.Lock()
	defer s.cfgMu.Unlock()
	s.loadConfig = load
}

// Start begins listening for IPC connections
func (s *Server) Start() error {
	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to create IPC socket: %w", err)
	}
	s.listener = listener

	// Set socket permissions
	if err := os.Chmod(s.socketPath, 0600); err != nil {
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	log.Printf("IPC server listening on %s", s.socketPath)

	// Accept connections
	go s.acceptLoop()

	return nil
}

// acceptLoop accepts incoming connections
func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			s.shutdownMu.Lock()
			if s.shuttingDown {
				s.shutdownMu.Unlock()
				return
			}
			s.shutdownMu.Unlock()
			log.Printf("IPC accept error: %v", err)
			continue
		}

		go s.handleConnection(conn)
	}
}

// handleConnection handles a single IPC connection
func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()

	reader := bufio.NewReader(conn)

	// Read the request (expect JSON on a single line)
	data, err := reader.ReadBytes('\n')
	if err != nil && err != io.EOF {
		log.Printf("IPC read error: %v", err)
		return
	}

	req, err := ParseRequest(data)
	if err != nil {
		s.sendError(conn, fmt.Sprintf("Invalid request: %v", err))
		return
	}

	resp := s.handleCommand(req)

	respData, err := resp.Marshal()
	if err != nil {
		log.Printf("Failed to marshal response: %v", err)
		return
	}

	respData = append(respData, '\n')
	if _, err := conn.Write(respData); err != nil {
		log.Printf("Failed to send response: %v", err)
	}
}

// handleCommand processes an IPC command and returns a response
func (s *Server) handleCommand(req *Request) *Response {
	switch req.Command {
	case CommandReload:
		return s.handleReload()
	case CommandGetStatus:
		return s.handleGetStatus()
	case CommandGetMonitors:
		return s.handleGetMonitors()
	case CommandTile:
		return s.handleTile(req.Payload)
	case CommandBestFit:
		return s.handleBestFit()
	case CommandUntile:
		return s.handleUntile()
	case CommandFocus:
		return s.handleFocus(req.Payload)
	case CommandApplyLayout:
		return s.handleApplyLayout(req.Payload)
	case CommandGetGroup:
		return s.handleGetGroup()
	case CommandGetFreeSpace:
		return s.handleGetFreeSpace()
	case CommandListLayouts:
		return s.handleListLayouts()
	default:
		return NewErrorResponse(fmt.Sprintf("Unknown command: %s", req.Command))
	}
}

// handleReload reloads the configuration
func (s *Server) handleReload() *Response {
	log.Println("IPC: Received RELOAD command")

	s.cfgMu.RLock()
	load := s.loadConfig
	s.cfgMu.RUnlock()

	newCfg, err := load()
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to reload config: %v", err))
	}

	s.cfgMu.Lock()
	s.cfg = newCfg
	s.cfgMu.Unlock()

	// Notify the main daemon via channel (non-blocking)
	select {
	case s.reloadChan <- struct{}{}:
	default:
	}

	log.Println("IPC: Config reloaded successfully")

	return okResponse(nil)
}

// handleGetStatus returns current daemon status
func (s *Server) handleGetStatus() *Response {
	return okResponse(StatusData{
		Status:        s.tiler.Status(),
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		DaemonRunning: true,
	})
}

// handleGetMonitors returns information about all monitors
func (s *Server) handleGetMonitors() *Response {
	displays, err := s.backend.Displays()
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to get monitors: %v", err))
	}

	monitorInfos := make([]MonitorInfo, len(displays))
	for i, d := range displays {
		monitorInfos[i] = MonitorInfo{
			ID:     d.ID,
			Name:   d.Name,
			Bounds: d.Bounds,
			Usable: d.Usable,
		}
	}

	return okResponse(MonitorsData{Monitors: monitorInfos})
}

func (s *Server) handleTile(payload json.RawMessage) *Response {
	var req TilePayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid tile payload: %v", err))
	}
	pos, err := tiling.ParsePosition(req.Position)
	if err != nil {
		return NewErrorResponse(err.Error())
	}

	log.Printf("IPC: Tile active window to %s", pos)
	if err := s.tiler.Tile(pos); err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to tile: %v", err))
	}
	return okResponse(nil)
}

func (s *Server) handleBestFit() *Response {
	moved, err := s.tiler.TileBestFit()
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to fit window: %v", err))
	}
	return okResponse(BestFitData{Moved: moved})
}

func (s *Server) handleUntile() *Response {
	if err := s.tiler.Untile(); err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to untile: %v", err))
	}
	return okResponse(nil)
}

func (s *Server) handleFocus(payload json.RawMessage) *Response {
	var req FocusPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid focus payload: %v", err))
	}
	dir, err := geom.ParseDirection(req.Direction)
	if err != nil {
		return NewErrorResponse(err.Error())
	}

	id, found, err := s.tiler.FocusNeighbor(dir)
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to focus: %v", err))
	}
	return okResponse(FocusData{WindowID: id, Found: found})
}

func (s *Server) handleApplyLayout(payload json.RawMessage) *Response {
	var req ApplyLayoutPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid apply payload: %v", err))
	}
	if req.LayoutName == "" {
		return NewErrorResponse("layout_name is required")
	}

	n, err := s.tiler.ApplyLayout(req.LayoutName)
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to apply layout: %v", err))
	}
	return okResponse(ApplyLayoutData{Tiled: n})
}

func (s *Server) handleGetGroup() *Response {
	group, err := s.tiler.Group()
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to get tile group: %v", err))
	}
	if group == nil {
		group = []tiling.TiledWindow{}
	}
	return okResponse(GroupData{Windows: group})
}

func (s *Server) handleGetFreeSpace() *Response {
	report, err := s.tiler.FreeSpace()
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to get free space: %v", err))
	}
	return okResponse(report)
}

func (s *Server) handleListLayouts() *Response {
	s.cfgMu.RLock()
	defer s.cfgMu.RUnlock()

	data := LayoutsData{
		Layouts:        make([]LayoutInfo, 0, len(s.cfg.Layouts)),
		FavoriteLayout: s.cfg.FavoriteLayout,
	}
	for _, name := range s.cfg.LayoutNames() {
		layout := s.cfg.Layouts[name]
		data.Layouts = append(data.Layouts, LayoutInfo{
			Name:        name,
			Mode:        string(layout.Mode),
			Description: layout.Description,
		})
	}
	return okResponse(data)
}

func okResponse(data interface{}) *Response {
	resp, err := NewOKResponse(data)
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	return resp
}

// sendError sends an error response
func (s *Server) sendError(conn net.Conn, errMsg string) {
	resp := NewErrorResponse(errMsg)
	data, _ := resp.Marshal()
	data = append(data, '\n')
	conn.Write(data)
}

// Stop gracefully shuts down the IPC server
func (s *Server) Stop() {
	s.shutdownMu.Lock()
	s.shuttingDown = true
	s.shutdownMu.Unlock()

	if s.listener != nil {
		s.listener.Close()
	}
	os.Remove(s.socketPath)
}

// GetConfig returns the current config (thread-safe)
func (s *Server) GetConfig() *config.Config {
	s.cfgMu.RLock()
	defer s.cfgMu.RUnlock()
	return s.cfg
}

// UpdateConfig updates the config (thread-safe)
func (s *Server) UpdateConfig(cfg *config.Config) {
	s.cfgMu.Lock()
	defer s.cfgMu.Unlock()
	s.cfg = cfg
}
