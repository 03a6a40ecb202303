package ipc

import (
	"encoding/json"
	"fmt"

	"github.com/1broseidon/snaptile/internal/geom"
	"github.com/1broseidon/snaptile/internal/platform"
	"github.com/1broseidon/snaptile/internal/tiling"
)

// CommandType represents different IPC command types
type CommandType string

const (
	CommandReload       CommandType = "RELOAD"
	CommandGetStatus    CommandType = "GET_STATUS"
	CommandGetMonitors  CommandType = "GET_MONITORS"
	CommandTile         CommandType = "TILE"
	CommandBestFit      CommandType = "BEST_FIT"
	CommandUntile       CommandType = "UNTILE"
	CommandFocus        CommandType = "FOCUS"
	CommandApplyLayout  CommandType = "APPLY_LAYOUT"
	CommandGetGroup     CommandType = "GET_GROUP"
	CommandGetFreeSpace CommandType = "GET_FREE_SPACE"
	CommandListLayouts  CommandType = "LIST_LAYOUTS"
)

const (
	StatusOK    = "OK"
	StatusError = "ERROR"
)

// Request represents an IPC request from client to server
type Request struct {
	Command CommandType     `json:"command"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response represents an IPC response from server to client
type Response struct {
	Status string          `json:"status"` // "OK" or "ERROR"
	Data   json.RawMessage `json:"data,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// StatusData represents the data returned by GET_STATUS
type StatusData struct {
	tiling.Status
	UptimeSeconds int64 `json:"uptime_seconds"`
	DaemonRunning bool  `json:"daemon_running"`
}

// MonitorInfo represents information about a single monitor
type MonitorInfo struct {
	ID     int       `json:"id"`
	Name   string    `json:"name"`
	Bounds geom.Rect `json:"bounds"`
	Usable geom.Rect `json:"usable"`
}

// MonitorsData represents the data returned by GET_MONITORS
type MonitorsData struct {
	Monitors []MonitorInfo `json:"monitors"`
}

// TilePayload is the payload of TILE.
type TilePayload struct {
	Position string `json:"position"`
}

// BestFitData is returned by BEST_FIT. Moved is false when there was no free
// space next to the window.
type BestFitData struct {
	Moved bool `json:"moved"`
}

// FocusPayload is the payload of FOCUS.
type FocusPayload struct {
	Direction string `json:"direction"`
}

// FocusData is returned by FOCUS.
type FocusData struct {
	WindowID platform.WindowID `json:"window_id,omitempty"`
	Found    bool              `json:"found"`
}

type ApplyLayoutPayload struct {
	LayoutName string `json:"layout_name"`
}

type ApplyLayoutData struct {
	Tiled int `json:"tiled"`
}

// GroupData is returned by GET_GROUP, topmost window first.
type GroupData struct {
	Windows []tiling.TiledWindow `json:"windows"`
}

// FreeSpaceData is returned by GET_FREE_SPACE.
type FreeSpaceData = tiling.FreeSpaceReport

type LayoutInfo struct {
	Name        string `json:"name"`
	Mode        string `json:"mode"`
	Description string `json:"description,omitempty"`
}

type LayoutsData struct {
	Layouts        []LayoutInfo `json:"layouts"`
	FavoriteLayout string       `json:"favorite_layout,omitempty"`
}

// NewOKResponse creates a successful response with optional data
func NewOKResponse(data interface{}) (*Response, error) {
	var dataBytes json.RawMessage
	if data != nil {
		bytes, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response data: %w", err)
		}
		dataBytes = bytes
	}

	return &Response{
		Status: StatusOK,
		Data:   dataBytes,
	}, nil
}

// NewErrorResponse creates an error response with a message
func NewErrorResponse(errMsg string) *Response {
	return &Response{
		Status: StatusError,
		Error:  errMsg,
	}
}

// ParseRequest parses a request from JSON bytes
func ParseRequest(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}
	return &req, nil
}

// Marshal converts a response to JSON bytes
func (r *Response) Marshal() ([]byte, error) {
	return json.Marshal(r)
}
