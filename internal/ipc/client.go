package ipc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/1broseidon/snaptile/internal/geom"
	"github.com/1broseidon/snaptile/internal/runtimepath"
	"github.com/1broseidon/snaptile/internal/tiling"
)

// Client handles IPC communication with the daemon
type Client struct {
	socketPath string
	timeout    time.Duration
}

// NewClient creates a new IPC client
func NewClient() *Client {
	socketPath, err := runtimepath.SocketPath()
	if err != nil {
		// Keep constructor non-failing; sendRequest surfaces connection errors.
		socketPath = ""
	}
	return NewClientAt(socketPath)
}

// NewClientAt creates a client for the daemon listening on socketPath.
func NewClientAt(socketPath string) *Client {
	return &Client{
		socketPath: socketPath,
		timeout:    5 * time.Second,
	}
}

// sendRequest sends a request and waits for a response
func (c *Client) sendRequest(req *Request) (*Response, error) {
	conn, err := net.DialTimeout("unix", c.socketPath, c.timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to daemon: %w (is the daemon running?)", err)
	}
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(c.timeout))

	reqData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	reqData = append(reqData, '\n')
	if _, err := conn.Write(reqData); err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	reader := bufio.NewReader(conn)
	respData, err := reader.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var resp Response
	if err := json.Unmarshal(respData, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if resp.Status == StatusError {
		return nil, fmt.Errorf("daemon error: %s", resp.Error)
	}

	return &resp, nil
}

// call sends command with an optional payload and decodes the response data
// into out when out is non-nil.
func (c *Client) call(command CommandType, payload, out interface{}) error {
	req := &Request{Command: command}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal %s payload: %w", command, err)
		}
		req.Payload = data
	}

	resp, err := c.sendRequest(req)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Data, out); err != nil {
		return fmt.Errorf("failed to parse %s data: %w", command, err)
	}
	return nil
}

// Reload sends a RELOAD command to the daemon
func (c *Client) Reload() error {
	return c.call(CommandReload, nil, nil)
}

// GetStatus retrieves daemon status
func (c *Client) GetStatus() (*StatusData, error) {
	var status StatusData
	if err := c.call(CommandGetStatus, nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// GetMonitors retrieves monitor information
func (c *Client) GetMonitors() (*MonitorsData, error) {
	var monitors MonitorsData
	if err := c.call(CommandGetMonitors, nil, &monitors); err != nil {
		return nil, err
	}
	return &monitors, nil
}

// Tile snaps the active window to pos.
func (c *Client) Tile(pos tiling.Position) error {
	return c.call(CommandTile, TilePayload{Position: pos.String()}, nil)
}

// BestFit grows the active window into the free space next to it. It reports
// whether the window moved.
func (c *Client) BestFit() (bool, error) {
	var data BestFitData
	if err := c.call(CommandBestFit, nil, &data); err != nil {
		return false, err
	}
	return data.Moved, nil
}

// Untile restores the active window to the rect it had before tiling.
func (c *Client) Untile() error {
	return c.call(CommandUntile, nil, nil)
}

// Focus activates the nearest tiled window in dir.
func (c *Client) Focus(dir geom.Direction) (*FocusData, error) {
	var data FocusData
	if err := c.call(CommandFocus, FocusPayload{Direction: dir.String()}, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// ApplyLayout tiles the windows of the active display with the named layout
// and returns how many windows were placed.
func (c *Client) ApplyLayout(layoutName string) (int, error) {
	var data ApplyLayoutData
	if err := c.call(CommandApplyLayout, ApplyLayoutPayload{LayoutName: layoutName}, &data); err != nil {
		return 0, err
	}
	return data.Tiled, nil
}

// GetGroup retrieves the top tile group of the active display.
func (c *Client) GetGroup() (*GroupData, error) {
	var data GroupData
	if err := c.call(CommandGetGroup, nil, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetFreeSpace retrieves the free space report of the active display.
func (c *Client) GetFreeSpace() (*FreeSpaceData, error) {
	var data FreeSpaceData
	if err := c.call(CommandGetFreeSpace, nil, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// ListLayouts retrieves the configured layouts.
func (c *Client) ListLayouts() (*LayoutsData, error) {
	var data LayoutsData
	if err := c.call(CommandListLayouts, nil, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// Ping checks if the daemon is responding
func (c *Client) Ping() error {
	_, err := c.GetStatus()
	return err
}
