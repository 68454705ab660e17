// Package backend is the client side of the inspector backend service: the
// hierarchy dump / XPath / device bridge collaborator that actually talks to
// devices. Everything here is a request/response or binary-stream boundary;
// no device control happens in this process.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Client calls the backend's HTTP API.
type Client struct {
	baseURL    string
	httpClient *http.Client

	streamFPS     int
	streamQuality int
}

// NewClient creates a client for the backend at baseURL, e.g.
// "http://localhost:8000".
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// BaseURL returns the configured backend base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// SetStreamOptions sets the frame rate and JPEG quality advertised on the
// stream URL. Advisory: the backend may ignore them. Zero values are omitted.
func (c *Client) SetStreamOptions(fps, quality int) {
	c.streamFPS = fps
	c.streamQuality = quality
}

// StreamURL returns the websocket URL for a device's binary frame stream.
// One websocket message = one encoded JPEG frame.
func (c *Client) StreamURL(serial string) string {
	wsBase := c.baseURL
	switch {
	case strings.HasPrefix(wsBase, "https://"):
		wsBase = "wss://" + strings.TrimPrefix(wsBase, "https://")
	case strings.HasPrefix(wsBase, "http://"):
		wsBase = "ws://" + strings.TrimPrefix(wsBase, "http://")
	}

	streamURL := fmt.Sprintf("%s/ws/screen/%s", wsBase, url.PathEscape(serial))

	query := url.Values{}
	if c.streamFPS > 0 {
		query.Set("fps", strconv.Itoa(c.streamFPS))
	}
	if c.streamQuality > 0 {
		query.Set("quality", strconv.Itoa(c.streamQuality))
	}
	if len(query) > 0 {
		streamURL += "?" + query.Encode()
	}
	return streamURL
}

// Devices lists all connected devices.
func (c *Client) Devices(ctx context.Context) ([]Device, error) {
	var devices []Device
	if err := c.getJSON(ctx, "/api/devices", &devices); err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}
	return devices, nil
}

// DeviceInfo fetches a device's logical resolution and platform.
func (c *Client) DeviceInfo(ctx context.Context, serial string) (*DeviceInfo, error) {
	var info DeviceInfo
	path := fmt.Sprintf("/api/devices/%s/info", url.PathEscape(serial))
	if err := c.getJSON(ctx, path, &info); err != nil {
		return nil, fmt.Errorf("failed to get device info for %s: %w", serial, err)
	}
	return &info, nil
}

// DumpHierarchy fetches a fresh UI hierarchy snapshot for a device.
func (c *Client) DumpHierarchy(ctx context.Context, serial string) (*DumpResult, error) {
	var result DumpResult
	path := fmt.Sprintf("/api/dump/%s", url.PathEscape(serial))
	if err := c.getJSON(ctx, path, &result); err != nil {
		return nil, fmt.Errorf("failed to dump hierarchy for %s: %w", serial, err)
	}
	if !result.Success {
		return nil, fmt.Errorf("hierarchy dump for %s failed: %s", serial, result.Error)
	}
	return &result, nil
}

// Screenshot captures a single PNG screenshot of a device.
func (c *Client) Screenshot(ctx context.Context, serial string) ([]byte, error) {
	path := fmt.Sprintf("/api/screenshot/%s", url.PathEscape(serial))
	data, err := c.getBytes(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("screenshot of %s failed: %w", serial, err)
	}
	return data, nil
}

// CachedXML returns the raw hierarchy XML the backend cached on the last
// dump. Errors with 404 until a dump has populated the cache.
func (c *Client) CachedXML(ctx context.Context, serial string) ([]byte, error) {
	path := fmt.Sprintf("/api/dump/%s/xml", url.PathEscape(serial))
	data, err := c.getBytes(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("cached xml for %s failed: %w", serial, err)
	}
	return data, nil
}

// Tap dispatches a tap at device coordinates. Failures are non-fatal for the
// session; the caller logs and surfaces them.
func (c *Client) Tap(ctx context.Context, serial string, x, y int) error {
	var resp successResponse
	if err := c.postJSON(ctx, "/api/tap", tapRequest{Serial: serial, X: x, Y: y}, &resp); err != nil {
		return fmt.Errorf("tap on %s failed: %w", serial, err)
	}
	if !resp.Success {
		return fmt.Errorf("tap on %s failed: %s", serial, resp.Error)
	}
	return nil
}

// Swipe dispatches a swipe between two points with the given duration.
func (c *Client) Swipe(ctx context.Context, serial string, x1, y1, x2, y2, durationMs int) error {
	req := swipeRequest{Serial: serial, X1: x1, Y1: y1, X2: x2, Y2: y2, Duration: durationMs}
	var resp successResponse
	if err := c.postJSON(ctx, "/api/swipe", req, &resp); err != nil {
		return fmt.Errorf("swipe on %s failed: %w", serial, err)
	}
	if !resp.Success {
		return fmt.Errorf("swipe on %s failed: %s", serial, resp.Error)
	}
	return nil
}

// StopStream asks the backend to release upstream streaming resources for a
// device (e.g. a WDA proxy process). Best-effort: errors are returned for
// logging only and must never be treated as fatal.
func (c *Client) StopStream(ctx context.Context, serial string) error {
	path := fmt.Sprintf("/api/stream/stop/%s", url.PathEscape(serial))
	var resp successResponse
	if err := c.postJSON(ctx, path, struct{}{}, &resp); err != nil {
		return fmt.Errorf("stream stop for %s failed: %w", serial, err)
	}
	if !resp.Success {
		return fmt.Errorf("stream stop for %s failed: %s", serial, resp.Error)
	}
	return nil
}

// FindByCoordinate looks up the element under a point in the hierarchy's
// coordinate space (frame pixels once a frame has been decoded).
func (c *Client) FindByCoordinate(ctx context.Context, serial string, x, y int) (*ElementResult, error) {
	req := findByCoordinateRequest{Serial: serial, X: x, Y: y}
	var result ElementResult
	if err := c.postJSON(ctx, "/api/element/find-by-coordinate", req, &result); err != nil {
		return nil, fmt.Errorf("element lookup at (%d,%d) failed: %w", x, y, err)
	}
	return &result, nil
}

// ElementInfo looks up an element by its node path within the hierarchy tree.
func (c *Client) ElementInfo(ctx context.Context, serial string, nodePath []int) (*ElementResult, error) {
	req := elementInfoRequest{Serial: serial, NodePath: nodePath}
	var result ElementResult
	if err := c.postJSON(ctx, "/api/element/info", req, &result); err != nil {
		return nil, fmt.Errorf("element info for path %v failed: %w", nodePath, err)
	}
	return &result, nil
}

// QueryXPath runs an XPath query against the device's cached hierarchy XML.
func (c *Client) QueryXPath(ctx context.Context, serial, expr string) (*XPathResult, error) {
	req := xpathQueryRequest{Serial: serial, XPath: expr}
	var result XPathResult
	if err := c.postJSON(ctx, "/api/xpath/query", req, &result); err != nil {
		return nil, fmt.Errorf("xpath query failed: %w", err)
	}
	return &result, nil
}

// getBytes fetches a binary endpoint (image or XML payloads).
func (c *Client) getBytes(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var detail struct {
			Detail string `json:"detail"`
		}
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if json.Unmarshal(data, &detail) == nil && detail.Detail != "" {
			return nil, fmt.Errorf("backend returned %d: %s", resp.StatusCode, detail.Detail)
		}
		return nil, fmt.Errorf("backend returned status %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}

func (c *Client) getJSON(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	return c.do(req, out)
}

func (c *Client) postJSON(ctx context.Context, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// FastAPI-style error payloads carry a "detail" field
		var detail struct {
			Detail string `json:"detail"`
		}
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if json.Unmarshal(data, &detail) == nil && detail.Detail != "" {
			return fmt.Errorf("backend returned %d: %s", resp.StatusCode, detail.Detail)
		}
		return fmt.Errorf("backend returned status %d", resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
