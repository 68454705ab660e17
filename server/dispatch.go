package server

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/autosheeeew/ui-inspector/commands"
)

// HandlerFunc is the signature for non-streaming JSON-RPC method handlers
type HandlerFunc func(ctx context.Context, params json.RawMessage) (interface{}, error)

// methodRegistry returns a map of method names to handler functions.
// This is used by the HTTP endpoint and both WebSocket transports.
func (s *Server) methodRegistry() map[string]HandlerFunc {
	return map[string]HandlerFunc{
		"devices":         s.handleDevicesList,
		"device_info":     s.handleDeviceInfo,
		"screenshot":      s.handleScreenshot,
		"dump_ui":         s.handleDumpUI,
		"dump_xml":        s.handleDumpXML,
		"overlays":        s.handleOverlays,
		"io_tap":          s.handleIoTap,
		"io_swipe":        s.handleIoSwipe,
		"element_at":      s.handleElementAt,
		"element_info":    s.handleElementInfo,
		"xpath_query":     s.handleXPathQuery,
		"stream_stop":     s.handleStreamStop,
		"server.shutdown": s.handleShutdown,
	}
}

// Execute dispatches a method call using the registry.
// This is the entry point for embedded clients.
func (s *Server) Execute(ctx context.Context, method string, params json.RawMessage) (interface{}, error) {
	handler, exists := s.methodRegistry()[method]
	if !exists {
		return nil, fmt.Errorf("method not found: %s", method)
	}

	return handler(ctx, params)
}

func unwrap(response *commands.CommandResponse) (interface{}, error) {
	if response.Status == "error" {
		return nil, fmt.Errorf("%s", response.Error)
	}
	return response.Data, nil
}

func (s *Server) handleDevicesList(ctx context.Context, params json.RawMessage) (interface{}, error) {
	return unwrap(commands.DevicesCommand(ctx, s.api))
}

func (s *Server) handleDeviceInfo(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var req struct {
		Serial string `json:"serial"`
	}
	if len(params) > 0 {
		if err := json.Unmarshal(params, &req); err != nil {
			return nil, fmt.Errorf("invalid parameters: %v. Expected fields: serial", err)
		}
	}

	return unwrap(commands.InfoCommand(ctx, s.api, req.Serial))
}

func (s *Server) handleScreenshot(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var req commands.ScreenshotRequest
	if len(params) > 0 {
		if err := json.Unmarshal(params, &req); err != nil {
			return nil, fmt.Errorf("invalid parameters: %v. Expected fields: serial", err)
		}
	}

	// always return base64 data over RPC
	req.OutputPath = "-"

	return unwrap(commands.ScreenshotCommand(ctx, s.api, req))
}

func (s *Server) handleDumpXML(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var req commands.DumpXMLRequest
	if len(params) > 0 {
		if err := json.Unmarshal(params, &req); err != nil {
			return nil, fmt.Errorf("invalid parameters: %v. Expected fields: serial", err)
		}
	}

	return unwrap(commands.DumpXMLCommand(ctx, s.api, req))
}

func (s *Server) handleDumpUI(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var req commands.DumpUIRequest
	if len(params) > 0 {
		if err := json.Unmarshal(params, &req); err != nil {
			return nil, fmt.Errorf("invalid parameters: %v. Expected fields: serial", err)
		}
	}

	return unwrap(commands.DumpUICommand(ctx, s.api, req))
}

func (s *Server) handleOverlays(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var req commands.OverlaysRequest
	if len(params) > 0 {
		if err := json.Unmarshal(params, &req); err != nil {
			return nil, fmt.Errorf("invalid parameters: %v. Expected fields: serial", err)
		}
	}

	return unwrap(commands.OverlaysCommand(ctx, s.api, req))
}

func (s *Server) handleIoTap(ctx context.Context, params json.RawMessage) (interface{}, error) {
	if len(params) == 0 {
		return nil, fmt.Errorf("'params' is required with fields: serial, x, y")
	}

	var req commands.TapRequest
	if err := json.Unmarshal(params, &req); err != nil {
		return nil, fmt.Errorf("invalid parameters: %v. Expected fields: serial, x, y", err)
	}

	return unwrap(commands.TapCommand(ctx, s.api, req))
}

func (s *Server) handleIoSwipe(ctx context.Context, params json.RawMessage) (interface{}, error) {
	if len(params) == 0 {
		return nil, fmt.Errorf("'params' is required with fields: serial, x1, y1, x2, y2")
	}

	var req commands.SwipeRequest
	if err := json.Unmarshal(params, &req); err != nil {
		return nil, fmt.Errorf("invalid parameters: %v. Expected fields: serial, x1, y1, x2, y2", err)
	}

	return unwrap(commands.SwipeCommand(ctx, s.api, req))
}

func (s *Server) handleElementAt(ctx context.Context, params json.RawMessage) (interface{}, error) {
	if len(params) == 0 {
		return nil, fmt.Errorf("'params' is required with fields: serial, x, y")
	}

	var req commands.ElementAtRequest
	if err := json.Unmarshal(params, &req); err != nil {
		return nil, fmt.Errorf("invalid parameters: %v. Expected fields: serial, x, y", err)
	}

	return unwrap(commands.ElementAtCommand(ctx, s.api, req))
}

func (s *Server) handleElementInfo(ctx context.Context, params json.RawMessage) (interface{}, error) {
	if len(params) == 0 {
		return nil, fmt.Errorf("'params' is required with fields: serial, nodePath")
	}

	var req commands.ElementInfoRequest
	if err := json.Unmarshal(params, &req); err != nil {
		return nil, fmt.Errorf("invalid parameters: %v. Expected fields: serial, nodePath", err)
	}

	return unwrap(commands.ElementInfoCommand(ctx, s.api, req))
}

func (s *Server) handleXPathQuery(ctx context.Context, params json.RawMessage) (interface{}, error) {
	if len(params) == 0 {
		return nil, fmt.Errorf("'params' is required with fields: serial, xpath")
	}

	var req commands.XPathRequest
	if err := json.Unmarshal(params, &req); err != nil {
		return nil, fmt.Errorf("invalid parameters: %v. Expected fields: serial, xpath", err)
	}

	return unwrap(commands.XPathCommand(ctx, s.api, req))
}

func (s *Server) handleStreamStop(ctx context.Context, params json.RawMessage) (interface{}, error) {
	if len(params) == 0 {
		return nil, fmt.Errorf("'params' is required with fields: serial")
	}

	var req commands.StreamStopRequest
	if err := json.Unmarshal(params, &req); err != nil {
		return nil, fmt.Errorf("invalid parameters: %v. Expected fields: serial", err)
	}

	return unwrap(commands.StreamStopCommand(ctx, s.api, req))
}

// handleShutdown stops the gateway. Used by the daemon kill path.
func (s *Server) handleShutdown(ctx context.Context, params json.RawMessage) (interface{}, error) {
	go s.Shutdown()
	return map[string]interface{}{"message": "shutting down"}, nil
}
