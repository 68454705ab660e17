package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/autosheeeew/ui-inspector/mirror"
	"github.com/autosheeeew/ui-inspector/utils"
)

// Notification methods pushed to mirror socket clients.
const (
	notifyScale        = "scale_changed"
	notifyOverlays     = "overlays"
	notifyGesture      = "gesture_resolved"
	notifySwipePreview = "swipe_preview"
	notifySessionState = "session_state"
)

// mirrorEvents bridges controller events onto a mirror WebSocket: frames go
// out as binary messages, everything else as JSON-RPC notifications.
type mirrorEvents struct {
	ws *wsConnection
}

func (e *mirrorEvents) OnFrame(frame *mirror.Frame) {
	defer frame.Release()
	if err := e.ws.sendBinary(frame.Bytes); err != nil {
		utils.Verbose("mirror socket frame write failed: %v", err)
	}
}

func (e *mirrorEvents) OnScaleChanged(scale mirror.ScaleFactors) {
	_ = e.ws.sendNotification(notifyScale, scale)
}

func (e *mirrorEvents) OnOverlays(overlays []mirror.OverlayDescriptor) {
	_ = e.ws.sendNotification(notifyOverlays, map[string]interface{}{
		"overlays": overlays,
	})
}

func (e *mirrorEvents) OnGestureResolved(gesture mirror.Gesture, err error) {
	params := map[string]interface{}{
		"kind":     gesture.Kind.String(),
		"start":    gesture.Start,
		"end":      gesture.End,
		"duration": gesture.Duration.Milliseconds(),
	}
	if err != nil {
		params["error"] = err.Error()
	}
	_ = e.ws.sendNotification(notifyGesture, params)
}

func (e *mirrorEvents) OnSessionState(serial string, state mirror.SessionState) {
	_ = e.ws.sendNotification(notifySessionState, map[string]interface{}{
		"serial": serial,
		"state":  state.String(),
	})
}

// pointerParams carries a render-surface coordinate from the host UI.
type pointerParams struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type surfaceResizeParams struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type interactiveSetParams struct {
	Enabled bool `json:"enabled"`
}

// handleMirrorSocket runs an interactive mirror session over a WebSocket at
// /ws/mirror/{serial}. The server pushes JPEG frames as binary messages and
// state changes as JSON-RPC notifications; the client sends pointer and
// surface notifications back.
func (s *Server) handleMirrorSocket(w http.ResponseWriter, r *http.Request) {
	serial := strings.TrimPrefix(r.URL.Path, "/ws/mirror/")
	if serial == "" || strings.Contains(serial, "/") {
		http.Error(w, "device serial required", http.StatusNotFound)
		return
	}

	conn, err := newUpgrader(s.enableCORS).Upgrade(w, r, nil)
	if err != nil {
		utils.Warn("mirror socket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	wsConn := &wsConnection{conn: conn}
	controller := mirror.NewController(s.api, &mirrorEvents{ws: wsConn}, s.cfg.ReconnectDelay)
	defer controller.Close()

	if err := controller.SelectDevice(r.Context(), serial); err != nil {
		_ = wsConn.sendError(nil, ErrCodeServerError, errTitleServerError, err.Error())
		return
	}

	for {
		messageType, message, err := conn.ReadMessage()
		if err != nil {
			utils.Verbose("mirror socket closed for %s: %v", serial, err)
			return
		}

		if messageType != websocket.TextMessage {
			_ = wsConn.sendError(nil, ErrCodeInvalidRequest, errTitleInvalidReq, "only text messages accepted for requests")
			continue
		}

		s.handleMirrorMessage(r.Context(), wsConn, controller, message)
	}
}

func (s *Server) handleMirrorMessage(ctx context.Context, wsConn *wsConnection, controller *mirror.Controller, message []byte) {
	var req JSONRPCRequest
	if err := json.Unmarshal(message, &req); err != nil {
		_ = wsConn.sendError(nil, ErrCodeParseError, errTitleParseError, errMsgExpectPayload)
		return
	}

	if req.JSONRPC != "2.0" {
		_ = wsConn.sendError(req.ID, ErrCodeInvalidRequest, errTitleInvalidReq, errMsgInvalidJSONRPC)
		return
	}

	if req.Method == "" {
		_ = wsConn.sendError(req.ID, ErrCodeInvalidRequest, errTitleInvalidReq, errMsgMethodRequired)
		return
	}

	// pointer traffic is high-frequency; notifications carry no id and get
	// no reply unless malformed
	switch req.Method {
	case "pointer_down":
		var p pointerParams
		if err := json.Unmarshal(req.Params, &p); err != nil {
			_ = wsConn.sendError(req.ID, ErrCodeInvalidRequest, errTitleInvalidReq, "expected fields: x, y")
			return
		}
		controller.PointerDown(p.X, p.Y)

	case "pointer_move":
		var p pointerParams
		if err := json.Unmarshal(req.Params, &p); err != nil {
			_ = wsConn.sendError(req.ID, ErrCodeInvalidRequest, errTitleInvalidReq, "expected fields: x, y")
			return
		}
		if preview := controller.PointerMove(p.X, p.Y); preview != nil {
			_ = wsConn.sendNotification(notifySwipePreview, preview)
		}

	case "pointer_up":
		var p pointerParams
		if err := json.Unmarshal(req.Params, &p); err != nil {
			_ = wsConn.sendError(req.ID, ErrCodeInvalidRequest, errTitleInvalidReq, "expected fields: x, y")
			return
		}
		controller.PointerUp(p.X, p.Y)

	case "pointer_leave":
		controller.PointerLeave()

	case "surface_resize":
		var p surfaceResizeParams
		if err := json.Unmarshal(req.Params, &p); err != nil {
			_ = wsConn.sendError(req.ID, ErrCodeInvalidRequest, errTitleInvalidReq, "expected fields: width, height")
			return
		}
		controller.SetRenderSurface(p.Width, p.Height)

	case "interactive_set":
		var p interactiveSetParams
		if err := json.Unmarshal(req.Params, &p); err != nil {
			_ = wsConn.sendError(req.ID, ErrCodeInvalidRequest, errTitleInvalidReq, "expected fields: enabled")
			return
		}
		controller.SetInteractive(p.Enabled)

	case "hierarchy_refresh":
		if err := controller.RefreshHierarchy(ctx); err != nil {
			utils.Warn("hierarchy refresh failed: %v", err)
			if req.ID != nil {
				_ = wsConn.sendError(req.ID, ErrCodeServerError, errTitleServerError, err.Error())
			}
			return
		}
		if req.ID != nil {
			_ = wsConn.sendResponse(req.ID, okResponse)
		}

	case "element_at":
		if req.ID == nil {
			return
		}
		var p pointerParams
		if err := json.Unmarshal(req.Params, &p); err != nil {
			_ = wsConn.sendError(req.ID, ErrCodeInvalidRequest, errTitleInvalidReq, "expected fields: x, y")
			return
		}
		result, err := controller.ElementAt(ctx, p.X, p.Y)
		if err != nil {
			_ = wsConn.sendError(req.ID, ErrCodeServerError, errTitleServerError, err.Error())
			return
		}
		_ = wsConn.sendResponse(req.ID, result)

	default:
		if req.ID != nil {
			_ = wsConn.sendError(req.ID, ErrCodeMethodNotFound, errTitleNotFound, req.Method+" not found")
		}
	}
}
