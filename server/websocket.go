package server

import (
	"encoding/json"
	"net/http"
	"net/url"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/autosheeeew/ui-inspector/utils"
)

type wsConnection struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func newUpgrader(enableCORS bool) *websocket.Upgrader {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
	}

	if enableCORS {
		upgrader.CheckOrigin = func(r *http.Request) bool {
			return true
		}
	} else {
		upgrader.CheckOrigin = isSameOrigin
	}

	return &upgrader
}

// handleWebSocket serves JSON-RPC request/response over a WebSocket
// connection on /rpc.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := newUpgrader(s.enableCORS).Upgrade(w, r, nil)
	if err != nil {
		utils.Warn("WebSocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	wsConn := &wsConnection{conn: conn}

	for {
		messageType, message, err := conn.ReadMessage()
		if err != nil {
			// connection closed or error
			utils.Verbose("WebSocket connection closed: %v", err)
			break
		}

		if messageType != websocket.TextMessage {
			_ = wsConn.sendError(nil, ErrCodeInvalidRequest, errTitleInvalidReq, "only text messages accepted for requests")
			continue
		}

		s.handleWSMessage(r, wsConn, message)
	}
}

func isSameOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	originURL, err := url.Parse(origin)
	if err != nil {
		return false
	}

	return originURL.Host == r.Host
}

func (s *Server) handleWSMessage(r *http.Request, wsConn *wsConnection, message []byte) {
	var req JSONRPCRequest
	if err := json.Unmarshal(message, &req); err != nil {
		_ = wsConn.sendError(nil, ErrCodeParseError, errTitleParseError, errMsgExpectPayload)
		return
	}

	if req.JSONRPC != "2.0" {
		_ = wsConn.sendError(req.ID, ErrCodeInvalidRequest, errTitleInvalidReq, errMsgInvalidJSONRPC)
		return
	}

	if req.ID == nil {
		_ = wsConn.sendError(nil, ErrCodeInvalidRequest, errTitleInvalidReq, errMsgIDRequired)
		return
	}

	if req.Method == "" {
		_ = wsConn.sendError(req.ID, ErrCodeInvalidRequest, errTitleInvalidReq, errMsgMethodRequired)
		return
	}

	utils.Info("WebSocket Request ID: %v, Method: %s, Params: %s", req.ID, req.Method, string(req.Params))

	registry := s.methodRegistry()
	handler, exists := registry[req.Method]
	if !exists {
		_ = wsConn.sendError(req.ID, ErrCodeMethodNotFound, errTitleNotFound, req.Method+" not found")
		return
	}

	result, err := handler(r.Context(), req.Params)
	if err != nil {
		utils.Warn("Error executing method %s: %v", req.Method, err)
		_ = wsConn.sendError(req.ID, ErrCodeServerError, errTitleServerError, err.Error())
		return
	}

	_ = wsConn.sendResponse(req.ID, result)
}

func (wsc *wsConnection) sendResponse(id interface{}, result interface{}) error {
	response := JSONRPCResponse{
		JSONRPC: "2.0",
		Result:  result,
		ID:      id,
	}
	return wsc.sendJSON(response)
}

func (wsc *wsConnection) sendError(id interface{}, code int, message string, data interface{}) error {
	response := JSONRPCResponse{
		JSONRPC: "2.0",
		Error: map[string]interface{}{
			"code":    code,
			"message": message,
			"data":    data,
		},
		ID: id,
	}
	return wsc.sendJSON(response)
}

// sendNotification pushes a JSON-RPC notification (no id) to the client.
func (wsc *wsConnection) sendNotification(method string, params interface{}) error {
	notification := struct {
		JSONRPC string      `json:"jsonrpc"`
		Method  string      `json:"method"`
		Params  interface{} `json:"params,omitempty"`
	}{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
	}
	return wsc.sendJSON(notification)
}

func (wsc *wsConnection) sendBinary(data []byte) error {
	wsc.writeMu.Lock()
	defer wsc.writeMu.Unlock()
	return wsc.conn.WriteMessage(websocket.BinaryMessage, data)
}

func (wsc *wsConnection) sendJSON(v interface{}) error {
	wsc.writeMu.Lock()
	defer wsc.writeMu.Unlock()
	return wsc.conn.WriteJSON(v)
}
