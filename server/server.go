// Package server exposes the mirror engine and backend commands to a
// browser host UI over JSON-RPC 2.0, via HTTP POST and WebSocket, plus a
// binary frame-push socket per mirrored device.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/autosheeeew/ui-inspector/backend"
	"github.com/autosheeeew/ui-inspector/config"
	"github.com/autosheeeew/ui-inspector/utils"
)

// JSON-RPC error codes
const (
	// Parse error: Invalid JSON was received by the server
	ErrCodeParseError = -32700

	// Invalid Request: The JSON sent is not a valid Request object
	ErrCodeInvalidRequest = -32600

	// Method not found: The method does not exist / is not available
	ErrCodeMethodNotFound = -32601

	// Server error: Internal JSON-RPC error
	ErrCodeServerError = -32000
)

// JSON-RPC error strings shared between transports and tests
const (
	errTitleParseError   = "Parse error"
	errTitleInvalidReq   = "Invalid Request"
	errTitleNotFound     = "Method not found"
	errTitleServerError  = "Server error"
	errMsgExpectPayload  = "expecting jsonrpc payload"
	errMsgInvalidJSONRPC = "'jsonrpc' must be '2.0'"
	errMsgIDRequired     = "'id' field is required"
	errMsgMethodRequired = "'method' is required"
)

// Server timeouts
const (
	ReadTimeout  = 10 * time.Second
	WriteTimeout = 10 * time.Second
	IdleTimeout  = 120 * time.Second
)

var okResponse = map[string]interface{}{"status": "ok"}

// JSONRPCRequest represents a JSON-RPC request
type JSONRPCRequest struct {
	// these fields are all omitempty, so we can report back to client if they are missing
	JSONRPC string          `json:"jsonrpc,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	ID      interface{}     `json:"id,omitempty"`
}

// JSONRPCResponse represents a JSON-RPC response
type JSONRPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	Result  interface{} `json:"result,omitempty"`
	Error   interface{} `json:"error,omitempty"`
	ID      interface{} `json:"id"`
}

// Server is the inspector gateway.
type Server struct {
	api        *backend.Client
	cfg        config.Config
	enableCORS bool
	httpServer *http.Server
}

// NewServer creates a gateway talking to the backend configured in cfg.
func NewServer(cfg config.Config, enableCORS bool) *Server {
	api := backend.NewClient(cfg.BackendURL)
	api.SetStreamOptions(cfg.StreamFPS, cfg.StreamQuality)
	return &Server{
		api:        api,
		cfg:        cfg,
		enableCORS: enableCORS,
	}
}

// corsMiddleware handles CORS preflight requests and adds CORS headers to responses.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Handler builds the gateway's HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/", s.sendBanner)
	mux.HandleFunc("/rpc", s.handleRPC)
	mux.HandleFunc("/ws/mirror/", s.handleMirrorSocket)

	var handler http.Handler = mux
	if s.enableCORS {
		handler = corsMiddleware(mux)
	}
	return handler
}

// ListenAndServe runs the gateway until Shutdown or a listener error.
func (s *Server) ListenAndServe(addr string) error {
	// if host is missing, default to localhost
	if !strings.Contains(addr, ":") {
		// convert addr to integer
		port, err := strconv.Atoi(addr)
		if err != nil {
			return fmt.Errorf("invalid port: %v", err)
		}

		addr = fmt.Sprintf(":%d", port)
	}

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  ReadTimeout,
		WriteTimeout: WriteTimeout,
		IdleTimeout:  IdleTimeout,
	}

	utils.Info("Starting gateway on http://%s (backend %s)...", addr, s.api.BaseURL())
	return s.httpServer.ListenAndServe()
}

// Shutdown stops the HTTP server gracefully.
func (s *Server) Shutdown() {
	if s.httpServer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.httpServer.Shutdown(ctx)
}

// handleRPC serves JSON-RPC over HTTP POST, upgrading to WebSocket when
// requested.
func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	if isWebSocketUpgrade(r) {
		s.handleWebSocket(w, r)
		return
	}

	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req JSONRPCRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendJSONRPCError(w, nil, ErrCodeParseError, errTitleParseError, errMsgExpectPayload)
		return
	}

	if req.JSONRPC != "2.0" {
		sendJSONRPCError(w, req.ID, ErrCodeInvalidRequest, errTitleInvalidReq, errMsgInvalidJSONRPC)
		return
	}

	if req.ID == nil {
		sendJSONRPCError(w, nil, ErrCodeInvalidRequest, errTitleInvalidReq, errMsgIDRequired)
		return
	}

	if req.Method == "" {
		sendJSONRPCError(w, req.ID, ErrCodeInvalidRequest, errTitleInvalidReq, errMsgMethodRequired)
		return
	}

	utils.Info("Request ID: %v, Method: %s, Params: %s", req.ID, req.Method, string(req.Params))

	registry := s.methodRegistry()
	handler, exists := registry[req.Method]
	if !exists {
		sendJSONRPCError(w, req.ID, ErrCodeMethodNotFound, errTitleNotFound, fmt.Sprintf("Method '%s' not found", req.Method))
		return
	}

	result, err := handler(r.Context(), req.Params)
	if err != nil {
		utils.Warn("Error executing method %s: %v", req.Method, err)
		sendJSONRPCError(w, req.ID, ErrCodeServerError, errTitleServerError, err.Error())
		return
	}

	sendJSONRPCResponse(w, req.ID, result)
}

func sendJSONRPCResponse(w http.ResponseWriter, id interface{}, result interface{}) {
	response := JSONRPCResponse{
		JSONRPC: "2.0",
		Result:  result,
		ID:      id,
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(response)
}

func sendJSONRPCError(w http.ResponseWriter, id interface{}, code int, message string, data interface{}) {
	response := JSONRPCResponse{
		JSONRPC: "2.0",
		Error: map[string]interface{}{
			"code":    code,
			"message": message,
			"data":    data,
		},
		ID: id,
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(response)
}

func (s *Server) sendBanner(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(okResponse)
}

func isWebSocketUpgrade(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("Upgrade"), "websocket")
}
