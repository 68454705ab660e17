package server

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autosheeeew/ui-inspector/config"
)

// fakeBackend serves the minimal backend API the gateway forwards to.
type fakeBackend struct {
	srv *httptest.Server

	mu   sync.Mutex
	taps []map[string]interface{}
}

func newFakeBackend(t *testing.T) *fakeBackend {
	b := &fakeBackend{}
	mux := http.NewServeMux()

	mux.HandleFunc("/api/devices", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"serial": "emulator-5554", "platform": "android", "status": "device"}]`))
	})

	mux.HandleFunc("/api/devices/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"serial": "emulator-5554", "platform": "android", "width": 1080, "height": 2400}`))
	})

	mux.HandleFunc("/api/dump/", func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/xml") {
			w.Header().Set("Content-Type", "application/xml")
			_, _ = w.Write([]byte(`<hierarchy rotation="0"/>`))
			return
		}
		_, _ = w.Write([]byte(`{"success": true, "platform": "android", "total_nodes": 1, "hierarchy": {"tag": "hierarchy", "attributes": {}, "children": []}}`))
	})

	mux.HandleFunc("/api/screenshot/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte{0x89, 'P', 'N', 'G'})
	})

	mux.HandleFunc("/api/tap", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		_ = json.NewDecoder(r.Body).Decode(&body)
		b.mu.Lock()
		b.taps = append(b.taps, body)
		b.mu.Unlock()
		_, _ = w.Write([]byte(`{"success": true}`))
	})

	b.srv = httptest.NewServer(mux)
	t.Cleanup(b.srv.Close)
	return b
}

func newTestGateway(t *testing.T, backend *fakeBackend, enableCORS bool) *httptest.Server {
	cfg := config.Default()
	cfg.BackendURL = backend.srv.URL

	srv := httptest.NewServer(NewServer(cfg, enableCORS).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func postRPC(t *testing.T, url string, req JSONRPCRequest) JSONRPCResponse {
	t.Helper()

	payload, err := json.Marshal(req)
	require.NoError(t, err)

	resp, err := http.Post(url+"/rpc", "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	defer resp.Body.Close()

	var rpcResp JSONRPCResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rpcResp))
	return rpcResp
}

func errorData(t *testing.T, resp JSONRPCResponse) (code float64, message, data string) {
	t.Helper()
	errMap, ok := resp.Error.(map[string]interface{})
	require.True(t, ok, "expected error object, got %v", resp.Error)
	code = errMap["code"].(float64)
	message, _ = errMap["message"].(string)
	data, _ = errMap["data"].(string)
	return
}

func TestBanner(t *testing.T) {
	gw := newTestGateway(t, newFakeBackend(t), false)

	resp, err := http.Get(gw.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
}

func TestRPC_Devices(t *testing.T) {
	gw := newTestGateway(t, newFakeBackend(t), false)

	resp := postRPC(t, gw.URL, JSONRPCRequest{
		JSONRPC: "2.0",
		Method:  "devices",
		ID:      1,
	})

	assert.Equal(t, "2.0", resp.JSONRPC)
	assert.Equal(t, float64(1), resp.ID)
	assert.Nil(t, resp.Error)

	devices, ok := resp.Result.([]interface{})
	require.True(t, ok)
	require.Len(t, devices, 1)
}

func TestRPC_Screenshot(t *testing.T) {
	gw := newTestGateway(t, newFakeBackend(t), false)

	resp := postRPC(t, gw.URL, JSONRPCRequest{
		JSONRPC: "2.0",
		Method:  "screenshot",
		Params:  json.RawMessage(`{"serial": "emulator-5554"}`),
		ID:      1,
	})
	require.Nil(t, resp.Error)

	result, ok := resp.Result.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "png", result["format"])

	// RPC always carries the image as base64, never a server-side file path
	data, err := base64.StdEncoding.DecodeString(result["data"].(string))
	require.NoError(t, err)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, data)
	_, hasPath := result["filePath"]
	assert.False(t, hasPath)
}

func TestRPC_DumpXML(t *testing.T) {
	gw := newTestGateway(t, newFakeBackend(t), false)

	resp := postRPC(t, gw.URL, JSONRPCRequest{
		JSONRPC: "2.0",
		Method:  "dump_xml",
		Params:  json.RawMessage(`{"serial": "emulator-5554"}`),
		ID:      2,
	})
	require.Nil(t, resp.Error)

	result, ok := resp.Result.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, `<hierarchy rotation="0"/>`, result["xml"])
}

func TestRPC_IoTap(t *testing.T) {
	backend := newFakeBackend(t)
	gw := newTestGateway(t, backend, false)

	resp := postRPC(t, gw.URL, JSONRPCRequest{
		JSONRPC: "2.0",
		Method:  "io_tap",
		Params:  json.RawMessage(`{"serial": "emulator-5554", "x": 540, "y": 1200}`),
		ID:      2,
	})

	assert.Nil(t, resp.Error)

	backend.mu.Lock()
	defer backend.mu.Unlock()
	require.Len(t, backend.taps, 1)
	assert.Equal(t, "emulator-5554", backend.taps[0]["serial"])
	assert.Equal(t, float64(540), backend.taps[0]["x"])
}

func TestRPC_IoTapMissingParams(t *testing.T) {
	gw := newTestGateway(t, newFakeBackend(t), false)

	resp := postRPC(t, gw.URL, JSONRPCRequest{
		JSONRPC: "2.0",
		Method:  "io_tap",
		ID:      3,
	})

	code, _, _ := errorData(t, resp)
	assert.Equal(t, float64(ErrCodeServerError), code)
}

func TestRPC_InvalidJSON(t *testing.T) {
	gw := newTestGateway(t, newFakeBackend(t), false)

	resp, err := http.Post(gw.URL+"/rpc", "application/json", bytes.NewReader([]byte("{not json")))
	require.NoError(t, err)
	defer resp.Body.Close()

	var rpcResp JSONRPCResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rpcResp))

	code, message, data := errorData(t, rpcResp)
	assert.Equal(t, float64(ErrCodeParseError), code)
	assert.Equal(t, errTitleParseError, message)
	assert.Equal(t, errMsgExpectPayload, data)
}

func TestRPC_WrongVersion(t *testing.T) {
	gw := newTestGateway(t, newFakeBackend(t), false)

	resp := postRPC(t, gw.URL, JSONRPCRequest{
		JSONRPC: "1.0",
		Method:  "devices",
		ID:      4,
	})

	code, message, data := errorData(t, resp)
	assert.Equal(t, float64(ErrCodeInvalidRequest), code)
	assert.Equal(t, errTitleInvalidReq, message)
	assert.Equal(t, errMsgInvalidJSONRPC, data)
}

func TestRPC_MissingID(t *testing.T) {
	gw := newTestGateway(t, newFakeBackend(t), false)

	resp := postRPC(t, gw.URL, JSONRPCRequest{
		JSONRPC: "2.0",
		Method:  "devices",
	})

	code, _, data := errorData(t, resp)
	assert.Equal(t, float64(ErrCodeInvalidRequest), code)
	assert.Equal(t, errMsgIDRequired, data)
}

func TestRPC_MissingMethod(t *testing.T) {
	gw := newTestGateway(t, newFakeBackend(t), false)

	resp := postRPC(t, gw.URL, JSONRPCRequest{
		JSONRPC: "2.0",
		ID:      5,
	})

	code, _, data := errorData(t, resp)
	assert.Equal(t, float64(ErrCodeInvalidRequest), code)
	assert.Equal(t, errMsgMethodRequired, data)
}

func TestRPC_MethodNotFound(t *testing.T) {
	gw := newTestGateway(t, newFakeBackend(t), false)

	resp := postRPC(t, gw.URL, JSONRPCRequest{
		JSONRPC: "2.0",
		Method:  "does_not_exist",
		ID:      6,
	})

	code, message, _ := errorData(t, resp)
	assert.Equal(t, float64(ErrCodeMethodNotFound), code)
	assert.Equal(t, errTitleNotFound, message)
}

func TestRPC_GetNotAllowed(t *testing.T) {
	gw := newTestGateway(t, newFakeBackend(t), false)

	resp, err := http.Get(gw.URL + "/rpc")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestCORSHeaders(t *testing.T) {
	gw := newTestGateway(t, newFakeBackend(t), true)

	req, err := http.NewRequest(http.MethodOptions, gw.URL+"/rpc", nil)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestCORSDisabled(t *testing.T) {
	gw := newTestGateway(t, newFakeBackend(t), false)

	resp, err := http.Get(gw.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
}
