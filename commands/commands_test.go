package commands

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autosheeeew/ui-inspector/backend"
)

func deviceListBackend(t *testing.T, serials ...string) *backend.Client {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		devices := make([]map[string]string, 0, len(serials))
		for _, s := range serials {
			devices = append(devices, map[string]string{"serial": s, "platform": "android"})
		}
		_ = json.NewEncoder(w).Encode(devices)
	}))
	t.Cleanup(srv.Close)
	return backend.NewClient(srv.URL)
}

func TestResolveSerialExplicit(t *testing.T) {
	serial, err := ResolveSerial(context.Background(), nil, "emulator-5554")
	require.NoError(t, err)
	assert.Equal(t, "emulator-5554", serial)
}

func TestResolveSerialAutoSelectsSingleDevice(t *testing.T) {
	api := deviceListBackend(t, "emulator-5554")

	serial, err := ResolveSerial(context.Background(), api, "")
	require.NoError(t, err)
	assert.Equal(t, "emulator-5554", serial)
}

func TestResolveSerialNoDevices(t *testing.T) {
	api := deviceListBackend(t)

	_, err := ResolveSerial(context.Background(), api, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no devices found")
}

func TestResolveSerialMultipleDevices(t *testing.T) {
	api := deviceListBackend(t, "emulator-5554", "emulator-5556")

	_, err := ResolveSerial(context.Background(), api, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "multiple devices")
}

func TestTapCommandRejectsNegativeCoordinates(t *testing.T) {
	response := TapCommand(context.Background(), nil, TapRequest{Serial: "x", X: -1, Y: 5})

	assert.Equal(t, "error", response.Status)
	assert.Contains(t, response.Error, "non-negative")
}

func TestSwipeCommandDefaultsDuration(t *testing.T) {
	var gotDuration float64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/swipe" {
			var body map[string]interface{}
			_ = json.NewDecoder(r.Body).Decode(&body)
			gotDuration = body["duration"].(float64)
		}
		_, _ = w.Write([]byte(`{"success": true}`))
	}))
	t.Cleanup(srv.Close)

	req := SwipeRequest{Serial: "emulator-5554", X1: 0, Y1: 0, X2: 100, Y2: 100}
	response := SwipeCommand(context.Background(), backend.NewClient(srv.URL), req)

	assert.Equal(t, "ok", response.Status)
	assert.Equal(t, float64(defaultSwipeDurationMs), gotDuration)
}

func TestStreamStopCommandRequiresSerial(t *testing.T) {
	response := StreamStopCommand(context.Background(), nil, StreamStopRequest{})

	assert.Equal(t, "error", response.Status)
	assert.Contains(t, response.Error, "serial")
}

func TestXPathCommandRequiresExpression(t *testing.T) {
	response := XPathCommand(context.Background(), nil, XPathRequest{Serial: "x"})

	assert.Equal(t, "error", response.Status)
}

func screenshotBackend(t *testing.T, png []byte) *backend.Client {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(png)
	}))
	t.Cleanup(srv.Close)
	return backend.NewClient(srv.URL)
}

func TestScreenshotCommandToStdout(t *testing.T) {
	png := []byte{0x89, 'P', 'N', 'G'}
	api := screenshotBackend(t, png)

	response := ScreenshotCommand(context.Background(), api, ScreenshotRequest{Serial: "emulator-5554", OutputPath: "-"})
	require.Equal(t, "ok", response.Status)

	resp, ok := response.Data.(ScreenshotResponse)
	require.True(t, ok)
	assert.Equal(t, "png", resp.Format)
	assert.Equal(t, base64.StdEncoding.EncodeToString(png), resp.Data)
	assert.Empty(t, resp.FilePath)
}

func TestScreenshotCommandToFile(t *testing.T) {
	png := []byte{0x89, 'P', 'N', 'G'}
	api := screenshotBackend(t, png)
	outPath := filepath.Join(t.TempDir(), "screen.png")

	response := ScreenshotCommand(context.Background(), api, ScreenshotRequest{Serial: "emulator-5554", OutputPath: outPath})
	require.Equal(t, "ok", response.Status)

	resp, ok := response.Data.(ScreenshotResponse)
	require.True(t, ok)
	assert.Equal(t, outPath, resp.FilePath)
	assert.Empty(t, resp.Data)

	written, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Equal(t, png, written)
}
