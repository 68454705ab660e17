package mirror

import (
	"bytes"
	"image"
	"image/jpeg"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testJPEG returns an encoded JPEG of the given size.
func testJPEG(t *testing.T, width, height int) []byte {
	t.Helper()
	var buf bytes.Buffer
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

// streamServer fakes the backend's binary frame stream. Each connection
// receives framesPerConn frames and then either hangs open or drops.
type streamServer struct {
	srv           *httptest.Server
	framesPerConn int
	dropAfter     bool

	// capacity-1 semaphore: a second handler blocks until the first
	// transport is fully gone, so an overlapping client transport shows
	// up as a dial that never completes instead of a flaky counter
	sem chan struct{}

	mu      sync.Mutex
	serials []string
}

func newStreamServer(t *testing.T, framesPerConn int, dropAfter bool) *streamServer {
	s := &streamServer{
		framesPerConn: framesPerConn,
		dropAfter:     dropAfter,
		sem:           make(chan struct{}, 1),
	}
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}

	s.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		serial := strings.TrimPrefix(r.URL.Path, "/ws/screen/")

		s.sem <- struct{}{}
		defer func() { <-s.sem }()

		s.mu.Lock()
		s.serials = append(s.serials, serial)
		s.mu.Unlock()

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		frame := testJPEG(t, 4, 8)
		for i := 0; i < s.framesPerConn; i++ {
			if err := conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
				return
			}
		}

		if s.dropAfter {
			return
		}

		// hold the connection open until the client closes it
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(s.srv.Close)
	return s
}

func (s *streamServer) url(serial string) string {
	return "ws" + strings.TrimPrefix(s.srv.URL, "http") + "/ws/screen/" + serial
}

type receivedFrame struct {
	handle SessionHandle
	width  int
}

func newTestManager(s *streamServer, frames chan receivedFrame, states chan SessionState) *SessionManager {
	m := NewSessionManager(s.url, 30*time.Millisecond)
	if frames != nil {
		m.OnFrame(func(h SessionHandle, frame *Frame) {
			defer frame.Release()
			select {
			case frames <- receivedFrame{handle: h, width: frame.Width}:
			default:
			}
		})
	}
	if states != nil {
		m.OnState(func(serial string, state SessionState) {
			select {
			case states <- state:
			default:
			}
		})
	}
	return m
}

func waitFrame(t *testing.T, frames chan receivedFrame) receivedFrame {
	t.Helper()
	select {
	case f := <-frames:
		return f
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for frame")
		return receivedFrame{}
	}
}

func waitState(t *testing.T, states chan SessionState, want SessionState) {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		select {
		case s := <-states:
			if s == want {
				return
			}
		case <-deadline:
			t.Fatalf("timed out waiting for state %v", want)
		}
	}
}

func TestSessionOpenDeliversFrames(t *testing.T) {
	srv := newStreamServer(t, 3, false)
	frames := make(chan receivedFrame, 16)
	states := make(chan SessionState, 16)
	m := newTestManager(srv, frames, states)

	h := m.Open("emulator-5554")
	assert.Equal(t, "emulator-5554", h.Serial)

	waitState(t, states, StateConnected)

	f := waitFrame(t, frames)
	assert.Equal(t, h, f.handle)
	assert.Equal(t, 4, f.width)

	m.ForceClose(h)
	waitState(t, states, StateIdle)
}

func TestSessionOpenSameSerialReturnsSameHandle(t *testing.T) {
	srv := newStreamServer(t, 1, false)
	states := make(chan SessionState, 16)
	m := newTestManager(srv, nil, states)

	h1 := m.Open("emulator-5554")
	waitState(t, states, StateConnected)
	h2 := m.Open("emulator-5554")

	assert.Equal(t, h1, h2)
	m.ForceClose(h1)
}

func TestSessionReconnectsAfterUncleanClose(t *testing.T) {
	srv := newStreamServer(t, 1, true) // drop each connection after one frame
	frames := make(chan receivedFrame, 16)
	states := make(chan SessionState, 32)
	m := newTestManager(srv, frames, states)

	h := m.Open("emulator-5554")
	waitFrame(t, frames)

	// the server dropped the transport; the session must retry on its own
	waitState(t, states, StateReconnecting)
	f := waitFrame(t, frames)

	// the reconnected transport carries the same session identity
	assert.Equal(t, h, f.handle)
	m.ForceClose(h)
}

func TestSessionDeviceSwitchNeverOverlapsTransports(t *testing.T) {
	srv := newStreamServer(t, 2, false)
	frames := make(chan receivedFrame, 64)
	states := make(chan SessionState, 64)
	m := newTestManager(srv, frames, states)

	hA := m.Open("device-a")
	waitState(t, states, StateConnected)

	hB := m.Open("device-b")
	assert.NotEqual(t, hA, hB)
	assert.Equal(t, "device-b", m.Serial())

	// wait for a frame from the new session
	deadline := time.After(3 * time.Second)
	for {
		var f receivedFrame
		select {
		case f = <-frames:
		case <-deadline:
			t.Fatal("timed out waiting for device-b frame")
		}
		if f.handle == hB {
			break
		}
		// frames from the old handle must predate the switch; a frame
		// carrying a stale token is never delivered
		assert.Equal(t, hA, f.handle)
	}

	srv.mu.Lock()
	assert.Equal(t, []string{"device-a", "device-b"}, srv.serials)
	srv.mu.Unlock()

	m.ForceClose(hB)
}

func TestSessionStaleHandleCloseIsNoop(t *testing.T) {
	srv := newStreamServer(t, 1, false)
	states := make(chan SessionState, 32)
	m := newTestManager(srv, nil, states)

	hA := m.Open("device-a")
	waitState(t, states, StateConnected)

	m.ForceClose(hA)
	waitState(t, states, StateIdle)

	hB := m.Open("device-b")
	waitState(t, states, StateConnected)

	// closing with the dead session's handle must not disturb the new one
	m.ForceClose(hA)
	assert.Equal(t, StateConnected, m.State())
	assert.Equal(t, "device-b", m.Serial())

	m.ForceClose(hB)
	waitState(t, states, StateIdle)
}

func TestSessionForceCloseIdempotent(t *testing.T) {
	srv := newStreamServer(t, 1, false)
	states := make(chan SessionState, 32)
	m := newTestManager(srv, nil, states)

	h := m.Open("emulator-5554")
	waitState(t, states, StateConnected)

	m.ForceClose(h)
	m.ForceClose(h)
	m.ForceClose(h)

	waitState(t, states, StateIdle)
	assert.Equal(t, StateIdle, m.State())
}

func TestSessionStateCallbackMayQueryManager(t *testing.T) {
	srv := newStreamServer(t, 1, false)
	m := NewSessionManager(srv.url, 30*time.Millisecond)

	states := make(chan SessionState, 16)
	m.OnState(func(serial string, state SessionState) {
		// a subscriber that re-enters the manager must not deadlock, and a
		// slow one must not stall transitions behind the manager's lock
		_ = m.Serial()
		states <- state
	})

	h := m.Open("emulator-5554")
	waitState(t, states, StateConnected)
	assert.Equal(t, StateConnected, m.State())

	m.ForceClose(h)
	waitState(t, states, StateIdle)
}

func TestSessionCancelPendingOpen(t *testing.T) {
	srv := newStreamServer(t, 1, false)
	states := make(chan SessionState, 32)
	m := newTestManager(srv, nil, states)

	hA := m.Open("device-a")
	waitState(t, states, StateConnected)

	// device-b is deferred behind device-a's close ack; cancelling it
	// before the ack lands must leave the manager idle
	hB := m.Open("device-b")
	m.ForceClose(hB)

	waitState(t, states, StateIdle)
	assert.Equal(t, StateIdle, m.State())
	assert.Equal(t, "", m.Serial())

	_ = hA
}
