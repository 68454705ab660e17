package mirror

import (
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/autosheeeew/ui-inspector/utils"
)

// SessionState is the lifecycle state of the stream transport.
type SessionState int

const (
	StateIdle SessionState = iota
	StateConnecting
	StateConnected
	StateClosing
	StateReconnecting
)

func (s SessionState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateClosing:
		return "closing"
	case StateReconnecting:
		return "reconnecting"
	default:
		return "unknown"
	}
}

// SessionHandle identifies one logical mirror session. The token doubles as
// the session's generation: callbacks carrying a token that no longer
// matches the manager's current generation are silent no-ops.
type SessionHandle struct {
	Serial string
	token  string
}

// FrameFunc receives decoded frames in arrival order, tagged with the
// session handle they belong to. The callback runs on the session's read
// loop, outside the manager's lock; consumers re-check the handle against
// their own current one before acting.
type FrameFunc func(h SessionHandle, frame *Frame)

// StateFunc observes session state transitions. It runs outside the
// manager's lock, with transitions delivered in the order they occurred, so
// a slow subscriber never stalls the session itself.
type StateFunc func(serial string, state SessionState)

// stateEvent is one queued transition, capturing the serial at the moment
// the state changed.
type stateEvent struct {
	serial string
	state  SessionState
}

type pendingOpen struct {
	serial string
	token  string
}

// SessionManager owns the binary-frame connection lifecycle: connect,
// receive, reconnect with fixed backoff, and forced teardown on device
// switch. At most one transport is open per mirror surface at any time; a
// new Open against a live session is deferred behind the prior transport's
// close acknowledgment.
type SessionManager struct {
	dialer    *websocket.Dialer
	streamURL func(serial string) string
	onFrame   FrameFunc
	onState   StateFunc
	policy    backoff.BackOff

	mu             sync.Mutex
	state          SessionState
	serial         string
	generation     string
	conn           *websocket.Conn
	closingGen     string
	pending        *pendingOpen
	reconnectTimer *time.Timer
	stateQueue     []stateEvent

	// emitMu serializes state delivery so transitions queued from
	// different goroutines still reach the subscriber in order
	emitMu sync.Mutex
}

// NewSessionManager creates a manager dialing streamURL(serial) for frames.
// reconnectDelay <= 0 selects the default fixed 2s backoff.
func NewSessionManager(streamURL func(serial string) string, reconnectDelay time.Duration) *SessionManager {
	if reconnectDelay <= 0 {
		reconnectDelay = 2 * time.Second
	}
	return &SessionManager{
		dialer:    websocket.DefaultDialer,
		streamURL: streamURL,
		policy:    backoff.NewConstantBackOff(reconnectDelay),
		state:     StateIdle,
	}
}

// OnFrame sets the frame callback. Set before the first Open.
func (m *SessionManager) OnFrame(fn FrameFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onFrame = fn
}

// OnState sets the state-transition callback. Set before the first Open.
func (m *SessionManager) OnState(fn StateFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onState = fn
}

// State returns the current session state.
func (m *SessionManager) State() SessionState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Serial returns the serial of the current (or pending) session.
func (m *SessionManager) Serial() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pending != nil {
		return m.pending.serial
	}
	return m.serial
}

// Open starts (or defers) a stream session for the given device. If a
// session for another device is still open or closing, the old transport is
// force-closed and the new one waits for its close acknowledgment; two
// transports are never open concurrently. Opening the already-active serial
// returns the existing handle.
func (m *SessionManager) Open(serial string) SessionHandle {
	defer m.flushStates()
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateIdle && m.state != StateClosing && m.serial == serial && m.pending == nil {
		return SessionHandle{Serial: serial, token: m.generation}
	}

	token := uuid.NewString()
	if m.state == StateIdle {
		m.startLocked(serial, token)
		return SessionHandle{Serial: serial, token: token}
	}

	// last requested open wins
	m.pending = &pendingOpen{serial: serial, token: token}
	m.beginCloseLocked(true)
	return SessionHandle{Serial: serial, token: token}
}

// Close shuts the session down with a close handshake. A handle from a
// superseded session is a no-op.
func (m *SessionManager) Close(h SessionHandle) {
	m.closeWith(h, false)
}

// ForceClose tears the session down immediately, invalidating its identity
// token before closing the transport so that no reconnect is attempted and
// any in-flight frame is dropped. Idempotent on an already-idle manager.
func (m *SessionManager) ForceClose(h SessionHandle) {
	m.closeWith(h, true)
}

func (m *SessionManager) closeWith(h SessionHandle, force bool) {
	defer m.flushStates()
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.pending != nil && m.pending.token == h.token {
		// session never got a transport; just cancel the deferred open
		m.pending = nil
		return
	}
	if h.token == "" || h.token != m.generation {
		return
	}
	m.beginCloseLocked(force)
}

func (m *SessionManager) startLocked(serial, token string) {
	m.serial = serial
	m.generation = token
	m.policy.Reset()
	m.setStateLocked(StateConnecting)
	go m.connect(token, serial)
}

// beginCloseLocked invalidates the current generation and initiates
// transport teardown. When a transport exists, completion is asynchronous:
// the read loop acknowledges via transportClosed.
func (m *SessionManager) beginCloseLocked(force bool) {
	if m.state == StateIdle || m.state == StateClosing {
		return
	}
	if m.reconnectTimer != nil {
		m.reconnectTimer.Stop()
		m.reconnectTimer = nil
	}

	gen := m.generation
	m.generation = ""

	if m.conn != nil {
		m.closingGen = gen
		m.setStateLocked(StateClosing)
		if !force {
			deadline := time.Now().Add(time.Second)
			_ = m.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		}
		_ = m.conn.Close()
		return
	}

	// connecting or waiting on backoff: no transport to acknowledge
	m.setStateLocked(StateClosing)
	m.finishCloseLocked()
}

func (m *SessionManager) finishCloseLocked() {
	m.conn = nil
	m.generation = ""
	m.setStateLocked(StateIdle)
	m.serial = ""

	if p := m.pending; p != nil {
		m.pending = nil
		m.startLocked(p.serial, p.token)
	}
}

func (m *SessionManager) connect(gen, serial string) {
	conn, _, err := m.dialer.Dial(m.streamURL(serial), nil)

	m.mu.Lock()
	if gen != m.generation {
		m.mu.Unlock()
		if conn != nil {
			_ = conn.Close()
		}
		return
	}

	if err != nil {
		// connect errors behave like unclean closures: retry forever with
		// the fixed backoff while the identity stays current
		utils.Verbose("stream connect failed for %s: %v", serial, err)
		m.scheduleReconnectLocked(gen)
		m.mu.Unlock()
		m.flushStates()
		return
	}

	m.conn = conn
	m.policy.Reset()
	m.setStateLocked(StateConnected)
	m.mu.Unlock()
	m.flushStates()

	go m.readLoop(gen, conn)
}

func (m *SessionManager) readLoop(gen string, conn *websocket.Conn) {
	defer func() { _ = conn.Close() }()

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			m.transportClosed(gen, err)
			return
		}

		if messageType != websocket.BinaryMessage {
			// the backend sends a JSON object when the device is missing
			utils.Verbose("ignoring non-binary stream message: %s", string(data))
			continue
		}

		recvTime := time.Now()
		frame, err := DecodeFrame(data, recvTime)
		if err != nil {
			utils.Verbose("dropping undecodable frame: %v", err)
			continue
		}

		m.deliver(gen, frame)
	}
}

// deliver hands a frame to the callback, unless the generation has been
// invalidated in the meantime: stale frames are dropped, never delivered.
func (m *SessionManager) deliver(gen string, frame *Frame) {
	m.mu.Lock()
	if gen != m.generation || m.onFrame == nil {
		m.mu.Unlock()
		frame.Release()
		return
	}
	fn := m.onFrame
	h := SessionHandle{Serial: m.serial, token: gen}
	m.mu.Unlock()

	fn(h, frame)
}

func (m *SessionManager) transportClosed(gen string, err error) {
	defer m.flushStates()
	m.mu.Lock()
	defer m.mu.Unlock()

	if gen == m.closingGen {
		// explicit close acknowledged
		m.closingGen = ""
		m.finishCloseLocked()
		return
	}
	if gen != m.generation {
		return
	}

	utils.Verbose("stream for %s closed uncleanly: %v", m.serial, err)
	m.conn = nil
	m.scheduleReconnectLocked(gen)
}

func (m *SessionManager) scheduleReconnectLocked(gen string) {
	m.setStateLocked(StateReconnecting)
	delay := m.policy.NextBackOff()
	m.reconnectTimer = time.AfterFunc(delay, func() {
		m.retryConnect(gen)
	})
}

func (m *SessionManager) retryConnect(gen string) {
	m.mu.Lock()
	if gen != m.generation || m.state != StateReconnecting {
		m.mu.Unlock()
		return
	}
	m.reconnectTimer = nil
	serial := m.serial
	m.setStateLocked(StateConnecting)
	m.mu.Unlock()
	m.flushStates()

	m.connect(gen, serial)
}

func (m *SessionManager) setStateLocked(state SessionState) {
	if m.state == state {
		return
	}
	m.state = state
	if m.onState != nil {
		m.stateQueue = append(m.stateQueue, stateEvent{serial: m.serial, state: state})
	}
}

// flushStates delivers queued transitions to the subscriber outside the
// manager's lock. Every path that may change state calls this after
// releasing the lock.
func (m *SessionManager) flushStates() {
	m.emitMu.Lock()
	defer m.emitMu.Unlock()

	for {
		m.mu.Lock()
		if len(m.stateQueue) == 0 {
			m.mu.Unlock()
			return
		}
		ev := m.stateQueue[0]
		m.stateQueue = m.stateQueue[1:]
		fn := m.onState
		m.mu.Unlock()

		if fn != nil {
			fn(ev.serial, ev.state)
		}
	}
}
