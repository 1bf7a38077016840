// Package transport owns the single WebSocket to the process-hosting
// backend: connect/reconnect with exponential backoff, heartbeats, the
// connection epoch, and inbound frame dispatch.
package transport

import (
	"sync"
	"time"

	"github.com/OptimiLabs/velocity-sub007/pkg/notify"
	"github.com/OptimiLabs/velocity-sub007/pkg/protocol"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// State is the observable connection state.
type State string

const (
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	StateReconnecting State = "reconnecting"
	StateDisconnected State = "disconnected"
)

// Reconnect/backoff parameters.
const (
	InitialBackoff    = 1 * time.Second
	MaxBackoff        = 10 * time.Second
	DialTimeout       = 5 * time.Second
	HeartbeatInterval = 30 * time.Second
	noticeCooldown    = 5 * time.Second
)

// Backoff returns the reconnect delay for the k-th consecutive failure:
// min(1s * 2^k, 10s).
func Backoff(k int) time.Duration {
	d := InitialBackoff
	for i := 0; i < k; i++ {
		d *= 2
		if d >= MaxBackoff {
			return MaxBackoff
		}
	}
	return d
}

// Dispatcher receives the frames the transport handles specially. The
// console controller implements this.
type Dispatcher interface {
	// HandleResumableGroups delivers the backend's group list for the given
	// connection epoch.
	HandleResumableGroups(epoch uint64, frame protocol.ResumableGroups)
	// HandleResumableSessions delivers the backend's session list for the
	// given connection epoch.
	HandleResumableSessions(epoch uint64, frame protocol.ResumableSessions)
	// HandlePtyCreated delivers terminal creation acknowledgements.
	HandlePtyCreated(frame protocol.PtyCreated)
	// HandleTerminalFrame delivers any other frame carrying a terminal id.
	HandleTerminalFrame(env *protocol.Envelope)
}

// Manager owns the socket. All exported methods are safe for concurrent use;
// inbound frames are dispatched sequentially from a single read loop so
// handlers run to completion in arrival order.
type Manager struct {
	url        string
	dispatcher Dispatcher
	notifier   notify.Sink
	logger     *logrus.Entry

	// Intervals are fields so tests can shrink them.
	heartbeatInterval time.Duration
	dialTimeout       time.Duration

	mu       sync.Mutex
	conn     *websocket.Conn
	writeMu  sync.Mutex
	state    State
	onState  func(State)
	epoch    uint64
	failures int
	stopped  bool

	// onConnect fires after each successful open, with the new epoch, from
	// a fresh goroutine. The console uses it to kick reconciliation and the
	// terminal-id sync.
	onConnect func(epoch uint64)

	events chan *protocol.Envelope
	done   chan struct{}
}

// NewManager creates a transport manager for the backend at url. Notices
// about connection transitions go to the sink, wrapped in a cool-down
// deduper so each transition surfaces once.
func NewManager(url string, dispatcher Dispatcher, sink notify.Sink, logger *logrus.Entry) *Manager {
	return &Manager{
		url:               url,
		dispatcher:        dispatcher,
		notifier:          notify.NewDeduper(sink, noticeCooldown),
		logger:            logger,
		heartbeatInterval: HeartbeatInterval,
		dialTimeout:       DialTimeout,
		state:             StateDisconnected,
		events:            make(chan *protocol.Envelope, 64),
		done:              make(chan struct{}),
	}
}

// OnStateChange registers the connection-state signal.
func (m *Manager) OnStateChange(fn func(State)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onState = fn
}

// OnConnect registers the post-open hook.
func (m *Manager) OnConnect(fn func(epoch uint64)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onConnect = fn
}

// Events is the generic channel for frames the core does not handle itself
// (cost updates, notifications for other dashboard consumers). Slow
// consumers lose frames rather than blocking the read loop.
func (m *Manager) Events() <-chan *protocol.Envelope {
	return m.events
}

// State returns the current connection state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Epoch returns the current connection epoch. It increments on every
// successful open, so state tied to an older epoch can be discarded.
func (m *Manager) Epoch() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.epoch
}

// IsOpen reports whether the socket is currently open.
func (m *Manager) IsOpen() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.conn != nil && m.state == StateConnected
}

// Start opens the socket and keeps it open until Stop. Returns immediately.
func (m *Manager) Start() {
	m.setState(StateConnecting)
	go m.connectLoop()
}

// Stop closes the socket for good.
func (m *Manager) Stop() {
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return
	}
	m.stopped = true
	conn := m.conn
	m.conn = nil
	m.mu.Unlock()

	close(m.done)
	if conn != nil {
		conn.Close()
	}
	m.setState(StateDisconnected)
}

// Send marshals and writes a frame. Returns false, never an error, when the
// socket is not open: callers tolerate dropped sends and rely on
// reconciliation to resynchronize after the next connect.
func (m *Manager) Send(frame interface{}) bool {
	m.mu.Lock()
	conn := m.conn
	open := m.state == StateConnected
	m.mu.Unlock()

	if conn == nil || !open {
		return false
	}

	data, err := protocol.Marshal(frame)
	if err != nil {
		m.logger.WithError(err).Warn("Dropping unmarshalable outbound frame")
		return false
	}

	m.writeMu.Lock()
	err = conn.WriteMessage(websocket.TextMessage, data)
	m.writeMu.Unlock()
	if err != nil {
		m.logger.WithError(err).Debug("Send failed, socket closing")
		return false
	}
	return true
}

func (m *Manager) setState(s State) {
	m.mu.Lock()
	changed := m.state != s
	m.state = s
	fn := m.onState
	m.mu.Unlock()

	if changed && fn != nil {
		fn(s)
	}
}

// connectLoop dials until stopped, backing off exponentially on failure and
// resetting the backoff after each successful open.
func (m *Manager) connectLoop() {
	for {
		select {
		case <-m.done:
			return
		default:
		}

		dialer := &websocket.Dialer{HandshakeTimeout: m.dialTimeout}
		conn, _, err := dialer.Dial(m.url, nil)
		if err != nil {
			m.mu.Lock()
			k := m.failures
			m.failures++
			m.mu.Unlock()

			delay := Backoff(k)
			m.logger.WithError(err).WithField("retryIn", delay).Debug("Connect failed")
			m.setState(StateReconnecting)

			select {
			case <-time.After(delay):
				continue
			case <-m.done:
				return
			}
		}

		m.mu.Lock()
		if m.stopped {
			m.mu.Unlock()
			conn.Close()
			return
		}
		m.conn = conn
		m.failures = 0
		m.epoch++
		epoch := m.epoch
		onConnect := m.onConnect
		m.mu.Unlock()

		m.setState(StateConnected)
		m.notifier.Notify(notify.LevelInfo, "Connected to console backend")
		m.logger.WithField("epoch", epoch).Info("Socket connected")

		stopHeartbeat := make(chan struct{})
		go m.heartbeat(stopHeartbeat)

		if onConnect != nil {
			go onConnect(epoch)
		}

		// readLoop blocks until the socket dies.
		m.readLoop(conn, epoch)
		close(stopHeartbeat)

		m.mu.Lock()
		if m.conn == conn {
			m.conn = nil
		}
		stopped := m.stopped
		m.mu.Unlock()
		conn.Close()

		if stopped {
			return
		}

		m.setState(StateReconnecting)
		m.notifier.Notify(notify.LevelWarn, "Lost connection to console backend, reconnecting")

		m.mu.Lock()
		k := m.failures
		m.failures++
		m.mu.Unlock()

		select {
		case <-time.After(Backoff(k)):
		case <-m.done:
			return
		}
	}
}

// heartbeat pings every interval until the connection dies.
func (m *Manager) heartbeat(stop chan struct{}) {
	ticker := time.NewTicker(m.heartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.Send(protocol.NewPing())
		case <-stop:
			return
		case <-m.done:
			return
		}
	}
}

// readLoop reads and dispatches frames until the socket errors.
func (m *Manager) readLoop(conn *websocket.Conn, epoch uint64) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		m.dispatch(data, epoch)
	}
}

// dispatch routes one inbound frame. Malformed frames are swallowed: a bad
// frame from the backend must never take the console down.
func (m *Manager) dispatch(data []byte, epoch uint64) {
	env, err := protocol.Decode(data)
	if err != nil {
		m.logger.WithError(err).Debug("Dropping malformed frame")
		return
	}

	switch env.Type {
	case protocol.TypePong:
		// Heartbeat answer, nothing to do.

	case protocol.TypeResumableGroups:
		var frame protocol.ResumableGroups
		if err := env.Unmarshal(&frame); err != nil {
			m.logger.WithError(err).Debug("Dropping malformed resumable-groups frame")
			return
		}
		m.dispatcher.HandleResumableGroups(epoch, frame)

	case protocol.TypeResumableSessions:
		var frame protocol.ResumableSessions
		if err := env.Unmarshal(&frame); err != nil {
			m.logger.WithError(err).Debug("Dropping malformed resumable-sessions frame")
			return
		}
		m.dispatcher.HandleResumableSessions(epoch, frame)

	case protocol.TypePtyCreated:
		var frame protocol.PtyCreated
		if err := env.Unmarshal(&frame); err != nil {
			m.logger.WithError(err).Debug("Dropping malformed pty:created frame")
			return
		}
		m.dispatcher.HandlePtyCreated(frame)

	default:
		if env.TerminalID != "" {
			m.dispatcher.HandleTerminalFrame(env)
			return
		}
		// Everything else goes to generic consumers.
		select {
		case m.events <- env:
		default:
			m.logger.Debug("Event channel full, dropping frame")
		}
	}
}
