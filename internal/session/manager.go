// Package session implements the session-protocol layer: one logical chat
// session multiplexed over an unreliable transport, with bounded automatic
// reconnection and a typed projection of the inbound frame stream.
package session

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/jurishub/chatclient/internal/transport"
	"github.com/jurishub/chatclient/internal/wire"
)

// reconnectGrace is the pause between a manual Reconnect's teardown and its
// fresh connect attempt, letting the prior transport fully release.
const reconnectGrace = 100 * time.Millisecond

// Config controls the reconnection policy.
type Config struct {
	// AutoReconnect re-establishes the transport after an unexpected close.
	AutoReconnect bool

	// ReconnectInterval is the fixed delay before each automatic attempt.
	// Zero means the 3s default.
	ReconnectInterval time.Duration

	// MaxReconnectAttempts bounds consecutive failed attempts. Zero means
	// the default of 5.
	MaxReconnectAttempts int
}

// DefaultConfig returns the standard reconnection policy.
func DefaultConfig() Config {
	return Config{
		AutoReconnect:        true,
		ReconnectInterval:    3 * time.Second,
		MaxReconnectAttempts: 5,
	}
}

// Callbacks are the host's typed observers. Any field may be nil. Callbacks
// are invoked outside the manager's lock, in frame arrival order, with the
// type-specific callback before the generic OnMessage.
type Callbacks struct {
	OnMessage     func(f *wire.Frame)
	OnUserJoined  func(userID string)
	OnUserLeft    func(userID string)
	OnTyping      func(userID string, isTyping bool)
	OnAIResponse  func(content string, metadata map[string]any)
	OnError       func(msg string)
	OnStateChange func(old, new State)
}

// Manager owns one logical chat session: the transport handle, the lifecycle
// state machine, the reconnect timer, and the projected session state. The
// session identifier is immutable for the manager's lifetime; switching
// sessions means tearing the manager down and creating a new one.
type Manager struct {
	sessionID string
	dial      transport.Dialer
	cfg       Config
	cb        Callbacks

	mu        sync.Mutex
	state     State
	tr        transport.Transport
	epoch     uint64
	attempts  int
	manual    bool
	timer     *time.Timer
	ctx       context.Context
	projected projector
}

// New creates a manager for one session. Zero config fields take defaults;
// AutoReconnect follows whatever the caller passed (DefaultConfig enables it).
func New(sessionID string, dial transport.Dialer, cb Callbacks, cfg Config) *Manager {
	if cfg.ReconnectInterval == 0 {
		cfg.ReconnectInterval = 3 * time.Second
	}
	if cfg.MaxReconnectAttempts == 0 {
		cfg.MaxReconnectAttempts = 5
	}

	return &Manager{
		sessionID: sessionID,
		dial:      dial,
		cfg:       cfg,
		cb:        cb,
		state:     StateIdle,
	}
}

// SessionID returns the session identifier this manager is bound to.
func (m *Manager) SessionID() string {
	return m.sessionID
}

// Connect establishes the transport. It is a logged no-op while a transport
// is already open or being opened. The manual-disconnect flag and any prior
// error are cleared before dialing.
func (m *Manager) Connect(ctx context.Context) {
	m.mu.Lock()
	if m.state == StateOpen || m.state == StateConnecting {
		m.mu.Unlock()
		log.Printf("session %s: connect ignored, state is %s", m.sessionID, m.state)
		return
	}

	m.manual = false
	m.projected.lastErr = ""
	m.ctx = ctx
	m.epoch++
	epoch := m.epoch
	fire := m.setStateLocked(StateConnecting)
	m.mu.Unlock()
	fire()

	go m.dialAndAttach(ctx, epoch)
}

// dialAndAttach performs the blocking dial off the caller's goroutine, then
// installs the transport if this connect attempt is still current.
func (m *Manager) dialAndAttach(ctx context.Context, epoch uint64) {
	tr, err := m.dial(ctx, m.sessionID)
	if err != nil {
		m.handleClose(epoch, err)
		return
	}

	m.mu.Lock()
	if epoch != m.epoch || m.manual {
		// A disconnect or newer connect superseded this attempt.
		m.mu.Unlock()
		tr.Close()
		return
	}

	m.tr = tr
	m.attempts = 0
	fire := m.setStateLocked(StateOpen)
	m.mu.Unlock()
	fire()

	tr.Start(
		func(data []byte) { m.handleMessage(epoch, data) },
		func(err error) { m.handleClose(epoch, err) },
	)
}

// handleMessage parses one inbound frame and folds it into derived state.
// A malformed frame sets an error and is dropped; the connection and all
// subsequent frames are unaffected.
func (m *Manager) handleMessage(epoch uint64, data []byte) {
	m.mu.Lock()
	if epoch != m.epoch {
		m.mu.Unlock()
		return
	}

	f, err := wire.Parse(data)
	if err != nil {
		log.Printf("session %s: %v", m.sessionID, err)
		m.projected.lastErr = "Failed to parse server message"
		cb := m.cb
		m.mu.Unlock()
		if cb.OnError != nil {
			cb.OnError("Failed to parse server message")
		}
		return
	}

	fires := m.projected.apply(f, m.cb)
	m.mu.Unlock()

	for _, fire := range fires {
		fire()
	}
}

// handleClose reacts to the transport dropping, whether from a dial failure,
// a peer close, or a read error. Reconnection is scheduled per policy unless
// the disconnect was host-initiated.
func (m *Manager) handleClose(epoch uint64, err error) {
	m.mu.Lock()
	if epoch != m.epoch {
		m.mu.Unlock()
		return
	}

	tr := m.tr
	m.tr = nil
	fire := m.setStateLocked(StateClosed)

	var errMsg string
	if err != nil {
		log.Printf("session %s: connection lost: %v", m.sessionID, err)
		errMsg = "Connection error"
		m.projected.lastErr = errMsg
	}

	if !m.manual && m.cfg.AutoReconnect {
		if m.attempts < m.cfg.MaxReconnectAttempts {
			m.attempts++
			m.scheduleLocked(m.cfg.ReconnectInterval, m.connectFromTimer)
			log.Printf("session %s: reconnect %d/%d scheduled", m.sessionID, m.attempts, m.cfg.MaxReconnectAttempts)
		} else {
			errMsg = "Connection lost. Maximum reconnection attempts reached."
			m.projected.lastErr = errMsg
		}
	}
	cb := m.cb
	m.mu.Unlock()

	// Release the dead handle before any reconnect dials a new one.
	if tr != nil {
		tr.Close()
	}

	fire()
	if errMsg != "" && cb.OnError != nil {
		cb.OnError(errMsg)
	}
}

// connectFromTimer is the reconnect timer target.
func (m *Manager) connectFromTimer() {
	m.mu.Lock()
	ctx := m.ctx
	m.mu.Unlock()
	if ctx == nil {
		ctx = context.Background()
	}
	m.Connect(ctx)
}

// Disconnect tears the session down from any state. The manual flag is set
// first so an in-flight close event cannot schedule a reconnect; the pending
// timer is cancelled, the transport closed, and all derived state reset.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	m.manual = true
	m.cancelTimerLocked()
	m.epoch++

	tr := m.tr
	m.tr = nil
	m.projected.reset()
	fire := m.setStateLocked(StateIdle)
	m.mu.Unlock()

	if tr != nil {
		tr.Close()
	}
	fire()
}

// Reconnect performs a full disconnect, resets the retry counter, and
// schedules a fresh connect after a short grace delay.
func (m *Manager) Reconnect(ctx context.Context) {
	m.Disconnect()

	m.mu.Lock()
	m.attempts = 0
	m.ctx = ctx
	m.scheduleLocked(reconnectGrace, m.connectFromTimer)
	m.mu.Unlock()
}

// SendMessage transmits a chat message with an optional jurisdiction hint.
func (m *Manager) SendMessage(content, jurisdiction string) {
	m.send(wire.NewChatMessage(content, jurisdiction))
}

// SendTyping transmits the host participant's typing indicator.
func (m *Manager) SendTyping(isTyping bool) {
	m.send(wire.NewTyping(isTyping))
}

// UpdateJurisdiction informs the server of a jurisdiction change. Zero
// confidence defaults to 1.0.
func (m *Manager) UpdateJurisdiction(jurisdiction string, confidence float64) {
	m.send(wire.NewJurisdictionUpdate(jurisdiction, confidence))
}

// RequestContext asks the server for a fresh session snapshot.
func (m *Manager) RequestContext() {
	m.send(wire.NewRequestContext())
}

// send transmits a frame if the connection is open; otherwise it is a logged
// no-op. Frames are never queued for later delivery.
func (m *Manager) send(f *wire.Frame) {
	m.mu.Lock()
	tr := m.tr
	open := m.state == StateOpen
	m.mu.Unlock()

	if !open || tr == nil {
		log.Printf("session %s: dropping %s frame, connection not open", m.sessionID, f.Type)
		return
	}

	data, err := f.Encode()
	if err != nil {
		log.Printf("session %s: %v", m.sessionID, err)
		return
	}
	if err := tr.Send(data); err != nil {
		// The read pump will observe the broken transport and drive the
		// close path; sending never errors out to the host.
		log.Printf("session %s: send failed: %v", m.sessionID, err)
	}
}

// Snapshot returns a copy of the observable session state.
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	return Snapshot{
		State:       m.state,
		Connected:   m.state == StateOpen,
		Connecting:  m.state == StateConnecting,
		Err:         m.projected.lastErr,
		ActiveUsers: append([]string{}, m.projected.roster...),
		TypingUsers: append([]string{}, m.projected.typing...),
	}
}

// ReconnectAttempts reports consecutive failed attempts since the last
// successful open or manual reset.
func (m *Manager) ReconnectAttempts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.attempts
}

// scheduleLocked arms the reconnect timer, cancelling any pending one first.
// At most one timer exists at any instant.
func (m *Manager) scheduleLocked(d time.Duration, fn func()) {
	m.cancelTimerLocked()
	m.timer = time.AfterFunc(d, fn)
}

func (m *Manager) cancelTimerLocked() {
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}

// setStateLocked transitions the state machine and returns the notification
// to run once the lock is released.
func (m *Manager) setStateLocked(next State) func() {
	old := m.state
	m.state = next
	if old == next || m.cb.OnStateChange == nil {
		return func() {}
	}
	cb := m.cb.OnStateChange
	return func() { cb(old, next) }
}
