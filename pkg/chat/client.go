// Package chat exposes the host-facing contract for one live chat session:
// connection status, participant presence, and the outbound operations.
package chat

import (
	"context"
	"sync"

	"github.com/jurishub/chatclient/internal/session"
	"github.com/jurishub/chatclient/internal/transport"
)

// Re-exported so hosts only import this package.
type (
	Config    = session.Config
	Callbacks = session.Callbacks
	Snapshot  = session.Snapshot
	State     = session.State
)

// DefaultConfig returns the standard reconnection policy.
func DefaultConfig() Config { return session.DefaultConfig() }

// Client tracks at most one active session at a time. Activating a new
// session identifier fully tears down the previous connection before the new
// one is established; callbacks are captured once at construction, so the
// connection never churns because an unrelated host callback changed.
type Client struct {
	dial transport.Dialer
	cb   Callbacks
	cfg  Config

	mu  sync.Mutex
	mgr *session.Manager
}

// New creates a client. No connection exists until SetSession is called with
// a non-empty identifier.
func New(dial transport.Dialer, cb Callbacks, cfg Config) *Client {
	return &Client{dial: dial, cb: cb, cfg: cfg}
}

// SetSession switches the active session. An unchanged identifier is a
// no-op; an empty identifier deactivates the client.
func (c *Client) SetSession(ctx context.Context, sessionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.mgr != nil && c.mgr.SessionID() == sessionID {
		return
	}

	if c.mgr != nil {
		c.mgr.Disconnect()
		c.mgr = nil
	}
	if sessionID == "" {
		return
	}

	c.mgr = session.New(sessionID, c.dial, c.cb, c.cfg)
	c.mgr.Connect(ctx)
}

// Close deactivates the client and releases the connection.
func (c *Client) Close() {
	c.SetSession(context.Background(), "")
}

// Snapshot returns the observable state of the active session, or a zero
// snapshot when none is active.
func (c *Client) Snapshot() Snapshot {
	if mgr := c.manager(); mgr != nil {
		return mgr.Snapshot()
	}
	return Snapshot{ActiveUsers: []string{}, TypingUsers: []string{}}
}

// SendMessage transmits a chat message on the active session.
func (c *Client) SendMessage(content, jurisdiction string) {
	if mgr := c.manager(); mgr != nil {
		mgr.SendMessage(content, jurisdiction)
	}
}

// SendTyping transmits the host's typing indicator.
func (c *Client) SendTyping(isTyping bool) {
	if mgr := c.manager(); mgr != nil {
		mgr.SendTyping(isTyping)
	}
}

// UpdateJurisdiction informs the server of a jurisdiction change.
func (c *Client) UpdateJurisdiction(jurisdiction string, confidence float64) {
	if mgr := c.manager(); mgr != nil {
		mgr.UpdateJurisdiction(jurisdiction, confidence)
	}
}

// RequestContext asks the server for a fresh session snapshot.
func (c *Client) RequestContext() {
	if mgr := c.manager(); mgr != nil {
		mgr.RequestContext()
	}
}

// Reconnect forces a fresh connection on the active session.
func (c *Client) Reconnect(ctx context.Context) {
	if mgr := c.manager(); mgr != nil {
		mgr.Reconnect(ctx)
	}
}

// Disconnect drops the active session's connection without deactivating the
// client; a later Reconnect resumes it.
func (c *Client) Disconnect() {
	if mgr := c.manager(); mgr != nil {
		mgr.Disconnect()
	}
}

func (c *Client) manager() *session.Manager {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mgr
}
