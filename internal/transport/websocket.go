package transport

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Maximum message size allowed from peer.
	maxMessageSize = 64 * 1024
)

// NewDialer returns a Dialer that connects to baseURL's websocket endpoint
// for a session, e.g. ws://host:8080/ws/sessions/{id}. A non-empty userID is
// passed along so the server can identify the participant.
func NewDialer(baseURL, userID string) Dialer {
	return func(ctx context.Context, sessionID string) (Transport, error) {
		u, err := url.Parse(baseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid endpoint URL: %w", err)
		}
		u.Path = "/ws/sessions/" + url.PathEscape(sessionID)
		if userID != "" {
			u.RawQuery = url.Values{"user": {userID}}.Encode()
		}

		conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
		if err != nil {
			return nil, fmt.Errorf("failed to dial session endpoint: %w", err)
		}
		return NewWebSocket(conn), nil
	}
}

// WebSocket adapts a gorilla connection to the Transport interface.
type WebSocket struct {
	conn *websocket.Conn

	writeMu sync.Mutex
	once    sync.Once
}

// NewWebSocket wraps an already-upgraded connection.
func NewWebSocket(conn *websocket.Conn) *WebSocket {
	return &WebSocket{conn: conn}
}

// Start launches the read pump. onClose fires once the pump exits.
func (t *WebSocket) Start(onMessage func(data []byte), onClose func(err error)) {
	go t.readPump(onMessage, onClose)
}

// Send writes one text frame to the peer.
func (t *WebSocket) Send(data []byte) error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	t.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := t.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("failed to write frame: %w", err)
	}
	return nil
}

// Close sends a close frame and tears down the connection.
func (t *WebSocket) Close() error {
	var err error
	t.once.Do(func() {
		t.writeMu.Lock()
		t.conn.SetWriteDeadline(time.Now().Add(writeWait))
		t.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		t.writeMu.Unlock()
		err = t.conn.Close()
	})
	return err
}

// readPump delivers inbound frames in arrival order until the connection
// drops, then reports the close reason exactly once.
func (t *WebSocket) readPump(onMessage func(data []byte), onClose func(err error)) {
	defer t.conn.Close()

	t.conn.SetReadLimit(maxMessageSize)

	for {
		_, message, err := t.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				err = nil
			}
			onClose(err)
			return
		}
		onMessage(message)
	}
}
