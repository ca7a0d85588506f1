package server

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/jurishub/chatclient/internal/wire"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Maximum message size allowed from peer.
	maxMessageSize = 64 * 1024

	// Outbound buffer per peer; a full buffer drops the peer.
	sendBuffer = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// TODO: restrict origins once the frontend host is fixed
		return true
	},
}

// Peer is one websocket participant in a room.
type Peer struct {
	conn   *websocket.Conn
	userID string
	send   chan []byte

	mu     sync.Mutex
	closed bool
}

// NewPeer wraps an upgraded connection for a participant.
func NewPeer(conn *websocket.Conn, userID string) *Peer {
	return &Peer{
		conn:   conn,
		userID: userID,
		send:   make(chan []byte, sendBuffer),
	}
}

// UserID returns the participant identifier.
func (p *Peer) UserID() string {
	return p.userID
}

// Send queues raw data for delivery. A peer that cannot drain its buffer is
// closed.
func (p *Peer) Send(data []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}

	select {
	case p.send <- data:
	default:
		p.closeLocked()
	}
}

// SendFrame marshals and queues one frame.
func (p *Peer) SendFrame(f *wire.Frame) {
	data, err := json.Marshal(f)
	if err != nil {
		log.Printf("peer %s: failed to marshal frame: %v", p.userID, err)
		return
	}
	p.Send(data)
}

// Close closes the peer's send channel.
func (p *Peer) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closeLocked()
}

func (p *Peer) closeLocked() {
	if p.closed {
		return
	}
	p.closed = true
	close(p.send)
}

// Serve upgrades the request and runs the peer's pumps until it disconnects.
func Serve(w http.ResponseWriter, r *http.Request, room *Room, userID string) error {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	peer := NewPeer(conn, userID)
	room.Register(peer)

	go writePump(peer)
	go readPump(peer, room)

	return nil
}

// readPump pumps frames from the websocket into the room.
func readPump(p *Peer, room *Room) {
	defer func() {
		room.Unregister(p)
		p.conn.Close()
	}()

	p.conn.SetReadLimit(maxMessageSize)

	for {
		_, message, err := p.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("peer %s: websocket error: %v", p.userID, err)
			}
			break
		}
		room.HandleFrame(p, message)
	}
}

// writePump pumps queued frames to the websocket, one frame per message so
// the client can parse each in isolation.
func writePump(p *Peer) {
	defer p.conn.Close()

	for message := range p.send {
		p.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := p.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}

	p.conn.SetWriteDeadline(time.Now().Add(writeWait))
	p.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}
