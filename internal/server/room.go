// Package server provides the session-scoped chat endpoint: a room per
// session that tracks presence, relays typing indicators, and hosts the AI
// participant.
package server

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/jurishub/chatclient/internal/wire"
)

// Room manages the connected peers of one chat session.
type Room struct {
	sessionID string
	ai        *AIResponder

	mu           sync.RWMutex
	peers        map[*Peer]bool
	roster       []string
	typing       []string
	jurisdiction string
}

// NewRoom creates a room for the given session.
func NewRoom(sessionID string, ai *AIResponder) *Room {
	return &Room{
		sessionID: sessionID,
		ai:        ai,
		peers:     make(map[*Peer]bool),
	}
}

// SessionID returns the session ID for this room.
func (r *Room) SessionID() string {
	return r.sessionID
}

// Register adds a peer, broadcasts the join to everyone else, and sends the
// joiner a full session snapshot.
func (r *Room) Register(p *Peer) {
	r.mu.Lock()
	r.peers[p] = true
	r.roster = addUnique(r.roster, p.userID)
	snapshot := r.snapshotLocked(wire.TypeSessionJoined)
	r.mu.Unlock()

	r.broadcastExcept(p, &wire.Frame{
		Type:      wire.TypeUserJoined,
		UserID:    p.userID,
		Timestamp: stamp(),
	})
	p.SendFrame(snapshot)
}

// Unregister removes a peer and broadcasts the departure.
func (r *Room) Unregister(p *Peer) {
	r.mu.Lock()
	if !r.peers[p] {
		r.mu.Unlock()
		return
	}
	delete(r.peers, p)
	r.roster = remove(r.roster, p.userID)
	r.typing = remove(r.typing, p.userID)
	r.mu.Unlock()

	p.Close()
	r.Broadcast(&wire.Frame{
		Type:      wire.TypeUserLeft,
		UserID:    p.userID,
		Timestamp: stamp(),
	})
}

// HandleFrame processes one inbound frame from a peer.
func (r *Room) HandleFrame(p *Peer, data []byte) {
	f, err := wire.Parse(data)
	if err != nil {
		log.Printf("room %s: dropping malformed frame from %s: %v", r.sessionID, p.userID, err)
		p.SendFrame(&wire.Frame{
			Type:      wire.TypeError,
			Error:     "malformed frame",
			Timestamp: stamp(),
		})
		return
	}

	switch f.Type {
	case wire.TypeChatMessage:
		r.broadcastExcept(p, &wire.Frame{
			Type:      wire.TypeChatMessage,
			UserID:    p.userID,
			Content:   f.Content,
			Timestamp: stamp(),
		})
		if r.ai != nil {
			r.ai.Respond(r, f.Content)
		}

	case wire.TypeTyping:
		isTyping := f.Typing()
		r.mu.Lock()
		if isTyping {
			r.typing = addUnique(r.typing, p.userID)
		} else {
			r.typing = remove(r.typing, p.userID)
		}
		r.mu.Unlock()

		r.broadcastExcept(p, &wire.Frame{
			Type:      wire.TypeTypingUpdate,
			UserID:    p.userID,
			IsTyping:  wire.Bool(isTyping),
			Timestamp: stamp(),
		})

	case wire.TypeJurisdictionUpdate:
		r.mu.Lock()
		r.jurisdiction = f.Jurisdiction
		r.mu.Unlock()

	case wire.TypeRequestContext:
		r.mu.RLock()
		snapshot := r.snapshotLocked(wire.TypeSessionContext)
		r.mu.RUnlock()
		p.SendFrame(snapshot)

	default:
		log.Printf("room %s: ignoring %s frame from %s", r.sessionID, f.Type, p.userID)
	}
}

// Broadcast sends a frame to all connected peers.
func (r *Room) Broadcast(f *wire.Frame) {
	data, err := json.Marshal(f)
	if err != nil {
		log.Printf("room %s: failed to marshal frame: %v", r.sessionID, err)
		return
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	for p := range r.peers {
		p.Send(data)
	}
}

// broadcastExcept sends a frame to every peer but one.
func (r *Room) broadcastExcept(skip *Peer, f *wire.Frame) {
	data, err := json.Marshal(f)
	if err != nil {
		log.Printf("room %s: failed to marshal frame: %v", r.sessionID, err)
		return
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	for p := range r.peers {
		if p != skip {
			p.Send(data)
		}
	}
}

// Jurisdiction returns the session's current jurisdiction.
func (r *Room) Jurisdiction() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.jurisdiction
}

// PeerCount returns the number of connected peers.
func (r *Room) PeerCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.peers)
}

// snapshotLocked builds a full roster/typing snapshot frame.
func (r *Room) snapshotLocked(t wire.Type) *wire.Frame {
	return &wire.Frame{
		Type:        t,
		ActiveUsers: append([]string{}, r.roster...),
		TypingUsers: append([]string{}, r.typing...),
		Timestamp:   stamp(),
	}
}

// setAITyping records the AI participant's typing state and broadcasts it.
func (r *Room) setAITyping(isTyping bool) {
	r.mu.Lock()
	if isTyping {
		r.typing = addUnique(r.typing, wire.AIParticipant)
	} else {
		r.typing = remove(r.typing, wire.AIParticipant)
	}
	r.mu.Unlock()

	r.Broadcast(&wire.Frame{
		Type:      wire.TypeAITyping,
		IsTyping:  wire.Bool(isTyping),
		Timestamp: stamp(),
	})
}

// Close disconnects all peers.
func (r *Room) Close() {
	r.mu.Lock()
	peers := make([]*Peer, 0, len(r.peers))
	for p := range r.peers {
		peers = append(peers, p)
	}
	r.peers = make(map[*Peer]bool)
	r.roster = nil
	r.typing = nil
	r.mu.Unlock()

	for _, p := range peers {
		p.Close()
	}
}

func addUnique(list []string, id string) []string {
	for _, v := range list {
		if v == id {
			return list
		}
	}
	return append(list, id)
}

func remove(list []string, id string) []string {
	out := list[:0]
	for _, v := range list {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func stamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// RoomManager manages rooms for multiple sessions.
type RoomManager struct {
	ai    *AIResponder
	mu    sync.RWMutex
	rooms map[string]*Room
}

// NewRoomManager creates a new RoomManager. The AI responder is shared by
// every room.
func NewRoomManager(ai *AIResponder) *RoomManager {
	return &RoomManager{
		ai:    ai,
		rooms: make(map[string]*Room),
	}
}

// GetOrCreate returns an existing room or creates a new one for the session.
func (m *RoomManager) GetOrCreate(sessionID string) *Room {
	m.mu.Lock()
	defer m.mu.Unlock()

	if room, ok := m.rooms[sessionID]; ok {
		return room
	}

	room := NewRoom(sessionID, m.ai)
	m.rooms[sessionID] = room
	return room
}

// Get returns the room for the session, or nil if not found.
func (m *RoomManager) Get(sessionID string) *Room {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.rooms[sessionID]
}

// Remove closes and removes the room for the session.
func (m *RoomManager) Remove(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if room, ok := m.rooms[sessionID]; ok {
		room.Close()
		delete(m.rooms, sessionID)
	}
}

// Close closes all rooms.
func (m *RoomManager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, room := range m.rooms {
		room.Close()
	}
	m.rooms = make(map[string]*Room)
}
