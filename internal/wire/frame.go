// Package wire defines the tagged JSON frames exchanged with the session endpoint.
package wire

import (
	"encoding/json"
	"fmt"
	"time"
)

// Type is the discriminator carried in every frame.
type Type string

const (
	// Server -> Client frame types
	TypeSessionJoined  Type = "session_joined"
	TypeUserJoined     Type = "user_joined"
	TypeUserLeft       Type = "user_left"
	TypeTypingUpdate   Type = "typing_update"
	TypeAITyping       Type = "ai_typing"
	TypeAIMessage      Type = "ai_message"
	TypeSessionContext Type = "session_context"
	TypeError          Type = "error"

	// Client -> Server frame types
	TypeChatMessage        Type = "chat_message"
	TypeTyping             Type = "typing"
	TypeJurisdictionUpdate Type = "jurisdiction_update"
	TypeRequestContext     Type = "request_context"
)

// AIParticipant is the reserved participant identifier for the AI assistant.
// It appears in typing sets alongside human user identifiers.
const AIParticipant = "ai-assistant"

// Frame is one complete tagged message unit. Fields beyond Type and Timestamp
// are populated per type; unknown types carry whatever the server sent and are
// still valid frames.
type Frame struct {
	Type      Type   `json:"type"`
	Timestamp string `json:"timestamp,omitempty"`

	// Presence fields. IsTyping is a pointer so typing frames can carry an
	// explicit false while every other frame omits the field.
	UserID      string   `json:"user_id,omitempty"`
	ActiveUsers []string `json:"active_users,omitempty"`
	TypingUsers []string `json:"typing_users,omitempty"`
	IsTyping    *bool    `json:"is_typing,omitempty"`

	// Chat fields
	Content      string         `json:"content,omitempty"`
	Jurisdiction string         `json:"jurisdiction,omitempty"`
	Confidence   float64        `json:"confidence,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`

	Error string `json:"error,omitempty"`
}

// Parse decodes a raw inbound frame. A frame with an unrecognized type is not
// an error; only malformed JSON is.
func Parse(data []byte) (*Frame, error) {
	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse frame: %w", err)
	}
	return &f, nil
}

// Encode serializes the frame for transmission.
func (f *Frame) Encode() ([]byte, error) {
	data, err := json.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("failed to encode frame: %w", err)
	}
	return data, nil
}

// Roster returns the active-user list, never nil.
func (f *Frame) Roster() []string {
	if f.ActiveUsers == nil {
		return []string{}
	}
	return f.ActiveUsers
}

// Typers returns the typing-user list, never nil.
func (f *Frame) Typers() []string {
	if f.TypingUsers == nil {
		return []string{}
	}
	return f.TypingUsers
}

// Typing reports the is_typing flag; an absent field means false.
func (f *Frame) Typing() bool {
	return f.IsTyping != nil && *f.IsTyping
}

// Bool returns a pointer to v for the IsTyping field.
func Bool(v bool) *bool {
	return &v
}

// NewChatMessage builds an outbound chat message frame. Jurisdiction is
// optional and omitted when empty.
func NewChatMessage(content, jurisdiction string) *Frame {
	return &Frame{
		Type:         TypeChatMessage,
		Content:      content,
		Jurisdiction: jurisdiction,
		Timestamp:    stamp(),
	}
}

// NewTyping builds an outbound typing indicator frame.
func NewTyping(isTyping bool) *Frame {
	return &Frame{
		Type:      TypeTyping,
		IsTyping:  Bool(isTyping),
		Timestamp: stamp(),
	}
}

// NewJurisdictionUpdate builds an outbound jurisdiction update frame.
// A zero confidence defaults to 1.0.
func NewJurisdictionUpdate(jurisdiction string, confidence float64) *Frame {
	if confidence == 0 {
		confidence = 1.0
	}
	return &Frame{
		Type:         TypeJurisdictionUpdate,
		Jurisdiction: jurisdiction,
		Confidence:   confidence,
		Timestamp:    stamp(),
	}
}

// NewRequestContext builds an outbound session context request frame.
func NewRequestContext() *Frame {
	return &Frame{
		Type:      TypeRequestContext,
		Timestamp: stamp(),
	}
}

func stamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}
