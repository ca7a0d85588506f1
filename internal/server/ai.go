package server

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jurishub/chatclient/internal/wire"
)

// AIResponder emits the AI participant's side of a conversation: a typing
// signal, a thinking delay, then the response. Clients clear the AI typing
// indicator when the response frame arrives.
type AIResponder struct {
	// ThinkDelay is the pause between the typing signal and the response.
	ThinkDelay time.Duration

	// Reply produces the response content for a user message. The default
	// produces a canned acknowledgment.
	Reply func(sessionID, content string) string
}

// NewAIResponder creates a responder with a short default thinking delay.
func NewAIResponder() *AIResponder {
	return &AIResponder{ThinkDelay: 300 * time.Millisecond}
}

// Respond asynchronously delivers the AI participant's answer to the room.
func (a *AIResponder) Respond(room *Room, content string) {
	go func() {
		room.setAITyping(true)

		if a.ThinkDelay > 0 {
			time.Sleep(a.ThinkDelay)
		}

		reply := a.Reply
		if reply == nil {
			reply = defaultReply
		}

		room.mu.Lock()
		room.typing = remove(room.typing, wire.AIParticipant)
		room.mu.Unlock()

		room.Broadcast(&wire.Frame{
			Type:    wire.TypeAIMessage,
			Content: reply(room.SessionID(), content),
			Metadata: map[string]any{
				"message_id":   uuid.New().String(),
				"jurisdiction": room.Jurisdiction(),
			},
			Timestamp: stamp(),
		})
	}()
}

func defaultReply(sessionID, content string) string {
	return fmt.Sprintf("I received your message (%d characters). A full answer requires a connected assistant backend.", len(content))
}
