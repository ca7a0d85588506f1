package session

import "github.com/jurishub/chatclient/internal/wire"

// projector folds the inbound tagged-message stream into derived session
// state: the participant roster, the typing set (which may contain the
// reserved AI identifier), and the last error. It owns that state
// exclusively; the manager reads it only under its own lock.
type projector struct {
	roster  []string
	typing  []string
	lastErr string
}

// defaultErrorMessage is surfaced when a server error frame carries no text.
const defaultErrorMessage = "An error occurred"

// apply folds one frame and returns the host callbacks it triggered, in
// invocation order: the type-specific callback first, the generic message
// callback last. The caller runs them outside the lock.
func (p *projector) apply(f *wire.Frame, cb Callbacks) []func() {
	var fires []func()

	switch f.Type {
	case wire.TypeSessionJoined, wire.TypeSessionContext:
		// Full snapshot replace, never a merge.
		p.roster = append([]string{}, f.Roster()...)
		p.typing = append([]string{}, f.Typers()...)

	case wire.TypeUserJoined:
		p.roster = addUnique(p.roster, f.UserID)
		if cb.OnUserJoined != nil {
			id := f.UserID
			fires = append(fires, func() { cb.OnUserJoined(id) })
		}

	case wire.TypeUserLeft:
		p.roster = removeParticipant(p.roster, f.UserID)
		p.typing = removeParticipant(p.typing, f.UserID)
		if cb.OnUserLeft != nil {
			id := f.UserID
			fires = append(fires, func() { cb.OnUserLeft(id) })
		}

	case wire.TypeTypingUpdate:
		if f.Typing() {
			p.typing = addParticipant(p.typing, f.UserID)
		} else {
			p.typing = removeParticipant(p.typing, f.UserID)
		}
		if cb.OnTyping != nil {
			id, isTyping := f.UserID, f.Typing()
			fires = append(fires, func() { cb.OnTyping(id, isTyping) })
		}

	case wire.TypeAITyping:
		// Dedicated signal; the generic typing callback does not fire.
		if f.Typing() {
			p.typing = addParticipant(p.typing, wire.AIParticipant)
		} else {
			p.typing = removeParticipant(p.typing, wire.AIParticipant)
		}

	case wire.TypeAIMessage:
		p.typing = removeParticipant(p.typing, wire.AIParticipant)
		if cb.OnAIResponse != nil {
			content, metadata := f.Content, f.Metadata
			fires = append(fires, func() { cb.OnAIResponse(content, metadata) })
		}

	case wire.TypeError:
		msg := f.Error
		if msg == "" {
			msg = defaultErrorMessage
		}
		p.lastErr = msg
		if cb.OnError != nil {
			fires = append(fires, func() { cb.OnError(msg) })
		}
	}

	// Every inbound frame reaches the generic handler, unknown types included.
	if cb.OnMessage != nil {
		frame := f
		fires = append(fires, func() { cb.OnMessage(frame) })
	}

	return fires
}

// reset clears all derived state.
func (p *projector) reset() {
	p.roster = nil
	p.typing = nil
	p.lastErr = ""
}

// addUnique appends id if absent, preserving insertion order on re-add.
func addUnique(list []string, id string) []string {
	if id == "" {
		return list
	}
	for _, v := range list {
		if v == id {
			return list
		}
	}
	return append(list, id)
}

// addParticipant appends id, moving it to the end if already present.
// Re-adding an already-typing participant leaves membership unchanged.
func addParticipant(list []string, id string) []string {
	if id == "" {
		return list
	}
	return append(removeParticipant(list, id), id)
}

// removeParticipant drops id from the list; safe when absent.
func removeParticipant(list []string, id string) []string {
	out := list[:0]
	for _, v := range list {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
