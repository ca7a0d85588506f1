package session

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/jurishub/chatclient/internal/wire"
)

func userIDGen() gopter.Gen {
	return gen.AlphaString().SuchThat(func(s string) bool {
		return len(s) > 0 && len(s) <= 32
	})
}

func TestTypingSetProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("repeated typing_update true is idempotent", prop.ForAll(
		func(userID string, repeats int) bool {
			p := &projector{}
			f := &wire.Frame{Type: wire.TypeTypingUpdate, UserID: userID, IsTyping: wire.Bool(true)}

			for i := 0; i < repeats; i++ {
				p.run(f, Callbacks{})
			}

			return len(p.typing) == 1 && p.typing[0] == userID
		},
		userIDGen(),
		gen.IntRange(1, 10),
	))

	properties.Property("typing_update false removes regardless of prior state", prop.ForAll(
		func(userID string, present bool) bool {
			p := &projector{}
			if present {
				p.typing = []string{userID}
			}

			p.run(&wire.Frame{Type: wire.TypeTypingUpdate, UserID: userID, IsTyping: wire.Bool(false)}, Callbacks{})

			for _, v := range p.typing {
				if v == userID {
					return false
				}
			}
			return true
		},
		userIDGen(),
		gen.Bool(),
	))

	properties.Property("ai_message always clears the AI typing indicator", prop.ForAll(
		func(content string, aiTypingFirst bool) bool {
			p := &projector{}
			if aiTypingFirst {
				p.run(&wire.Frame{Type: wire.TypeAITyping, IsTyping: wire.Bool(true)}, Callbacks{})
			}

			p.run(&wire.Frame{Type: wire.TypeAIMessage, Content: content}, Callbacks{})

			for _, v := range p.typing {
				if v == wire.AIParticipant {
					return false
				}
			}
			return true
		},
		gen.AnyString(),
		gen.Bool(),
	))

	properties.TestingRun(t)
}

func TestSnapshotReplaceProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("session snapshot replaces the roster exactly", prop.ForAll(
		func(before, after []string) bool {
			p := &projector{roster: append([]string{}, before...)}

			p.run(&wire.Frame{
				Type:        wire.TypeSessionContext,
				ActiveUsers: after,
				TypingUsers: []string{},
			}, Callbacks{})

			if len(p.roster) != len(after) {
				return false
			}
			for i := range after {
				if p.roster[i] != after[i] {
					return false
				}
			}
			return len(p.typing) == 0
		},
		gen.SliceOf(userIDGen()),
		gen.SliceOf(userIDGen()),
	))

	properties.Property("unknown frame types never change derived state", prop.ForAll(
		func(typeName string, roster []string) bool {
			switch wire.Type(typeName) {
			case wire.TypeSessionJoined, wire.TypeUserJoined, wire.TypeUserLeft,
				wire.TypeTypingUpdate, wire.TypeAITyping, wire.TypeAIMessage,
				wire.TypeSessionContext, wire.TypeError:
				return true // only exercise unknown types
			}

			p := &projector{roster: append([]string{}, roster...)}
			p.run(&wire.Frame{Type: wire.Type(typeName)}, Callbacks{})

			if len(p.roster) != len(roster) {
				return false
			}
			for i := range roster {
				if p.roster[i] != roster[i] {
					return false
				}
			}
			return len(p.typing) == 0 && p.lastErr == ""
		},
		gen.AlphaString(),
		gen.SliceOf(userIDGen()),
	))

	properties.TestingRun(t)
}
