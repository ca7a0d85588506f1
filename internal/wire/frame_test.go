package wire

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseKnownFrame(t *testing.T) {
	data := []byte(`{"type":"typing_update","user_id":"u1","is_typing":true,"timestamp":"2025-01-01T00:00:00Z"}`)

	f, err := Parse(data)
	require.NoError(t, err)
	require.Equal(t, TypeTypingUpdate, f.Type)
	require.Equal(t, "u1", f.UserID)
	require.True(t, f.Typing())
}

func TestAbsentIsTypingMeansFalse(t *testing.T) {
	f, err := Parse([]byte(`{"type":"typing_update","user_id":"u1"}`))
	require.NoError(t, err)
	require.Nil(t, f.IsTyping)
	require.False(t, f.Typing())
}

func TestParseUnknownTypeIsValid(t *testing.T) {
	data := []byte(`{"type":"server_notice","timestamp":"2025-01-01T00:00:00Z"}`)

	f, err := Parse(data)
	require.NoError(t, err)
	require.Equal(t, Type("server_notice"), f.Type)
}

func TestParseMalformedFrame(t *testing.T) {
	_, err := Parse([]byte(`{"type":`))
	require.Error(t, err)
}

func TestRosterAndTypersDefaultEmpty(t *testing.T) {
	f, err := Parse([]byte(`{"type":"session_joined"}`))
	require.NoError(t, err)

	// Absent lists must come back as empty collections, not nil.
	require.NotNil(t, f.Roster())
	require.NotNil(t, f.Typers())
	require.Empty(t, f.Roster())
	require.Empty(t, f.Typers())
}

func TestChatMessageBuilder(t *testing.T) {
	f := NewChatMessage("hello", "US-CA")
	require.Equal(t, TypeChatMessage, f.Type)
	require.Equal(t, "hello", f.Content)
	require.Equal(t, "US-CA", f.Jurisdiction)

	_, err := time.Parse(time.RFC3339, f.Timestamp)
	require.NoError(t, err)
}

func TestChatMessageOmitsEmptyJurisdiction(t *testing.T) {
	data, err := NewChatMessage("hi", "").Encode()
	require.NoError(t, err)
	require.NotContains(t, string(data), "jurisdiction")
}

func TestJurisdictionUpdateDefaultsConfidence(t *testing.T) {
	f := NewJurisdictionUpdate("US-NY", 0)
	require.Equal(t, 1.0, f.Confidence)

	f = NewJurisdictionUpdate("US-NY", 0.4)
	require.Equal(t, 0.4, f.Confidence)
}

func TestTypingBuilderEncodesIsTyping(t *testing.T) {
	data, err := NewTyping(true).Encode()
	require.NoError(t, err)
	require.Contains(t, string(data), `"is_typing":true`)

	// an explicit false must survive encoding so the server clears the indicator
	data, err = NewTyping(false).Encode()
	require.NoError(t, err)
	require.Contains(t, string(data), `"is_typing":false`)
}

func TestNonTypingFramesOmitIsTyping(t *testing.T) {
	for _, f := range []*Frame{
		NewChatMessage("hello", "US-CA"),
		NewJurisdictionUpdate("US-NY", 0.9),
		NewRequestContext(),
	} {
		data, err := f.Encode()
		require.NoError(t, err)
		require.NotContains(t, string(data), "is_typing", "frame type %s", f.Type)
	}
}
