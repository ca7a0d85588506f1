package chat

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jurishub/chatclient/internal/session"
	"github.com/jurishub/chatclient/internal/transport"
	"github.com/jurishub/chatclient/internal/wire"
)

type stubTransport struct {
	sessionID string

	mu     sync.Mutex
	sent   [][]byte
	closed bool
}

func (s *stubTransport) Start(onMessage func([]byte), onClose func(error)) {}

func (s *stubTransport) Send(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, data)
	return nil
}

func (s *stubTransport) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *stubTransport) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// stubDialer records every dial and keeps the transports it handed out.
type stubDialer struct {
	mu     sync.Mutex
	dialed []*stubTransport
}

func (d *stubDialer) dial(ctx context.Context, sessionID string) (transport.Transport, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	tr := &stubTransport{sessionID: sessionID}
	d.dialed = append(d.dialed, tr)
	return tr, nil
}

func (d *stubDialer) transports() []*stubTransport {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*stubTransport{}, d.dialed...)
}

func waitForState(t *testing.T, c *Client, want State) {
	t.Helper()
	require.Eventually(t, func() bool {
		return c.Snapshot().State == want
	}, time.Second, time.Millisecond, "client never reached %s", want)
}

func TestSetSessionConnects(t *testing.T) {
	dialer := &stubDialer{}
	c := New(dialer.dial, Callbacks{}, DefaultConfig())

	c.SetSession(context.Background(), "session-1")
	waitForState(t, c, session.StateOpen)

	trs := dialer.transports()
	require.Len(t, trs, 1)
	require.Equal(t, "session-1", trs[0].sessionID)
}

func TestSetSessionUnchangedIsNoOp(t *testing.T) {
	dialer := &stubDialer{}
	c := New(dialer.dial, Callbacks{}, DefaultConfig())

	c.SetSession(context.Background(), "session-1")
	waitForState(t, c, session.StateOpen)
	c.SetSession(context.Background(), "session-1")

	require.Len(t, dialer.transports(), 1)
	require.False(t, dialer.transports()[0].isClosed())
}

func TestSetSessionSwitchTearsDownPreviousConnection(t *testing.T) {
	dialer := &stubDialer{}
	c := New(dialer.dial, Callbacks{}, DefaultConfig())

	c.SetSession(context.Background(), "session-1")
	waitForState(t, c, session.StateOpen)

	c.SetSession(context.Background(), "session-2")
	waitForState(t, c, session.StateOpen)

	trs := dialer.transports()
	require.Len(t, trs, 2)
	require.True(t, trs[0].isClosed())
	require.False(t, trs[1].isClosed())
	require.Equal(t, "session-2", trs[1].sessionID)
}

func TestSetSessionEmptyDeactivates(t *testing.T) {
	dialer := &stubDialer{}
	c := New(dialer.dial, Callbacks{}, DefaultConfig())

	c.SetSession(context.Background(), "session-1")
	waitForState(t, c, session.StateOpen)

	c.SetSession(context.Background(), "")

	require.True(t, dialer.transports()[0].isClosed())
	snap := c.Snapshot()
	require.Equal(t, session.StateIdle, snap.State)
	require.Empty(t, snap.ActiveUsers)
	require.Empty(t, snap.TypingUsers)
}

func TestOperationsWithoutActiveSessionAreNoOps(t *testing.T) {
	dialer := &stubDialer{}
	c := New(dialer.dial, Callbacks{}, DefaultConfig())

	c.SendMessage("hello", "")
	c.SendTyping(true)
	c.UpdateJurisdiction("US-CA", 0.8)
	c.RequestContext()
	c.Disconnect()
	c.Reconnect(context.Background())

	require.Empty(t, dialer.transports())
}

func TestSendMessageGoesThroughActiveTransport(t *testing.T) {
	dialer := &stubDialer{}
	c := New(dialer.dial, Callbacks{}, DefaultConfig())

	c.SetSession(context.Background(), "session-1")
	waitForState(t, c, session.StateOpen)

	c.SendMessage("hello", "US-CA")

	tr := dialer.transports()[0]
	require.Eventually(t, func() bool {
		tr.mu.Lock()
		defer tr.mu.Unlock()
		return len(tr.sent) == 1
	}, time.Second, time.Millisecond)

	tr.mu.Lock()
	f, err := wire.Parse(tr.sent[0])
	tr.mu.Unlock()
	require.NoError(t, err)
	require.Equal(t, wire.TypeChatMessage, f.Type)
	require.Equal(t, "hello", f.Content)
	require.Equal(t, "US-CA", f.Jurisdiction)
}

func TestCloseDeactivates(t *testing.T) {
	dialer := &stubDialer{}
	c := New(dialer.dial, Callbacks{}, DefaultConfig())

	c.SetSession(context.Background(), "session-1")
	waitForState(t, c, session.StateOpen)

	c.Close()

	require.True(t, dialer.transports()[0].isClosed())
	require.Equal(t, session.StateIdle, c.Snapshot().State)
}
