package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

var testUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// echoServer upgrades, records the request, and echoes every frame back.
func echoServer(t *testing.T, gotPath *string, gotUser *string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if gotPath != nil {
			*gotPath = r.URL.Path
		}
		if gotUser != nil {
			*gotUser = r.URL.Query().Get("user")
		}

		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		for {
			mt, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if err := conn.WriteMessage(mt, data); err != nil {
				return
			}
		}
	}))
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestDialerResolvesSessionEndpoint(t *testing.T) {
	var path, user string
	srv := echoServer(t, &path, &user)
	defer srv.Close()

	dial := NewDialer(wsURL(srv), "u1")
	tr, err := dial(context.Background(), "sess-42")
	require.NoError(t, err)
	defer tr.Close()

	require.Equal(t, "/ws/sessions/sess-42", path)
	require.Equal(t, "u1", user)
}

func TestDialerFailsForUnreachableEndpoint(t *testing.T) {
	dial := NewDialer("ws://127.0.0.1:1", "")
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	_, err := dial(ctx, "sess-1")
	require.Error(t, err)
}

func TestSendAndReceiveRoundTrip(t *testing.T) {
	srv := echoServer(t, nil, nil)
	defer srv.Close()

	dial := NewDialer(wsURL(srv), "")
	tr, err := dial(context.Background(), "sess-1")
	require.NoError(t, err)
	defer tr.Close()

	var mu sync.Mutex
	var received [][]byte
	tr.Start(
		func(data []byte) {
			mu.Lock()
			received = append(received, data)
			mu.Unlock()
		},
		func(err error) {},
	)

	require.NoError(t, tr.Send([]byte(`{"type":"typing","is_typing":true}`)))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(received) == 1
	}, time.Second, time.Millisecond)

	mu.Lock()
	require.JSONEq(t, `{"type":"typing","is_typing":true}`, string(received[0]))
	mu.Unlock()
}

func TestServerCloseReportsExactlyOnce(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		conn.Close()
	}))
	defer srv.Close()

	dial := NewDialer(wsURL(srv), "")
	tr, err := dial(context.Background(), "sess-1")
	require.NoError(t, err)

	var mu sync.Mutex
	closes := 0
	var closeErr error
	tr.Start(
		func([]byte) {},
		func(err error) {
			mu.Lock()
			closes++
			closeErr = err
			mu.Unlock()
		},
	)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return closes == 1
	}, time.Second, time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	// A normal closure is a clean close, not an error.
	require.NoError(t, closeErr)
	require.Equal(t, 1, closes)
}

func TestReadPumpExitReleasesConnection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		conn.Close()
	}))
	defer srv.Close()

	dial := NewDialer(wsURL(srv), "")
	tr, err := dial(context.Background(), "sess-1")
	require.NoError(t, err)

	closed := make(chan struct{})
	tr.Start(
		func([]byte) {},
		func(err error) { close(closed) },
	)

	select {
	case <-closed:
	case <-time.After(time.Second):
		t.Fatal("close was never reported")
	}

	// The pump tears down the underlying connection on exit, so the handle
	// cannot keep a descriptor alive after the close event.
	require.Eventually(t, func() bool {
		return tr.Send([]byte(`{}`)) != nil
	}, time.Second, time.Millisecond)
}

func TestCloseIsIdempotent(t *testing.T) {
	srv := echoServer(t, nil, nil)
	defer srv.Close()

	dial := NewDialer(wsURL(srv), "")
	tr, err := dial(context.Background(), "sess-1")
	require.NoError(t, err)

	require.NoError(t, tr.Close())
	require.NoError(t, tr.Close())
}
