package chat

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/NahidNoorshat/ecommerce-backend/internal/pkg/errs"
)

// socketPair upgrades one client connection against a throwaway server and
// hands back both ends of the transport.
func socketPair(t *testing.T) (server, client *websocket.Conn) {
	t.Helper()

	upgrader := websocket.Upgrader{}
	serverConns := make(chan *websocket.Conn, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		serverConns <- conn
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	client, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	server = <-serverConns
	t.Cleanup(func() { server.Close() })
	return server, client
}

func TestWritePumpStopsWhenTransportCloses(t *testing.T) {
	server, _ := socketPair(t)

	c := newWSConn(server, NewHub(), zerolog.Nop())

	done := make(chan struct{})
	go func() {
		c.writePump()
		close(done)
	}()

	// What the session cleanup does once its read loop exits.
	_ = server.Close()

	// Hand the pump a frame so it hits the dead transport right away rather
	// than waiting for its ping ticker.
	c.SendFunc()([]byte(`{"type":"pong"}`))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("write pump still running after the transport closed")
	}
}

func TestFatalQueuesCloseFrameAndMarksSessionTerminal(t *testing.T) {
	server, client := socketPair(t)

	c := newWSConn(server, NewHub(), zerolog.Nop())
	go c.writePump()

	c.fatal(errs.NewError(errs.ErrUnknown))
	require.True(t, c.terminal)

	_ = client.SetReadDeadline(time.Now().Add(2 * time.Second))

	// The diagnostic frame arrives first, then the close with the error's
	// close code.
	_, raw, err := client.ReadMessage()
	require.NoError(t, err)
	require.Contains(t, string(raw), "Something went wrong")

	_, _, err = client.ReadMessage()
	require.True(t, websocket.IsCloseError(err, 4000), "expected close 4000, got %v", err)
}
