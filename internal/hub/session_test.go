package hub

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"

	"github.com/tydom2mqtt/tydom2mqtt/internal/protocol"
)

// dialTestSession connects a session to an in-process websocket server
// that drains inbound messages until the connection drops.
func dialTestSession(t *testing.T) *Session {
	t.Helper()

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}

	s := newSession(conn, protocol.ModeLocal)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestPingOnceHealthyConnection(t *testing.T) {
	s := dialTestSession(t)

	if !s.pingOnce() {
		t.Error("pingOnce() = false on a healthy connection, want true")
	}
	select {
	case <-s.done:
		t.Error("session closed after a successful ping")
	default:
	}
}

func TestPingFailureClosesSession(t *testing.T) {
	s := dialTestSession(t)

	// Break the transport underneath the websocket so the next control
	// write fails the way a dead relay connection does.
	if err := s.conn.UnderlyingConn().Close(); err != nil {
		t.Fatalf("closing underlying connection: %v", err)
	}

	if s.pingOnce() {
		t.Error("pingOnce() = true on a broken connection, want false")
	}
	select {
	case <-s.done:
	default:
		t.Error("session left open after a failed ping")
	}
	if _, err := s.ReadFrame(); err == nil {
		t.Error("ReadFrame() succeeded on a torn-down session")
	}
}
