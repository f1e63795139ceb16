package hub

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/tydom2mqtt/tydom2mqtt/internal/logging"
	"github.com/tydom2mqtt/tydom2mqtt/internal/protocol"
)

const writeWait = 10 * time.Second

// Session is one authenticated websocket connection to the hub. A session
// has a single reader (ReadFrame must be called from one goroutine) and any
// number of writers; writes are serialized internally.
type Session struct {
	conn *websocket.Conn
	mode protocol.Mode

	writeMu sync.Mutex

	closeOnce sync.Once
	done      chan struct{}
}

func newSession(conn *websocket.Conn, mode protocol.Mode) *Session {
	s := &Session{
		conn: conn,
		mode: mode,
		done: make(chan struct{}),
	}
	if mode == protocol.ModeRemote {
		go s.pingLoop()
	}
	return s
}

// Mode returns the session's framing mode.
func (s *Session) Mode() protocol.Mode {
	return s.mode
}

// ReadFrame blocks until the next raw binary frame arrives. A closed or
// broken connection surfaces as TransportError, which ends the session.
func (s *Session) ReadFrame() ([]byte, error) {
	for {
		messageType, data, err := s.conn.ReadMessage()
		if err != nil {
			return nil, &TransportError{Op: "read", Err: err}
		}
		if messageType != websocket.BinaryMessage && messageType != websocket.TextMessage {
			continue
		}
		return data, nil
	}
}

// WriteFrame sends one raw frame as a binary websocket message. Safe for
// concurrent use.
func (s *Session) WriteFrame(frame []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return &TransportError{Op: "write deadline", Err: err}
	}
	if err := s.conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
		return &TransportError{Op: "write", Err: err}
	}
	return nil
}

// Close tears the connection down. Idempotent.
func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		err = s.conn.Close()
	})
	return err
}

// pingLoop keeps the cloud relay from dropping an idle connection. The
// relay enforces roughly 40s of tolerated silence; LAN connections break
// when pinged, so this only runs in remote mode.
func (s *Session) pingLoop() {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			if !s.pingOnce() {
				return
			}
		}
	}
}

// pingOnce sends one keepalive ping. A write failure means the connection
// is no longer usable, so the session is torn down to unblock ReadFrame
// and let the caller reconnect.
func (s *Session) pingOnce() bool {
	s.writeMu.Lock()
	err := s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
	s.writeMu.Unlock()
	if err != nil {
		logging.Warn("Keepalive ping failed, closing session", zap.Error(err))
		_ = s.Close()
		return false
	}
	logging.Debug("Keepalive ping sent")
	return true
}
