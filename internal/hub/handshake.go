package hub

import (
	"context"
	"crypto/rand"
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/tydom2mqtt/tydom2mqtt/internal/auth"
	"github.com/tydom2mqtt/tydom2mqtt/internal/logging"
	"github.com/tydom2mqtt/tydom2mqtt/internal/protocol"
)

const (
	// probeTimeout bounds the initial HTTPS challenge request.
	probeTimeout = 10 * time.Second

	// pingInterval is the keepalive period required by the cloud relay.
	// Local connections need no ping; the relay drops idle ones.
	pingInterval = 40 * time.Second
)

// Handshaker establishes authenticated sessions with one hub.
type Handshaker struct {
	creds auth.Credentials
	host  string
	mode  protocol.Mode
}

// NewHandshaker builds a handshaker for the given hub host. mode must match
// the host: remote for the cloud relay, local for a LAN address.
func NewHandshaker(creds auth.Credentials, host string, mode protocol.Mode) *Handshaker {
	return &Handshaker{creds: creds, host: host, mode: mode}
}

// mediationPath is the single endpoint the hub speaks on, for both the
// challenge probe and the websocket upgrade.
func (h *Handshaker) mediationPath() string {
	return fmt.Sprintf("/mediation/client?mac=%s&appli=1", h.creds.MAC)
}

// Connect performs the full handshake and returns an open session. Every
// failure is reported as HandshakeError; the caller decides whether to
// retry.
func (h *Handshaker) Connect(ctx context.Context) (*Session, error) {
	probeURL := fmt.Sprintf("https://%s:443%s", h.host, h.mediationPath())

	challenge, err := h.probe(ctx, probeURL)
	if err != nil {
		return nil, &HandshakeError{Step: "challenge probe", URL: probeURL, Err: err}
	}

	authorization, err := auth.BuildAuthorization(h.creds, challenge, http.MethodGet, h.mediationPath())
	if err != nil {
		return nil, &HandshakeError{Step: "digest computation", URL: probeURL, Err: err}
	}

	wsURL := fmt.Sprintf("wss://%s:443%s", h.host, h.mediationPath())
	conn, err := h.upgrade(ctx, wsURL, authorization)
	if err != nil {
		return nil, &HandshakeError{Step: "websocket upgrade", URL: wsURL, Err: err}
	}

	logging.Info("Connected to hub",
		zap.String("host", h.host),
		zap.String("mode", h.mode.String()),
		zap.String("mac", logging.Redact(h.creds.MAC)),
	)
	return newSession(conn, h.mode), nil
}

// probe issues the plaintext HTTPS GET that makes the hub reveal its digest
// challenge. The request carries websocket upgrade headers because the hub
// only answers with a challenge on upgrade attempts.
func (h *Handshaker) probe(ctx context.Context, url string) (*auth.Challenge, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	key, err := websocketKey()
	if err != nil {
		return nil, err
	}
	req.Header.Set("Connection", "Upgrade")
	req.Header.Set("Upgrade", "websocket")
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Sec-WebSocket-Key", key)
	req.Header.Set("Sec-WebSocket-Version", "13")

	client := &http.Client{
		Timeout: probeTimeout,
		Transport: &http.Transport{
			// The hub's certificate is self-signed; this connection is
			// authenticated by the digest exchange instead.
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, //nolint:gosec
		},
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	header := resp.Header.Get("WWW-Authenticate")
	if header == "" {
		return nil, fmt.Errorf("no WWW-Authenticate header in probe response (status %s)", resp.Status)
	}

	realm := auth.RealmLocal
	if h.mode == protocol.ModeRemote {
		realm = auth.RealmRemote
	}
	return auth.ParseChallenge(header, realm)
}

// upgrade opens the TLS websocket with the computed Authorization header.
func (h *Handshaker) upgrade(ctx context.Context, url, authorization string) (*websocket.Conn, error) {
	dialer := websocket.Dialer{
		TLSClientConfig:  &tls.Config{InsecureSkipVerify: true}, //nolint:gosec
		HandshakeTimeout: probeTimeout,
	}

	header := http.Header{}
	header.Set("Authorization", authorization)

	conn, resp, err := dialer.DialContext(ctx, url, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("%w (status %s)", err, resp.Status)
		}
		return nil, err
	}
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	return conn, nil
}

// websocketKey generates the random 16-byte base64 key required on the
// challenge probe.
func websocketKey() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf), nil
}
