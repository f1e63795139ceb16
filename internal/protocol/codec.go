package protocol

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// CmdPrefix is the control byte prefixed to every frame in remote mode.
const CmdPrefix = 0x02

// sniffLen is how many leading bytes are inspected to detect a frame's
// shape. Matches the original reverse-engineered behaviour of scanning
// roughly the first 40 characters.
const sniffLen = 40

// Mode selects the framing variant for a session. It is fixed at session
// construction from the configured host and never changes afterwards.
type Mode int

const (
	// ModeRemote reaches the hub through the vendor's cloud relay:
	// control-byte prefix on every frame, 40s ping keepalive.
	ModeRemote Mode = iota
	// ModeLocal reaches the hub directly on the LAN: no prefix, no
	// ping-based liveness.
	ModeLocal
)

func (m Mode) String() string {
	if m == ModeRemote {
		return "remote"
	}
	return "local"
}

// prefixLen returns the control prefix length for the mode.
func (m Mode) prefixLen() int {
	if m == ModeRemote {
		return 1
	}
	return 0
}

// EncodeRequest builds an outbound hub frame for the given method, path and
// optional JSON body. The result is sent as a single websocket binary frame.
func EncodeRequest(mode Mode, method, path string, body []byte) []byte {
	var buf bytes.Buffer
	if mode == ModeRemote {
		buf.WriteByte(CmdPrefix)
	}
	fmt.Fprintf(&buf, "%s %s HTTP/1.1\r\n", method, path)
	fmt.Fprintf(&buf, "Content-Length: %d\r\n", len(body))
	buf.WriteString("Content-Type: application/json; charset=UTF-8\r\n")
	buf.WriteString("Transac-Id: 0\r\n")
	buf.WriteString("\r\n")
	if len(body) > 0 {
		buf.Write(body)
		buf.WriteString("\r\n\r\n")
	}
	return buf.Bytes()
}

// PayloadType is the transport-level shape of an inbound frame.
type PayloadType int

const (
	// PayloadResponse is a standard HTTP response (GET results).
	PayloadResponse PayloadType = iota
	// PayloadPutAck is a recovered PUT/POST acknowledgement body.
	PayloadPutAck
	// PayloadRefreshAck is the no-op refresh keepalive acknowledgement.
	PayloadRefreshAck
	// PayloadUnknown is anything the decoder does not recognize.
	PayloadUnknown
)

func (t PayloadType) String() string {
	switch t {
	case PayloadResponse:
		return "response"
	case PayloadPutAck:
		return "put-ack"
	case PayloadRefreshAck:
		return "refresh-ack"
	default:
		return "unknown"
	}
}

// Payload is a decoded inbound frame. Body is the UTF-8 message body for
// response and put-ack payloads, nil otherwise. Raw always holds the
// original frame bytes for logging.
type Payload struct {
	Type PayloadType
	Body []byte
	Raw  []byte
}

// Decode turns a raw inbound frame into a Payload. Unrecognized frames
// decode successfully as PayloadUnknown; an error is only returned when a
// recognized shape fails to parse (FrameParseError).
func Decode(mode Mode, frame []byte) (*Payload, error) {
	first := sniff(frame)

	switch {
	case strings.Contains(first, "Uri-Origin: /refresh/all"):
		return &Payload{Type: PayloadRefreshAck, Raw: frame}, nil

	case strings.Contains(first, "PUT /devices/data"),
		strings.Contains(first, "/devices/cdata"),
		strings.Contains(first, "POST"):
		body, err := RecoverPutBody(stripPrefix(mode, frame))
		if err != nil {
			return nil, &FrameParseError{
				Message: "failed to recover PUT/POST acknowledgement body",
				Raw:     frame,
				Err:     err,
			}
		}
		return &Payload{Type: PayloadPutAck, Body: body, Raw: frame}, nil

	case strings.Contains(first, "HTTP/1.1"):
		body, err := parseHTTPResponse(stripPrefix(mode, frame))
		if err != nil {
			return nil, &FrameParseError{
				Message: "failed to parse HTTP response frame",
				Raw:     frame,
				Err:     err,
			}
		}
		return &Payload{Type: PayloadResponse, Body: body, Raw: frame}, nil

	default:
		return &Payload{Type: PayloadUnknown, Raw: frame}, nil
	}
}

// sniff returns the leading bytes used for shape detection.
func sniff(frame []byte) string {
	if len(frame) > sniffLen {
		frame = frame[:sniffLen]
	}
	return string(frame)
}

// stripPrefix removes the control byte in remote mode. Tolerates frames
// that arrive without it.
func stripPrefix(mode Mode, frame []byte) []byte {
	n := mode.prefixLen()
	if n > 0 && len(frame) > 0 && frame[0] == CmdPrefix {
		return frame[n:]
	}
	return frame
}

// parseHTTPResponse parses a standard HTTP response frame and returns its
// body. The hub sends well-formed responses for GET requests, so a
// conformant parser is used here rather than hand-rolled splitting.
func parseHTTPResponse(frame []byte) ([]byte, error) {
	resp, err := http.ReadResponse(bufio.NewReader(bytes.NewReader(frame)), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		// Hub responses occasionally under-deliver on the declared
		// Content-Length; whatever was read is still usable.
		if len(body) > 0 {
			return body, nil
		}
		return nil, err
	}
	return body, nil
}

// RecoverPutBody reassembles the JSON body of a malformed PUT/POST
// acknowledgement. The hub emits these with an interleaved chunk-like
// framing: after the status line and a fixed set of five headers, body
// fragments alternate with chunk-size fields. Concatenating every other
// field until an empty field or a literal "0" recovers the JSON document.
func RecoverPutBody(frame []byte) ([]byte, error) {
	fields := strings.Split(string(frame), "\r\n")
	if len(fields) <= 6 {
		return nil, fmt.Errorf("acknowledgement too short: %d fields", len(fields))
	}
	// Drop the status line and the fixed header set.
	fields = fields[6:]

	var out strings.Builder
	for i := 0; i < len(fields); i += 2 {
		field := fields[i]
		if len(field) == 0 || field == "0" {
			break
		}
		out.WriteString(field)
	}

	body := []byte(out.String())
	if !json.Valid(body) {
		return nil, fmt.Errorf("recovered body is not valid JSON: %q", out.String())
	}
	return body, nil
}
