package hub

import "fmt"

// HandshakeError reports a failed connection attempt. URL never contains
// credentials; the Authorization header is not retained.
type HandshakeError struct {
	Step string
	URL  string
	Err  error
}

func (e *HandshakeError) Error() string {
	return fmt.Sprintf("handshake failed at %s (%s): %v", e.Step, e.URL, e.Err)
}

func (e *HandshakeError) Unwrap() error {
	return e.Err
}

// TransportError reports a read or write failure on an established
// session. It is fatal for the session: the supervisor tears the bridge
// down and reconnects from scratch.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport %s failed: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ConfigurationError reports a command rejected before any network I/O
// because required configuration is missing.
type ConfigurationError struct {
	Message string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s", e.Message)
}
