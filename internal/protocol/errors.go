package protocol

import "fmt"

// FrameParseError reports a single inbound frame that matched a known shape
// but could not be decoded. It is non-fatal: the caller logs it with the
// raw frame and drops the message.
type FrameParseError struct {
	Message string
	Raw     []byte
	Err     error
}

func (e *FrameParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("frame parse error: %s: %v", e.Message, e.Err)
	}
	return fmt.Sprintf("frame parse error: %s", e.Message)
}

func (e *FrameParseError) Unwrap() error {
	return e.Err
}
