package extractor

import "fmt"

// ExtractionError reports a devices-data payload that could not be
// processed. Like frame parse errors it is non-fatal: the caller logs it
// and drops the message.
type ExtractionError struct {
	Message string
	Err     error
}

func (e *ExtractionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("extraction error: %s: %v", e.Message, e.Err)
	}
	return fmt.Sprintf("extraction error: %s", e.Message)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}
