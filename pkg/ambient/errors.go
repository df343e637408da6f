package ambient

import (
	"errors"
	"fmt"
)

var (
	// ErrDeviceNotFound is returned when the device index is out of range or
	// the MAC address is not registered to the account.
	ErrDeviceNotFound = errors.New("ambient: device not found")
	// ErrNoData is returned when the vendor answered but holds no reading
	// for the device.
	ErrNoData = errors.New("ambient: no data for device")
)

// maxErrorBody caps how much of a response body goes into an error string.
const maxErrorBody = 512

// StatusError is returned for any non-2xx response, including rejected
// keys and rate-limit answers.
type StatusError struct {
	StatusCode int
	Body       []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("ambient: API returned status %d: %s", e.StatusCode, clip(e.Body))
}

// DecodeError is returned when a response body does not have the expected
// JSON shape. Body holds the raw payload.
type DecodeError struct {
	Body []byte
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("ambient: failed to parse response: %v\nResponse:\n%s", e.Err, clip(e.Body))
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func clip(body []byte) string {
	if len(body) > maxErrorBody {
		return string(body[:maxErrorBody]) + "..."
	}
	return string(body)
}
