package livesession

import "fmt"

// DeviceError reports a microphone or camera that could not be acquired, or
// one that failed mid-session. Terminal for the session; never retried.
type DeviceError struct {
	Reason string
	Err    error
}

func (e *DeviceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("device error: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("device error: %s", e.Reason)
}

func (e *DeviceError) Unwrap() error { return e.Err }

// TransportError reports a live connection that failed to open or died
// mid-stream. Terminal for the session; never retried.
type TransportError struct {
	Reason string
	Err    error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("transport error: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("transport error: %s", e.Reason)
}

func (e *TransportError) Unwrap() error { return e.Err }
