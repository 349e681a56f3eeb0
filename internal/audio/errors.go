package audio

import "fmt"

// DeviceError reports a failure to open or start a hardware input stream.
// It is fatal to the session that attempted the open but must not affect
// other sessions.
type DeviceError struct {
	Op     string // "open", "start", "enumerate"
	Device string // device name or index description
	Err    error
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("audio device %s: %s: %v", e.Device, e.Op, e.Err)
}

func (e *DeviceError) Unwrap() error { return e.Err }

// StreamStopError reports that an adapter failed to shut down cleanly.
// Teardown is best effort: callers log it and carry on with the stop.
type StreamStopError struct {
	Device string
	Err    error
}

func (e *StreamStopError) Error() string {
	return fmt.Sprintf("audio device %s: stop: %v", e.Device, e.Err)
}

func (e *StreamStopError) Unwrap() error { return e.Err }
