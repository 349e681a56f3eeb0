package audio

import (
	"fmt"
	"strings"
	"sync"

	"github.com/gordonklaus/portaudio"
)

// Initialize brings up the PortAudio host API. Call once at process start;
// pair with Terminate.
func Initialize() error {
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize PortAudio: %w", err)
	}
	return nil
}

// Terminate shuts the PortAudio host API down.
func Terminate() error {
	return portaudio.Terminate()
}

type paStream struct {
	name   string
	stream *portaudio.Stream

	mu      sync.Mutex
	started bool
	stopped bool
}

// OpenStream opens a PortAudio input stream in callback mode. Every frame
// the driver delivers is downmixed to mono, copied, and handed to h on the
// driver's callback thread.
func OpenStream(p StreamParams, h FrameHandler) (Stream, error) {
	device, err := resolveDevice(p.Device)
	if err != nil {
		return nil, err
	}

	channels := p.Channels
	if channels <= 0 {
		channels = 1
	}
	framesPerBuffer := p.BlockSize
	if framesPerBuffer <= 0 {
		framesPerBuffer = portaudio.FramesPerBufferUnspecified
	}

	s := &paStream{name: device.Name}

	stream, err := portaudio.OpenStream(portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   device,
			Channels: channels,
			Latency:  device.DefaultLowInputLatency,
		},
		SampleRate:      float64(p.SampleRate),
		FramesPerBuffer: framesPerBuffer,
	}, func(in []float32) {
		// Runs on the PortAudio callback thread. Copy before handing off:
		// the driver reuses the buffer as soon as this returns.
		h(downmixInterleaved(in, channels, len(in)/channels))
	})
	if err != nil {
		return nil, &DeviceError{Op: "open", Device: device.Name, Err: err}
	}
	s.stream = stream

	return s, nil
}

func (s *paStream) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.stream.Start(); err != nil {
		s.stream.Close()
		s.stopped = true
		return &DeviceError{Op: "start", Device: s.name, Err: err}
	}
	s.started = true
	return nil
}

// Stop aborts the stream rather than draining it: a graceful stop can stall
// waiting on the driver, and a bounded teardown matters more than the last
// in-flight buffer. Idempotent.
func (s *paStream) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return nil
	}
	s.stopped = true

	var abortErr error
	if s.started {
		abortErr = s.stream.Abort()
	}
	closeErr := s.stream.Close()

	if abortErr != nil {
		return &StreamStopError{Device: s.name, Err: abortErr}
	}
	if closeErr != nil {
		return &StreamStopError{Device: s.name, Err: closeErr}
	}
	return nil
}

func resolveDevice(index int) (*portaudio.DeviceInfo, error) {
	if index < 0 {
		device, err := portaudio.DefaultInputDevice()
		if err != nil {
			return nil, &DeviceError{Op: "open", Device: "default", Err: err}
		}
		return device, nil
	}

	devices, err := portaudio.Devices()
	if err != nil {
		return nil, &DeviceError{Op: "enumerate", Device: fmt.Sprintf("%d", index), Err: err}
	}
	if index >= len(devices) {
		return nil, &DeviceError{Op: "open", Device: fmt.Sprintf("%d", index), Err: fmt.Errorf("device not found")}
	}
	return devices[index], nil
}

// downmixInterleaved averages the channels of an interleaved buffer into a
// freshly allocated mono slice. Mono input is still copied so the caller
// never aliases a driver-owned buffer.
func downmixInterleaved(in []float32, channels, frames int) []float32 {
	out := make([]float32, frames)
	if channels <= 1 {
		copy(out, in[:frames])
		return out
	}
	for i := 0; i < frames; i++ {
		var sum float32
		for c := 0; c < channels; c++ {
			sum += in[i*channels+c]
		}
		out[i] = sum / float32(channels)
	}
	return out
}

// ListDevices returns every device the host API advertises.
func ListDevices() ([]Device, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}
	defaultInput, _ := portaudio.DefaultInputDevice()

	result := make([]Device, 0, len(devices))
	for i, d := range devices {
		result = append(result, Device{
			Index:          i,
			Name:           d.Name,
			InputChannels:  d.MaxInputChannels,
			OutputChannels: d.MaxOutputChannels,
			Default:        d == defaultInput,
		})
	}
	return result, nil
}

// FindLoopbackDevice locates an input-capable device whose advertised name
// contains substr (case-insensitive), e.g. "blackhole". Returns an error
// when no such device exists; dual capture treats that as a hard
// precondition but callers may choose to degrade to mic-only.
func FindLoopbackDevice(substr string) (Device, error) {
	devices, err := ListDevices()
	if err != nil {
		return Device{}, err
	}
	needle := strings.ToLower(substr)
	for _, d := range devices {
		if d.InputChannels > 0 && strings.Contains(strings.ToLower(d.Name), needle) {
			return d, nil
		}
	}
	return Device{}, fmt.Errorf("no input device matching %q found", substr)
}

// DefaultInputDevice returns the platform's default input device.
func DefaultInputDevice() (Device, error) {
	d, err := portaudio.DefaultInputDevice()
	if err != nil {
		return Device{}, &DeviceError{Op: "enumerate", Device: "default", Err: err}
	}
	devices, err := portaudio.Devices()
	if err != nil {
		return Device{}, fmt.Errorf("failed to list devices: %w", err)
	}
	for i, cand := range devices {
		if cand == d {
			return Device{
				Index:          i,
				Name:           d.Name,
				InputChannels:  d.MaxInputChannels,
				OutputChannels: d.MaxOutputChannels,
				Default:        true,
			}, nil
		}
	}
	return Device{}, fmt.Errorf("default input device not in device table")
}
