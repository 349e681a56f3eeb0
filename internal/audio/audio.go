// Package audio implements multi-stream capture: device stream adapters,
// single/pausable/dual recording sessions, and the streaming chunk engine
// that feeds fixed-size slices of live audio to a consumer.
package audio

// FrameHandler receives every frame a stream delivers. It runs on the
// driver's callback thread and must return quickly: the only acceptable
// work is copying or enqueueing the frame.
type FrameHandler func(frame []float32)

// StreamParams describes how to open a hardware input stream.
type StreamParams struct {
	// Device is the index of the input device, or -1 for the default input.
	Device int
	// SampleRate in Hz (16000 is the usual choice for speech).
	SampleRate int
	// Channels of the opened stream; frames handed to the FrameHandler are
	// always downmixed to mono.
	Channels int
	// BlockSize is the frame length requested from the driver, in samples.
	// Zero lets the driver pick. Dual-stream sessions set it explicitly so
	// both streams accumulate in comparably sized increments.
	BlockSize int
}

// Stream is one open hardware input connection. Stop aborts the stream,
// discarding in-flight driver buffers, and releases the device. It is
// idempotent and safe to call even if Start never succeeded.
type Stream interface {
	Start() error
	Stop() error
}

// StreamOpener opens a stream that delivers frames to h. The production
// opener is OpenStream (PortAudio); tests substitute their own.
type StreamOpener func(p StreamParams, h FrameHandler) (Stream, error)

// Device describes an audio device as advertised by the host API.
type Device struct {
	Index          int    `json:"id"`
	Name           string `json:"name"`
	InputChannels  int    `json:"input_channels"`
	OutputChannels int    `json:"output_channels"`
	Default        bool   `json:"default"`
}

// Chunk is a fixed-length consumer-facing slice of accumulated audio.
// Every chunk except the final one has exactly sampleRate×chunkDuration
// samples; the final chunk may be shorter.
type Chunk struct {
	Samples    []float32
	SampleRate int
	// Seq is the 1-based emission index of this chunk within the session.
	Seq int
	// Final marks the end-of-stream remainder chunk.
	Final bool
}

// ChunkFunc consumes one chunk. It is invoked from the chunk engine's
// worker goroutine; errors (and panics) are logged and swallowed so a
// failing consumer never terminates the recording.
type ChunkFunc func(Chunk) error
