package audio

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/callscribe/callscribe/internal/metrics"
)

// RecorderConfig configures a capture session.
type RecorderConfig struct {
	SampleRate int
	Channels   int
	Device     int // -1 selects the default input
	BlockSize  int
	OutputDir  string

	// Tap, when set, receives every captured frame in addition to the
	// full-history buffer. The chunk engine installs its queue handler here.
	Tap FrameHandler

	// Open defaults to the PortAudio opener.
	Open    StreamOpener
	Logger  zerolog.Logger
	Metrics *metrics.Metrics // optional
}

func (c *RecorderConfig) applyDefaults() {
	if c.SampleRate <= 0 {
		c.SampleRate = 16000
	}
	if c.Channels <= 0 {
		c.Channels = 1
	}
	if c.Open == nil {
		c.Open = OpenStream
	}
}

// Recorder records one input stream end to end. It owns exactly one device
// stream adapter for the lifetime of a recording.
type Recorder struct {
	cfg RecorderConfig

	mu        sync.Mutex
	recording bool
	frames    [][]float32
	stream    Stream
	last      []float32
}

// NewRecorder creates a single-stream capture session.
func NewRecorder(cfg RecorderConfig) *Recorder {
	cfg.applyDefaults()
	return &Recorder{cfg: cfg}
}

// StartRecording resets the buffers and opens the device stream.
func (r *Recorder) StartRecording() error {
	r.mu.Lock()
	r.frames = nil
	r.last = nil
	r.recording = true
	r.mu.Unlock()

	stream, err := r.cfg.Open(StreamParams{
		Device:     r.cfg.Device,
		SampleRate: r.cfg.SampleRate,
		Channels:   r.cfg.Channels,
		BlockSize:  r.cfg.BlockSize,
	}, r.onFrame)
	if err != nil {
		r.mu.Lock()
		r.recording = false
		r.mu.Unlock()
		return err
	}
	if err := stream.Start(); err != nil {
		r.mu.Lock()
		r.recording = false
		r.mu.Unlock()
		return err
	}

	r.mu.Lock()
	r.stream = stream
	r.mu.Unlock()

	r.cfg.Logger.Info().Int("device", r.cfg.Device).Int("sample_rate", r.cfg.SampleRate).Msg("Recording started")
	return nil
}

// onFrame runs on the driver callback thread: append and get out.
func (r *Recorder) onFrame(frame []float32) {
	r.mu.Lock()
	if !r.recording {
		r.mu.Unlock()
		return
	}
	r.frames = append(r.frames, frame)
	if r.cfg.Metrics != nil {
		r.cfg.Metrics.FramesCaptured.WithLabelValues("mic").Inc()
	}
	r.mu.Unlock()

	if r.cfg.Tap != nil {
		r.cfg.Tap(frame)
	}
}

// StopRecording closes the adapter and returns the concatenated capture.
// Zero captured audio yields an empty, non-nil-error result. A second call
// returns the same buffer again without touching the device.
func (r *Recorder) StopRecording() ([]float32, error) {
	r.mu.Lock()
	if !r.recording && r.stream == nil {
		last := r.last
		r.mu.Unlock()
		return last, nil
	}
	r.recording = false
	stream := r.stream
	r.stream = nil
	frames := r.frames
	r.frames = nil
	r.mu.Unlock()

	if stream != nil {
		if err := stream.Stop(); err != nil {
			// Best effort: an unclean close must not block the stop.
			r.cfg.Logger.Warn().Err(err).Msg("Stream did not stop cleanly")
		}
	}

	buf := concat(frames)
	r.mu.Lock()
	r.last = buf
	r.mu.Unlock()

	if len(buf) == 0 {
		r.cfg.Logger.Warn().Msg("No audio data recorded")
		return buf, nil
	}
	r.cfg.Logger.Info().
		Float64("seconds", float64(len(buf))/float64(r.cfg.SampleRate)).
		Msg("Recording stopped")
	return buf, nil
}

// Recording reports whether a capture is in progress.
func (r *Recorder) Recording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recording
}

// Save writes a capture as 16-bit PCM. An empty path gets a timestamped
// name under the configured output directory.
func (r *Recorder) Save(samples []float32, path string) (string, error) {
	out, err := SaveWAV(samples, r.cfg.SampleRate, r.cfg.OutputDir, path)
	if err != nil {
		return "", err
	}
	r.cfg.Logger.Info().Str("path", out).Msg("Audio saved")
	return out, nil
}

func concat(frames [][]float32) []float32 {
	total := 0
	for _, f := range frames {
		total += len(f)
	}
	buf := make([]float32, 0, total)
	for _, f := range frames {
		buf = append(buf, f...)
	}
	return buf
}
