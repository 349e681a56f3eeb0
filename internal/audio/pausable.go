package audio

import "sync"

// Status is a consistent snapshot of a pausable session, taken under the
// same lock the device callback uses so it can never report a torn state.
type Status struct {
	Recording  bool    `json:"is_recording"`
	Paused     bool    `json:"is_paused"`
	Duration   float64 `json:"duration"` // seconds, including the in-flight segment
	PauseCount int     `json:"pause_count"`
	Segments   int     `json:"segments"`
}

// PausableRecorder is a capture session with pause/resume. Pausing seals
// the accumulating segment; the device stream stays open and its callback
// keeps firing, but frames are discarded while paused. That avoids the
// latency and device-contention risk of reopening the stream on resume.
type PausableRecorder struct {
	cfg RecorderConfig

	mu sync.Mutex
	// recording, paused, and the segment buffers form one unit: every
	// reader and writer - pause, resume, stop, status, and the device
	// callback - holds mu, so a frame can never slip in after a pause
	// decision.
	recording  bool
	paused     bool
	segments   [][]float32 // sealed pause-bounded sub-recordings
	current    [][]float32 // frames of the in-flight segment
	sealedLen  int         // total samples across sealed segments
	pauseCount int
	stream     Stream
	last       []float32
}

// NewPausableRecorder creates a pausable capture session.
func NewPausableRecorder(cfg RecorderConfig) *PausableRecorder {
	cfg.applyDefaults()
	return &PausableRecorder{cfg: cfg}
}

// StartRecording resets all segment state and opens the device stream.
func (p *PausableRecorder) StartRecording() error {
	p.mu.Lock()
	p.segments = nil
	p.current = nil
	p.sealedLen = 0
	p.pauseCount = 0
	p.paused = false
	p.recording = true
	p.last = nil
	p.mu.Unlock()

	stream, err := p.cfg.Open(StreamParams{
		Device:     p.cfg.Device,
		SampleRate: p.cfg.SampleRate,
		Channels:   p.cfg.Channels,
		BlockSize:  p.cfg.BlockSize,
	}, p.onFrame)
	if err != nil {
		p.mu.Lock()
		p.recording = false
		p.mu.Unlock()
		return err
	}
	if err := stream.Start(); err != nil {
		p.mu.Lock()
		p.recording = false
		p.mu.Unlock()
		return err
	}

	p.mu.Lock()
	p.stream = stream
	p.mu.Unlock()

	p.cfg.Logger.Info().Int("device", p.cfg.Device).Msg("Recording started")
	return nil
}

func (p *PausableRecorder) onFrame(frame []float32) {
	p.mu.Lock()
	if !p.recording || p.paused {
		p.mu.Unlock()
		return
	}
	p.current = append(p.current, frame)
	if p.cfg.Metrics != nil {
		p.cfg.Metrics.FramesCaptured.WithLabelValues("mic").Inc()
	}
	p.mu.Unlock()

	if p.cfg.Tap != nil {
		p.cfg.Tap(frame)
	}
}

// Pause seals the in-flight segment. Pausing while already paused (or not
// recording) is a no-op; the return value reports whether state changed.
func (p *PausableRecorder) Pause() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.paused || !p.recording {
		return false
	}
	p.paused = true
	p.sealCurrentLocked()
	p.pauseCount++

	p.cfg.Logger.Info().
		Float64("duration", float64(p.sealedLen)/float64(p.cfg.SampleRate)).
		Msg("Recording paused")
	return true
}

// Resume starts a fresh segment. A no-op unless currently paused.
func (p *PausableRecorder) Resume() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.paused || !p.recording {
		return false
	}
	p.paused = false
	p.current = nil

	p.cfg.Logger.Info().Msg("Recording resumed")
	return true
}

// StopRecording seals any open segment, closes the stream, and returns the
// ordered concatenation of all segments. Idempotent: a repeat call returns
// the same buffer without touching the device.
func (p *PausableRecorder) StopRecording() ([]float32, error) {
	p.mu.Lock()
	if !p.recording && p.stream == nil {
		last := p.last
		p.mu.Unlock()
		return last, nil
	}
	p.recording = false
	p.sealCurrentLocked()
	segments := p.segments
	p.segments = nil
	stream := p.stream
	p.stream = nil
	pauses := p.pauseCount
	p.mu.Unlock()

	if stream != nil {
		if err := stream.Stop(); err != nil {
			p.cfg.Logger.Warn().Err(err).Msg("Stream did not stop cleanly")
		}
	}

	buf := concat(segments)
	p.mu.Lock()
	p.last = buf
	p.mu.Unlock()

	if len(buf) == 0 {
		p.cfg.Logger.Warn().Msg("No audio data recorded")
		return buf, nil
	}
	p.cfg.Logger.Info().
		Float64("seconds", float64(len(buf))/float64(p.cfg.SampleRate)).
		Int("pauses", pauses).
		Msg("Recording stopped")
	return buf, nil
}

// sealCurrentLocked flushes the in-flight frames into the segment list.
// Caller holds mu.
func (p *PausableRecorder) sealCurrentLocked() {
	if len(p.current) == 0 {
		return
	}
	segment := concat(p.current)
	p.segments = append(p.segments, segment)
	p.sealedLen += len(segment)
	p.current = nil
}

// Status returns a snapshot of the session.
func (p *PausableRecorder) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()

	inFlight := 0
	for _, f := range p.current {
		inFlight += len(f)
	}
	segments := len(p.segments)
	if inFlight > 0 {
		segments++
	}
	return Status{
		Recording:  p.recording,
		Paused:     p.paused,
		Duration:   float64(p.sealedLen+inFlight) / float64(p.cfg.SampleRate),
		PauseCount: p.pauseCount,
		Segments:   segments,
	}
}

// Save writes a capture as 16-bit PCM.
func (p *PausableRecorder) Save(samples []float32, path string) (string, error) {
	out, err := SaveWAV(samples, p.cfg.SampleRate, p.cfg.OutputDir, path)
	if err != nil {
		return "", err
	}
	p.cfg.Logger.Info().Str("path", out).Msg("Audio saved")
	return out, nil
}
