package audio

import (
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/callscribe/callscribe/internal/metrics"
)

// defaultBlockSize is 100 ms at 16 kHz. Both streams of a dual session are
// opened with the same explicit block size so their queues accumulate in
// comparably sized increments, which keeps the two independently clocked
// devices loosely aligned.
const defaultBlockSize = 1600

// DualRecorderConfig configures a dual-stream capture session.
type DualRecorderConfig struct {
	MicDevice    int // -1 selects the default input
	SystemDevice int // loopback/virtual device exposing system audio
	SampleRate   int
	Channels     int
	BlockSize    int
	OutputDir    string

	// MicTap and SystemTap, when set, receive every captured frame in
	// addition to the full-history buffers. The chunk engine installs its
	// queue handlers here.
	MicTap    FrameHandler
	SystemTap FrameHandler

	Open    StreamOpener
	Logger  zerolog.Logger
	Metrics *metrics.Metrics
}

func (c *DualRecorderConfig) applyDefaults() {
	if c.SampleRate <= 0 {
		c.SampleRate = 16000
	}
	if c.Channels <= 0 {
		c.Channels = 1
	}
	if c.BlockSize <= 0 {
		c.BlockSize = defaultBlockSize
	}
	if c.Open == nil {
		c.Open = OpenStream
	}
}

// DualResult carries the three buffers a dual capture produces. All three
// are empty when either stream captured nothing.
type DualResult struct {
	Combined []float32
	Mic      []float32
	System   []float32
}

// DualRecorder captures microphone and system-loopback audio concurrently
// under a single logical start/stop and mixes them into one time-aligned
// signal. Alignment is approximate: the devices have independent clocks and
// no drift correction is applied.
type DualRecorder struct {
	cfg DualRecorderConfig

	mu        sync.Mutex
	recording bool
	micFrames [][]float32
	sysFrames [][]float32
	micStream Stream
	sysStream Stream
	last      *DualResult
}

// NewDualRecorder creates a dual-stream capture session.
func NewDualRecorder(cfg DualRecorderConfig) *DualRecorder {
	cfg.applyDefaults()
	return &DualRecorder{cfg: cfg}
}

// StartRecording opens both device streams with an identical block size.
// If the system stream fails to open, the mic stream is torn down before
// the error is returned so no device handle leaks.
func (d *DualRecorder) StartRecording() error {
	d.mu.Lock()
	d.micFrames = nil
	d.sysFrames = nil
	d.last = nil
	d.recording = true
	d.mu.Unlock()

	params := StreamParams{
		SampleRate: d.cfg.SampleRate,
		Channels:   d.cfg.Channels,
		BlockSize:  d.cfg.BlockSize,
	}

	micParams := params
	micParams.Device = d.cfg.MicDevice
	mic, err := d.cfg.Open(micParams, d.onMicFrame)
	if err != nil {
		d.abortStart(nil, nil)
		return err
	}
	if err := mic.Start(); err != nil {
		d.abortStart(nil, nil)
		return err
	}

	sysParams := params
	sysParams.Device = d.cfg.SystemDevice
	system, err := d.cfg.Open(sysParams, d.onSystemFrame)
	if err != nil {
		d.abortStart(mic, nil)
		return err
	}
	if err := system.Start(); err != nil {
		d.abortStart(mic, nil)
		return err
	}

	d.mu.Lock()
	d.micStream = mic
	d.sysStream = system
	d.mu.Unlock()

	d.cfg.Logger.Info().
		Int("mic_device", d.cfg.MicDevice).
		Int("system_device", d.cfg.SystemDevice).
		Int("block_size", d.cfg.BlockSize).
		Msg("Dual-stream recording started")
	return nil
}

func (d *DualRecorder) abortStart(mic, system Stream) {
	d.mu.Lock()
	d.recording = false
	d.mu.Unlock()
	if mic != nil {
		_ = mic.Stop()
	}
	if system != nil {
		_ = system.Stop()
	}
}

func (d *DualRecorder) onMicFrame(frame []float32) {
	d.mu.Lock()
	if !d.recording {
		d.mu.Unlock()
		return
	}
	d.micFrames = append(d.micFrames, frame)
	if d.cfg.Metrics != nil {
		d.cfg.Metrics.FramesCaptured.WithLabelValues("mic").Inc()
	}
	d.mu.Unlock()

	if d.cfg.MicTap != nil {
		d.cfg.MicTap(frame)
	}
}

func (d *DualRecorder) onSystemFrame(frame []float32) {
	d.mu.Lock()
	if !d.recording {
		d.mu.Unlock()
		return
	}
	d.sysFrames = append(d.sysFrames, frame)
	if d.cfg.Metrics != nil {
		d.cfg.Metrics.FramesCaptured.WithLabelValues("system").Inc()
	}
	d.mu.Unlock()

	if d.cfg.SystemTap != nil {
		d.cfg.SystemTap(frame)
	}
}

// StopRecording aborts both streams, equalizes the two captures by
// zero-padding the shorter tail, and mixes them by per-sample averaging.
// Either stream being empty yields three empty buffers. Idempotent.
func (d *DualRecorder) StopRecording() (DualResult, error) {
	d.mu.Lock()
	if !d.recording && d.micStream == nil && d.sysStream == nil {
		if d.last != nil {
			last := *d.last
			d.mu.Unlock()
			return last, nil
		}
		d.mu.Unlock()
		return DualResult{}, nil
	}
	d.recording = false
	mic := d.micStream
	system := d.sysStream
	d.micStream = nil
	d.sysStream = nil
	micFrames := d.micFrames
	sysFrames := d.sysFrames
	d.micFrames = nil
	d.sysFrames = nil
	d.mu.Unlock()

	var g errgroup.Group
	for _, s := range []Stream{mic, system} {
		s := s
		if s == nil {
			continue
		}
		g.Go(func() error { return s.Stop() })
	}
	if err := g.Wait(); err != nil {
		d.cfg.Logger.Warn().Err(err).Msg("Stream did not stop cleanly")
	}

	result := DualResult{
		Mic:    concat(micFrames),
		System: concat(sysFrames),
	}
	if len(result.Mic) == 0 || len(result.System) == 0 {
		d.cfg.Logger.Warn().Msg("No audio recorded from one or both streams")
		result = DualResult{}
	} else {
		result.Mic, result.System = equalize(result.Mic, result.System)
		result.Combined = mix(result.Mic, result.System)
		d.cfg.Logger.Info().
			Float64("seconds", float64(len(result.Combined))/float64(d.cfg.SampleRate)).
			Msg("Dual-stream recording complete")
	}

	d.mu.Lock()
	d.last = &result
	d.mu.Unlock()
	return result, nil
}

// Recording reports whether a capture is in progress.
func (d *DualRecorder) Recording() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.recording
}

// Save writes the combined mix plus the two originals, sharing a base name.
// Returns the paths written, keyed "combined", "mic", "system".
func (d *DualRecorder) Save(result DualResult, base string) (map[string]string, error) {
	if base == "" {
		base = "recording_" + timestamp()
	}
	saved := make(map[string]string, 3)
	for name, samples := range map[string][]float32{
		"combined": result.Combined,
		"mic":      result.Mic,
		"system":   result.System,
	} {
		if len(samples) == 0 {
			continue
		}
		path, err := SaveWAV(samples, d.cfg.SampleRate, d.cfg.OutputDir, base+"_"+name+".wav")
		if err != nil {
			return saved, err
		}
		saved[name] = path
		d.cfg.Logger.Info().Str("path", path).Msg("Audio saved")
	}
	return saved, nil
}
