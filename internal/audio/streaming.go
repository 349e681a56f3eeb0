package audio

// StreamingRecorder couples a single-stream capture session with a chunk
// engine so a consumer receives fixed-size chunks while the recording is
// still in progress.
type StreamingRecorder struct {
	rec     *Recorder
	chunker *Chunker
}

// NewStreamingRecorder wires a chunk engine into a single-stream session.
func NewStreamingRecorder(cfg RecorderConfig, chunk ChunkerConfig) *StreamingRecorder {
	cfg.applyDefaults()
	chunk.SampleRate = cfg.SampleRate
	chunk.Logger = cfg.Logger
	chunk.Metrics = cfg.Metrics

	chunker := NewChunker(chunk, "mic")
	cfg.Tap = chunker.Tap(0)

	return &StreamingRecorder{
		rec:     NewRecorder(cfg),
		chunker: chunker,
	}
}

// StartStreaming begins capture and chunk delivery to cb.
func (s *StreamingRecorder) StartStreaming(cb ChunkFunc) error {
	if err := s.chunker.Start(cb); err != nil {
		return err
	}
	if err := s.rec.StartRecording(); err != nil {
		s.chunker.Stop()
		return err
	}
	return nil
}

// StopStreaming stops the capture, flushes the final partial chunk, and
// returns the full recording.
func (s *StreamingRecorder) StopStreaming() ([]float32, error) {
	buf, err := s.rec.StopRecording()
	s.chunker.Stop()
	return buf, err
}

// Recording reports whether capture is in progress.
func (s *StreamingRecorder) Recording() bool { return s.rec.Recording() }

// Save writes a capture as 16-bit PCM.
func (s *StreamingRecorder) Save(samples []float32, path string) (string, error) {
	return s.rec.Save(samples, path)
}

// StreamingDualRecorder couples a dual-stream session with a two-queue
// chunk engine: each emitted chunk is the averaged mix of both streams.
type StreamingDualRecorder struct {
	rec     *DualRecorder
	chunker *Chunker
}

// NewStreamingDualRecorder wires a chunk engine into a dual-stream session.
func NewStreamingDualRecorder(cfg DualRecorderConfig, chunk ChunkerConfig) *StreamingDualRecorder {
	cfg.applyDefaults()
	chunk.SampleRate = cfg.SampleRate
	chunk.Logger = cfg.Logger
	chunk.Metrics = cfg.Metrics

	chunker := NewChunker(chunk, "mic", "system")
	cfg.MicTap = chunker.Tap(0)
	cfg.SystemTap = chunker.Tap(1)

	return &StreamingDualRecorder{
		rec:     NewDualRecorder(cfg),
		chunker: chunker,
	}
}

// StartStreaming begins dual capture and chunk delivery to cb.
func (s *StreamingDualRecorder) StartStreaming(cb ChunkFunc) error {
	if err := s.chunker.Start(cb); err != nil {
		return err
	}
	if err := s.rec.StartRecording(); err != nil {
		s.chunker.Stop()
		return err
	}
	return nil
}

// StopStreaming stops both streams, flushes the final partial chunk, and
// returns the mixed and per-stream recordings.
func (s *StreamingDualRecorder) StopStreaming() (DualResult, error) {
	result, err := s.rec.StopRecording()
	s.chunker.Stop()
	return result, err
}

// Recording reports whether capture is in progress.
func (s *StreamingDualRecorder) Recording() bool { return s.rec.Recording() }

// Save writes the mixed and per-stream captures.
func (s *StreamingDualRecorder) Save(result DualResult, base string) (map[string]string, error) {
	return s.rec.Save(result, base)
}
