package transcribe

import (
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/callscribe/callscribe/internal/audio"
	"github.com/callscribe/callscribe/internal/metrics"
)

const (
	// minChunkDuration is the shortest chunk worth sending to the model.
	// Anything shorter is almost always a fragment of a word.
	minChunkDuration = 500 * time.Millisecond

	// silenceThreshold is the peak amplitude below which a chunk is
	// treated as silence and skipped.
	silenceThreshold = 0.01
)

// chunkTranscript is the recognized text of one chunk, in emission order.
type chunkTranscript struct {
	seq      int
	text     string
	segments []Segment
}

// StreamingTranscriber feeds live chunks to an Engine and accumulates the
// per-chunk transcripts. Short and near-silent chunks are skipped without
// touching the model. Safe for use as a chunk callback: the chunk engine
// delivers from a single goroutine, and the accumulated state is also
// guarded for concurrent readers.
type StreamingTranscriber struct {
	engine  Engine
	logger  zerolog.Logger
	metrics *metrics.Metrics

	mu      sync.Mutex
	chunks  []chunkTranscript
	elapsed time.Duration // audio time consumed so far, offsets segment times
}

// NewStreamingTranscriber wraps an engine for chunk-at-a-time use.
// metrics may be nil.
func NewStreamingTranscriber(engine Engine, logger zerolog.Logger, m *metrics.Metrics) *StreamingTranscriber {
	return &StreamingTranscriber{engine: engine, logger: logger, metrics: m}
}

// TranscribeChunk processes one chunk and returns its text, which is empty
// for skipped chunks. Errors are returned so the chunk engine can count
// them, but the accumulated transcript survives individual failures.
func (s *StreamingTranscriber) TranscribeChunk(chunk audio.Chunk) (string, error) {
	duration := time.Duration(float64(len(chunk.Samples)) / float64(chunk.SampleRate) * float64(time.Second))

	s.mu.Lock()
	offset := s.elapsed
	s.elapsed += duration
	s.mu.Unlock()

	if duration < minChunkDuration {
		s.logger.Debug().Int("chunk", chunk.Seq).Dur("duration", duration).Msg("Chunk too short, skipped")
		return "", nil
	}
	if peak(chunk.Samples) < silenceThreshold {
		s.logger.Debug().Int("chunk", chunk.Seq).Msg("Silent chunk skipped")
		return "", nil
	}

	if s.metrics != nil {
		s.metrics.TranscriptionRequests.Inc()
	}
	result, err := s.engine.Transcribe(chunk.Samples, chunk.SampleRate)
	if err != nil {
		if s.metrics != nil {
			s.metrics.TranscriptionFailures.Inc()
		}
		return "", err
	}

	text := strings.TrimSpace(result.Text)
	if text == "" {
		return "", nil
	}

	segments := make([]Segment, len(result.Segments))
	for i, seg := range result.Segments {
		segments[i] = Segment{Start: offset + seg.Start, End: offset + seg.End, Text: seg.Text}
	}

	s.mu.Lock()
	s.chunks = append(s.chunks, chunkTranscript{seq: chunk.Seq, text: text, segments: segments})
	s.mu.Unlock()

	s.logger.Info().Int("chunk", chunk.Seq).Str("text", text).Msg("Chunk transcribed")
	return text, nil
}

// ChunkFunc adapts the transcriber to the chunk engine's callback type.
func (s *StreamingTranscriber) ChunkFunc() audio.ChunkFunc {
	return func(chunk audio.Chunk) error {
		_, err := s.TranscribeChunk(chunk)
		return err
	}
}

// FullTranscript joins every non-empty chunk transcript in order.
func (s *StreamingTranscriber) FullTranscript() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	parts := make([]string, 0, len(s.chunks))
	for _, c := range s.chunks {
		parts = append(parts, c.text)
	}
	return strings.Join(parts, " ")
}

// AllSegments returns every segment across all chunks with timestamps
// relative to the start of the recording.
func (s *StreamingTranscriber) AllSegments() []Segment {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Segment
	for _, c := range s.chunks {
		out = append(out, c.segments...)
	}
	return out
}

// Clear discards the accumulated transcripts for a fresh session.
func (s *StreamingTranscriber) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunks = nil
	s.elapsed = 0
}

func peak(samples []float32) float32 {
	p := float32(0)
	for _, s := range samples {
		if s > p {
			p = s
		} else if -s > p {
			p = -s
		}
	}
	return p
}
