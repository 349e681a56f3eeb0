// Package metrics exposes Prometheus instrumentation for the capture
// pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds every collector the recorder registers.
type Metrics struct {
	// Capture metrics
	FramesCaptured *prometheus.CounterVec
	FramesDropped  *prometheus.CounterVec
	QueueDepth     *prometheus.GaugeVec

	// Chunk engine metrics
	ChunksEmitted       prometheus.Counter
	ChunkCallbackErrors prometheus.Counter

	// Transcription metrics
	TranscriptionRequests prometheus.Counter
	TranscriptionFailures prometheus.Counter
}

// New creates and registers all collectors with reg. Pass
// prometheus.DefaultRegisterer in production; tests use a fresh registry.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		FramesCaptured: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "callscribe_frames_captured_total",
			Help: "Total audio frames delivered by device callbacks while recording",
		}, []string{"stream"}),
		FramesDropped: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "callscribe_frames_dropped_total",
			Help: "Frames evicted from a full chunk queue (drop-oldest policy)",
		}, []string{"stream"}),
		QueueDepth: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "callscribe_chunk_queue_depth",
			Help: "Current number of frames waiting in a chunk engine queue",
		}, []string{"stream"}),
		ChunksEmitted: factory.NewCounter(prometheus.CounterOpts{
			Name: "callscribe_chunks_emitted_total",
			Help: "Fixed-size chunks handed to the consumer callback",
		}),
		ChunkCallbackErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "callscribe_chunk_callback_errors_total",
			Help: "Consumer callback invocations that returned an error or panicked",
		}),
		TranscriptionRequests: factory.NewCounter(prometheus.CounterOpts{
			Name: "callscribe_transcription_requests_total",
			Help: "Chunks or buffers submitted to the recognition engine",
		}),
		TranscriptionFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "callscribe_transcription_failures_total",
			Help: "Recognition engine calls that returned an error",
		}),
	}
}
