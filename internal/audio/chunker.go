package audio

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/callscribe/callscribe/internal/metrics"
)

// stopTimeout bounds how long Stop waits for the worker goroutine to
// observe the stop signal and exit.
const stopTimeout = 2 * time.Second

// ChunkerConfig configures the streaming chunk engine.
type ChunkerConfig struct {
	SampleRate int
	// ChunkDuration is the chunk length in seconds; the chunk size in
	// samples is SampleRate×ChunkDuration.
	ChunkDuration float64
	// QueueSize bounds each per-stream frame queue. On overflow the oldest
	// frame is evicted: stale audio is worth less than fresh. Defaults to
	// 256 frames.
	QueueSize int

	Logger  zerolog.Logger
	Metrics *metrics.Metrics
}

// Chunker converts one or two live frame queues into a sequence of
// fixed-size chunks delivered to a consumer callback from a dedicated
// worker goroutine. In dual-stream mode a chunk is emitted only once both
// local buffers hold at least one chunk's worth of samples; the two slices
// are mixed by per-sample averaging.
type Chunker struct {
	cfg       ChunkerConfig
	chunkSize int
	queues    []*frameQueue
	stopWait  time.Duration

	mu      sync.Mutex
	running bool
	emit    ChunkFunc
	stopCh  chan struct{}
	done    chan struct{}
	seq     int
}

type frameQueue struct {
	name string
	ch   chan []float32
	m    *metrics.Metrics
}

// NewChunker creates a chunk engine with one queue per named stream.
// streams must name one queue (single capture) or two (dual capture).
func NewChunker(cfg ChunkerConfig, streams ...string) *Chunker {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 16000
	}
	if cfg.ChunkDuration <= 0 {
		cfg.ChunkDuration = 5.0
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}

	c := &Chunker{
		cfg:       cfg,
		chunkSize: int(float64(cfg.SampleRate) * cfg.ChunkDuration),
		stopWait:  stopTimeout,
	}
	for _, name := range streams {
		c.queues = append(c.queues, &frameQueue{
			name: name,
			ch:   make(chan []float32, cfg.QueueSize),
			m:    cfg.Metrics,
		})
	}
	return c
}

// Tap returns the frame handler feeding queue i. Wire it into the capture
// session's tap; it is safe to call from a driver callback thread.
func (c *Chunker) Tap(i int) FrameHandler {
	q := c.queues[i]
	return q.push
}

// push enqueues a frame without ever blocking the caller. A full queue
// evicts its oldest frame to make room.
func (q *frameQueue) push(frame []float32) {
	for {
		select {
		case q.ch <- frame:
			if q.m != nil {
				q.m.QueueDepth.WithLabelValues(q.name).Set(float64(len(q.ch)))
			}
			return
		default:
		}
		select {
		case <-q.ch:
			if q.m != nil {
				q.m.FramesDropped.WithLabelValues(q.name).Inc()
			}
		default:
		}
	}
}

// Start launches the worker goroutine delivering chunks to cb.
func (c *Chunker) Start(cb ChunkFunc) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return fmt.Errorf("chunk engine already running")
	}
	if c.done != nil {
		select {
		case <-c.done:
		default:
			// A previous worker outlived its Stop timeout; a second worker
			// would race it on the sequence counter.
			return fmt.Errorf("previous chunk worker still running")
		}
	}
	c.running = true
	c.emit = cb
	c.seq = 0
	c.stopCh = make(chan struct{})
	c.done = make(chan struct{})

	go c.run(c.stopCh, c.done)
	return nil
}

// Stop signals the worker and waits, bounded, for it to drain leftovers
// and exit. Idempotent; a second Stop returns immediately.
func (c *Chunker) Stop() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	c.running = false
	stopCh := c.stopCh
	done := c.done
	c.mu.Unlock()

	// Close the stop channel first, then nudge each queue with a nil
	// sentinel so a worker blocked on a queue receive wakes either way.
	// Non-blocking: stopping must not depend on queue delivery. A sentinel
	// the exiting worker never consumes stays behind harmlessly; the next
	// session's worker discards it because its own stop channel is open.
	close(stopCh)
	for _, q := range c.queues {
		select {
		case q.ch <- nil:
		default:
		}
	}

	select {
	case <-done:
	case <-time.After(c.stopWait):
		c.cfg.Logger.Warn().Msg("Chunk worker did not exit within timeout")
	}
}

// run is the worker loop: accumulate frames from every queue, emit a chunk
// whenever all local buffers reach the chunk size, and flush the remainder
// on stop.
func (c *Chunker) run(stopCh <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	bufs := make([][]float32, len(c.queues))

	for {
		var (
			frame   []float32
			primary = c.queues[0]
			i       int
		)
		if len(c.queues) == 1 {
			select {
			case frame = <-primary.ch:
			case <-stopCh:
				c.finish(bufs)
				return
			}
		} else {
			select {
			case frame = <-primary.ch:
			case frame = <-c.queues[1].ch:
				i = 1
			case <-stopCh:
				c.finish(bufs)
				return
			}
		}
		if frame == nil {
			// Wake-up sentinel. Only honor it for this session's stop; a
			// stale one left over from an earlier session is dropped.
			select {
			case <-stopCh:
				c.finish(bufs)
				return
			default:
				continue
			}
		}
		bufs[i] = append(bufs[i], frame...)
		if c.cfg.Metrics != nil {
			q := c.queues[i]
			c.cfg.Metrics.QueueDepth.WithLabelValues(q.name).Set(float64(len(q.ch)))
		}

		c.emitReady(bufs)
	}
}

// emitReady slides complete chunks off the front of the local buffers.
func (c *Chunker) emitReady(bufs [][]float32) {
	for {
		for _, b := range bufs {
			if len(b) < c.chunkSize {
				return
			}
		}
		heads := make([][]float32, len(bufs))
		for i := range bufs {
			heads[i] = bufs[i][:c.chunkSize]
			bufs[i] = bufs[i][c.chunkSize:]
		}
		c.deliver(c.combine(heads), false)
	}
}

// finish drains whatever is still queued, then emits one final short chunk
// from the leftovers. In dual mode the shorter remainder is zero-padded to
// the longer one before mixing.
func (c *Chunker) finish(bufs [][]float32) {
	for i, q := range c.queues {
		for {
			select {
			case frame := <-q.ch:
				if frame != nil {
					bufs[i] = append(bufs[i], frame...)
				}
			default:
				goto next
			}
		}
	next:
	}

	c.emitReady(bufs)

	maxLen := 0
	for _, b := range bufs {
		if len(b) > maxLen {
			maxLen = len(b)
		}
	}
	if maxLen == 0 {
		return
	}
	for i := range bufs {
		if len(bufs[i]) < maxLen {
			bufs[i] = append(bufs[i], make([]float32, maxLen-len(bufs[i]))...)
		}
	}
	c.deliver(c.combine(bufs), true)
}

// combine mixes the per-stream slices into one chunk by averaging.
func (c *Chunker) combine(parts [][]float32) []float32 {
	if len(parts) == 1 {
		out := make([]float32, len(parts[0]))
		copy(out, parts[0])
		return out
	}
	return mix(parts[0], parts[1])
}

// deliver invokes the consumer callback. A failing or panicking consumer
// is logged per chunk and never terminates the worker: a transient
// downstream error must not cost audio.
func (c *Chunker) deliver(samples []float32, final bool) {
	c.seq++
	chunk := Chunk{
		Samples:    samples,
		SampleRate: c.cfg.SampleRate,
		Seq:        c.seq,
		Final:      final,
	}

	defer func() {
		if r := recover(); r != nil {
			c.cfg.Logger.Error().Interface("panic", r).Int("chunk", chunk.Seq).Msg("Chunk callback panicked")
			if c.cfg.Metrics != nil {
				c.cfg.Metrics.ChunkCallbackErrors.Inc()
			}
		}
	}()

	if err := c.emit(chunk); err != nil {
		c.cfg.Logger.Error().Err(err).Int("chunk", chunk.Seq).Msg("Chunk callback failed")
		if c.cfg.Metrics != nil {
			c.cfg.Metrics.ChunkCallbackErrors.Inc()
		}
		return
	}
	if c.cfg.Metrics != nil {
		c.cfg.Metrics.ChunksEmitted.Inc()
	}
}
