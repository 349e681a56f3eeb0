// Package transcribe turns captured audio into text using local
// whisper.cpp models.
package transcribe

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	whisper "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"
	"github.com/rs/zerolog"
)

// Segment is one timed span of recognized speech.
type Segment struct {
	Start time.Duration `json:"start"`
	End   time.Duration `json:"end"`
	Text  string        `json:"text"`
}

// Result is a complete transcription of one buffer of audio.
type Result struct {
	Text     string    `json:"text"`
	Language string    `json:"language"`
	Segments []Segment `json:"segments"`
}

// Engine transcribes a buffer of mono float samples. Implemented by
// Transcriber; tests substitute their own.
type Engine interface {
	Transcribe(samples []float32, sampleRate int) (Result, error)
	Close() error
}

// Config configures a Transcriber.
type Config struct {
	Model     string // e.g. "base.en"
	ModelsDir string
	Language  string // empty or "auto" autodetects
	Threads   int
	Logger    zerolog.Logger
}

// Transcriber runs whisper.cpp inference on in-memory audio. One model is
// loaded for the lifetime of the transcriber; Transcribe is serialized so
// concurrent callers do not contend for the context.
type Transcriber struct {
	cfg   Config
	mu    sync.Mutex
	model whisper.Model
}

// New loads the configured model, downloading it first if it is not on
// disk yet.
func New(cfg Config) (*Transcriber, error) {
	if cfg.Model == "" {
		cfg.Model = "base.en"
	}
	modelPath := filepath.Join(cfg.ModelsDir, cfg.Model+".bin")

	if _, err := os.Stat(modelPath); os.IsNotExist(err) {
		if err := downloadModel(cfg.Model, modelPath, cfg.Logger); err != nil {
			return nil, fmt.Errorf("failed to download model: %w", err)
		}
	}

	model, err := whisper.New(modelPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load model: %w", err)
	}
	cfg.Logger.Info().Str("model", cfg.Model).Str("path", modelPath).Msg("Whisper model loaded")

	return &Transcriber{cfg: cfg, model: model}, nil
}

// Transcribe runs the model over samples and collects every segment.
// samples must be mono at whisper's native 16 kHz rate.
func (t *Transcriber) Transcribe(samples []float32, sampleRate int) (Result, error) {
	if len(samples) == 0 {
		return Result{}, fmt.Errorf("no audio samples to transcribe")
	}
	if sampleRate != whisper.SampleRate {
		return Result{}, fmt.Errorf("unsupported sample rate %d, whisper requires %d", sampleRate, whisper.SampleRate)
	}

	samples = normalize(samples)

	t.mu.Lock()
	defer t.mu.Unlock()

	context, err := t.model.NewContext()
	if err != nil {
		return Result{}, fmt.Errorf("failed to create context: %w", err)
	}

	if t.cfg.Threads > 0 {
		context.SetThreads(uint(t.cfg.Threads))
	}
	if t.cfg.Language != "" && t.cfg.Language != "auto" {
		if err := context.SetLanguage(t.cfg.Language); err != nil {
			return Result{}, fmt.Errorf("failed to set language: %w", err)
		}
	}
	context.SetTranslate(false)

	start := time.Now()
	if err := context.Process(samples, nil, nil); err != nil {
		return Result{}, fmt.Errorf("whisper process failed: %w", err)
	}

	var (
		result Result
		texts  []string
	)
	for {
		segment, err := context.NextSegment()
		if err != nil {
			break // EOF
		}
		text := strings.TrimSpace(segment.Text)
		result.Segments = append(result.Segments, Segment{
			Start: segment.Start,
			End:   segment.End,
			Text:  text,
		})
		if text != "" {
			texts = append(texts, text)
		}
	}
	result.Text = strings.Join(texts, " ")
	result.Language = context.Language()

	t.cfg.Logger.Debug().
		Float64("audio_seconds", float64(len(samples))/float64(whisper.SampleRate)).
		Dur("elapsed", time.Since(start)).
		Int("segments", len(result.Segments)).
		Msg("Transcription complete")
	return result, nil
}

// Close releases the loaded model.
func (t *Transcriber) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.model != nil {
		t.model.Close()
		t.model = nil
	}
	return nil
}

// normalize rescales samples into [-1, 1] when any exceed it. Whisper
// expects normalized input; rescaling keeps clipped captures usable.
func normalize(samples []float32) []float32 {
	peak := float32(0)
	for _, s := range samples {
		if s > peak {
			peak = s
		} else if -s > peak {
			peak = -s
		}
	}
	if peak <= 1 {
		return samples
	}
	out := make([]float32, len(samples))
	for i, s := range samples {
		out[i] = s / peak
	}
	return out
}

// FormatTranscript renders a result as readable text, one line per segment
// with an [MM:SS] prefix when timestamps are requested.
func FormatTranscript(result Result, includeTimestamps bool) string {
	if !includeTimestamps || len(result.Segments) == 0 {
		return strings.TrimSpace(result.Text)
	}
	lines := make([]string, 0, len(result.Segments))
	for _, seg := range result.Segments {
		lines = append(lines, fmt.Sprintf("[%s] %s", formatTimestamp(seg.Start), seg.Text))
	}
	return strings.Join(lines, "\n")
}

func formatTimestamp(d time.Duration) string {
	total := int(d.Seconds())
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}
