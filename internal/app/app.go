// Package app orchestrates the record, transcribe, analyze, export
// pipeline.
package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/callscribe/callscribe/internal/export"
	"github.com/callscribe/callscribe/internal/transcribe"
)

// Transcriber turns raw audio into a transcript.
type Transcriber interface {
	Transcribe(samples []float32, sampleRate int) (transcribe.Result, error)
}

// Analyzer produces a written analysis of a transcript.
type Analyzer interface {
	Analyze(ctx context.Context, transcript string) (string, error)
	QuickSummary(ctx context.Context, transcript string) (string, error)
}

// Exporter persists pipeline artifacts.
type Exporter interface {
	SaveTranscript(transcript, filename, format string) (string, error)
	SaveAnalysis(analysis, filename string) (string, error)
	SaveReport(transcript, analysis string, meta []export.Field) (string, error)
	CopyToClipboard(text string) error
}

// Options controls what the pipeline produces beyond the transcript.
type Options struct {
	Format         string // "txt" or "md"
	Timestamps     bool
	SkipAnalysis   bool
	FullReport     bool
	CopyTranscript bool
	OutputFile     string
	Meta           []export.Field
}

// Result is everything one pipeline run produced.
type Result struct {
	Transcript     string
	Analysis       string
	TranscriptPath string
	AnalysisPath   string
	ReportPath     string
}

// Config wires the pipeline's collaborators.
type Config struct {
	Transcriber Transcriber
	Analyzer    Analyzer // nil disables analysis
	Exporter    Exporter
	SampleRate  int
	Logger      zerolog.Logger
}

// App runs captured audio through transcription, analysis, and export.
type App struct {
	stt        Transcriber
	analyzer   Analyzer
	exporter   Exporter
	sampleRate int
	log        zerolog.Logger
}

func New(cfg Config) *App {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 16000
	}
	return &App{
		stt:        cfg.Transcriber,
		analyzer:   cfg.Analyzer,
		exporter:   cfg.Exporter,
		sampleRate: cfg.SampleRate,
		log:        cfg.Logger,
	}
}

// Process transcribes a finished capture and runs the export and analysis
// steps over it.
func (a *App) Process(ctx context.Context, samples []float32, opts Options) (Result, error) {
	if len(samples) == 0 {
		return Result{}, fmt.Errorf("no audio to process")
	}

	a.log.Info().Float64("seconds", float64(len(samples))/float64(a.sampleRate)).Msg("Transcribing")
	result, err := a.stt.Transcribe(samples, a.sampleRate)
	if err != nil {
		return Result{}, fmt.Errorf("transcription failed: %w", err)
	}

	transcript := transcribe.FormatTranscript(result, opts.Timestamps)
	if strings.TrimSpace(transcript) == "" {
		return Result{}, fmt.Errorf("transcription produced no text")
	}

	return a.ProcessTranscript(ctx, transcript, opts)
}

// ProcessTranscript runs analysis and export over an existing transcript.
// The streaming workflow lands here after assembling its own transcript
// chunk by chunk.
func (a *App) ProcessTranscript(ctx context.Context, transcript string, opts Options) (Result, error) {
	if strings.TrimSpace(transcript) == "" {
		return Result{}, fmt.Errorf("transcript is empty")
	}

	out := Result{Transcript: transcript}

	path, err := a.exporter.SaveTranscript(transcript, opts.OutputFile, opts.Format)
	if err != nil {
		return out, fmt.Errorf("failed to save transcript: %w", err)
	}
	out.TranscriptPath = path

	if opts.CopyTranscript {
		if err := a.exporter.CopyToClipboard(transcript); err != nil {
			// Clipboard is a convenience; the files already exist.
			a.log.Warn().Err(err).Msg("Clipboard copy failed")
		}
	}

	if opts.SkipAnalysis || a.analyzer == nil {
		return out, nil
	}

	a.log.Info().Msg("Analyzing transcript")
	analysis, err := a.analyzer.Analyze(ctx, transcript)
	if err != nil {
		// The transcript is already on disk; analysis failure loses nothing.
		a.log.Error().Err(err).Msg("Analysis failed")
		return out, nil
	}
	out.Analysis = analysis

	if path, err := a.exporter.SaveAnalysis(analysis, ""); err != nil {
		a.log.Error().Err(err).Msg("Failed to save analysis")
	} else {
		out.AnalysisPath = path
	}

	if opts.FullReport {
		if path, err := a.exporter.SaveReport(transcript, analysis, opts.Meta); err != nil {
			a.log.Error().Err(err).Msg("Failed to save report")
		} else {
			out.ReportPath = path
		}
	}

	return out, nil
}
