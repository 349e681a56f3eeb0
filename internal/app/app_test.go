package app

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/callscribe/callscribe/internal/export"
	"github.com/callscribe/callscribe/internal/transcribe"
)

// Mock implementations for testing

type mockTranscriber struct {
	result transcribe.Result
	err    error
	gotN   int
}

func (m *mockTranscriber) Transcribe(samples []float32, sampleRate int) (transcribe.Result, error) {
	m.gotN = len(samples)
	return m.result, m.err
}

type mockAnalyzer struct {
	analysis string
	err      error
	calls    int
}

func (m *mockAnalyzer) Analyze(ctx context.Context, transcript string) (string, error) {
	m.calls++
	return m.analysis, m.err
}

func (m *mockAnalyzer) QuickSummary(ctx context.Context, transcript string) (string, error) {
	return m.analysis, m.err
}

type mockExporter struct {
	transcripts []string
	analyses    []string
	reports     int
	copied      string
	copyErr     error
}

func (m *mockExporter) SaveTranscript(transcript, filename, format string) (string, error) {
	m.transcripts = append(m.transcripts, transcript)
	return "/out/transcript.txt", nil
}

func (m *mockExporter) SaveAnalysis(analysis, filename string) (string, error) {
	m.analyses = append(m.analyses, analysis)
	return "/out/analysis.md", nil
}

func (m *mockExporter) SaveReport(transcript, analysis string, meta []export.Field) (string, error) {
	m.reports++
	return "/out/report.md", nil
}

func (m *mockExporter) CopyToClipboard(text string) error {
	m.copied = text
	return m.copyErr
}

func testApp(stt Transcriber, an Analyzer, ex Exporter) *App {
	return New(Config{
		Transcriber: stt,
		Analyzer:    an,
		Exporter:    ex,
		SampleRate:  16000,
		Logger:      zerolog.Nop(),
	})
}

func TestProcessFullPipeline(t *testing.T) {
	stt := &mockTranscriber{result: transcribe.Result{
		Text: "hello there",
		Segments: []transcribe.Segment{
			{Start: 0, End: time.Second, Text: "hello there"},
		},
	}}
	an := &mockAnalyzer{analysis: "a friendly greeting"}
	ex := &mockExporter{}

	result, err := testApp(stt, an, ex).Process(context.Background(), make([]float32, 16000), Options{
		Timestamps: true,
		FullReport: true,
	})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	if stt.gotN != 16000 {
		t.Fatalf("transcriber saw %d samples, want 16000", stt.gotN)
	}
	if !strings.Contains(result.Transcript, "[00:00] hello there") {
		t.Fatalf("transcript %q missing timestamped line", result.Transcript)
	}
	if result.Analysis != "a friendly greeting" {
		t.Fatalf("analysis %q", result.Analysis)
	}
	if result.TranscriptPath == "" || result.AnalysisPath == "" || result.ReportPath == "" {
		t.Fatalf("missing artifact paths: %+v", result)
	}
	if ex.reports != 1 {
		t.Fatalf("saved %d reports, want 1", ex.reports)
	}
}

func TestProcessSkipsAnalysis(t *testing.T) {
	stt := &mockTranscriber{result: transcribe.Result{Text: "words"}}
	an := &mockAnalyzer{analysis: "should not run"}
	ex := &mockExporter{}

	result, err := testApp(stt, an, ex).Process(context.Background(), make([]float32, 100), Options{
		SkipAnalysis: true,
	})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if an.calls != 0 {
		t.Fatalf("analyzer ran %d times with SkipAnalysis set", an.calls)
	}
	if result.Analysis != "" {
		t.Fatalf("unexpected analysis %q", result.Analysis)
	}
}

func TestProcessWithoutAnalyzer(t *testing.T) {
	stt := &mockTranscriber{result: transcribe.Result{Text: "words"}}
	ex := &mockExporter{}

	result, err := testApp(stt, nil, ex).Process(context.Background(), make([]float32, 100), Options{})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if result.TranscriptPath == "" {
		t.Fatal("transcript not saved")
	}
}

func TestProcessAnalysisFailureKeepsTranscript(t *testing.T) {
	stt := &mockTranscriber{result: transcribe.Result{Text: "words"}}
	an := &mockAnalyzer{err: errors.New("api down")}
	ex := &mockExporter{}

	result, err := testApp(stt, an, ex).Process(context.Background(), make([]float32, 100), Options{})
	if err != nil {
		t.Fatalf("Process should not fail when only analysis fails: %v", err)
	}
	if result.TranscriptPath == "" {
		t.Fatal("transcript path lost after analysis failure")
	}
	if len(ex.analyses) != 0 {
		t.Fatal("failed analysis should not be saved")
	}
}

func TestProcessTranscriptionFailure(t *testing.T) {
	stt := &mockTranscriber{err: errors.New("model error")}
	ex := &mockExporter{}

	if _, err := testApp(stt, nil, ex).Process(context.Background(), make([]float32, 100), Options{}); err == nil {
		t.Fatal("expected transcription error to propagate")
	}
	if len(ex.transcripts) != 0 {
		t.Fatal("nothing should be exported after a failed transcription")
	}
}

func TestProcessEmptyAudio(t *testing.T) {
	if _, err := testApp(&mockTranscriber{}, nil, &mockExporter{}).Process(context.Background(), nil, Options{}); err == nil {
		t.Fatal("expected error for empty audio")
	}
}

func TestProcessTranscriptCopiesToClipboard(t *testing.T) {
	ex := &mockExporter{}
	_, err := testApp(&mockTranscriber{}, nil, ex).ProcessTranscript(context.Background(), "copy me", Options{
		CopyTranscript: true,
	})
	if err != nil {
		t.Fatalf("ProcessTranscript: %v", err)
	}
	if ex.copied != "copy me" {
		t.Fatalf("clipboard got %q", ex.copied)
	}
}

func TestProcessTranscriptClipboardFailureIsNotFatal(t *testing.T) {
	ex := &mockExporter{copyErr: errors.New("no clipboard in CI")}
	result, err := testApp(&mockTranscriber{}, nil, ex).ProcessTranscript(context.Background(), "text", Options{
		CopyTranscript: true,
	})
	if err != nil {
		t.Fatalf("ProcessTranscript: %v", err)
	}
	if result.TranscriptPath == "" {
		t.Fatal("transcript not saved despite clipboard failure")
	}
}
