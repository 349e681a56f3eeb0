package export

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func newTestExporter(t *testing.T) *Exporter {
	t.Helper()
	e := New(t.TempDir(), zerolog.Nop())
	e.now = func() time.Time {
		return time.Date(2026, 8, 26, 10, 30, 0, 0, time.UTC)
	}
	return e
}

func TestSaveTranscriptPlainText(t *testing.T) {
	e := newTestExporter(t)
	path, err := e.SaveTranscript("hello world", "", "txt")
	if err != nil {
		t.Fatalf("SaveTranscript: %v", err)
	}
	if filepath.Base(path) != "transcript_20260826_103000.txt" {
		t.Fatalf("unexpected filename %q", filepath.Base(path))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading transcript: %v", err)
	}
	if string(data) != "hello world" {
		t.Fatalf("content %q", data)
	}
}

func TestSaveTranscriptMarkdown(t *testing.T) {
	e := newTestExporter(t)
	path, err := e.SaveTranscript("hello world", "meeting.md", "md")
	if err != nil {
		t.Fatalf("SaveTranscript: %v", err)
	}
	if filepath.Base(path) != "meeting.md" {
		t.Fatalf("explicit filename not honored: %q", path)
	}
	data, _ := os.ReadFile(path)
	if !strings.HasPrefix(string(data), "# Transcript\n") {
		t.Fatalf("markdown header missing: %q", data)
	}
	if !strings.Contains(string(data), "hello world") {
		t.Fatal("transcript body missing")
	}
}

func TestSaveTranscriptUnknownFormatFallsBackToText(t *testing.T) {
	e := newTestExporter(t)
	path, err := e.SaveTranscript("x", "", "pdf")
	if err != nil {
		t.Fatalf("SaveTranscript: %v", err)
	}
	if !strings.HasSuffix(path, ".txt") {
		t.Fatalf("got %q, want .txt fallback", path)
	}
}

func TestSaveTranscriptEmpty(t *testing.T) {
	e := newTestExporter(t)
	if _, err := e.SaveTranscript("  \n", "", "txt"); err == nil {
		t.Fatal("expected error for empty transcript")
	}
}

func TestSaveAnalysis(t *testing.T) {
	e := newTestExporter(t)
	path, err := e.SaveAnalysis("insightful", "")
	if err != nil {
		t.Fatalf("SaveAnalysis: %v", err)
	}
	data, _ := os.ReadFile(path)
	if !strings.HasPrefix(string(data), "# Meeting Analysis\n") {
		t.Fatalf("analysis header missing: %q", data)
	}
}

func TestSaveReport(t *testing.T) {
	e := newTestExporter(t)
	meta := []Field{
		{Key: "Duration", Value: "12.50 seconds"},
		{Key: "Model", Value: "base.en"},
	}
	path, err := e.SaveReport("the transcript", "the analysis", meta)
	if err != nil {
		t.Fatalf("SaveReport: %v", err)
	}
	content := func() string {
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("reading report: %v", err)
		}
		return string(data)
	}()

	for _, want := range []string{
		"# Call Report",
		"- **Duration**: 12.50 seconds",
		"- **Model**: base.en",
		"## Transcript",
		"the transcript",
		"## Analysis",
		"the analysis",
	} {
		if !strings.Contains(content, want) {
			t.Fatalf("report missing %q:\n%s", want, content)
		}
	}

	// Metadata order is preserved.
	if strings.Index(content, "Duration") > strings.Index(content, "Model") {
		t.Fatal("metadata fields reordered")
	}
}

func TestSaveReportWithoutAnalysis(t *testing.T) {
	e := newTestExporter(t)
	path, err := e.SaveReport("words", "", nil)
	if err != nil {
		t.Fatalf("SaveReport: %v", err)
	}
	data, _ := os.ReadFile(path)
	if strings.Contains(string(data), "## Analysis") {
		t.Fatal("empty analysis should be omitted from the report")
	}
}

func TestCopyToClipboardRejectsEmpty(t *testing.T) {
	e := newTestExporter(t)
	if err := e.CopyToClipboard("  "); err == nil {
		t.Fatal("expected error for empty clipboard content")
	}
}
