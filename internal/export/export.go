// Package export writes transcripts, analyses, and combined reports to
// disk and to the system clipboard.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/rs/zerolog"
)

// Field is one ordered metadata entry in a report header.
type Field struct {
	Key   string
	Value string
}

// Exporter writes session artifacts under a single output directory.
type Exporter struct {
	outputDir string
	logger    zerolog.Logger
	now       func() time.Time
}

// New creates an exporter rooted at dir (defaults to "output").
func New(dir string, logger zerolog.Logger) *Exporter {
	if dir == "" {
		dir = "output"
	}
	return &Exporter{outputDir: dir, logger: logger, now: time.Now}
}

// SaveTranscript writes a transcript as plain text or markdown. An empty
// filename gets a timestamped name; format is "txt" or "md".
func (e *Exporter) SaveTranscript(transcript, filename, format string) (string, error) {
	if strings.TrimSpace(transcript) == "" {
		return "", fmt.Errorf("transcript is empty, nothing to save")
	}
	if format != "md" {
		format = "txt"
	}
	if filename == "" {
		filename = fmt.Sprintf("transcript_%s.%s", e.timestamp(), format)
	}

	content := transcript
	if format == "md" {
		content = fmt.Sprintf("# Transcript\n\n_%s_\n\n%s\n", e.now().Format("2006-01-02 15:04:05"), transcript)
	}

	path, err := e.write(filename, content)
	if err != nil {
		return "", err
	}
	e.logger.Info().Str("path", path).Msg("Transcript saved")
	return path, nil
}

// SaveAnalysis writes an analysis as markdown. An empty filename gets a
// timestamped name.
func (e *Exporter) SaveAnalysis(analysis, filename string) (string, error) {
	if strings.TrimSpace(analysis) == "" {
		return "", fmt.Errorf("analysis is empty, nothing to save")
	}
	if filename == "" {
		filename = fmt.Sprintf("analysis_%s.md", e.timestamp())
	}

	content := fmt.Sprintf("# Meeting Analysis\n\n_%s_\n\n%s\n", e.now().Format("2006-01-02 15:04:05"), analysis)
	path, err := e.write(filename, content)
	if err != nil {
		return "", err
	}
	e.logger.Info().Str("path", path).Msg("Analysis saved")
	return path, nil
}

// SaveReport writes a combined markdown report: metadata header, full
// transcript, then the analysis when present.
func (e *Exporter) SaveReport(transcript, analysis string, meta []Field) (string, error) {
	if strings.TrimSpace(transcript) == "" {
		return "", fmt.Errorf("transcript is empty, nothing to report")
	}

	var b strings.Builder
	b.WriteString("# Call Report\n\n")
	if len(meta) > 0 {
		b.WriteString("## Session\n\n")
		for _, f := range meta {
			fmt.Fprintf(&b, "- **%s**: %s\n", f.Key, f.Value)
		}
		b.WriteString("\n")
	}
	b.WriteString("## Transcript\n\n")
	b.WriteString(transcript)
	b.WriteString("\n")
	if strings.TrimSpace(analysis) != "" {
		b.WriteString("\n## Analysis\n\n")
		b.WriteString(analysis)
		b.WriteString("\n")
	}

	path, err := e.write(fmt.Sprintf("report_%s.md", e.timestamp()), b.String())
	if err != nil {
		return "", err
	}
	e.logger.Info().Str("path", path).Msg("Report saved")
	return path, nil
}

// CopyToClipboard puts text on the system clipboard.
func (e *Exporter) CopyToClipboard(text string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("nothing to copy")
	}
	if err := clipboard.WriteAll(text); err != nil {
		return fmt.Errorf("clipboard write failed: %w", err)
	}
	e.logger.Info().Int("chars", len(text)).Msg("Copied to clipboard")
	return nil
}

func (e *Exporter) write(filename, content string) (string, error) {
	if err := os.MkdirAll(e.outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	path := filepath.Join(e.outputDir, filename)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", filename, err)
	}
	return path, nil
}

func (e *Exporter) timestamp() string {
	return e.now().Format("20060102_150405")
}
