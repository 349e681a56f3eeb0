// Package analyze sends transcripts to the Anthropic API for structured
// meeting analysis.
package analyze

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rs/zerolog"
)

const (
	defaultModel     = "claude-3-haiku-20240307"
	defaultMaxTokens = 4096
)

// messageCreator is the slice of the Anthropic client the analyzer uses.
// Satisfied by anthropic.MessageService; tests provide their own.
type messageCreator interface {
	New(ctx context.Context, params anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

// Config configures an Analyzer.
type Config struct {
	// APIKey falls back to the ANTHROPIC_API_KEY environment variable.
	APIKey string
	Model  string
	Logger zerolog.Logger
}

// Analyzer runs transcript analysis through the Anthropic messages API.
type Analyzer struct {
	messages messageCreator
	model    string
	logger   zerolog.Logger
}

// New creates an analyzer. It fails when no API key is available rather
// than at first use, so a misconfigured run dies before recording.
func New(cfg Config) (*Analyzer, error) {
	key := cfg.APIKey
	if key == "" {
		key = os.Getenv("ANTHROPIC_API_KEY")
	}
	if key == "" {
		return nil, fmt.Errorf("ANTHROPIC_API_KEY not set")
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}

	client := anthropic.NewClient(option.WithAPIKey(key))
	cfg.Logger.Info().Str("model", cfg.Model).Msg("Analysis client initialized")

	return &Analyzer{
		messages: &client.Messages,
		model:    cfg.Model,
		logger:   cfg.Logger,
	}, nil
}

// Analyze runs the full meeting analysis over a transcript.
func (a *Analyzer) Analyze(ctx context.Context, transcript string) (string, error) {
	return a.run(ctx, analysisPrompt, transcript)
}

// AnalyzeStyle runs a named analysis style ("sentiment", "technical",
// "business", "summary") over a transcript.
func (a *Analyzer) AnalyzeStyle(ctx context.Context, style, transcript string) (string, error) {
	return a.run(ctx, promptFor(style), transcript)
}

// QuickSummary returns a 2-3 sentence summary of a transcript.
func (a *Analyzer) QuickSummary(ctx context.Context, transcript string) (string, error) {
	return a.run(ctx, quickSummaryPrompt, transcript)
}

func (a *Analyzer) run(ctx context.Context, prompt, transcript string) (string, error) {
	if strings.TrimSpace(transcript) == "" {
		return "", fmt.Errorf("transcript is empty, nothing to analyze")
	}

	a.logger.Info().Int("transcript_chars", len(transcript)).Msg("Sending transcript for analysis")

	message, err := a.messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		MaxTokens: defaultMaxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(fmt.Sprintf(prompt, transcript))),
		},
	})
	if err != nil {
		return "", fmt.Errorf("analysis request failed: %w", err)
	}

	var out strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			out.WriteString(block.Text)
		}
	}
	if out.Len() == 0 {
		return "", fmt.Errorf("analysis returned no text content")
	}

	a.logger.Info().Msg("Analysis complete")
	return out.String(), nil
}
