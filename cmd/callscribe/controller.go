package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/callscribe/callscribe/internal/app"
	"github.com/callscribe/callscribe/internal/audio"
	"github.com/callscribe/callscribe/internal/config"
	"github.com/callscribe/callscribe/internal/export"
	"github.com/callscribe/callscribe/internal/metrics"
	"github.com/callscribe/callscribe/internal/transcribe"
)

// controller drives one recording session from the terminal: stdin lines
// are commands, SIGINT stops the session cleanly.
type controller struct {
	cfg     *config.Config
	app     *app.App
	log     zerolog.Logger
	metrics *metrics.Metrics
	lines   chan string
	sig     chan os.Signal
	flags   cliFlags
	opts    app.Options
}

// waitEnter blocks until the user presses ENTER. A signal while waiting
// exits the program.
func (c *controller) waitEnter(prompt string) {
	fmt.Println(prompt)
	select {
	case _, ok := <-c.lines:
		if !ok {
			os.Exit(0)
		}
	case <-c.sig:
		fmt.Println()
		os.Exit(0)
	}
}

// waitStop blocks until ENTER or a signal; either means stop recording.
func (c *controller) waitStop(prompt string) {
	fmt.Println(prompt)
	select {
	case <-c.lines:
	case <-c.sig:
		fmt.Println("\nStopping recording...")
	}
}

func (c *controller) runSingle(ctx context.Context) error {
	rec := audio.NewRecorder(audio.RecorderConfig{
		SampleRate: c.cfg.Audio.SampleRate,
		Device:     c.cfg.Audio.MicDevice,
		OutputDir:  c.cfg.Output.Dir,
		Logger:     c.log,
		Metrics:    c.metrics,
	})

	c.waitEnter("Press ENTER to start recording...")
	if err := rec.StartRecording(); err != nil {
		return err
	}
	c.waitStop("🔴 Recording... press ENTER to stop")

	buf, err := rec.StopRecording()
	if err != nil {
		return err
	}
	if len(buf) == 0 {
		return fmt.Errorf("no audio recorded")
	}

	if c.flags.saveAudio {
		if path, err := rec.Save(buf, ""); err != nil {
			c.log.Warn().Err(err).Msg("Failed to save audio")
		} else {
			fmt.Printf("Audio saved to: %s\n", path)
		}
	}

	opts := c.opts
	opts.Meta = sessionMeta(float64(len(buf))/float64(c.cfg.Audio.SampleRate), c.cfg)
	return c.finish(ctx, buf, opts)
}

func (c *controller) runPausable(ctx context.Context) error {
	rec := audio.NewPausableRecorder(audio.RecorderConfig{
		SampleRate: c.cfg.Audio.SampleRate,
		Device:     c.cfg.Audio.MicDevice,
		OutputDir:  c.cfg.Output.Dir,
		Logger:     c.log,
		Metrics:    c.metrics,
	})

	c.waitEnter("Controls: 'p' pause, 'r' resume, 's' stop, 'status'.\nPress ENTER to start recording...")
	if err := rec.StartRecording(); err != nil {
		return err
	}
	fmt.Println("🔴 Recording...")

	c.pausableLoop(rec)

	buf, err := rec.StopRecording()
	if err != nil {
		return err
	}
	if len(buf) == 0 {
		return fmt.Errorf("no audio recorded")
	}

	if c.flags.saveAudio {
		if path, err := rec.Save(buf, ""); err != nil {
			c.log.Warn().Err(err).Msg("Failed to save audio")
		} else {
			fmt.Printf("Audio saved to: %s\n", path)
		}
	}

	status := rec.Status()
	opts := c.opts
	opts.Meta = append(
		sessionMeta(float64(len(buf))/float64(c.cfg.Audio.SampleRate), c.cfg),
		export.Field{Key: "Pauses", Value: fmt.Sprintf("%d", status.PauseCount)},
	)
	return c.finish(ctx, buf, opts)
}

func (c *controller) pausableLoop(rec *audio.PausableRecorder) {
	for {
		select {
		case cmd, ok := <-c.lines:
			if !ok {
				return
			}
			switch cmd {
			case "p":
				if rec.Pause() {
					fmt.Println("⏸  Paused")
				}
			case "r":
				if rec.Resume() {
					fmt.Println("🔴 Recording...")
				}
			case "s":
				fmt.Println("Stopping recording...")
				return
			case "status":
				printStatus(rec.Status())
			case "":
			default:
				fmt.Println("Commands: 'p' (pause), 'r' (resume), 's' (stop), 'status'")
			}
		case <-c.sig:
			fmt.Println("\nStopping recording...")
			return
		}
	}
}

func printStatus(s audio.Status) {
	yesno := func(b bool) string {
		if b {
			return "Yes"
		}
		return "No"
	}
	fmt.Println("\n📊 Status:")
	fmt.Printf("   Recording: %s\n", yesno(s.Recording))
	fmt.Printf("   Paused: %s\n", yesno(s.Paused))
	fmt.Printf("   Duration: %.1fs\n", s.Duration)
	fmt.Printf("   Segments: %d\n", s.Segments)
	fmt.Printf("   Pauses: %d\n\n", s.PauseCount)
}

func (c *controller) runDual(ctx context.Context) error {
	sysDevice := c.cfg.Audio.SysDevice
	if sysDevice < 0 {
		// Look for a loopback device like BlackHole before giving up.
		dev, err := audio.FindLoopbackDevice("blackhole")
		if err != nil {
			return fmt.Errorf("no system audio device: pass -system-device (see -list-devices): %w", err)
		}
		sysDevice = dev.Index
		fmt.Printf("Using system audio device [%d] %s\n", dev.Index, dev.Name)
	}

	rec := audio.NewDualRecorder(audio.DualRecorderConfig{
		MicDevice:    c.cfg.Audio.MicDevice,
		SystemDevice: sysDevice,
		SampleRate:   c.cfg.Audio.SampleRate,
		OutputDir:    c.cfg.Output.Dir,
		Logger:       c.log,
		Metrics:      c.metrics,
	})

	c.waitEnter("Dual-stream mode: mic + system audio.\nPress ENTER to start recording...")
	if err := rec.StartRecording(); err != nil {
		return err
	}
	c.waitStop("🔴 Recording both streams... press ENTER to stop")

	result, err := rec.StopRecording()
	if err != nil {
		return err
	}
	if len(result.Combined) == 0 {
		return fmt.Errorf("no audio recorded from one or both streams")
	}

	if c.flags.saveAudio {
		if saved, err := rec.Save(result, ""); err != nil {
			c.log.Warn().Err(err).Msg("Failed to save audio")
		} else {
			for name, path := range saved {
				fmt.Printf("Audio (%s) saved to: %s\n", name, path)
			}
		}
	}

	opts := c.opts
	opts.Meta = append(
		sessionMeta(float64(len(result.Combined))/float64(c.cfg.Audio.SampleRate), c.cfg),
		export.Field{Key: "Mode", Value: "dual-stream (mic + system)"},
	)
	return c.finish(ctx, result.Combined, opts)
}

func (c *controller) runStreaming(ctx context.Context, engine transcribe.Engine) error {
	rec := audio.NewStreamingRecorder(audio.RecorderConfig{
		SampleRate: c.cfg.Audio.SampleRate,
		Device:     c.cfg.Audio.MicDevice,
		OutputDir:  c.cfg.Output.Dir,
		Logger:     c.log,
		Metrics:    c.metrics,
	}, audio.ChunkerConfig{
		ChunkDuration: c.cfg.Audio.ChunkSecs,
	})

	st := transcribe.NewStreamingTranscriber(engine, c.log, c.metrics)

	c.waitEnter(fmt.Sprintf("Streaming mode: transcribed every %.0f seconds.\nPress ENTER to start...", c.cfg.Audio.ChunkSecs))
	if err := rec.StartStreaming(func(chunk audio.Chunk) error {
		text, err := st.TranscribeChunk(chunk)
		if err != nil {
			return err
		}
		if text != "" {
			fmt.Printf("[Chunk %d] %s\n", chunk.Seq, text)
		}
		return nil
	}); err != nil {
		return err
	}
	c.waitStop("🔴 LIVE, transcribing in real time... press ENTER to stop")

	buf, err := rec.StopStreaming()
	if err != nil {
		return err
	}

	transcript := st.FullTranscript()
	if transcript == "" {
		return fmt.Errorf("no speech transcribed")
	}
	fmt.Printf("\nComplete transcript:\n%s\n\n", transcript)

	if c.flags.saveAudio && len(buf) > 0 {
		if path, err := rec.Save(buf, ""); err != nil {
			c.log.Warn().Err(err).Msg("Failed to save audio")
		} else {
			fmt.Printf("Audio saved to: %s\n", path)
		}
	}

	opts := c.opts
	opts.Meta = sessionMeta(float64(len(buf))/float64(c.cfg.Audio.SampleRate), c.cfg)
	result, err := c.app.ProcessTranscript(ctx, transcript, opts)
	if err != nil {
		return err
	}
	c.printOutcome(result)
	return nil
}

func (c *controller) finish(ctx context.Context, samples []float32, opts app.Options) error {
	fmt.Println("\nTranscribing...")
	result, err := c.app.Process(ctx, samples, opts)
	if err != nil {
		return err
	}
	fmt.Printf("\nTranscript:\n%s\n", result.Transcript)
	c.printOutcome(result)
	return nil
}

func (c *controller) printOutcome(result app.Result) {
	fmt.Printf("\n✓ Transcript saved to: %s\n", result.TranscriptPath)
	if result.Analysis != "" {
		fmt.Printf("\nAnalysis:\n%s\n", result.Analysis)
	}
	if result.AnalysisPath != "" {
		fmt.Printf("✓ Analysis saved to: %s\n", result.AnalysisPath)
	}
	if result.ReportPath != "" {
		fmt.Printf("✓ Report saved to: %s\n", result.ReportPath)
	}
}

func sessionMeta(seconds float64, cfg *config.Config) []export.Field {
	return []export.Field{
		{Key: "Date", Value: time.Now().Format("2006-01-02 15:04:05")},
		{Key: "Duration", Value: fmt.Sprintf("%.2f seconds", seconds)},
		{Key: "Model", Value: cfg.Whisper.Model},
		{Key: "Sample Rate", Value: fmt.Sprintf("%d Hz", cfg.Audio.SampleRate)},
	}
}
