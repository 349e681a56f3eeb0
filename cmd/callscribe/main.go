package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/callscribe/callscribe/internal/analyze"
	"github.com/callscribe/callscribe/internal/app"
	"github.com/callscribe/callscribe/internal/audio"
	"github.com/callscribe/callscribe/internal/config"
	"github.com/callscribe/callscribe/internal/export"
	"github.com/callscribe/callscribe/internal/logging"
	"github.com/callscribe/callscribe/internal/metrics"
	"github.com/callscribe/callscribe/internal/permissions"
	"github.com/callscribe/callscribe/internal/transcribe"
)

var (
	// Version is set via ldflags at build time
	Version = "dev"
	// Commit is set via ldflags at build time
	Commit = "unknown"
)

type cliFlags struct {
	listDevices  bool
	device       int
	systemDevice int
	model        string
	output       string
	outputDir    string
	format       string
	timestamps   bool
	saveAudio    bool
	streaming    bool
	pausable     bool
	dual         bool
	skipAnalysis bool
	fullReport   bool
	copyResult   bool
	metricsAddr  string
	debug        bool
}

func main() {
	var f cliFlags
	flag.BoolVar(&f.listDevices, "list-devices", false, "list available audio devices and exit")
	flag.IntVar(&f.device, "device", -1, "input device index (default input when -1)")
	flag.IntVar(&f.systemDevice, "system-device", -1, "system audio device index (loopback) for dual mode")
	flag.StringVar(&f.model, "model", "", "whisper model (tiny.en, base.en, small.en, ...)")
	flag.StringVar(&f.output, "output", "", "output filename for the transcript")
	flag.StringVar(&f.outputDir, "output-dir", "", "output directory")
	flag.StringVar(&f.format, "format", "", "transcript format: txt or md")
	flag.BoolVar(&f.timestamps, "timestamps", false, "include timestamps in the transcript")
	flag.BoolVar(&f.saveAudio, "save-audio", false, "save recorded audio as WAV")
	flag.BoolVar(&f.streaming, "streaming", false, "real-time streaming transcription")
	flag.BoolVar(&f.pausable, "pausable", false, "pause/resume controls during recording")
	flag.BoolVar(&f.dual, "video-conference", false, "dual-stream capture: mic + system audio")
	flag.BoolVar(&f.skipAnalysis, "skip-analysis", false, "skip Claude analysis")
	flag.BoolVar(&f.fullReport, "full-report", false, "write a combined report with session metadata")
	flag.BoolVar(&f.copyResult, "copy", false, "copy the transcript to the clipboard")
	flag.StringVar(&f.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9090)")
	flag.BoolVar(&f.debug, "debug", false, "debug logging")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log := logging.New()
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	level := zerolog.InfoLevel
	if f.debug {
		level = zerolog.DebugLevel
	}
	log := logging.NewWithLevel(level)

	// Flags override the config file.
	if f.model != "" {
		cfg.Whisper.Model = f.model
	}
	if f.outputDir != "" {
		cfg.Output.Dir = f.outputDir
	}
	if f.format != "" {
		cfg.Output.Format = f.format
	}
	if f.timestamps {
		cfg.Output.Timestamps = true
	}
	if f.device >= 0 {
		cfg.Audio.MicDevice = f.device
	}
	if f.systemDevice >= 0 {
		cfg.Audio.SysDevice = f.systemDevice
	}

	if err := audio.Initialize(); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize audio subsystem")
	}
	defer audio.Terminate()

	if f.listDevices {
		if err := printDevices(); err != nil {
			log.Fatal().Err(err).Msg("Failed to list devices")
		}
		return
	}

	if err := permissions.EnsurePermissions(); err != nil {
		log.Fatal().Err(err).Msg("Microphone permission not granted")
	}

	m := metrics.New(prometheus.DefaultRegisterer)
	if f.metricsAddr != "" {
		go serveMetrics(f.metricsAddr, log)
	}

	transcriber, err := transcribe.New(transcribe.Config{
		Model:     cfg.Whisper.Model,
		ModelsDir: config.ModelsPath(),
		Language:  cfg.Whisper.Language,
		Threads:   cfg.Whisper.Threads,
		Logger:    log,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize whisper")
	}
	defer transcriber.Close()

	appCfg := app.Config{
		Transcriber: transcriber,
		Exporter:    export.New(cfg.Output.Dir, log),
		SampleRate:  cfg.Audio.SampleRate,
		Logger:      log,
	}
	if !f.skipAnalysis {
		analyzer, err := analyze.New(analyze.Config{Model: cfg.Claude.Model, Logger: log})
		if err != nil {
			log.Warn().Err(err).Msg("Analysis unavailable, continuing without it")
			f.skipAnalysis = true
		} else {
			appCfg.Analyzer = analyzer
		}
	}
	application := app.New(appCfg)

	opts := app.Options{
		Format:         cfg.Output.Format,
		Timestamps:     cfg.Output.Timestamps,
		SkipAnalysis:   f.skipAnalysis,
		FullReport:     f.fullReport,
		CopyTranscript: f.copyResult,
		OutputFile:     f.output,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	lines := make(chan string)
	go func() {
		sc := bufio.NewScanner(os.Stdin)
		for sc.Scan() {
			lines <- strings.TrimSpace(strings.ToLower(sc.Text()))
		}
		close(lines)
	}()

	ctrl := &controller{
		cfg:     cfg,
		app:     application,
		log:     log,
		metrics: m,
		lines:   lines,
		sig:     sigCh,
		flags:   f,
		opts:    opts,
	}

	var runErr error
	switch {
	case f.dual:
		runErr = ctrl.runDual(ctx)
	case f.streaming:
		runErr = ctrl.runStreaming(ctx, transcriber)
	case f.pausable:
		runErr = ctrl.runPausable(ctx)
	default:
		runErr = ctrl.runSingle(ctx)
	}
	if runErr != nil {
		log.Fatal().Err(runErr).Msg("Session failed")
	}
}

// serveMetrics exposes the registered Prometheus collectors over HTTP for
// the lifetime of the process.
func serveMetrics(addr string, log zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	log.Info().Str("addr", addr).Msg("Serving Prometheus metrics")
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Error().Err(err).Msg("Metrics server failed")
	}
}

func printDevices() error {
	devices, err := audio.ListDevices()
	if err != nil {
		return err
	}
	fmt.Println("Available audio devices:")
	for _, d := range devices {
		marker := " "
		if d.Default {
			marker = "*"
		}
		fmt.Printf(" %s [%d] %s (in: %d, out: %d)\n", marker, d.Index, d.Name, d.InputChannels, d.OutputChannels)
	}
	return nil
}
