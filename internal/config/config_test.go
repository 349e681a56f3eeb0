package config

import (
	"os"
	"path/filepath"
	"testing"
)

func isolateConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("HOME", dir)
	t.Setenv("WHISPER_MODEL", "")
	t.Setenv("CLAUDE_MODEL", "")
	t.Setenv("SAMPLE_RATE", "")
	return dir
}

func TestLoadDefaults(t *testing.T) {
	isolateConfig(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Audio.SampleRate != 16000 || cfg.Audio.Channels != 1 {
		t.Fatalf("audio defaults: %+v", cfg.Audio)
	}
	if cfg.Audio.MicDevice != -1 || cfg.Audio.SysDevice != -1 {
		t.Fatalf("device defaults should be -1: %+v", cfg.Audio)
	}
	if cfg.Whisper.Model != "base.en" {
		t.Fatalf("whisper model default %q", cfg.Whisper.Model)
	}
	if cfg.Output.Dir != "output" || cfg.Output.Format != "txt" {
		t.Fatalf("output defaults: %+v", cfg.Output)
	}
}

func TestSaveAndReload(t *testing.T) {
	isolateConfig(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	cfg.Whisper.Model = "small.en"
	cfg.Audio.MicDevice = 4
	if err := cfg.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	reloaded, err := Load()
	if err != nil {
		t.Fatalf("second Load: %v", err)
	}
	if reloaded.Whisper.Model != "small.en" {
		t.Fatalf("model not persisted: %q", reloaded.Whisper.Model)
	}
	if reloaded.Audio.MicDevice != 4 {
		t.Fatalf("device not persisted: %d", reloaded.Audio.MicDevice)
	}
}

func TestEnvOverrides(t *testing.T) {
	isolateConfig(t)
	t.Setenv("WHISPER_MODEL", "tiny.en")
	t.Setenv("SAMPLE_RATE", "48000")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Whisper.Model != "tiny.en" {
		t.Fatalf("env model override ignored: %q", cfg.Whisper.Model)
	}
	if cfg.Audio.SampleRate != 48000 {
		t.Fatalf("env sample rate override ignored: %d", cfg.Audio.SampleRate)
	}
}

func TestMalformedConfigFileFails(t *testing.T) {
	dir := isolateConfig(t)
	path := filepath.Join(dir, "callscribe", "config.json")
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(); err == nil {
		t.Fatal("expected error for malformed config file")
	}
}
