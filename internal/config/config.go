package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
)

type Config struct {
	Audio   AudioConfig   `json:"audio"`
	Whisper WhisperConfig `json:"whisper"`
	Claude  ClaudeConfig  `json:"claude"`
	Output  OutputConfig  `json:"output"`
}

type AudioConfig struct {
	SampleRate int     `json:"sample_rate"`
	Channels   int     `json:"channels"`
	MicDevice  int     `json:"mic_device"`    // -1 selects the default input
	SysDevice  int     `json:"system_device"` // -1 disables system capture
	ChunkSecs  float64 `json:"chunk_seconds"` // streaming chunk length
}

type WhisperConfig struct {
	Model    string `json:"model"`    // "base.en", "small.en", etc.
	Language string `json:"language"` // "auto", "en", etc.
	Threads  int    `json:"threads"`  // 0 autodetects
}

type ClaudeConfig struct {
	Model string `json:"model"`
}

type OutputConfig struct {
	Dir        string `json:"dir"`
	Format     string `json:"format"` // "txt" or "md"
	Timestamps bool   `json:"timestamps"`
	SaveAudio  bool   `json:"save_audio"`
}

// Load reads the config from disk or returns defaults. Environment
// variables WHISPER_MODEL, CLAUDE_MODEL, and SAMPLE_RATE override the
// file. The Anthropic API key is never stored here; it stays in
// ANTHROPIC_API_KEY.
func Load() (*Config, error) {
	path := configPath()

	cfg := &Config{
		Audio: AudioConfig{
			SampleRate: 16000,
			Channels:   1,
			MicDevice:  -1,
			SysDevice:  -1,
			ChunkSecs:  5.0,
		},
		Whisper: WhisperConfig{
			Model:    "base.en",
			Language: "auto",
			Threads:  0,
		},
		Claude: ClaudeConfig{
			Model: "claude-3-haiku-20240307",
		},
		Output: OutputConfig{
			Dir:        "output",
			Format:     "txt",
			Timestamps: true,
		},
	}

	if data, err := os.ReadFile(path); err == nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}

	if v := os.Getenv("WHISPER_MODEL"); v != "" {
		cfg.Whisper.Model = v
	}
	if v := os.Getenv("CLAUDE_MODEL"); v != "" {
		cfg.Claude.Model = v
	}
	if v := os.Getenv("SAMPLE_RATE"); v != "" {
		if rate, err := strconv.Atoi(v); err == nil && rate > 0 {
			cfg.Audio.SampleRate = rate
		}
	}

	return cfg, nil
}

// Save writes the config to disk
func (c *Config) Save() error {
	path := configPath()

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// configPath returns the platform-specific config file path
func configPath() string {
	var base string

	switch runtime.GOOS {
	case "darwin":
		base = os.Getenv("HOME") + "/Library/Application Support"
	case "windows":
		base = os.Getenv("APPDATA")
	default: // linux
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			base = xdg
		} else {
			base = os.Getenv("HOME") + "/.config"
		}
	}

	return filepath.Join(base, "callscribe", "config.json")
}

// ModelsPath returns the platform-specific models directory path
func ModelsPath() string {
	var base string

	switch runtime.GOOS {
	case "darwin":
		base = os.Getenv("HOME") + "/Library/Application Support"
	case "windows":
		base = os.Getenv("LOCALAPPDATA")
	default:
		if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
			base = xdg
		} else {
			base = os.Getenv("HOME") + "/.local/share"
		}
	}

	return filepath.Join(base, "callscribe", "models")
}
