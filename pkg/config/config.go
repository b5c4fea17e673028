// Package config loads tunekit settings from file and environment.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds every tunable of the analysis and timing core.
type Config struct {
	Detector   DetectorConfig
	Stabilizer StabilizerConfig
	Tuning     TuningConfig
	Metronome  MetronomeConfig
	Capture    CaptureConfig
	Click      ClickConfig
	Log        LogConfig
}

// DetectorConfig holds pitch detection settings.
type DetectorConfig struct {
	MinFrequency      float64 `mapstructure:"min_frequency"`
	MaxFrequency      float64 `mapstructure:"max_frequency"`
	VolumeThresholdDB float64 `mapstructure:"volume_threshold_db"`
	ClarityThreshold  float64 `mapstructure:"clarity_threshold"`
}

// StabilizerConfig holds note debounce settings.
type StabilizerConfig struct {
	HoldWindow  time.Duration `mapstructure:"hold_window"`
	DecayWindow time.Duration `mapstructure:"decay_window"`
}

// TuningConfig holds tuning evaluation settings.
type TuningConfig struct {
	Preset           string  `mapstructure:"preset"`
	InTuneCents      int     `mapstructure:"in_tune_cents"`
	CloseCents       int     `mapstructure:"close_cents"`
	StringMatchCents float64 `mapstructure:"string_match_cents"`
}

// MetronomeConfig holds beat scheduling settings.
type MetronomeConfig struct {
	BPM             float64       `mapstructure:"bpm"`
	BeatsPerMeasure int           `mapstructure:"beats_per_measure"`
	Lookahead       time.Duration `mapstructure:"lookahead"`
	Interval        time.Duration `mapstructure:"interval"`
	InitialDelay    time.Duration `mapstructure:"initial_delay"`
}

// CaptureConfig holds audio input settings.
type CaptureConfig struct {
	Backend     string  `mapstructure:"backend"` // miniaudio, portaudio, or synth
	SampleRate  float64 `mapstructure:"sample_rate"`
	FrameLength int     `mapstructure:"frame_length"`
}

// ClickConfig holds MIDI click output settings.
type ClickConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	Port         string `mapstructure:"port"`
	Channel      uint8  `mapstructure:"channel"`
	DownbeatNote uint8  `mapstructure:"downbeat_note"`
	BeatNote     uint8  `mapstructure:"beat_note"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `mapstructure:"level"` // debug, info, warn, error
}

// Load reads configuration from file and env. Env var overrides use
// prefix TUNEKIT_, e.g. TUNEKIT_METRONOME_BPM=96. The config file is
// optional; defaults cover everything.
func Load() (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigType("yaml")
	if path := os.Getenv("TUNEKIT_CONFIG"); path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(filepath.Join(os.Getenv("HOME"), ".config", "tunekit"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("TUNEKIT")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// config file is optional
	_ = v.ReadInConfig()

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal: %w", err)
	}
	return c, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("detector.min_frequency", 70.0)
	v.SetDefault("detector.max_frequency", 1400.0)
	v.SetDefault("detector.volume_threshold_db", -40.0)
	v.SetDefault("detector.clarity_threshold", 0.85)

	v.SetDefault("stabilizer.hold_window", "80ms")
	v.SetDefault("stabilizer.decay_window", "400ms")

	v.SetDefault("tuning.preset", "standard")
	v.SetDefault("tuning.in_tune_cents", 5)
	v.SetDefault("tuning.close_cents", 15)
	v.SetDefault("tuning.string_match_cents", 200.0)

	v.SetDefault("metronome.bpm", 80.0)
	v.SetDefault("metronome.beats_per_measure", 4)
	v.SetDefault("metronome.lookahead", "100ms")
	v.SetDefault("metronome.interval", "25ms")
	v.SetDefault("metronome.initial_delay", "100ms")

	v.SetDefault("capture.backend", "miniaudio")
	v.SetDefault("capture.sample_rate", 44100.0)
	v.SetDefault("capture.frame_length", 4096)

	v.SetDefault("click.enabled", false)
	v.SetDefault("click.port", "")
	v.SetDefault("click.channel", 9)
	v.SetDefault("click.downbeat_note", 76)
	v.SetDefault("click.beat_note", 77)

	v.SetDefault("log.level", "info")
}

// SlogLevel maps the configured level name to a slog level; unknown
// names fall back to info.
func (c LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(c.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
