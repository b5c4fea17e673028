// Command tuner runs the analysis pipeline against a capture backend
// and logs the stabilized note, tuning zone, and nearest string.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/justyntemme/tunekit/pkg/capture"
	"github.com/justyntemme/tunekit/pkg/clock"
	"github.com/justyntemme/tunekit/pkg/config"
	"github.com/justyntemme/tunekit/pkg/music"
	"github.com/justyntemme/tunekit/pkg/tuner"
)

func main() {
	if err := run(); err != nil {
		slog.Error("tuner failed", "err", err)
		os.Exit(1)
	}
}

func run() error {
	backend := flag.String("backend", "", "capture backend: miniaudio, portaudio, or synth (overrides config)")
	synthFreq := flag.Float64("synth-freq", 110.0, "frequency for the synth backend")
	preset := flag.String("tuning", "", "tuning preset name (overrides config)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	initLogger(cfg.Log)

	if *backend != "" {
		cfg.Capture.Backend = *backend
	}
	if *preset != "" {
		cfg.Tuning.Preset = *preset
	}

	tuning, err := music.LoadPreset(cfg.Tuning.Preset)
	if err != nil {
		return err
	}

	clk := clock.NewSystemClock()
	src, err := newSource(clk, cfg.Capture, *synthFreq)
	if err != nil {
		return err
	}

	engine := tuner.NewEngine(clk, cfg.Capture.SampleRate, tuning)
	engine.Detector().SetFrequencyRange(cfg.Detector.MinFrequency, cfg.Detector.MaxFrequency)
	engine.Detector().SetGateDB(cfg.Detector.VolumeThresholdDB)
	engine.Detector().SetMinConfidence(cfg.Detector.ClarityThreshold)
	engine.Stabilizer().SetWindows(cfg.Stabilizer.HoldWindow, cfg.Stabilizer.DecayWindow)
	engine.Evaluator().SetZoneBounds(cfg.Tuning.InTuneCents, cfg.Tuning.CloseCents)
	engine.Evaluator().SetMatchThreshold(cfg.Tuning.StringMatchCents)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	frames, err := src.Start(ctx)
	if err != nil {
		return err
	}
	defer src.Stop()

	slog.Info("tuner running",
		"backend", cfg.Capture.Backend,
		"tuning", tuning.Name,
		"sample_rate", cfg.Capture.SampleRate,
		"frame_length", cfg.Capture.FrameLength)

	var lastKey string
	var lastZone music.Zone = -1
	engine.Run(ctx, frames, func(r tuner.Result) {
		if !r.ReadingOK {
			if lastKey != "" {
				slog.Info("note cleared")
				lastKey = ""
				lastZone = -1
			}
			return
		}
		if r.Reading.Key() == lastKey && r.Zone == lastZone {
			return
		}
		lastKey = r.Reading.Key()
		lastZone = r.Zone

		attrs := []any{
			"note", r.Reading.String(),
			"zone", r.Zone.String(),
			"freq", fmt.Sprintf("%.2f", r.Reading.Frequency),
			"clarity", fmt.Sprintf("%.2f", r.Estimate.Confidence),
			"level_db", fmt.Sprintf("%.1f", r.LevelDB),
		}
		if r.Matched {
			attrs = append(attrs, "string", r.String.Label)
		}
		slog.Info("note", attrs...)
	})

	d := engine.Diagnostics()
	slog.Info("session summary",
		"ticks", d.Ticks,
		"avg_tick", d.TickStats.Average(),
		"max_tick", d.TickStats.Max,
		"overruns", d.TickStats.Overruns)
	return nil
}

func newSource(clk clock.Clock, cfg config.CaptureConfig, synthFreq float64) (capture.Source, error) {
	switch cfg.Backend {
	case "synth":
		src := capture.NewSynthSource(clk, synthFreq)
		src.SetWaveform(capture.WavePlucked)
		if err := src.SetFormat(cfg.SampleRate, cfg.FrameLength); err != nil {
			return nil, err
		}
		return src, nil
	case "portaudio":
		return capture.NewPortAudioSource(clk, cfg.SampleRate, cfg.FrameLength)
	case "miniaudio", "":
		return capture.NewMiniaudioSource(clk, cfg.SampleRate, cfg.FrameLength)
	default:
		return nil, fmt.Errorf("unknown capture backend %q", cfg.Backend)
	}
}

func initLogger(cfg config.LogConfig) {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()})
	slog.SetDefault(slog.New(handler))
}
