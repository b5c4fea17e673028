// Command metronome runs the lookahead beat scheduler, logging each
// beat and optionally voicing it through a MIDI output port.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/justyntemme/tunekit/pkg/clock"
	"github.com/justyntemme/tunekit/pkg/config"
	"github.com/justyntemme/tunekit/pkg/metronome"
	"github.com/justyntemme/tunekit/pkg/midiclick"
)

func main() {
	if err := run(); err != nil {
		slog.Error("metronome failed", "err", err)
		os.Exit(1)
	}
}

func run() error {
	bpm := flag.Float64("bpm", 0, "tempo in beats per minute (overrides config)")
	meter := flag.Int("meter", 0, "beats per measure (overrides config)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	initLogger(cfg.Log)

	if *bpm > 0 {
		cfg.Metronome.BPM = *bpm
	}
	if *meter > 0 {
		cfg.Metronome.BeatsPerMeasure = *meter
	}

	clk := clock.NewSystemClock()

	var click *midiclick.Click
	if cfg.Click.Enabled {
		click, err = midiclick.Open(clk, cfg.Click.Port)
		if err != nil {
			return err
		}
		defer click.Close()
		click.SetChannel(cfg.Click.Channel)
		click.SetNotes(cfg.Click.DownbeatNote, cfg.Click.BeatNote)
		slog.Info("click output connected", "port", click.Port())
	}

	scheduler := metronome.NewScheduler(clk, func(ev metronome.BeatEvent) {
		slog.Info("beat",
			"index", ev.Index,
			"downbeat", ev.Downbeat,
			"at", fmt.Sprintf("%.3f", ev.ScheduledTime))
		if click != nil {
			click.Handle(ev)
		}
	})
	scheduler.SetLookahead(cfg.Metronome.Lookahead.Seconds())
	scheduler.SetInitialDelay(cfg.Metronome.InitialDelay.Seconds())
	scheduler.SetInterval(cfg.Metronome.Interval)

	if err := scheduler.Start(cfg.Metronome.BPM, cfg.Metronome.BeatsPerMeasure); err != nil {
		return err
	}
	defer scheduler.Stop()

	slog.Info("metronome running",
		"bpm", cfg.Metronome.BPM,
		"meter", cfg.Metronome.BeatsPerMeasure,
		"lookahead", cfg.Metronome.Lookahead,
		"interval", cfg.Metronome.Interval)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler.Run(ctx)
	slog.Info("metronome stopped")
	return nil
}

func initLogger(cfg config.LogConfig) {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()})
	slog.SetDefault(slog.New(handler))
}
