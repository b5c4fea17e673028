package tuner

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/justyntemme/tunekit/pkg/capture"
	"github.com/justyntemme/tunekit/pkg/clock"
	"github.com/justyntemme/tunekit/pkg/debug"
	"github.com/justyntemme/tunekit/pkg/dsp"
	"github.com/justyntemme/tunekit/pkg/dsp/analysis"
	"github.com/justyntemme/tunekit/pkg/music"
)

// Result is everything one analysis tick produces for the display
type Result struct {
	Timestamp float64 // frame capture time on the shared clock

	Estimate   analysis.PitchEstimate // raw, pre-stabilization
	EstimateOK bool

	Reading   music.NoteReading // stabilized displayed note
	ReadingOK bool

	Zone    music.Zone
	String  music.StringTarget // nearest string while a note is displayed
	Matched bool

	LevelDB float64 // frame RMS in dBFS
}

// Diagnostics is a point-in-time snapshot of the engine's health signals
type Diagnostics struct {
	Session      string  // engine run identity
	Ticks        uint64
	PeakDB       float64 // held peak level
	RMSDB        float64 // windowed RMS level
	SpectralPeak float64 // dominant FFT frequency in Hz, diagnostics only
	TickStats    debug.Stats
}

// Engine runs the fixed analysis pipeline once per frame: detector,
// note mapper, stabilizer, evaluator. All state lives in the engine;
// one engine serves one tuner session and one goroutine.
type Engine struct {
	clk        clock.Clock
	detector   *analysis.PitchDetector
	stabilizer *Stabilizer
	evaluator  *music.Evaluator
	peakMeter  *analysis.PeakMeter
	rmsMeter   *analysis.RMSMeter
	spectrum   *analysis.SpectrumAnalyzer
	profiler   *debug.Profiler
	logger     *slog.Logger

	session string
	ticks   uint64
}

// NewEngine assembles a pipeline against a reference tuning. The clock
// must be the same one timestamping captured frames.
func NewEngine(clk clock.Clock, sampleRate float64, tuning music.Tuning) *Engine {
	session := uuid.NewString()
	return &Engine{
		clk:        clk,
		detector:   analysis.NewPitchDetector(sampleRate),
		stabilizer: NewStabilizer(),
		evaluator:  music.NewEvaluator(tuning),
		peakMeter:  analysis.NewPeakMeter(sampleRate),
		rmsMeter:   analysis.NewRMSMeter(int(sampleRate / 10)), // 100ms window
		spectrum:   analysis.NewSpectrumAnalyzer(dsp.DefaultFrameLength, sampleRate),
		profiler:   debug.NewProfiler(),
		logger:     slog.Default().With("session", session),
		session:    session,
	}
}

// SetLogger replaces the engine's logger, keeping the session attribute
func (e *Engine) SetLogger(l *slog.Logger) {
	if l != nil {
		e.logger = l.With("session", e.session)
	}
}

// Detector exposes the pitch detector for configuration
func (e *Engine) Detector() *analysis.PitchDetector {
	return e.detector
}

// Stabilizer exposes the note stabilizer for configuration
func (e *Engine) Stabilizer() *Stabilizer {
	return e.stabilizer
}

// Evaluator exposes the tuning evaluator for configuration
func (e *Engine) Evaluator() *music.Evaluator {
	return e.evaluator
}

// Session returns the engine run identity attached to its log lines
func (e *Engine) Session() string {
	return e.session
}

// Analyze runs one tick of the pipeline over a captured frame. Stages
// execute in fixed order; each consumes the previous stage's output.
// A malformed or empty frame degrades to "no detection".
func (e *Engine) Analyze(frame capture.Frame) Result {
	stop := e.profiler.Start("tick")
	e.ticks++

	result := Result{
		Timestamp: frame.Timestamp,
		LevelDB:   dsp.LevelDB(frame.Samples),
	}

	e.peakMeter.Process(frame.Samples)
	e.rmsMeter.Process(frame.Samples)
	e.spectrum.Process(frame.Samples)

	result.Estimate, result.EstimateOK = e.detector.Analyze(frame.Samples)

	var raw music.NoteReading
	var rawOK bool
	if result.EstimateOK {
		raw, rawOK = music.FrequencyToNote(result.Estimate.Frequency)
	}

	result.Reading, result.ReadingOK = e.stabilizer.Observe(raw, rawOK, frame.Timestamp)

	result.Zone = e.evaluator.Zone(result.Reading.Cents, result.ReadingOK)
	if result.ReadingOK {
		result.String, result.Matched = e.evaluator.NearestString(result.Reading.Frequency)
	}

	if stop() {
		e.logger.Warn("analysis tick over budget",
			"budget", debug.FrameBudget, "frame_len", len(frame.Samples))
	}
	return result
}

// Diagnostics returns the current health snapshot
func (e *Engine) Diagnostics() Diagnostics {
	peak, _ := e.spectrum.PeakFrequency()
	tick, _ := e.profiler.Stage("tick")
	return Diagnostics{
		Session:      e.session,
		Ticks:        e.ticks,
		PeakDB:       e.peakMeter.HoldDB(),
		RMSDB:        e.rmsMeter.RMSDB(),
		SpectralPeak: peak,
		TickStats:    tick,
	}
}

// Run pulls frames from the source channel and analyzes each, passing
// results to handle. It returns when ctx is canceled or the channel
// closes; no frames are pulled after cancellation.
func (e *Engine) Run(ctx context.Context, frames <-chan capture.Frame, handle func(Result)) {
	e.logger.Info("analysis started", "clock", e.clk.Now())
	start := time.Now()
	defer func() {
		e.logger.Info("analysis stopped", "ticks", e.ticks, "elapsed", time.Since(start))
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case frame, ok := <-frames:
			if !ok {
				return
			}
			result := e.Analyze(frame)
			if handle != nil {
				handle(result)
			}
		}
	}
}
