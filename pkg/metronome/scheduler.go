// Package metronome emits sample-accurate beat events from a tempo using
// lookahead scheduling over a shared monotonic clock. Beats are handed to
// the consumer ahead of their play time, so the coarse driver interval
// never degrades timing.
package metronome

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/justyntemme/tunekit/pkg/clock"
)

// Scheduling defaults
const (
	DefaultBPM             = 80.0
	DefaultBeatsPerMeasure = 4
	DefaultLookahead       = 0.1 // seconds of schedule kept ahead of the clock
	DefaultInitialDelay    = 0.1 // seconds before the first beat of a run
	DefaultInterval        = 25 * time.Millisecond
)

// Errors
var (
	ErrInvalidTempo = errors.New("metronome: bpm must be positive")
	ErrInvalidMeter = errors.New("metronome: beats per measure must be positive")
)

// BeatEvent is one scheduled beat
type BeatEvent struct {
	Index         uint64  // increases from 0 within a run, never repeats
	Downbeat      bool    // first beat of a measure
	ScheduledTime float64 // play time in seconds on the shared clock
}

// Handler consumes beat events as they are scheduled. Handlers run
// synchronously inside Tick and must not call back into the scheduler.
type Handler func(BeatEvent)

// Scheduler is a Stopped/Running state machine producing BeatEvents.
// All methods are safe for concurrent use. Tempo changes require Stop
// followed by Start; there is no live retiming mid-beat.
type Scheduler struct {
	mu      sync.Mutex
	clock   clock.Clock
	handler Handler

	bpm             float64
	beatsPerMeasure int
	beatIndex       uint64
	nextBeatTime    float64
	firstBeatTime   float64
	running         bool

	lookahead    float64
	initialDelay float64
	interval     time.Duration
}

// NewScheduler creates a stopped scheduler emitting to handler
func NewScheduler(c clock.Clock, handler Handler) *Scheduler {
	return &Scheduler{
		clock:           c,
		handler:         handler,
		bpm:             DefaultBPM,
		beatsPerMeasure: DefaultBeatsPerMeasure,
		lookahead:       DefaultLookahead,
		initialDelay:    DefaultInitialDelay,
		interval:        DefaultInterval,
	}
}

// SetLookahead sets how far ahead of the clock beats are scheduled
func (s *Scheduler) SetLookahead(seconds float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seconds > 0 {
		s.lookahead = seconds
	}
}

// SetInitialDelay sets the gap between Start and the first beat
func (s *Scheduler) SetInitialDelay(seconds float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seconds >= 0 {
		s.initialDelay = seconds
	}
}

// SetInterval sets the driver period used by Run
func (s *Scheduler) SetInterval(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d > 0 {
		s.interval = d
	}
}

// Start resets the beat counter and enters Running. Starting while
// already running restarts the schedule from the new parameters.
func (s *Scheduler) Start(bpm float64, beatsPerMeasure int) error {
	if bpm <= 0 {
		return ErrInvalidTempo
	}
	if beatsPerMeasure < 1 {
		return ErrInvalidMeter
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.bpm = bpm
	s.beatsPerMeasure = beatsPerMeasure
	s.beatIndex = 0
	s.nextBeatTime = s.clock.Now() + s.initialDelay
	s.firstBeatTime = s.nextBeatTime
	s.running = true
	return nil
}

// Stop leaves Running and clears the pending schedule. Safe to call in
// any state; once it returns no further events are emitted until the
// next Start.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
	s.beatIndex = 0
	s.nextBeatTime = 0
	s.firstBeatTime = 0
}

// Running reports whether the scheduler is emitting
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// BPM returns the tempo of the current or most recent run
func (s *Scheduler) BPM() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bpm
}

// BeatsPerMeasure returns the meter of the current or most recent run
func (s *Scheduler) BeatsPerMeasure() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.beatsPerMeasure
}

// Tick schedules every beat falling inside the lookahead horizon. The
// driving loop calls this periodically; a late or jittery driver only
// risks events when it stalls longer than the lookahead.
func (s *Scheduler) Tick() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}

	period := 60.0 / s.bpm
	horizon := s.clock.Now() + s.lookahead
	for s.nextBeatTime < horizon {
		event := BeatEvent{
			Index:         s.beatIndex,
			Downbeat:      s.beatIndex%uint64(s.beatsPerMeasure) == 0,
			ScheduledTime: s.nextBeatTime,
		}
		s.nextBeatTime += period
		s.beatIndex++

		if s.handler != nil {
			s.handler(event)
		}
	}
}

// Position reports the measure-relative beat most recently due and the
// fraction of the beat period elapsed since it. The boolean is false
// while stopped or before the first beat plays. This is display-grade;
// BeatEvent.ScheduledTime is the accurate signal.
func (s *Scheduler) Position() (int, float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return 0, 0, false
	}
	now := s.clock.Now()
	if now < s.firstBeatTime {
		return 0, 0, false
	}

	elapsed := (now - s.firstBeatTime) * s.bpm / 60.0
	n := uint64(elapsed)
	return int(n % uint64(s.beatsPerMeasure)), elapsed - float64(n), true
}

// Run drives Tick at the configured interval until ctx is canceled or
// the scheduler is stopped.
func (s *Scheduler) Run(ctx context.Context) {
	s.mu.Lock()
	interval := s.interval
	s.mu.Unlock()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !s.Running() {
				return
			}
			s.Tick()
		}
	}
}
