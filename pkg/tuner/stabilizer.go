// Package tuner assembles the per-tick analysis pipeline: pitch
// detection, note mapping, debounce, and tuning evaluation. The engine
// owns all cross-call state; every stage is a pure computation driven
// by an explicit tick.
package tuner

import (
	"time"

	"github.com/justyntemme/tunekit/pkg/music"
)

// Debounce defaults
const (
	DefaultHoldWindow  = 80 * time.Millisecond
	DefaultDecayWindow = 400 * time.Millisecond
)

// State is the stabilizer's position in its debounce cycle
type State int

const (
	StateIdle    State = iota // nothing displayed
	StatePending              // a candidate is waiting out the hold window
	StateStable               // a note is displayed
)

// String returns the string representation of a State
func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StatePending:
		return "Pending"
	case StateStable:
		return "Stable"
	default:
		return "Unknown"
	}
}

// Stabilizer debounces raw note readings into a flicker-free displayed
// note. A new note key must persist for the hold window before it is
// shown; once shown, cents and frequency follow every reading with no
// extra delay, and the display clears after the decay window passes
// without a detection. One stabilizer belongs to one tuner session.
type Stabilizer struct {
	hold  float64 // seconds a candidate must persist
	decay float64 // seconds of silence before the display clears

	state       State
	candidate   music.NoteReading // only meaningful in StatePending
	current     music.NoteReading // only meaningful in StateStable
	firstSeenAt float64
	lastSeenAt  float64
}

// NewStabilizer creates an idle stabilizer with the default windows
func NewStabilizer() *Stabilizer {
	return &Stabilizer{
		hold:  DefaultHoldWindow.Seconds(),
		decay: DefaultDecayWindow.Seconds(),
	}
}

// SetWindows sets the hold and decay windows. Non-positive values are
// ignored.
func (s *Stabilizer) SetWindows(hold, decay time.Duration) {
	if hold > 0 {
		s.hold = hold.Seconds()
	}
	if decay > 0 {
		s.decay = decay.Seconds()
	}
}

// State returns the current debounce state
func (s *Stabilizer) State() State {
	return s.state
}

// Reset returns the stabilizer to idle, clearing any displayed note
func (s *Stabilizer) Reset() {
	s.state = StateIdle
	s.candidate = music.NoteReading{}
	s.current = music.NoteReading{}
	s.firstSeenAt = 0
	s.lastSeenAt = 0
}

// Observe consumes one tick's reading (ok reports whether a note was
// detected) at time now in seconds on the shared clock, and returns the
// note to display. The boolean is false unless a note is stable.
//
// Any key change restarts the hold window, including a quick return to
// the previously displayed note.
func (s *Stabilizer) Observe(reading music.NoteReading, ok bool, now float64) (music.NoteReading, bool) {
	if !ok {
		if s.state != StateIdle && now-s.lastSeenAt >= s.decay {
			s.Reset()
		}
		return s.output()
	}

	switch s.state {
	case StateIdle:
		s.state = StatePending
		s.candidate = reading
		s.firstSeenAt = now

	case StatePending:
		if reading.Key() == s.candidate.Key() {
			s.candidate = reading
			if now-s.firstSeenAt >= s.hold {
				s.state = StateStable
				s.current = reading
			}
		} else {
			// New candidate, fresh hold window
			s.candidate = reading
			s.firstSeenAt = now
		}

	case StateStable:
		if reading.Key() == s.current.Key() {
			// Same note: cents and frequency track immediately
			s.current = reading
		} else {
			s.state = StatePending
			s.candidate = reading
			s.firstSeenAt = now
		}
	}

	s.lastSeenAt = now
	return s.output()
}

func (s *Stabilizer) output() (music.NoteReading, bool) {
	if s.state != StateStable {
		return music.NoteReading{}, false
	}
	return s.current, true
}
