package music

import "math"

// Zone grades how close a note reading is to its target pitch
type Zone int

const (
	ZoneInactive Zone = iota // no note is being displayed
	ZoneInTune
	ZoneClose
	ZoneOff
)

// String returns the string representation of a Zone
func (z Zone) String() string {
	switch z {
	case ZoneInactive:
		return "Inactive"
	case ZoneInTune:
		return "InTune"
	case ZoneClose:
		return "Close"
	case ZoneOff:
		return "Off"
	default:
		return "Unknown"
	}
}

// StringTarget is one string of a reference tuning
type StringTarget struct {
	Label     string  // display label, e.g. "E2"
	Frequency float64 // target frequency in Hz
}

// Tuning is an ordered reference table of string targets, low to high
type Tuning struct {
	Name    string
	Strings []StringTarget
}

// Evaluator defaults
const (
	DefaultInTuneCents    = 5
	DefaultCloseCents     = 15
	DefaultMatchThreshold = 200.0
)

// Evaluator classifies cents offsets into zones and matches detected
// frequencies against a reference tuning table.
type Evaluator struct {
	tuning      Tuning
	inTuneCents int
	closeCents  int
	matchCents  float64
}

// NewEvaluator creates an evaluator for the given tuning
func NewEvaluator(tuning Tuning) *Evaluator {
	return &Evaluator{
		tuning:      tuning,
		inTuneCents: DefaultInTuneCents,
		closeCents:  DefaultCloseCents,
		matchCents:  DefaultMatchThreshold,
	}
}

// SetZoneBounds sets the inclusive cents bounds for InTune and Close
func (e *Evaluator) SetZoneBounds(inTune, close int) {
	if inTune > 0 && close >= inTune {
		e.inTuneCents = inTune
		e.closeCents = close
	}
}

// SetMatchThreshold sets the maximum distance in cents for a frequency
// to match a string
func (e *Evaluator) SetMatchThreshold(cents float64) {
	if cents > 0 {
		e.matchCents = cents
	}
}

// Tuning returns the reference table the evaluator matches against
func (e *Evaluator) Tuning() Tuning {
	return e.tuning
}

// Zone grades a cents offset. Inactive when no note is displayed,
// regardless of the offset.
func (e *Evaluator) Zone(cents int, active bool) Zone {
	if !active {
		return ZoneInactive
	}

	abs := cents
	if abs < 0 {
		abs = -abs
	}
	switch {
	case abs <= e.inTuneCents:
		return ZoneInTune
	case abs <= e.closeCents:
		return ZoneClose
	default:
		return ZoneOff
	}
}

// NearestString finds the table entry closest to the frequency in cents.
// The boolean is false when the frequency is non-positive or every entry
// is further away than the match threshold. Ties keep the first entry.
func (e *Evaluator) NearestString(frequency float64) (StringTarget, bool) {
	if frequency <= 0 || len(e.tuning.Strings) == 0 {
		return StringTarget{}, false
	}

	best := 0
	bestCents := math.Inf(1)
	for i, target := range e.tuning.Strings {
		cents := math.Abs(1200.0 * math.Log2(frequency/target.Frequency))
		if cents < bestCents {
			bestCents = cents
			best = i
		}
	}

	if bestCents > e.matchCents {
		return StringTarget{}, false
	}
	return e.tuning.Strings[best], true
}
