package music

import (
	"math"
	"testing"
)

func TestZoneBoundaries(t *testing.T) {
	e := NewEvaluator(StandardTuning())

	tests := []struct {
		cents    int
		active   bool
		expected Zone
	}{
		{0, true, ZoneInTune},
		{5, true, ZoneInTune},
		{-5, true, ZoneInTune},
		{6, true, ZoneClose},
		{15, true, ZoneClose},
		{-15, true, ZoneClose},
		{16, true, ZoneOff},
		{-16, true, ZoneOff},
		{49, true, ZoneOff},
		{0, false, ZoneInactive},
		{3, false, ZoneInactive},
	}

	for _, tt := range tests {
		if got := e.Zone(tt.cents, tt.active); got != tt.expected {
			t.Errorf("Zone(%d, %t) = %s, want %s", tt.cents, tt.active, got, tt.expected)
		}
	}
}

func TestZoneString(t *testing.T) {
	tests := []struct {
		zone     Zone
		expected string
	}{
		{ZoneInactive, "Inactive"},
		{ZoneInTune, "InTune"},
		{ZoneClose, "Close"},
		{ZoneOff, "Off"},
		{Zone(99), "Unknown"},
	}

	for _, tt := range tests {
		if got := tt.zone.String(); got != tt.expected {
			t.Errorf("Zone(%d).String() = %q, want %q", tt.zone, got, tt.expected)
		}
	}
}

func TestSetZoneBounds(t *testing.T) {
	e := NewEvaluator(StandardTuning())

	e.SetZoneBounds(3, 10)
	if got := e.Zone(4, true); got != ZoneClose {
		t.Errorf("after SetZoneBounds(3, 10): Zone(4) = %s, want Close", got)
	}

	// Invalid bounds are ignored
	e.SetZoneBounds(0, 10)
	if got := e.Zone(2, true); got != ZoneInTune {
		t.Errorf("invalid bounds applied: Zone(2) = %s, want InTune", got)
	}
	e.SetZoneBounds(10, 5)
	if got := e.Zone(4, true); got != ZoneClose {
		t.Errorf("inverted bounds applied: Zone(4) = %s, want Close", got)
	}
}

func TestNearestStringExact(t *testing.T) {
	tuning := StandardTuning()
	e := NewEvaluator(tuning)

	for _, target := range tuning.Strings {
		match, ok := e.NearestString(target.Frequency)
		if !ok {
			t.Errorf("%s: no match at its own frequency", target.Label)
			continue
		}
		if match.Label != target.Label {
			t.Errorf("at %f Hz: matched %s, want %s", target.Frequency, match.Label, target.Label)
		}
		if cents := 1200.0 * math.Log2(target.Frequency/match.Frequency); cents != 0 {
			t.Errorf("%s: offset %f cents, want 0", target.Label, cents)
		}
	}
}

func TestNearestStringThreshold(t *testing.T) {
	tuning := StandardTuning()
	e := NewEvaluator(tuning)

	// Midway between A2 and D3, 250 cents from both and further from
	// the rest
	a2 := tuning.Strings[1].Frequency
	between := a2 * math.Pow(2.0, 250.0/1200.0)
	if match, ok := e.NearestString(between); ok {
		t.Errorf("%f Hz should match nothing, got %s", between, match.Label)
	}

	// 210 cents above the whole table
	e4 := tuning.Strings[5].Frequency
	above := e4 * math.Pow(2.0, 210.0/1200.0)
	if match, ok := e.NearestString(above); ok {
		t.Errorf("%f Hz should match nothing, got %s", above, match.Label)
	}

	// 150 cents away still matches
	near := e4 * math.Pow(2.0, 150.0/1200.0)
	match, ok := e.NearestString(near)
	if !ok || match.Label != "E4" {
		t.Errorf("%f Hz: got (%v, %t), want E4", near, match.Label, ok)
	}

	// A wider threshold accepts the far candidate
	e.SetMatchThreshold(400.0)
	if _, ok := e.NearestString(between); !ok {
		t.Error("widened threshold should match")
	}
}

func TestNearestStringTieKeepsFirst(t *testing.T) {
	tuning := Tuning{
		Name: "tie",
		Strings: []StringTarget{
			{Label: "first", Frequency: 100.0},
			{Label: "second", Frequency: 100.0},
		},
	}
	e := NewEvaluator(tuning)

	match, ok := e.NearestString(100.0)
	if !ok || match.Label != "first" {
		t.Errorf("tie resolution: got (%v, %t), want first", match.Label, ok)
	}
}

func TestNearestStringDegenerate(t *testing.T) {
	e := NewEvaluator(Tuning{Name: "empty"})
	if _, ok := e.NearestString(110.0); ok {
		t.Error("empty table should never match")
	}

	e = NewEvaluator(StandardTuning())
	if _, ok := e.NearestString(0); ok {
		t.Error("zero frequency should never match")
	}
	if _, ok := e.NearestString(-110.0); ok {
		t.Error("negative frequency should never match")
	}
}
