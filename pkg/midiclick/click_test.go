package midiclick

import (
	"sync"
	"testing"
	"time"

	"gitlab.com/gomidi/midi/v2"

	"github.com/justyntemme/tunekit/pkg/clock"
	"github.com/justyntemme/tunekit/pkg/metronome"
)

// recorder stands in for an open MIDI port
type recorder struct {
	mu   sync.Mutex
	sent []midi.Message
	at   []time.Time
}

func (r *recorder) send(msg midi.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, msg)
	r.at = append(r.at, time.Now())
	return nil
}

func (r *recorder) snapshot() []midi.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]midi.Message, len(r.sent))
	copy(out, r.sent)
	return out
}

func newTestClick(clk clock.Clock, rec *recorder) *Click {
	return &Click{
		clk:              clk,
		send:             rec.send,
		downbeatNote:     DefaultDownbeatNote,
		beatNote:         DefaultBeatNote,
		downbeatVelocity: DefaultDownbeatVelocity,
		beatVelocity:     DefaultBeatVelocity,
		noteLength:       20 * time.Millisecond,
	}
}

func waitForMessages(t *testing.T, rec *recorder, n int) []midi.Message {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if msgs := rec.snapshot(); len(msgs) >= n {
			return msgs
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d messages, have %d", n, len(rec.snapshot()))
	return nil
}

func noteOnKey(t *testing.T, msg midi.Message) uint8 {
	t.Helper()
	var ch, key, vel uint8
	if !msg.GetNoteStart(&ch, &key, &vel) {
		t.Fatalf("message %s is not a note-on", msg)
	}
	return key
}

func TestHandleHoldsNoteUntilScheduledTime(t *testing.T) {
	clk := clock.NewSystemClock()
	rec := &recorder{}
	c := newTestClick(clk, rec)

	// The scheduler hands beats out up to a lookahead early; the click
	// must not sound before the scheduled play time.
	lead := 80 * time.Millisecond
	handled := time.Now()
	c.Handle(metronome.BeatEvent{Index: 1, ScheduledTime: clk.Now() + lead.Seconds()})

	time.Sleep(lead / 3)
	if got := rec.snapshot(); len(got) != 0 {
		t.Fatalf("note sounded %v early: %v", lead, got)
	}

	msgs := waitForMessages(t, rec, 1)
	rec.mu.Lock()
	firedAfter := rec.at[0].Sub(handled)
	rec.mu.Unlock()

	if firedAfter < lead-10*time.Millisecond {
		t.Errorf("note fired %v after Handle, want >= %v", firedAfter, lead)
	}
	if key := noteOnKey(t, msgs[0]); key != DefaultBeatNote {
		t.Errorf("note = %d, want %d", key, DefaultBeatNote)
	}
}

func TestHandlePastDueSoundsImmediately(t *testing.T) {
	clk := clock.NewManualClock()
	clk.Set(1.0)
	rec := &recorder{}
	c := newTestClick(clk, rec)

	c.Handle(metronome.BeatEvent{Index: 0, Downbeat: true, ScheduledTime: 0.5})

	// Synchronous: the note-on is sent before Handle returns
	msgs := rec.snapshot()
	if len(msgs) != 1 {
		t.Fatalf("past-due beat: %d messages sent, want 1", len(msgs))
	}
	if key := noteOnKey(t, msgs[0]); key != DefaultDownbeatNote {
		t.Errorf("note = %d, want downbeat note %d", key, DefaultDownbeatNote)
	}
}

func TestHandleDownbeatVoice(t *testing.T) {
	clk := clock.NewManualClock()
	clk.Set(1.0)
	rec := &recorder{}
	c := newTestClick(clk, rec)

	c.Handle(metronome.BeatEvent{Index: 0, Downbeat: true, ScheduledTime: 0})
	c.Handle(metronome.BeatEvent{Index: 1, Downbeat: false, ScheduledTime: 0})

	msgs := rec.snapshot()
	if len(msgs) != 2 {
		t.Fatalf("%d messages sent, want 2", len(msgs))
	}
	if key := noteOnKey(t, msgs[0]); key != DefaultDownbeatNote {
		t.Errorf("downbeat note = %d, want %d", key, DefaultDownbeatNote)
	}
	if key := noteOnKey(t, msgs[1]); key != DefaultBeatNote {
		t.Errorf("beat note = %d, want %d", key, DefaultBeatNote)
	}

	var ch, key, vel uint8
	msgs[0].GetNoteStart(&ch, &key, &vel)
	if vel != DefaultDownbeatVelocity {
		t.Errorf("downbeat velocity = %d, want %d", vel, DefaultDownbeatVelocity)
	}
}

func TestStrikeReleasesNote(t *testing.T) {
	clk := clock.NewManualClock()
	clk.Set(1.0)
	rec := &recorder{}
	c := newTestClick(clk, rec)

	c.Handle(metronome.BeatEvent{Index: 1, ScheduledTime: 0})

	// Note-on immediately, note-off after the note length
	msgs := waitForMessages(t, rec, 2)
	var ch, key uint8
	if !msgs[1].GetNoteEnd(&ch, &key) {
		t.Fatalf("second message %s is not a note-off", msgs[1])
	}
	if key != DefaultBeatNote {
		t.Errorf("note-off key = %d, want %d", key, DefaultBeatNote)
	}
}

func TestHandleAfterSendGone(t *testing.T) {
	clk := clock.NewManualClock()
	clk.Set(1.0)
	rec := &recorder{}
	c := newTestClick(clk, rec)
	c.send = nil

	// Must not panic or send
	c.Handle(metronome.BeatEvent{Index: 0, ScheduledTime: 0})
	if got := rec.snapshot(); len(got) != 0 {
		t.Errorf("closed click sent %d messages", len(got))
	}
}
