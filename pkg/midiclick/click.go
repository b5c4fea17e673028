// Package midiclick turns metronome beat events into MIDI notes so any
// synth or drum machine can voice the click. Downbeats get a distinct
// note and velocity.
package midiclick

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"github.com/justyntemme/tunekit/pkg/clock"
	"github.com/justyntemme/tunekit/pkg/metronome"
)

// Click voice defaults. 76/77 are the GM high/low woodblocks.
const (
	DefaultDownbeatNote     = 76
	DefaultBeatNote         = 77
	DefaultDownbeatVelocity = 127
	DefaultBeatVelocity     = 96
	DefaultNoteLength       = 50 * time.Millisecond
)

// ErrNoOutput reports that no usable MIDI output port exists
var ErrNoOutput = errors.New("midiclick: no matching MIDI output port")

// Click sends a short MIDI note per beat event. Use it as the
// scheduler's handler; Handle is safe to call from the scheduler tick.
//
// The scheduler emits beats up to a lookahead ahead of their play time;
// Handle holds each NoteOn until BeatEvent.ScheduledTime on the shared
// clock, so the audible click keeps the schedule's precision instead of
// the driver tick's.
type Click struct {
	mu   sync.Mutex
	clk  clock.Clock
	drv  *rtmididrv.Driver
	out  drivers.Out
	send func(midi.Message) error

	channel          uint8
	downbeatNote     uint8
	beatNote         uint8
	downbeatVelocity uint8
	beatVelocity     uint8
	noteLength       time.Duration
}

// Open connects to the first MIDI output port whose name contains
// portName (case-insensitive). An empty portName takes the first port.
// The clock must be the one driving the scheduler, or beats will be
// voiced against the wrong timeline.
func Open(clk clock.Clock, portName string) (*Click, error) {
	drv, err := rtmididrv.New()
	if err != nil {
		return nil, fmt.Errorf("midiclick: rtmididrv: %w", err)
	}

	outs, err := drv.Outs()
	if err != nil {
		drv.Close()
		return nil, fmt.Errorf("midiclick: list outputs: %w", err)
	}

	var out drivers.Out
	for _, o := range outs {
		if portName == "" || strings.Contains(strings.ToLower(o.String()), strings.ToLower(portName)) {
			out = o
			break
		}
	}
	if out == nil {
		drv.Close()
		return nil, fmt.Errorf("%w: %q", ErrNoOutput, portName)
	}

	if err := out.Open(); err != nil {
		drv.Close()
		return nil, fmt.Errorf("midiclick: open %q: %w", out.String(), err)
	}
	send, err := midi.SendTo(out)
	if err != nil {
		_ = out.Close()
		drv.Close()
		return nil, fmt.Errorf("midiclick: sender for %q: %w", out.String(), err)
	}

	return &Click{
		clk:              clk,
		drv:              drv,
		out:              out,
		send:             send,
		downbeatNote:     DefaultDownbeatNote,
		beatNote:         DefaultBeatNote,
		downbeatVelocity: DefaultDownbeatVelocity,
		beatVelocity:     DefaultBeatVelocity,
		noteLength:       DefaultNoteLength,
	}, nil
}

// Port returns the name of the connected output port
func (c *Click) Port() string {
	return c.out.String()
}

// SetChannel sets the MIDI channel, 0-15
func (c *Click) SetChannel(ch uint8) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ch < 16 {
		c.channel = ch
	}
}

// SetNotes sets the downbeat and beat note numbers
func (c *Click) SetNotes(downbeat, beat uint8) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if downbeat < 128 && beat < 128 {
		c.downbeatNote = downbeat
		c.beatNote = beat
	}
}

// Handle voices one beat event at its scheduled play time. Events
// already past due sound immediately.
func (c *Click) Handle(ev metronome.BeatEvent) {
	c.mu.Lock()
	note, velocity := c.beatNote, c.beatVelocity
	if ev.Downbeat {
		note, velocity = c.downbeatNote, c.downbeatVelocity
	}
	delay := time.Duration((ev.ScheduledTime - c.clk.Now()) * float64(time.Second))
	c.mu.Unlock()

	if delay <= 0 {
		c.strike(note, velocity)
		return
	}
	time.AfterFunc(delay, func() {
		c.strike(note, velocity)
	})
}

// strike plays one note. The note-off is timed from the note length,
// not the beat period, so overlapping clicks never hang.
func (c *Click) strike(note, velocity uint8) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.send == nil {
		return
	}

	if err := c.send(midi.NoteOn(c.channel, note, velocity)); err != nil {
		return
	}
	time.AfterFunc(c.noteLength, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.send != nil {
			_ = c.send(midi.NoteOff(c.channel, note))
		}
	})
}

// Close silences the channel and releases the port. Idempotent. Beats
// still waiting on their play time are dropped silently.
func (c *Click) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.send == nil {
		return nil
	}

	_ = c.send(midi.ControlChange(c.channel, midi.AllNotesOff, 0))
	c.send = nil

	err := c.out.Close()
	c.drv.Close()
	if err != nil {
		return fmt.Errorf("midiclick: close %q: %w", c.out.String(), err)
	}
	return nil
}
