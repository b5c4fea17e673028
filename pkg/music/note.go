// Package music maps frequencies to equal-tempered notes and classifies
// tuning accuracy against reference string tables.
package music

import (
	"errors"
	"fmt"
	"math"
)

// ReferenceA4 is the tuning anchor, A above middle C
const ReferenceA4 = 440.0

// Errors
var (
	ErrUnknownNote = errors.New("music: unknown note name")
)

// All note names in chromatic order
var noteNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

var noteIndexes = map[string]int{
	"C": 0, "C#": 1, "D": 2, "D#": 3, "E": 4, "F": 5,
	"F#": 6, "G": 7, "G#": 8, "A": 9, "A#": 10, "B": 11,
}

// NoteReading is a frequency expressed as the nearest equal-tempered
// note plus its deviation in cents. Derived purely from the frequency.
type NoteReading struct {
	Name      string  // chromatic note name, e.g. "A", "A#"
	Octave    int     // scientific pitch octave, A4 = 440 Hz
	Cents     int     // deviation from the named note
	Frequency float64 // source frequency in Hz
}

// Key identifies the note and octave without the cents deviation, the
// unit the stabilizer debounces on
func (r NoteReading) Key() string {
	return fmt.Sprintf("%s%d", r.Name, r.Octave)
}

func (r NoteReading) String() string {
	return fmt.Sprintf("%s%d %+dc", r.Name, r.Octave, r.Cents)
}

// NoteFrequency returns the equal-tempered frequency of a note, e.g.
// ("A", 4) -> 440. Unknown note names return ErrUnknownNote.
func NoteFrequency(name string, octave int) (float64, error) {
	idx, ok := noteIndexes[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownNote, name)
	}

	semitones := float64((octave-4)*12 + (idx - 9))
	return ReferenceA4 * math.Pow(2.0, semitones/12.0), nil
}

// FrequencyToNote maps a frequency to the nearest note. The boolean is
// false for non-positive or non-finite input.
func FrequencyToNote(frequency float64) (NoteReading, bool) {
	if frequency <= 0 || math.IsNaN(frequency) || math.IsInf(frequency, 0) {
		return NoteReading{}, false
	}

	// Semitones from A4 = 440 Hz
	semitones := 12.0 * math.Log2(frequency/ReferenceA4)
	rounded := math.Round(semitones)
	cents := int(math.Round((semitones - rounded) * 100.0))

	// A4 is 9 semitones above C4
	noteIndex := int(math.Mod(rounded+9, 12))
	if noteIndex < 0 {
		noteIndex += 12
	}

	octave := 4 + int(math.Floor((rounded+9)/12.0))

	return NoteReading{
		Name:      noteNames[noteIndex],
		Octave:    octave,
		Cents:     cents,
		Frequency: frequency,
	}, true
}
