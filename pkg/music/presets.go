package music

import (
	_ "embed"
	"errors"
	"fmt"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed tunings.yaml
var presetData []byte

// ErrUnknownPreset reports a tuning preset name with no table entry
var ErrUnknownPreset = errors.New("music: unknown tuning preset")

type presetFile struct {
	Tunings []presetTuning `yaml:"tunings"`
}

type presetTuning struct {
	Name    string         `yaml:"name"`
	Strings []presetString `yaml:"strings"`
}

type presetString struct {
	Note   string `yaml:"note"`
	Octave int    `yaml:"octave"`
}

var (
	presetOnce sync.Once
	presetMap  map[string]Tuning
	presetErr  error
)

func loadPresets() {
	var file presetFile
	if err := yaml.Unmarshal(presetData, &file); err != nil {
		presetErr = fmt.Errorf("music: parsing embedded tunings: %w", err)
		return
	}

	presetMap = make(map[string]Tuning, len(file.Tunings))
	for _, pt := range file.Tunings {
		tuning := Tuning{Name: pt.Name, Strings: make([]StringTarget, 0, len(pt.Strings))}
		for _, ps := range pt.Strings {
			freq, err := NoteFrequency(ps.Note, ps.Octave)
			if err != nil {
				presetErr = fmt.Errorf("music: preset %q: %w", pt.Name, err)
				return
			}
			tuning.Strings = append(tuning.Strings, StringTarget{
				Label:     fmt.Sprintf("%s%d", ps.Note, ps.Octave),
				Frequency: freq,
			})
		}
		presetMap[pt.Name] = tuning
	}
}

// Presets returns the available tuning preset names, sorted
func Presets() []string {
	presetOnce.Do(loadPresets)

	names := make([]string, 0, len(presetMap))
	for name := range presetMap {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LoadPreset returns the named tuning preset
func LoadPreset(name string) (Tuning, error) {
	presetOnce.Do(loadPresets)

	if presetErr != nil {
		return Tuning{}, presetErr
	}
	tuning, ok := presetMap[name]
	if !ok {
		return Tuning{}, fmt.Errorf("%w: %q", ErrUnknownPreset, name)
	}
	return tuning, nil
}

// StandardTuning returns the six-string standard tuning E2 A2 D3 G3 B3 E4.
// The preset is embedded, so failure to load is a programming error.
func StandardTuning() Tuning {
	tuning, err := LoadPreset("standard")
	if err != nil {
		panic(err)
	}
	return tuning
}
