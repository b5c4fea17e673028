// Package oscillator provides test-signal oscillators for the analysis packages
package oscillator

import "math"

// Oscillator generates periodic waveforms
type Oscillator struct {
	sampleRate float64
	frequency  float64
	phase      float64
	phaseInc   float64
}

// New creates a new oscillator
func New(sampleRate float64) *Oscillator {
	return &Oscillator{
		sampleRate: sampleRate,
		frequency:  440.0,
		phase:      0.0,
		phaseInc:   440.0 / sampleRate,
	}
}

// SetFrequency sets the oscillator frequency
func (o *Oscillator) SetFrequency(freq float64) {
	o.frequency = freq
	o.phaseInc = freq / o.sampleRate
}

// SetPhase sets the oscillator phase (0-1)
func (o *Oscillator) SetPhase(phase float64) {
	o.phase = phase - math.Floor(phase) // Wrap to 0-1
}

// Reset resets the oscillator phase to 0
func (o *Oscillator) Reset() {
	o.phase = 0.0
}

// updatePhase advances the phase and wraps it
func (o *Oscillator) updatePhase() {
	o.phase += o.phaseInc
	if o.phase >= 1.0 {
		o.phase -= math.Floor(o.phase)
	}
}

// Sine generates a sine wave sample
func (o *Oscillator) Sine() float32 {
	sample := float32(math.Sin(2.0 * math.Pi * o.phase))
	o.updatePhase()
	return sample
}

// Saw generates a sawtooth wave sample
func (o *Oscillator) Saw() float32 {
	sample := float32(2.0*o.phase - 1.0)
	o.updatePhase()
	return sample
}

// Square generates a square wave sample
func (o *Oscillator) Square() float32 {
	var sample float32
	if o.phase < 0.5 {
		sample = 1.0
	} else {
		sample = -1.0
	}
	o.updatePhase()
	return sample
}

// Triangle generates a triangle wave sample
func (o *Oscillator) Triangle() float32 {
	var sample float32
	if o.phase < 0.5 {
		sample = float32(4.0*o.phase - 1.0)
	} else {
		sample = float32(3.0 - 4.0*o.phase)
	}
	o.updatePhase()
	return sample
}

// ProcessSine fills buffer with sine wave - no allocations
func (o *Oscillator) ProcessSine(buffer []float32) {
	for i := range buffer {
		buffer[i] = o.Sine()
	}
}

// ProcessSaw fills buffer with sawtooth wave - no allocations
func (o *Oscillator) ProcessSaw(buffer []float32) {
	for i := range buffer {
		buffer[i] = o.Saw()
	}
}

// ProcessSquare fills buffer with square wave - no allocations
func (o *Oscillator) ProcessSquare(buffer []float32) {
	for i := range buffer {
		buffer[i] = o.Square()
	}
}

// ProcessTriangle fills buffer with triangle wave - no allocations
func (o *Oscillator) ProcessTriangle(buffer []float32) {
	for i := range buffer {
		buffer[i] = o.Triangle()
	}
}

// maxPluckHarmonics bounds the partial count for low fundamentals
const maxPluckHarmonics = 8

// Plucked approximates the tone of a plucked string: a harmonic series
// whose upper partials start quieter and decay faster than the
// fundamental. Useful as a guitar-like input for pitch detection.
type Plucked struct {
	sampleRate float64
	frequency  float64
	phases     []float64
	incs       []float64
	amps       []float64
	decays     []float64
	elapsed    float64 // seconds since last pluck
	norm       float64
}

// NewPlucked creates a plucked-string generator at the given sample rate
func NewPlucked(sampleRate float64) *Plucked {
	p := &Plucked{
		sampleRate: sampleRate,
		phases:     make([]float64, maxPluckHarmonics),
		incs:       make([]float64, maxPluckHarmonics),
		amps:       make([]float64, maxPluckHarmonics),
		decays:     make([]float64, maxPluckHarmonics),
	}
	p.SetFrequency(110.0)
	return p
}

// SetFrequency sets the fundamental and rebuilds the partials below Nyquist
func (p *Plucked) SetFrequency(freq float64) {
	p.frequency = freq

	// Number of harmonics below Nyquist
	m := int(math.Floor(0.5 * p.sampleRate / freq))
	if m > maxPluckHarmonics {
		m = maxPluckHarmonics
	}
	if m < 1 {
		m = 1
	}

	p.norm = 0.0
	for h := 0; h < maxPluckHarmonics; h++ {
		if h < m {
			n := float64(h + 1)
			p.incs[h] = freq * n / p.sampleRate
			p.amps[h] = 1.0 / n
			p.decays[h] = 1.0 + 0.7*n // upper partials fade first
			p.norm += p.amps[h]
		} else {
			p.incs[h] = 0
			p.amps[h] = 0
			p.decays[h] = 0
		}
	}
}

// Pluck restarts the decay envelope, like striking the string again
func (p *Plucked) Pluck() {
	p.elapsed = 0.0
	for h := range p.phases {
		p.phases[h] = 0.0
	}
}

// Next generates the next sample
func (p *Plucked) Next() float32 {
	var sample float64
	for h := range p.phases {
		if p.amps[h] == 0 {
			break
		}
		env := math.Exp(-p.elapsed * p.decays[h])
		sample += p.amps[h] * env * math.Sin(2.0*math.Pi*p.phases[h])

		p.phases[h] += p.incs[h]
		if p.phases[h] >= 1.0 {
			p.phases[h] -= math.Floor(p.phases[h])
		}
	}
	p.elapsed += 1.0 / p.sampleRate
	return float32(sample / p.norm)
}

// Process fills buffer with the plucked tone - no allocations
func (p *Plucked) Process(buffer []float32) {
	for i := range buffer {
		buffer[i] = p.Next()
	}
}
