package analysis

import (
	"math"

	"github.com/justyntemme/tunekit/pkg/dsp"
)

// Detection defaults
const (
	DefaultGateDB        = dsp.DefaultSilenceGateDB
	DefaultMinConfidence = 0.85
	DefaultPeakRatio     = 0.9
)

// PitchEstimate is the outcome of analyzing a single frame
type PitchEstimate struct {
	Frequency  float64 // detected fundamental in Hz
	Confidence float64 // normalized autocorrelation at the chosen lag, 0-1
}

// PitchDetector estimates the fundamental frequency of mono frames using
// normalized autocorrelation. Scratch buffers are reused between calls,
// so one detector belongs to one goroutine.
type PitchDetector struct {
	sampleRate    float64
	gateDB        float64
	minFrequency  float64
	maxFrequency  float64
	minConfidence float64
	peakRatio     float64

	// scratch, grown on demand
	samples []float64
	energy  []float64
	corrs   []float64
}

// NewPitchDetector creates a detector for the given sample rate
func NewPitchDetector(sampleRate float64) *PitchDetector {
	return &PitchDetector{
		sampleRate:    sampleRate,
		gateDB:        DefaultGateDB,
		minFrequency:  dsp.MinDetectFrequency,
		maxFrequency:  dsp.MaxDetectFrequency,
		minConfidence: DefaultMinConfidence,
		peakRatio:     DefaultPeakRatio,
	}
}

// SampleRate returns the rate the detector was built for
func (d *PitchDetector) SampleRate() float64 {
	return d.sampleRate
}

// SetGateDB sets the silence gate in dBFS. Frames at or below the gate
// report no pitch.
func (d *PitchDetector) SetGateDB(db float64) {
	d.gateDB = db
}

// SetFrequencyRange restricts the detectable fundamental range
func (d *PitchDetector) SetFrequencyRange(minHz, maxHz float64) {
	if minHz > 0 && maxHz > minHz {
		d.minFrequency = minHz
		d.maxFrequency = maxHz
	}
}

// SetMinConfidence sets the correlation value a frame must exceed to
// count as pitched
func (d *PitchDetector) SetMinConfidence(c float64) {
	if c >= 0 && c <= 1 {
		d.minConfidence = c
	}
}

// SetPeakRatio sets the fraction of the strongest correlation that the
// earliest accepted peak must reach. Shorter lags are searched first, so
// this steers ties between a fundamental and its subharmonics toward the
// fundamental. 1.0 degenerates to a plain argmax.
func (d *PitchDetector) SetPeakRatio(ratio float64) {
	if ratio > 0 && ratio <= 1 {
		d.peakRatio = ratio
	}
}

// Analyze estimates the fundamental of one frame. The boolean reports
// whether a pitch was found: silence, noise, and out-of-range candidates
// all return false.
func (d *PitchDetector) Analyze(frame []float32) (PitchEstimate, bool) {
	n := len(frame)
	if n < 2 {
		return PitchEstimate{}, false
	}

	if dsp.LevelDB(frame) <= d.gateDB {
		return PitchEstimate{}, false
	}

	minLag := int(d.sampleRate / d.maxFrequency)
	maxLag := int(d.sampleRate / d.minFrequency)
	if minLag < 1 {
		minLag = 1
	}
	if maxLag > n-1 {
		maxLag = n - 1
	}
	if minLag > maxLag {
		return PitchEstimate{}, false
	}

	d.grow(n, maxLag)

	for i, s := range frame {
		d.samples[i] = float64(s)
	}

	// Prefix sums of squared samples give each window's energy in O(1)
	d.energy[0] = 0
	for i := 0; i < n; i++ {
		d.energy[i+1] = d.energy[i] + d.samples[i]*d.samples[i]
	}

	strongest := 0.0
	for lag := minLag; lag <= maxLag; lag++ {
		window := n - lag
		var num float64
		for i := 0; i < window; i++ {
			num += d.samples[i] * d.samples[i+lag]
		}
		norm := d.energy[window] * (d.energy[n] - d.energy[lag])
		corr := 0.0
		if norm > 0 {
			corr = num / math.Sqrt(norm)
		}
		d.corrs[lag] = corr
		if corr > strongest {
			strongest = corr
		}
	}
	if strongest <= 0 {
		return PitchEstimate{}, false
	}

	// Prefer the earliest interior peak near the strongest correlation.
	// A subharmonic lag correlates as well as the true period, so the
	// plain argmax can land an octave (or two) low; scanning short lags
	// first keeps the fundamental.
	bestLag := 0
	floor := strongest * d.peakRatio
	for lag := minLag + 1; lag < maxLag; lag++ {
		corr := d.corrs[lag]
		if corr < floor {
			continue
		}
		if corr >= d.corrs[lag-1] && corr >= d.corrs[lag+1] {
			bestLag = lag
			break
		}
	}
	if bestLag == 0 {
		// No interior peak cleared the bar; take the argmax
		for lag := minLag; lag <= maxLag; lag++ {
			if d.corrs[lag] == strongest {
				bestLag = lag
				break
			}
		}
	}
	if bestLag == 0 {
		return PitchEstimate{}, false
	}
	bestCorr := d.corrs[bestLag]

	// Parabolic refinement of the peak; missing neighbors count as zero
	y0 := 0.0
	if bestLag-1 >= minLag {
		y0 = d.corrs[bestLag-1]
	}
	y1 := d.corrs[bestLag]
	y2 := 0.0
	if bestLag+1 <= maxLag {
		y2 = d.corrs[bestLag+1]
	}
	lag := float64(bestLag)
	if denom := 2.0 * (y0 - 2.0*y1 + y2); denom != 0 {
		shift := (y0 - y2) / denom
		if !math.IsNaN(shift) && !math.IsInf(shift, 0) {
			lag += shift
		}
	}

	freq := d.sampleRate / lag
	if bestCorr <= d.minConfidence || freq < d.minFrequency || freq > d.maxFrequency {
		return PitchEstimate{}, false
	}

	return PitchEstimate{Frequency: freq, Confidence: bestCorr}, true
}

// grow resizes the scratch buffers, reallocating only when a frame is
// larger than anything seen before
func (d *PitchDetector) grow(n, maxLag int) {
	if cap(d.samples) < n {
		d.samples = make([]float64, n)
		d.energy = make([]float64, n+1)
	}
	d.samples = d.samples[:n]
	d.energy = d.energy[:n+1]

	if cap(d.corrs) < maxLag+1 {
		d.corrs = make([]float64, maxLag+1)
	}
	d.corrs = d.corrs[:maxLag+1]
}
