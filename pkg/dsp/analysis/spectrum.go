package analysis

import (
	"math"
	"sync"

	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"

	"github.com/justyntemme/tunekit/pkg/dsp"
)

// SpectrumAnalyzer produces FFT magnitude snapshots from analysis frames.
// It backs diagnostics output only; the pitch path never reads it.
type SpectrumAnalyzer struct {
	fftSize    int
	sampleRate float64
	scratch    []float64
	magnitudes []float64
	mu         sync.Mutex
}

// NewSpectrumAnalyzer creates an analyzer producing fftSize/2+1 bins.
// Power-of-two sizes are fastest but any positive size works.
func NewSpectrumAnalyzer(fftSize int, sampleRate float64) *SpectrumAnalyzer {
	if fftSize < 2 {
		fftSize = dsp.DefaultFrameLength
	}
	return &SpectrumAnalyzer{
		fftSize:    fftSize,
		sampleRate: sampleRate,
		scratch:    make([]float64, fftSize),
		magnitudes: make([]float64, fftSize/2+1),
	}
}

// BinWidth returns the frequency width of one bin in Hz
func (sa *SpectrumAnalyzer) BinWidth() float64 {
	return sa.sampleRate / float64(sa.fftSize)
}

// Process computes the magnitude spectrum of one frame. Frames shorter
// than the FFT size are zero-padded, longer ones truncated.
func (sa *SpectrumAnalyzer) Process(frame []float32) {
	sa.mu.Lock()
	defer sa.mu.Unlock()

	n := len(frame)
	if n > sa.fftSize {
		n = sa.fftSize
	}
	for i := 0; i < n; i++ {
		sa.scratch[i] = float64(frame[i])
	}
	for i := n; i < sa.fftSize; i++ {
		sa.scratch[i] = 0
	}

	window.Apply(sa.scratch, window.Hann)

	bins := fft.FFTReal(sa.scratch)
	for i := range sa.magnitudes {
		sa.magnitudes[i] = cmplxAbs(bins[i]) / float64(sa.fftSize)
	}
}

// Magnitudes returns a copy of the latest magnitude spectrum
func (sa *SpectrumAnalyzer) Magnitudes() []float64 {
	sa.mu.Lock()
	defer sa.mu.Unlock()

	out := make([]float64, len(sa.magnitudes))
	copy(out, sa.magnitudes)
	return out
}

// PeakFrequency returns the frequency and magnitude of the strongest
// bin, refined with parabolic interpolation across its neighbors
func (sa *SpectrumAnalyzer) PeakFrequency() (float64, float64) {
	sa.mu.Lock()
	defer sa.mu.Unlock()

	maxBin := 0
	maxMag := 0.0
	for i, m := range sa.magnitudes {
		if m > maxMag {
			maxMag = m
			maxBin = i
		}
	}
	if maxMag == 0 {
		return 0, 0
	}

	bin := float64(maxBin)
	if maxBin > 0 && maxBin < len(sa.magnitudes)-1 {
		y0 := sa.magnitudes[maxBin-1]
		y1 := sa.magnitudes[maxBin]
		y2 := sa.magnitudes[maxBin+1]
		if denom := y0 - 2.0*y1 + y2; denom != 0 {
			shift := 0.5 * (y0 - y2) / denom
			if !math.IsNaN(shift) && !math.IsInf(shift, 0) {
				bin += shift
			}
		}
	}

	return bin * sa.sampleRate / float64(sa.fftSize), maxMag
}

func cmplxAbs(c complex128) float64 {
	return math.Hypot(real(c), imag(c))
}
