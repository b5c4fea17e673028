// Package dsp provides digital signal processing utilities and algorithms.
package dsp

// Common audio constants used throughout the analysis packages.
const (
	// Detection band. Covers every common guitar tuning with headroom:
	// the low D of drop-D sits at 73.42 Hz, and fretted fundamentals on
	// the high E string stay well under 1.4 kHz.
	MinDetectFrequency = 70.0
	MaxDetectFrequency = 1400.0

	// MinDB is the minimum dB value (effectively silence)
	MinDB = -200.0

	// Default analysis gate. Frames quieter than this are treated as silence.
	DefaultSilenceGateDB = -40.0

	SampleRate44k1     = 44100.0
	DefaultFrameLength = 4096

	TwoPi = 6.283185307179586
)
