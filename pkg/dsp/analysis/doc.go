// Package analysis provides the signal analysis used by the tuner.
//
// PitchDetector estimates the fundamental frequency of a mono frame using
// normalized autocorrelation with parabolic peak refinement. Detection is
// a pure computation over an already-captured buffer: no I/O, no blocking,
// bounded cost per call.
//
// Level metering (peak with hold/decay, windowed RMS) backs the input
// level readout, and SpectrumAnalyzer offers FFT magnitudes for
// diagnostics. Meters are safe for concurrent use; a PitchDetector is not,
// it reuses internal scratch between calls and belongs to one goroutine.
//
// Example usage:
//
//	det := analysis.NewPitchDetector(44100)
//	if est, ok := det.Analyze(frame); ok {
//		reading, _ := music.FrequencyToNote(est.Frequency)
//		_ = reading
//	}
package analysis
