// Package dsp provides digital signal processing utilities for mono audio frames
package dsp

import "math"

// Buffer utilities for common audio operations

// Scale multiplies buffer by a constant - no allocations
func Scale(buffer []float32, scale float32) {
	for i := range buffer {
		buffer[i] *= scale
	}
}

// Peak finds the maximum absolute value in a buffer
func Peak(buffer []float32) float32 {
	peak := float32(0)
	for _, sample := range buffer {
		abs := float32(math.Abs(float64(sample)))
		if abs > peak {
			peak = abs
		}
	}
	return peak
}

// RMS calculates the root mean square of a buffer
func RMS(buffer []float32) float32 {
	if len(buffer) == 0 {
		return 0
	}

	sum := float32(0)
	for _, sample := range buffer {
		sum += sample * sample
	}

	return float32(math.Sqrt(float64(sum / float32(len(buffer)))))
}
