package dsp

import (
	"math"
	"testing"
)

func TestScale(t *testing.T) {
	buffer := []float32{1.0, 0.5, -0.5, -1.0}
	Scale(buffer, 0.5)

	expected := []float32{0.5, 0.25, -0.25, -0.5}
	for i, v := range buffer {
		if v != expected[i] {
			t.Errorf("Scale: buffer[%d] = %f, want %f", i, v, expected[i])
		}
	}
}

func TestPeak(t *testing.T) {
	tests := []struct {
		name     string
		buffer   []float32
		expected float32
	}{
		{"Empty", []float32{}, 0},
		{"Positive peak", []float32{0.1, 0.7, 0.3}, 0.7},
		{"Negative peak", []float32{0.1, -0.9, 0.3}, 0.9},
		{"Silence", []float32{0, 0, 0}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Peak(tt.buffer); got != tt.expected {
				t.Errorf("Peak() = %f, want %f", got, tt.expected)
			}
		})
	}
}

func TestRMS(t *testing.T) {
	tests := []struct {
		name     string
		buffer   []float32
		expected float64
		epsilon  float64
	}{
		{"Empty", []float32{}, 0, 0},
		{"Silence", []float32{0, 0, 0, 0}, 0, 0},
		{"DC", []float32{0.5, 0.5, 0.5, 0.5}, 0.5, 1e-6},
		{"Alternating", []float32{1, -1, 1, -1}, 1.0, 1e-6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := float64(RMS(tt.buffer))
			if math.Abs(got-tt.expected) > tt.epsilon {
				t.Errorf("RMS() = %f, want %f", got, tt.expected)
			}
		})
	}
}

func TestRMSFullScaleSine(t *testing.T) {
	buffer := make([]float32, 4096)
	for i := range buffer {
		buffer[i] = float32(math.Sin(TwoPi * float64(i) / 64.0))
	}

	// Full-scale sine RMS is 1/sqrt(2)
	got := float64(RMS(buffer))
	want := 1.0 / math.Sqrt2
	if math.Abs(got-want) > 0.001 {
		t.Errorf("RMS of full-scale sine = %f, want %f", got, want)
	}
}
