package capture

import (
	"context"
	"sync"
	"time"

	"github.com/justyntemme/tunekit/pkg/clock"
	"github.com/justyntemme/tunekit/pkg/dsp"
	"github.com/justyntemme/tunekit/pkg/dsp/oscillator"
)

// Waveform selects what a SynthSource generates
type Waveform int

const (
	WaveSine Waveform = iota
	WaveSquare
	WaveSaw
	WaveTriangle
	WavePlucked // decaying harmonic series, closest to a real string
	WaveSilence
)

// SynthSource generates frames from an oscillator instead of a
// microphone. It paces delivery at the real-time frame rate, so demos
// and pipeline tests see the cadence a live device would produce.
type SynthSource struct {
	mu        sync.Mutex
	clk       clock.Clock
	waveform  Waveform
	frequency float64
	amplitude float32
	rate      float64
	frameLen  int

	cancel  context.CancelFunc
	done    chan struct{}
	started bool
}

// NewSynthSource creates a sine source at the given frequency using the
// shared clock for frame timestamps.
func NewSynthSource(clk clock.Clock, frequency float64) *SynthSource {
	return &SynthSource{
		clk:       clk,
		waveform:  WaveSine,
		frequency: frequency,
		amplitude: 0.5,
		rate:      DefaultSampleRate,
		frameLen:  DefaultFrameLength,
	}
}

// SetWaveform selects the generated waveform
func (s *SynthSource) SetWaveform(w Waveform) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.waveform = w
}

// SetAmplitude sets the peak amplitude, clipped to [0, 1]
func (s *SynthSource) SetAmplitude(a float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a < 0 {
		a = 0
	}
	if a > 1 {
		a = 1
	}
	s.amplitude = a
}

// SetFrequency retunes the generator; takes effect on the next frame
func (s *SynthSource) SetFrequency(frequency float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if frequency > 0 {
		s.frequency = frequency
	}
}

// SetFormat sets the sample rate and frame length
func (s *SynthSource) SetFormat(sampleRate float64, frameLen int) error {
	if !ValidFrameLength(frameLen) {
		return ErrBadFrameLength
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rate = sampleRate
	s.frameLen = frameLen
	return nil
}

// Start begins generating frames until ctx is canceled or Stop is called
func (s *SynthSource) Start(ctx context.Context) (<-chan Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return nil, ErrAlreadyStarted
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	s.started = true

	ch := make(chan Frame, 1)
	go s.run(runCtx, ch)
	return ch, nil
}

// Stop halts generation and closes the delivery channel. Idempotent.
func (s *SynthSource) Stop() error {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()
	<-done
	return nil
}

func (s *SynthSource) run(ctx context.Context, ch chan Frame) {
	defer close(ch)
	defer func() {
		s.mu.Lock()
		s.started = false
		s.cancel = nil
		s.mu.Unlock()
		close(s.done)
	}()

	s.mu.Lock()
	rate, frameLen := s.rate, s.frameLen
	s.mu.Unlock()

	osc := oscillator.New(rate)
	plucked := oscillator.NewPlucked(rate)
	plucked.Pluck()

	interval := time.Duration(float64(frameLen) / rate * float64(time.Second))
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			offer(ch, s.generate(osc, plucked, rate, frameLen))
		}
	}
}

func (s *SynthSource) generate(osc *oscillator.Oscillator, plucked *oscillator.Plucked, rate float64, frameLen int) Frame {
	s.mu.Lock()
	waveform := s.waveform
	frequency := s.frequency
	amplitude := s.amplitude
	s.mu.Unlock()

	samples := make([]float32, frameLen)
	switch waveform {
	case WaveSilence:
		// leave zeroed
	case WavePlucked:
		plucked.SetFrequency(frequency)
		plucked.Process(samples)
	default:
		osc.SetFrequency(frequency)
		switch waveform {
		case WaveSquare:
			osc.ProcessSquare(samples)
		case WaveSaw:
			osc.ProcessSaw(samples)
		case WaveTriangle:
			osc.ProcessTriangle(samples)
		default:
			osc.ProcessSine(samples)
		}
	}
	if amplitude != 1 {
		dsp.Scale(samples, amplitude)
	}

	return Frame{Samples: samples, SampleRate: rate, Timestamp: s.clk.Now()}
}
