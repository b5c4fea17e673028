package capture

import (
	"context"
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"

	"github.com/justyntemme/tunekit/pkg/clock"
)

// PortAudioSource captures mono microphone frames through PortAudio's
// default input stream. The stream is opened at exactly the analysis
// frame length, so each callback block is one frame.
type PortAudioSource struct {
	mu       sync.Mutex
	clk      clock.Clock
	rate     float64
	frameLen int

	stream  *portaudio.Stream
	cancel  context.CancelFunc
	started bool
}

// NewPortAudioSource creates a source reading the default input device
// at the given format.
func NewPortAudioSource(clk clock.Clock, sampleRate float64, frameLen int) (*PortAudioSource, error) {
	if !ValidFrameLength(frameLen) {
		return nil, ErrBadFrameLength
	}
	return &PortAudioSource{clk: clk, rate: sampleRate, frameLen: frameLen}, nil
}

// Start initializes PortAudio and begins delivering frames
func (s *PortAudioSource) Start(ctx context.Context) (<-chan Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return nil, ErrAlreadyStarted
	}

	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("capture: portaudio init: %w", err)
	}

	ch := make(chan Frame, 1)
	runCtx, cancel := context.WithCancel(ctx)

	stream, err := portaudio.OpenDefaultStream(1, 0, s.rate, s.frameLen, func(in []float32) {
		select {
		case <-runCtx.Done():
			return
		default:
		}
		samples := make([]float32, len(in))
		copy(samples, in)
		offer(ch, Frame{Samples: samples, SampleRate: s.rate, Timestamp: s.clk.Now()})
	})
	if err != nil {
		cancel()
		_ = portaudio.Terminate()
		return nil, fmt.Errorf("capture: portaudio open: %w", err)
	}
	if err := stream.Start(); err != nil {
		cancel()
		_ = stream.Close()
		_ = portaudio.Terminate()
		return nil, fmt.Errorf("capture: portaudio start: %w", err)
	}

	s.stream = stream
	s.cancel = cancel
	s.started = true

	go func() {
		<-runCtx.Done()
		s.teardown()
		close(ch)
	}()

	return ch, nil
}

// Stop closes the stream and delivery channel. Idempotent.
func (s *PortAudioSource) Stop() error {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	return nil
}

func (s *PortAudioSource) teardown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return
	}
	_ = s.stream.Stop()
	_ = s.stream.Close()
	_ = portaudio.Terminate()
	s.stream = nil
	s.cancel = nil
	s.started = false
}
