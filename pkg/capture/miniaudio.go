package capture

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"sync"

	"github.com/gen2brain/malgo"

	"github.com/justyntemme/tunekit/pkg/clock"
)

// MiniaudioSource captures mono microphone frames through miniaudio.
// The device callback delivers raw float32 blocks of arbitrary size;
// the source reassembles them into fixed analysis frames. Miniaudio
// performs no echo cancellation, noise suppression, or auto-gain, so
// the signal reaches the detector unprocessed.
type MiniaudioSource struct {
	mu       sync.Mutex
	clk      clock.Clock
	rate     float64
	frameLen int

	ctx     *malgo.AllocatedContext
	device  *malgo.Device
	cancel  context.CancelFunc
	started bool
}

// NewMiniaudioSource creates a source reading the default capture
// device at the given format.
func NewMiniaudioSource(clk clock.Clock, sampleRate float64, frameLen int) (*MiniaudioSource, error) {
	if !ValidFrameLength(frameLen) {
		return nil, ErrBadFrameLength
	}
	return &MiniaudioSource{clk: clk, rate: sampleRate, frameLen: frameLen}, nil
}

// Start opens the default capture device and begins delivering frames
func (s *MiniaudioSource) Start(ctx context.Context) (<-chan Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return nil, ErrAlreadyStarted
	}

	mctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("capture: miniaudio context: %w", err)
	}

	config := malgo.DefaultDeviceConfig(malgo.Capture)
	config.Capture.Format = malgo.FormatF32
	config.Capture.Channels = 1
	config.SampleRate = uint32(s.rate)
	config.Alsa.NoMMap = 1

	ch := make(chan Frame, 1)
	runCtx, cancel := context.WithCancel(ctx)

	pending := make([]float32, 0, s.frameLen)
	callbacks := malgo.DeviceCallbacks{
		Data: func(_, input []byte, frameCount uint32) {
			if len(input) == 0 {
				return
			}
			pending = appendSamples(pending, input)
			for len(pending) >= s.frameLen {
				samples := make([]float32, s.frameLen)
				copy(samples, pending[:s.frameLen])
				pending = pending[:copy(pending, pending[s.frameLen:])]

				select {
				case <-runCtx.Done():
					return
				default:
				}
				offer(ch, Frame{Samples: samples, SampleRate: s.rate, Timestamp: s.clk.Now()})
			}
		},
	}

	device, err := malgo.InitDevice(mctx.Context, config, callbacks)
	if err != nil {
		cancel()
		freeContext(mctx)
		return nil, fmt.Errorf("capture: miniaudio device: %w", err)
	}
	if err := device.Start(); err != nil {
		cancel()
		device.Uninit()
		freeContext(mctx)
		return nil, fmt.Errorf("capture: miniaudio start: %w", err)
	}

	s.ctx = mctx
	s.device = device
	s.cancel = cancel
	s.started = true

	go func() {
		<-runCtx.Done()
		s.teardown()
		close(ch)
	}()

	return ch, nil
}

// Stop closes the device and delivery channel. Idempotent.
func (s *MiniaudioSource) Stop() error {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	return nil
}

func (s *MiniaudioSource) teardown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return
	}
	s.device.Uninit()
	freeContext(s.ctx)
	s.device = nil
	s.ctx = nil
	s.cancel = nil
	s.started = false
}

func freeContext(ctx *malgo.AllocatedContext) {
	_ = ctx.Uninit()
	ctx.Free()
}

// appendSamples decodes little-endian float32 capture bytes
func appendSamples(dst []float32, input []byte) []float32 {
	for i := 0; i+4 <= len(input); i += 4 {
		bits := binary.LittleEndian.Uint32(input[i:])
		dst = append(dst, math.Float32frombits(bits))
	}
	return dst
}
