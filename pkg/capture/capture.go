// Package capture supplies mono audio frames to the analysis pipeline.
// A Source delivers the freshest frame available and drops frames the
// consumer is too slow to take; analysis always prefers current signal
// over a backlog.
package capture

import (
	"context"
	"errors"

	"github.com/justyntemme/tunekit/pkg/dsp"
)

// Capture defaults
const (
	DefaultSampleRate  = dsp.SampleRate44k1
	DefaultFrameLength = dsp.DefaultFrameLength
)

// Errors
var (
	ErrAlreadyStarted = errors.New("capture: source already started")
	ErrBadFrameLength = errors.New("capture: frame length must be a power of two >= 1024")
)

// Frame is one analysis window of normalized mono samples. The slice is
// owned by the receiver once delivered; sources never reuse it.
type Frame struct {
	Samples    []float32 // amplitudes in [-1, 1]
	SampleRate float64   // Hz
	Timestamp  float64   // capture time in seconds on the shared clock
}

// Source produces frames until its context is canceled or Stop is
// called. Start returns the delivery channel; the channel closes when
// the source shuts down. Stop is idempotent and safe after cancel.
type Source interface {
	Start(ctx context.Context) (<-chan Frame, error)
	Stop() error
}

// ValidFrameLength reports whether n is a power of two of at least 1024,
// the sizes the detector is calibrated for.
func ValidFrameLength(n int) bool {
	return n >= 1024 && n&(n-1) == 0
}

// offer delivers a frame latest-wins: a full channel drops the stale
// frame first so the consumer always sees the freshest signal.
func offer(ch chan Frame, frame Frame) {
	select {
	case ch <- frame:
	default:
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- frame:
		default:
		}
	}
}
