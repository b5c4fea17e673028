package capture

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/justyntemme/tunekit/pkg/clock"
	"github.com/justyntemme/tunekit/pkg/dsp"
)

func TestValidFrameLength(t *testing.T) {
	tests := []struct {
		n        int
		expected bool
	}{
		{1024, true},
		{2048, true},
		{4096, true},
		{16384, true},
		{512, false},
		{0, false},
		{-4096, false},
		{3000, false},
		{4095, false},
	}
	for _, tt := range tests {
		if got := ValidFrameLength(tt.n); got != tt.expected {
			t.Errorf("ValidFrameLength(%d) = %t, want %t", tt.n, got, tt.expected)
		}
	}
}

func TestSynthSourceDeliversFrames(t *testing.T) {
	src := NewSynthSource(clock.NewSystemClock(), 110.0)
	require.NoError(t, src.SetFormat(44100, 1024))

	ch, err := src.Start(context.Background())
	require.NoError(t, err)
	defer src.Stop()

	select {
	case frame, open := <-ch:
		require.True(t, open, "channel closed before delivering a frame")
		require.Len(t, frame.Samples, 1024)
		require.Equal(t, 44100.0, frame.SampleRate)
		require.Greater(t, dsp.Peak(frame.Samples), float32(0.1), "sine frame should have signal")
	case <-time.After(2 * time.Second):
		t.Fatal("no frame delivered")
	}
}

func TestSynthSourceStopIdempotent(t *testing.T) {
	src := NewSynthSource(clock.NewSystemClock(), 110.0)
	require.NoError(t, src.SetFormat(44100, 1024))

	ch, err := src.Start(context.Background())
	require.NoError(t, err)

	require.NoError(t, src.Stop())
	require.NoError(t, src.Stop())

	// Channel drains and closes after Stop
	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, open := <-ch:
			if !open {
				return
			}
		case <-deadline:
			t.Fatal("channel not closed after Stop")
		}
	}
}

func TestSynthSourceHonorsContextCancel(t *testing.T) {
	src := NewSynthSource(clock.NewSystemClock(), 110.0)
	require.NoError(t, src.SetFormat(44100, 1024))

	ctx, cancel := context.WithCancel(context.Background())
	ch, err := src.Start(ctx)
	require.NoError(t, err)

	cancel()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, open := <-ch:
			if !open {
				return
			}
		case <-deadline:
			t.Fatal("channel not closed after context cancel")
		}
	}
}

func TestSynthSourceDoubleStart(t *testing.T) {
	src := NewSynthSource(clock.NewSystemClock(), 110.0)
	require.NoError(t, src.SetFormat(44100, 1024))

	_, err := src.Start(context.Background())
	require.NoError(t, err)
	defer src.Stop()

	_, err = src.Start(context.Background())
	require.ErrorIs(t, err, ErrAlreadyStarted)
}

func TestSynthSourceRejectsBadFrameLength(t *testing.T) {
	src := NewSynthSource(clock.NewSystemClock(), 110.0)
	require.ErrorIs(t, src.SetFormat(44100, 1000), ErrBadFrameLength)

	_, err := NewMiniaudioSource(clock.NewSystemClock(), 44100, 999)
	require.ErrorIs(t, err, ErrBadFrameLength)

	_, err = NewPortAudioSource(clock.NewSystemClock(), 44100, 0)
	require.ErrorIs(t, err, ErrBadFrameLength)
}

func TestSynthSourceAmplitude(t *testing.T) {
	src := NewSynthSource(clock.NewSystemClock(), 110.0)
	require.NoError(t, src.SetFormat(44100, 1024))
	src.SetAmplitude(0.25)

	ch, err := src.Start(context.Background())
	require.NoError(t, err)
	defer src.Stop()

	select {
	case frame := <-ch:
		peak := dsp.Peak(frame.Samples)
		require.Greater(t, peak, float32(0.1), "sine frame should have signal")
		require.LessOrEqual(t, peak, float32(0.25), "peak should not exceed the set amplitude")
	case <-time.After(2 * time.Second):
		t.Fatal("no frame delivered")
	}
}

func TestSynthSourceSilenceWaveform(t *testing.T) {
	src := NewSynthSource(clock.NewSystemClock(), 110.0)
	require.NoError(t, src.SetFormat(44100, 1024))
	src.SetWaveform(WaveSilence)

	ch, err := src.Start(context.Background())
	require.NoError(t, err)
	defer src.Stop()

	select {
	case frame := <-ch:
		require.Equal(t, float32(0), dsp.Peak(frame.Samples))
	case <-time.After(2 * time.Second):
		t.Fatal("no frame delivered")
	}
}
