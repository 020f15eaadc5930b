package microphone

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/satriahrh/jurubahasa/adapters/capture"
	"github.com/satriahrh/jurubahasa/domain/entities"
)

func TestSilenceDetector(t *testing.T) {
	frame := 100 * time.Millisecond
	loud := []int16{2000, -2000, 2000, -2000}
	quiet := []int16{10, -10, 10, -10}

	d := NewSilenceDetector(500, 300*time.Millisecond)

	// silence before speech never ends the utterance
	for i := 0; i < 10; i++ {
		assert.False(t, d.Observe(quiet, frame))
	}
	assert.False(t, d.HeardSpeech())

	assert.False(t, d.Observe(loud, frame))
	assert.True(t, d.HeardSpeech())
	assert.False(t, d.Observe(quiet, frame))
	assert.False(t, d.Observe(quiet, frame))
	assert.True(t, d.Observe(quiet, frame))

	d.Reset()
	assert.False(t, d.HeardSpeech())
}

func TestRMS(t *testing.T) {
	assert.Equal(t, 0.0, RMS(nil))
	assert.InDelta(t, 1000.0, RMS([]int16{1000, -1000}), 0.001)
}

// fakeStream fills the shared buffer with one amplitude per Read
type fakeStream struct {
	buffer     []int16
	amplitudes []int16
	reads      int
	readErr    error
	closed     bool
}

func (f *fakeStream) Start() error { return nil }
func (f *fakeStream) Stop() error  { return nil }
func (f *fakeStream) Close() error { f.closed = true; return nil }

func (f *fakeStream) Read() error {
	if f.readErr != nil {
		return f.readErr
	}
	amp := int16(0)
	if f.reads < len(f.amplitudes) {
		amp = f.amplitudes[f.reads]
	}
	for i := range f.buffer {
		if i%2 == 0 {
			f.buffer[i] = amp
		} else {
			f.buffer[i] = -amp
		}
	}
	f.reads++
	return nil
}

func newTestMicrophone(t *testing.T, s *fakeStream, config Config) *Microphone {
	return &Microphone{
		config: config,
		logger: zaptest.NewLogger(t),
		open: func(buffer []int16) (stream, error) {
			s.buffer = buffer
			return s, nil
		},
		terminate: func() error { return nil },
	}
}

func TestMicrophoneStopsAfterTrailingSilence(t *testing.T) {
	s := &fakeStream{amplitudes: []int16{0, 0, 3000, 3000, 3000}}
	m := newTestMicrophone(t, s, Config{
		SilenceThreshold: 500,
		TrailingSilence:  200 * time.Millisecond,
	})

	audio, err := m.BeginCapture(context.Background())
	require.NoError(t, err)

	// 64ms frames: 2 quiet, 3 loud, then 4 quiet frames to pass 200ms
	assert.Equal(t, 9, s.reads)
	assert.True(t, s.closed)
	assert.Equal(t, "LINEAR16", audio.Encoding)
	assert.Equal(t, 16000, audio.SampleRate)

	pcm, _, err := capture.DecodeWAV(audio.Data)
	require.NoError(t, err)
	assert.Len(t, pcm, 9*framesPerBuffer*2)
}

func TestMicrophoneMaxDuration(t *testing.T) {
	s := &fakeStream{}
	m := newTestMicrophone(t, s, Config{
		SilenceThreshold: 500,
		TrailingSilence:  time.Second,
		MaxDuration:      640 * time.Millisecond,
	})

	_, err := m.BeginCapture(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 10, s.reads)
}

func TestMicrophoneHonoursContext(t *testing.T) {
	s := &fakeStream{}
	m := newTestMicrophone(t, s, Config{SilenceThreshold: 500, TrailingSilence: time.Second})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := m.BeginCapture(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMicrophoneReadError(t *testing.T) {
	s := &fakeStream{readErr: errors.New("device unplugged")}
	m := newTestMicrophone(t, s, DefaultConfig())

	_, err := m.BeginCapture(context.Background())
	assert.ErrorIs(t, err, entities.ErrCaptureUnavailable)
}
