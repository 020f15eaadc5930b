package microphone

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gordonklaus/portaudio"
	"go.uber.org/zap"

	"github.com/satriahrh/jurubahasa/adapters/capture"
	"github.com/satriahrh/jurubahasa/domain/entities"
)

const (
	sampleRate      = 16000
	framesPerBuffer = 1024
)

// Config holds microphone capture settings
type Config struct {
	SilenceThreshold float64
	TrailingSilence  time.Duration
	MaxDuration      time.Duration
}

// DefaultConfig returns settings that suit a quiet room
func DefaultConfig() Config {
	return Config{
		SilenceThreshold: 500,
		TrailingSilence:  1200 * time.Millisecond,
		MaxDuration:      30 * time.Second,
	}
}

// stream is the subset of *portaudio.Stream used for blocking reads
type stream interface {
	Start() error
	Read() error
	Stop() error
	Close() error
}

// Microphone records one utterance at a time from the default input device.
// It captures 16-bit PCM mono audio at 16kHz and returns it as WAV.
type Microphone struct {
	config Config
	logger *zap.Logger

	open      func(buffer []int16) (stream, error)
	terminate func() error
}

// New initializes PortAudio. The caller must call Close.
func New(config Config, logger *zap.Logger) (*Microphone, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("%w: %w", entities.ErrCaptureUnavailable, err)
	}

	if config.SilenceThreshold <= 0 {
		config.SilenceThreshold = DefaultConfig().SilenceThreshold
		logger.Info("Using default silence threshold", zap.Float64("threshold", config.SilenceThreshold))
	}
	if config.TrailingSilence <= 0 {
		config.TrailingSilence = DefaultConfig().TrailingSilence
		logger.Info("Using default trailing silence", zap.Duration("trailingSilence", config.TrailingSilence))
	}

	return &Microphone{
		config: config,
		logger: logger,
		open: func(buffer []int16) (stream, error) {
			return portaudio.OpenDefaultStream(1, 0, float64(sampleRate), len(buffer), buffer)
		},
		terminate: portaudio.Terminate,
	}, nil
}

// BeginCapture records until trailing silence follows speech, MaxDuration is
// reached, or ctx is done
func (m *Microphone) BeginCapture(ctx context.Context) (*entities.AudioCapture, error) {
	buffer := make([]int16, framesPerBuffer)

	s, err := m.open(buffer)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", entities.ErrCaptureUnavailable, err)
	}
	defer s.Close()

	if err := s.Start(); err != nil {
		return nil, fmt.Errorf("%w: %w", entities.ErrCaptureUnavailable, err)
	}
	defer s.Stop()

	frameDuration := time.Duration(framesPerBuffer) * time.Second / sampleRate
	detector := NewSilenceDetector(m.config.SilenceThreshold, m.config.TrailingSilence)

	var pcm []byte
	var recorded time.Duration

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if err := s.Read(); err != nil && !errors.Is(err, portaudio.InputOverflowed) {
			return nil, fmt.Errorf("%w: %w", entities.ErrCaptureUnavailable, err)
		}

		pcm = append(pcm, capture.EncodePCM16(buffer)...)
		recorded += frameDuration

		if detector.Observe(buffer, frameDuration) {
			break
		}
		if m.config.MaxDuration > 0 && recorded >= m.config.MaxDuration {
			m.logger.Info("Capture reached max duration", zap.Duration("maxDuration", m.config.MaxDuration))
			break
		}
	}

	m.logger.Debug("Microphone capture finished",
		zap.Int("audioSize", len(pcm)),
		zap.Duration("duration", recorded),
		zap.Bool("heardSpeech", detector.HeardSpeech()))

	audio := entities.NewAudioCapture(
		capture.EncodeWAV(pcm, capture.WAVFormat{SampleRate: sampleRate, Channels: 1, BitsPerSample: 16}),
		"LINEAR16",
		sampleRate,
	)
	audio.Duration = recorded
	return audio, nil
}

// Close terminates PortAudio
func (m *Microphone) Close() error {
	return m.terminate()
}
