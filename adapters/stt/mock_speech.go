package stt

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/satriahrh/jurubahasa/domain/entities"
	"github.com/satriahrh/jurubahasa/domain/repositories"
)

// MockSpeechToText returns canned transcripts for local development
type MockSpeechToText struct {
	logger *zap.Logger
}

// NewMockSpeechToText creates a new mock speech-to-text service
func NewMockSpeechToText(logger *zap.Logger) repositories.SpeechToText {
	return &MockSpeechToText{
		logger: logger,
	}
}

// TranscribeAudio picks a transcript by audio size
func (s *MockSpeechToText) TranscribeAudio(ctx context.Context, audioData []byte, config repositories.AudioConfig) (string, error) {
	s.logger.Info("Processing speech-to-text",
		zap.Int("audioSize", len(audioData)),
		zap.Int("sampleRate", config.SampleRate),
		zap.String("encoding", config.Encoding),
		zap.String("language", config.Language))

	if err := ctx.Err(); err != nil {
		return "", err
	}

	// Mock transcription based on audio size
	switch {
	case len(audioData) == 0:
		return "", fmt.Errorf("%w: no audio data received", entities.ErrUnintelligible)
	case len(audioData) > 10000:
		return "Hello, how are you? I would like to tell you about my day.", nil
	case len(audioData) > 5000:
		return "Thank you for listening.", nil
	case len(audioData) > 1000:
		return "Hello, how are you?", nil
	default:
		return "Hi", nil
	}
}
