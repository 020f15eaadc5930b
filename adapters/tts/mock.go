package tts

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/satriahrh/jurubahasa/adapters/capture"
	"github.com/satriahrh/jurubahasa/domain/entities"
	"github.com/satriahrh/jurubahasa/domain/repositories"
)

// MockTTS produces silent WAV audio whose length follows the text
type MockTTS struct {
	logger *zap.Logger
}

// NewMockTTS creates a new mock synthesizer
func NewMockTTS(logger *zap.Logger) repositories.TextToSpeech {
	return &MockTTS{logger: logger}
}

// SynthesizeAudio implements repositories.TextToSpeech
func (m *MockTTS) SynthesizeAudio(ctx context.Context, text string, config repositories.VoiceConfig) (repositories.SynthesisResult, error) {
	if err := ctx.Err(); err != nil {
		return repositories.SynthesisResult{}, err
	}
	if strings.TrimSpace(text) == "" {
		return repositories.SynthesisResult{}, fmt.Errorf("%w: text cannot be empty", entities.ErrSynthesisFailed)
	}

	// roughly 60ms of 16kHz audio per character
	pcm := make([]byte, len([]rune(text))*1920)

	m.logger.Info("Mock speech synthesized",
		zap.String("language", config.Language),
		zap.Int("totalBytes", len(pcm)))

	return repositories.SynthesisResult{
		Audio:    capture.EncodeWAV(pcm, capture.WAVFormat{SampleRate: 16000, Channels: 1, BitsPerSample: 16}),
		MimeType: "audio/wav",
		Format:   "wav",
	}, nil
}
