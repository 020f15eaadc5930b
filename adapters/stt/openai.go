package stt

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
	"golang.org/x/text/language"

	"github.com/satriahrh/jurubahasa/adapters/capture"
	"github.com/satriahrh/jurubahasa/domain/entities"
	"github.com/satriahrh/jurubahasa/domain/repositories"
)

// transcriber is the subset of the OpenAI client used here
type transcriber interface {
	CreateTranscription(ctx context.Context, request openai.AudioRequest) (openai.AudioResponse, error)
}

// WhisperSpeechToText implements SpeechToText with OpenAI's transcription API
type WhisperSpeechToText struct {
	client transcriber
	model  string
	logger *zap.Logger
}

// NewWhisperSpeechToText creates a Whisper client from an OpenAI API client
func NewWhisperSpeechToText(client *openai.Client, model string, logger *zap.Logger) *WhisperSpeechToText {
	if model == "" {
		model = openai.Whisper1
		logger.Info("Using default Whisper model", zap.String("model", model))
	}
	return &WhisperSpeechToText{client: client, model: model, logger: logger}
}

// TranscribeAudio uploads a finished recording as a WAV file
func (w *WhisperSpeechToText) TranscribeAudio(ctx context.Context, audioData []byte, config repositories.AudioConfig) (string, error) {
	if len(audioData) == 0 {
		return "", fmt.Errorf("%w: no audio data received", entities.ErrUnintelligible)
	}

	if !capture.IsWAV(audioData) {
		audioData = capture.EncodeWAV(audioData, capture.WAVFormat{
			SampleRate:    config.SampleRate,
			Channels:      1,
			BitsPerSample: 16,
		})
	}

	resp, err := w.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    w.model,
		FilePath: "capture.wav",
		Reader:   bytes.NewReader(audioData),
		Language: whisperLanguage(config.Language),
	})
	if err != nil {
		return "", classifyOpenAIError(err)
	}

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return "", fmt.Errorf("%w: empty transcript", entities.ErrUnintelligible)
	}

	w.logger.Debug("Whisper transcription completed", zap.String("language", config.Language))
	return text, nil
}

// whisperLanguage reduces a locale to the ISO-639-1 code Whisper expects.
// Unknown locales fall back to automatic detection.
func whisperLanguage(locale string) string {
	tag, err := language.Parse(locale)
	if err != nil {
		return ""
	}
	base, _ := tag.Base()
	code := base.String()
	if code == "cmn" {
		return "zh"
	}
	if len(code) != 2 {
		return ""
	}
	return code
}

func classifyOpenAIError(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if serviceStatus(apiErr.HTTPStatusCode) {
			return fmt.Errorf("%w: %w", entities.ErrServiceUnavailable, err)
		}
		return fmt.Errorf("whisper request: %w", err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && !serviceStatus(reqErr.HTTPStatusCode) {
		return fmt.Errorf("whisper request: %w", err)
	}
	return fmt.Errorf("%w: %w", entities.ErrServiceUnavailable, err)
}

// serviceStatus reports whether an HTTP status means the provider is
// unreachable, rejecting our credentials or throttling us
func serviceStatus(code int) bool {
	switch code {
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusRequestTimeout, http.StatusTooManyRequests:
		return true
	}
	return code >= http.StatusInternalServerError
}
