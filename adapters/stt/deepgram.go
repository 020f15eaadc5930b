package stt

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	api "github.com/deepgram/deepgram-go-sdk/v3/pkg/api/listen/v1/rest"
	restinterfaces "github.com/deepgram/deepgram-go-sdk/v3/pkg/api/listen/v1/rest/interfaces"
	interfaces "github.com/deepgram/deepgram-go-sdk/v3/pkg/client/interfaces"
	client "github.com/deepgram/deepgram-go-sdk/v3/pkg/client/listen"
	"go.uber.org/zap"

	"github.com/satriahrh/jurubahasa/adapters/capture"
	"github.com/satriahrh/jurubahasa/domain/entities"
	"github.com/satriahrh/jurubahasa/domain/repositories"
)

// DeepgramConfig holds Deepgram configuration
type DeepgramConfig struct {
	APIKey string
	Model  string
}

// NewDeepgramConfigFromEnv creates Deepgram configuration from environment variables
func NewDeepgramConfigFromEnv() DeepgramConfig {
	return DeepgramConfig{
		APIKey: os.Getenv("DEEPGRAM_API_KEY"),
		Model:  os.Getenv("DEEPGRAM_MODEL"),
	}
}

// ValidateDeepgramConfig validates Deepgram configuration
func ValidateDeepgramConfig(config DeepgramConfig) error {
	if config.APIKey == "" {
		return fmt.Errorf("DEEPGRAM_API_KEY is required")
	}
	return nil
}

// prerecorder is the subset of the Deepgram REST client used here
type prerecorder interface {
	FromStream(ctx context.Context, src io.Reader, options *interfaces.PreRecordedTranscriptionOptions) (*restinterfaces.PreRecordedResponse, error)
}

// DeepgramSpeechToText implements SpeechToText with Deepgram's pre-recorded API
type DeepgramSpeechToText struct {
	client prerecorder
	config DeepgramConfig
	logger *zap.Logger
}

// NewDeepgramSpeechToText creates a new Deepgram transcription client
func NewDeepgramSpeechToText(config DeepgramConfig, logger *zap.Logger) (*DeepgramSpeechToText, error) {
	if err := ValidateDeepgramConfig(config); err != nil {
		return nil, fmt.Errorf("invalid Deepgram configuration: %w", err)
	}

	if config.Model == "" {
		config.Model = "nova-2"
		logger.Info("Using default Deepgram model", zap.String("model", config.Model))
	}

	client.InitWithDefault()
	c := client.NewREST(config.APIKey, &interfaces.ClientOptions{})

	return &DeepgramSpeechToText{
		client: api.New(c),
		config: config,
		logger: logger,
	}, nil
}

// TranscribeAudio uploads a finished recording and returns the best transcript
func (d *DeepgramSpeechToText) TranscribeAudio(ctx context.Context, audioData []byte, config repositories.AudioConfig) (string, error) {
	if len(audioData) == 0 {
		return "", fmt.Errorf("%w: no audio data received", entities.ErrUnintelligible)
	}

	options := &interfaces.PreRecordedTranscriptionOptions{
		Model:       d.config.Model,
		Language:    config.Language,
		Punctuate:   true,
		SmartFormat: true,
	}
	// containers describe themselves; raw PCM needs an explicit layout
	if !capture.IsWAV(audioData) && strings.EqualFold(config.Encoding, "LINEAR16") {
		options.Encoding = "linear16"
		options.SampleRate = config.SampleRate
		options.Channels = 1
	}

	res, err := d.client.FromStream(ctx, bytes.NewReader(audioData), options)
	if err != nil {
		return "", classifyDeepgramError(err)
	}

	transcript := deepgramTranscript(res)
	if transcript == "" {
		return "", fmt.Errorf("%w: empty transcript", entities.ErrUnintelligible)
	}

	d.logger.Debug("Deepgram transcription completed", zap.String("language", config.Language))
	return transcript, nil
}

func classifyDeepgramError(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	var statusErr *interfaces.StatusError
	if errors.As(err, &statusErr) && statusErr.Resp != nil && !serviceStatus(statusErr.Resp.StatusCode) {
		return fmt.Errorf("deepgram request: %w", err)
	}
	return fmt.Errorf("%w: deepgram request: %w", entities.ErrServiceUnavailable, err)
}

func deepgramTranscript(res *restinterfaces.PreRecordedResponse) string {
	if res == nil || res.Results == nil || len(res.Results.Channels) == 0 {
		return ""
	}
	alternatives := res.Results.Channels[0].Alternatives
	if len(alternatives) == 0 {
		return ""
	}
	return strings.TrimSpace(alternatives[0].Transcript)
}
