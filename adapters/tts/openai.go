package tts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/satriahrh/jurubahasa/domain/entities"
	"github.com/satriahrh/jurubahasa/domain/repositories"
)

// speechCreator is the subset of the OpenAI client used here
type speechCreator interface {
	CreateSpeech(ctx context.Context, request openai.CreateSpeechRequest) (openai.RawResponse, error)
}

// OpenAITTS implements TextToSpeech with OpenAI's speech endpoint
type OpenAITTS struct {
	client speechCreator
	model  openai.SpeechModel
	voice  openai.SpeechVoice
	logger *zap.Logger
}

// NewOpenAITTS creates a speech synthesizer. Empty model or voice use defaults.
func NewOpenAITTS(client *openai.Client, model, voice string, logger *zap.Logger) *OpenAITTS {
	m := openai.SpeechModel(model)
	if m == "" {
		m = openai.TTSModel1
		logger.Info("Using default speech model", zap.String("model", string(m)))
	}
	v := openai.SpeechVoice(voice)
	if v == "" {
		v = openai.VoiceAlloy
		logger.Info("Using default voice", zap.String("voice", string(v)))
	}
	return &OpenAITTS{client: client, model: m, voice: v, logger: logger}
}

// SynthesizeAudio returns mp3 audio for text. The voices are multilingual,
// so the target language is carried by the text itself.
func (o *OpenAITTS) SynthesizeAudio(ctx context.Context, text string, config repositories.VoiceConfig) (repositories.SynthesisResult, error) {
	if strings.TrimSpace(text) == "" {
		return repositories.SynthesisResult{}, fmt.Errorf("%w: text cannot be empty", entities.ErrSynthesisFailed)
	}

	voice := o.voice
	if config.Voice != "" {
		voice = openai.SpeechVoice(config.Voice)
	}

	resp, err := o.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          o.model,
		Input:          text,
		Voice:          voice,
		ResponseFormat: openai.SpeechResponseFormatMp3,
	})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return repositories.SynthesisResult{}, err
		}
		return repositories.SynthesisResult{}, fmt.Errorf("%w: %w", entities.ErrSynthesisFailed, err)
	}
	defer resp.Close()

	audio, err := io.ReadAll(resp)
	if err != nil {
		return repositories.SynthesisResult{}, fmt.Errorf("%w: error reading speech: %w", entities.ErrSynthesisFailed, err)
	}
	if len(audio) == 0 {
		return repositories.SynthesisResult{}, fmt.Errorf("%w: empty audio response", entities.ErrSynthesisFailed)
	}

	o.logger.Info("OpenAI speech synthesized",
		zap.String("language", config.Language),
		zap.Int("totalBytes", len(audio)))

	return repositories.SynthesisResult{Audio: audio, MimeType: "audio/mpeg", Format: "mp3"}, nil
}
