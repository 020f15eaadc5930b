// Package app selects the configured providers and wires the services.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/satriahrh/jurubahasa/adapters/events"
	"github.com/satriahrh/jurubahasa/adapters/llm"
	"github.com/satriahrh/jurubahasa/adapters/stt"
	"github.com/satriahrh/jurubahasa/adapters/tts"
	"github.com/satriahrh/jurubahasa/domain/entities"
	"github.com/satriahrh/jurubahasa/domain/repositories"
	"github.com/satriahrh/jurubahasa/internal/auth"
	"github.com/satriahrh/jurubahasa/internal/config"
	"github.com/satriahrh/jurubahasa/internal/metrics"
	"github.com/satriahrh/jurubahasa/usecase"
)

// developmentSecret signs tokens when APP_ENV=development and no JWT_SECRET is set
const developmentSecret = "jurubahasa-development-secret"

// Providers are the remote services a session pipeline calls
type Providers struct {
	STT repositories.SpeechToText
	LLM repositories.LargeLanguageModel
	TTS repositories.TextToSpeech

	closers []io.Closer
}

// Close releases provider connections
func (p *Providers) Close() error {
	var errs []error
	for _, c := range p.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

// NewProviders builds the speech, language and synthesis adapters named in cfg
func NewProviders(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Providers, error) {
	p := &Providers{}

	var openaiClient *openai.Client
	openaiConfig := llm.NewOpenAIConfigFromEnv()
	getOpenAI := func() (*openai.Client, error) {
		if openaiClient != nil {
			return openaiClient, nil
		}
		c, err := llm.NewOpenAIClient(openaiConfig)
		if err != nil {
			return nil, err
		}
		openaiClient = c
		return c, nil
	}

	var err error
	if p.STT, err = newSpeechToText(ctx, cfg.STTProvider, p, getOpenAI, openaiConfig, logger); err != nil {
		p.Close()
		return nil, fmt.Errorf("speech-to-text provider %q: %w", cfg.STTProvider, err)
	}
	if p.LLM, err = newLanguageModel(ctx, cfg.LLMProvider, getOpenAI, openaiConfig, logger); err != nil {
		p.Close()
		return nil, fmt.Errorf("language model provider %q: %w", cfg.LLMProvider, err)
	}
	if p.TTS, err = newTextToSpeech(cfg.TTSProvider, getOpenAI, openaiConfig, logger); err != nil {
		p.Close()
		return nil, fmt.Errorf("text-to-speech provider %q: %w", cfg.TTSProvider, err)
	}

	logger.Info("Providers initialized",
		zap.String("stt", cfg.STTProvider),
		zap.String("llm", cfg.LLMProvider),
		zap.String("tts", cfg.TTSProvider))

	return p, nil
}

func newSpeechToText(ctx context.Context, provider string, p *Providers, getOpenAI func() (*openai.Client, error), oc llm.OpenAIConfig, logger *zap.Logger) (repositories.SpeechToText, error) {
	switch provider {
	case config.ProviderGoogle:
		google, err := stt.NewGoogleSpeechToText(ctx, logger)
		if err != nil {
			return nil, err
		}
		p.closers = append(p.closers, google)
		return google, nil
	case config.ProviderDeepgram:
		return stt.NewDeepgramSpeechToText(stt.NewDeepgramConfigFromEnv(), logger)
	case config.ProviderOpenAI:
		client, err := getOpenAI()
		if err != nil {
			return nil, err
		}
		return stt.NewWhisperSpeechToText(client, oc.TranscriptionModel, logger), nil
	case config.ProviderMock:
		return stt.NewMockSpeechToText(logger), nil
	default:
		return nil, fmt.Errorf("unknown provider")
	}
}

func newLanguageModel(ctx context.Context, provider string, getOpenAI func() (*openai.Client, error), oc llm.OpenAIConfig, logger *zap.Logger) (repositories.LargeLanguageModel, error) {
	switch provider {
	case config.ProviderGemini:
		return llm.NewGeminiLLM(ctx, llm.NewGeminiConfigFromEnv(), logger)
	case config.ProviderOpenAI:
		client, err := getOpenAI()
		if err != nil {
			return nil, err
		}
		return llm.NewOpenAILLM(client, oc.Model, logger), nil
	case config.ProviderMock:
		return llm.NewMockLLM(logger), nil
	default:
		return nil, fmt.Errorf("unknown provider")
	}
}

func newTextToSpeech(provider string, getOpenAI func() (*openai.Client, error), oc llm.OpenAIConfig, logger *zap.Logger) (repositories.TextToSpeech, error) {
	switch provider {
	case config.ProviderElevenLabs:
		return tts.NewElevenLabsTTS(tts.NewElevenLabsConfigFromEnv(), logger)
	case config.ProviderOpenAI:
		client, err := getOpenAI()
		if err != nil {
			return nil, err
		}
		return tts.NewOpenAITTS(client, oc.SpeechModel, oc.Voice, logger), nil
	case config.ProviderMock:
		return tts.NewMockTTS(logger), nil
	default:
		return nil, fmt.Errorf("unknown provider")
	}
}

// App holds the process wide services
type App struct {
	Config      *config.Config
	Registry    *prometheus.Registry
	Metrics     *metrics.Metrics
	Providers   *Providers
	Publisher   *events.KafkaPublisher
	Interpreter *usecase.InterpreterService
	Tokens      *auth.TokenIssuer
}

// New wires providers, metrics, the result publisher and the interpreter service
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	secret := cfg.JWTSecret
	if secret == "" && cfg.IsDevelopment() {
		logger.Warn("JWT_SECRET not set, using development secret")
		secret = developmentSecret
	}
	tokens, err := auth.NewTokenIssuer(secret, cfg.TokenTTL)
	if err != nil {
		return nil, err
	}

	providers, err := NewProviders(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	publisher := events.NewKafkaPublisher(events.Config{
		Brokers: cfg.KafkaBrokers,
		Topic:   cfg.KafkaTopic,
	}, m, logger)

	catalog := entities.DefaultCatalog()
	if _, _, err := catalog.ValidatePair(cfg.DefaultSourceLanguage, cfg.DefaultTargetLanguage); err != nil {
		providers.Close()
		publisher.Close()
		return nil, fmt.Errorf("default languages: %w", err)
	}

	interpreter := usecase.NewInterpreterService(
		catalog,
		providers.STT,
		usecase.NewTranslationService(providers.LLM, logger),
		providers.TTS,
		publisher,
		m,
		usecase.PipelineConfig{
			CaptureTimeout:    cfg.CaptureTimeout,
			ProcessingTimeout: cfg.ProcessingTimeout,
		},
		logger,
	)

	return &App{
		Config:      cfg,
		Registry:    registry,
		Metrics:     m,
		Providers:   providers,
		Publisher:   publisher,
		Interpreter: interpreter,
		Tokens:      tokens,
	}, nil
}

// Close flushes the publisher and releases provider connections
func (a *App) Close() error {
	return errors.Join(a.Publisher.Close(), a.Providers.Close())
}

// NewLogger returns a development logger for APP_ENV=development and a
// production logger otherwise
func NewLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg != nil && cfg.IsDevelopment() {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
