package llm

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/satriahrh/jurubahasa/domain/entities"
)

// OpenAIConfig holds OpenAI configuration shared by the chat, speech and
// transcription adapters
type OpenAIConfig struct {
	APIKey             string
	BaseURL            string
	Model              string
	TranscriptionModel string
	SpeechModel        string
	Voice              string
}

// NewOpenAIConfigFromEnv creates OpenAI configuration from environment variables
func NewOpenAIConfigFromEnv() OpenAIConfig {
	return OpenAIConfig{
		APIKey:             os.Getenv("OPENAI_API_KEY"),
		BaseURL:            os.Getenv("OPENAI_BASE_URL"),
		Model:              os.Getenv("OPENAI_MODEL"),
		TranscriptionModel: os.Getenv("OPENAI_TRANSCRIPTION_MODEL"),
		SpeechModel:        os.Getenv("OPENAI_TTS_MODEL"),
		Voice:              os.Getenv("OPENAI_TTS_VOICE"),
	}
}

// ValidateOpenAIConfig validates OpenAI configuration
func ValidateOpenAIConfig(config OpenAIConfig) error {
	if config.APIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required")
	}
	return nil
}

// NewOpenAIClient creates an API client from config
func NewOpenAIClient(config OpenAIConfig) (*openai.Client, error) {
	if err := ValidateOpenAIConfig(config); err != nil {
		return nil, fmt.Errorf("invalid OpenAI configuration: %w", err)
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}
	return openai.NewClientWithConfig(clientConfig), nil
}

// chatCompleter is the subset of the OpenAI client used here
type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAILLM implements the LargeLanguageModel interface with chat completions
type OpenAILLM struct {
	client chatCompleter
	model  string
	logger *zap.Logger
}

// NewOpenAILLM creates a chat completion model
func NewOpenAILLM(client *openai.Client, model string, logger *zap.Logger) *OpenAILLM {
	if model == "" {
		model = openai.GPT4oMini
		logger.Info("Using default OpenAI model", zap.String("model", model))
	}
	return &OpenAILLM{client: client, model: model, logger: logger}
}

// Generate sends the prompt as a single user message
func (o *OpenAILLM) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: defaultTemperature,
	})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return "", err
		}
		o.logger.Error("Failed to create chat completion", zap.Error(err))
		return "", fmt.Errorf("%w: %w", entities.ErrServiceUnavailable, err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices returned", entities.ErrTranslationFailed)
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("%w: empty response from model", entities.ErrTranslationFailed)
	}
	return text, nil
}
