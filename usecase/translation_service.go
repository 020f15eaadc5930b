package usecase

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/satriahrh/jurubahasa/domain/entities"
	"github.com/satriahrh/jurubahasa/domain/repositories"
)

const translationPrompt = "Translate the following %s sentence to %s.\n\n" +
	"Only return the translated text without any explanations or additional words.\n\n" +
	"Sentence: %s"

// TranslationService turns a transcript into a target-language sentence
// using a large language model
type TranslationService struct {
	llm    repositories.LargeLanguageModel
	logger *zap.Logger
}

// NewTranslationService creates a new translation service
func NewTranslationService(llm repositories.LargeLanguageModel, logger *zap.Logger) *TranslationService {
	return &TranslationService{llm: llm, logger: logger}
}

// Translate asks the model for a bare translation and cleans its reply.
// Every failure wraps entities.ErrTranslationFailed.
func (s *TranslationService) Translate(ctx context.Context, text string, source, target entities.Language) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: empty text", entities.ErrTranslationFailed)
	}

	prompt := BuildTranslationPrompt(text, source, target)

	raw, err := s.llm.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("%w: %w", entities.ErrTranslationFailed, err)
	}

	translated := CleanTranslation(raw)
	if translated == "" {
		return "", fmt.Errorf("%w: model returned no text", entities.ErrTranslationFailed)
	}

	s.logger.Debug("Translation cleaned",
		zap.String("source", source.Code),
		zap.String("target", target.Code),
		zap.String("raw", raw),
		zap.String("translation", translated))

	return translated, nil
}

// BuildTranslationPrompt renders the instruction sent to the model
func BuildTranslationPrompt(text string, source, target entities.Language) string {
	return fmt.Sprintf(translationPrompt, source.Name, target.Name, text)
}

// CleanTranslation strips a leading label from a model reply: everything up to
// and including the first colon is dropped and the rest is trimmed.
// A translation that legitimately contains a colon is truncated as well.
func CleanTranslation(raw string) string {
	text := strings.TrimSpace(raw)
	if _, after, found := strings.Cut(text, ":"); found {
		return strings.TrimSpace(after)
	}
	return text
}
