package llm

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/satriahrh/jurubahasa/domain/repositories"
)

// MockLLM is a placeholder model for local development.
// It echoes the sentence back behind a label, the way chat models often do.
type MockLLM struct {
	logger *zap.Logger
}

// NewMockLLM creates a new mock model
func NewMockLLM(logger *zap.Logger) repositories.LargeLanguageModel {
	return &MockLLM{logger: logger}
}

// Generate implements repositories.LargeLanguageModel
func (m *MockLLM) Generate(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	sentence := prompt
	if i := strings.LastIndex(prompt, "Sentence:"); i >= 0 {
		sentence = strings.TrimSpace(prompt[i+len("Sentence:"):])
	}

	m.logger.Info("Mock translation", zap.String("sentence", sentence))
	return "Translation: " + sentence, nil
}
