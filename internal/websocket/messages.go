package websocket

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/satriahrh/jurubahasa/domain"
)

// Error codes sent in error frames
const (
	ErrorCodeInvalidMessage = "invalid_message"
	ErrorCodeInvalidState   = "invalid_state"
	ErrorCodeUnsupported    = "unsupported_language"
	ErrorCodeCaptureFailed  = "capture_failed"
	ErrorCodeCaptureTooBig  = "capture_too_large"
)

var validEncodings = map[string]bool{
	"":          true,
	"LINEAR16":  true,
	"PCM":       true,
	"FLAC":      true,
	"MULAW":     true,
	"OGG_OPUS":  true,
	"WEBM_OPUS": true,
}

// MessageValidator parses and validates client text frames
type MessageValidator struct{}

// NewMessageValidator creates a new message validator
func NewMessageValidator() *MessageValidator {
	return &MessageValidator{}
}

// ValidateMessage parses a client frame and checks its fields
func (v *MessageValidator) ValidateMessage(messageBytes []byte) (*domain.ClientMessage, error) {
	var msg domain.ClientMessage
	if err := json.Unmarshal(messageBytes, &msg); err != nil {
		return nil, fmt.Errorf("invalid JSON format: %w", err)
	}

	switch msg.Type {
	case domain.MessageCaptureStart:
		if err := v.validateCaptureStart(&msg); err != nil {
			return nil, err
		}
	case domain.MessageSelectLanguages:
		if msg.Source == "" || msg.Target == "" {
			return nil, fmt.Errorf("source and target are required")
		}
	case domain.MessageCaptureEnd, domain.MessageCaptureCancel:
	case "":
		return nil, fmt.Errorf("message type is required")
	default:
		return nil, fmt.Errorf("unsupported message type: %s", msg.Type)
	}

	return &msg, nil
}

func (v *MessageValidator) validateCaptureStart(msg *domain.ClientMessage) error {
	if msg.SampleRate != 0 && (msg.SampleRate < 8000 || msg.SampleRate > 48000) {
		return fmt.Errorf("sample_rate must be between 8000 and 48000")
	}
	msg.Encoding = strings.ToUpper(msg.Encoding)
	if !validEncodings[msg.Encoding] {
		return fmt.Errorf("encoding must be one of: LINEAR16, PCM, FLAC, MULAW, OGG_OPUS, WEBM_OPUS")
	}
	return nil
}

// CreateErrorMessage creates a standardized error frame
func CreateErrorMessage(code, message string) domain.ErrorMessage {
	return domain.ErrorMessage{
		Type:    domain.MessageError,
		Code:    code,
		Message: message,
	}
}
