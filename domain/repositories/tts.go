package repositories

import "context"

// TextToSpeech abstracts speech synthesis services
type TextToSpeech interface {
	// SynthesizeAudio converts text to encoded audio
	SynthesizeAudio(ctx context.Context, text string, config VoiceConfig) (SynthesisResult, error)
}

// VoiceConfig represents voice configuration for TTS
type VoiceConfig struct {
	Language string `json:"language"`
	Locale   string `json:"locale"`
	Voice    string `json:"voice,omitempty"`
}

// SynthesisResult is the encoded audio returned by a TTS provider
type SynthesisResult struct {
	Audio    []byte
	MimeType string
	Format   string
}
