// Package config loads service configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Provider names
const (
	ProviderGoogle     = "google"
	ProviderDeepgram   = "deepgram"
	ProviderOpenAI     = "openai"
	ProviderGemini     = "gemini"
	ProviderElevenLabs = "elevenlabs"
	ProviderMock       = "mock"
)

// Config holds the service wide settings. Provider credentials are read by
// the adapters themselves.
type Config struct {
	Port        string
	Environment string

	STTProvider string
	LLMProvider string
	TTSProvider string

	CaptureTimeout     time.Duration
	ProcessingTimeout  time.Duration
	SessionIdleTimeout time.Duration

	JWTSecret    string
	TokenTTL     time.Duration
	KafkaBrokers []string
	KafkaTopic   string

	DefaultSourceLanguage string
	DefaultTargetLanguage string
}

// Load reads an optional .env file (or the given files) and then the process
// environment. Missing files are ignored.
func Load(files ...string) (*Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load env file: %w", err)
	}

	cfg := &Config{
		Port:                  envOrDefault("PORT", "8080"),
		Environment:           envOrDefault("APP_ENV", "production"),
		STTProvider:           strings.ToLower(envOrDefault("STT_PROVIDER", ProviderGoogle)),
		LLMProvider:           strings.ToLower(envOrDefault("LLM_PROVIDER", ProviderGemini)),
		TTSProvider:           strings.ToLower(envOrDefault("TTS_PROVIDER", ProviderElevenLabs)),
		JWTSecret:             os.Getenv("JWT_SECRET"),
		KafkaBrokers:          splitList(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:            envOrDefault("KAFKA_TOPIC", "jurubahasa.results"),
		DefaultSourceLanguage: envOrDefault("DEFAULT_SOURCE_LANGUAGE", "en"),
		DefaultTargetLanguage: envOrDefault("DEFAULT_TARGET_LANGUAGE", "es"),
	}

	var err error
	if cfg.CaptureTimeout, err = durationOrDefault("CAPTURE_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.ProcessingTimeout, err = durationOrDefault("PROCESSING_TIMEOUT", 60*time.Second); err != nil {
		return nil, err
	}
	if cfg.SessionIdleTimeout, err = durationOrDefault("SESSION_IDLE_TIMEOUT", 30*time.Minute); err != nil {
		return nil, err
	}
	if cfg.TokenTTL, err = durationOrDefault("TOKEN_TTL", 24*time.Hour); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks provider names and limits
func (c *Config) Validate() error {
	if _, err := strconv.Atoi(c.Port); err != nil {
		return fmt.Errorf("PORT must be numeric, got %q", c.Port)
	}
	if !oneOf(c.STTProvider, ProviderGoogle, ProviderDeepgram, ProviderOpenAI, ProviderMock) {
		return fmt.Errorf("unknown STT_PROVIDER %q", c.STTProvider)
	}
	if !oneOf(c.LLMProvider, ProviderGemini, ProviderOpenAI, ProviderMock) {
		return fmt.Errorf("unknown LLM_PROVIDER %q", c.LLMProvider)
	}
	if !oneOf(c.TTSProvider, ProviderElevenLabs, ProviderOpenAI, ProviderMock) {
		return fmt.Errorf("unknown TTS_PROVIDER %q", c.TTSProvider)
	}
	if c.CaptureTimeout <= 0 || c.ProcessingTimeout <= 0 || c.SessionIdleTimeout <= 0 || c.TokenTTL <= 0 {
		return errors.New("timeouts must be positive")
	}
	return nil
}

// IsDevelopment reports whether APP_ENV is development
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func envOrDefault(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func durationOrDefault(key string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func oneOf(v string, options ...string) bool {
	for _, o := range options {
		if v == o {
			return true
		}
	}
	return false
}
