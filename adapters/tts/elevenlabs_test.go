package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/satriahrh/jurubahasa/adapters/capture"
	"github.com/satriahrh/jurubahasa/domain/entities"
	"github.com/satriahrh/jurubahasa/domain/repositories"
)

func TestNewElevenLabsTTS(t *testing.T) {
	logger := zaptest.NewLogger(t)

	t.Setenv("ELEVEN_LABS_API_KEY", "")
	_, err := NewElevenLabsTTS(NewElevenLabsConfigFromEnv(), logger)
	assert.Error(t, err, "API key is required")

	t.Setenv("ELEVEN_LABS_API_KEY", "test-api-key")
	tts, err := NewElevenLabsTTS(NewElevenLabsConfigFromEnv(), logger)
	require.NoError(t, err)

	assert.Equal(t, "test-api-key", tts.apiKey)
	assert.Equal(t, defaultVoiceID, tts.voiceID)
	assert.Equal(t, defaultOutputFormat, tts.outputFormat)
}

func TestValidateElevenLabsConfig(t *testing.T) {
	tests := []struct {
		name    string
		config  ElevenLabsConfig
		wantErr bool
	}{
		{"valid", ElevenLabsConfig{APIKey: "k"}, false},
		{"pcm", ElevenLabsConfig{APIKey: "k", OutputFormat: "pcm_24000"}, false},
		{"missing key", ElevenLabsConfig{}, true},
		{"bad stability", ElevenLabsConfig{APIKey: "k", Stability: 2}, true},
		{"bad clarity", ElevenLabsConfig{APIKey: "k", Clarity: -1}, true},
		{"bad format", ElevenLabsConfig{APIKey: "k", OutputFormat: "ulaw_8000"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateElevenLabsConfig(tt.config)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func newTestElevenLabs(t *testing.T, handler http.HandlerFunc, config ElevenLabsConfig) *ElevenLabsTTS {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	config.APIKey = "test-api-key"
	config.APIBaseURL = server.URL
	tts, err := NewElevenLabsTTS(config, zaptest.NewLogger(t))
	require.NoError(t, err)
	return tts
}

func TestElevenLabsTTS_SynthesizeAudio(t *testing.T) {
	mp3 := []byte{0xff, 0xfb, 0x90, 0x64, 0x00}
	var got ElevenLabsRequest
	var gotPath, gotQuery, gotKey string

	tts := newTestElevenLabs(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query().Get("output_format")
		gotKey = r.Header.Get("xi-api-key")
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write(mp3)
	}, ElevenLabsConfig{})

	result, err := tts.SynthesizeAudio(context.Background(), "¿Cómo estás?", repositories.VoiceConfig{Language: "es", Locale: "es-ES"})
	require.NoError(t, err)

	assert.Equal(t, mp3, result.Audio)
	assert.Equal(t, "mp3", result.Format)
	assert.Equal(t, "audio/mpeg", result.MimeType)
	assert.Equal(t, "/text-to-speech/"+defaultVoiceID, gotPath)
	assert.Equal(t, defaultOutputFormat, gotQuery)
	assert.Equal(t, "test-api-key", gotKey)
	assert.Equal(t, "¿Cómo estás?", got.Text)
	assert.Equal(t, defaultModelID, got.ModelID)
	assert.Empty(t, got.LanguageCode, "%s does not accept a language code", defaultModelID)
}

func TestElevenLabsTTS_LanguageCode(t *testing.T) {
	tests := []struct {
		model string
		want  string
	}{
		{"eleven_multilingual_v2", ""},
		{"eleven_monolingual_v1", ""},
		{"eleven_turbo_v2_5", "zh"},
		{"eleven_flash_v2_5", "zh"},
	}

	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			var raw map[string]any
			tts := newTestElevenLabs(t, func(w http.ResponseWriter, r *http.Request) {
				_ = json.NewDecoder(r.Body).Decode(&raw)
				_, _ = w.Write([]byte{0xff, 0xfb})
			}, ElevenLabsConfig{ModelID: tt.model})

			_, err := tts.SynthesizeAudio(context.Background(), "你好", repositories.VoiceConfig{Language: "zh-CN"})
			require.NoError(t, err)

			got, present := raw["language_code"]
			if tt.want == "" {
				assert.False(t, present, "language_code must be omitted, got %v", got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestElevenLabsTTS_SynthesizeAudio_PCM(t *testing.T) {
	tts := newTestElevenLabs(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "audio/pcm", r.Header.Get("Accept"))
		_, _ = w.Write([]byte{1, 0, 2, 0})
	}, ElevenLabsConfig{OutputFormat: "pcm_24000"})

	result, err := tts.SynthesizeAudio(context.Background(), "Hallo", repositories.VoiceConfig{Language: "de"})
	require.NoError(t, err)

	_, format, err := capture.DecodeWAV(result.Audio)
	require.NoError(t, err, "expected WAV output")
	assert.Equal(t, 24000, format.SampleRate)
	assert.Equal(t, "wav", result.Format)
}

func TestElevenLabsTTS_SynthesizeAudio_Errors(t *testing.T) {
	tts := newTestElevenLabs(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"detail":"invalid api key"}`))
	}, ElevenLabsConfig{})

	_, err := tts.SynthesizeAudio(context.Background(), "Hola", repositories.VoiceConfig{Language: "es"})
	assert.ErrorIs(t, err, entities.ErrSynthesisFailed)

	_, err = tts.SynthesizeAudio(context.Background(), "   ", repositories.VoiceConfig{Language: "es"})
	assert.ErrorIs(t, err, entities.ErrSynthesisFailed, "whitespace-only text")

	empty := newTestElevenLabs(t, func(w http.ResponseWriter, r *http.Request) {}, ElevenLabsConfig{})
	_, err = empty.SynthesizeAudio(context.Background(), "Hola", repositories.VoiceConfig{Language: "es"})
	assert.ErrorIs(t, err, entities.ErrSynthesisFailed, "empty body")
}

func TestElevenLabsLanguage(t *testing.T) {
	tests := map[string]string{"en": "en", "zh-CN": "zh", "pt": "pt"}
	for in, want := range tests {
		assert.Equal(t, want, elevenLabsLanguage(in), in)
	}
}

type fakeSpeechCreator struct {
	req  openai.CreateSpeechRequest
	body []byte
	err  error
}

func (f *fakeSpeechCreator) CreateSpeech(ctx context.Context, request openai.CreateSpeechRequest) (openai.RawResponse, error) {
	f.req = request
	if f.err != nil {
		return openai.RawResponse{}, f.err
	}
	return openai.RawResponse{ReadCloser: io.NopCloser(bytes.NewReader(f.body))}, nil
}

func TestOpenAITTS(t *testing.T) {
	fake := &fakeSpeechCreator{body: []byte{0xff, 0xfb}}
	tts := &OpenAITTS{client: fake, model: openai.TTSModel1, voice: openai.VoiceAlloy, logger: zaptest.NewLogger(t)}

	result, err := tts.SynthesizeAudio(context.Background(), "Bonjour", repositories.VoiceConfig{Language: "fr"})
	require.NoError(t, err)
	assert.Equal(t, "mp3", result.Format)
	assert.Len(t, result.Audio, 2)
	assert.Equal(t, openai.VoiceAlloy, fake.req.Voice)
	assert.Equal(t, openai.SpeechResponseFormatMp3, fake.req.ResponseFormat)

	tts.client = &fakeSpeechCreator{err: errors.New("quota exceeded")}
	_, err = tts.SynthesizeAudio(context.Background(), "Bonjour", repositories.VoiceConfig{})
	assert.ErrorIs(t, err, entities.ErrSynthesisFailed)

	tts.client = &fakeSpeechCreator{}
	_, err = tts.SynthesizeAudio(context.Background(), "Bonjour", repositories.VoiceConfig{})
	assert.ErrorIs(t, err, entities.ErrSynthesisFailed, "empty audio")
}

func TestMockTTS(t *testing.T) {
	m := NewMockTTS(zaptest.NewLogger(t))

	result, err := m.SynthesizeAudio(context.Background(), "Hola", repositories.VoiceConfig{Language: "es"})
	require.NoError(t, err)
	assert.True(t, capture.IsWAV(result.Audio))
}

// Integration test - only runs if ELEVEN_LABS_API_KEY is set with real API key
func TestElevenLabsTTS_SynthesizeAudio_Integration(t *testing.T) {
	apiKey := os.Getenv("ELEVEN_LABS_API_KEY")
	if apiKey == "" || apiKey == "test-api-key" {
		t.Skip("Skipping integration test - set ELEVEN_LABS_API_KEY environment variable with real API key")
	}

	tts, err := NewElevenLabsTTS(NewElevenLabsConfigFromEnv(), zap.NewNop())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	result, err := tts.SynthesizeAudio(ctx, "¿Cómo estás?", repositories.VoiceConfig{Language: "es"})
	require.NoError(t, err)
	assert.NotEmpty(t, result.Audio)

	t.Logf("Integration test completed: received %d bytes", len(result.Audio))
}
