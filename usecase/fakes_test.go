package usecase

import (
	"context"
	"sync"

	"github.com/satriahrh/jurubahasa/domain/entities"
	"github.com/satriahrh/jurubahasa/domain/repositories"
)

type fakeSTT struct {
	mu      sync.Mutex
	text    string
	err     error
	calls   int
	configs []repositories.AudioConfig

	// when set, TranscribeAudio signals started and waits for ctx
	block   bool
	started chan struct{}
}

func (f *fakeSTT) TranscribeAudio(ctx context.Context, audioData []byte, config repositories.AudioConfig) (string, error) {
	f.mu.Lock()
	f.calls++
	f.configs = append(f.configs, config)
	block := f.block
	f.mu.Unlock()

	if block {
		close(f.started)
		<-ctx.Done()
		return "", ctx.Err()
	}
	return f.text, f.err
}

func (f *fakeSTT) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeLLM struct {
	mu      sync.Mutex
	reply   string
	err     error
	prompts []string

	// when set, Generate waits for ctx like a model that never answers
	block bool
}

func (f *fakeLLM) Generate(ctx context.Context, prompt string) (string, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	block := f.block
	f.mu.Unlock()

	if block {
		<-ctx.Done()
		return "", ctx.Err()
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reply, f.err
}

func (f *fakeLLM) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

type fakeTTS struct {
	mu      sync.Mutex
	audio   []byte
	err     error
	texts   []string
	configs []repositories.VoiceConfig
}

func (f *fakeTTS) SynthesizeAudio(ctx context.Context, text string, config repositories.VoiceConfig) (repositories.SynthesisResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts = append(f.texts, text)
	f.configs = append(f.configs, config)
	if f.err != nil {
		return repositories.SynthesisResult{}, f.err
	}
	return repositories.SynthesisResult{Audio: f.audio, MimeType: "audio/mpeg", Format: "mp3"}, nil
}

func (f *fakeTTS) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.texts)
}

type fakePublisher struct {
	mu     sync.Mutex
	events []repositories.ResultEvent
}

func (f *fakePublisher) PublishResult(ctx context.Context, event repositories.ResultEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return nil
}

func (f *fakePublisher) Close() error { return nil }

func (f *fakePublisher) Events() []repositories.ResultEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]repositories.ResultEvent(nil), f.events...)
}

type fakeSource struct {
	data    []byte
	err     error
	block   bool
	started chan struct{}
}

func (f *fakeSource) BeginCapture(ctx context.Context) (*entities.AudioCapture, error) {
	if f.block {
		if f.started != nil {
			close(f.started)
		}
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.err != nil {
		return nil, f.err
	}
	return entities.NewAudioCapture(f.data, "LINEAR16", 16000), nil
}

// gatedCall is one SynthesizeAudio call held until release is closed
type gatedCall struct {
	ctx     context.Context
	release chan struct{}
}

// gatedTTS holds every call so a test can interleave runs
type gatedTTS struct {
	calls chan gatedCall
}

func (g *gatedTTS) SynthesizeAudio(ctx context.Context, text string, config repositories.VoiceConfig) (repositories.SynthesisResult, error) {
	call := gatedCall{ctx: ctx, release: make(chan struct{})}
	g.calls <- call
	<-call.release
	if err := ctx.Err(); err != nil {
		return repositories.SynthesisResult{}, err
	}
	return repositories.SynthesisResult{Audio: []byte{0xff, 0xfb}, MimeType: "audio/mpeg", Format: "mp3"}, nil
}
