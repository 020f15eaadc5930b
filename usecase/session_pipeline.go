package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/satriahrh/jurubahasa/domain/entities"
	"github.com/satriahrh/jurubahasa/domain/repositories"
	"github.com/satriahrh/jurubahasa/internal/metrics"
)

const publishTimeout = 5 * time.Second

// PipelineConfig bounds the blocking parts of a session
type PipelineConfig struct {
	CaptureTimeout    time.Duration
	ProcessingTimeout time.Duration
}

// SessionPipeline drives one session through capture, transcription,
// translation and synthesis. It exclusively owns its entities.Session.
type SessionPipeline struct {
	mu      sync.Mutex
	session *entities.Session

	catalog    *entities.Catalog
	stt        repositories.SpeechToText
	translator *TranslationService
	tts        repositories.TextToSpeech
	publisher  repositories.ResultPublisher
	metrics    *metrics.Metrics
	config     PipelineConfig
	logger     *zap.Logger

	cancelCapture    context.CancelFunc
	cancelProcessing context.CancelFunc
}

// ID returns the session identifier
func (p *SessionPipeline) ID() string {
	return p.session.ID
}

// Snapshot returns a copy of the current session state
func (p *SessionPipeline) Snapshot() entities.Session {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.session.Clone()
}

// IdleFor reports how long the session has been inactive
func (p *SessionPipeline) IdleFor(now time.Time) time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.session.IdleFor(now)
}

// SelectLanguages validates and applies a new language pair
func (p *SessionPipeline) SelectLanguages(source, target string) (entities.Session, error) {
	src, tgt, err := p.catalog.ValidatePair(source, target)
	if err != nil {
		return p.Snapshot(), err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.session.SelectLanguages(src, tgt); err != nil {
		return p.session.Clone(), err
	}

	p.logger.Info("Languages selected",
		zap.String("source", src.Code),
		zap.String("target", tgt.Code))

	return p.session.Clone(), nil
}

// StartCapture clears the previous result and enters the recording phase.
// Processing still running for an older capture is cancelled.
func (p *SessionPipeline) StartCapture() (uint64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	generation, err := p.session.StartCapture()
	if err != nil {
		return 0, err
	}

	if p.cancelProcessing != nil {
		p.cancelProcessing()
		p.cancelProcessing = nil
	}

	p.logger.Info("Capture started", zap.Uint64("generation", generation))
	return generation, nil
}

// Record starts a capture and blocks until source reports the end of the
// utterance, the capture timeout elapses, or CancelCapture is called.
func (p *SessionPipeline) Record(ctx context.Context, source repositories.CaptureSource) (entities.Session, error) {
	generation, err := p.StartCapture()
	if err != nil {
		return p.Snapshot(), err
	}

	var captureCtx context.Context
	var cancel context.CancelFunc
	if p.config.CaptureTimeout > 0 {
		captureCtx, cancel = context.WithTimeout(ctx, p.config.CaptureTimeout)
	} else {
		captureCtx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	p.mu.Lock()
	if p.session.Generation != generation {
		p.mu.Unlock()
		p.metrics.RecordStale()
		return p.Snapshot(), entities.ErrStaleResult
	}
	p.cancelCapture = cancel
	p.mu.Unlock()

	start := time.Now()
	capture, err := source.BeginCapture(captureCtx)
	if err != nil {
		if errors.Is(captureCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			err = fmt.Errorf("%w after %s: %w", entities.ErrCaptureTimeout, p.config.CaptureTimeout, err)
		}
		p.metrics.RecordCapture("failed", 0, time.Since(start))
		return p.FailCapture(generation, err)
	}

	if capture.Duration == 0 {
		capture.Duration = time.Since(start)
	}
	return p.FinishCapture(generation, capture)
}

// FinishCapture stores a finished recording for the given generation
func (p *SessionPipeline) FinishCapture(generation uint64, capture *entities.AudioCapture) (entities.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.finishCaptureLocked(generation, capture)
}

// SubmitCapture stores a recording for the capture currently in progress
func (p *SessionPipeline) SubmitCapture(capture *entities.AudioCapture) (entities.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.finishCaptureLocked(p.session.Generation, capture)
}

func (p *SessionPipeline) finishCaptureLocked(generation uint64, capture *entities.AudioCapture) (entities.Session, error) {
	p.releaseCaptureLocked(generation)

	if err := p.session.FinishCapture(generation, capture); err != nil {
		if errors.Is(err, entities.ErrStaleResult) {
			p.metrics.RecordStale()
		}
		return p.session.Clone(), err
	}

	p.metrics.RecordCapture("ok", len(capture.Data), capture.Duration)
	p.logger.Info("Capture finished",
		zap.Uint64("generation", generation),
		zap.String("captureID", capture.ID),
		zap.Int("audioSize", len(capture.Data)),
		zap.Duration("duration", capture.Duration))

	return p.session.Clone(), nil
}

// FailCapture records that the capture source could not deliver audio
func (p *SessionPipeline) FailCapture(generation uint64, cause error) (entities.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.releaseCaptureLocked(generation)
	failure := entities.NewStageError(entities.StageCapture, cause)

	if err := p.session.Fail(generation, failure); err != nil {
		if errors.Is(err, entities.ErrStaleResult) {
			p.metrics.RecordStale()
		}
		return p.session.Clone(), err
	}

	p.metrics.RecordFailure(failure)
	p.logger.Warn("Capture failed", zap.Uint64("generation", generation), zap.Error(cause))

	return p.session.Clone(), nil
}

func (p *SessionPipeline) releaseCaptureLocked(generation uint64) {
	if generation == p.session.Generation {
		p.cancelCapture = nil
	}
}

// CancelCapture abandons the recording in progress
func (p *SessionPipeline) CancelCapture() (entities.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.session.CancelCapture(); err != nil {
		return p.session.Clone(), err
	}
	if p.cancelCapture != nil {
		p.cancelCapture()
		p.cancelCapture = nil
	}

	p.metrics.RecordCapture("cancelled", 0, 0)
	p.logger.Info("Capture cancelled")

	return p.session.Clone(), nil
}

// Process runs transcription, translation and synthesis over the captured
// audio, strictly one after another. Stage failures are recorded on the
// session and do not produce an error; ErrStaleResult is returned when a newer
// capture superseded this run.
func (p *SessionPipeline) Process(ctx context.Context) (entities.Session, error) {
	p.mu.Lock()
	generation, err := p.session.BeginProcessing()
	if err != nil {
		defer p.mu.Unlock()
		return p.session.Clone(), err
	}
	capture := p.session.Capture
	source := p.session.SourceLanguage
	target := p.session.TargetLanguage

	var processCtx context.Context
	var cancel context.CancelFunc
	if p.config.ProcessingTimeout > 0 {
		processCtx, cancel = context.WithTimeout(ctx, p.config.ProcessingTimeout)
	} else {
		processCtx, cancel = context.WithCancel(ctx)
	}
	p.cancelProcessing = cancel
	p.mu.Unlock()
	defer cancel()

	logger := p.logger.With(zap.Uint64("generation", generation), zap.String("captureID", capture.ID))
	logger.Info("Processing started",
		zap.String("source", source.Code),
		zap.String("target", target.Code))

	// Step 1: Speech to Text
	start := time.Now()
	transcript, err := p.transcribe(processCtx, capture, source)
	p.metrics.ObserveStage(entities.StageTranscription, time.Since(start))
	if err != nil {
		return p.fail(ctx, generation, entities.StageTranscription, err)
	}
	if err := p.apply(generation, func(s *entities.Session) error { return s.ApplyTranscript(generation, transcript) }); err != nil {
		return p.Snapshot(), err
	}
	logger.Info("Transcription completed", zap.String("text", transcript))

	// Step 2: Translation
	start = time.Now()
	translation, err := p.translator.Translate(processCtx, transcript, source, target)
	p.metrics.ObserveStage(entities.StageTranslation, time.Since(start))
	if err != nil {
		return p.fail(ctx, generation, entities.StageTranslation, err)
	}
	if err := p.apply(generation, func(s *entities.Session) error { return s.ApplyTranslation(generation, translation) }); err != nil {
		return p.Snapshot(), err
	}
	logger.Info("Translation completed", zap.String("text", translation))

	// Step 3: Text to Speech
	start = time.Now()
	audio, err := p.synthesize(processCtx, translation, target)
	p.metrics.ObserveStage(entities.StageSynthesis, time.Since(start))
	if err != nil {
		return p.fail(ctx, generation, entities.StageSynthesis, err)
	}
	snapshot, err := p.settle(generation, func(s *entities.Session) error { return s.Complete(generation, audio) })
	if err != nil {
		return snapshot, err
	}
	p.metrics.RecordSynthesized(len(audio.Data))
	logger.Info("Synthesis completed", zap.Int("audioSize", len(audio.Data)))

	return p.finish(ctx, snapshot), nil
}

// Close cancels any capture or processing still running
func (p *SessionPipeline) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cancelCapture != nil {
		p.cancelCapture()
		p.cancelCapture = nil
	}
	if p.cancelProcessing != nil {
		p.cancelProcessing()
		p.cancelProcessing = nil
	}
}

func (p *SessionPipeline) transcribe(ctx context.Context, capture *entities.AudioCapture, source entities.Language) (string, error) {
	transcript, err := p.stt.TranscribeAudio(ctx, capture.Data, repositories.AudioConfig{
		SampleRate: capture.SampleRate,
		Encoding:   capture.Encoding,
		Language:   source.Locale,
	})
	if err != nil {
		return "", err
	}

	transcript = strings.TrimSpace(transcript)
	if transcript == "" {
		return "", entities.ErrUnintelligible
	}
	return transcript, nil
}

func (p *SessionPipeline) synthesize(ctx context.Context, text string, target entities.Language) (*entities.SynthesizedAudio, error) {
	result, err := p.tts.SynthesizeAudio(ctx, text, repositories.VoiceConfig{
		Language: target.Code,
		Locale:   target.Locale,
	})
	if err != nil {
		return nil, err
	}
	if len(result.Audio) == 0 {
		return nil, fmt.Errorf("%w: provider returned no audio", entities.ErrSynthesisFailed)
	}
	return entities.NewSynthesizedAudio(result.Audio, result.MimeType, result.Format), nil
}

// apply mutates the session unless a newer capture took over
func (p *SessionPipeline) apply(generation uint64, fn func(s *entities.Session) error) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := fn(p.session); err != nil {
		if errors.Is(err, entities.ErrStaleResult) {
			p.metrics.RecordStale()
			p.logger.Info("Dropping stale result",
				zap.Uint64("generation", generation),
				zap.Uint64("current", p.session.Generation))
		}
		return err
	}
	return nil
}

// settle applies the final transition of a run. The snapshot is taken and
// the run's cancel func released under the same lock, so a newer run that
// starts right after is left untouched.
func (p *SessionPipeline) settle(generation uint64, fn func(s *entities.Session) error) (entities.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := fn(p.session); err != nil {
		if errors.Is(err, entities.ErrStaleResult) {
			p.metrics.RecordStale()
			p.logger.Info("Dropping stale result",
				zap.Uint64("generation", generation),
				zap.Uint64("current", p.session.Generation))
		}
		return p.session.Clone(), err
	}

	if p.session.Generation == generation {
		p.cancelProcessing = nil
	}
	return p.session.Clone(), nil
}

func (p *SessionPipeline) fail(ctx context.Context, generation uint64, stage entities.Stage, cause error) (entities.Session, error) {
	failure := entities.NewStageError(stage, cause)

	snapshot, err := p.settle(generation, func(s *entities.Session) error { return s.Fail(generation, failure) })
	if err != nil {
		return snapshot, err
	}

	p.metrics.RecordFailure(failure)
	p.logger.Warn("Pipeline stage failed",
		zap.Uint64("generation", generation),
		zap.String("stage", string(failure.Stage)),
		zap.String("kind", string(failure.Kind)),
		zap.Error(cause))

	return p.finish(ctx, snapshot), nil
}

func (p *SessionPipeline) finish(ctx context.Context, snapshot entities.Session) entities.Session {
	p.metrics.RecordRun(snapshot.Phase)
	p.publish(ctx, snapshot)
	return snapshot
}

func (p *SessionPipeline) publish(ctx context.Context, snapshot entities.Session) {
	if p.publisher == nil {
		return
	}

	event := repositories.ResultEvent{
		SessionID:      snapshot.ID,
		SourceLanguage: snapshot.SourceLanguage.Code,
		TargetLanguage: snapshot.TargetLanguage.Code,
		Phase:          snapshot.Phase,
		Transcript:     snapshot.Transcript,
		Translation:    snapshot.Translation,
		Failure:        snapshot.Failure,
		Timestamp:      time.Now().UTC(),
	}
	if snapshot.Capture != nil {
		event.CaptureID = snapshot.Capture.ID
	}
	if snapshot.SynthesizedAudio != nil {
		event.AudioID = snapshot.SynthesizedAudio.ID
		event.AudioBytes = len(snapshot.SynthesizedAudio.Data)
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := p.publisher.PublishResult(ctx, event); err != nil {
		p.logger.Error("Failed to publish result", zap.Error(err))
	}
}
