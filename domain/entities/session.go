package entities

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Phase represents where a session is in the translation flow
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseRecording  Phase = "recording"
	PhaseCaptured   Phase = "captured"
	PhaseProcessing Phase = "processing"
	PhaseCompleted  Phase = "completed"
	PhaseFailed     Phase = "failed"
)

// AudioCapture is one finished recording
type AudioCapture struct {
	ID         string        `json:"id"`
	Data       []byte        `json:"-"`
	Encoding   string        `json:"encoding"`
	SampleRate int           `json:"sample_rate"`
	Duration   time.Duration `json:"duration"`
	CapturedAt time.Time     `json:"captured_at"`
}

// NewAudioCapture wraps recorded bytes
func NewAudioCapture(data []byte, encoding string, sampleRate int) *AudioCapture {
	return &AudioCapture{
		ID:         uuid.New().String(),
		Data:       data,
		Encoding:   encoding,
		SampleRate: sampleRate,
		CapturedAt: time.Now(),
	}
}

// SynthesizedAudio is the encoded speech of a translation
type SynthesizedAudio struct {
	ID       string `json:"id"`
	Data     []byte `json:"-"`
	MimeType string `json:"mime_type"`
	Format   string `json:"format"`
}

// NewSynthesizedAudio wraps synthesized bytes under a fresh identifier
func NewSynthesizedAudio(data []byte, mimeType, format string) *SynthesizedAudio {
	return &SynthesizedAudio{
		ID:       uuid.New().String(),
		Data:     data,
		MimeType: mimeType,
		Format:   format,
	}
}

// FileName is the unique download name of the audio
func (a *SynthesizedAudio) FileName() string {
	format := a.Format
	if format == "" {
		format = "mp3"
	}
	return fmt.Sprintf("translation_%s.%s", strings.ReplaceAll(a.ID, "-", ""), format)
}

// Session is the state of one interactive translation session.
// It is owned by a single pipeline and only changes through the methods below.
type Session struct {
	ID               string            `json:"id"`
	SourceLanguage   Language          `json:"source_language"`
	TargetLanguage   Language          `json:"target_language"`
	Phase            Phase             `json:"phase"`
	Capture          *AudioCapture     `json:"capture,omitempty"`
	Transcript       string            `json:"transcript,omitempty"`
	Translation      string            `json:"translation,omitempty"`
	SynthesizedAudio *SynthesizedAudio `json:"synthesized_audio,omitempty"`
	Failure          *StageError       `json:"failure,omitempty"`
	Generation       uint64            `json:"generation"`
	CreatedAt        time.Time         `json:"created_at"`
	LastActiveAt     time.Time         `json:"last_active_at"`
}

// NewSession creates an idle session for a language pair
func NewSession(source, target Language) *Session {
	now := time.Now()
	return &Session{
		ID:             uuid.New().String(),
		SourceLanguage: source,
		TargetLanguage: target,
		Phase:          PhaseIdle,
		CreatedAt:      now,
		LastActiveAt:   now,
	}
}

// SelectLanguages changes the language pair. Not allowed while recording or processing.
func (s *Session) SelectLanguages(source, target Language) error {
	if s.Phase == PhaseRecording || s.Phase == PhaseProcessing {
		return s.invalid("select languages")
	}
	s.SourceLanguage = source
	s.TargetLanguage = target
	s.touch()
	return nil
}

// StartCapture begins a new recording and clears everything derived from the
// previous one. It returns the generation the new capture belongs to.
func (s *Session) StartCapture() (uint64, error) {
	if s.Phase == PhaseRecording {
		return 0, s.invalid("start capture")
	}
	s.Generation++
	s.Phase = PhaseRecording
	s.clear()
	s.touch()
	return s.Generation, nil
}

// CancelCapture abandons the current recording
func (s *Session) CancelCapture() error {
	if s.Phase != PhaseRecording {
		return s.invalid("cancel capture")
	}
	s.Generation++
	s.Phase = PhaseIdle
	s.touch()
	return nil
}

// FinishCapture stores the finished recording
func (s *Session) FinishCapture(generation uint64, capture *AudioCapture) error {
	if err := s.expect(generation, PhaseRecording, "finish capture"); err != nil {
		return err
	}
	if capture == nil || len(capture.Data) == 0 {
		return fmt.Errorf("%w: empty capture", ErrInvalidTransition)
	}
	s.Capture = capture
	s.Phase = PhaseCaptured
	s.touch()
	return nil
}

// BeginProcessing moves a captured session into processing
func (s *Session) BeginProcessing() (uint64, error) {
	if s.Phase != PhaseCaptured {
		return 0, s.invalid("begin processing")
	}
	s.Phase = PhaseProcessing
	s.touch()
	return s.Generation, nil
}

// ApplyTranscript records the transcription result
func (s *Session) ApplyTranscript(generation uint64, transcript string) error {
	if err := s.expect(generation, PhaseProcessing, "apply transcript"); err != nil {
		return err
	}
	s.Transcript = transcript
	s.touch()
	return nil
}

// ApplyTranslation records the translation result. Requires a transcript.
func (s *Session) ApplyTranslation(generation uint64, translation string) error {
	if err := s.expect(generation, PhaseProcessing, "apply translation"); err != nil {
		return err
	}
	if s.Transcript == "" {
		return fmt.Errorf("%w: translation before transcript", ErrInvalidTransition)
	}
	s.Translation = translation
	s.touch()
	return nil
}

// Complete records the synthesized audio and finishes processing. Requires a translation.
func (s *Session) Complete(generation uint64, audio *SynthesizedAudio) error {
	if err := s.expect(generation, PhaseProcessing, "complete"); err != nil {
		return err
	}
	if s.Translation == "" {
		return fmt.Errorf("%w: synthesis before translation", ErrInvalidTransition)
	}
	s.SynthesizedAudio = audio
	s.Phase = PhaseCompleted
	s.touch()
	return nil
}

// Fail records a stage failure. Results of earlier stages stay readable.
func (s *Session) Fail(generation uint64, failure *StageError) error {
	want := PhaseProcessing
	if failure.Stage == StageCapture {
		want = PhaseRecording
	}
	if err := s.expect(generation, want, "fail"); err != nil {
		return err
	}
	s.Failure = failure
	s.Phase = PhaseFailed
	s.touch()
	return nil
}

// FailedStage returns the stage that failed, or "" when the session has not failed
func (s *Session) FailedStage() Stage {
	if s.Phase != PhaseFailed || s.Failure == nil {
		return ""
	}
	return s.Failure.Stage
}

// Clone returns a copy that shares the immutable audio buffers
func (s *Session) Clone() Session {
	c := *s
	if s.Capture != nil {
		capture := *s.Capture
		c.Capture = &capture
	}
	if s.SynthesizedAudio != nil {
		audio := *s.SynthesizedAudio
		c.SynthesizedAudio = &audio
	}
	if s.Failure != nil {
		failure := *s.Failure
		c.Failure = &failure
	}
	return c
}

// IdleFor reports how long the session has been inactive
func (s *Session) IdleFor(now time.Time) time.Duration {
	return now.Sub(s.LastActiveAt)
}

func (s *Session) clear() {
	s.Capture = nil
	s.Transcript = ""
	s.Translation = ""
	s.SynthesizedAudio = nil
	s.Failure = nil
}

func (s *Session) expect(generation uint64, phase Phase, action string) error {
	if generation != s.Generation {
		return fmt.Errorf("%w: %s for generation %d, current %d", ErrStaleResult, action, generation, s.Generation)
	}
	if s.Phase != phase {
		return s.invalid(action)
	}
	return nil
}

func (s *Session) invalid(action string) error {
	return fmt.Errorf("%w: cannot %s in phase %s", ErrInvalidTransition, action, s.Phase)
}

func (s *Session) touch() {
	s.LastActiveAt = time.Now()
}
