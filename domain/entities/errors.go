package entities

import (
	"context"
	"errors"
	"fmt"
)

// Adapter errors. Adapters wrap one of these so the pipeline can tell
// failure kinds apart with errors.Is.
var (
	ErrCaptureUnavailable = errors.New("capture device unavailable")
	ErrCaptureTimeout     = errors.New("capture timed out")
	ErrUnintelligible     = errors.New("no recognizable speech in audio")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrTranslationFailed  = errors.New("translation failed")
	ErrSynthesisFailed    = errors.New("speech synthesis failed")
)

// State machine errors
var (
	ErrInvalidTransition = errors.New("invalid session transition")
	ErrStaleResult       = errors.New("result belongs to a superseded capture")
)

// Stage is the unit of failure attribution
type Stage string

const (
	StageCapture       Stage = "capture"
	StageTranscription Stage = "transcription"
	StageTranslation   Stage = "translation"
	StageSynthesis     Stage = "synthesis"
)

// FailureKind tags a stage failure
type FailureKind string

const (
	KindCaptureError       FailureKind = "capture_error"
	KindUnintelligible     FailureKind = "unintelligible"
	KindServiceUnavailable FailureKind = "service_unavailable"
	KindTranslationFailed  FailureKind = "translation_failed"
	KindSynthesisFailed    FailureKind = "synthesis_failed"
	KindUnexpected         FailureKind = "unexpected"
)

// StageError is a failure recorded on the session
type StageError struct {
	Stage  Stage       `json:"stage"`
	Kind   FailureKind `json:"kind"`
	Reason string      `json:"reason,omitempty"`
	err    error
}

// NewStageError classifies err for the given stage
func NewStageError(stage Stage, err error) *StageError {
	se := &StageError{Stage: stage, err: err}
	if err != nil {
		se.Reason = err.Error()
	}

	switch stage {
	case StageCapture:
		se.Kind = KindCaptureError
	case StageTranslation:
		se.Kind = KindTranslationFailed
	case StageSynthesis:
		se.Kind = KindSynthesisFailed
	default:
		switch {
		case errors.Is(err, ErrUnintelligible):
			se.Kind = KindUnintelligible
		case errors.Is(err, ErrServiceUnavailable), errors.Is(err, context.DeadlineExceeded):
			se.Kind = KindServiceUnavailable
		default:
			se.Kind = KindUnexpected
		}
	}

	return se
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s failed (%s): %s", e.Stage, e.Kind, e.Reason)
}

func (e *StageError) Unwrap() error {
	return e.err
}

// Message returns the human readable text shown for the failed stage
func (e *StageError) Message() string {
	switch e.Kind {
	case KindCaptureError:
		return "Could not capture audio: " + e.Reason
	case KindUnintelligible:
		return "Could not understand audio"
	case KindServiceUnavailable:
		return "Speech recognition error: " + e.Reason
	case KindTranslationFailed:
		return "Translation error: " + e.Reason
	case KindSynthesisFailed:
		return "TTS Error: " + e.Reason
	default:
		return "Error: " + e.Reason
	}
}

// Partial reports whether earlier stage results stay usable
func (e *StageError) Partial() bool {
	return e.Stage == StageSynthesis
}
