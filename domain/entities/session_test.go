package entities

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSession(t *testing.T) *Session {
	t.Helper()
	catalog := DefaultCatalog()
	src, tgt, err := catalog.ValidatePair("en", "es")
	require.NoError(t, err)
	return NewSession(src, tgt)
}

func completedSession(t *testing.T) *Session {
	t.Helper()
	s := newTestSession(t)
	gen, err := s.StartCapture()
	require.NoError(t, err)
	require.NoError(t, s.FinishCapture(gen, NewAudioCapture([]byte{1, 2, 3}, "LINEAR16", 16000)))
	_, err = s.BeginProcessing()
	require.NoError(t, err)
	require.NoError(t, s.ApplyTranscript(gen, "Hello, how are you?"))
	require.NoError(t, s.ApplyTranslation(gen, "¿Cómo estás?"))
	require.NoError(t, s.Complete(gen, NewSynthesizedAudio([]byte{9, 9}, "audio/mpeg", "mp3")))
	return s
}

func TestSessionCreation(t *testing.T) {
	s := newTestSession(t)

	assert.Equal(t, PhaseIdle, s.Phase)
	assert.NotEmpty(t, s.ID)
	assert.Equal(t, "en", s.SourceLanguage.Code)
	assert.Equal(t, "es", s.TargetLanguage.Code)
}

func TestSessionHappyPath(t *testing.T) {
	s := completedSession(t)

	assert.Equal(t, PhaseCompleted, s.Phase)
	assert.Equal(t, "Hello, how are you?", s.Transcript)
	require.NotNil(t, s.SynthesizedAudio)
	assert.Empty(t, s.FailedStage())
}

func TestStartCaptureClearsDerivedState(t *testing.T) {
	phases := map[string]func(t *testing.T) *Session{
		"idle":      newTestSession,
		"completed": completedSession,
		"failed": func(t *testing.T) *Session {
			s := completedSession(t)
			gen, _ := s.StartCapture()
			_ = s.FinishCapture(gen, NewAudioCapture([]byte{1}, "LINEAR16", 16000))
			_, _ = s.BeginProcessing()
			_ = s.ApplyTranscript(gen, "hi")
			_ = s.Fail(gen, NewStageError(StageTranslation, ErrTranslationFailed))
			return s
		},
	}

	for name, build := range phases {
		t.Run(name, func(t *testing.T) {
			s := build(t)
			before := s.Generation

			_, err := s.StartCapture()
			require.NoError(t, err)

			assert.Equal(t, PhaseRecording, s.Phase)
			assert.Empty(t, s.Transcript)
			assert.Empty(t, s.Translation)
			assert.Nil(t, s.SynthesizedAudio)
			assert.Nil(t, s.Capture)
			assert.Nil(t, s.Failure)
			assert.Equal(t, before+1, s.Generation)
		})
	}
}

func TestStartCaptureWhileRecording(t *testing.T) {
	s := newTestSession(t)
	_, err := s.StartCapture()
	require.NoError(t, err)

	_, err = s.StartCapture()
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestStaleResultsAreRejected(t *testing.T) {
	s := newTestSession(t)
	gen, _ := s.StartCapture()
	_ = s.FinishCapture(gen, NewAudioCapture([]byte{1}, "LINEAR16", 16000))
	_, _ = s.BeginProcessing()

	// a new capture supersedes the one being processed
	_, err := s.StartCapture()
	require.NoError(t, err)

	assert.ErrorIs(t, s.ApplyTranscript(gen, "late"), ErrStaleResult)
	assert.Empty(t, s.Transcript, "stale transcript leaked into session")
}

func TestSequentialDependency(t *testing.T) {
	s := newTestSession(t)
	gen, _ := s.StartCapture()
	_ = s.FinishCapture(gen, NewAudioCapture([]byte{1}, "LINEAR16", 16000))
	_, _ = s.BeginProcessing()

	assert.ErrorIs(t, s.ApplyTranslation(gen, "hola"), ErrInvalidTransition, "translation before transcript")
	assert.ErrorIs(t, s.Complete(gen, NewSynthesizedAudio([]byte{1}, "audio/mpeg", "mp3")), ErrInvalidTransition, "synthesis before translation")
}

func TestSynthesisFailureKeepsText(t *testing.T) {
	s := newTestSession(t)
	gen, _ := s.StartCapture()
	_ = s.FinishCapture(gen, NewAudioCapture([]byte{1}, "LINEAR16", 16000))
	_, _ = s.BeginProcessing()
	_ = s.ApplyTranscript(gen, "Hello")
	_ = s.ApplyTranslation(gen, "Hola")

	require.NoError(t, s.Fail(gen, NewStageError(StageSynthesis, errors.New("quota"))))

	assert.Equal(t, StageSynthesis, s.FailedStage())
	assert.Equal(t, "Hello", s.Transcript)
	assert.Equal(t, "Hola", s.Translation)
	assert.True(t, s.Failure.Partial())
}

func TestCancelCapture(t *testing.T) {
	s := newTestSession(t)
	gen, _ := s.StartCapture()

	require.NoError(t, s.CancelCapture())
	assert.Equal(t, PhaseIdle, s.Phase)
	assert.ErrorIs(t, s.FinishCapture(gen, NewAudioCapture([]byte{1}, "LINEAR16", 16000)), ErrStaleResult)
}

func TestFinishCaptureRejectsEmptyAudio(t *testing.T) {
	s := newTestSession(t)
	gen, _ := s.StartCapture()

	assert.ErrorIs(t, s.FinishCapture(gen, NewAudioCapture(nil, "LINEAR16", 16000)), ErrInvalidTransition)
}

func TestSelectLanguagesWhileBusy(t *testing.T) {
	s := newTestSession(t)
	fr, _ := DefaultCatalog().Resolve("fr")

	_, _ = s.StartCapture()
	assert.ErrorIs(t, s.SelectLanguages(fr, fr), ErrInvalidTransition)

	_ = s.CancelCapture()
	assert.NoError(t, s.SelectLanguages(fr, fr))
}

func TestSynthesizedAudioFileName(t *testing.T) {
	a := NewSynthesizedAudio([]byte{1}, "audio/mpeg", "mp3")
	b := NewSynthesizedAudio([]byte{1}, "audio/mpeg", "mp3")

	name := a.FileName()
	assert.Regexp(t, `^translation_[0-9a-f]{32}\.mp3$`, name)
	assert.NotEqual(t, name, b.FileName())
}

func TestCloneIsIndependent(t *testing.T) {
	s := completedSession(t)
	c := s.Clone()

	c.SynthesizedAudio.MimeType = "changed"
	c.Transcript = "changed"

	assert.Equal(t, "audio/mpeg", s.SynthesizedAudio.MimeType)
	assert.Equal(t, "Hello, how are you?", s.Transcript)
}
