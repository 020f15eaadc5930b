package entities

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	c := DefaultCatalog()

	assert.Equal(t, 23, c.Len())

	all := c.All()
	for i := 1; i < len(all); i++ {
		require.Less(t, all[i-1].Code, all[i].Code, "languages must be ordered by code")
	}
}

func TestResolve(t *testing.T) {
	c := DefaultCatalog()

	tests := []struct {
		code     string
		wantName string
		wantErr  bool
	}{
		{code: "en", wantName: "English"},
		{code: "zh-CN", wantName: "Chinese (Simplified)"},
		{code: "zh-cn", wantName: "Chinese (Simplified)"},
		{code: " es ", wantName: "Spanish"},
		{code: "xx", wantErr: true},
		{code: "", wantErr: true},
		{code: "not a code", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			lang, err := c.Resolve(tt.code)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrLanguageNotFound)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, lang.Name)
		})
	}
}

func TestValidatePair(t *testing.T) {
	c := DefaultCatalog()

	for _, src := range c.All() {
		for _, tgt := range c.All() {
			_, _, err := c.ValidatePair(src.Code, tgt.Code)
			require.NoError(t, err, "%s->%s", src.Code, tgt.Code)
		}
	}

	_, _, err := c.ValidatePair("en", "klingon")
	assert.ErrorIs(t, err, ErrLanguageNotFound, "unsupported target")
	_, _, err = c.ValidatePair("xx", "en")
	assert.ErrorIs(t, err, ErrLanguageNotFound, "unsupported source")
}

func TestNewCatalogRejectsDuplicates(t *testing.T) {
	_, err := NewCatalog([]Language{
		{Code: "en", Name: "English"},
		{Code: "EN", Name: "English again"},
	})
	assert.Error(t, err, "duplicate codes must be rejected")
}

func TestStageErrorClassification(t *testing.T) {
	tests := []struct {
		name     string
		stage    Stage
		err      error
		wantKind FailureKind
		wantMsg  string
	}{
		{"unintelligible", StageTranscription, ErrUnintelligible, KindUnintelligible, "Could not understand audio"},
		{"service", StageTranscription, ErrServiceUnavailable, KindServiceUnavailable, "Speech recognition error: service unavailable"},
		{"unexpected", StageTranscription, errors.New("boom"), KindUnexpected, "Error: boom"},
		{"translation", StageTranslation, ErrServiceUnavailable, KindTranslationFailed, "Translation error: service unavailable"},
		{"synthesis", StageSynthesis, errors.New("quota"), KindSynthesisFailed, "TTS Error: quota"},
		{"capture", StageCapture, ErrCaptureTimeout, KindCaptureError, "Could not capture audio: capture timed out"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			se := NewStageError(tt.stage, tt.err)
			assert.Equal(t, tt.wantKind, se.Kind)
			assert.Equal(t, tt.wantMsg, se.Message())
			assert.ErrorIs(t, se, tt.err)
		})
	}
}
