package stt

import (
	"context"
	"errors"
	"testing"

	"cloud.google.com/go/speech/apiv1/speechpb"
	"github.com/googleapis/gax-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/satriahrh/jurubahasa/domain/entities"
	"github.com/satriahrh/jurubahasa/domain/repositories"
)

var (
	_ repositories.SpeechToText = &GoogleSpeechToText{}
	_ repositories.SpeechToText = &DeepgramSpeechToText{}
	_ repositories.SpeechToText = &WhisperSpeechToText{}
	_ repositories.SpeechToText = &MockSpeechToText{}
)

type fakeRecognizer struct {
	resp *speechpb.RecognizeResponse
	err  error
	req  *speechpb.RecognizeRequest
}

func (f *fakeRecognizer) Recognize(ctx context.Context, req *speechpb.RecognizeRequest, opts ...gax.CallOption) (*speechpb.RecognizeResponse, error) {
	f.req = req
	return f.resp, f.err
}

func (f *fakeRecognizer) Close() error { return nil }

func result(transcripts ...string) *speechpb.SpeechRecognitionResult {
	r := &speechpb.SpeechRecognitionResult{}
	for _, t := range transcripts {
		r.Alternatives = append(r.Alternatives, &speechpb.SpeechRecognitionAlternative{Transcript: t})
	}
	return r
}

func TestGoogleTranscribeAudio(t *testing.T) {
	rec := &fakeRecognizer{resp: &speechpb.RecognizeResponse{
		Results: []*speechpb.SpeechRecognitionResult{
			result("Hello,", "Yellow,"),
			result(" how are you?"),
		},
	}}
	g := &GoogleSpeechToText{client: rec, logger: zaptest.NewLogger(t)}

	text, err := g.TranscribeAudio(context.Background(), []byte{1, 2}, repositories.AudioConfig{
		SampleRate: 16000,
		Encoding:   "LINEAR16",
		Language:   "en-US",
	})
	require.NoError(t, err)

	assert.Equal(t, "Hello, how are you?", text)
	assert.Equal(t, "en-US", rec.req.GetConfig().GetLanguageCode())
	assert.Equal(t, int32(16000), rec.req.GetConfig().GetSampleRateHertz())
	assert.Equal(t, speechpb.RecognitionConfig_LINEAR16, rec.req.GetConfig().GetEncoding())
}

func TestGoogleTranscribeAudioErrors(t *testing.T) {
	tests := []struct {
		name     string
		resp     *speechpb.RecognizeResponse
		err      error
		audio    []byte
		encoding string
		wantKind entities.FailureKind
	}{
		{
			name:     "no results",
			resp:     &speechpb.RecognizeResponse{},
			audio:    []byte{1},
			wantKind: entities.KindUnintelligible,
		},
		{
			name:     "empty audio",
			audio:    nil,
			wantKind: entities.KindUnintelligible,
		},
		{
			name:     "invalid argument",
			err:      status.Error(codes.InvalidArgument, "sample_rate_hertz (0) must be in range"),
			audio:    []byte{1},
			wantKind: entities.KindUnexpected,
		},
		{
			name:     "internal",
			err:      status.Error(codes.Internal, "boom"),
			audio:    []byte{1},
			wantKind: entities.KindUnexpected,
		},
		{
			name:     "unknown",
			err:      status.Error(codes.Unknown, "???"),
			audio:    []byte{1},
			wantKind: entities.KindUnexpected,
		},
		{
			name:     "unsupported encoding",
			audio:    []byte{1},
			encoding: "AIFF",
			wantKind: entities.KindUnexpected,
		},
		{
			name:     "unavailable",
			err:      status.Error(codes.Unavailable, "try again"),
			audio:    []byte{1},
			wantKind: entities.KindServiceUnavailable,
		},
		{
			name:     "quota",
			err:      status.Error(codes.ResourceExhausted, "quota exceeded"),
			audio:    []byte{1},
			wantKind: entities.KindServiceUnavailable,
		},
		{
			name:     "unauthenticated",
			err:      status.Error(codes.Unauthenticated, "bad credentials"),
			audio:    []byte{1},
			wantKind: entities.KindServiceUnavailable,
		},
		{
			name:     "permission denied",
			err:      status.Error(codes.PermissionDenied, "api disabled"),
			audio:    []byte{1},
			wantKind: entities.KindServiceUnavailable,
		},
		{
			name:     "rpc deadline",
			err:      status.Error(codes.DeadlineExceeded, "slow"),
			audio:    []byte{1},
			wantKind: entities.KindServiceUnavailable,
		},
		{
			name:     "deadline",
			err:      context.DeadlineExceeded,
			audio:    []byte{1},
			wantKind: entities.KindServiceUnavailable,
		},
		{
			name:     "plain error",
			err:      errors.New("dial tcp: refused"),
			audio:    []byte{1},
			wantKind: entities.KindServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoding := tt.encoding
			if encoding == "" {
				encoding = "LINEAR16"
			}
			g := &GoogleSpeechToText{
				client: &fakeRecognizer{resp: tt.resp, err: tt.err},
				logger: zaptest.NewLogger(t),
			}
			_, err := g.TranscribeAudio(context.Background(), tt.audio, repositories.AudioConfig{
				SampleRate: 16000,
				Encoding:   encoding,
				Language:   "en-US",
			})
			require.Error(t, err)
			assert.Equal(t, tt.wantKind, entities.NewStageError(entities.StageTranscription, err).Kind)
		})
	}
}

func TestGoogleTranscribeAudioCancelled(t *testing.T) {
	g := &GoogleSpeechToText{
		client: &fakeRecognizer{err: status.Error(codes.Canceled, "context canceled")},
		logger: zaptest.NewLogger(t),
	}
	_, err := g.TranscribeAudio(context.Background(), []byte{1}, repositories.AudioConfig{Encoding: "LINEAR16"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGetAudioEncoding(t *testing.T) {
	enc, err := getAudioEncoding("WAV")
	require.NoError(t, err)
	assert.Equal(t, speechpb.RecognitionConfig_LINEAR16, enc)

	_, err = getAudioEncoding("AIFF")
	require.Error(t, err)
	assert.NotErrorIs(t, err, entities.ErrUnintelligible)
}
