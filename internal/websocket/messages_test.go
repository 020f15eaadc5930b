package websocket

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satriahrh/jurubahasa/domain"
)

func TestMessageValidator_ValidateMessage(t *testing.T) {
	validator := NewMessageValidator()

	tests := []struct {
		name    string
		message string
		wantErr bool
	}{
		{"capture start", `{"type":"capture_start","sample_rate":16000,"encoding":"linear16"}`, false},
		{"capture start defaults", `{"type":"capture_start"}`, false},
		{"capture start bad rate", `{"type":"capture_start","sample_rate":100000}`, true},
		{"capture start bad encoding", `{"type":"capture_start","encoding":"aac"}`, true},
		{"capture end", `{"type":"capture_end"}`, false},
		{"capture cancel", `{"type":"capture_cancel"}`, false},
		{"select languages", `{"type":"select_languages","source":"en","target":"fr"}`, false},
		{"select languages missing target", `{"type":"select_languages","source":"en"}`, true},
		{"missing type", `{"source":"en"}`, true},
		{"unknown type", `{"type":"listening_start"}`, true},
		{"invalid json", `{"type":`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := validator.ValidateMessage([]byte(tt.message))
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestMessageValidator_NormalisesEncoding(t *testing.T) {
	msg, err := NewMessageValidator().ValidateMessage([]byte(`{"type":"capture_start","encoding":"ogg_opus"}`))
	require.NoError(t, err)
	assert.Equal(t, "OGG_OPUS", msg.Encoding)
}

func TestCreateErrorMessage(t *testing.T) {
	msg := CreateErrorMessage(ErrorCodeInvalidState, "capture already in progress")

	data, err := json.Marshal(msg)
	require.NoError(t, err)

	var decoded map[string]string
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, domain.MessageError, decoded["type"])
	assert.Equal(t, ErrorCodeInvalidState, decoded["error_code"])
}
