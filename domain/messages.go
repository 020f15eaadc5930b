package domain

import "github.com/satriahrh/jurubahasa/domain/entities"

// Websocket control message types sent by clients
const (
	MessageCaptureStart    = "capture_start"
	MessageCaptureEnd      = "capture_end"
	MessageCaptureCancel   = "capture_cancel"
	MessageSelectLanguages = "select_languages"
)

// Websocket message types sent by the server
const (
	MessageCaptureStarted    = "capture_started"
	MessageCaptureCancelled  = "capture_cancelled"
	MessageLanguagesSelected = "languages_selected"
	MessageResult            = "result"
	MessageSpeakingStart     = "speaking_start"
	MessageSpeakingEnd       = "speaking_end"
	MessageError             = "error"
)

// ClientMessage is any text frame sent by a websocket client.
// Audio itself travels in binary frames between capture_start and capture_end.
type ClientMessage struct {
	Type       string `json:"type"`
	SampleRate int    `json:"sample_rate,omitempty"`
	Encoding   string `json:"encoding,omitempty"`
	Source     string `json:"source,omitempty"`
	Target     string `json:"target,omitempty"`
}

// CaptureMessage acknowledges a capture starting or being cancelled
type CaptureMessage struct {
	Type       string `json:"type"`
	SessionID  string `json:"session_id"`
	Generation uint64 `json:"generation"`
	Timestamp  int64  `json:"timestamp"`
}

// LanguagesMessage reports the session's language pair
type LanguagesMessage struct {
	Type      string            `json:"type"`
	SessionID string            `json:"session_id"`
	Source    entities.Language `json:"source"`
	Target    entities.Language `json:"target"`
}

// ResultMessage carries the outcome of one processed capture
type ResultMessage struct {
	Type           string               `json:"type"`
	SessionID      string               `json:"session_id"`
	Generation     uint64               `json:"generation"`
	Phase          entities.Phase       `json:"phase"`
	SourceLanguage string               `json:"source_language"`
	TargetLanguage string               `json:"target_language"`
	Transcript     string               `json:"transcript,omitempty"`
	Translation    string               `json:"translation,omitempty"`
	Failure        *entities.StageError `json:"failure,omitempty"`
	Message        string               `json:"message,omitempty"`
}

// SpeakingStartMessage precedes the binary audio chunks of a translation
type SpeakingStartMessage struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id"`
	AudioID   string `json:"audio_id"`
	FileName  string `json:"file_name"`
	MimeType  string `json:"mime_type"`
	Size      int    `json:"size"`
}

// SpeakingEndMessage follows the last audio chunk
type SpeakingEndMessage struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id"`
	AudioID   string `json:"audio_id"`
	Timestamp int64  `json:"timestamp"`
}

// ErrorMessage reports a rejected request
type ErrorMessage struct {
	Type    string `json:"type"`
	Code    string `json:"error_code"`
	Message string `json:"message"`
}

// NewResultMessage builds the result frame for a session snapshot
func NewResultMessage(s entities.Session) ResultMessage {
	msg := ResultMessage{
		Type:           MessageResult,
		SessionID:      s.ID,
		Generation:     s.Generation,
		Phase:          s.Phase,
		SourceLanguage: s.SourceLanguage.Name,
		TargetLanguage: s.TargetLanguage.Name,
		Transcript:     s.Transcript,
		Translation:    s.Translation,
		Failure:        s.Failure,
	}
	if s.Failure != nil {
		msg.Message = s.Failure.Message()
	}
	return msg
}
