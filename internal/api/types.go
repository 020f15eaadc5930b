package api

import (
	"time"

	"github.com/satriahrh/jurubahasa/domain/entities"
)

// CreateSessionRequest represents the request payload for a new session.
// Empty languages fall back to the configured defaults.
type CreateSessionRequest struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// SelectLanguagesRequest changes a session's language pair
type SelectLanguagesRequest struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// CreateSessionResponse carries the new session and its bearer token
type CreateSessionResponse struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	Session   SessionView `json:"session"`
}

// LanguagesResponse lists the supported languages
type LanguagesResponse struct {
	Languages []entities.Language `json:"languages"`
}

// AudioView describes downloadable synthesized audio
type AudioView struct {
	ID       string `json:"id"`
	FileName string `json:"file_name"`
	MimeType string `json:"mime_type"`
	Size     int    `json:"size"`
	URL      string `json:"url"`
}

// SessionView is the presentation of a session snapshot
type SessionView struct {
	ID             string               `json:"id"`
	SourceLanguage entities.Language    `json:"source_language"`
	TargetLanguage entities.Language    `json:"target_language"`
	Phase          entities.Phase       `json:"phase"`
	Generation     uint64               `json:"generation"`
	Transcript     string               `json:"transcript,omitempty"`
	Translation    string               `json:"translation,omitempty"`
	Audio          *AudioView           `json:"audio,omitempty"`
	Failure        *entities.StageError `json:"failure,omitempty"`
	Message        string               `json:"message,omitempty"`
	CreatedAt      time.Time            `json:"created_at"`
	LastActiveAt   time.Time            `json:"last_active_at"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func newSessionView(s entities.Session) SessionView {
	view := SessionView{
		ID:             s.ID,
		SourceLanguage: s.SourceLanguage,
		TargetLanguage: s.TargetLanguage,
		Phase:          s.Phase,
		Generation:     s.Generation,
		Transcript:     s.Transcript,
		Translation:    s.Translation,
		Failure:        s.Failure,
		CreatedAt:      s.CreatedAt,
		LastActiveAt:   s.LastActiveAt,
	}
	if s.Failure != nil {
		view.Message = s.Failure.Message()
	}
	if s.SynthesizedAudio != nil {
		view.Audio = &AudioView{
			ID:       s.SynthesizedAudio.ID,
			FileName: s.SynthesizedAudio.FileName(),
			MimeType: s.SynthesizedAudio.MimeType,
			Size:     len(s.SynthesizedAudio.Data),
			URL:      "/api/v1/sessions/" + s.ID + "/audio",
		}
	}
	return view
}
