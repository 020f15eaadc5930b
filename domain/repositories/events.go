package repositories

import (
	"context"
	"time"

	"github.com/satriahrh/jurubahasa/domain/entities"
)

// ResultPublisher announces finished translations to other systems
type ResultPublisher interface {
	PublishResult(ctx context.Context, event ResultEvent) error
	Close() error
}

// ResultEvent summarises one processed capture
type ResultEvent struct {
	SessionID      string               `json:"session_id"`
	CaptureID      string               `json:"capture_id"`
	SourceLanguage string               `json:"source_language"`
	TargetLanguage string               `json:"target_language"`
	Phase          entities.Phase       `json:"phase"`
	Transcript     string               `json:"transcript,omitempty"`
	Translation    string               `json:"translation,omitempty"`
	AudioID        string               `json:"audio_id,omitempty"`
	AudioBytes     int                  `json:"audio_bytes,omitempty"`
	Failure        *entities.StageError `json:"failure,omitempty"`
	Timestamp      time.Time            `json:"timestamp"`
}
