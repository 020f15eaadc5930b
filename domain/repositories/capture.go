package repositories

import (
	"context"

	"github.com/satriahrh/jurubahasa/domain/entities"
)

// CaptureSource records one utterance
type CaptureSource interface {
	// BeginCapture blocks until the end of an utterance is detected or ctx is done
	BeginCapture(ctx context.Context) (*entities.AudioCapture, error)
}
