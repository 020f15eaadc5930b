package capture

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/satriahrh/jurubahasa/domain/entities"
)

// FileSource replays a WAV file as a capture
type FileSource struct {
	path string
}

// NewFileSource creates a source reading path on every capture
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// BeginCapture reads and validates the WAV file
func (f *FileSource) BeginCapture(ctx context.Context) (*entities.AudioCapture, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", entities.ErrCaptureUnavailable, err)
	}

	return FromWAV(data)
}

// FromWAV builds a capture from an in-memory WAV file
func FromWAV(data []byte) (*entities.AudioCapture, error) {
	pcm, format, err := DecodeWAV(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", entities.ErrCaptureUnavailable, err)
	}
	if format.BitsPerSample != 16 {
		return nil, fmt.Errorf("%w: %d-bit audio is not supported", entities.ErrCaptureUnavailable, format.BitsPerSample)
	}
	if len(pcm) == 0 {
		return nil, fmt.Errorf("%w: wav file has no samples", entities.ErrCaptureUnavailable)
	}

	capture := entities.NewAudioCapture(data, "LINEAR16", format.SampleRate)
	bytesPerSecond := format.SampleRate * format.Channels * 2
	if bytesPerSecond > 0 {
		capture.Duration = time.Duration(len(pcm)) * time.Second / time.Duration(bytesPerSecond)
	}
	return capture, nil
}
