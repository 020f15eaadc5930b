package capture

import (
	"fmt"
	"strings"

	"github.com/satriahrh/jurubahasa/domain/entities"
)

// DefaultSampleRate is used for raw PCM uploads that do not state a rate
const DefaultSampleRate = 16000

// FromUpload builds a capture from audio sent by a client. WAV data is
// validated, raw 16-bit mono PCM is wrapped in a WAV header, and other
// encodings are passed through for the recognizer to decode.
func FromUpload(data []byte, encoding string, sampleRate int) (*entities.AudioCapture, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: no audio received", entities.ErrCaptureUnavailable)
	}
	if IsWAV(data) {
		return FromWAV(data)
	}

	encoding = strings.ToUpper(strings.TrimSpace(encoding))
	switch encoding {
	case "", "LINEAR16", "PCM":
		if sampleRate <= 0 {
			sampleRate = DefaultSampleRate
		}
		if len(data)%2 != 0 {
			return nil, fmt.Errorf("%w: odd number of bytes in 16-bit pcm", entities.ErrCaptureUnavailable)
		}
		wav := EncodeWAV(data, WAVFormat{SampleRate: sampleRate, Channels: 1, BitsPerSample: 16})
		return FromWAV(wav)
	case "FLAC", "OGG_OPUS", "WEBM_OPUS", "MULAW":
		return entities.NewAudioCapture(data, encoding, sampleRate), nil
	default:
		return nil, fmt.Errorf("%w: unsupported encoding %q", entities.ErrCaptureUnavailable, encoding)
	}
}
