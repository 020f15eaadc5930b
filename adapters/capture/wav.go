package capture

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrInvalidWAV is returned when data is not a PCM WAV file
var ErrInvalidWAV = errors.New("invalid wav data")

// WAVFormat describes the PCM layout of a WAV file
type WAVFormat struct {
	SampleRate    int
	Channels      int
	BitsPerSample int
}

// EncodeWAV wraps little-endian PCM samples in a canonical 44 byte RIFF header
func EncodeWAV(pcm []byte, format WAVFormat) []byte {
	blockAlign := format.Channels * format.BitsPerSample / 8
	byteRate := format.SampleRate * blockAlign

	buf := bytes.NewBuffer(make([]byte, 0, 44+len(pcm)))
	buf.WriteString("RIFF")
	_ = binary.Write(buf, binary.LittleEndian, uint32(36+len(pcm)))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	_ = binary.Write(buf, binary.LittleEndian, uint32(16))
	_ = binary.Write(buf, binary.LittleEndian, uint16(1)) // PCM
	_ = binary.Write(buf, binary.LittleEndian, uint16(format.Channels))
	_ = binary.Write(buf, binary.LittleEndian, uint32(format.SampleRate))
	_ = binary.Write(buf, binary.LittleEndian, uint32(byteRate))
	_ = binary.Write(buf, binary.LittleEndian, uint16(blockAlign))
	_ = binary.Write(buf, binary.LittleEndian, uint16(format.BitsPerSample))

	buf.WriteString("data")
	_ = binary.Write(buf, binary.LittleEndian, uint32(len(pcm)))
	buf.Write(pcm)

	return buf.Bytes()
}

// DecodeWAV returns the PCM payload and format of a WAV file.
// Chunks other than "fmt " and "data" are skipped.
func DecodeWAV(data []byte) ([]byte, WAVFormat, error) {
	var format WAVFormat

	if !IsWAV(data) {
		return nil, format, fmt.Errorf("%w: missing RIFF/WAVE header", ErrInvalidWAV)
	}

	var haveFormat bool
	offset := 12
	for offset+8 <= len(data) {
		id := string(data[offset : offset+4])
		size := int(binary.LittleEndian.Uint32(data[offset+4 : offset+8]))
		body := offset + 8
		if size < 0 || body+size > len(data) {
			// tolerate a truncated data chunk from streaming writers
			if id == "data" && haveFormat {
				return data[body:], format, nil
			}
			return nil, format, fmt.Errorf("%w: chunk %q overruns file", ErrInvalidWAV, id)
		}

		switch id {
		case "fmt ":
			if size < 16 {
				return nil, format, fmt.Errorf("%w: short fmt chunk", ErrInvalidWAV)
			}
			audioFormat := binary.LittleEndian.Uint16(data[body : body+2])
			if audioFormat != 1 {
				return nil, format, fmt.Errorf("%w: unsupported audio format %d", ErrInvalidWAV, audioFormat)
			}
			format.Channels = int(binary.LittleEndian.Uint16(data[body+2 : body+4]))
			format.SampleRate = int(binary.LittleEndian.Uint32(data[body+4 : body+8]))
			format.BitsPerSample = int(binary.LittleEndian.Uint16(data[body+14 : body+16]))
			haveFormat = true
		case "data":
			if !haveFormat {
				return nil, format, fmt.Errorf("%w: data chunk before fmt chunk", ErrInvalidWAV)
			}
			return data[body : body+size], format, nil
		}

		// chunks are word aligned
		offset = body + size + size%2
	}

	return nil, format, fmt.Errorf("%w: no data chunk", ErrInvalidWAV)
}

// IsWAV reports whether data starts with a RIFF/WAVE header
func IsWAV(data []byte) bool {
	return len(data) >= 12 && string(data[0:4]) == "RIFF" && string(data[8:12]) == "WAVE"
}

// EncodePCM16 converts samples to little-endian 16-bit PCM bytes
func EncodePCM16(in []int16) []byte {
	out := make([]byte, len(in)*2)
	for i, v := range in {
		out[2*i] = byte(v)
		out[2*i+1] = byte(v >> 8)
	}
	return out
}
