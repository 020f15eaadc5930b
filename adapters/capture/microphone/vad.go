package microphone

import (
	"math"
	"time"
)

// SilenceDetector decides when an utterance has ended by tracking frame energy.
// Speech is a frame whose RMS reaches Threshold; the utterance ends once
// TrailingSilence has passed after speech was heard.
type SilenceDetector struct {
	Threshold       float64
	TrailingSilence time.Duration

	heard   bool
	silence time.Duration
}

// NewSilenceDetector creates a detector
func NewSilenceDetector(threshold float64, trailingSilence time.Duration) *SilenceDetector {
	return &SilenceDetector{Threshold: threshold, TrailingSilence: trailingSilence}
}

// Observe feeds one frame of samples lasting d and reports whether the utterance is over
func (s *SilenceDetector) Observe(samples []int16, d time.Duration) bool {
	if RMS(samples) >= s.Threshold {
		s.heard = true
		s.silence = 0
		return false
	}

	if !s.heard {
		return false
	}

	s.silence += d
	return s.silence >= s.TrailingSilence
}

// HeardSpeech reports whether any frame crossed the threshold
func (s *SilenceDetector) HeardSpeech() bool {
	return s.heard
}

// Reset prepares the detector for a new utterance
func (s *SilenceDetector) Reset() {
	s.heard = false
	s.silence = 0
}

// RMS returns the root mean square amplitude of samples
func RMS(samples []int16) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, v := range samples {
		f := float64(v)
		sum += f * f
	}
	return math.Sqrt(sum / float64(len(samples)))
}
