// Package vad provides energy-based voice activity detection and
// utterance boundary tracking over PCM16 frames.
package vad

import (
	"errors"
	"fmt"
	"time"

	"insurance-voice-agent/internal/audio"
)

// State represents the detector lifecycle.
type State int

const (
	// StateWaiting - no speech observed yet.
	StateWaiting State = iota
	// StateSpeaking - speech has started, utterance in progress.
	StateSpeaking
	// StateComplete - utterance boundary reached. Terminal.
	StateComplete
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateWaiting:
		return "WAITING"
	case StateSpeaking:
		return "SPEAKING"
	case StateComplete:
		return "COMPLETE"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", s)
	}
}

// Reason explains why the detector completed.
type Reason int

const (
	// ReasonNone - detector has not completed.
	ReasonNone Reason = iota
	// ReasonSilence - trailing silence after speech reached the window.
	ReasonSilence
	// ReasonMaxDuration - the recording cap elapsed.
	ReasonMaxDuration
)

// String returns the string representation of the reason.
func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return "NONE"
	case ReasonSilence:
		return "SILENCE"
	case ReasonMaxDuration:
		return "MAX_DURATION"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", r)
	}
}

// ErrDetectorComplete is returned by Feed after the boundary was reached.
var ErrDetectorComplete = errors.New("detector already complete")

// Config holds detector tuning.
type Config struct {
	EnergyThreshold float64       // RMS above this is speech
	SilenceWindow   time.Duration // trailing silence that ends an utterance
	MaxDuration     time.Duration // hard cap on total audio
	FrameDuration   time.Duration // duration represented by one Feed call
}

// DefaultConfig mirrors the service defaults: 2s silence window,
// 15s cap, 100ms frames, 0.02 threshold.
func DefaultConfig() Config {
	return Config{
		EnergyThreshold: 0.02,
		SilenceWindow:   2 * time.Second,
		MaxDuration:     15 * time.Second,
		FrameDuration:   100 * time.Millisecond,
	}
}

// Detector tracks utterance boundaries across successive audio frames.
// Not safe for concurrent use; each recording gets its own detector
// (or Reset between recordings).
//
// State transitions:
//
//	WAITING ──first speech frame──→ SPEAKING ──silence window──→ COMPLETE
//	   │                                │
//	   └──────────max duration─────────┴──────────────────────→ COMPLETE
type Detector struct {
	cfg Config

	state        State
	reason       Reason
	elapsed      time.Duration
	silence      time.Duration
	speechFrames int
	spokeAt      time.Duration
}

// New creates a detector in WAITING state.
func New(cfg Config) *Detector {
	if cfg.FrameDuration <= 0 {
		cfg.FrameDuration = 100 * time.Millisecond
	}
	return &Detector{cfg: cfg}
}

// State returns the current state.
func (d *Detector) State() State { return d.state }

// Reason returns why the detector completed, or ReasonNone.
func (d *Detector) Reason() Reason { return d.reason }

// Spoke reports whether any speech frame was observed.
func (d *Detector) Spoke() bool { return d.speechFrames > 0 }

// SpokeAt returns the offset of the first speech frame.
// Zero when no speech was observed.
func (d *Detector) SpokeAt() time.Duration { return d.spokeAt }

// Elapsed returns the total audio duration fed so far.
func (d *Detector) Elapsed() time.Duration { return d.elapsed }

// IsSpeech classifies a single frame against the configured threshold.
// A frame exactly at the threshold is not speech.
func (d *Detector) IsSpeech(frame []int16) bool {
	return audio.RMS(frame) > d.cfg.EnergyThreshold
}

// Feed processes one frame and returns the resulting state.
// Returns ErrDetectorComplete once the boundary has been reached.
func (d *Detector) Feed(frame []int16) (State, error) {
	if d.state == StateComplete {
		return d.state, ErrDetectorComplete
	}

	speech := d.IsSpeech(frame)
	d.elapsed += d.cfg.FrameDuration

	if speech {
		if d.speechFrames == 0 {
			d.spokeAt = d.elapsed - d.cfg.FrameDuration
			d.state = StateSpeaking
		}
		d.speechFrames++
		d.silence = 0
	} else if d.state == StateSpeaking {
		d.silence += d.cfg.FrameDuration
		if d.cfg.SilenceWindow > 0 && d.silence >= d.cfg.SilenceWindow {
			d.complete(ReasonSilence)
			return d.state, nil
		}
	}

	if d.cfg.MaxDuration > 0 && d.elapsed >= d.cfg.MaxDuration {
		d.complete(ReasonMaxDuration)
	}

	return d.state, nil
}

func (d *Detector) complete(r Reason) {
	d.state = StateComplete
	d.reason = r
}

// Reset returns the detector to WAITING for a new recording.
func (d *Detector) Reset() {
	d.state = StateWaiting
	d.reason = ReasonNone
	d.elapsed = 0
	d.silence = 0
	d.speechFrames = 0
	d.spokeAt = 0
}

// ScanPCM runs the detector over a full PCM16 buffer, slicing it into
// frames of the configured duration, and returns the byte offset where
// the utterance ends (the whole buffer when no boundary is found).
// Used to trim trailing silence from uploaded recordings.
func (d *Detector) ScanPCM(samples []int16, sampleRateHz int) int {
	frameSamples := int(float64(sampleRateHz) * d.cfg.FrameDuration.Seconds())
	if frameSamples <= 0 {
		return len(samples) * 2
	}

	for off := 0; off < len(samples); off += frameSamples {
		end := off + frameSamples
		if end > len(samples) {
			end = len(samples)
		}
		state, err := d.Feed(samples[off:end])
		if err != nil {
			return off * 2
		}
		if state == StateComplete {
			return end * 2
		}
	}
	return len(samples) * 2
}
