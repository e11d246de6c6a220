// Package tts defines the interface for text-to-speech providers.
package tts

import (
	"context"
	"errors"
	"time"
)

// ErrEmptyText is returned when there is nothing to synthesize.
var ErrEmptyText = errors.New("empty text")

// ErrEmptyAudio is returned when the provider produced no audio.
var ErrEmptyAudio = errors.New("provider returned no audio")

// Result is a completed synthesis.
type Result struct {
	// Audio is a complete WAV payload.
	Audio []byte

	// Service names the provider that produced the audio.
	Service string

	// Latency is how long the provider took.
	Latency time.Duration

	// FallbackTriggered is true when the primary provider failed and
	// a later one in the chain produced this result.
	FallbackTriggered bool
}

// Synthesizer converts text into spoken audio.
type Synthesizer interface {
	// Synthesize renders the text as a WAV payload.
	Synthesize(ctx context.Context, text string) (Result, error)

	// Name identifies the provider in logs and metrics.
	Name() string
}
