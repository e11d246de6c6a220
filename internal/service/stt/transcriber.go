// Package stt defines the interface for speech-to-text providers.
package stt

import (
	"context"
	"errors"
	"time"
)

// ErrEmptyAudio is returned when there is nothing to transcribe.
var ErrEmptyAudio = errors.New("empty audio payload")

// ErrEmptyTranscript is returned when the provider recognized nothing.
var ErrEmptyTranscript = errors.New("empty transcript")

// Result is a completed transcription.
type Result struct {
	// Text is the recognized utterance, trimmed.
	Text string

	// Service names the provider that produced the text.
	Service string

	// Latency is how long the provider took.
	Latency time.Duration

	// FallbackTriggered is true when the primary provider failed and
	// a later one in the chain produced this result.
	FallbackTriggered bool
}

// Transcriber converts a WAV recording into text.
type Transcriber interface {
	// Transcribe recognizes speech in a complete WAV payload.
	Transcribe(ctx context.Context, wav []byte) (Result, error)

	// Name identifies the provider in logs and metrics.
	Name() string
}
