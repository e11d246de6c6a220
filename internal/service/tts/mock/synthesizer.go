// Package mock provides a mock synthesizer for testing without cloud
// credentials or a Chatterbox server.
package mock

import (
	"context"
	"strings"
	"sync"
	"time"

	"insurance-voice-agent/internal/audio"
	"insurance-voice-agent/internal/service/tts"
)

// Synthesizer implements tts.Synthesizer by producing a short silent
// WAV clip whose length scales with the text.
type Synthesizer struct {
	mu    sync.Mutex
	calls int

	// Err, when set, makes every call fail. Useful for exercising
	// fallback behavior.
	Err error
}

// New creates a mock synthesizer.
func New() *Synthesizer {
	return &Synthesizer{}
}

// Name implements tts.Synthesizer.
func (s *Synthesizer) Name() string { return "mock" }

// Synthesize implements tts.Synthesizer.
func (s *Synthesizer) Synthesize(_ context.Context, text string) (tts.Result, error) {
	if strings.TrimSpace(text) == "" {
		return tts.Result{}, tts.ErrEmptyText
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Err != nil {
		return tts.Result{}, s.Err
	}
	s.calls++

	// Roughly 50ms of silence per word at 16kHz.
	words := len(strings.Fields(text))
	samples := make([]int16, words*800)

	return tts.Result{
		Audio:   audio.EncodeSamples(samples, 16000),
		Service: "mock",
		Latency: 5 * time.Millisecond,
	}, nil
}

// Calls reports how many syntheses have been served.
func (s *Synthesizer) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}
