// Package mock provides a mock transcriber for testing without
// cloud credentials or a Whisper endpoint.
package mock

import (
	"context"
	"sync"
	"time"

	"insurance-voice-agent/internal/service/stt"
)

// DefaultUtterances are cycled through by successive Transcribe calls.
var DefaultUtterances = []string{
	"what does my policy cover",
	"I want to file a claim",
	"can you connect me to customer service",
	"thank you goodbye",
}

// Transcriber implements stt.Transcriber with canned responses.
type Transcriber struct {
	mu    sync.Mutex
	calls int

	// Err, when set, makes every call fail. Useful for exercising
	// fallback behavior.
	Err error

	// Utterances overrides DefaultUtterances when non-empty.
	Utterances []string
}

// New creates a mock transcriber.
func New() *Transcriber {
	return &Transcriber{}
}

// Name implements stt.Transcriber.
func (t *Transcriber) Name() string { return "mock" }

// Transcribe implements stt.Transcriber, returning the next canned
// utterance in sequence.
func (t *Transcriber) Transcribe(_ context.Context, wav []byte) (stt.Result, error) {
	if len(wav) == 0 {
		return stt.Result{}, stt.ErrEmptyAudio
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.Err != nil {
		return stt.Result{}, t.Err
	}

	utterances := t.Utterances
	if len(utterances) == 0 {
		utterances = DefaultUtterances
	}
	text := utterances[t.calls%len(utterances)]
	t.calls++

	return stt.Result{
		Text:    text,
		Service: "mock",
		Latency: 10 * time.Millisecond,
	}, nil
}

// Calls reports how many transcriptions have been served.
func (t *Transcriber) Calls() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.calls
}
