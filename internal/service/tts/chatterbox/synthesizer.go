// Package chatterbox provides text-to-speech through a self-hosted
// Chatterbox HTTP server.
package chatterbox

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"insurance-voice-agent/internal/service/tts"
)

const serviceName = "chatterbox"

// Config holds Chatterbox endpoint settings.
type Config struct {
	// BaseURL points at the Chatterbox server, e.g. http://localhost:8004.
	BaseURL string
	Voice   string
	Timeout time.Duration
}

// Synthesizer implements tts.Synthesizer against a Chatterbox server.
type Synthesizer struct {
	client  *http.Client
	baseURL string
	voice   string
}

type synthesizeRequest struct {
	Text   string `json:"text"`
	Voice  string `json:"voice,omitempty"`
	Format string `json:"format"`
}

// New creates a Chatterbox synthesizer.
func New(cfg Config) *Synthesizer {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &Synthesizer{
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		voice:   cfg.Voice,
	}
}

// Name implements tts.Synthesizer.
func (s *Synthesizer) Name() string { return serviceName }

// Synthesize implements tts.Synthesizer.
func (s *Synthesizer) Synthesize(ctx context.Context, text string) (tts.Result, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return tts.Result{}, tts.ErrEmptyText
	}

	body, err := json.Marshal(synthesizeRequest{Text: text, Voice: s.voice, Format: "wav"})
	if err != nil {
		return tts.Result{}, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/synthesize", bytes.NewReader(body))
	if err != nil {
		return tts.Result{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		return tts.Result{}, err
	}
	defer resp.Body.Close()
	elapsed := time.Since(start)

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return tts.Result{}, fmt.Errorf("chatterbox returned %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return tts.Result{}, fmt.Errorf("read audio: %w", err)
	}
	if len(audio) == 0 {
		return tts.Result{}, tts.ErrEmptyAudio
	}

	log.Debug().
		Str("service", serviceName).
		Dur("elapsed", elapsed).
		Int("bytes", len(audio)).
		Msg("Synthesis completed")

	return tts.Result{Audio: audio, Service: serviceName, Latency: elapsed}, nil
}
