// Package whisper provides speech-to-text through an OpenAI-compatible
// Whisper endpoint.
package whisper

import (
	"bytes"
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"

	"insurance-voice-agent/internal/service/stt"
)

const serviceName = "whisper"

// Config holds Whisper endpoint settings.
type Config struct {
	// BaseURL points at the OpenAI-compatible audio API, e.g.
	// http://localhost:9000/v1 for a self-hosted server.
	BaseURL string
	APIKey  string
	Model   string
}

// Transcriber implements stt.Transcriber against a Whisper endpoint.
type Transcriber struct {
	client *openai.Client
	model  string
}

// New creates a Whisper transcriber.
func New(cfg Config) *Transcriber {
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	oc.HTTPClient = &http.Client{Timeout: 60 * time.Second}

	model := cfg.Model
	if model == "" {
		model = openai.Whisper1
	}

	return &Transcriber{
		client: openai.NewClientWithConfig(oc),
		model:  model,
	}
}

// Name implements stt.Transcriber.
func (t *Transcriber) Name() string { return serviceName }

// Transcribe implements stt.Transcriber.
func (t *Transcriber) Transcribe(ctx context.Context, wav []byte) (stt.Result, error) {
	if len(wav) == 0 {
		return stt.Result{}, stt.ErrEmptyAudio
	}

	start := time.Now()
	resp, err := t.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    t.model,
		FilePath: "audio.wav",
		Reader:   bytes.NewReader(wav),
		Language: "en",
	})
	elapsed := time.Since(start)
	if err != nil {
		return stt.Result{}, err
	}

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return stt.Result{}, stt.ErrEmptyTranscript
	}

	log.Debug().
		Str("service", serviceName).
		Dur("elapsed", elapsed).
		Int("chars", len(text)).
		Msg("Transcription completed")

	return stt.Result{Text: text, Service: serviceName, Latency: elapsed}, nil
}
