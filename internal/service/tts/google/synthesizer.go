// Package google provides a Google Cloud Text-to-Speech synthesizer.
package google

import (
	"context"
	"strings"
	"time"

	texttospeech "cloud.google.com/go/texttospeech/apiv1"
	"github.com/rs/zerolog/log"
	ttspb "google.golang.org/genproto/googleapis/cloud/texttospeech/v1"

	"insurance-voice-agent/internal/service/tts"
)

const serviceName = "google"

// Config holds voice selection settings.
type Config struct {
	LanguageCode string
	VoiceName    string
	SampleRateHz int
	SpeakingRate float64
}

// Synthesizer implements tts.Synthesizer using Google Cloud
// Text-to-Speech.
type Synthesizer struct {
	client *texttospeech.Client
	cfg    Config
}

// New creates a Google TTS synthesizer.
// Requires GOOGLE_APPLICATION_CREDENTIALS environment variable to be set.
func New(ctx context.Context, cfg Config) (*Synthesizer, error) {
	if cfg.LanguageCode == "" {
		cfg.LanguageCode = "en-US"
	}
	if cfg.SampleRateHz == 0 {
		cfg.SampleRateHz = 24000
	}
	if cfg.SpeakingRate == 0 {
		cfg.SpeakingRate = 1.0
	}

	c, err := texttospeech.NewClient(ctx)
	if err != nil {
		return nil, err
	}
	return &Synthesizer{client: c, cfg: cfg}, nil
}

// Name implements tts.Synthesizer.
func (s *Synthesizer) Name() string { return serviceName }

// Synthesize implements tts.Synthesizer. LINEAR16 output arrives as a
// complete WAV payload.
func (s *Synthesizer) Synthesize(ctx context.Context, text string) (tts.Result, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return tts.Result{}, tts.ErrEmptyText
	}

	start := time.Now()
	resp, err := s.client.SynthesizeSpeech(ctx, &ttspb.SynthesizeSpeechRequest{
		Input: &ttspb.SynthesisInput{
			InputSource: &ttspb.SynthesisInput_Text{Text: text},
		},
		Voice: &ttspb.VoiceSelectionParams{
			LanguageCode: s.cfg.LanguageCode,
			Name:         s.cfg.VoiceName,
			SsmlGender:   ttspb.SsmlVoiceGender_NEUTRAL,
		},
		AudioConfig: &ttspb.AudioConfig{
			AudioEncoding:   ttspb.AudioEncoding_LINEAR16,
			SampleRateHertz: int32(s.cfg.SampleRateHz),
			SpeakingRate:    s.cfg.SpeakingRate,
		},
	})
	elapsed := time.Since(start)
	if err != nil {
		return tts.Result{}, err
	}
	if len(resp.AudioContent) == 0 {
		return tts.Result{}, tts.ErrEmptyAudio
	}

	log.Debug().
		Str("service", serviceName).
		Dur("elapsed", elapsed).
		Int("bytes", len(resp.AudioContent)).
		Msg("Synthesis completed")

	return tts.Result{Audio: resp.AudioContent, Service: serviceName, Latency: elapsed}, nil
}

// Close releases the underlying client connection.
func (s *Synthesizer) Close() error {
	return s.client.Close()
}
