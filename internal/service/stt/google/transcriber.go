// Package google provides a Google Cloud Speech-to-Text transcriber.
package google

import (
	"context"
	"strings"
	"time"

	speech "cloud.google.com/go/speech/apiv1"
	"github.com/rs/zerolog/log"
	speechpb "google.golang.org/genproto/googleapis/cloud/speech/v1"

	"insurance-voice-agent/internal/audio"
	"insurance-voice-agent/internal/service/stt"
)

const serviceName = "google"

// Transcriber implements stt.Transcriber using the synchronous
// Recognize API.
type Transcriber struct {
	client       *speech.Client
	sampleRateHz int
}

// New creates a Google STT transcriber.
// Requires GOOGLE_APPLICATION_CREDENTIALS environment variable to be set.
func New(ctx context.Context, sampleRateHz int) (*Transcriber, error) {
	c, err := speech.NewClient(ctx)
	if err != nil {
		return nil, err
	}
	return &Transcriber{client: c, sampleRateHz: sampleRateHz}, nil
}

// Name implements stt.Transcriber.
func (t *Transcriber) Name() string { return serviceName }

// Transcribe implements stt.Transcriber. The WAV payload is decoded
// locally and only the raw PCM content is sent upstream.
func (t *Transcriber) Transcribe(ctx context.Context, wav []byte) (stt.Result, error) {
	if len(wav) == 0 {
		return stt.Result{}, stt.ErrEmptyAudio
	}

	clip, err := audio.Decode(wav)
	if err != nil {
		return stt.Result{}, err
	}

	start := time.Now()
	resp, err := t.client.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:        speechpb.RecognitionConfig_LINEAR16,
			SampleRateHertz: int32(clip.SampleRate),
			LanguageCode:    "en-US",
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: clip.Data},
		},
	})
	elapsed := time.Since(start)
	if err != nil {
		return stt.Result{}, err
	}

	var sb strings.Builder
	for _, r := range resp.Results {
		if len(r.Alternatives) == 0 {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString(" ")
		}
		sb.WriteString(r.Alternatives[0].Transcript)
	}

	text := strings.TrimSpace(sb.String())
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

// Close releases the underlying client connection.
func (t *Transcriber) Close() error {
	return t.client.Close()
}
