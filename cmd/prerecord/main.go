// Command prerecord generates the prerecorded audio library used to
// skip synthesis for common agent responses. Run it once against a
// working TTS backend; existing files are kept.
package main

import (
	"context"
	"flag"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"insurance-voice-agent/internal/app"
	"insurance-voice-agent/internal/config"
	"insurance-voice-agent/internal/phrase"
	"insurance-voice-agent/internal/service/tts"
	"insurance-voice-agent/internal/service/tts/chatterbox"
	ttsgoogle "insurance-voice-agent/internal/service/tts/google"
)

func main() {
	force := flag.Bool("force", false, "regenerate files that already exist")
	flag.Parse()

	cfg := config.Load()
	app.New(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	var synthesizers []tts.Synthesizer
	gtts, err := ttsgoogle.New(ctx, ttsgoogle.Config{
		LanguageCode: cfg.TTS.LanguageCode,
		SampleRateHz: cfg.Audio.SampleRateHz,
	})
	if err != nil {
		log.Warn().Err(err).Msg("Google TTS unavailable, using Chatterbox only")
	} else {
		defer gtts.Close()
		synthesizers = append(synthesizers, gtts)
	}
	synthesizers = append(synthesizers, chatterbox.New(chatterbox.Config{
		BaseURL: cfg.TTS.ChatterboxURL,
	}))
	chain := tts.NewChain(synthesizers...)

	dir := cfg.TTS.PrerecordedDir
	entries := phrase.All()

	var generated, skipped, failed int
	for _, e := range entries {
		path := filepath.Join(dir, filepath.FromSlash(e.File))

		if !*force {
			if _, err := os.Stat(path); err == nil {
				log.Info().Str("key", e.Key).Msg("Already exists, skipping")
				skipped++
				continue
			}
		}

		res, err := chain.Synthesize(ctx, e.Text)
		if err != nil {
			log.Error().Err(err).Str("key", e.Key).Msg("Synthesis failed")
			failed++
			continue
		}

		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			log.Error().Err(err).Str("key", e.Key).Msg("Failed to create directory")
			failed++
			continue
		}
		if err := os.WriteFile(path, res.Audio, 0o644); err != nil {
			log.Error().Err(err).Str("key", e.Key).Msg("Failed to write audio")
			failed++
			continue
		}

		log.Info().Str("key", e.Key).Str("service", res.Service).Str("path", path).Msg("Generated")
		generated++
	}

	log.Info().
		Int("generated", generated).
		Int("skipped", skipped).
		Int("failed", failed).
		Int("total", len(entries)).
		Str("dir", dir).
		Msg("Prerecorded audio generation complete")

	if failed > 0 {
		os.Exit(1)
	}
}
