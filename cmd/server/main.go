package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	api "insurance-voice-agent/internal/api/http"
	"insurance-voice-agent/internal/app"
	"insurance-voice-agent/internal/config"
	"insurance-voice-agent/internal/conversation"
	"insurance-voice-agent/internal/events"
	"insurance-voice-agent/internal/llm"
	"insurance-voice-agent/internal/observability"
	"insurance-voice-agent/internal/phrase"
	"insurance-voice-agent/internal/rag"
	"insurance-voice-agent/internal/service/stt"
	sttgoogle "insurance-voice-agent/internal/service/stt/google"
	"insurance-voice-agent/internal/service/stt/whisper"
	"insurance-voice-agent/internal/service/tts"
	"insurance-voice-agent/internal/service/tts/chatterbox"
	ttsgoogle "insurance-voice-agent/internal/service/tts/google"
	"insurance-voice-agent/internal/session"
	"insurance-voice-agent/internal/vad"
)

func main() {
	cfg := config.Load()

	application := app.New(cfg)
	if err := application.Start(); err != nil {
		log.Fatal().Err(err).Msg("Startup failed")
	}
	defer application.Shutdown()

	ctx := context.Background()

	// Vector store and retrieval
	store, err := rag.NewChromaStore(ctx, cfg.RAG.ChromaURL, cfg.RAG.Collection)
	if err != nil {
		log.Fatal().Err(err).Str("url", cfg.RAG.ChromaURL).Msg("Chroma connection failed")
	}
	embedder := rag.NewOpenAIEmbedder(cfg.RAG.EmbeddingURL, cfg.LLM.APIKey, cfg.RAG.EmbeddingModel)
	searcher := rag.NewSearcher(store, embedder, cfg.RAG.TopK)

	// Answer generation
	generator := llm.NewClient(llm.Config{
		BaseURL:     cfg.LLM.BaseURL,
		APIKey:      cfg.LLM.APIKey,
		Model:       cfg.LLM.Model,
		MaxTokens:   cfg.LLM.MaxTokens,
		Temperature: cfg.LLM.Temperature,
		TopP:        cfg.LLM.TopP,
		Referer:     cfg.LLM.Referer,
		Title:       cfg.LLM.Title,
	})

	// Speech-to-text: Whisper first, Google as fallback when available
	transcribers := []stt.Transcriber{
		whisper.New(whisper.Config{
			BaseURL: cfg.STT.WhisperURL,
			APIKey:  cfg.LLM.APIKey,
			Model:   cfg.STT.WhisperModel,
		}),
	}
	if cfg.STT.Fallback == "google" {
		gstt, err := sttgoogle.New(ctx, cfg.Audio.SampleRateHz)
		if err != nil {
			log.Warn().Err(err).Msg("Google STT unavailable, continuing without fallback")
		} else {
			defer gstt.Close()
			transcribers = append(transcribers, gstt)
		}
	}
	transcriber := stt.NewChain(transcribers...)

	// Text-to-speech: Google first, Chatterbox as fallback
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
	synthesizer := tts.NewChain(synthesizers...)

	phrases := phrase.NewLibrary(cfg.TTS.PrerecordedDir)

	publisher := events.New(&events.Config{
		Enabled:    cfg.Kafka.Enabled,
		Brokers:    cfg.Kafka.Brokers,
		TopicUser:  cfg.Kafka.TopicUser,
		TopicAgent: cfg.Kafka.TopicAgent,
		Principal:  cfg.Kafka.Principal,
	})
	defer publisher.Close()

	// Conversation workflow
	workflow := conversation.NewWorkflow(searcher, generator, transcriber, synthesizer, phrases, publisher)
	graph, err := workflow.BuildGraph()
	if err != nil {
		log.Fatal().Err(err).Msg("Workflow graph failed to compile")
	}

	sessions := session.NewManager(session.Config{
		TTL:      cfg.Conversation.SessionTTL,
		LogDir:   cfg.Service.LogDir,
		MaxTurns: cfg.Conversation.MaxTurns,
	})
	defer sessions.Close()

	// HTTP API
	var sttNames, ttsNames []string
	for _, t := range transcribers {
		sttNames = append(sttNames, t.Name())
	}
	for _, s := range synthesizers {
		ttsNames = append(ttsNames, s.Name())
	}
	services := map[string]string{
		"stt": strings.Join(sttNames, "+"),
		"tts": strings.Join(ttsNames, "+"),
		"llm": cfg.LLM.Model,
	}

	handler := api.NewHandler(
		sessions,
		graph,
		searcher,
		generator,
		store,
		vad.Config{
			EnergyThreshold: cfg.VAD.EnergyThreshold,
			SilenceWindow:   cfg.VAD.SilenceWindow,
			MaxDuration:     cfg.Audio.MaxRecording,
			FrameDuration:   cfg.VAD.FrameDuration,
		},
		cfg.Service.AudioOutputDir,
		cfg.LLM.APIKey != "",
		services,
	)

	server := &http.Server{
		Addr:         ":" + cfg.Service.HTTPPort,
		Handler:      api.NewRouter(handler),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	metricsServer := observability.NewServer(":" + cfg.Service.MetricsPort)
	metricsServer.Start()

	go func() {
		log.Info().Str("addr", server.Addr).Msg("Insurance voice agent API started")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Metrics server shutdown error")
	}
}
