// Package config loads service configuration from the environment.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Configuration holds all settings for the voice agent service.
type Configuration struct {
	Service       ServiceConfig
	Audio         AudioConfig
	VAD           VADConfig
	Conversation  ConversationConfig
	LLM           LLMConfig
	RAG           RAGConfig
	STT           STTConfig
	TTS           TTSConfig
	Kafka         KafkaConfig
	Observability ObservabilityConfig
}

// ServiceConfig holds process-level settings.
type ServiceConfig struct {
	Principal      string
	HTTPPort       string
	MetricsPort    string
	AudioOutputDir string
	LogDir         string
}

// AudioConfig holds audio format settings.
type AudioConfig struct {
	SampleRateHz int
	MaxRecording time.Duration
}

// VADConfig holds voice activity detection settings.
type VADConfig struct {
	EnergyThreshold float64
	SilenceWindow   time.Duration
	FrameDuration   time.Duration
}

// ConversationConfig holds call flow settings.
type ConversationConfig struct {
	MaxTurns   int
	SessionTTL time.Duration
}

// LLMConfig holds OpenRouter settings.
type LLMConfig struct {
	BaseURL     string
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float32
	TopP        float32
	Referer     string
	Title       string
}

// RAGConfig holds vector store and embedding settings.
type RAGConfig struct {
	ChromaURL      string
	Collection     string
	TopK           int
	EmbeddingURL   string
	EmbeddingModel string
}

// STTConfig holds speech-to-text settings.
type STTConfig struct {
	WhisperURL   string
	WhisperModel string
	LanguageCode string
	Fallback     string
}

// TTSConfig holds text-to-speech settings.
type TTSConfig struct {
	LanguageCode   string
	ChatterboxURL  string
	PrerecordedDir string
}

// KafkaConfig holds event publishing settings.
type KafkaConfig struct {
	Enabled    bool
	Brokers    []string
	TopicUser  string
	TopicAgent string
	Principal  string
}

// ObservabilityConfig holds logging settings.
type ObservabilityConfig struct {
	LogLevel string
}

// Load reads configuration from the environment, applying defaults.
// An optional .env file is loaded first when ENV_FILE points at one.
func Load() *Configuration {
	if path := os.Getenv("ENV_FILE"); path != "" {
		_ = godotenv.Load(path)
	}

	principal := envOrDefault("SERVICE_PRINCIPAL", "svc-voice-agent")

	return &Configuration{
		Service: ServiceConfig{
			Principal:      principal,
			HTTPPort:       envOrDefault("HTTP_PORT", "8000"),
			MetricsPort:    envOrDefault("METRICS_PORT", "9090"),
			AudioOutputDir: envOrDefault("AUDIO_OUTPUT_DIR", "api_audio_output"),
			LogDir:         envOrDefault("LOG_DIR", "logs"),
		},
		Audio: AudioConfig{
			SampleRateHz: envOrDefaultInt("AUDIO_SAMPLE_RATE_HZ", 16000),
			MaxRecording: envOrDefaultDuration("AUDIO_MAX_RECORDING", 15*time.Second),
		},
		VAD: VADConfig{
			EnergyThreshold: envOrDefaultFloat("VAD_ENERGY_THRESHOLD", 0.02),
			SilenceWindow:   envOrDefaultDuration("VAD_SILENCE_WINDOW", 2*time.Second),
			FrameDuration:   envOrDefaultDuration("VAD_FRAME_DURATION", 100*time.Millisecond),
		},
		Conversation: ConversationConfig{
			MaxTurns:   envOrDefaultInt("CONVERSATION_MAX_TURNS", 5),
			SessionTTL: envOrDefaultDuration("SESSION_TTL", 30*time.Minute),
		},
		LLM: LLMConfig{
			BaseURL:     envOrDefault("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1"),
			APIKey:      os.Getenv("OPENROUTER_API_KEY"),
			Model:       envOrDefault("LLM_MODEL", "openai/gpt-4o-mini"),
			MaxTokens:   envOrDefaultInt("LLM_MAX_TOKENS", 150),
			Temperature: float32(envOrDefaultFloat("LLM_TEMPERATURE", 0.7)),
			TopP:        float32(envOrDefaultFloat("LLM_TOP_P", 0.9)),
			Referer:     envOrDefault("OPENROUTER_REFERER", "http://localhost:8888"),
			Title:       envOrDefault("OPENROUTER_TITLE", "Insurance Assistant"),
		},
		RAG: RAGConfig{
			ChromaURL:      envOrDefault("CHROMA_URL", "http://localhost:8001"),
			Collection:     envOrDefault("CHROMA_COLLECTION", "insurance_docs"),
			TopK:           envOrDefaultInt("RAG_TOP_K", 3),
			EmbeddingURL:   envOrDefault("EMBEDDING_BASE_URL", "http://localhost:8080/v1"),
			EmbeddingModel: envOrDefault("EMBEDDING_MODEL", "sentence-transformers/all-MiniLM-L6-v2"),
		},
		STT: STTConfig{
			WhisperURL:   envOrDefault("WHISPER_BASE_URL", "http://localhost:9000/v1"),
			WhisperModel: envOrDefault("WHISPER_MODEL", "whisper-1"),
			LanguageCode: envOrDefault("STT_LANGUAGE_CODE", "en-US"),
			Fallback:     envOrDefault("STT_FALLBACK", "google"),
		},
		TTS: TTSConfig{
			LanguageCode:   envOrDefault("TTS_LANGUAGE_CODE", "en-US"),
			ChatterboxURL:  envOrDefault("CHATTERBOX_URL", "http://localhost:4123/v1"),
			PrerecordedDir: envOrDefault("PRERECORDED_DIR", "prerecorded_audio"),
		},
		Kafka: KafkaConfig{
			Enabled:    envOrDefaultBool("KAFKA_ENABLED", false),
			Brokers:    splitNonEmpty(os.Getenv("KAFKA_BROKERS")),
			TopicUser:  envOrDefault("KAFKA_TOPIC_USER", "conversation.turn.user"),
			TopicAgent: envOrDefault("KAFKA_TOPIC_AGENT", "conversation.turn.agent"),
			Principal:  envOrDefault("KAFKA_PRINCIPAL", principal),
		},
		Observability: ObservabilityConfig{
			LogLevel: envOrDefault("LOG_LEVEL", "info"),
		},
	}
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envOrDefaultInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envOrDefaultFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func envOrDefaultBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func envOrDefaultDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func splitNonEmpty(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
