package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	envVars := []string{
		"SERVICE_PRINCIPAL", "HTTP_PORT", "METRICS_PORT", "LOG_LEVEL",
		"AUDIO_SAMPLE_RATE_HZ", "AUDIO_MAX_RECORDING",
		"VAD_ENERGY_THRESHOLD", "VAD_SILENCE_WINDOW", "VAD_FRAME_DURATION",
		"CONVERSATION_MAX_TURNS", "SESSION_TTL",
		"LLM_MODEL", "LLM_MAX_TOKENS", "RAG_TOP_K", "CHROMA_COLLECTION",
		"KAFKA_ENABLED", "KAFKA_BROKERS", "KAFKA_PRINCIPAL",
	}
	for _, v := range envVars {
		os.Unsetenv(v)
	}

	cfg := Load()

	if cfg.Service.Principal != "svc-voice-agent" {
		t.Errorf("expected default principal 'svc-voice-agent', got %s", cfg.Service.Principal)
	}
	if cfg.Service.HTTPPort != "8000" {
		t.Errorf("expected default port '8000', got %s", cfg.Service.HTTPPort)
	}
	if cfg.Audio.SampleRateHz != 16000 {
		t.Errorf("expected default sample rate 16000, got %d", cfg.Audio.SampleRateHz)
	}
	if cfg.Audio.MaxRecording != 15*time.Second {
		t.Errorf("expected default max recording 15s, got %v", cfg.Audio.MaxRecording)
	}
	if cfg.VAD.EnergyThreshold != 0.02 {
		t.Errorf("expected default energy threshold 0.02, got %v", cfg.VAD.EnergyThreshold)
	}
	if cfg.VAD.SilenceWindow != 2*time.Second {
		t.Errorf("expected default silence window 2s, got %v", cfg.VAD.SilenceWindow)
	}
	if cfg.Conversation.MaxTurns != 5 {
		t.Errorf("expected default max turns 5, got %d", cfg.Conversation.MaxTurns)
	}
	if cfg.LLM.Model != "openai/gpt-4o-mini" {
		t.Errorf("expected default model 'openai/gpt-4o-mini', got %s", cfg.LLM.Model)
	}
	if cfg.LLM.MaxTokens != 150 {
		t.Errorf("expected default max tokens 150, got %d", cfg.LLM.MaxTokens)
	}
	if cfg.RAG.TopK != 3 {
		t.Errorf("expected default top k 3, got %d", cfg.RAG.TopK)
	}
	if cfg.RAG.Collection != "insurance_docs" {
		t.Errorf("expected default collection 'insurance_docs', got %s", cfg.RAG.Collection)
	}
	if cfg.Kafka.Enabled {
		t.Error("expected Kafka disabled by default")
	}
	if cfg.Observability.LogLevel != "info" {
		t.Errorf("expected default log level 'info', got %s", cfg.Observability.LogLevel)
	}
}

func TestLoad_CustomValues(t *testing.T) {
	os.Setenv("SERVICE_PRINCIPAL", "custom-principal")
	os.Setenv("HTTP_PORT", "9999")
	os.Setenv("AUDIO_SAMPLE_RATE_HZ", "8000")
	os.Setenv("VAD_ENERGY_THRESHOLD", "0.05")
	os.Setenv("VAD_SILENCE_WINDOW", "3s")
	os.Setenv("CONVERSATION_MAX_TURNS", "10")
	os.Setenv("LLM_MODEL", "openai/gpt-4o")
	os.Setenv("KAFKA_ENABLED", "true")
	os.Setenv("KAFKA_BROKERS", "broker1:9092, broker2:9092")
	os.Setenv("LOG_LEVEL", "debug")

	defer func() {
		for _, v := range []string{
			"SERVICE_PRINCIPAL", "HTTP_PORT", "AUDIO_SAMPLE_RATE_HZ",
			"VAD_ENERGY_THRESHOLD", "VAD_SILENCE_WINDOW", "CONVERSATION_MAX_TURNS",
			"LLM_MODEL", "KAFKA_ENABLED", "KAFKA_BROKERS", "LOG_LEVEL",
		} {
			os.Unsetenv(v)
		}
	}()

	cfg := Load()

	if cfg.Service.Principal != "custom-principal" {
		t.Errorf("expected principal 'custom-principal', got %s", cfg.Service.Principal)
	}
	if cfg.Service.HTTPPort != "9999" {
		t.Errorf("expected port '9999', got %s", cfg.Service.HTTPPort)
	}
	if cfg.Audio.SampleRateHz != 8000 {
		t.Errorf("expected sample rate 8000, got %d", cfg.Audio.SampleRateHz)
	}
	if cfg.VAD.EnergyThreshold != 0.05 {
		t.Errorf("expected energy threshold 0.05, got %v", cfg.VAD.EnergyThreshold)
	}
	if cfg.VAD.SilenceWindow != 3*time.Second {
		t.Errorf("expected silence window 3s, got %v", cfg.VAD.SilenceWindow)
	}
	if cfg.Conversation.MaxTurns != 10 {
		t.Errorf("expected max turns 10, got %d", cfg.Conversation.MaxTurns)
	}
	if cfg.LLM.Model != "openai/gpt-4o" {
		t.Errorf("expected model 'openai/gpt-4o', got %s", cfg.LLM.Model)
	}
	if !cfg.Kafka.Enabled {
		t.Error("expected Kafka enabled")
	}
	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[0] != "broker1:9092" || cfg.Kafka.Brokers[1] != "broker2:9092" {
		t.Errorf("expected two trimmed brokers, got %v", cfg.Kafka.Brokers)
	}
	if cfg.Observability.LogLevel != "debug" {
		t.Errorf("expected log level 'debug', got %s", cfg.Observability.LogLevel)
	}
}

func TestLoad_InvalidValues_FallbackToDefaults(t *testing.T) {
	os.Setenv("AUDIO_SAMPLE_RATE_HZ", "not-a-number")
	os.Setenv("VAD_ENERGY_THRESHOLD", "invalid")
	os.Setenv("VAD_SILENCE_WINDOW", "invalid")
	os.Setenv("CONVERSATION_MAX_TURNS", "invalid")
	os.Setenv("KAFKA_ENABLED", "invalid")

	defer func() {
		for _, v := range []string{
			"AUDIO_SAMPLE_RATE_HZ", "VAD_ENERGY_THRESHOLD",
			"VAD_SILENCE_WINDOW", "CONVERSATION_MAX_TURNS", "KAFKA_ENABLED",
		} {
			os.Unsetenv(v)
		}
	}()

	cfg := Load()

	if cfg.Audio.SampleRateHz != 16000 {
		t.Errorf("expected default sample rate on invalid input, got %d", cfg.Audio.SampleRateHz)
	}
	if cfg.VAD.EnergyThreshold != 0.02 {
		t.Errorf("expected default threshold on invalid input, got %v", cfg.VAD.EnergyThreshold)
	}
	if cfg.VAD.SilenceWindow != 2*time.Second {
		t.Errorf("expected default silence window on invalid input, got %v", cfg.VAD.SilenceWindow)
	}
	if cfg.Conversation.MaxTurns != 5 {
		t.Errorf("expected default max turns on invalid input, got %d", cfg.Conversation.MaxTurns)
	}
	if cfg.Kafka.Enabled {
		t.Error("expected Kafka disabled on invalid input")
	}
}

func TestLoad_KafkaPrincipal_FallsBackToServicePrincipal(t *testing.T) {
	os.Setenv("SERVICE_PRINCIPAL", "my-service")
	os.Unsetenv("KAFKA_PRINCIPAL")

	defer os.Unsetenv("SERVICE_PRINCIPAL")

	cfg := Load()

	if cfg.Kafka.Principal != "my-service" {
		t.Errorf("expected Kafka principal to fall back to service principal, got %s", cfg.Kafka.Principal)
	}
}

func TestEnvOrDefaultBool(t *testing.T) {
	tests := []struct {
		name     string
		envValue string
		def      bool
		expected bool
	}{
		{"true string", "true", false, true},
		{"false string", "false", true, false},
		{"1", "1", false, true},
		{"0", "0", true, false},
		{"TRUE uppercase", "TRUE", false, true},
		{"invalid", "invalid", true, true},
		{"empty", "", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := "TEST_BOOL_VAR"
			if tt.envValue != "" {
				os.Setenv(key, tt.envValue)
			} else {
				os.Unsetenv(key)
			}
			defer os.Unsetenv(key)

			got := envOrDefaultBool(key, tt.def)
			if got != tt.expected {
				t.Errorf("envOrDefaultBool(%s, %v) = %v, want %v", tt.envValue, tt.def, got, tt.expected)
			}
		})
	}
}
