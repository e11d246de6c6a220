package events

import (
	"context"
	"testing"

	"insurance-voice-agent/internal/models"
)

func TestNew_DisabledMode(t *testing.T) {
	tests := []struct {
		name string
		cfg  *Config
	}{
		{"disabled", &Config{Enabled: false, Brokers: []string{"localhost:9092"}}},
		{"no brokers", &Config{Enabled: true, Brokers: []string{}}},
		{"empty brokers", &Config{Enabled: true, Brokers: nil}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(tt.cfg)
			if p == nil {
				t.Fatal("expected non-nil publisher")
			}
			if p.enabled {
				t.Error("expected publisher to be disabled")
			}
			if p.writerUser != nil {
				t.Error("expected nil user writer when disabled")
			}
			if p.writerAgent != nil {
				t.Error("expected nil agent writer when disabled")
			}
		})
	}
}

func TestNew_NilConfig(t *testing.T) {
	p := New(nil)
	if p == nil {
		t.Fatal("expected non-nil publisher")
	}
	if p.enabled {
		t.Error("expected publisher to be disabled")
	}
}

func TestNew_ConfigValues(t *testing.T) {
	cfg := &Config{
		Enabled:    false,
		Brokers:    []string{"localhost:9092"},
		TopicUser:  "test.user",
		TopicAgent: "test.agent",
		Principal:  "test-principal",
	}

	p := New(cfg)

	if p.principal != "test-principal" {
		t.Errorf("expected principal 'test-principal', got %s", p.principal)
	}
	if p.topicUser != "test.user" {
		t.Errorf("expected user topic 'test.user', got %s", p.topicUser)
	}
	if p.topicAgent != "test.agent" {
		t.Errorf("expected agent topic 'test.agent', got %s", p.topicAgent)
	}
}

func TestPublisher_PublishDisabled(t *testing.T) {
	p := New(&Config{Enabled: false, TopicUser: "u", TopicAgent: "a"})
	ctx := context.Background()

	ev := models.UserTurn{
		EventType: "conversation.turn.user",
		SessionID: "web_abc",
		Turn:      1,
		Text:      "I want to file a claim",
	}

	// Log-only mode must never error.
	if err := p.PublishUserTurn(ctx, ev.SessionID, ev); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := p.PublishAgentTurn(ctx, ev.SessionID, models.AgentTurn{}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := p.PublishSessionEvent(ctx, ev.SessionID, models.SessionEvent{}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestPublisher_PublishUnmarshalable(t *testing.T) {
	p := New(&Config{Enabled: false})

	// Channels cannot be marshaled to JSON.
	if err := p.PublishUserTurn(context.Background(), "k", make(chan int)); err == nil {
		t.Error("expected marshal error")
	}
}

func TestPublisher_CloseDisabled(t *testing.T) {
	p := New(&Config{Enabled: false})
	if err := p.Close(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
