// Package events provides conversation event publishing.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"

	"insurance-voice-agent/internal/observability/metrics"
)

// Publisher publishes conversation events to separate Kafka topics.
type Publisher struct {
	writerUser  *kafka.Writer
	writerAgent *kafka.Writer
	principal   string
	topicUser   string
	topicAgent  string
	enabled     bool
	metrics     *metrics.Metrics
}

// Config holds Kafka publisher configuration.
type Config struct {
	Brokers    []string
	TopicUser  string
	TopicAgent string
	Principal  string
	Enabled    bool
}

// New creates a Kafka publisher with separate topics for user and agent
// turns. With Kafka disabled (or no brokers) events are logged only.
func New(cfg *Config) *Publisher {
	m := metrics.DefaultMetrics

	if cfg == nil {
		log.Info().Msg("Kafka disabled (nil config), using log-only mode")
		return &Publisher{
			enabled: false,
			metrics: m,
		}
	}

	if !cfg.Enabled || len(cfg.Brokers) == 0 {
		log.Info().Msg("Kafka disabled, using log-only mode")
		return &Publisher{
			principal:  cfg.Principal,
			topicUser:  cfg.TopicUser,
			topicAgent: cfg.TopicAgent,
			enabled:    false,
			metrics:    m,
		}
	}

	// Longer dial timeouts for DNS resolution in Kubernetes
	dialer := &kafka.Dialer{
		Timeout:   10 * time.Second,
		DualStack: true,
	}

	transport := &kafka.Transport{
		Dial: dialer.DialFunc,
	}

	writerUser := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.TopicUser,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireOne,
		Transport:    transport,
	}

	writerAgent := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.TopicAgent,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireOne,
		Transport:    transport,
	}

	log.Info().
		Strs("brokers", cfg.Brokers).
		Str("topicUser", cfg.TopicUser).
		Str("topicAgent", cfg.TopicAgent).
		Str("principal", cfg.Principal).
		Msg("Kafka publisher initialized")

	return &Publisher{
		writerUser:  writerUser,
		writerAgent: writerAgent,
		principal:   cfg.Principal,
		topicUser:   cfg.TopicUser,
		topicAgent:  cfg.TopicAgent,
		enabled:     true,
		metrics:     m,
	}
}

// PublishUserTurn publishes a user turn event to the user topic.
func (p *Publisher) PublishUserTurn(ctx context.Context, key string, event any) error {
	return p.publish(ctx, p.writerUser, p.topicUser, "user", key, event)
}

// PublishAgentTurn publishes an agent turn event to the agent topic.
func (p *Publisher) PublishAgentTurn(ctx context.Context, key string, event any) error {
	return p.publish(ctx, p.writerAgent, p.topicAgent, "agent", key, event)
}

// PublishSessionEvent publishes a session lifecycle event to the agent topic.
func (p *Publisher) PublishSessionEvent(ctx context.Context, key string, event any) error {
	return p.publish(ctx, p.writerAgent, p.topicAgent, "session", key, event)
}

// publish is the internal method that writes to a specific Kafka writer.
func (p *Publisher) publish(ctx context.Context, writer *kafka.Writer, topic, eventType, key string, event any) error {
	start := time.Now()

	payload, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("topic", topic).Msg("Failed to marshal event")
		return err
	}

	log.Debug().
		Str("principal", p.principal).
		Str("topic", topic).
		Str("key", key).
		RawJSON("payload", payload).
		Msg("Publishing event")

	// If Kafka is disabled, just log
	if !p.enabled || writer == nil {
		p.metrics.RecordKafkaPublish(topic, eventType, nil, time.Since(start).Seconds())
		return nil
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "eventType", Value: []byte(eventType)},
			{Key: "principal", Value: []byte(p.principal)},
		},
	}

	if err := writer.WriteMessages(ctx, msg); err != nil {
		log.Error().
			Err(err).
			Str("topic", topic).
			Str("key", key).
			Msg("Failed to write to Kafka")
		p.metrics.RecordKafkaPublish(topic, eventType, err, time.Since(start).Seconds())
		return err
	}

	p.metrics.RecordKafkaPublish(topic, eventType, nil, time.Since(start).Seconds())
	return nil
}

// Close closes both Kafka writers.
func (p *Publisher) Close() error {
	var err error
	if p.writerUser != nil {
		if e := p.writerUser.Close(); e != nil {
			log.Error().Err(e).Msg("Error closing user turn writer")
			err = e
		}
	}
	if p.writerAgent != nil {
		if e := p.writerAgent.Close(); e != nil {
			log.Error().Err(e).Msg("Error closing agent turn writer")
			err = e
		}
	}
	return err
}
