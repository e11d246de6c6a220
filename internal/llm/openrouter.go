// Package llm generates grounded answers through OpenRouter.
package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"

	"insurance-voice-agent/internal/observability/metrics"
)

// ErrNoChoices is returned when the completion response is empty.
var ErrNoChoices = errors.New("completion returned no choices")

// Generator produces answers for user queries.
type Generator interface {
	// GenerateAnswer answers the query using only the retrieved docs.
	GenerateAnswer(ctx context.Context, query string, docs []string) (string, error)
}

// Config holds OpenRouter client settings.
type Config struct {
	BaseURL     string
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float32
	TopP        float32
	Referer     string
	Title       string
}

// Client is a Generator backed by the OpenRouter chat completions API.
type Client struct {
	client  *openai.Client
	cfg     Config
	metrics *metrics.Metrics
}

// headerTransport injects the OpenRouter attribution headers.
type headerTransport struct {
	base    http.RoundTripper
	referer string
	title   string
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.referer != "" {
		req.Header.Set("HTTP-Referer", t.referer)
	}
	if t.title != "" {
		req.Header.Set("X-Title", t.title)
	}
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(req)
}

// NewClient creates an OpenRouter-backed generator.
func NewClient(cfg Config) *Client {
	oc := openai.DefaultConfig(cfg.APIKey)
	oc.BaseURL = cfg.BaseURL
	oc.HTTPClient = &http.Client{
		Timeout: 60 * time.Second,
		Transport: &headerTransport{
			referer: cfg.Referer,
			title:   cfg.Title,
		},
	}

	return &Client{
		client:  openai.NewClientWithConfig(oc),
		cfg:     cfg,
		metrics: metrics.DefaultMetrics,
	}
}

// GenerateAnswer implements Generator. On transport or API failure it
// returns the canned apology together with the error so callers can
// keep the call going while still observing the failure.
func (c *Client) GenerateAnswer(ctx context.Context, query string, docs []string) (string, error) {
	start := time.Now()

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: SystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: BuildUserMessage(query, docs)},
		},
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: c.cfg.Temperature,
		TopP:        c.cfg.TopP,
	})
	elapsed := time.Since(start)

	if err != nil {
		c.metrics.LLMRequests.WithLabelValues("failed").Inc()
		log.Error().Err(err).Str("model", c.cfg.Model).Msg("LLM generation failed")
		return ApologyResponse, err
	}
	if len(resp.Choices) == 0 {
		c.metrics.LLMRequests.WithLabelValues("failed").Inc()
		return ApologyResponse, ErrNoChoices
	}

	c.metrics.LLMRequests.WithLabelValues("success").Inc()
	c.metrics.LLMLatency.Observe(elapsed.Seconds())

	answer := strings.TrimSpace(resp.Choices[0].Message.Content)
	log.Debug().
		Str("model", c.cfg.Model).
		Int("docs", len(docs)).
		Dur("elapsed", elapsed).
		Int("answerLength", len(answer)).
		Msg("LLM answer generated")

	return answer, nil
}
