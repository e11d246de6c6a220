package tts

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"insurance-voice-agent/internal/observability/metrics"
)

// ErrNoSynthesizers is returned when the chain has no providers.
var ErrNoSynthesizers = errors.New("no synthesizers configured")

// ErrAllSynthesizersFailed is returned when every provider in the
// chain failed.
var ErrAllSynthesizersFailed = errors.New("all synthesizers failed")

// Chain tries synthesizers in order until one succeeds.
type Chain struct {
	synthesizers []Synthesizer
	metrics      *metrics.Metrics
}

// NewChain builds a fallback chain. Order matters: the first entry is
// the primary provider.
func NewChain(synthesizers ...Synthesizer) *Chain {
	return &Chain{
		synthesizers: synthesizers,
		metrics:      metrics.DefaultMetrics,
	}
}

// Synthesize implements Synthesizer. The first provider that produces
// audio wins; its result is marked FallbackTriggered when it was not
// the primary.
func (c *Chain) Synthesize(ctx context.Context, text string) (Result, error) {
	if len(c.synthesizers) == 0 {
		return Result{}, ErrNoSynthesizers
	}
	if strings.TrimSpace(text) == "" {
		return Result{}, ErrEmptyText
	}

	var errs []error
	for i, s := range c.synthesizers {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		res, err := s.Synthesize(ctx, text)
		if err != nil {
			c.metrics.RecordTTS(s.Name(), err, 0)
			log.Warn().Err(err).Str("service", s.Name()).Msg("Synthesizer failed, trying next")
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
			continue
		}

		res.FallbackTriggered = i > 0
		c.metrics.RecordTTS(s.Name(), nil, res.Latency)
		if res.FallbackTriggered {
			c.metrics.TTSFallbacks.Inc()
			log.Info().Str("service", s.Name()).Msg("Fallback synthesizer produced the audio")
		}
		return res, nil
	}

	return Result{}, fmt.Errorf("%w: %w", ErrAllSynthesizersFailed, errors.Join(errs...))
}

// Name implements Synthesizer.
func (c *Chain) Name() string { return "chain" }
