package stt

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"insurance-voice-agent/internal/observability/metrics"
)

// ErrNoTranscribers is returned when the chain has no providers.
var ErrNoTranscribers = errors.New("no transcribers configured")

// ErrAllTranscribersFailed is returned when every provider in the
// chain failed.
var ErrAllTranscribersFailed = errors.New("all transcribers failed")

// Chain tries transcribers in order until one succeeds.
type Chain struct {
	transcribers []Transcriber
	metrics      *metrics.Metrics
}

// NewChain builds a fallback chain. Order matters: the first entry is
// the primary provider.
func NewChain(transcribers ...Transcriber) *Chain {
	return &Chain{
		transcribers: transcribers,
		metrics:      metrics.DefaultMetrics,
	}
}

// Transcribe implements Transcriber. The first provider that returns
// text wins; its result is marked FallbackTriggered when it was not
// the primary.
func (c *Chain) Transcribe(ctx context.Context, wav []byte) (Result, error) {
	if len(c.transcribers) == 0 {
		return Result{}, ErrNoTranscribers
	}
	if len(wav) == 0 {
		return Result{}, ErrEmptyAudio
	}

	var errs []error
	for i, t := range c.transcribers {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		res, err := t.Transcribe(ctx, wav)
		if err != nil {
			c.metrics.RecordSTT(t.Name(), err, 0)
			log.Warn().Err(err).Str("service", t.Name()).Msg("Transcriber failed, trying next")
			errs = append(errs, fmt.Errorf("%s: %w", t.Name(), err))
			continue
		}

		res.FallbackTriggered = i > 0
		c.metrics.RecordSTT(t.Name(), nil, res.Latency)
		if res.FallbackTriggered {
			c.metrics.STTFallbacks.Inc()
			log.Info().Str("service", t.Name()).Msg("Fallback transcriber produced the result")
		}
		return res, nil
	}

	return Result{}, fmt.Errorf("%w: %w", ErrAllTranscribersFailed, errors.Join(errs...))
}

// Name implements Transcriber.
func (c *Chain) Name() string { return "chain" }
