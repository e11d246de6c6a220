package rag

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"insurance-voice-agent/internal/observability/metrics"
)

// Searcher runs semantic search over the insurance document collection.
type Searcher struct {
	store    VectorStore
	embedder Embedder
	topK     int
	metrics  *metrics.Metrics
}

// NewSearcher creates a semantic searcher returning topK hits per query.
func NewSearcher(store VectorStore, embedder Embedder, topK int) *Searcher {
	if topK <= 0 {
		topK = 3
	}
	return &Searcher{
		store:    store,
		embedder: embedder,
		topK:     topK,
		metrics:  metrics.DefaultMetrics,
	}
}

// Search embeds the query and returns the nearest document chunks.
// An empty query returns no hits without touching the store.
func (s *Searcher) Search(ctx context.Context, query string) ([]Hit, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	start := time.Now()
	s.metrics.RAGQueries.Inc()

	emb, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	hits, err := s.store.Query(ctx, emb, s.topK)
	if err != nil {
		return nil, err
	}

	s.metrics.RAGLatency.Observe(time.Since(start).Seconds())
	if len(hits) == 0 {
		s.metrics.RAGEmptyResults.Inc()
		log.Warn().Str("query", query).Msg("No documents found for query")
	}

	log.Debug().
		Str("query", query).
		Int("hits", len(hits)).
		Dur("elapsed", time.Since(start)).
		Msg("Semantic search completed")

	return hits, nil
}

// Documents extracts just the chunk texts from a hit list.
func Documents(hits []Hit) []string {
	docs := make([]string, 0, len(hits))
	for _, h := range hits {
		docs = append(docs, h.Document)
	}
	return docs
}
