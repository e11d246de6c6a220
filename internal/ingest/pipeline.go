package ingest

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"insurance-voice-agent/internal/rag"
)

// Pipeline chunks, embeds, and stores documents.
type Pipeline struct {
	chunker  *Chunker
	embedder rag.Embedder
	store    rag.VectorStore
}

// NewPipeline wires a chunker, embedder, and vector store together.
func NewPipeline(chunker *Chunker, embedder rag.Embedder, store rag.VectorStore) *Pipeline {
	return &Pipeline{chunker: chunker, embedder: embedder, store: store}
}

// Index splits a document, embeds every chunk, and writes the batch
// to the store. Chunk IDs are <basename>_chunk<n> so reruns overwrite
// rather than duplicate.
func (p *Pipeline) Index(ctx context.Context, doc Document) (int, error) {
	start := time.Now()

	pieces := p.chunker.Split(doc.Text)
	if len(pieces) == 0 {
		return 0, fmt.Errorf("%s: %w", doc.Source, ErrNoText)
	}

	embeddings, err := p.embedder.EmbedDocuments(ctx, pieces)
	if err != nil {
		return 0, fmt.Errorf("embed %s: %w", doc.Source, err)
	}

	base := sourceName(doc.Source)
	chunks := make([]rag.Chunk, len(pieces))
	for i, text := range pieces {
		chunks[i] = rag.Chunk{
			ID:   fmt.Sprintf("%s_chunk%d", base, i),
			Text: text,
			Metadata: map[string]interface{}{
				"type":        doc.Type,
				"source":      doc.Source,
				"chunk_index": i,
			},
		}
	}

	if err := p.store.Add(ctx, chunks, embeddings); err != nil {
		return 0, fmt.Errorf("store %s: %w", doc.Source, err)
	}

	log.Info().
		Str("source", doc.Source).
		Str("type", doc.Type).
		Int("chunks", len(chunks)).
		Dur("elapsed", time.Since(start)).
		Msg("Document indexed")

	return len(chunks), nil
}

// IndexAll runs Index over every document and returns the total chunk
// count. The first failure aborts the run.
func (p *Pipeline) IndexAll(ctx context.Context, docs []Document) (int, error) {
	var total int
	for _, doc := range docs {
		n, err := p.Index(ctx, doc)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

// sourceName derives a stable chunk ID prefix from a path or URL.
func sourceName(source string) string {
	name := filepath.Base(source)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '-'
		}
	}, name)
	if name == "" {
		name = "doc"
	}
	return name
}
