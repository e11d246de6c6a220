package rag

import (
	"context"
	"fmt"

	chroma "github.com/amikos-tech/chroma-go"
	chromatypes "github.com/amikos-tech/chroma-go/types"
	"github.com/rs/zerolog/log"
)

// Chunk is one document fragment to index.
type Chunk struct {
	ID       string
	Text     string
	Metadata map[string]interface{}
}

// Hit is one search result.
type Hit struct {
	Document string
	Metadata map[string]interface{}
	Distance float32
}

// VectorStore abstracts the vector database so handlers and tests do
// not depend on a running Chroma server.
type VectorStore interface {
	// Count returns the number of indexed chunks.
	Count(ctx context.Context) (int, error)

	// Add indexes a batch of chunks with precomputed embeddings.
	Add(ctx context.Context, chunks []Chunk, embeddings [][]float32) error

	// Query returns the topK nearest chunks for the query embedding.
	Query(ctx context.Context, embedding []float32, topK int) ([]Hit, error)
}

// ChromaStore implements VectorStore against a ChromaDB server.
type ChromaStore struct {
	collection *chroma.Collection
}

// NewChromaStore connects to Chroma and get-or-creates the collection.
func NewChromaStore(ctx context.Context, url, collection string) (*ChromaStore, error) {
	client, err := chroma.NewClient(chroma.WithBasePath(url))
	if err != nil {
		return nil, fmt.Errorf("chroma client: %w", err)
	}

	col, err := client.CreateCollection(ctx, collection, nil, true, nil, chromatypes.L2)
	if err != nil {
		return nil, fmt.Errorf("chroma collection %q: %w", collection, err)
	}

	log.Info().
		Str("url", url).
		Str("collection", collection).
		Msg("Chroma vector store connected")

	return &ChromaStore{collection: col}, nil
}

// Count implements VectorStore.
func (s *ChromaStore) Count(ctx context.Context) (int, error) {
	n, err := s.collection.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("chroma count: %w", err)
	}
	return int(n), nil
}

// Add implements VectorStore.
func (s *ChromaStore) Add(ctx context.Context, chunks []Chunk, embeddings [][]float32) error {
	if len(chunks) == 0 {
		return nil
	}
	if len(chunks) != len(embeddings) {
		return fmt.Errorf("chroma add: %d chunks but %d embeddings", len(chunks), len(embeddings))
	}

	ids := make([]string, len(chunks))
	docs := make([]string, len(chunks))
	metas := make([]map[string]interface{}, len(chunks))
	embs := make([]*chromatypes.Embedding, len(chunks))
	for i, c := range chunks {
		ids[i] = c.ID
		docs[i] = c.Text
		metas[i] = c.Metadata
		embs[i] = chromatypes.NewEmbeddingFromFloat32(embeddings[i])
	}

	if _, err := s.collection.Add(ctx, embs, metas, docs, ids); err != nil {
		return fmt.Errorf("chroma add: %w", err)
	}
	return nil
}

// Query implements VectorStore.
func (s *ChromaStore) Query(ctx context.Context, embedding []float32, topK int) ([]Hit, error) {
	qr, err := s.collection.QueryWithOptions(ctx,
		chromatypes.WithQueryEmbeddings([]*chromatypes.Embedding{
			chromatypes.NewEmbeddingFromFloat32(embedding),
		}),
		chromatypes.WithNResults(int32(topK)),
	)
	if err != nil {
		return nil, fmt.Errorf("chroma query: %w", err)
	}

	if len(qr.Documents) == 0 {
		return nil, nil
	}

	hits := make([]Hit, 0, len(qr.Documents[0]))
	for i, doc := range qr.Documents[0] {
		h := Hit{Document: doc}
		if len(qr.Metadatas) > 0 && i < len(qr.Metadatas[0]) {
			h.Metadata = qr.Metadatas[0][i]
		}
		if len(qr.Distances) > 0 && i < len(qr.Distances[0]) {
			h.Distance = qr.Distances[0][i]
		}
		hits = append(hits, h)
	}
	return hits, nil
}
