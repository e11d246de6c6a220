// Package rag provides the vector store and semantic search used to
// ground agent answers in the insurance document collection.
package rag

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"

	openai "github.com/sashabaranov/go-openai"
)

// ErrEmptyInput is returned when there is nothing to embed.
var ErrEmptyInput = errors.New("nothing to embed")

// Embedder converts text into dense vectors.
type Embedder interface {
	// EmbedQuery embeds a single query string.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)

	// EmbedDocuments embeds a batch of document chunks.
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
}

// OpenAIEmbedder calls an OpenAI-compatible embeddings endpoint.
// It works against any server exposing /v1/embeddings, which is how the
// sentence-transformers model is served.
type OpenAIEmbedder struct {
	client *openai.Client
	model  string
}

// NewOpenAIEmbedder creates an embedder against the given base URL.
// The API key may be empty for local embedding servers.
func NewOpenAIEmbedder(baseURL, apiKey, model string) *OpenAIEmbedder {
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = baseURL
	return &OpenAIEmbedder{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

// EmbedQuery implements Embedder.
func (e *OpenAIEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.EmbedDocuments(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedDocuments implements Embedder.
func (e *OpenAIEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, ErrEmptyInput
	}

	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: openai.EmbeddingModel(e.model),
	})
	if err != nil {
		return nil, fmt.Errorf("embeddings request: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("embeddings response: expected %d vectors, got %d", len(texts), len(resp.Data))
	}

	out := make([][]float32, len(resp.Data))
	for _, d := range resp.Data {
		out[d.Index] = d.Embedding
	}
	return out, nil
}

// MockEmbedder produces deterministic vectors for tests. Identical text
// always maps to the identical vector.
type MockEmbedder struct {
	Dim int
}

// NewMockEmbedder creates a mock embedder with the given dimensionality.
func NewMockEmbedder(dim int) *MockEmbedder {
	return &MockEmbedder{Dim: dim}
}

// EmbedQuery implements Embedder.
func (m *MockEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	return m.vector(text), nil
}

// EmbedDocuments implements Embedder.
func (m *MockEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, ErrEmptyInput
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = m.vector(t)
	}
	return out, nil
}

func (m *MockEmbedder) vector(text string) []float32 {
	dim := m.Dim
	if dim <= 0 {
		dim = 8
	}
	v := make([]float32, dim)
	h := fnv.New64a()
	h.Write([]byte(text))
	seed := h.Sum64()
	for i := range v {
		seed = seed*6364136223846793005 + 1442695040888963407
		v[i] = float32(seed%1000) / 1000.0
	}
	return v
}
