package rag

import (
	"context"
	"errors"
	"testing"
)

// memoryStore is an in-memory VectorStore for tests. It matches by
// exact embedding equality, which is enough with the deterministic
// mock embedder.
type memoryStore struct {
	chunks     []Chunk
	embeddings [][]float32
	queryErr   error
}

func (m *memoryStore) Count(_ context.Context) (int, error) {
	return len(m.chunks), nil
}

func (m *memoryStore) Add(_ context.Context, chunks []Chunk, embeddings [][]float32) error {
	m.chunks = append(m.chunks, chunks...)
	m.embeddings = append(m.embeddings, embeddings...)
	return nil
}

func (m *memoryStore) Query(_ context.Context, embedding []float32, topK int) ([]Hit, error) {
	if m.queryErr != nil {
		return nil, m.queryErr
	}
	var hits []Hit
	for i, emb := range m.embeddings {
		if equal(emb, embedding) {
			hits = append(hits, Hit{Document: m.chunks[i].Text, Metadata: m.chunks[i].Metadata})
		}
		if len(hits) >= topK {
			break
		}
	}
	return hits, nil
}

func equal(a, b []float32) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestSearcher_EmptyQueryReturnsNoHits(t *testing.T) {
	s := NewSearcher(&memoryStore{}, NewMockEmbedder(8), 3)

	hits, err := s.Search(context.Background(), "   ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hits != nil {
		t.Errorf("expected nil hits for empty query, got %v", hits)
	}
}

func TestSearcher_FindsIndexedChunk(t *testing.T) {
	ctx := context.Background()
	embedder := NewMockEmbedder(8)
	store := &memoryStore{}

	chunks := []Chunk{
		{ID: "FAQs-1_chunk0", Text: "how do I file a claim", Metadata: map[string]interface{}{"type": "faq"}},
		{ID: "FAQs-1_chunk1", Text: "premium payment options"},
	}
	texts := []string{chunks[0].Text, chunks[1].Text}
	embs, err := embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		t.Fatalf("embed failed: %v", err)
	}
	if err := store.Add(ctx, chunks, embs); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	s := NewSearcher(store, embedder, 3)
	hits, err := s.Search(ctx, "how do I file a claim")
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("expected 1 hit, got %d", len(hits))
	}
	if hits[0].Document != "how do I file a claim" {
		t.Errorf("unexpected document: %q", hits[0].Document)
	}
	if hits[0].Metadata["type"] != "faq" {
		t.Errorf("expected faq metadata, got %v", hits[0].Metadata)
	}
}

func TestSearcher_StoreErrorPropagates(t *testing.T) {
	wantErr := errors.New("store down")
	s := NewSearcher(&memoryStore{queryErr: wantErr}, NewMockEmbedder(8), 3)

	if _, err := s.Search(context.Background(), "anything"); !errors.Is(err, wantErr) {
		t.Errorf("expected store error, got %v", err)
	}
}

func TestMockEmbedder_Deterministic(t *testing.T) {
	m := NewMockEmbedder(8)
	ctx := context.Background()

	a, _ := m.EmbedQuery(ctx, "claim")
	b, _ := m.EmbedQuery(ctx, "claim")
	c, _ := m.EmbedQuery(ctx, "policy")

	if !equal(a, b) {
		t.Error("same text must produce the same vector")
	}
	if equal(a, c) {
		t.Error("different text should produce different vectors")
	}
}

func TestMockEmbedder_EmptyInput(t *testing.T) {
	m := NewMockEmbedder(8)
	if _, err := m.EmbedDocuments(context.Background(), nil); !errors.Is(err, ErrEmptyInput) {
		t.Errorf("expected ErrEmptyInput, got %v", err)
	}
}

func TestDocuments(t *testing.T) {
	hits := []Hit{{Document: "a"}, {Document: "b"}}
	docs := Documents(hits)
	if len(docs) != 2 || docs[0] != "a" || docs[1] != "b" {
		t.Errorf("unexpected docs: %v", docs)
	}
}
