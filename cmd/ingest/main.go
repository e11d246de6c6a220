// Command ingest indexes insurance documents into the vector store.
//
// Usage:
//
//	ingest -pdf docs/FAQs-1.pdf -pdf docs/policy.pdf
//	ingest -text notes.txt -url https://example.com/insurance-faq
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"insurance-voice-agent/internal/app"
	"insurance-voice-agent/internal/config"
	"insurance-voice-agent/internal/ingest"
	"insurance-voice-agent/internal/rag"
)

type multiFlag []string

func (m *multiFlag) String() string { return strings.Join(*m, ",") }

func (m *multiFlag) Set(v string) error {
	*m = append(*m, v)
	return nil
}

func main() {
	var (
		pdfs      multiFlag
		texts     multiFlag
		urls      multiFlag
		chunkSize = flag.Int("chunk-size", 500, "chunk size in characters")
		overlap   = flag.Int("overlap", 50, "chunk overlap in characters")
		timeout   = flag.Duration("timeout", 5*time.Minute, "overall ingestion timeout")
	)
	flag.Var(&pdfs, "pdf", "PDF file to index (repeatable)")
	flag.Var(&texts, "text", "plain text file to index (repeatable)")
	flag.Var(&urls, "url", "web page to index (repeatable)")
	flag.Parse()

	if len(pdfs)+len(texts)+len(urls) == 0 {
		fmt.Fprintln(os.Stderr, "nothing to ingest: pass -pdf, -text, or -url")
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.Load()
	app.New(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	store, err := rag.NewChromaStore(ctx, cfg.RAG.ChromaURL, cfg.RAG.Collection)
	if err != nil {
		log.Fatal().Err(err).Str("url", cfg.RAG.ChromaURL).Msg("Chroma connection failed")
	}
	embedder := rag.NewOpenAIEmbedder(cfg.RAG.EmbeddingURL, cfg.LLM.APIKey, cfg.RAG.EmbeddingModel)
	pipeline := ingest.NewPipeline(ingest.NewChunker(*chunkSize, *overlap), embedder, store)

	var docs []ingest.Document
	for _, path := range pdfs {
		doc, err := ingest.LoadPDF(path)
		if err != nil {
			log.Fatal().Err(err).Str("path", path).Msg("Failed to load PDF")
		}
		docs = append(docs, doc)
	}
	for _, path := range texts {
		doc, err := ingest.LoadTextFile(path)
		if err != nil {
			log.Fatal().Err(err).Str("path", path).Msg("Failed to load text file")
		}
		docs = append(docs, doc)
	}
	for _, url := range urls {
		doc, err := ingest.LoadWebPage(ctx, url)
		if err != nil {
			log.Fatal().Err(err).Str("url", url).Msg("Failed to load web page")
		}
		docs = append(docs, doc)
	}

	total, err := pipeline.IndexAll(ctx, docs)
	if err != nil {
		log.Fatal().Err(err).Msg("Ingestion failed")
	}

	count, err := store.Count(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Could not read collection count")
	}

	log.Info().
		Int("documents", len(docs)).
		Int("chunksAdded", total).
		Int("collectionTotal", count).
		Str("collection", cfg.RAG.Collection).
		Msg("Ingestion complete")
}
