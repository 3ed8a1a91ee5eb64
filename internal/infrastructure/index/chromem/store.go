// Package chromem backs the chunk store with a chromem-go collection.
// It is the persistent alternative to the in-memory cosine index: when a
// path is configured the collection survives process restarts.
package chromem

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	chromemgo "github.com/philippgille/chromem-go"

	"github.com/ivmelnik/groundfetch/internal/core/domain"
	"github.com/ivmelnik/groundfetch/internal/core/ports"
)

const collectionName = "corpus_chunks"

type Store struct {
	db       *chromemgo.DB
	embedder ports.Embedder

	mu    sync.RWMutex
	coll  *chromemgo.Collection
	built bool
}

// NewStore creates an in-memory chromem store.
func NewStore(embedder ports.Embedder) *Store {
	return &Store{db: chromemgo.NewDB(), embedder: embedder}
}

// NewPersistentStore creates a store backed by an on-disk chromem DB.
// An existing collection at that path is reused, so a restarted process
// can serve queries without a rebuild.
func NewPersistentStore(path string, compress bool, embedder ports.Embedder) (*Store, error) {
	db, err := chromemgo.NewPersistentDB(path, compress)
	if err != nil {
		return nil, fmt.Errorf("open chromem db at %s: %w", path, err)
	}
	s := &Store{db: db, embedder: embedder}
	if coll := db.GetCollection(collectionName, s.embeddingFunc()); coll != nil && coll.Count() > 0 {
		s.coll = coll
		s.built = true
	}
	return s, nil
}

func (s *Store) embeddingFunc() chromemgo.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		return s.embedder.EmbedQuery(ctx, text)
	}
}

func (s *Store) Build(ctx context.Context, corpus []domain.CorpusDocument) error {
	var texts []string
	var docs []chromemgo.Document

	for _, doc := range corpus {
		for i, text := range doc.Chunks {
			if text == "" {
				continue
			}
			texts = append(texts, text)
			docs = append(docs, chromemgo.Document{
				ID:      fmt.Sprintf("%s::chunk_%d", doc.Source, i),
				Content: text,
				Metadata: map[string]string{
					"source":   doc.Source,
					"position": strconv.Itoa(i),
				},
			})
		}
	}

	if len(docs) == 0 {
		return domain.WrapError(domain.ErrEmptyCorpus, "build chromem index", errors.New("corpus yielded zero indexable chunks"))
	}

	embeddings, err := s.embedder.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed corpus chunks: %w", err)
	}
	if len(embeddings) != len(docs) {
		return fmt.Errorf("embed corpus chunks: vectors/chunks mismatch: %d/%d", len(embeddings), len(docs))
	}
	for i := range docs {
		docs[i].Embedding = embeddings[i]
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.db.DeleteCollection(collectionName); err != nil {
		return fmt.Errorf("drop previous collection: %w", err)
	}
	coll, err := s.db.GetOrCreateCollection(collectionName, nil, s.embeddingFunc())
	if err != nil {
		return fmt.Errorf("create collection: %w", err)
	}
	// Concurrency of 1: embeddings are precomputed above.
	if err := coll.AddDocuments(ctx, docs, 1); err != nil {
		return fmt.Errorf("add documents: %w", err)
	}

	s.coll = coll
	s.built = true
	return nil
}

func (s *Store) Search(ctx context.Context, query string, k int) ([]domain.ScoredChunk, error) {
	s.mu.RLock()
	coll, built := s.coll, s.built
	s.mu.RUnlock()

	if !built || coll == nil {
		return nil, domain.WrapError(domain.ErrIndexNotBuilt, "chromem search", errors.New("build the index before searching"))
	}
	if k <= 0 {
		k = 5
	}
	if count := coll.Count(); k > count {
		k = count
	}
	if k == 0 {
		return nil, nil
	}

	results, err := coll.Query(ctx, query, k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("query collection: %w", err)
	}

	chunks := make([]domain.ScoredChunk, 0, len(results))
	for _, r := range results {
		position, _ := strconv.Atoi(r.Metadata["position"])
		chunks = append(chunks, domain.ScoredChunk{
			ID:       r.ID,
			Text:     r.Content,
			Source:   r.Metadata["source"],
			Position: position,
			Score:    float64(r.Similarity),
			Method:   domain.MethodSemantic,
		})
	}
	return chunks, nil
}
