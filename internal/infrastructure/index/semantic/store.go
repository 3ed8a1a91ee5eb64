// Package semantic provides an embedder-backed in-process chunk store.
// Vectors are unit-normalized at build time so search reduces to a dot
// product, yielding cosine similarity in roughly [-1,1].
package semantic

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/ivmelnik/groundfetch/internal/core/domain"
	"github.com/ivmelnik/groundfetch/internal/core/ports"
)

type indexedChunk struct {
	chunk  domain.ScoredChunk
	vector []float32
}

type Store struct {
	embedder ports.Embedder

	mu   sync.RWMutex
	snap []indexedChunk
}

func NewStore(embedder ports.Embedder) *Store {
	return &Store{embedder: embedder}
}

func (s *Store) Build(ctx context.Context, corpus []domain.CorpusDocument) error {
	var texts []string
	var chunks []domain.ScoredChunk

	for _, doc := range corpus {
		for i, text := range doc.Chunks {
			if strings.TrimSpace(text) == "" {
				continue
			}
			texts = append(texts, text)
			chunks = append(chunks, domain.ScoredChunk{
				ID:       fmt.Sprintf("%s::chunk_%d", doc.Source, i),
				Text:     text,
				Source:   doc.Source,
				Position: i,
				Method:   domain.MethodSemantic,
			})
		}
	}

	if len(texts) == 0 {
		return domain.WrapError(domain.ErrEmptyCorpus, "build semantic index", errors.New("corpus yielded zero indexable chunks"))
	}

	vectors, err := s.embedder.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed corpus chunks: %w", err)
	}
	if len(vectors) != len(texts) {
		return fmt.Errorf("embed corpus chunks: vectors/chunks mismatch: %d/%d", len(vectors), len(texts))
	}

	next := make([]indexedChunk, len(chunks))
	for i := range chunks {
		next[i] = indexedChunk{chunk: chunks[i], vector: unitNorm(vectors[i])}
	}

	s.mu.Lock()
	s.snap = next
	s.mu.Unlock()
	return nil
}

func (s *Store) Search(ctx context.Context, query string, k int) ([]domain.ScoredChunk, error) {
	s.mu.RLock()
	snap := s.snap
	s.mu.RUnlock()

	if snap == nil {
		return nil, domain.WrapError(domain.ErrIndexNotBuilt, "semantic search", errors.New("build the index before searching"))
	}
	if k <= 0 {
		k = 5
	}

	queryVector, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	queryVector = unitNorm(queryVector)

	scored := make([]domain.ScoredChunk, 0, len(snap))
	for _, ic := range snap {
		scored = append(scored, ic.chunk.Retag(dot(queryVector, ic.vector), domain.MethodSemantic))
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		if scored[i].Source != scored[j].Source {
			return scored[i].Source < scored[j].Source
		}
		return scored[i].Position < scored[j].Position
	})

	if len(scored) > k {
		scored = scored[:k]
	}
	return scored, nil
}

func unitNorm(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	norm := math.Sqrt(sum) + 1e-12
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}

func dot(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
