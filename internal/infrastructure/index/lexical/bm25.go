// Package lexical provides an in-process BM25 chunk store. A successful
// Build swaps in an immutable snapshot; Search only ever reads the current
// snapshot, so queries keep working against the old index while a rebuild is
// in flight.
package lexical

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/ivmelnik/groundfetch/internal/core/domain"
)

const (
	bm25K1 = 1.2
	bm25B  = 0.75
)

type indexedChunk struct {
	chunk     domain.ScoredChunk
	termFreq  map[string]int
	tokenLen  int
}

type snapshot struct {
	chunks    []indexedChunk
	docFreq   map[string]int
	avgTokens float64
}

type Store struct {
	mu   sync.RWMutex
	snap *snapshot
}

func NewStore() *Store {
	return &Store{}
}

func (s *Store) Build(_ context.Context, corpus []domain.CorpusDocument) error {
	next := &snapshot{docFreq: make(map[string]int)}
	totalTokens := 0

	for _, doc := range corpus {
		for i, text := range doc.Chunks {
			tokens := tokenize(text)
			if len(tokens) == 0 {
				continue
			}

			tf := make(map[string]int, len(tokens))
			for _, tok := range tokens {
				tf[tok]++
			}
			for tok := range tf {
				next.docFreq[tok]++
			}
			totalTokens += len(tokens)

			next.chunks = append(next.chunks, indexedChunk{
				chunk: domain.ScoredChunk{
					ID:       fmt.Sprintf("%s::chunk_%d", doc.Source, i),
					Text:     text,
					Source:   doc.Source,
					Position: i,
					Method:   domain.MethodLexical,
				},
				termFreq: tf,
				tokenLen: len(tokens),
			})
		}
	}

	if len(next.chunks) == 0 {
		return domain.WrapError(domain.ErrEmptyCorpus, "build lexical index", errors.New("corpus yielded zero indexable chunks"))
	}
	next.avgTokens = float64(totalTokens) / float64(len(next.chunks))

	s.mu.Lock()
	s.snap = next
	s.mu.Unlock()
	return nil
}

func (s *Store) Search(_ context.Context, query string, k int) ([]domain.ScoredChunk, error) {
	s.mu.RLock()
	snap := s.snap
	s.mu.RUnlock()

	if snap == nil {
		return nil, domain.WrapError(domain.ErrIndexNotBuilt, "lexical search", errors.New("build the index before searching"))
	}
	if k <= 0 {
		k = 5
	}

	queryTokens := tokenize(query)
	n := float64(len(snap.chunks))

	scored := make([]domain.ScoredChunk, 0, len(snap.chunks))
	for _, ic := range snap.chunks {
		score := 0.0
		for _, tok := range queryTokens {
			tf := float64(ic.termFreq[tok])
			if tf == 0 {
				continue
			}
			df := float64(snap.docFreq[tok])
			idf := math.Log(1.0 + (n-df+0.5)/(df+0.5))
			lenNorm := 1.0 - bm25B + bm25B*float64(ic.tokenLen)/snap.avgTokens
			score += idf * (tf * (bm25K1 + 1.0)) / (tf + bm25K1*lenNorm)
		}
		scored = append(scored, ic.chunk.Retag(score, domain.MethodLexical))
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

func tokenize(s string) []string {
	if s == "" {
		return nil
	}
	out := make([]string, 0, 24)
	var b strings.Builder
	for _, r := range s {
		r = unicode.ToLower(r)
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			continue
		}
		if b.Len() > 0 {
			out = append(out, b.String())
			b.Reset()
		}
	}
	if b.Len() > 0 {
		out = append(out, b.String())
	}
	return out
}
