package usecase

import (
	"context"
	"fmt"
	"sort"

	"github.com/ivmelnik/groundfetch/internal/core/domain"
	"github.com/ivmelnik/groundfetch/internal/core/ports"
)

const (
	defaultPoolMultiplier = 4
	defaultAlpha          = 0.55
	defaultRRFK           = 60
)

// HybridRetriever blends one semantic and one lexical backend into a single
// ranking. Raw scores from the two stores live on different scales, so each
// candidate list is min-max normalized before the convex combination
// alpha*semantic + (1-alpha)*lexical.
type HybridRetriever struct {
	semantic ports.ChunkStore
	lexical  ports.ChunkStore
	alpha    float64
}

func NewHybridRetriever(semantic, lexical ports.ChunkStore, alpha float64) *HybridRetriever {
	if alpha < 0 || alpha > 1 {
		alpha = defaultAlpha
	}
	return &HybridRetriever{
		semantic: semantic,
		lexical:  lexical,
		alpha:    alpha,
	}
}

// Retrieve pulls topK*poolMult candidates from each backend and fuses them.
// Backend failures propagate; hybrid retrieval never silently degrades to a
// single method.
func (r *HybridRetriever) Retrieve(ctx context.Context, query string, topK, poolMult int) ([]domain.ScoredChunk, error) {
	if topK <= 0 {
		topK = 5
	}
	if poolMult <= 0 {
		poolMult = defaultPoolMultiplier
	}
	pool := topK * poolMult

	semDocs, err := r.semantic.Search(ctx, query, pool)
	if err != nil {
		return nil, fmt.Errorf("semantic search: %w", err)
	}
	lexDocs, err := r.lexical.Search(ctx, query, pool)
	if err != nil {
		return nil, fmt.Errorf("lexical search: %w", err)
	}

	semScores := minMaxNormalize(chunkScores(semDocs))
	lexScores := minMaxNormalize(chunkScores(lexDocs))

	type contribution struct {
		chunk    domain.ScoredChunk
		semantic float64
		lexical  float64
	}

	merged := make(map[string]contribution, len(semDocs)+len(lexDocs))
	order := make([]string, 0, len(semDocs)+len(lexDocs))

	for i, d := range semDocs {
		merged[d.ID] = contribution{chunk: d, semantic: semScores[i]}
		order = append(order, d.ID)
	}
	for i, d := range lexDocs {
		c, ok := merged[d.ID]
		if !ok {
			merged[d.ID] = contribution{chunk: d, lexical: lexScores[i]}
			order = append(order, d.ID)
			continue
		}
		c.lexical = lexScores[i]
		merged[d.ID] = c
	}

	out := make([]domain.ScoredChunk, 0, len(merged))
	for _, id := range order {
		c := merged[id]
		combined := r.alpha*c.semantic + (1.0-r.alpha)*c.lexical
		out = append(out, c.chunk.Retag(combined, domain.MethodHybrid))
	}

	sortChunksDesc(out)
	return trimChunks(out, topK), nil
}

// FuseRRF merges any number of ranked lists by reciprocal rank:
// score(id) = sum over lists of 1/(kConst+rank+1), rank zero-based. Absence
// from a list contributes nothing. Output is tagged method=fusion.
func FuseRRF(lists [][]domain.ScoredChunk, topK, kConst int) []domain.ScoredChunk {
	if kConst <= 0 {
		kConst = defaultRRFK
	}

	scores := make(map[string]float64)
	chunks := make(map[string]domain.ScoredChunk)
	order := make([]string, 0)

	for _, list := range lists {
		for rank, d := range list {
			if _, seen := scores[d.ID]; !seen {
				order = append(order, d.ID)
				chunks[d.ID] = d
			}
			scores[d.ID] += 1.0 / float64(kConst+rank+1)
		}
	}

	out := make([]domain.ScoredChunk, 0, len(order))
	for _, id := range order {
		out = append(out, chunks[id].Retag(scores[id], domain.MethodFusion))
	}

	sortChunksDesc(out)
	return trimChunks(out, topK)
}

func chunkScores(docs []domain.ScoredChunk) []float64 {
	if len(docs) == 0 {
		return nil
	}
	out := make([]float64, len(docs))
	for i, d := range docs {
		out[i] = d.Score
	}
	return out
}

func sortChunksDesc(chunks []domain.ScoredChunk) {
	sort.SliceStable(chunks, func(i, j int) bool {
		if chunks[i].Score != chunks[j].Score {
			return chunks[i].Score > chunks[j].Score
		}
		if chunks[i].Source != chunks[j].Source {
			return chunks[i].Source < chunks[j].Source
		}
		return chunks[i].Position < chunks[j].Position
	})
}

func trimChunks(chunks []domain.ScoredChunk, limit int) []domain.ScoredChunk {
	if limit <= 0 || len(chunks) <= limit {
		return chunks
	}
	return chunks[:limit]
}
