package usecase

import (
	"context"

	"github.com/ivmelnik/groundfetch/internal/core/domain"
)

type oracleFake struct {
	response string
	err      error
	calls    int
	prompts  []string
}

func (f *oracleFake) Generate(_ context.Context, prompt string) (string, error) {
	f.calls++
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

type chunkStoreFake struct {
	results []domain.ScoredChunk
	err     error
	lastK   int
	calls   int
}

func (f *chunkStoreFake) Build(context.Context, []domain.CorpusDocument) error { return nil }

func (f *chunkStoreFake) Search(_ context.Context, _ string, k int) ([]domain.ScoredChunk, error) {
	f.calls++
	f.lastK = k
	if f.err != nil {
		return nil, f.err
	}
	return f.results, nil
}

func chunk(id, source string, position int, score float64, method domain.RetrievalMethod) domain.ScoredChunk {
	return domain.ScoredChunk{
		ID:       id,
		Text:     "text of " + id,
		Source:   source,
		Position: position,
		Score:    score,
		Method:   method,
	}
}
