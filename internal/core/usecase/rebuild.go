package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ivmelnik/groundfetch/internal/core/domain"
	"github.com/ivmelnik/groundfetch/internal/core/ports"
)

// RebuildIndexUseCase loads the ready corpus and rebuilds both retrieval
// backends. The rebuild is a blocking, explicitly triggered operation;
// concurrent rebuild requests are serialized, and each store swaps its
// snapshot atomically so in-flight searches keep seeing the old index.
type RebuildIndexUseCase struct {
	repo     ports.DocumentRepository
	semantic ports.ChunkStore
	lexical  ports.ChunkStore

	mu sync.Mutex
}

func NewRebuildIndexUseCase(repo ports.DocumentRepository, semantic, lexical ports.ChunkStore) *RebuildIndexUseCase {
	return &RebuildIndexUseCase{
		repo:     repo,
		semantic: semantic,
		lexical:  lexical,
	}
}

func (uc *RebuildIndexUseCase) Rebuild(ctx context.Context) (*domain.IndexStats, error) {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	corpus, err := uc.repo.ListCorpus(ctx)
	if err != nil {
		return nil, fmt.Errorf("load corpus: %w", err)
	}

	chunkTotal := 0
	for _, doc := range corpus {
		chunkTotal += len(doc.Chunks)
	}
	if chunkTotal == 0 {
		return nil, domain.WrapError(domain.ErrEmptyCorpus, "rebuild index", errors.New("no processed chunks in corpus"))
	}

	if err := uc.semantic.Build(ctx, corpus); err != nil {
		return nil, fmt.Errorf("build semantic index: %w", err)
	}
	if err := uc.lexical.Build(ctx, corpus); err != nil {
		return nil, fmt.Errorf("build lexical index: %w", err)
	}

	return &domain.IndexStats{
		Documents: len(corpus),
		Chunks:    chunkTotal,
		RebuiltAt: time.Now().UTC(),
	}, nil
}
