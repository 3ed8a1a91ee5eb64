package usecase

import (
	"context"
	"testing"

	"github.com/ivmelnik/groundfetch/internal/core/domain"
)

type rebuildRepoFake struct {
	corpus []domain.CorpusDocument
	err    error
}

func (f *rebuildRepoFake) Create(context.Context, *domain.Document) error { return nil }
func (f *rebuildRepoFake) GetByID(context.Context, string) (*domain.Document, error) {
	return nil, nil
}
func (f *rebuildRepoFake) UpdateStatus(context.Context, string, domain.DocumentStatus, string) error {
	return nil
}
func (f *rebuildRepoFake) SaveChunks(context.Context, string, []string) error { return nil }
func (f *rebuildRepoFake) ListCorpus(context.Context) ([]domain.CorpusDocument, error) {
	return f.corpus, f.err
}

type buildRecordingStore struct {
	chunkStoreFake
	built []domain.CorpusDocument
}

func (s *buildRecordingStore) Build(_ context.Context, corpus []domain.CorpusDocument) error {
	s.built = corpus
	return nil
}

func TestRebuildBuildsBothStores(t *testing.T) {
	repo := &rebuildRepoFake{corpus: []domain.CorpusDocument{
		{Source: "a.pdf", Chunks: []string{"c1", "c2"}},
		{Source: "b.pdf", Chunks: []string{"c3"}},
	}}
	semantic := &buildRecordingStore{}
	lexical := &buildRecordingStore{}
	uc := NewRebuildIndexUseCase(repo, semantic, lexical)

	stats, err := uc.Rebuild(context.Background())
	if err != nil {
		t.Fatalf("Rebuild() error = %v", err)
	}
	if stats.Documents != 2 || stats.Chunks != 3 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	if len(semantic.built) != 2 || len(lexical.built) != 2 {
		t.Fatalf("expected both stores rebuilt from full corpus")
	}
}

func TestRebuildEmptyCorpusFails(t *testing.T) {
	repo := &rebuildRepoFake{corpus: []domain.CorpusDocument{{Source: "a.pdf"}}}
	uc := NewRebuildIndexUseCase(repo, &buildRecordingStore{}, &buildRecordingStore{})

	_, err := uc.Rebuild(context.Background())
	if !domain.IsKind(err, domain.ErrEmptyCorpus) {
		t.Fatalf("expected ErrEmptyCorpus, got %v", err)
	}
}
