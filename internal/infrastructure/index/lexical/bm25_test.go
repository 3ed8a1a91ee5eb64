package lexical

import (
	"context"
	"testing"

	"github.com/ivmelnik/groundfetch/internal/core/domain"
)

func builtStore(t *testing.T) *Store {
	t.Helper()
	store := NewStore()
	err := store.Build(context.Background(), []domain.CorpusDocument{
		{Source: "contracts.pdf", Chunks: []string{
			"The notice period for termination is thirty days.",
			"Payment terms are net sixty days from invoice date.",
		}},
		{Source: "handbook.pdf", Chunks: []string{
			"Annual leave accrues at two days per month of service.",
		}},
	})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	return store
}

func TestSearchBeforeBuildFails(t *testing.T) {
	store := NewStore()
	_, err := store.Search(context.Background(), "anything", 5)
	if !domain.IsKind(err, domain.ErrIndexNotBuilt) {
		t.Fatalf("expected ErrIndexNotBuilt, got %v", err)
	}
}

func TestBuildEmptyCorpusFails(t *testing.T) {
	store := NewStore()
	err := store.Build(context.Background(), []domain.CorpusDocument{{Source: "a.pdf", Chunks: []string{"   "}}})
	if !domain.IsKind(err, domain.ErrEmptyCorpus) {
		t.Fatalf("expected ErrEmptyCorpus, got %v", err)
	}
}

func TestSearchRanksMatchingChunkFirst(t *testing.T) {
	store := builtStore(t)

	out, err := store.Search(context.Background(), "notice period termination", 3)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(out) == 0 {
		t.Fatalf("expected results")
	}
	if out[0].ID != "contracts.pdf::chunk_0" {
		t.Fatalf("expected termination chunk first, got %s", out[0].ID)
	}
	if out[0].Method != domain.MethodLexical {
		t.Fatalf("expected method=lexical, got %s", out[0].Method)
	}
	if out[0].Score <= 0 {
		t.Fatalf("expected positive BM25 score for matching chunk")
	}
}

func TestSearchChunkIdentityIsStable(t *testing.T) {
	store := builtStore(t)
	out, err := store.Search(context.Background(), "annual leave", 1)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if out[0].ID != "handbook.pdf::chunk_0" || out[0].Position != 0 || out[0].Source != "handbook.pdf" {
		t.Fatalf("unexpected chunk identity %+v", out[0])
	}
}

func TestSearchTruncatesToK(t *testing.T) {
	store := builtStore(t)
	out, err := store.Search(context.Background(), "days", 2)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 results, got %d", len(out))
	}
}

func TestRebuildSwapsSnapshot(t *testing.T) {
	store := builtStore(t)
	err := store.Build(context.Background(), []domain.CorpusDocument{
		{Source: "new.pdf", Chunks: []string{"entirely new corpus about gardening"}},
	})
	if err != nil {
		t.Fatalf("rebuild error = %v", err)
	}
	out, err := store.Search(context.Background(), "gardening", 5)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	for _, d := range out {
		if d.Source != "new.pdf" {
			t.Fatalf("expected old snapshot replaced, got chunk from %s", d.Source)
		}
	}
}
