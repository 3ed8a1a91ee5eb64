package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/ivmelnik/groundfetch/internal/core/domain"
)

func rerankInput() []domain.ScoredChunk {
	return []domain.ScoredChunk{
		chunk("a::0", "a", 0, 0.9, domain.MethodHybrid),
		chunk("b::0", "b", 0, 0.8, domain.MethodHybrid),
		chunk("c::0", "c", 0, 0.7, domain.MethodHybrid),
	}
}

func TestRerankStrictJSONRanking(t *testing.T) {
	oracle := &oracleFake{response: `{"ranking":[3,1,2]}`}
	rr := NewReranker(oracle, 0)

	out, err := rr.Rerank(context.Background(), "q", rerankInput(), 3)
	if err != nil {
		t.Fatalf("Rerank() error = %v", err)
	}
	if out.UsedFallback {
		t.Fatalf("expected parsed ranking, got fallback")
	}
	if out.Chunks[0].ID != "c::0" || out.Chunks[1].ID != "a::0" || out.Chunks[2].ID != "b::0" {
		t.Fatalf("unexpected order: %v %v %v", out.Chunks[0].ID, out.Chunks[1].ID, out.Chunks[2].ID)
	}
	for _, c := range out.Chunks {
		if c.Method != domain.MethodRerank {
			t.Fatalf("expected method=rerank, got %s", c.Method)
		}
	}
}

func TestRerankLooseCommaParse(t *testing.T) {
	// "2,1" on 3 candidates: 1-based -> [item1, item0], item2 dropped at top_k=2.
	oracle := &oracleFake{response: "2, 1\n"}
	rr := NewReranker(oracle, 0)

	out, err := rr.Rerank(context.Background(), "q", rerankInput(), 2)
	if err != nil {
		t.Fatalf("Rerank() error = %v", err)
	}
	if len(out.Chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(out.Chunks))
	}
	if out.Chunks[0].ID != "b::0" || out.Chunks[1].ID != "a::0" {
		t.Fatalf("unexpected order: %v %v", out.Chunks[0].ID, out.Chunks[1].ID)
	}
}

func TestRerankPartialRankingDropsUnranked(t *testing.T) {
	// Ranking names only 2 of 3 candidates at topK=3: the unranked candidate
	// is dropped, not appended.
	oracle := &oracleFake{response: "2,1"}
	rr := NewReranker(oracle, 0)

	out, err := rr.Rerank(context.Background(), "q", rerankInput(), 3)
	if err != nil {
		t.Fatalf("Rerank() error = %v", err)
	}
	if out.UsedFallback {
		t.Fatalf("expected parsed ranking, got fallback")
	}
	if len(out.Chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(out.Chunks))
	}
	if out.Chunks[0].ID != "b::0" || out.Chunks[1].ID != "a::0" {
		t.Fatalf("unexpected order: %v %v", out.Chunks[0].ID, out.Chunks[1].ID)
	}
}

func TestRerankMalformedOutputFallsBackToInputOrder(t *testing.T) {
	for _, response := range []string{"", "no numbers here", "{\"ranking\":\"oops\"}"} {
		oracle := &oracleFake{response: response}
		rr := NewReranker(oracle, 0)

		out, err := rr.Rerank(context.Background(), "q", rerankInput(), 2)
		if err != nil {
			t.Fatalf("Rerank(%q) error = %v", response, err)
		}
		if !out.UsedFallback {
			t.Fatalf("Rerank(%q): expected fallback order", response)
		}
		if out.Chunks[0].ID != "a::0" || out.Chunks[1].ID != "b::0" {
			t.Fatalf("Rerank(%q): expected original order, got %v %v", response, out.Chunks[0].ID, out.Chunks[1].ID)
		}
	}
}

func TestRerankDropsOutOfRangeAndDuplicateIndices(t *testing.T) {
	oracle := &oracleFake{response: "9,2,2,1"}
	rr := NewReranker(oracle, 0)

	out, err := rr.Rerank(context.Background(), "q", rerankInput(), 3)
	if err != nil {
		t.Fatalf("Rerank() error = %v", err)
	}
	if out.UsedFallback {
		t.Fatalf("expected parsed ranking")
	}
	if len(out.Chunks) != 2 {
		t.Fatalf("expected 2 surviving indices, got %d", len(out.Chunks))
	}
	if out.Chunks[0].ID != "b::0" || out.Chunks[1].ID != "a::0" {
		t.Fatalf("unexpected order: %v %v", out.Chunks[0].ID, out.Chunks[1].ID)
	}
}

func TestRerankEmptyInputSkipsOracle(t *testing.T) {
	oracle := &oracleFake{response: "1,2"}
	rr := NewReranker(oracle, 0)

	out, err := rr.Rerank(context.Background(), "q", nil, 5)
	if err != nil {
		t.Fatalf("Rerank() error = %v", err)
	}
	if len(out.Chunks) != 0 {
		t.Fatalf("expected empty output, got %d", len(out.Chunks))
	}
	if oracle.calls != 0 {
		t.Fatalf("expected no oracle call on empty input, got %d", oracle.calls)
	}
}

func TestRerankOracleErrorPropagates(t *testing.T) {
	oracle := &oracleFake{err: errors.New("oracle down")}
	rr := NewReranker(oracle, 0)

	_, err := rr.Rerank(context.Background(), "q", rerankInput(), 2)
	if err == nil {
		t.Fatalf("expected oracle error to propagate")
	}
}

func TestRerankClampsTopK(t *testing.T) {
	oracle := &oracleFake{response: "1,2,3"}
	rr := NewReranker(oracle, 0)

	out, err := rr.Rerank(context.Background(), "q", rerankInput(), 50)
	if err != nil {
		t.Fatalf("Rerank() error = %v", err)
	}
	if len(out.Chunks) != 3 {
		t.Fatalf("expected top_k clamped to len(docs)=3, got %d", len(out.Chunks))
	}
}
