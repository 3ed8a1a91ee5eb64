package usecase

import (
	"context"
	"testing"

	"github.com/ivmelnik/groundfetch/internal/core/domain"
)

func pipelineStores() (*chunkStoreFake, *chunkStoreFake) {
	semantic := &chunkStoreFake{results: []domain.ScoredChunk{
		chunk("a::0", "a.pdf", 0, 0.9, domain.MethodSemantic),
		chunk("b::0", "b.pdf", 0, 0.5, domain.MethodSemantic),
	}}
	lexical := &chunkStoreFake{results: []domain.ScoredChunk{
		chunk("b::0", "b.pdf", 0, 11.0, domain.MethodLexical),
	}}
	return semantic, lexical
}

func TestPipelineAnswerComposesRetrievalAndGeneration(t *testing.T) {
	semantic, lexical := pipelineStores()
	oracle := &oracleFake{response: "grounded answer [a.pdf | chunk 0]"}
	cfg := DefaultPipelineConfig()
	p := NewQAPipeline(&cfg, semantic, lexical, oracle)

	result, err := p.Answer(context.Background(), "what about a?")
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if result.Query != "what about a?" {
		t.Fatalf("unexpected query %q", result.Query)
	}
	if result.Answer != "grounded answer [a.pdf | chunk 0]" {
		t.Fatalf("unexpected answer %q", result.Answer)
	}
	if len(result.Evidence) == 0 {
		t.Fatalf("expected evidence chunks")
	}
	if oracle.calls != 1 {
		t.Fatalf("expected one oracle call without rerank, got %d", oracle.calls)
	}
	if len(result.Citations) == 0 {
		t.Fatalf("expected citations")
	}
	if result.Attempts != 1 {
		t.Fatalf("expected single pass recorded, got %d", result.Attempts)
	}
}

func TestPipelineRerankGatedByFlag(t *testing.T) {
	semantic, lexical := pipelineStores()
	oracle := &oracleFake{response: "1,2"}
	cfg := DefaultPipelineConfig()
	cfg.EnableRerank = true
	p := NewQAPipeline(&cfg, semantic, lexical, oracle)

	result, err := p.Answer(context.Background(), "q")
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	// One call for the rerank ranking, one for the answer.
	if oracle.calls != 2 {
		t.Fatalf("expected 2 oracle calls with rerank enabled, got %d", oracle.calls)
	}
	for _, d := range result.Evidence {
		if d.Method != domain.MethodRerank {
			t.Fatalf("expected reranked evidence, got method=%s", d.Method)
		}
	}
	if result.RerankUsedFallback {
		t.Fatal("ranking parsed, fallback must not be reported")
	}
}

func TestPipelineAnswerReportsRerankFallback(t *testing.T) {
	semantic, lexical := pipelineStores()
	// No digits anywhere, so both ranking parsers come up empty.
	oracle := &oracleFake{response: "unable to rank these passages"}
	cfg := DefaultPipelineConfig()
	cfg.EnableRerank = true
	p := NewQAPipeline(&cfg, semantic, lexical, oracle)

	result, err := p.Answer(context.Background(), "q")
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if !result.RerankUsedFallback {
		t.Fatal("expected rerank fallback reported on unparseable ranking")
	}
}

func TestPipelineAnswerEmptyRetrievalReturnsFallback(t *testing.T) {
	semantic := &chunkStoreFake{}
	lexical := &chunkStoreFake{}
	oracle := &oracleFake{response: "should not run"}
	cfg := DefaultPipelineConfig()
	p := NewQAPipeline(&cfg, semantic, lexical, oracle)

	result, err := p.Answer(context.Background(), "q")
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if result.Answer != domain.FallbackAnswer {
		t.Fatalf("expected fallback answer, got %q", result.Answer)
	}
	if len(result.Citations) != 0 {
		t.Fatalf("expected no citations, got %v", result.Citations)
	}
	if oracle.calls != 0 {
		t.Fatalf("expected oracle skipped on empty evidence, got %d calls", oracle.calls)
	}
}

func TestPipelineExploreDeduplicatesAcrossProbes(t *testing.T) {
	// Every probe returns the same chunks; explore must gather them once.
	semantic, lexical := pipelineStores()
	oracle := &oracleFake{response: `{"snapshot":"s","topics":["t"],"questions":[]}`}
	cfg := DefaultPipelineConfig()
	cfg.ProbeQueries = []string{"p1", "p2", "p3"}
	p := NewQAPipeline(&cfg, semantic, lexical, oracle)

	out, err := p.Explore(context.Background())
	if err != nil {
		t.Fatalf("Explore() error = %v", err)
	}
	if out.Snapshot != "s" {
		t.Fatalf("unexpected snapshot %q", out.Snapshot)
	}
	if semantic.calls != 3 {
		t.Fatalf("expected one retrieval per probe, got %d", semantic.calls)
	}
	// Only the final summary generation hits the oracle.
	if oracle.calls != 1 {
		t.Fatalf("expected single oracle call, got %d", oracle.calls)
	}
}

func TestSelfCheckAnswererRetriesThroughPipeline(t *testing.T) {
	semantic, lexical := pipelineStores()
	oracle := &oracleFake{response: domain.FallbackAnswer}
	cfg := DefaultPipelineConfig()
	p := NewQAPipeline(&cfg, semantic, lexical, oracle)
	answerer := NewSelfCheckAnswerer(p, 2)

	result, err := answerer.Answer(context.Background(), "q")
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if oracle.calls != 2 {
		t.Fatalf("expected 2 generation attempts, got %d", oracle.calls)
	}
	if result.Answer != domain.FallbackAnswer {
		t.Fatalf("expected last attempt returned, got %q", result.Answer)
	}
}
