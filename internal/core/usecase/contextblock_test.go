package usecase

import (
	"strings"
	"testing"

	"github.com/ivmelnik/groundfetch/internal/core/domain"
)

func TestAssembleContextLabelsBlocks(t *testing.T) {
	docs := []domain.ScoredChunk{
		{Source: "policy.pdf", Position: 4, Text: "notice period is 30 days"},
	}
	out := assembleContext(docs, 1000)
	if !strings.HasPrefix(out, "[policy.pdf | chunk 4]\n") {
		t.Fatalf("expected labeled block, got %q", out)
	}
	if !strings.Contains(out, "notice period is 30 days") {
		t.Fatalf("expected chunk text in context, got %q", out)
	}
}

func TestAssembleContextSkipsBlankChunks(t *testing.T) {
	docs := []domain.ScoredChunk{
		{Source: "a.pdf", Position: 0, Text: "   \n\t"},
		{Source: "b.pdf", Position: 1, Text: "real content"},
	}
	out := assembleContext(docs, 1000)
	if strings.Contains(out, "a.pdf") {
		t.Fatalf("expected whitespace-only chunk skipped, got %q", out)
	}
	if !strings.Contains(out, "real content") {
		t.Fatalf("expected non-empty chunk kept, got %q", out)
	}
}

func TestAssembleContextStopsAtBudget(t *testing.T) {
	docs := []domain.ScoredChunk{
		{Source: "a.pdf", Position: 0, Text: strings.Repeat("x", 50)},
		{Source: "b.pdf", Position: 0, Text: strings.Repeat("y", 500)},
		{Source: "c.pdf", Position: 0, Text: "short tail"},
	}
	out := assembleContext(docs, 100)
	if !strings.Contains(out, "a.pdf") {
		t.Fatalf("expected first block kept")
	}
	// Assembly stops at the first over-budget block; later chunks are
	// sacrificed even if they would individually fit.
	if strings.Contains(out, "b.pdf") || strings.Contains(out, "c.pdf") {
		t.Fatalf("expected assembly stopped at budget, got %q", out)
	}
}

func TestAssembleContextEmptyInput(t *testing.T) {
	if out := assembleContext(nil, 1000); out != "" {
		t.Fatalf("expected empty context, got %q", out)
	}
}
