package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ivmelnik/groundfetch/internal/core/domain"
	"github.com/ivmelnik/groundfetch/internal/core/ports"
)

const defaultRerankPassageChars = 1200

// Reranker asks the language oracle for a preference ranking over an
// already-retrieved candidate set. The oracle's output is free-form text, so
// parsing is tiered: strict JSON ranking, then loose digit extraction, then
// the original input order.
type Reranker struct {
	oracle       ports.LanguageOracle
	passageChars int
}

// RerankOutcome carries the reordered candidates plus whether the oracle's
// ranking was actually used. UsedFallback means the output equals the input
// order (truncated), not that anything failed hard.
type RerankOutcome struct {
	Chunks       []domain.ScoredChunk
	UsedFallback bool
}

func NewReranker(oracle ports.LanguageOracle, passageChars int) *Reranker {
	if passageChars <= 0 {
		passageChars = defaultRerankPassageChars
	}
	return &Reranker{oracle: oracle, passageChars: passageChars}
}

// Rerank reorders docs by oracle preference and re-tags the survivors as
// method=rerank. A partial but valid ranking keeps only the ranked indices;
// unranked candidates are dropped, not appended. Oracle call errors
// propagate: a failed rerank must not silently corrupt result order.
func (r *Reranker) Rerank(ctx context.Context, query string, docs []domain.ScoredChunk, topK int) (RerankOutcome, error) {
	if len(docs) == 0 {
		return RerankOutcome{}, nil
	}
	if topK < 1 {
		topK = 1
	}
	if topK > len(docs) {
		topK = len(docs)
	}

	raw, err := r.oracle.Generate(ctx, buildRerankPrompt(query, docs, topK, r.passageChars))
	if err != nil {
		return RerankOutcome{}, fmt.Errorf("rerank oracle call: %w", err)
	}

	ranking := parseRankingStrict(raw)
	if len(ranking) == 0 {
		ranking = parseRankingLoose(raw)
	}

	if len(ranking) == 0 {
		return RerankOutcome{
			Chunks:       retagRerank(docs, identityOrder(len(docs)), topK),
			UsedFallback: true,
		}, nil
	}

	// 1-based -> 0-based, drop out-of-range, dedupe keeping first.
	seen := make(map[int]struct{}, len(ranking))
	norm := make([]int, 0, len(ranking))
	for _, idx := range ranking {
		j := idx - 1
		if j < 0 || j >= len(docs) {
			continue
		}
		if _, dup := seen[j]; dup {
			continue
		}
		seen[j] = struct{}{}
		norm = append(norm, j)
	}

	if len(norm) == 0 {
		return RerankOutcome{
			Chunks:       retagRerank(docs, identityOrder(len(docs)), topK),
			UsedFallback: true,
		}, nil
	}

	return RerankOutcome{Chunks: retagRerank(docs, norm, topK)}, nil
}

func buildRerankPrompt(query string, docs []domain.ScoredChunk, topK, passageChars int) string {
	var passages strings.Builder
	for i, d := range docs {
		text := strings.TrimSpace(d.Text)
		if len(text) > passageChars {
			text = text[:passageChars]
		}
		fmt.Fprintf(&passages, "[P%d]\n%s\n\n", i+1, text)
	}

	return fmt.Sprintf(`You are ranking passages for relevance to a question.
Return ONLY the top %d passage indices as comma-separated numbers (e.g., "2,1,3").

Question:
%s

Passages:
%s`, topK, query, passages.String())
}

// parseRankingStrict accepts {"ranking":[2,1,3]}.
func parseRankingStrict(raw string) []int {
	var parsed struct {
		Ranking []int `json:"ranking"`
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &parsed); err != nil {
		return nil
	}
	return parsed.Ranking
}

// parseRankingLoose extracts comma-separated digit tokens from free text.
func parseRankingLoose(raw string) []int {
	cleaned := strings.NewReplacer("\n", ",", "\r", ",", "\t", "", " ", "").Replace(raw)
	out := make([]int, 0, 8)
	for _, part := range strings.Split(cleaned, ",") {
		if part == "" || !isDigits(part) {
			continue
		}
		n := 0
		for _, r := range part {
			n = n*10 + int(r-'0')
		}
		out = append(out, n)
	}
	return out
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}

func identityOrder(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func retagRerank(docs []domain.ScoredChunk, order []int, topK int) []domain.ScoredChunk {
	if topK > len(order) {
		topK = len(order)
	}
	out := make([]domain.ScoredChunk, 0, topK)
	for _, j := range order[:topK] {
		out = append(out, docs[j].Retag(docs[j].Score, domain.MethodRerank))
	}
	return out
}
