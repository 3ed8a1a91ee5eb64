package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/ivmelnik/groundfetch/internal/core/domain"
	"github.com/ivmelnik/groundfetch/internal/core/ports"
)

// defaultFallbackEchoMaxLen guards against the oracle echoing the refusal
// sentence inside a longer, possibly still-useful answer. The threshold is a
// heuristic, not a derived invariant.
const defaultFallbackEchoMaxLen = 60

// AnswerGenerator produces a grounded answer from assembled evidence. When no
// usable evidence exists the oracle is never invoked and the exact fallback
// sentence is returned.
type AnswerGenerator struct {
	oracle             ports.LanguageOracle
	contextChars       int
	fallbackEchoMaxLen int
}

func NewAnswerGenerator(oracle ports.LanguageOracle, contextChars, fallbackEchoMaxLen int) *AnswerGenerator {
	if contextChars <= 0 {
		contextChars = defaultAnswerContextChars
	}
	if fallbackEchoMaxLen <= 0 {
		fallbackEchoMaxLen = defaultFallbackEchoMaxLen
	}
	return &AnswerGenerator{
		oracle:             oracle,
		contextChars:       contextChars,
		fallbackEchoMaxLen: fallbackEchoMaxLen,
	}
}

func (g *AnswerGenerator) Generate(ctx context.Context, question string, docs []domain.ScoredChunk) (string, []string, error) {
	evidence := assembleContext(docs, g.contextChars)
	if evidence == "" {
		return domain.FallbackAnswer, nil, nil
	}

	raw, err := g.oracle.Generate(ctx, buildAnswerPrompt(evidence, question))
	if err != nil {
		return "", nil, fmt.Errorf("answer oracle call: %w", err)
	}

	answer := strings.TrimSpace(raw)
	if isFallbackAnswer(answer, g.fallbackEchoMaxLen) {
		answer = domain.FallbackAnswer
	}

	return answer, collectCitations(docs), nil
}

func isFallbackAnswer(answer string, echoMaxLen int) bool {
	if answer == "" {
		return true
	}
	lower := strings.ToLower(answer)
	if lower == strings.ToLower(domain.FallbackAnswer) {
		return true
	}
	return strings.Contains(lower, "not available in documents") && len(answer) < echoMaxLen
}

// collectCitations lists distinct sources in first-appearance order across
// the evidence. It is a provenance list, independent of the oracle's inline
// citation markers.
func collectCitations(docs []domain.ScoredChunk) []string {
	var out []string
	seen := make(map[string]struct{}, len(docs))
	for _, d := range docs {
		if d.Source == "" {
			continue
		}
		if _, ok := seen[d.Source]; ok {
			continue
		}
		seen[d.Source] = struct{}{}
		out = append(out, d.Source)
	}
	return out
}

func buildAnswerPrompt(evidence, question string) string {
	return fmt.Sprintf(`You are a grounded, evidence-based QA assistant.

Rules:
- Use ONLY the provided CONTEXT.
- You MAY infer answers when the document discusses related concepts
  (e.g., recommendations, prevention, guidance) even if the exact wording
  of the question is not used.
- Every claim MUST be supported by citations taken from the chunk labels.
- If the document truly does not contain related information, reply exactly:
  Not available in documents.
- Keep answers concise and factual.
- Cite sources inline like: [report.pdf | chunk 94]
- If you provide bullets, put at least one citation in every bullet.

CONTEXT:
%s

QUESTION:
%s

ANSWER:
`, evidence, question)
}
