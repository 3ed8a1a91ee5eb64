package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ivmelnik/groundfetch/internal/core/domain"
	"github.com/ivmelnik/groundfetch/internal/core/ports"
)

const (
	exploreTopicsCap    = 12
	exploreQuestionsCap = 20
)

// exploreCorpus turns a deduplicated evidence pool into a structured corpus
// summary. Malformed oracle output degrades to an empty structure, never an
// error.
func exploreCorpus(ctx context.Context, oracle ports.LanguageOracle, docs []domain.ScoredChunk, maxChars int) (*domain.Exploration, error) {
	if maxChars <= 0 {
		maxChars = defaultExploreContextChars
	}

	evidence := assembleContext(docs, maxChars)
	if evidence == "" {
		return &domain.Exploration{
			Snapshot:  "No readable content retrieved from corpus.",
			Topics:    []string{},
			Questions: []domain.ExplorationQuestion{},
		}, nil
	}

	raw, err := oracle.Generate(ctx, buildExplorePrompt(evidence))
	if err != nil {
		return nil, fmt.Errorf("explore oracle call: %w", err)
	}

	parsed := parseExploration(raw)

	if parsed.Snapshot == "" {
		parsed.Snapshot = "Corpus snapshot unavailable."
	}
	if len(parsed.Topics) > exploreTopicsCap {
		parsed.Topics = parsed.Topics[:exploreTopicsCap]
	}

	// Drop question entries without question text.
	clean := make([]domain.ExplorationQuestion, 0, len(parsed.Questions))
	for _, q := range parsed.Questions {
		q.Question = strings.TrimSpace(q.Question)
		if q.Question == "" {
			continue
		}
		if q.Support == nil {
			q.Support = []string{}
		}
		clean = append(clean, q)
		if len(clean) == exploreQuestionsCap {
			break
		}
	}

	return &domain.Exploration{
		Snapshot:  parsed.Snapshot,
		Topics:    emptyIfNil(parsed.Topics),
		Questions: clean,
	}, nil
}

// parseExploration tries strict JSON first, then the outermost brace pair,
// then gives up with a zero value.
func parseExploration(raw string) domain.Exploration {
	raw = strings.TrimSpace(raw)

	var parsed domain.Exploration
	if err := json.Unmarshal([]byte(raw), &parsed); err == nil {
		return parsed
	}

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		if err := json.Unmarshal([]byte(raw[start:end+1]), &parsed); err == nil {
			return parsed
		}
	}
	return domain.Exploration{}
}

func emptyIfNil(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}

func buildExplorePrompt(evidence string) string {
	return fmt.Sprintf(`You are an analyst that generates answerable questions from provided document excerpts.

Goal:
- Produce a short "snapshot" (2-4 lines)
- Extract 6-10 key topics
- Generate 10-15 highly answerable questions that can be answered using ONLY the given excerpts.
- Questions must be specific, not generic.
- Each question MUST reference at least one chunk id that contains the answer.

Output STRICT JSON ONLY with this schema:
{
  "snapshot": "string",
  "topics": ["t1","t2"],
  "questions": [
    {
      "q": "question text",
      "support": ["source|chunk 47", "source|chunk 198"]
    }
  ]
}

EXCERPTS:
%s
`, evidence)
}
