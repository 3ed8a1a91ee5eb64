package usecase

import (
	"fmt"
	"strings"

	"github.com/ivmelnik/groundfetch/internal/core/domain"
)

const (
	defaultAnswerContextChars  = 24000
	defaultExploreContextChars = 16000
)

// assembleContext renders evidence chunks as labeled blocks within a
// character budget. Assembly stops at the first block that would exceed the
// budget, so lower-ranked chunks are sacrificed before higher-ranked ones.
func assembleContext(docs []domain.ScoredChunk, maxChars int) string {
	var parts []string
	total := 0

	for _, d := range docs {
		text := strings.TrimSpace(d.Text)
		if text == "" {
			continue
		}

		block := fmt.Sprintf("[%s | chunk %d]\n%s\n", d.Source, d.Position, text)
		if total+len(block) > maxChars {
			break
		}
		parts = append(parts, block)
		total += len(block)
	}

	return strings.TrimSpace(strings.Join(parts, "\n"))
}
