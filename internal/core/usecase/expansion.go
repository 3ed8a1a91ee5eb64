package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/ivmelnik/groundfetch/internal/core/ports"
)

// ExpandQueries asks the oracle for alternative phrasings of the user query,
// one per line. The original query always comes first; the list is capped at
// max(1, n).
func ExpandQueries(ctx context.Context, oracle ports.LanguageOracle, query string, n int) ([]string, error) {
	if n < 1 {
		n = 1
	}

	prompt := fmt.Sprintf(`Generate %d alternative search queries for the user question.
Keep them short and varied. One per line. No numbering.

Question:
%s
`, n, query)

	raw, err := oracle.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("query expansion oracle call: %w", err)
	}

	original := strings.TrimSpace(query)
	lines := make([]string, 0, n+1)
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}

	if !containsString(lines, original) {
		lines = append([]string{original}, lines...)
	}
	if len(lines) > n {
		lines = lines[:n]
	}
	return lines, nil
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
