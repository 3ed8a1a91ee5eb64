package usecase

import (
	"context"
	"strings"

	"github.com/ivmelnik/groundfetch/internal/core/domain"
)

const defaultMaxRetryIterations = 2

// retryTriggers are the low-confidence signals that mark an answer as
// unsupported. Pure substring match on the lowercased answer; no oracle call.
var retryTriggers = []string{
	"not available in documents",
	"i don't know",
	"cannot find",
	"not sure",
	"insufficient",
}

func shouldRetry(answer string) bool {
	lower := strings.ToLower(answer)
	for _, trigger := range retryTriggers {
		if strings.Contains(lower, trigger) {
			return true
		}
	}
	return false
}

// answerRunner is the slice of the pipeline the retry controller re-executes.
type answerRunner interface {
	Answer(ctx context.Context, query string) (*domain.AnswerResult, error)
}

// RunWithRetry re-runs the full retrieve+generate pipeline until the answer
// stops looking unsupported or maxIters attempts are spent. Each iteration
// retrieves from scratch with the unmodified query. Exhaustion is not an
// error: the last attempt is returned regardless of its verdict. A pipeline
// error is a hard stop, not a retry condition.
func RunWithRetry(ctx context.Context, runner answerRunner, query string, maxIters int) (*domain.AnswerResult, error) {
	if maxIters <= 0 {
		maxIters = defaultMaxRetryIterations
	}

	var last *domain.AnswerResult
	for i := 0; i < maxIters; i++ {
		result, err := runner.Answer(ctx, query)
		if err != nil {
			return nil, err
		}
		last = result
		last.Attempts = i + 1
		if !shouldRetry(result.Answer) {
			return last, nil
		}
	}
	return last, nil
}
