package usecase

const minMaxEpsilon = 1e-9

// minMaxNormalize rescales scores into [0,1]. A degenerate list (empty range,
// which covers single-element and all-equal inputs) maps every value to 1.0
// instead of dividing by near-zero.
func minMaxNormalize(scores []float64) []float64 {
	if len(scores) == 0 {
		return nil
	}

	minScore, maxScore := scores[0], scores[0]
	for _, s := range scores[1:] {
		if s < minScore {
			minScore = s
		}
		if s > maxScore {
			maxScore = s
		}
	}

	out := make([]float64, len(scores))
	spread := maxScore - minScore
	if spread < minMaxEpsilon {
		for i := range out {
			out[i] = 1.0
		}
		return out
	}

	for i, s := range scores {
		out[i] = (s - minScore) / spread
	}
	return out
}
