package recommendation

import (
	"math"
	"sort"
)

const (
	// TieBandPoints is the widest gap, in percentage points, between the top two
	// shares that still yields a dual recommendation.
	TieBandPoints = 10.0
	// HighConfidenceShare is the minimum share of a single winner for high confidence.
	HighConfidenceShare = 70.0

	shareEpsilon = 1e-9
)

// Score accumulates the weight vectors selected by answers. Questions without an
// answer and answer keys missing from a question's weights contribute nothing.
func Score(answers AnswerSet, questions []QuestionDefinition) ScoreVector {
	scores := make(ScoreVector)
	for _, q := range questions {
		for _, weights := range q.Weights {
			for cat := range weights {
				if _, ok := scores[cat]; !ok {
					scores[cat] = 0
				}
			}
		}
	}
	for _, q := range questions {
		key, ok := answers[q.ID]
		if !ok {
			continue
		}
		weights, ok := q.Weights[key]
		if !ok {
			continue
		}
		for cat, points := range weights {
			scores[cat] += points
		}
	}
	return scores
}

// Classify turns a ScoreVector into a recommendation. It fails with ErrInvalidState
// when the total score is zero.
func Classify(scores ScoreVector) (Result, error) {
	total := scores.Total()
	if total <= 0 {
		return Result{}, ErrInvalidState
	}

	shares := make(map[Category]float64, len(scores))
	ranked := make([]Category, 0, len(scores))
	for cat, v := range scores {
		shares[cat] = float64(v) / float64(total) * 100
		ranked = append(ranked, cat)
	}
	sort.Slice(ranked, func(i, j int) bool {
		a, b := shares[ranked[i]], shares[ranked[j]]
		if a != b {
			return a > b
		}
		return ranked[i] < ranked[j]
	})

	display := make(map[Category]int, len(shares))
	for cat, share := range shares {
		display[cat] = int(math.Round(share))
	}

	top := ranked[0]
	runnerUp := 0.0
	if len(ranked) > 1 {
		runnerUp = shares[ranked[1]]
	}

	result := Result{Shares: display, Ranked: ranked}
	switch {
	case math.Abs(shares[top]-runnerUp) <= TieBandPoints+shareEpsilon:
		result.Category = CategoryBoth
		result.Confidence = ConfidenceModerate
	case shares[top] >= HighConfidenceShare-shareEpsilon:
		result.Category = top
		result.Confidence = ConfidenceHigh
	default:
		result.Category = top
		result.Confidence = ConfidenceModerate
	}
	return result, nil
}

// Recommend scores answers and classifies the outcome.
func Recommend(answers AnswerSet, questions []QuestionDefinition) (ScoreVector, Result, error) {
	scores := Score(answers, questions)
	result, err := Classify(scores)
	if err != nil {
		return scores, Result{}, err
	}
	return scores, result, nil
}
