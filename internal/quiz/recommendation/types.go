package recommendation

import "errors"

// Category identifies a service area that answers contribute to.
type Category string

// CategoryBoth is reported when the top two categories fall inside the tie band.
const CategoryBoth Category = "both"

// Confidence is the qualitative strength attached to a recommendation.
type Confidence string

const (
	// ConfidenceLow is part of the output vocabulary but is never produced by Classify.
	ConfidenceLow      Confidence = "low"
	ConfidenceModerate Confidence = "moderate"
	ConfidenceHigh     Confidence = "high"
)

// ErrInvalidState is returned by Classify when no category has a positive score.
var ErrInvalidState = errors.New("invalid state: score total is zero")

// WeightVector maps each category to the points one answer contributes.
type WeightVector map[Category]int

// QuestionDefinition holds the weight vector of every answer key of a question.
type QuestionDefinition struct {
	ID      string
	Weights map[string]WeightVector
}

// AnswerSet maps question IDs to the selected answer key.
type AnswerSet map[string]string

// ScoreVector holds the accumulated score per category.
type ScoreVector map[Category]int

// Total returns the sum of all category scores.
func (s ScoreVector) Total() int {
	total := 0
	for _, v := range s {
		total += v
	}
	return total
}

// Result is the classification of a ScoreVector.
type Result struct {
	Category   Category
	Confidence Confidence
	// Shares holds the percentage share per category rounded for display.
	Shares map[Category]int
	// Ranked lists categories by unrounded share, highest first.
	Ranked []Category
}

// Share returns the rounded display share of the given category.
func (r Result) Share(c Category) int {
	return r.Shares[c]
}

// IsDual reports whether the result recommends the top two categories together.
func (r Result) IsDual() bool {
	return r.Category == CategoryBoth
}

// Recommended returns the categories a renderer should present: the top two for a
// dual recommendation, the winner otherwise.
func (r Result) Recommended() []Category {
	if r.IsDual() {
		if len(r.Ranked) < 2 {
			return append([]Category(nil), r.Ranked...)
		}
		return []Category{r.Ranked[0], r.Ranked[1]}
	}
	return []Category{r.Category}
}
