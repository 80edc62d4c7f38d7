package quiz

import (
	"time"

	"mindspace-backend/internal/quiz/catalog"
	"mindspace-backend/internal/quiz/recommendation"
)

// Submission is a completed quiz together with its scored recommendation.
type Submission struct {
	ID             string
	VisitorID      string
	Answers        recommendation.AnswerSet
	Scores         recommendation.ScoreVector
	Result         recommendation.Result
	Profile        catalog.Profile
	CatalogVersion string
	CreatedAt      time.Time
}

// Handoff is the record the booking flow consumes. Scores holds the rounded
// percentage share per category; Points keeps the raw totals.
type Handoff struct {
	SubmissionID string                          `json:"submissionId"`
	Service      recommendation.Category         `json:"service"`
	Confidence   recommendation.Confidence       `json:"confidence"`
	Scores       map[recommendation.Category]int `json:"scores"`
	Points       recommendation.ScoreVector      `json:"points"`
}

// Handoff extracts the booking hand-off record of a submission.
func (s Submission) Handoff() Handoff {
	return Handoff{
		SubmissionID: s.ID,
		Service:      s.Result.Category,
		Confidence:   s.Result.Confidence,
		Scores:       copyShares(s.Result.Shares),
		Points:       s.Scores,
	}
}

func copyShares(in map[recommendation.Category]int) map[recommendation.Category]int {
	out := make(map[recommendation.Category]int, len(in))
	for c, v := range in {
		out[c] = v
	}
	return out
}

// Preview is the scoring of a possibly partial answer set. Result is nil while no
// answer has contributed any points.
type Preview struct {
	Scores   recommendation.ScoreVector
	Result   *recommendation.Result
	Complete bool
}
