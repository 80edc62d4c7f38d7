package quiz

import (
	"time"

	"mindspace-backend/internal/quiz/catalog"
	"mindspace-backend/internal/quiz/recommendation"
)

type answersRequest struct {
	Answers map[string]string `json:"answers"`
}

type catalogResponse struct {
	Version   string             `json:"version"`
	Questions []catalog.Question `json:"questions"`
	Services  []catalog.Service  `json:"services"`
}

type confidenceView struct {
	Level      recommendation.Confidence `json:"level"`
	Percentage int                       `json:"percentage"`
	Label      string                    `json:"label"`
}

type resultView struct {
	Category    recommendation.Category         `json:"category"`
	Confidence  confidenceView                  `json:"confidence"`
	Shares      map[recommendation.Category]int `json:"shares"`
	Title       string                          `json:"title"`
	Icon        string                          `json:"icon"`
	Explanation string                          `json:"explanation,omitempty"`
	Services    []catalog.Service               `json:"services"`
}

type previewResponse struct {
	Scores   recommendation.ScoreVector `json:"scores"`
	Total    int                        `json:"total"`
	Complete bool                       `json:"complete"`
	Result   *resultView                `json:"result,omitempty"`
}

type submissionResponse struct {
	ID             string                     `json:"id"`
	Answers        recommendation.AnswerSet   `json:"answers"`
	Scores         recommendation.ScoreVector `json:"scores"`
	Result         resultView                 `json:"result"`
	Profile        catalog.Profile            `json:"profile"`
	CatalogVersion string                     `json:"catalogVersion"`
	CreatedAt      time.Time                  `json:"createdAt"`
}

type historyResponse struct {
	Items []submissionResponse `json:"items"`
}

func toResultView(cat *catalog.Catalog, result recommendation.Result) resultView {
	presentation := cat.Presentation(result.Category)
	display := cat.ConfidenceDisplay(result.Confidence)

	services := make([]catalog.Service, 0, 2)
	for _, c := range result.Recommended() {
		if svc, ok := cat.Service(c); ok {
			services = append(services, svc)
		}
	}

	return resultView{
		Category: result.Category,
		Confidence: confidenceView{
			Level:      result.Confidence,
			Percentage: display.Percentage,
			Label:      display.Label,
		},
		Shares:      result.Shares,
		Title:       presentation.Title,
		Icon:        presentation.Icon,
		Explanation: presentation.Explanation,
		Services:    services,
	}
}

func toSubmissionResponse(cat *catalog.Catalog, sub Submission) submissionResponse {
	return submissionResponse{
		ID:             sub.ID,
		Answers:        sub.Answers,
		Scores:         sub.Scores,
		Result:         toResultView(cat, sub.Result),
		Profile:        sub.Profile,
		CatalogVersion: sub.CatalogVersion,
		CreatedAt:      sub.CreatedAt,
	}
}
