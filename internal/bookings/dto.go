package bookings

import (
	"time"

	"mindspace-backend/internal/quiz/recommendation"
)

type recommendationView struct {
	SubmissionID string                    `json:"submissionId"`
	Service      recommendation.Category   `json:"service"`
	Confidence   recommendation.Confidence `json:"confidence"`
	Followed     bool                      `json:"followed"`
}

type bookingResponse struct {
	ID             string                  `json:"id"`
	Service        recommendation.Category `json:"service"`
	ServiceLabel   string                  `json:"serviceLabel"`
	Date           string                  `json:"date"`
	Time           string                  `json:"time"`
	Name           string                  `json:"name"`
	Email          string                  `json:"email"`
	Phone          string                  `json:"phone"`
	Notes          string                  `json:"notes,omitempty"`
	Status         string                  `json:"status"`
	Recommendation *recommendationView     `json:"recommendation,omitempty"`
	NotifiedAt     *time.Time              `json:"notifiedAt,omitempty"`
	CreatedAt      time.Time               `json:"createdAt"`
}

type listResponse struct {
	Items  []bookingResponse `json:"items"`
	Limit  int               `json:"limit"`
	Offset int               `json:"offset"`
}

func (h *Handler) toResponse(b Booking) bookingResponse {
	resp := bookingResponse{
		ID:           b.ID,
		Service:      b.Service,
		ServiceLabel: h.Svc.Label(b.Service),
		Date:         b.DateString(),
		Time:         b.Time,
		Name:         b.Name,
		Email:        b.Email,
		Phone:        b.Phone,
		Notes:        b.Notes,
		Status:       b.Status,
		NotifiedAt:   b.NotifiedAt,
		CreatedAt:    b.CreatedAt,
	}
	if b.QuizSubmissionID != "" {
		resp.Recommendation = &recommendationView{
			SubmissionID: b.QuizSubmissionID,
			Service:      b.RecommendedService,
			Confidence:   b.RecommendationConfidence,
			Followed:     b.FollowsRecommendation(),
		}
	}
	return resp
}
