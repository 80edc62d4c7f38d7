package bookings

import (
	"time"

	"mindspace-backend/internal/quiz/recommendation"
)

const (
	StatusPending  = "pending"
	StatusNotified = "notified"

	dateLayout = "2006-01-02"
)

// Booking is a consultation request.
type Booking struct {
	ID        string
	VisitorID string
	Service   recommendation.Category
	Date      time.Time
	Time      string
	Name      string
	Email     string
	Phone     string
	Notes     string
	// QuizSubmissionID links the quiz outcome the visitor arrived with, if any.
	QuizSubmissionID         string
	RecommendedService       recommendation.Category
	RecommendationConfidence recommendation.Confidence
	Status                   string
	NotifiedAt               *time.Time
	CreatedAt                time.Time
	UpdatedAt                time.Time
}

// DateString renders the booked day as YYYY-MM-DD.
func (b Booking) DateString() string {
	return b.Date.Format(dateLayout)
}

// FollowsRecommendation reports whether the booked service matches the quiz outcome.
func (b Booking) FollowsRecommendation() bool {
	return b.RecommendedService != "" && b.RecommendedService == b.Service
}

// ListFilter narrows the staff listing.
type ListFilter struct {
	Status string
	Limit  int
	Offset int
}

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// Normalize applies the default page size and clamps out-of-range values.
func (f ListFilter) Normalize() ListFilter {
	if f.Limit <= 0 || f.Limit > maxListLimit {
		f.Limit = defaultListLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}
