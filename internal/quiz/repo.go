package quiz

import "context"

// Repo defines persistence operations for quiz submissions.
type Repo interface {
	Create(ctx context.Context, sub Submission) error
	GetByID(ctx context.Context, id string) (Submission, error)
	ListByVisitor(ctx context.Context, visitorID string, limit int) ([]Submission, error)
}
