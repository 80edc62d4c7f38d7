package quiz

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"mindspace-backend/internal/quiz/catalog"
	"mindspace-backend/internal/quiz/recommendation"
	"mindspace-backend/internal/shared/metrics"
	"mindspace-backend/internal/shared/telemetry"
)

const (
	defaultHistoryLimit = 10
	maxHistoryLimit     = 50
)

// Service scores quiz answers and keeps the submitted outcomes.
type Service struct {
	Repo    Repo
	Catalog *catalog.Catalog
	Now     func() time.Time
	NewID   func() string
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *Service) newID() string {
	if s.NewID != nil {
		return s.NewID()
	}
	return uuid.NewString()
}

// Preview scores a possibly partial answer set without storing anything.
func (s *Service) Preview(ctx context.Context, answers recommendation.AnswerSet) (Preview, error) {
	if err := ctx.Err(); err != nil {
		return Preview{}, err
	}
	metrics.IncQuizPreview()

	scores := recommendation.Score(answers, s.Catalog.Questions())
	preview := Preview{
		Scores:   scores,
		Complete: s.Catalog.CheckComplete(answers) == nil,
	}
	result, err := recommendation.Classify(scores)
	switch {
	case err == nil:
		preview.Result = &result
	case errors.Is(err, recommendation.ErrInvalidState):
	default:
		return Preview{}, err
	}
	return preview, nil
}

// Submit scores a complete answer set, classifies it and stores the outcome.
func (s *Service) Submit(ctx context.Context, visitorID string, answers recommendation.AnswerSet) (Submission, error) {
	if len(answers) == 0 {
		return Submission{}, fmt.Errorf("%w: answers are required", ErrInvalidInput)
	}
	if err := s.Catalog.CheckComplete(answers); err != nil {
		return Submission{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	scores, result, err := recommendation.Recommend(answers, s.Catalog.Questions())
	if err != nil {
		if errors.Is(err, recommendation.ErrInvalidState) {
			metrics.IncQuizClassifyRejected()
			telemetry.Warn("quiz.classify.rejected", map[string]any{
				"visitor_id":      visitorID,
				"catalog_version": s.Catalog.Version(),
			})
		}
		return Submission{}, fmt.Errorf("classify: %w", err)
	}

	sub := Submission{
		ID:             s.newID(),
		VisitorID:      strings.TrimSpace(visitorID),
		Answers:        copyAnswers(answers),
		Scores:         scores,
		Result:         result,
		Profile:        s.Catalog.Profile(answers),
		CatalogVersion: s.Catalog.Version(),
		CreatedAt:      s.now(),
	}
	if err := s.Repo.Create(ctx, sub); err != nil {
		return Submission{}, fmt.Errorf("store submission: %w", err)
	}

	metrics.IncQuizSubmission(string(result.Category))
	telemetry.Info("quiz.submitted", map[string]any{
		"submission_id": sub.ID,
		"visitor_id":    sub.VisitorID,
		"category":      string(result.Category),
		"confidence":    string(result.Confidence),
	})
	return sub, nil
}

// Get returns a stored submission.
func (s *Service) Get(ctx context.Context, id string) (Submission, error) {
	id = strings.TrimSpace(id)
	if _, err := uuid.Parse(id); err != nil {
		return Submission{}, ErrNotFound
	}
	return s.Repo.GetByID(ctx, id)
}

// Handoff returns the booking hand-off record of a stored submission.
func (s *Service) Handoff(ctx context.Context, id string) (Handoff, error) {
	sub, err := s.Get(ctx, id)
	if err != nil {
		return Handoff{}, err
	}
	return sub.Handoff(), nil
}

// History lists the latest submissions of a visitor.
func (s *Service) History(ctx context.Context, visitorID string, limit int) ([]Submission, error) {
	visitorID = strings.TrimSpace(visitorID)
	if visitorID == "" {
		return nil, fmt.Errorf("%w: visitor id is required", ErrInvalidInput)
	}
	switch {
	case limit <= 0:
		limit = defaultHistoryLimit
	case limit > maxHistoryLimit:
		limit = maxHistoryLimit
	}
	return s.Repo.ListByVisitor(ctx, visitorID, limit)
}

func copyAnswers(in recommendation.AnswerSet) recommendation.AnswerSet {
	out := make(recommendation.AnswerSet, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
