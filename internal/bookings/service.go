package bookings

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"mindspace-backend/internal/queue"
	"mindspace-backend/internal/quiz"
	"mindspace-backend/internal/quiz/catalog"
	"mindspace-backend/internal/quiz/recommendation"
	"mindspace-backend/internal/shared/metrics"
	"mindspace-backend/internal/shared/telemetry"
)

// HandoffSource resolves the quiz outcome a booking refers to.
type HandoffSource interface {
	Handoff(ctx context.Context, submissionID string) (quiz.Handoff, error)
}

// CreateRequest is the booking form.
type CreateRequest struct {
	Service          string `json:"service" validate:"required,bookable"`
	Date             string `json:"date" validate:"required,futuredate"`
	Time             string `json:"time" validate:"required,hhmm"`
	Name             string `json:"name" validate:"required,min=2,max=120"`
	Email            string `json:"email" validate:"required,email,max=254"`
	Phone            string `json:"phone" validate:"required,phone,max=32"`
	Notes            string `json:"notes" validate:"max=2000"`
	QuizSubmissionID string `json:"quizSubmissionId" validate:"omitempty,uuid"`
}

func (r *CreateRequest) normalize() {
	r.Service = strings.TrimSpace(r.Service)
	r.Date = strings.TrimSpace(r.Date)
	r.Time = strings.TrimSpace(r.Time)
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.Phone = strings.TrimSpace(r.Phone)
	r.Notes = strings.TrimSpace(r.Notes)
	r.QuizSubmissionID = strings.TrimSpace(r.QuizSubmissionID)
}

// Service records booking requests and schedules their follow-up.
type Service struct {
	Repo    Repo
	Catalog *catalog.Catalog
	Quiz    HandoffSource
	Queue   queue.Client
	// Location is the timezone in which "today" is evaluated. Defaults to UTC.
	Location *time.Location
	Now      func() time.Time
	NewID    func() string

	once        sync.Once
	validate    *validator.Validate
	validateErr error
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) location() *time.Location {
	if s.Location != nil {
		return s.Location
	}
	return time.UTC
}

func (s *Service) today() time.Time {
	return startOfDay(s.now().In(s.location()))
}

func (s *Service) newID() string {
	if s.NewID != nil {
		return s.NewID()
	}
	return uuid.NewString()
}

func (s *Service) validator() (*validator.Validate, error) {
	s.once.Do(func() {
		s.validate, s.validateErr = newValidator(s.today, s.Bookable)
	})
	return s.validate, s.validateErr
}

// Bookable reports whether a service value can be booked: any described service,
// or the combined option.
func (s *Service) Bookable(value string) bool {
	if value == string(recommendation.CategoryBoth) {
		return true
	}
	_, ok := s.Catalog.Service(recommendation.Category(value))
	return ok
}

// Label returns the display name of a booked service.
func (s *Service) Label(cat recommendation.Category) string {
	if cat == recommendation.CategoryBoth {
		names := make([]string, 0, 2)
		for _, svc := range s.Catalog.Services() {
			names = append(names, svc.Name)
		}
		return strings.Join(names, " + ")
	}
	if svc, ok := s.Catalog.Service(cat); ok {
		return svc.Name
	}
	return string(cat)
}

// Create validates and stores a booking request, then queues its follow-up.
func (s *Service) Create(ctx context.Context, visitorID string, req CreateRequest) (Booking, error) {
	req.normalize()
	v, err := s.validator()
	if err != nil {
		return Booking{}, fmt.Errorf("build validator: %w", err)
	}
	if err := v.Struct(req); err != nil {
		return Booking{}, toValidationError(err)
	}

	day, err := parseDay(req.Date, s.location())
	if err != nil {
		return Booking{}, fmt.Errorf("%w: date", ErrInvalidInput)
	}

	now := s.now().UTC()
	b := Booking{
		ID:               s.newID(),
		VisitorID:        strings.TrimSpace(visitorID),
		Service:          recommendation.Category(req.Service),
		Date:             time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC),
		Time:             req.Time,
		Name:             req.Name,
		Email:            req.Email,
		Phone:            req.Phone,
		Notes:            req.Notes,
		QuizSubmissionID: req.QuizSubmissionID,
		Status:           StatusPending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if req.QuizSubmissionID != "" {
		if s.Quiz == nil {
			return Booking{}, errors.New("quiz hand-off source not configured")
		}
		handoff, err := s.Quiz.Handoff(ctx, req.QuizSubmissionID)
		if err != nil {
			if errors.Is(err, quiz.ErrNotFound) {
				return Booking{}, &ValidationError{Fields: []FieldError{{
					Field:   "quizSubmissionId",
					Rule:    "exists",
					Message: "Risultato del quiz non trovato",
				}}}
			}
			return Booking{}, fmt.Errorf("resolve quiz hand-off: %w", err)
		}
		b.RecommendedService = handoff.Service
		b.RecommendationConfidence = handoff.Confidence
	}

	if err := s.Repo.Create(ctx, b); err != nil {
		return Booking{}, fmt.Errorf("store booking: %w", err)
	}
	metrics.IncBookingCreated()
	telemetry.Info("booking.created", map[string]any{
		"booking_id":             b.ID,
		"visitor_id":             b.VisitorID,
		"service":                string(b.Service),
		"quiz_submission_id":     b.QuizSubmissionID,
		"follows_recommendation": b.FollowsRecommendation(),
	})

	s.enqueueFollowup(ctx, b)
	return b, nil
}

// A failed enqueue leaves the booking pending; staff still see it in the listing.
func (s *Service) enqueueFollowup(ctx context.Context, b Booking) {
	if s.Queue == nil {
		return
	}
	requestID := requestIDFromContext(ctx)
	msg := queue.NewFollowupMessage(b.ID, requestID, s.now())
	if err := s.Queue.Send(ctx, msg); err != nil {
		telemetry.Error("booking.followup.enqueue_failed", map[string]any{
			"booking_id": b.ID,
			"request_id": requestID,
			"error":      err,
		})
		return
	}
	telemetry.Info("booking.followup.enqueued", map[string]any{
		"booking_id": b.ID,
		"request_id": requestID,
	})
}

// Get returns a booking by ID.
func (s *Service) Get(ctx context.Context, id string) (Booking, error) {
	id = strings.TrimSpace(id)
	if _, err := uuid.Parse(id); err != nil {
		return Booking{}, ErrNotFound
	}
	return s.Repo.GetByID(ctx, id)
}

// List returns bookings for staff, newest first.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Booking, error) {
	switch filter.Status {
	case "", StatusPending, StatusNotified:
	default:
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, filter.Status)
	}
	return s.Repo.List(ctx, filter.Normalize())
}

// NotifyFollowup performs the follow-up of a queued booking. Repeated deliveries of
// the same message are harmless.
func (s *Service) NotifyFollowup(ctx context.Context, bookingID string) error {
	b, err := s.Repo.GetByID(ctx, bookingID)
	if err != nil {
		return err
	}
	changed, err := s.Repo.MarkNotified(ctx, bookingID, s.now().UTC())
	if err != nil {
		return err
	}
	fields := map[string]any{
		"booking_id":  b.ID,
		"request_id":  requestIDFromContext(ctx),
		"service":     s.Label(b.Service),
		"date":        b.DateString(),
		"time":        b.Time,
		"email":       b.Email,
		"recommended": string(b.RecommendedService),
	}
	if !changed {
		telemetry.Info("booking.followup.skipped", fields)
		return nil
	}
	telemetry.Info("booking.followup", fields)
	return nil
}
