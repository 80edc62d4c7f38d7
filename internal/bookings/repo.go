package bookings

import (
	"context"
	"time"
)

// Repo defines persistence operations for bookings.
type Repo interface {
	Create(ctx context.Context, b Booking) error
	GetByID(ctx context.Context, id string) (Booking, error)
	List(ctx context.Context, filter ListFilter) ([]Booking, error)
	// MarkNotified sets the notified status once. It reports false when the booking
	// was already notified.
	MarkNotified(ctx context.Context, id string, at time.Time) (bool, error)
}
