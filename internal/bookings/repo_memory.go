package bookings

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string]Booking
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		data: make(map[string]Booking),
	}
}

// Create stores a booking.
func (r *MemoryRepo) Create(ctx context.Context, b Booking) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[b.ID] = b
	return nil
}

// GetByID returns a booking by ID.
func (r *MemoryRepo) GetByID(ctx context.Context, id string) (Booking, error) {
	if err := ctx.Err(); err != nil {
		return Booking{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.data[id]
	if !ok {
		return Booking{}, ErrNotFound
	}
	return b, nil
}

// List returns bookings newest first.
func (r *MemoryRepo) List(ctx context.Context, filter ListFilter) ([]Booking, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	out := make([]Booking, 0, len(r.data))
	for _, b := range r.data {
		if filter.Status != "" && b.Status != filter.Status {
			continue
		}
		out = append(out, b)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})

	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	if offset >= len(out) {
		return []Booking{}, nil
	}
	end := len(out)
	if filter.Limit > 0 && offset+filter.Limit < end {
		end = offset + filter.Limit
	}
	return out[offset:end], nil
}

// MarkNotified sets the notified status once.
func (r *MemoryRepo) MarkNotified(ctx context.Context, id string, at time.Time) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.data[id]
	if !ok {
		return false, ErrNotFound
	}
	if b.NotifiedAt != nil {
		return false, nil
	}
	b.Status = StatusNotified
	b.NotifiedAt = &at
	b.UpdatedAt = at
	r.data[id] = b
	return true, nil
}
