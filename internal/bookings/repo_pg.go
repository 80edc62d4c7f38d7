package bookings

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"mindspace-backend/internal/quiz/recommendation"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const bookingColumns = `id, visitor_id, service, preferred_date, preferred_time, full_name, email, phone, notes,
       quiz_submission_id, recommended_service, recommendation_confidence, status, notified_at, created_at, updated_at`

// Create inserts a new booking.
func (r *PGRepo) Create(ctx context.Context, b Booking) error {
	const query = `
INSERT INTO bookings (
	id, visitor_id, service, preferred_date, preferred_time, full_name, email, phone, notes,
	quiz_submission_id, recommended_service, recommendation_confidence, status, created_at, updated_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`
	_, err := r.DB.ExecContext(ctx, query,
		b.ID,
		nullString(b.VisitorID),
		string(b.Service),
		b.Date,
		b.Time,
		b.Name,
		b.Email,
		b.Phone,
		nullString(b.Notes),
		nullString(b.QuizSubmissionID),
		nullString(string(b.RecommendedService)),
		nullString(string(b.RecommendationConfidence)),
		b.Status,
		b.CreatedAt,
		b.UpdatedAt,
	)
	return err
}

// GetByID returns a booking by ID.
func (r *PGRepo) GetByID(ctx context.Context, id string) (Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1 LIMIT 1`
	b, err := scanBooking(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Booking{}, ErrNotFound
		}
		return Booking{}, err
	}
	return b, nil
}

// List returns bookings newest first.
func (r *PGRepo) List(ctx context.Context, filter ListFilter) ([]Booking, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	query := `SELECT ` + bookingColumns + `
FROM bookings
WHERE ($1 = '' OR status = $1)
ORDER BY created_at DESC, id DESC
LIMIT $2 OFFSET $3`
	rows, err := r.DB.QueryContext(ctx, query, filter.Status, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// MarkNotified sets the notified status once.
func (r *PGRepo) MarkNotified(ctx context.Context, id string, at time.Time) (bool, error) {
	const query = `
UPDATE bookings
SET status = $2, notified_at = $3, updated_at = $3
WHERE id = $1 AND notified_at IS NULL`
	res, err := r.DB.ExecContext(ctx, query, id, StatusNotified, at)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if affected > 0 {
		return true, nil
	}
	if _, err := r.GetByID(ctx, id); err != nil {
		return false, err
	}
	return false, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(row rowScanner) (Booking, error) {
	var (
		b            Booking
		visitorID    sql.NullString
		service      string
		notes        sql.NullString
		submissionID sql.NullString
		recommended  sql.NullString
		confidence   sql.NullString
		notifiedAt   sql.NullTime
	)
	if err := row.Scan(
		&b.ID,
		&visitorID,
		&service,
		&b.Date,
		&b.Time,
		&b.Name,
		&b.Email,
		&b.Phone,
		&notes,
		&submissionID,
		&recommended,
		&confidence,
		&b.Status,
		&notifiedAt,
		&b.CreatedAt,
		&b.UpdatedAt,
	); err != nil {
		return Booking{}, err
	}
	b.Service = recommendation.Category(service)
	b.VisitorID = visitorID.String
	b.Notes = notes.String
	b.QuizSubmissionID = submissionID.String
	b.RecommendedService = recommendation.Category(recommended.String)
	b.RecommendationConfidence = recommendation.Confidence(confidence.String)
	if notifiedAt.Valid {
		t := notifiedAt.Time
		b.NotifiedAt = &t
	}
	return b, nil
}

func nullString(v string) any {
	if v == "" {
		return nil
	}
	return v
}
