package quiz

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"mindspace-backend/internal/quiz/recommendation"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const submissionColumns = `id, visitor_id, answers, scores, category, confidence, shares, ranked, profile, catalog_version, created_at`

// Create inserts a new submission.
func (r *PGRepo) Create(ctx context.Context, sub Submission) error {
	const query = `
INSERT INTO quiz_submissions (` + submissionColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	answers, err := marshalJSONB(sub.Answers)
	if err != nil {
		return err
	}
	scores, err := marshalJSONB(sub.Scores)
	if err != nil {
		return err
	}
	shares, err := marshalJSONB(sub.Result.Shares)
	if err != nil {
		return err
	}
	ranked, err := json.Marshal(sub.Result.Ranked)
	if err != nil {
		return err
	}
	profile, err := marshalJSONB(sub.Profile)
	if err != nil {
		return err
	}

	_, err = r.DB.ExecContext(ctx, query,
		sub.ID,
		nullString(sub.VisitorID),
		answers,
		scores,
		string(sub.Result.Category),
		string(sub.Result.Confidence),
		shares,
		ranked,
		profile,
		sub.CatalogVersion,
		sub.CreatedAt,
	)
	return err
}

// GetByID returns a submission by ID.
func (r *PGRepo) GetByID(ctx context.Context, id string) (Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM quiz_submissions WHERE id = $1 LIMIT 1`
	sub, err := scanSubmission(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Submission{}, ErrNotFound
		}
		return Submission{}, err
	}
	return sub, nil
}

// ListByVisitor returns the submissions of a visitor, newest first.
func (r *PGRepo) ListByVisitor(ctx context.Context, visitorID string, limit int) ([]Submission, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `SELECT ` + submissionColumns + `
FROM quiz_submissions
WHERE visitor_id = $1
ORDER BY created_at DESC, id DESC
LIMIT $2`
	rows, err := r.DB.QueryContext(ctx, query, visitorID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Submission, 0)
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sub)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSubmission(row rowScanner) (Submission, error) {
	var (
		sub        Submission
		visitorID  sql.NullString
		answers    []byte
		scores     []byte
		category   string
		confidence string
		shares     []byte
		ranked     []byte
		profile    []byte
	)
	if err := row.Scan(
		&sub.ID,
		&visitorID,
		&answers,
		&scores,
		&category,
		&confidence,
		&shares,
		&ranked,
		&profile,
		&sub.CatalogVersion,
		&sub.CreatedAt,
	); err != nil {
		return Submission{}, err
	}
	if visitorID.Valid {
		sub.VisitorID = visitorID.String
	}
	sub.Result.Category = recommendation.Category(category)
	sub.Result.Confidence = recommendation.Confidence(confidence)

	if err := json.Unmarshal(answers, &sub.Answers); err != nil {
		return Submission{}, fmt.Errorf("decode answers: %w", err)
	}
	if err := json.Unmarshal(scores, &sub.Scores); err != nil {
		return Submission{}, fmt.Errorf("decode scores: %w", err)
	}
	if err := json.Unmarshal(shares, &sub.Result.Shares); err != nil {
		return Submission{}, fmt.Errorf("decode shares: %w", err)
	}
	if len(ranked) > 0 {
		if err := json.Unmarshal(ranked, &sub.Result.Ranked); err != nil {
			return Submission{}, fmt.Errorf("decode ranked: %w", err)
		}
	}
	if len(profile) > 0 {
		if err := json.Unmarshal(profile, &sub.Profile); err != nil {
			return Submission{}, fmt.Errorf("decode profile: %w", err)
		}
	}
	return sub, nil
}

func marshalJSONB(value any) ([]byte, error) {
	if value == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(value)
}

func nullString(v string) any {
	if v == "" {
		return nil
	}
	return v
}
