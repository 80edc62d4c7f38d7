package quiz

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/go-cmp/cmp"

	"mindspace-backend/internal/quiz/catalog"
	"mindspace-backend/internal/quiz/recommendation"
)

func TestPGRepoCreate(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	created := time.Date(2026, time.March, 3, 10, 0, 0, 0, time.UTC)
	sub := Submission{
		ID:      testSubmissionID,
		Answers: recommendation.AnswerSet{"q1": "stress"},
		Scores:  recommendation.ScoreVector{"terapia": 3, "evolutiva": 1},
		Result: recommendation.Result{
			Category:   "terapia",
			Confidence: recommendation.ConfidenceHigh,
			Shares:     map[recommendation.Category]int{"terapia": 75, "evolutiva": 25},
			Ranked:     []recommendation.Category{"terapia", "evolutiva"},
		},
		CatalogVersion: "abc123",
		CreatedAt:      created,
	}

	mock.ExpectExec("INSERT INTO quiz_submissions").
		WithArgs(
			sub.ID,
			nil, // visitor_id
			[]byte(`{"q1":"stress"}`),
			[]byte(`{"evolutiva":1,"terapia":3}`),
			"terapia",
			"high",
			[]byte(`{"evolutiva":25,"terapia":75}`),
			[]byte(`["terapia","evolutiva"]`),
			sqlmock.AnyArg(), // profile
			"abc123",
			created,
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.Create(context.Background(), sub); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoGetByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	created := time.Date(2026, time.March, 3, 10, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{
		"id", "visitor_id", "answers", "scores", "category", "confidence", "shares", "ranked", "profile", "catalog_version", "created_at",
	}).AddRow(
		testSubmissionID,
		"visitor-0001",
		[]byte(`{"q1":"confused","q2":"relationships","q3":"light"}`),
		[]byte(`{"terapia":7,"evolutiva":6}`),
		"both",
		"moderate",
		[]byte(`{"terapia":54,"evolutiva":46}`),
		[]byte(`["terapia","evolutiva"]`),
		[]byte(`{"flags":{"emotional":true},"values":{"commitment":"light"}}`),
		"abc123",
		created,
	)
	mock.ExpectQuery("SELECT (.+) FROM quiz_submissions WHERE id = \\$1").
		WithArgs(testSubmissionID).
		WillReturnRows(rows)

	sub, err := repo.GetByID(context.Background(), testSubmissionID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	want := Submission{
		ID:        testSubmissionID,
		VisitorID: "visitor-0001",
		Answers:   recommendation.AnswerSet{"q1": "confused", "q2": "relationships", "q3": "light"},
		Scores:    recommendation.ScoreVector{"terapia": 7, "evolutiva": 6},
		Result: recommendation.Result{
			Category:   recommendation.CategoryBoth,
			Confidence: recommendation.ConfidenceModerate,
			Shares:     map[recommendation.Category]int{"terapia": 54, "evolutiva": 46},
			Ranked:     []recommendation.Category{"terapia", "evolutiva"},
		},
		Profile: catalog.Profile{
			Flags:  map[string]bool{"emotional": true},
			Values: map[string]string{"commitment": "light"},
		},
		CatalogVersion: "abc123",
		CreatedAt:      created,
	}
	if diff := cmp.Diff(want, sub); diff != "" {
		t.Fatalf("submission (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]recommendation.Category{"terapia", "evolutiva"}, sub.Result.Recommended()); diff != "" {
		t.Fatalf("recommended (-want +got):\n%s", diff)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoGetByIDNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	mock.ExpectQuery("SELECT (.+) FROM quiz_submissions").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	repo := &PGRepo{DB: db}
	if _, err := repo.GetByID(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
