package quiz

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryRepoListByVisitorNewestFirst(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()
	base := time.Date(2026, time.January, 1, 9, 0, 0, 0, time.UTC)

	for i, id := range []string{"a", "b", "c"} {
		sub := Submission{ID: id, VisitorID: "visitor-1", CreatedAt: base.Add(time.Duration(i) * time.Minute)}
		if err := repo.Create(ctx, sub); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	if err := repo.Create(ctx, Submission{ID: "x", VisitorID: "visitor-2", CreatedAt: base}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	subs, err := repo.ListByVisitor(ctx, "visitor-1", 2)
	if err != nil {
		t.Fatalf("ListByVisitor: %v", err)
	}
	if len(subs) != 2 || subs[0].ID != "c" || subs[1].ID != "b" {
		t.Fatalf("unexpected order: %+v", subs)
	}
}

func TestMemoryRepoHonorsContext(t *testing.T) {
	repo := NewMemoryRepo()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := repo.Create(ctx, Submission{ID: "a"}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if _, err := repo.GetByID(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
