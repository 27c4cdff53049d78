package database

import (
	"context"
	"testing"

	"github.com/bloops-games/biasbingo/internal/database"
	"github.com/bloops-games/biasbingo/internal/database/score/model"
)

func TestUpsertBestScore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := New(database.NewTestDatabase(t))

	steps := []struct {
		candidate model.Score
		changed   bool
		stored    model.Score
	}{
		{
			candidate: model.Score{Name: "Ada", Startup: "Startup A", Score: 3, Time: 120},
			changed:   true,
			stored:    model.Score{Name: "Ada", Startup: "Startup A", Score: 3, Time: 120},
		},
		{
			candidate: model.Score{Name: "Ada", Startup: "Startup A", Score: 2, Time: 50},
			changed:   false,
			stored:    model.Score{Name: "Ada", Startup: "Startup A", Score: 3, Time: 120},
		},
		{
			candidate: model.Score{Name: "Ada", Startup: "Startup A", Score: 3, Time: 90},
			changed:   true,
			stored:    model.Score{Name: "Ada", Startup: "Startup A", Score: 3, Time: 90},
		},
		{
			candidate: model.Score{Name: "Ada", Startup: "Startup A", Score: 3, Time: 90},
			changed:   false,
			stored:    model.Score{Name: "Ada", Startup: "Startup A", Score: 3, Time: 90},
		},
	}

	for i, step := range steps {
		changed, err := db.Upsert(ctx, step.candidate)
		if err != nil {
			t.Fatalf("step %d: upsert: %v", i, err)
		}
		if changed != step.changed {
			t.Errorf("step %d: expected changed %v got %v", i, step.changed, changed)
		}

		list, err := db.FetchAll(ctx)
		if err != nil {
			t.Fatalf("step %d: fetch all: %v", i, err)
		}
		if len(list) != 1 || list[0] != step.stored {
			t.Errorf("step %d: expected [%#v] got %#v", i, step.stored, list)
		}
	}
}

func TestUpsertMonotonic(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := New(database.NewTestDatabase(t))

	candidates := []model.Score{
		{Score: 1, Time: 300}, {Score: 4, Time: 900}, {Score: 2, Time: 10},
		{Score: 4, Time: 1200}, {Score: 4, Time: 600}, {Score: 0, Time: 1},
		{Score: 5, Time: 3600}, {Score: 5, Time: 3599},
	}

	var prev model.Score
	for i, c := range candidates {
		c.Name, c.Startup = "Grace", "Startup B"
		if _, err := db.Upsert(ctx, c); err != nil {
			t.Fatalf("upsert %d: %v", i, err)
		}

		list, err := db.FetchAll(ctx)
		if err != nil {
			t.Fatalf("fetch all: %v", err)
		}
		if len(list) != 1 {
			t.Fatalf("expected one record per key, got %d", len(list))
		}

		cur := list[0]
		if i > 0 {
			if cur.Score < prev.Score {
				t.Errorf("score decreased from %d to %d", prev.Score, cur.Score)
			}
			if cur.Score == prev.Score && cur.Time > prev.Time {
				t.Errorf("time increased from %d to %d at score %d", prev.Time, cur.Time, cur.Score)
			}
		}
		prev = cur
	}

	if prev.Score != 5 || prev.Time != 3599 {
		t.Errorf("expected best 5/3599 got %d/%d", prev.Score, prev.Time)
	}
}

func TestFetchAllEmptyAndClean(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := New(database.NewTestDatabase(t))

	list, err := db.FetchAll(ctx)
	if err != nil {
		t.Fatalf("fetch all: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("expected empty leaderboard, got %#v", list)
	}

	for _, s := range []model.Score{
		{Name: "Ada", Startup: "Startup A", Score: 1, Time: 10},
		{Name: "Ada", Startup: "Startup B", Score: 1, Time: 10},
	} {
		if _, err := db.Upsert(ctx, s); err != nil {
			t.Fatalf("upsert: %v", err)
		}
	}

	if list, _ = db.FetchAll(ctx); len(list) != 2 {
		t.Fatalf("expected 2 records keyed by name and startup, got %d", len(list))
	}

	if err := db.Clean(); err != nil {
		t.Fatalf("clean: %v", err)
	}

	if list, _ = db.FetchAll(ctx); len(list) != 0 {
		t.Errorf("expected empty leaderboard after clean, got %#v", list)
	}
}
