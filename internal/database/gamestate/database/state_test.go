package database

import (
	"context"
	"testing"
	"time"

	"github.com/bloops-games/biasbingo/internal/database"
	"github.com/bloops-games/biasbingo/internal/database/gamestate/model"
)

func TestStoreFetchDelete(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := New(database.NewTestDatabase(t))

	s, found, err := db.Fetch(ctx, "session-1")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if found || s.Status != model.StatusStart {
		t.Fatalf("expected fresh start state, got %#v (found %v)", s, found)
	}

	s = model.State{
		Status:      model.StatusPlaying,
		PlayerName:  "Ada",
		StartupName: "Startup A",
		StartTime:   model.UnixMilli(time.Now()),
		FoundEvidence: map[int]model.Evidence{
			3: {Brand: "Acme", ImageURL: "data:image/png;base64,AAAA", Timestamp: 1},
		},
	}
	if err := db.Store("session-1", s); err != nil {
		t.Fatalf("store: %v", err)
	}

	got, found, err := db.Fetch(ctx, "session-1")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if !found {
		t.Fatal("expected stored state")
	}
	if got.PlayerName != "Ada" || !got.Found(3) || got.FoundEvidence[3].Brand != "Acme" {
		t.Errorf("unexpected state %#v", got)
	}

	ids, err := db.FetchIDs()
	if err != nil {
		t.Fatalf("fetch ids: %v", err)
	}
	if len(ids) != 1 || ids[0] != "session-1" {
		t.Errorf("expected [session-1] got %v", ids)
	}

	if err := db.Delete("session-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if _, found, _ := db.Fetch(ctx, "session-1"); found {
		t.Error("expected state to be deleted")
	}
}

func TestFetchInvalidState(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := New(database.NewTestDatabase(t))

	// playing without a start time breaks the session invariant
	if err := db.Store("broken", model.State{Status: model.StatusPlaying, PlayerName: "Ada"}); err != nil {
		t.Fatalf("store: %v", err)
	}

	s, found, err := db.Fetch(ctx, "broken")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if found || s.Status != model.StatusStart {
		t.Errorf("expected invalid record to fall back to a fresh state, got %#v", s)
	}
}
