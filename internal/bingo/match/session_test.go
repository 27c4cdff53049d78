package match

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bloops-games/biasbingo/internal/bingo/resource"
	"github.com/bloops-games/biasbingo/internal/database/gamestate/model"
	scoreModel "github.com/bloops-games/biasbingo/internal/database/score/model"
	"github.com/jonboulle/clockwork"
)

type memStore struct {
	mtx     sync.Mutex
	states  map[string]model.State
	deletes int
}

func (m *memStore) Store(id string, s model.State) error {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	if m.states == nil {
		m.states = map[string]model.State{}
	}
	m.states[id] = s
	return nil
}

func (m *memStore) Delete(id string) error {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	delete(m.states, id)
	m.deletes++
	return nil
}

func (m *memStore) get(id string) (model.State, bool) {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	s, ok := m.states[id]
	return s, ok
}

type recorder struct {
	mtx    sync.Mutex
	scores []scoreModel.Score
}

func (r *recorder) Upsert(_ context.Context, s scoreModel.Score) {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	r.scores = append(r.scores, s)
}

func (r *recorder) all() []scoreModel.Score {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	out := make([]scoreModel.Score, len(r.scores))
	copy(out, r.scores)
	return out
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

type fixture struct {
	clock    *clockwork.FakeClock
	store    *memStore
	reporter *recorder
	session  *Session
}

func newFixture(t *testing.T, state model.State) *fixture {
	t.Helper()
	catalog, err := resource.DefaultCatalog()
	if err != nil {
		t.Fatalf("default catalog: %v", err)
	}

	f := &fixture{
		clock:    clockwork.NewFakeClockAt(time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)),
		store:    &memStore{},
		reporter: &recorder{},
	}
	f.session = NewSession(Config{
		ID:       "s1",
		Duration: time.Hour,
		Catalog:  catalog,
		Clock:    f.clock,
		Store:    f.store,
		Reporter: f.reporter,
	}, state)
	t.Cleanup(f.session.Stop)

	return f
}

func (f *fixture) start(t *testing.T) {
	t.Helper()
	f.session.Run(context.Background())
	if _, ok, err := f.session.Start(context.Background(), "Ada", "Startup A"); err != nil || !ok {
		t.Fatalf("start: ok %v err %v", ok, err)
	}
}

func evidence() EvidenceInput {
	return EvidenceInput{Brand: "Acme", ImageURL: "data:image/png;base64,AAAA"}
}

func TestStartValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		player string
		org    string
	}{
		{name: "empty_name", player: "  ", org: "Startup A"},
		{name: "unknown_org", player: "Ada", org: "Nowhere"},
		{name: "empty_org", player: "Ada", org: ""},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			f := newFixture(t, model.NewState())
			_, ok, err := f.session.Start(context.Background(), tc.player, tc.org)
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if ok {
				t.Fatal("start must not succeed")
			}
			if f.session.Snapshot().Status != model.StatusStart {
				t.Fatal("status changed")
			}
		})
	}
}

func TestStartPersists(t *testing.T) {
	t.Parallel()

	f := newFixture(t, model.NewState())
	f.start(t)

	stored, ok := f.store.get("s1")
	if !ok {
		t.Fatal("state not stored")
	}
	if stored.Status != model.StatusPlaying || stored.PlayerName != "Ada" || stored.StartupName != "Startup A" {
		t.Fatalf("unexpected stored state %+v", stored)
	}
	if stored.StartTime == nil || *stored.StartTime != f.clock.Now().UnixMilli() {
		t.Fatal("start time not recorded")
	}

	// second start is ignored
	if _, ok, err := f.session.Start(context.Background(), "Bob", "Startup B"); err != nil || ok {
		t.Fatalf("second start: ok %v err %v", ok, err)
	}
	if got := f.session.Snapshot().PlayerName; got != "Ada" {
		t.Fatalf("player changed to %s", got)
	}
}

func TestSubmitRowWin(t *testing.T) {
	t.Parallel()

	f := newFixture(t, model.NewState())
	f.start(t)

	for id := 0; id < 4; id++ {
		f.clock.Advance(time.Minute)
		out, err := f.session.Submit(context.Background(), id, evidence())
		if err != nil {
			t.Fatalf("submit %d: %v", id, err)
		}
		if !out.Accepted || out.Bingo != nil {
			t.Fatalf("submit %d: unexpected outcome %+v", id, out)
		}
	}

	f.clock.Advance(time.Minute)
	out, err := f.session.Submit(context.Background(), 4, evidence())
	if err != nil {
		t.Fatalf("submit 4: %v", err)
	}
	if out.Bingo == nil || out.Bingo.Index != 0 {
		t.Fatalf("expected bingo on first row, got %+v", out.Bingo)
	}
	if !out.Snapshot.Bingo || len(out.Snapshot.BingoLine) != 5 {
		t.Fatalf("snapshot misses bingo: %+v", out.Snapshot)
	}

	// the win fires only once
	out, err = f.session.Submit(context.Background(), 5, evidence())
	if err != nil {
		t.Fatalf("submit 5: %v", err)
	}
	if !out.Accepted || out.Bingo != nil {
		t.Fatalf("bingo repeated: %+v", out)
	}

	scores := f.reporter.all()
	if len(scores) != 6 {
		t.Fatalf("expected 6 reports, got %d", len(scores))
	}
	last := scores[len(scores)-1]
	if last.Score != 6 || last.Time != 300 || last.Name != "Ada" || last.Startup != "Startup A" {
		t.Fatalf("unexpected last report %+v", last)
	}
}

func TestSubmitNoop(t *testing.T) {
	t.Parallel()

	f := newFixture(t, model.NewState())

	// before start
	out, err := f.session.Submit(context.Background(), 0, evidence())
	if err != nil || out.Accepted {
		t.Fatalf("submit before start: %+v %v", out, err)
	}

	f.start(t)
	if _, err := f.session.Submit(context.Background(), 3, evidence()); err != nil {
		t.Fatal(err)
	}

	out, err = f.session.Submit(context.Background(), 3, EvidenceInput{Brand: "Other", ImageURL: "x"})
	if err != nil || out.Accepted {
		t.Fatalf("duplicate submit: %+v %v", out, err)
	}
	if ev, _ := f.session.Evidence(3); ev.Brand != "Acme" {
		t.Fatalf("evidence overwritten: %+v", ev)
	}
	if n := len(f.reporter.all()); n != 1 {
		t.Fatalf("expected one report, got %d", n)
	}
}

func TestSubmitValidation(t *testing.T) {
	t.Parallel()

	f := newFixture(t, model.NewState())
	f.start(t)

	tests := []struct {
		name string
		id   int
		in   EvidenceInput
	}{
		{name: "unknown_bias", id: 25, in: evidence()},
		{name: "negative_bias", id: -1, in: evidence()},
		{name: "no_brand", id: 1, in: EvidenceInput{ImageURL: "x"}},
		{name: "no_image", id: 1, in: EvidenceInput{Brand: "Acme"}},
	}

	for _, tc := range tests {
		if _, err := f.session.Submit(context.Background(), tc.id, tc.in); !errors.Is(err, ErrValidation) {
			t.Errorf("%s: expected validation error, got %v", tc.name, err)
		}
	}

	if got := f.session.Snapshot().FoundCount; got != 0 {
		t.Fatalf("found %d", got)
	}
}

func TestExpiryReportsOnce(t *testing.T) {
	t.Parallel()

	f := newFixture(t, model.NewState())
	f.start(t)

	if _, err := f.session.Submit(context.Background(), 7, evidence()); err != nil {
		t.Fatal(err)
	}

	f.clock.Advance(time.Hour)
	waitFor(t, func() bool {
		return f.session.Snapshot().Status == model.StatusFinished
	})

	scores := f.reporter.all()
	if len(scores) != 2 {
		t.Fatalf("expected 2 reports, got %d", len(scores))
	}
	if scores[1].Time != 3600 || scores[1].Score != 1 {
		t.Fatalf("unexpected final report %+v", scores[1])
	}

	// late submissions are ignored
	out, err := f.session.Submit(context.Background(), 8, evidence())
	if err != nil || out.Accepted {
		t.Fatalf("late submit: %+v %v", out, err)
	}

	f.clock.Advance(time.Hour)
	if n := len(f.reporter.all()); n != 2 {
		t.Fatalf("reported again: %d", n)
	}
	if stored, _ := f.store.get("s1"); stored.Status != model.StatusFinished {
		t.Fatalf("stored status %s", stored.Status)
	}
}

func TestRunResumesExpired(t *testing.T) {
	t.Parallel()

	started := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	state := model.NewState()
	state.Status = model.StatusPlaying
	state.PlayerName = "Ada"
	state.StartupName = "Startup A"
	state.StartTime = model.UnixMilli(started)
	state.FoundEvidence[2] = model.Evidence{Brand: "Acme", ImageURL: "x", Timestamp: started.UnixMilli()}

	f := newFixture(t, state)
	f.session.Run(context.Background())

	snap := f.session.Snapshot()
	if snap.Status != model.StatusFinished {
		t.Fatalf("expected finished, got %s", snap.Status)
	}
	if snap.ElapsedSeconds != 3600 || snap.RemainingSeconds != 0 {
		t.Fatalf("unexpected times %+v", snap)
	}

	scores := f.reporter.all()
	if len(scores) != 1 || scores[0].Time != 3600 || scores[0].Score != 1 {
		t.Fatalf("unexpected reports %+v", scores)
	}
}

func TestRunResumesLive(t *testing.T) {
	t.Parallel()

	f := newFixture(t, model.NewState())
	state := model.NewState()
	state.Status = model.StatusPlaying
	state.PlayerName = "Ada"
	state.StartupName = "Startup A"
	state.StartTime = model.UnixMilli(f.clock.Now().Add(-50 * time.Minute))
	f.session = NewSession(f.session.Config, state)
	t.Cleanup(f.session.Stop)

	f.session.Run(context.Background())
	if snap := f.session.Snapshot(); snap.RemainingSeconds != 600 || snap.ElapsedSeconds != 3000 {
		t.Fatalf("unexpected times %+v", snap)
	}

	f.clock.Advance(10 * time.Minute)
	waitFor(t, func() bool {
		return f.session.Snapshot().Status == model.StatusFinished
	})
}

func TestEnd(t *testing.T) {
	t.Parallel()

	f := newFixture(t, model.NewState())
	if _, ok, err := f.session.End(context.Background()); err != nil || ok {
		t.Fatalf("end before start: %v %v", ok, err)
	}

	f.start(t)
	f.clock.Advance(90 * time.Second)

	snap, ok, err := f.session.End(context.Background())
	if err != nil || !ok {
		t.Fatalf("end: %v %v", ok, err)
	}
	if snap.Status != model.StatusFinished || snap.ElapsedSeconds != 90 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}

	scores := f.reporter.all()
	if len(scores) != 1 || scores[0].Time != 90 || scores[0].Score != 0 {
		t.Fatalf("unexpected reports %+v", scores)
	}

	if _, ok, _ := f.session.End(context.Background()); ok {
		t.Fatal("second end must be a no-op")
	}
}

func TestRestart(t *testing.T) {
	t.Parallel()

	f := newFixture(t, model.NewState())
	f.start(t)

	if _, ok, _ := f.session.Restart(context.Background()); ok {
		t.Fatal("restart while playing must be a no-op")
	}

	if _, err := f.session.Submit(context.Background(), 0, evidence()); err != nil {
		t.Fatal(err)
	}
	if _, _, err := f.session.End(context.Background()); err != nil {
		t.Fatal(err)
	}

	snap, ok, err := f.session.Restart(context.Background())
	if err != nil || !ok {
		t.Fatalf("restart: %v %v", ok, err)
	}
	if snap.Status != model.StatusStart || snap.FoundCount != 0 || snap.PlayerName != "" {
		t.Fatalf("state not cleared %+v", snap)
	}
	if _, ok := f.store.get("s1"); ok {
		t.Fatal("stored state not deleted")
	}

	// a new round starts cleanly
	f.start(t)
	if got := f.session.Snapshot().FoundCount; got != 0 {
		t.Fatalf("found %d after restart", got)
	}
}

func TestStopped(t *testing.T) {
	t.Parallel()

	f := newFixture(t, model.NewState())
	f.start(t)
	f.session.Stop()

	if _, _, err := f.session.Start(context.Background(), "Ada", "Startup A"); !errors.Is(err, ErrStopped) {
		t.Fatalf("start: %v", err)
	}
	if _, err := f.session.Submit(context.Background(), 0, evidence()); !errors.Is(err, ErrStopped) {
		t.Fatalf("submit: %v", err)
	}
	if _, _, err := f.session.End(context.Background()); !errors.Is(err, ErrStopped) {
		t.Fatalf("end: %v", err)
	}

	f.clock.Advance(2 * time.Hour)
	if n := len(f.reporter.all()); n != 0 {
		t.Fatalf("stopped session reported %d times", n)
	}
}
