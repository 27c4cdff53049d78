package match

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bloops-games/biasbingo/internal/bingo/board"
	"github.com/bloops-games/biasbingo/internal/database/gamestate/model"
	scoreModel "github.com/bloops-games/biasbingo/internal/database/score/model"
	"github.com/bloops-games/biasbingo/internal/logging"
	"github.com/jonboulle/clockwork"
)

var (
	ErrValidation = fmt.Errorf("validation errors")
	ErrStopped    = fmt.Errorf("session stopped")
)

type EvidenceInput struct {
	Brand    string
	Notes    string
	ImageURL string
}

type Outcome struct {
	Accepted bool
	// First completed line, only set on the submission that produced it
	Bingo    *board.Line
	Snapshot Snapshot
}

func NewSession(config Config, state model.State) *Session {
	if config.Clock == nil {
		config.Clock = clockwork.NewRealClock()
	}

	if state.FoundEvidence == nil {
		state.FoundEvidence = map[int]model.Evidence{}
	}

	return &Session{Config: config, state: state, ctx: context.Background()}
}

// Session is one player's play-through. All transitions are serialized by mtx.
type Session struct {
	Config Config

	mtx     sync.Mutex
	state   model.State
	timer   clockwork.Timer
	stopped bool
	// outlives requests, the countdown reports through it
	ctx context.Context
}

// Run resumes a loaded session: an expired playing session is finalized
// right away, a live one gets its countdown armed for the remaining time.
func (r *Session) Run(ctx context.Context) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	r.ctx = ctx
	if r.stopped || r.state.Status != model.StatusPlaying {
		return
	}

	now := r.Config.Clock.Now()
	if r.expiredLocked(now) {
		logging.FromContext(ctx).Named("match.Session.Run").Infof(
			"session %s expired while offline, finalizing", r.Config.ID,
		)
		r.finishLocked(ctx, now, r.Config.durationSeconds())
		return
	}

	r.armLocked(now)
}

// Stop disarms the countdown, later calls return ErrStopped.
func (r *Session) Stop() {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	r.stopped = true
	r.disarmLocked()
}

func (r *Session) Stopped() bool {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	return r.stopped
}

func (r *Session) Snapshot() Snapshot {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	return r.snapshotLocked(r.Config.Clock.Now())
}

// Evidence returns the proof submitted for a bias.
func (r *Session) Evidence(biasID int) (model.Evidence, bool) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	ev, ok := r.state.FoundEvidence[biasID]
	return ev, ok
}

// Start moves a fresh session to playing. It is a no-op outside the start state.
func (r *Session) Start(ctx context.Context, playerName, organization string) (Snapshot, bool, error) {
	playerName = strings.TrimSpace(playerName)
	if playerName == "" {
		return Snapshot{}, false, fmt.Errorf("%w: player name is required", ErrValidation)
	}

	if !r.Config.Catalog.HasOrganization(organization) {
		return Snapshot{}, false, fmt.Errorf("%w: unknown organization %q", ErrValidation, organization)
	}

	r.mtx.Lock()
	defer r.mtx.Unlock()

	if r.stopped {
		return Snapshot{}, false, ErrStopped
	}

	now := r.Config.Clock.Now()
	if r.state.Status != model.StatusStart {
		return r.snapshotLocked(now), false, nil
	}

	r.state = model.State{
		Status:        model.StatusPlaying,
		PlayerName:    playerName,
		StartupName:   organization,
		StartTime:     model.UnixMilli(now),
		FoundEvidence: map[int]model.Evidence{},
	}

	logging.FromContext(ctx).Named("match.Session.Start").Infof(
		"session %s started, player: %s, startup: %s", r.Config.ID, playerName, organization,
	)

	r.persistLocked(ctx)
	r.armLocked(now)

	return r.snapshotLocked(now), true, nil
}

// Submit records evidence for a bias that has not been found yet.
func (r *Session) Submit(ctx context.Context, biasID int, in EvidenceInput) (Outcome, error) {
	if _, ok := r.Config.Catalog.Bias(biasID); !ok {
		return Outcome{}, fmt.Errorf("%w: unknown bias %d", ErrValidation, biasID)
	}

	brand := strings.TrimSpace(in.Brand)
	if brand == "" {
		return Outcome{}, fmt.Errorf("%w: brand or location is required", ErrValidation)
	}

	if strings.TrimSpace(in.ImageURL) == "" {
		return Outcome{}, fmt.Errorf("%w: evidence photo is required", ErrValidation)
	}

	r.mtx.Lock()
	defer r.mtx.Unlock()

	if r.stopped {
		return Outcome{}, ErrStopped
	}

	logger := logging.FromContext(ctx).Named("match.Session.Submit")
	now := r.Config.Clock.Now()

	if r.state.Status != model.StatusPlaying || r.state.Found(biasID) {
		return Outcome{Snapshot: r.snapshotLocked(now)}, nil
	}

	// the countdown may not have fired yet
	if r.expiredLocked(now) {
		r.finishLocked(ctx, now, r.Config.durationSeconds())
		return Outcome{Snapshot: r.snapshotLocked(now)}, nil
	}

	r.state.FoundEvidence[biasID] = model.Evidence{
		Brand:     brand,
		Notes:     strings.TrimSpace(in.Notes),
		ImageURL:  in.ImageURL,
		Timestamp: now.UnixMilli(),
	}

	outcome := Outcome{Accepted: true}
	if r.state.Bingo == nil {
		if line, ok := board.Check(board.FromEvidence(r.state.FoundEvidence)); ok {
			idx := line.Index
			r.state.Bingo = &idx
			outcome.Bingo = &line
			logger.Infof("session %s bingo on %s %d", r.Config.ID, line.Kind, line.Index)
		}
	}

	r.reportLocked(ctx, r.elapsedSecondsLocked(now))
	r.persistLocked(ctx)

	outcome.Snapshot = r.snapshotLocked(now)
	return outcome, nil
}

// End finishes a playing session before the countdown runs out.
func (r *Session) End(ctx context.Context) (Snapshot, bool, error) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	if r.stopped {
		return Snapshot{}, false, ErrStopped
	}

	now := r.Config.Clock.Now()
	if r.state.Status != model.StatusPlaying {
		return r.snapshotLocked(now), false, nil
	}

	r.finishLocked(ctx, now, r.elapsedSecondsLocked(now))
	return r.snapshotLocked(now), true, nil
}

// Restart clears a finished session and its stored record.
func (r *Session) Restart(ctx context.Context) (Snapshot, bool, error) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	if r.stopped {
		return Snapshot{}, false, ErrStopped
	}

	now := r.Config.Clock.Now()
	if r.state.Status == model.StatusPlaying {
		return r.snapshotLocked(now), false, nil
	}

	r.disarmLocked()
	r.state = model.NewState()
	if err := r.Config.Store.Delete(r.Config.ID); err != nil {
		logging.FromContext(ctx).Named("match.Session.Restart").Errorf(
			"delete session %s: %v", r.Config.ID, err,
		)
	}

	return r.snapshotLocked(now), true, nil
}

func (r *Session) expire() {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	if r.stopped || r.state.Status != model.StatusPlaying {
		return
	}

	ctx := r.ctx
	now := r.Config.Clock.Now()
	if !r.expiredLocked(now) {
		r.armLocked(now)
		return
	}

	logging.FromContext(ctx).Named("match.Session.expire").Infof("session %s time is up", r.Config.ID)
	r.finishLocked(ctx, now, r.Config.durationSeconds())
}

func (r *Session) finishLocked(ctx context.Context, now time.Time, secs int) {
	r.disarmLocked()
	r.state.Status = model.StatusFinished
	r.state.FinishedAt = model.UnixMilli(now)
	r.reportLocked(ctx, secs)
	r.persistLocked(ctx)
}

func (r *Session) armLocked(now time.Time) {
	r.disarmLocked()
	remaining := r.deadlineLocked().Sub(now)
	if remaining < 0 {
		remaining = 0
	}

	r.timer = r.Config.Clock.AfterFunc(remaining, r.expire)
}

func (r *Session) disarmLocked() {
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
}

func (r *Session) reportLocked(ctx context.Context, secs int) {
	if r.Config.Reporter == nil || r.state.PlayerName == "" {
		return
	}

	r.Config.Reporter.Upsert(ctx, scoreModel.Score{
		Name:    r.state.PlayerName,
		Startup: r.state.StartupName,
		Score:   len(r.state.FoundEvidence),
		Time:    secs,
	})
}

func (r *Session) persistLocked(ctx context.Context) {
	if err := r.Config.Store.Store(r.Config.ID, r.state); err != nil {
		logging.FromContext(ctx).Named("match.Session.persist").Errorf(
			"store session %s: %v", r.Config.ID, err,
		)
	}
}

func (r *Session) deadlineLocked() time.Time {
	started, _ := r.state.StartedAt()
	return started.Add(r.Config.Duration)
}

func (r *Session) expiredLocked(now time.Time) bool {
	return !now.Before(r.deadlineLocked())
}

func (r *Session) elapsedSecondsLocked(now time.Time) int {
	started, ok := r.state.StartedAt()
	if !ok {
		return 0
	}

	secs := int(now.Sub(started) / time.Second)
	if secs < 0 {
		return 0
	}
	if limit := r.Config.durationSeconds(); secs > limit {
		return limit
	}
	return secs
}
