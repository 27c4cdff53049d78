package leaderboard

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/bloops-games/biasbingo/internal/database/score/model"
	"github.com/bloops-games/biasbingo/internal/logging"
	"github.com/jonboulle/clockwork"
)

const DefaultPollInterval = 2 * time.Second

// Backend is the leaderboard as seen by the game and the presentation layer.
type Backend interface {
	All(ctx context.Context) []model.Score
	Upsert(ctx context.Context, s model.Score)
	Subscribe(ctx context.Context, fn func([]model.Score)) (cancel func())
}

// Store is the record store behind the mock backend.
type Store interface {
	FetchAll(ctx context.Context) ([]model.Score, error)
	Upsert(ctx context.Context, s model.Score) (bool, error)
}

type Config struct {
	PollInterval time.Duration
	Clock        clockwork.Clock
}

var _ Backend = (*Service)(nil)

func New(store Store, config Config) *Service {
	if config.PollInterval <= 0 {
		config.PollInterval = DefaultPollInterval
	}
	if config.Clock == nil {
		config.Clock = clockwork.NewRealClock()
	}

	return &Service{store: store, config: config}
}

// Service simulates a shared remote leaderboard on top of the local store.
// Failures never reach callers: reads degrade to an empty set, writes are dropped.
type Service struct {
	store  Store
	config Config
}

func (s *Service) All(ctx context.Context) []model.Score {
	list, err := s.store.FetchAll(ctx)
	if err != nil {
		logging.FromContext(ctx).Named("leaderboard.All").Errorf("fetch leaderboard: %v", err)
		return []model.Score{}
	}

	return list
}

func (s *Service) Upsert(ctx context.Context, score model.Score) {
	logger := logging.FromContext(ctx).Named("leaderboard.Upsert")
	changed, err := s.store.Upsert(ctx, score)
	if err != nil {
		logger.Errorf("upsert score of %s (%s): %v", score.Name, score.Startup, err)
		return
	}

	if changed {
		logger.Debugf("score of %s (%s) is now %d in %ds", score.Name, score.Startup, score.Score, score.Time)
	}
}

// Subscribe invokes fn right away and then once per poll interval until the
// returned cancel is called or ctx is done. A read still in flight when the
// subscription ends is discarded.
func (s *Service) Subscribe(ctx context.Context, fn func([]model.Score)) func() {
	ctx, stop := context.WithCancel(ctx)
	done := make(chan struct{})
	var once sync.Once
	cancel := func() {
		once.Do(func() {
			stop()
			close(done)
		})
	}

	deliver := func() {
		list := s.All(ctx)
		select {
		case <-done:
			return
		default:
		}
		if ctx.Err() != nil {
			return
		}
		fn(list)
	}

	deliver()

	ticker := s.config.Clock.NewTicker(s.config.PollInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				cancel()
				return
			case <-done:
				return
			case <-ticker.Chan():
				deliver()
			}
		}
	}()

	return cancel
}

// Rank orders scores best first: more biases found, then less time, then name.
func Rank(list []model.Score) []model.Score {
	out := make([]model.Score, len(list))
	copy(out, list)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Time != b.Time {
			return a.Time < b.Time
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.Startup < b.Startup
	})

	return out
}
