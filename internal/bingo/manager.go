package bingo

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bloops-games/biasbingo/internal/bingo/match"
	"github.com/bloops-games/biasbingo/internal/bingo/resource"
	"github.com/bloops-games/biasbingo/internal/cache"
	"github.com/bloops-games/biasbingo/internal/database/gamestate/model"
	"github.com/bloops-games/biasbingo/internal/logging"
	"github.com/jonboulle/clockwork"
)

// StateStore persists session records.
type StateStore interface {
	match.StateStore
	Fetch(ctx context.Context, sessionID string) (model.State, bool, error)
}

type ManagerConfig struct {
	CacheSize int
	Duration  time.Duration
	Catalog   *resource.Catalog
	Clock     clockwork.Clock
}

func NewManager(store StateStore, reporter match.Reporter, config ManagerConfig) (*Manager, error) {
	if config.Clock == nil {
		config.Clock = clockwork.NewRealClock()
	}

	m := &Manager{
		store:    store,
		reporter: reporter,
		config:   config,
		ctx:      context.Background(),
	}

	sessions, err := cache.NewLRU(config.CacheSize, func(key, value interface{}) {
		value.(*match.Session).Stop()
	})
	if err != nil {
		return nil, fmt.Errorf("new session cache: %w", err)
	}
	m.sessions = sessions

	return m, nil
}

// Manager owns the live sessions. Sessions pushed out of the cache are
// stopped and get reloaded from the store on their next request.
type Manager struct {
	mtx sync.Mutex

	ctx      context.Context
	store    StateStore
	reporter match.Reporter
	config   ManagerConfig
	sessions *cache.LRU
}

func (m *Manager) Catalog() *resource.Catalog {
	return m.config.Catalog
}

func (m *Manager) Duration() time.Duration {
	return m.config.Duration
}

// Run binds the countdowns of sessions loaded later to ctx and stops every
// live session once ctx is done.
func (m *Manager) Run(ctx context.Context) error {
	m.mtx.Lock()
	m.ctx = ctx
	m.mtx.Unlock()

	<-ctx.Done()

	m.mtx.Lock()
	defer m.mtx.Unlock()
	logging.FromContext(ctx).Named("bingo.Manager.Run").Infof("stopping %d live sessions", m.sessions.Len())
	m.sessions.Purge()

	return nil
}

// Session returns the live session for id, loading and resuming it when needed.
func (m *Manager) Session(ctx context.Context, id string) *match.Session {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	if v, ok := m.sessions.Get(id); ok {
		return v.(*match.Session)
	}

	logger := logging.FromContext(ctx).Named("bingo.Manager.Session")
	state, found, err := m.store.Fetch(ctx, id)
	if err != nil {
		logger.Errorf("fetch session %s, starting fresh: %v", id, err)
	}
	if found {
		logger.Debugf("session %s resumed in status %s", id, state.Status)
	}

	session := match.NewSession(match.Config{
		ID:       id,
		Duration: m.config.Duration,
		Catalog:  m.config.Catalog,
		Clock:    m.config.Clock,
		Store:    m.store,
		Reporter: m.reporter,
	}, state)
	session.Run(m.ctx)
	m.sessions.Add(id, session)

	return session
}

// Do runs fn against the live session for id. A session evicted between the
// lookup and the call is reloaded once.
func (m *Manager) Do(ctx context.Context, id string, fn func(*match.Session) error) error {
	err := fn(m.Session(ctx, id))
	if !errors.Is(err, match.ErrStopped) {
		return err
	}

	m.forget(id)
	return fn(m.Session(ctx, id))
}

func (m *Manager) forget(id string) {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	if v, ok := m.sessions.Get(id); ok {
		if v.(*match.Session).Stopped() {
			m.sessions.Delete(id)
		}
	}
}
