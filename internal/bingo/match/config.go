package match

import (
	"context"
	"time"

	"github.com/bloops-games/biasbingo/internal/bingo/resource"
	"github.com/bloops-games/biasbingo/internal/database/gamestate/model"
	scoreModel "github.com/bloops-games/biasbingo/internal/database/score/model"
	"github.com/jonboulle/clockwork"
)

// Reporter receives progress of a session. Implementations own their failure handling.
type Reporter interface {
	Upsert(ctx context.Context, s scoreModel.Score)
}

type StateStore interface {
	Store(sessionID string, s model.State) error
	Delete(sessionID string) error
}

type Config struct {
	ID       string
	Duration time.Duration
	Catalog  *resource.Catalog
	Clock    clockwork.Clock
	Store    StateStore
	Reporter Reporter
}

func (c Config) durationSeconds() int {
	return int(c.Duration / time.Second)
}
