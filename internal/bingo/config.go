package bingo

import (
	"time"

	"github.com/bloops-games/biasbingo/internal/database"
)

type Config struct {
	Debug           bool          `envconfig:"BINGO_DEBUG" default:"false"`
	Port            string        `envconfig:"BINGO_PORT" default:"8080"`
	ProfPort        string        `envconfig:"BINGO_PROF_PORT" default:"8888"`
	CacheSize       int           `envconfig:"BINGO_CACHE_SIZE" default:"1024"`
	GameDuration    time.Duration `envconfig:"BINGO_GAME_DURATION" default:"60m"`
	LeaderboardPoll time.Duration `envconfig:"BINGO_LEADERBOARD_POLL" default:"2s"`
	CatalogPath     string        `envconfig:"BINGO_CATALOG_PATH"`
	MaxUploadBytes  int64         `envconfig:"BINGO_MAX_UPLOAD_BYTES" default:"8388608"`
	AllowedOrigins  []string      `envconfig:"BINGO_ALLOWED_ORIGINS" default:"*"`
	DB              database.Config
}
