package database

import "time"

type Config struct {
	// Path to the bbolt file holding sessions and the leaderboard
	FilePath string `envconfig:"BINGO_DB_FILE_PATH" default:"biasbingo.db"`

	// How long to wait for the file lock, the CLI and the server share the file
	LockTimeout time.Duration `envconfig:"BINGO_DB_LOCK_TIMEOUT" default:"1s"`
}
