package database

import (
	"context"
	"fmt"

	"github.com/bloops-games/biasbingo/internal/database"
	"github.com/bloops-games/biasbingo/internal/database/score/model"
)

const (
	bucket = "leaderboard"
	Key    = "biasBingoLeaderboardCloud"
)

func New(db *database.DB) *DB {
	return &DB{sDB: db}
}

type DB struct {
	sDB *database.DB
}

func (db *DB) FetchAll(ctx context.Context) ([]model.Score, error) {
	var list []model.Score
	found, err := db.sDB.Load(ctx, bucket, Key, &list)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}

	if !found {
		return []model.Score{}, nil
	}

	return list, nil
}

// Upsert stores s unless a record with the same name and startup already beats it.
// It reports whether the stored set changed.
func (db *DB) Upsert(ctx context.Context, s model.Score) (bool, error) {
	var list []model.Score
	var changed bool
	if err := db.sDB.Modify(ctx, bucket, Key, &list, func(found bool) (bool, error) {
		if !found {
			list = nil
		}

		for i := range list {
			if !list[i].SameKey(s) {
				continue
			}

			if s.Beats(list[i]) {
				list[i] = s
				changed = true
			}

			return changed, nil
		}

		list = append(list, s)
		changed = true
		return true, nil
	}); err != nil {
		return false, fmt.Errorf("modify: %w", err)
	}

	return changed, nil
}

func (db *DB) Clean() error {
	if err := db.sDB.Remove(bucket, Key); err != nil {
		return fmt.Errorf("remove: %w", err)
	}

	return nil
}
