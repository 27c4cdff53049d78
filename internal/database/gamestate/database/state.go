package database

import (
	"context"
	"fmt"

	"github.com/bloops-games/biasbingo/internal/database"
	"github.com/bloops-games/biasbingo/internal/database/gamestate/model"
)

const bucket = "gamestate"

func New(db *database.DB) *DB {
	return &DB{sDB: db}
}

type DB struct {
	sDB *database.DB
}

// Fetch returns the stored state of a session. Records breaking the session
// invariants are reported as absent, same as corrupt ones.
func (db *DB) Fetch(ctx context.Context, sessionID string) (model.State, bool, error) {
	var s model.State
	found, err := db.sDB.Load(ctx, bucket, sessionID, &s)
	if err != nil {
		return model.NewState(), false, fmt.Errorf("load: %w", err)
	}

	if !found || !s.Valid() {
		return model.NewState(), false, nil
	}

	if s.FoundEvidence == nil {
		s.FoundEvidence = map[int]model.Evidence{}
	}

	return s, true, nil
}

func (db *DB) Store(sessionID string, s model.State) error {
	if err := db.sDB.Save(bucket, sessionID, s); err != nil {
		return fmt.Errorf("save: %w", err)
	}

	return nil
}

func (db *DB) Delete(sessionID string) error {
	if err := db.sDB.Remove(bucket, sessionID); err != nil {
		return fmt.Errorf("remove: %w", err)
	}

	return nil
}

func (db *DB) FetchIDs() ([]string, error) {
	ids, err := db.sDB.Keys(bucket)
	if err != nil {
		return nil, fmt.Errorf("keys: %w", err)
	}

	return ids, nil
}
