package match

import (
	"sort"
	"time"

	"github.com/bloops-games/biasbingo/internal/bingo/board"
	"github.com/bloops-games/biasbingo/internal/database/gamestate/model"
)

// Snapshot is a read-only view of a session, it never carries evidence images.
type Snapshot struct {
	ID          string       `json:"id"`
	Status      model.Status `json:"status"`
	PlayerName  string       `json:"playerName"`
	StartupName string       `json:"startupName"`
	StartTime   *int64       `json:"startTime"`
	Found       []int        `json:"found"`
	FoundCount  int          `json:"foundCount"`

	Bingo          bool  `json:"bingo"`
	BingoLine      []int `json:"bingoLine,omitempty"`
	CompletedLines int   `json:"completedLines"`

	DurationSeconds  int `json:"durationSeconds"`
	ElapsedSeconds   int `json:"elapsedSeconds"`
	RemainingSeconds int `json:"remainingSeconds"`
}

func (s Snapshot) HasFound(id int) bool {
	for _, f := range s.Found {
		if f == id {
			return true
		}
	}
	return false
}

func (r *Session) snapshotLocked(now time.Time) Snapshot {
	found := make([]int, 0, len(r.state.FoundEvidence))
	for id := range r.state.FoundEvidence {
		found = append(found, id)
	}
	sort.Ints(found)

	snap := Snapshot{
		ID:              r.Config.ID,
		Status:          r.state.Status,
		PlayerName:      r.state.PlayerName,
		StartupName:     r.state.StartupName,
		StartTime:       r.state.StartTime,
		Found:           found,
		FoundCount:      len(found),
		CompletedLines:  len(board.Completed(board.FromEvidence(r.state.FoundEvidence))),
		DurationSeconds: r.Config.durationSeconds(),
	}

	if r.state.Bingo != nil && *r.state.Bingo >= 0 && *r.state.Bingo < len(board.Lines) {
		line := board.Lines[*r.state.Bingo]
		snap.Bingo = true
		snap.BingoLine = line.Cells[:]
	}

	switch r.state.Status {
	case model.StatusPlaying:
		snap.ElapsedSeconds = r.elapsedSecondsLocked(now)
		remaining := r.deadlineLocked().Sub(now)
		if remaining > 0 {
			snap.RemainingSeconds = int(remaining / time.Second)
		}
	case model.StatusFinished:
		end := now
		if r.state.FinishedAt != nil {
			end = time.UnixMilli(*r.state.FinishedAt)
		}
		snap.ElapsedSeconds = r.elapsedSecondsLocked(end)
	case model.StatusStart:
		snap.RemainingSeconds = snap.DurationSeconds
	}

	return snap
}
