package model

import "time"

type Status string

const (
	StatusStart    Status = "start"
	StatusPlaying  Status = "playing"
	StatusFinished Status = "finished"
)

// GridSize is the number of cells, bias ids run from 0 to GridSize-1.
const GridSize = 25

type Evidence struct {
	Brand     string `json:"brand"`
	Notes     string `json:"notes,omitempty"`
	ImageURL  string `json:"imageUrl"`
	Timestamp int64  `json:"timestamp"`
}

// State is the persisted record of one play-through. Timestamps are unix milliseconds.
type State struct {
	Status        Status           `json:"status"`
	PlayerName    string           `json:"playerName"`
	StartupName   string           `json:"startupName"`
	StartTime     *int64           `json:"startTime"`
	FoundEvidence map[int]Evidence `json:"foundEvidence"`

	// Index into board.Lines of the first completed line
	Bingo      *int   `json:"bingo,omitempty"`
	FinishedAt *int64 `json:"finishedAt,omitempty"`
}

func NewState() State {
	return State{Status: StatusStart, FoundEvidence: map[int]Evidence{}}
}

func (s State) StartedAt() (time.Time, bool) {
	if s.StartTime == nil {
		return time.Time{}, false
	}
	return time.UnixMilli(*s.StartTime), true
}

func (s State) Found(id int) bool {
	_, ok := s.FoundEvidence[id]
	return ok
}

// Valid reports whether the record satisfies the session invariants.
func (s State) Valid() bool {
	switch s.Status {
	case StatusStart:
		if s.StartTime != nil || len(s.FoundEvidence) > 0 {
			return false
		}
	case StatusPlaying, StatusFinished:
		if s.StartTime == nil {
			return false
		}
	default:
		return false
	}

	if len(s.FoundEvidence) > GridSize {
		return false
	}

	for id := range s.FoundEvidence {
		if id < 0 || id >= GridSize {
			return false
		}
	}

	return true
}

func UnixMilli(t time.Time) *int64 {
	ms := t.UnixMilli()
	return &ms
}
