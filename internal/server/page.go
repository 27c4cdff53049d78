package server

import (
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/bloops-games/biasbingo/internal/bingo/board"
	"github.com/bloops-games/biasbingo/internal/bingo/match"
	"github.com/bloops-games/biasbingo/internal/bingo/resource"
	"github.com/bloops-games/biasbingo/internal/database/gamestate/model"
	"github.com/bloops-games/biasbingo/internal/logging"
	"github.com/bloops-games/biasbingo/internal/util"
	"github.com/valyala/fastrand"
)

//go:embed assets/page.html
var assets embed.FS

const (
	confettiPieces = 60
	leaderboardTop = 10
)

var confettiColors = []string{"#f94144", "#f9c74f", "#90be6d", "#577590", "#f3722c", "#43aa8b"}

func parsePage() (*template.Template, error) {
	t, err := template.New("page.html").Funcs(template.FuncMap{
		"clock":   util.Clock,
		"elapsed": util.Elapsed,
		"noun":    util.Noun,
	}).ParseFS(assets, "assets/page.html")
	if err != nil {
		return nil, fmt.Errorf("parse page template: %w", err)
	}
	return t, nil
}

type cellView struct {
	Bias    resource.Bias
	Found   bool
	InBingo bool
}

type confettiPiece struct {
	Left     uint32
	Delay    uint32
	Duration uint32
	Color    string
}

type pageView struct {
	Title         string
	Intro         string
	TextBingo     string
	TextTimeUp    string
	TextGameOver  string
	TextNoScores  string
	TextUpload    string
	Organizations []string
	Cells         []cellView
	Snapshot      match.Snapshot
	Start         bool
	Playing       bool
	Finished      bool
	TimeUp        bool
	Confetti      []confettiPiece
	Leaderboard   []rankedScore
}

func confetti(n int) []confettiPiece {
	out := make([]confettiPiece, n)
	for i := range out {
		out[i] = confettiPiece{
			Left:     fastrand.Uint32n(100),
			Delay:    fastrand.Uint32n(3000),
			Duration: 2000 + fastrand.Uint32n(2000),
			Color:    confettiColors[fastrand.Uint32n(uint32(len(confettiColors)))],
		}
	}
	return out
}

func (a *API) buildPage(snap match.Snapshot, scores []rankedScore) pageView {
	catalog := a.manager.Catalog()

	inBingo := map[int]bool{}
	for _, id := range snap.BingoLine {
		inBingo[id] = true
	}

	cells := make([]cellView, 0, board.Cells)
	for _, b := range catalog.Biases {
		cells = append(cells, cellView{Bias: b, Found: snap.HasFound(b.ID), InBingo: inBingo[b.ID]})
	}

	view := pageView{
		Title:         resource.ProjectName,
		Intro:         fmt.Sprintf(resource.TextIntro, board.Cells, int(a.manager.Duration()/time.Minute)),
		TextBingo:     resource.TextBingo,
		TextTimeUp:    resource.TextTimeUp,
		TextGameOver:  resource.TextGameOver,
		TextNoScores:  resource.TextNoScores,
		TextUpload:    resource.TextUploadHint,
		Organizations: catalog.Organizations,
		Cells:         cells,
		Snapshot:      snap,
		Start:         snap.Status == model.StatusStart,
		Playing:       snap.Status == model.StatusPlaying,
		Finished:      snap.Status == model.StatusFinished,
		Leaderboard:   scores,
	}
	view.TimeUp = view.Finished && snap.ElapsedSeconds >= snap.DurationSeconds
	if snap.Bingo {
		view.Confetti = confetti(confettiPieces)
	}

	return view
}

func (a *API) handlePage(w http.ResponseWriter, r *http.Request) {
	id := sessionID(w, r)
	snap := a.manager.Session(r.Context(), id).Snapshot()
	view := a.buildPage(snap, ranked(a.board.All(r.Context()), leaderboardTop))

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := a.page.Execute(w, view); err != nil {
		logging.FromContext(r.Context()).Named("server.handlePage").Errorf("render page: %v", err)
	}
}
