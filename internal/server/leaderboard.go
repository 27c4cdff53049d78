package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"sync"

	"github.com/bloops-games/biasbingo/internal/bingo/resource"
	"github.com/bloops-games/biasbingo/internal/database/score/model"
	"github.com/bloops-games/biasbingo/internal/hashutil"
	"github.com/bloops-games/biasbingo/internal/leaderboard"
	"github.com/bloops-games/biasbingo/internal/logging"
	"github.com/gorilla/websocket"
)

type rankedScore struct {
	Rank int    `json:"rank"`
	Mark string `json:"mark,omitempty"`
	model.Score
}

func ranked(list []model.Score, limit int) []rankedScore {
	list = leaderboard.Rank(list)
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}

	out := make([]rankedScore, len(list))
	for i, s := range list {
		out[i] = rankedScore{Rank: i + 1, Mark: resource.RankMark(i + 1), Score: s}
	}
	return out
}

func (a *API) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative number")
			return
		}
		limit = n
	}

	body, err := json.Marshal(ranked(a.board.All(r.Context()), limit))
	if err != nil {
		logging.FromContext(r.Context()).Named("server.handleLeaderboard").Errorf("marshal leaderboard: %v", err)
		writeError(w, http.StatusInternalServerError, "leaderboard unavailable")
		return
	}

	etag := hashutil.ETag(body)
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "no-cache")
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// wsConn serializes writes, gorilla connections allow a single concurrent writer.
type wsConn struct {
	mtx  sync.Mutex
	conn *websocket.Conn
}

func (c *wsConn) send(payload interface{}) error {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	return c.conn.WriteJSON(payload)
}

// readUntilClosed drains client frames and cancels once the socket is gone.
func readUntilClosed(conn *websocket.Conn, cancel func()) {
	defer cancel()
	for {
		if _, _, err := conn.NextReader(); err != nil {
			return
		}
	}
}

func (a *API) handleLeaderboardWS(w http.ResponseWriter, r *http.Request) {
	logger := logging.FromContext(r.Context()).Named("server.handleLeaderboardWS")
	conn, err := a.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Debugf("upgrade: %v", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	ws := &wsConn{conn: conn}
	unsubscribe := a.board.Subscribe(ctx, func(list []model.Score) {
		if err := ws.send(ranked(list, 0)); err != nil {
			logger.Debugf("push leaderboard: %v", err)
			cancel()
		}
	})
	defer unsubscribe()

	go readUntilClosed(conn, cancel)
	<-ctx.Done()
}

func (a *API) handleSessionWS(w http.ResponseWriter, r *http.Request) {
	logger := logging.FromContext(r.Context()).Named("server.handleSessionWS")
	id := sessionID(w, r)
	conn, err := a.upgrader.Upgrade(w, r, w.Header())
	if err != nil {
		logger.Debugf("upgrade: %v", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go readUntilClosed(conn, cancel)

	ws := &wsConn{conn: conn}
	ticker := a.config.Clock.NewTicker(a.config.Tick)
	defer ticker.Stop()

	for {
		if err := ws.send(a.manager.Session(ctx, id).Snapshot()); err != nil {
			logger.Debugf("push snapshot: %v", err)
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
		}
	}
}
