package server

import (
	"context"
	"errors"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"github.com/bloops-games/biasbingo/internal/bingo"
	"github.com/bloops-games/biasbingo/internal/bingo/board"
	"github.com/bloops-games/biasbingo/internal/bingo/match"
	"github.com/bloops-games/biasbingo/internal/bingo/resource"
	"github.com/bloops-games/biasbingo/internal/leaderboard"
	"github.com/bloops-games/biasbingo/internal/logging"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/rs/cors"
)

const (
	sessionCookie  = "bb_session"
	sessionMaxAge  = 30 * 24 * time.Hour
	defaultTick    = time.Second
	defaultMaxBody = 8 << 20
)

type Config struct {
	MaxUploadBytes int64
	AllowedOrigins []string
	// Countdown push interval of /ws/session
	Tick  time.Duration
	Clock clockwork.Clock
}

type API struct {
	manager  *bingo.Manager
	board    leaderboard.Backend
	config   Config
	validate *validator.Validate
	upgrader websocket.Upgrader
	page     *template.Template
}

func NewAPI(manager *bingo.Manager, board leaderboard.Backend, config Config) (*API, error) {
	if config.MaxUploadBytes <= 0 {
		config.MaxUploadBytes = defaultMaxBody
	}
	if config.Tick <= 0 {
		config.Tick = defaultTick
	}
	if config.Clock == nil {
		config.Clock = clockwork.NewRealClock()
	}
	if len(config.AllowedOrigins) == 0 {
		config.AllowedOrigins = []string{"*"}
	}

	page, err := parsePage()
	if err != nil {
		return nil, err
	}

	a := &API{
		manager:  manager,
		board:    board,
		config:   config,
		validate: validator.New(),
		page:     page,
	}
	a.upgrader = websocket.Upgrader{CheckOrigin: a.checkOrigin}

	return a, nil
}

// Routes returns the complete handler tree, ctx carries the request logger.
func (a *API) Routes(ctx context.Context) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", a.handlePage)
	mux.HandleFunc("GET /api/catalog", a.handleCatalog)
	mux.HandleFunc("GET /api/session", a.handleSession)
	mux.HandleFunc("GET /api/session/evidence/{biasId}", a.handleEvidenceShow)
	mux.HandleFunc("POST /api/session/start", a.handleStart)
	mux.HandleFunc("POST /api/session/evidence", a.handleEvidence)
	mux.HandleFunc("POST /api/session/end", a.handleEnd)
	mux.HandleFunc("POST /api/session/restart", a.handleRestart)
	mux.HandleFunc("GET /api/leaderboard", a.handleLeaderboard)
	mux.HandleFunc("GET /ws/leaderboard", a.handleLeaderboardWS)
	mux.HandleFunc("GET /ws/session", a.handleSessionWS)
	mux.Handle("GET /health", HandleHealth(ctx))

	c := cors.New(cors.Options{
		AllowedOrigins:   a.config.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost},
		AllowedHeaders:   []string{"Content-Type", "If-None-Match"},
		ExposedHeaders:   []string{"ETag"},
		AllowCredentials: !a.allowAnyOrigin(),
	})

	return withLogger(ctx, c.Handler(mux))
}

func withLogger(ctx context.Context, next http.Handler) http.Handler {
	logger := logging.FromContext(ctx)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(logging.WithLogger(r.Context(), logger)))
	})
}

func (a *API) allowAnyOrigin() bool {
	for _, o := range a.config.AllowedOrigins {
		if o == "*" {
			return true
		}
	}
	return false
}

func (a *API) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || a.allowAnyOrigin() {
		return true
	}
	for _, o := range a.config.AllowedOrigins {
		if o == origin {
			return true
		}
	}
	return false
}

// sessionID reads the session cookie, issuing a new id when it is missing or malformed.
func sessionID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(sessionCookie); err == nil {
		if id, err := uuid.Parse(c.Value); err == nil {
			return id.String()
		}
	}

	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		MaxAge:   int(sessionMaxAge / time.Second),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

type catalogResponse struct {
	Biases          []resource.Bias `json:"biases"`
	Organizations   []string        `json:"organizations"`
	DurationSeconds int             `json:"durationSeconds"`
}

func (a *API) handleCatalog(w http.ResponseWriter, r *http.Request) {
	catalog := a.manager.Catalog()
	writeJSON(w, http.StatusOK, catalogResponse{
		Biases:          catalog.Biases,
		Organizations:   catalog.Organizations,
		DurationSeconds: int(a.manager.Duration() / time.Second),
	})
}

func (a *API) handleSession(w http.ResponseWriter, r *http.Request) {
	id := sessionID(w, r)
	writeJSON(w, http.StatusOK, a.manager.Session(r.Context(), id).Snapshot())
}

type evidenceResponse struct {
	BiasID    int    `json:"biasId"`
	Brand     string `json:"brand"`
	Notes     string `json:"notes,omitempty"`
	ImageURL  string `json:"imageUrl"`
	Timestamp int64  `json:"timestamp"`
}

func (a *API) handleEvidenceShow(w http.ResponseWriter, r *http.Request) {
	biasID, err := strconv.Atoi(r.PathValue("biasId"))
	if err != nil {
		writeError(w, http.StatusNotFound, "unknown bias")
		return
	}

	id := sessionID(w, r)
	ev, ok := a.manager.Session(r.Context(), id).Evidence(biasID)
	if !ok {
		writeError(w, http.StatusNotFound, "no evidence for this bias")
		return
	}

	writeJSON(w, http.StatusOK, evidenceResponse{
		BiasID:    biasID,
		Brand:     ev.Brand,
		Notes:     ev.Notes,
		ImageURL:  ev.ImageURL,
		Timestamp: ev.Timestamp,
	})
}

type startRequest struct {
	Name    string `json:"name" validate:"required,max=64"`
	Startup string `json:"startup" validate:"required,max=128"`
}

var startMessages = bindMessages{
	"Name": {
		"required": "please enter your name",
		"max":      "name is too long",
	},
	"Startup": {
		"required": "please pick your startup",
		"max":      "startup name is too long",
	},
}

type transitionResponse struct {
	Changed  bool           `json:"changed"`
	Snapshot match.Snapshot `json:"snapshot"`
}

func (a *API) handleStart(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if !a.bindJSON(w, r, &req, startMessages, "invalid start request") {
		return
	}

	ctx := r.Context()
	id := sessionID(w, r)

	var resp transitionResponse
	err := a.manager.Do(ctx, id, func(s *match.Session) error {
		snap, changed, err := s.Start(ctx, req.Name, req.Startup)
		resp = transitionResponse{Changed: changed, Snapshot: snap}
		return err
	})
	if a.transitionFailed(w, r, err) {
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

type evidenceRequest struct {
	BiasID   *int   `json:"biasId" validate:"required,min=0"`
	Brand    string `json:"brand" validate:"required,max=200"`
	Notes    string `json:"notes" validate:"max=2000"`
	ImageURL string `json:"imageUrl" validate:"required"`
}

var evidenceMessages = bindMessages{
	"BiasID": {
		"required": "pick a bias card",
		"min":      "unknown bias",
	},
	"Brand": {
		"required": "please enter a brand or location",
		"max":      "brand is too long",
	},
	"Notes": {
		"max": "notes are too long",
	},
	"ImageURL": {
		"required": "please attach a photo of the evidence",
	},
}

type lineResponse struct {
	Index int    `json:"index"`
	Kind  string `json:"kind"`
	Cells []int  `json:"cells"`
}

type submitResponse struct {
	Accepted bool           `json:"accepted"`
	Bingo    *lineResponse  `json:"bingo"`
	Snapshot match.Snapshot `json:"snapshot"`
}

func newLineResponse(l *board.Line) *lineResponse {
	if l == nil {
		return nil
	}
	return &lineResponse{Index: l.Index, Kind: l.Kind.String(), Cells: l.Cells[:]}
}

func (a *API) handleEvidence(w http.ResponseWriter, r *http.Request) {
	var req evidenceRequest
	if !a.bindJSON(w, r, &req, evidenceMessages, "invalid evidence") {
		return
	}

	ctx := r.Context()
	id := sessionID(w, r)

	var out match.Outcome
	err := a.manager.Do(ctx, id, func(s *match.Session) error {
		var err error
		out, err = s.Submit(ctx, *req.BiasID, match.EvidenceInput{
			Brand:    req.Brand,
			Notes:    req.Notes,
			ImageURL: req.ImageURL,
		})
		return err
	})
	if a.transitionFailed(w, r, err) {
		return
	}

	writeJSON(w, http.StatusOK, submitResponse{
		Accepted: out.Accepted,
		Bingo:    newLineResponse(out.Bingo),
		Snapshot: out.Snapshot,
	})
}

func (a *API) handleEnd(w http.ResponseWriter, r *http.Request) {
	a.transition(w, r, func(ctx context.Context, s *match.Session) (match.Snapshot, bool, error) {
		return s.End(ctx)
	})
}

func (a *API) handleRestart(w http.ResponseWriter, r *http.Request) {
	a.transition(w, r, func(ctx context.Context, s *match.Session) (match.Snapshot, bool, error) {
		return s.Restart(ctx)
	})
}

func (a *API) transition(
	w http.ResponseWriter,
	r *http.Request,
	fn func(context.Context, *match.Session) (match.Snapshot, bool, error),
) {
	ctx := r.Context()
	id := sessionID(w, r)

	var resp transitionResponse
	err := a.manager.Do(ctx, id, func(s *match.Session) error {
		snap, changed, err := fn(ctx, s)
		resp = transitionResponse{Changed: changed, Snapshot: snap}
		return err
	})
	if a.transitionFailed(w, r, err) {
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (a *API) transitionFailed(w http.ResponseWriter, r *http.Request, err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, match.ErrValidation) {
		writeError(w, http.StatusBadRequest, err.Error())
		return true
	}

	logging.FromContext(r.Context()).Named("server.transition").Errorf("session transition: %v", err)
	writeError(w, http.StatusServiceUnavailable, "session is busy, try again")
	return true
}
