// internal/httpserver/routes_daily.go
//
// HTTP routes for the "Daily Challenge" mode.
// Exposes three endpoints under /daily:
//   - POST /daily/new         → start today's game (creates or reuses the session)
//   - POST /daily/guess       → submit a guess for today's game
//   - GET  /daily/leaderboard → top 20 results for today (or ?date=YYYY-MM-DD)
//
// Each player can be scored once per day (enforced by DB + in-memory session).
// The code of the day is derived from date + salt, so every player gets the same one.
// Daily game IDs carry dailyIDPrefix and are refused by the /game routes.

package httpserver

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/edit0rsky/NumberGame/internal/daily"
	"github.com/edit0rsky/NumberGame/internal/session"
	"github.com/edit0rsky/NumberGame/internal/solver"
	"github.com/edit0rsky/NumberGame/internal/store"
)

const dailyIDPrefix = "daily-"

// dailyServer wraps dependencies for /daily endpoints.
type dailyServer struct {
	srv      *Server
	store    *daily.Store
	salt     string
	digits   int
	sessions map[string]string // player|date → game ID
	mu       sync.Mutex        // guards sessions
	now      func() time.Time
}

// mountDaily registers all /daily routes.
func (s *Server) mountDaily(r chi.Router) {
	dd := &dailyServer{
		srv:      s,
		store:    daily.NewStore(s.db),
		salt:     s.cfg.DailySalt,
		digits:   s.cfg.Game.Digits,
		sessions: make(map[string]string),
		now:      time.Now,
	}
	s.daily = dd
	r.Route("/daily", func(r chi.Router) {
		r.Post("/new", dd.handleNew)
		r.Post("/guess", dd.handleGuess)
		r.Get("/leaderboard", dd.handleLeaderboard)
	})
}

// playerID returns the account name when logged in, otherwise a guest name
// derived from the anonymous cookie.
func (d *dailyServer) playerID(w http.ResponseWriter, r *http.Request) string {
	if me := userFrom(r.Context()); me != nil {
		return me.Username
	}
	anon := d.srv.ensureAnonID(w, r)
	if len(anon) > 8 {
		anon = anon[:8]
	}
	return "guest-" + anon
}

// -----------------------------------------------------------------------------
// /daily/new

type dailyNewRes struct {
	GameID string `json:"gameId"`
	Date   string `json:"date"`
	Digits int    `json:"digits"`
	Played bool   `json:"played"`
}

// handleNew creates or reuses today's session.
//   - Already scored today (DB row) → Played=true.
//   - Otherwise reuse the live session, or create one when it is gone (swept).
func (d *dailyServer) handleNew(w http.ResponseWriter, r *http.Request) {
	player := d.playerID(w, r)
	now := d.now().UTC()
	date := daily.DateKey(now)

	if played, err := d.store.AlreadyPlayed(r.Context(), player, date); err == nil && played {
		writeJSON(w, http.StatusOK, dailyNewRes{Date: date, Digits: d.digits, Played: true})
		return
	}

	key := player + "|" + date
	d.mu.Lock()
	defer d.mu.Unlock()
	d.prune(date)
	if id, ok := d.sessions[key]; ok {
		if d.alive(r.Context(), id) {
			writeJSON(w, http.StatusOK, dailyNewRes{GameID: id, Date: date, Digits: d.digits})
			return
		}
		delete(d.sessions, key)
	}

	sess, err := session.New(session.Config{
		Digits:     d.digits,
		Difficulty: solver.DifficultyHard,
		Player:     player,
		Mode:       session.Single,
	}, session.WithSecret(daily.Secret(now, d.salt, d.digits)), session.WithID(dailyIDPrefix+uuid.NewString()))
	if err != nil {
		writeGameError(w, err)
		return
	}
	if err := d.srv.store.Save(r.Context(), sess); err != nil {
		writeError(w, http.StatusInternalServerError, "save_failed")
		return
	}
	d.sessions[key] = sess.ID()
	writeJSON(w, http.StatusOK, dailyNewRes{GameID: sess.ID(), Date: date, Digits: d.digits})
}

// alive reports whether the session store still holds id.
func (d *dailyServer) alive(ctx context.Context, id string) bool {
	err := d.srv.store.With(ctx, id, func(*session.Session) error { return nil })
	return !errors.Is(err, store.ErrNotFound)
}

// prune drops mappings from dates other than today. Caller holds d.mu.
func (d *dailyServer) prune(today string) {
	for k := range d.sessions {
		if !strings.HasSuffix(k, "|"+today) {
			delete(d.sessions, k)
		}
	}
}

// -----------------------------------------------------------------------------
// /daily/guess

type dailyGuessReq struct {
	GameID string `json:"gameId" validate:"required"`
	Guess  string `json:"guess" validate:"required"`
}

type dailyGuessRes struct {
	Record *recordView `json:"record,omitempty"`
	State  string      `json:"state"` // in_progress | won | locked
	Tries  int         `json:"tries"`
}

// handleGuess plays a guess in today's session and stores the score on a win.
func (d *dailyServer) handleGuess(w http.ResponseWriter, r *http.Request) {
	player := d.playerID(w, r)

	var p dailyGuessReq
	if err := decode(r, &p); err != nil {
		writeGameError(w, err)
		return
	}

	date := daily.DateKey(d.now())
	key := player + "|" + date
	d.mu.Lock()
	id, ok := d.sessions[key]
	d.mu.Unlock()
	if !ok || id != p.GameID {
		writeError(w, http.StatusConflict, "no session")
		return
	}

	var (
		res     dailyGuessRes
		won     bool
		elapsed time.Duration
	)
	err := d.srv.store.With(r.Context(), id, func(sess *session.Session) error {
		if sess.Status() == session.Finished {
			res = dailyGuessRes{State: "locked", Tries: sess.Tries()}
			return nil
		}
		rec, err := sess.GuessString(r.Context(), p.Guess)
		if err != nil {
			return err
		}
		rv := viewRecord(rec)
		res = dailyGuessRes{Record: &rv, State: "in_progress", Tries: sess.Tries()}
		if sess.Status() == session.Finished {
			res.State = "won"
			won, elapsed = true, sess.Elapsed()
		}
		return nil
	})
	if errors.Is(err, store.ErrNotFound) {
		d.mu.Lock()
		if d.sessions[key] == id {
			delete(d.sessions, key)
		}
		d.mu.Unlock()
	}
	if err != nil {
		writeGameError(w, err)
		return
	}

	if won {
		logIfErr(d.store.InsertResult(r.Context(), daily.Result{
			Player: player, Date: date, Digits: d.digits, Tries: res.Tries, ElapsedMs: elapsed.Milliseconds(),
		}), "insert daily result")
	}
	writeJSON(w, http.StatusOK, res)
}

// -----------------------------------------------------------------------------
// /daily/leaderboard

type lbRes struct {
	Date string        `json:"date"`
	Top  []daily.LBRow `json:"top"`
}

// handleLeaderboard returns the leaderboard for the given date (default today).
func (d *dailyServer) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		date = daily.DateKey(d.now())
	}
	rows, err := d.store.Leaderboard(r.Context(), date, 20)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}
	writeJSON(w, http.StatusOK, lbRes{Date: date, Top: rows})
}
