// internal/httpserver/routes_game.go
//
// HTTP routes for regular games.
//   - POST /game/new     → start a single or duel session
//   - POST /game/secret  → set the human's secret in a duel
//   - POST /game/guess   → play a human guess; in a duel the automated reply follows
//   - POST /game/forfeit → give up
//   - GET  /game/{id}    → current view of a session
//
// The automated reply is computed in the same request. paceMs tells the client
// how long to wait before revealing it.

package httpserver

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/edit0rsky/NumberGame/internal/game"
	"github.com/edit0rsky/NumberGame/internal/session"
	"github.com/edit0rsky/NumberGame/internal/solver"
	"github.com/edit0rsky/NumberGame/internal/store"
)

func (s *Server) mountGame(r chi.Router) {
	r.Route("/game", func(r chi.Router) {
		r.Post("/new", s.handleNewGame)
		r.Post("/secret", s.handleSecret)
		r.Post("/guess", s.handleGuess)
		r.Post("/forfeit", s.handleForfeit)
		r.Get("/{id}", s.handleGetGame)
	})
}

// recordView is one scored guess as the client sees it.
type recordView struct {
	Index   int    `json:"index"`
	Guess   string `json:"guess"`
	Strikes int    `json:"strikes"`
	Balls   int    `json:"balls"`
	Result  string `json:"result"` // "Out" or "1S 2B"
}

func viewRecord(r game.GuessRecord) recordView {
	return recordView{
		Index:   r.Index,
		Guess:   r.Code.String(),
		Strikes: r.Score.Strikes,
		Balls:   r.Score.Balls,
		Result:  r.Score.String(),
	}
}

func viewRecords(rs []game.GuessRecord) []recordView {
	out := make([]recordView, len(rs))
	for i, r := range rs {
		out[i] = viewRecord(r)
	}
	return out
}

// gameView never carries a secret while the session is running.
type gameView struct {
	GameID     string               `json:"gameId"`
	Mode       string               `json:"mode"`
	Digits     int                  `json:"digits"`
	Difficulty string               `json:"difficulty"`
	Player     string               `json:"player"`
	Status     string               `json:"status"`
	Turn       string               `json:"turn,omitempty"`
	Outcome    string               `json:"outcome,omitempty"`
	Winner     string               `json:"winner,omitempty"`
	Tries      int                  `json:"tries"`
	ElapsedMs  int64                `json:"elapsedMs"`
	PaceMs     int64                `json:"paceMs"`
	Human      []recordView         `json:"human"`
	Automated  []recordView         `json:"automated,omitempty"`
	Solver     *session.SolverState `json:"solver,omitempty"`
	Secret     string               `json:"secret,omitempty"`
}

func (s *Server) view(sess *session.Session) gameView {
	cfg := sess.Config()
	v := gameView{
		GameID:     sess.ID(),
		Mode:       cfg.Mode.String(),
		Digits:     cfg.Digits,
		Difficulty: string(cfg.Difficulty),
		Player:     cfg.Player,
		Status:     sess.Status().String(),
		Tries:      sess.Tries(),
		ElapsedMs:  sess.Elapsed().Milliseconds(),
		Human:      viewRecords(sess.History(session.Human)),
	}
	if side, ok := sess.Turn(); ok {
		v.Turn = side.String()
	}
	if o, ok := sess.Outcome(); ok {
		v.Outcome = o.Kind.String()
		v.Winner = o.Winner().String()
	}
	if secret, ok := sess.Secret(); ok {
		v.Secret = secret.String()
	}
	if st, ok := sess.Solver(); ok {
		v.Solver = &st
		v.Automated = viewRecords(sess.History(session.Automated))
		v.PaceMs = s.cfg.Game.Pace.Std().Milliseconds()
	}
	return v
}

// writeGameError maps session and validation errors onto HTTP statuses.
func writeGameError(w http.ResponseWriter, err error) {
	var verr *game.ValidationError
	var vErrs validator.ValidationErrors
	switch {
	case errors.As(err, &verr), errors.As(err, &vErrs), errors.Is(err, errBadJSON),
		errors.Is(err, game.ErrDigitCount), errors.Is(err, solver.ErrUnknownDifficulty),
		errors.Is(err, session.ErrUnknownMode):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found")
	case errors.Is(err, session.ErrFinished), errors.Is(err, session.ErrNotYourTurn),
		errors.Is(err, session.ErrAwaitingSecret), errors.Is(err, session.ErrSecretAlreadySet),
		errors.Is(err, session.ErrWrongMode):
		writeError(w, http.StatusConflict, err.Error())
	default:
		log.Error().Err(err).Msg("game request")
		writeError(w, http.StatusInternalServerError, "server_error")
	}
}

// withGame runs fn on a regular game. Daily sessions are only reachable
// through /daily so their results land on the leaderboard.
func (s *Server) withGame(ctx context.Context, id string, fn func(*session.Session) error) error {
	if strings.HasPrefix(id, dailyIDPrefix) {
		return store.ErrNotFound
	}
	return s.store.With(ctx, id, fn)
}

// player picks the name recorded in summaries: the account name when logged
// in, else the requested name, else the configured default.
func (s *Server) player(ctx context.Context, requested string) string {
	if me := userFrom(ctx); me != nil {
		return me.Username
	}
	if requested != "" {
		return requested
	}
	return s.cfg.Game.Player
}

// ------------------------------ /game/new ----------------------------------

type newGameReq struct {
	Mode       string `json:"mode" validate:"omitempty,oneof=single duel"`
	Digits     int    `json:"digits" validate:"omitempty,oneof=3 4"`
	Difficulty string `json:"difficulty" validate:"omitempty,oneof=easy hard random"`
	Player     string `json:"player" validate:"omitempty,max=24"`
	Secret     string `json:"secret" validate:"omitempty,numeric"` // duel: the human's secret
}

func (s *Server) handleNewGame(w http.ResponseWriter, r *http.Request) {
	var req newGameReq
	if err := decode(r, &req); err != nil {
		writeGameError(w, err)
		return
	}
	mode, err := session.ParseMode(req.Mode)
	if err != nil {
		writeGameError(w, err)
		return
	}
	cfg := session.Config{
		Digits:     req.Digits,
		Difficulty: solver.Difficulty(req.Difficulty),
		Player:     s.player(r.Context(), req.Player),
		Mode:       mode,
	}
	if cfg.Digits == 0 {
		cfg.Digits = s.cfg.Game.Digits
	}
	if cfg.Difficulty == "" {
		cfg.Difficulty = solver.Difficulty(s.cfg.Game.Difficulty)
	}

	sess, err := session.New(cfg, session.WithRecorder(s.results))
	if err != nil {
		writeGameError(w, err)
		return
	}
	if req.Secret != "" {
		if mode != session.Duel {
			writeGameError(w, session.ErrWrongMode)
			return
		}
		secret, err := game.ParseCode(req.Secret, cfg.Digits)
		if err == nil {
			err = sess.SetSecret(secret)
		}
		if err != nil {
			writeGameError(w, err)
			return
		}
	}
	if err := s.store.Save(r.Context(), sess); err != nil {
		log.Error().Err(err).Msg("save game")
		writeError(w, http.StatusInternalServerError, "save_failed")
		return
	}
	log.Info().Str("gameId", sess.ID()).Str("mode", mode.String()).Str("player", cfg.Player).Msg("game started")
	writeJSON(w, http.StatusOK, s.view(sess))
}

// ----------------------------- /game/secret --------------------------------

type secretReq struct {
	GameID string `json:"gameId" validate:"required"`
	Secret string `json:"secret" validate:"required,numeric"`
}

func (s *Server) handleSecret(w http.ResponseWriter, r *http.Request) {
	var req secretReq
	if err := decode(r, &req); err != nil {
		writeGameError(w, err)
		return
	}
	var v gameView
	err := s.withGame(r.Context(), req.GameID, func(sess *session.Session) error {
		secret, err := game.ParseCode(req.Secret, sess.Config().Digits)
		if err != nil {
			return err
		}
		if err := sess.SetSecret(secret); err != nil {
			return err
		}
		v = s.view(sess)
		return nil
	})
	if err != nil {
		writeGameError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// ------------------------------ /game/guess --------------------------------

type guessReq struct {
	GameID string `json:"gameId" validate:"required"`
	Guess  string `json:"guess" validate:"required"`
}

type guessRes struct {
	Human     recordView  `json:"human"`
	Automated *recordView `json:"automated,omitempty"`
	Game      gameView    `json:"game"`
}

func (s *Server) handleGuess(w http.ResponseWriter, r *http.Request) {
	var req guessReq
	if err := decode(r, &req); err != nil {
		writeGameError(w, err)
		return
	}

	var (
		res      guessRes
		finished bool
		won      bool
	)
	err := s.withGame(r.Context(), req.GameID, func(sess *session.Session) error {
		rec, err := sess.GuessString(r.Context(), req.Guess)
		if err != nil {
			return err
		}
		res.Human = viewRecord(rec)

		if sess.AutomatedDue() {
			auto, err := sess.AutomatedTurn(r.Context())
			switch {
			case err == nil:
				av := viewRecord(auto)
				res.Automated = &av
			case !errors.Is(err, solver.ErrExhausted):
				return err
			}
		}

		res.Game = s.view(sess)
		if o, ok := sess.Outcome(); ok {
			finished, won = true, o.Winner() == session.Human
		}
		return nil
	})
	if err != nil {
		writeGameError(w, err)
		return
	}

	if finished {
		if me := userFrom(r.Context()); me != nil {
			logIfErr(s.users.recordGame(r.Context(), me.ID, won), "record user game")
		}
	}
	writeJSON(w, http.StatusOK, res)
}

// ----------------------------- /game/forfeit -------------------------------

type forfeitReq struct {
	GameID string `json:"gameId" validate:"required"`
}

func (s *Server) handleForfeit(w http.ResponseWriter, r *http.Request) {
	var req forfeitReq
	if err := decode(r, &req); err != nil {
		writeGameError(w, err)
		return
	}
	var v gameView
	err := s.withGame(r.Context(), req.GameID, func(sess *session.Session) error {
		if err := sess.Forfeit(r.Context(), session.Human); err != nil {
			return err
		}
		v = s.view(sess)
		return nil
	})
	if err != nil {
		writeGameError(w, err)
		return
	}
	if me := userFrom(r.Context()); me != nil {
		logIfErr(s.users.recordGame(r.Context(), me.ID, false), "record user game")
	}
	writeJSON(w, http.StatusOK, v)
}

// ------------------------------ /game/{id} ---------------------------------

func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	var v gameView
	err := s.withGame(r.Context(), chi.URLParam(r, "id"), func(sess *session.Session) error {
		v = s.view(sess)
		return nil
	})
	if err != nil {
		writeGameError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}
