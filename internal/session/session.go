// internal/session/session.go
//
// Turn-based number baseball session.
// Responsibilities:
//   - Owns the secrets, one HistoryLog per side and the session state.
//   - Sequences human and automated turns (duel) or human turns only (single).
//   - Resolves game over and hands one record.Summary to the Recorder.
//
// Notes:
//   - A Session is not safe for concurrent use; callers serialise access.
//   - The automated turn never sleeps. Callers poll AutomatedDue and schedule
//     AutomatedTurn after whatever pacing delay they want to show.
//   - Invalid input is rejected before any state changes.

package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/edit0rsky/NumberGame/internal/game"
	"github.com/edit0rsky/NumberGame/internal/metrics"
	"github.com/edit0rsky/NumberGame/internal/record"
	"github.com/edit0rsky/NumberGame/internal/solver"
)

// DefaultPlayer names guests that did not pick a name.
const DefaultPlayer = "Player"

// Recorder receives the summary of a finished session. record.Recorder satisfies it.
type Recorder interface {
	Append(ctx context.Context, s record.Summary) error
}

// Config holds the construction parameters of a session.
type Config struct {
	Digits     int
	Difficulty solver.Difficulty
	Player     string
	Mode       Mode
}

// Option customises a Session at construction.
type Option func(*Session)

// WithSecret fixes the code the human has to find instead of generating one.
func WithSecret(c game.Code) Option {
	return func(s *Session) { s.fixed = c.Clone() }
}

// WithSource sets the randomness used for the generated secret and the solver.
func WithSource(src game.Source) Option {
	return func(s *Session) { s.src = src }
}

// WithRecorder sets where the summary goes at game over.
func WithRecorder(r Recorder) Option {
	return func(s *Session) { s.recorder = r }
}

// WithClock replaces time.Now for elapsed time and the summary date.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.clock = NewClock(now) }
}

// WithID sets the session identifier; a random UUID is used otherwise.
func WithID(id string) Option {
	return func(s *Session) { s.id = id }
}

// duel is the state only two-sided sessions carry.
type duel struct {
	secret *game.Evaluator // set by the human, found by the solver
	solver solver.Solver
	log    HistoryLog
}

type Session struct {
	id       string
	cfg      Config
	src      game.Source
	recorder Recorder
	fixed    game.Code

	status  Status
	turn    Side
	outcome Outcome
	clock   Clock
	summary record.Summary

	target *game.Evaluator // found by the human
	human  HistoryLog
	duel   *duel
}

// New builds a session. Single sessions start InProgress with the human to
// play; duel sessions start AwaitingSecret.
func New(cfg Config, opts ...Option) (*Session, error) {
	if cfg.Digits == 0 {
		cfg.Digits = game.DefaultDigits
	}
	if !game.ValidDigitCount(cfg.Digits) {
		return nil, game.ErrDigitCount
	}
	if cfg.Difficulty == "" {
		cfg.Difficulty = solver.DifficultyHard
	}
	d, err := solver.ParseDifficulty(string(cfg.Difficulty))
	if err != nil {
		return nil, err
	}
	cfg.Difficulty = d
	if cfg.Player == "" {
		cfg.Player = DefaultPlayer
	}
	if cfg.Mode != Single && cfg.Mode != Duel {
		return nil, fmt.Errorf("%w: %d", ErrUnknownMode, cfg.Mode)
	}

	s := &Session{cfg: cfg, clock: NewClock(nil)}
	for _, opt := range opts {
		opt(s)
	}
	if s.id == "" {
		s.id = uuid.NewString()
	}
	if s.src == nil {
		s.src = game.CryptoSource()
	}

	secret := s.fixed
	if secret == nil {
		secret = game.RandomCode(cfg.Digits, s.src)
	}
	if len(secret) != cfg.Digits {
		return nil, &game.ValidationError{Input: secret.String(), Err: game.ErrLength}
	}
	if s.target, err = game.NewEvaluator(secret); err != nil {
		return nil, err
	}

	switch cfg.Mode {
	case Single:
		s.status = InProgress
		s.turn = Human
		s.clock.Start()
	case Duel:
		sv, err := solver.New(cfg.Difficulty, cfg.Digits, s.src)
		if err != nil {
			return nil, err
		}
		s.duel = &duel{solver: sv}
		s.status = AwaitingSecret
	}

	metrics.GamesStarted.WithLabelValues(cfg.Mode.String(), string(cfg.Difficulty)).Inc()
	log.Debug().Str("session", s.id).Str("mode", cfg.Mode.String()).
		Str("difficulty", string(cfg.Difficulty)).Int("digits", cfg.Digits).Msg("session created")
	return s, nil
}

// SetSecret stores the human's secret in a duel and hands the first turn to the human.
func (s *Session) SetSecret(c game.Code) error {
	if s.duel == nil {
		return ErrWrongMode
	}
	switch s.status {
	case Finished:
		return ErrFinished
	case InProgress:
		return ErrSecretAlreadySet
	}
	if err := game.Validate(c, s.cfg.Digits); err != nil {
		return err
	}
	ev, err := game.NewEvaluator(c)
	if err != nil {
		return err
	}
	s.duel.secret = ev
	s.status = InProgress
	s.turn = Human
	s.clock.Start()
	return nil
}

// ready reports why side cannot move now, or nil.
func (s *Session) ready(side Side) error {
	switch {
	case s.status == Finished:
		return ErrFinished
	case s.status == AwaitingSecret:
		return ErrAwaitingSecret
	case s.turn != side:
		return ErrNotYourTurn
	}
	return nil
}

// Guess plays the human's guess. A win finishes the session; in a duel the
// turn then passes to the automated side.
func (s *Session) Guess(ctx context.Context, c game.Code) (game.GuessRecord, error) {
	if err := s.ready(Human); err != nil {
		return game.GuessRecord{}, err
	}
	score, err := s.target.Check(c)
	if err != nil {
		metrics.InvalidGuesses.Inc()
		return game.GuessRecord{}, err
	}

	rec := s.human.Append(c, score)
	metrics.Guesses.WithLabelValues(Human.String()).Inc()

	switch {
	case score.Win(s.cfg.Digits):
		s.finish(ctx, Outcome{Kind: Won, By: Human})
	case s.duel != nil:
		s.turn = Automated
	}
	return rec, nil
}

// GuessString parses input such as "123" and plays it with Guess.
func (s *Session) GuessString(ctx context.Context, input string) (game.GuessRecord, error) {
	if err := s.ready(Human); err != nil {
		return game.GuessRecord{}, err
	}
	c, err := game.ParseCode(input, s.cfg.Digits)
	if err != nil {
		metrics.InvalidGuesses.Inc()
		return game.GuessRecord{}, err
	}
	return s.Guess(ctx, c)
}

// AutomatedDue reports whether the caller should schedule AutomatedTurn.
func (s *Session) AutomatedDue() bool {
	return s.duel != nil && s.status == InProgress && s.turn == Automated
}

// AutomatedTurn asks the solver for its next guess and plays it against the
// human's secret. When the solver has no consistent guess left the session
// finishes as a human win and solver.ErrExhausted is returned.
func (s *Session) AutomatedTurn(ctx context.Context) (game.GuessRecord, error) {
	if s.duel == nil {
		return game.GuessRecord{}, ErrWrongMode
	}
	if err := s.ready(Automated); err != nil {
		return game.GuessRecord{}, err
	}

	sv := s.duel.solver
	guess, err := sv.Next()
	if err == nil && s.duel.log.Contains(guess) {
		err = fmt.Errorf("%w: repeated %s", solver.ErrExhausted, guess)
	}
	if errors.Is(err, solver.ErrExhausted) {
		metrics.SolverExhausted.WithLabelValues(string(sv.Difficulty())).Inc()
		log.Warn().Str("session", s.id).Str("difficulty", string(sv.Difficulty())).Msg("solver exhausted, automated side forfeits")
		s.finish(ctx, Outcome{Kind: Won, By: Human})
		return game.GuessRecord{}, err
	}
	if err != nil {
		return game.GuessRecord{}, err
	}

	score, err := s.duel.secret.Check(guess)
	if err != nil {
		return game.GuessRecord{}, fmt.Errorf("solver guess: %w", err)
	}
	rec := s.duel.log.Append(guess, score)
	metrics.Guesses.WithLabelValues(Automated.String()).Inc()

	if score.Win(s.cfg.Digits) {
		s.finish(ctx, Outcome{Kind: Won, By: Automated})
		return rec, nil
	}
	sv.Observe(guess, score)
	metrics.SolverRemaining.WithLabelValues(string(sv.Difficulty())).Observe(float64(sv.Remaining()))
	log.Debug().Str("session", s.id).Str("guess", rec.String()).Int("remaining", sv.Remaining()).Msg("automated turn")
	s.turn = Human
	return rec, nil
}

// Forfeit ends the session with side giving up. The automated side can only
// forfeit in a duel.
func (s *Session) Forfeit(ctx context.Context, side Side) error {
	if s.status == Finished {
		return ErrFinished
	}
	if side == Automated && s.duel == nil {
		return ErrWrongMode
	}
	s.finish(ctx, Outcome{Kind: Forfeited, By: side})
	return nil
}

func (s *Session) finish(ctx context.Context, o Outcome) {
	s.status = Finished
	s.outcome = o
	s.clock.Stop()
	date := s.clock.Ended()
	if date.IsZero() {
		date = s.clock.now()
	}

	tries := s.human.Len()
	if s.duel != nil {
		tries = s.duel.log.Len()
	}
	s.summary = record.Summary{
		ID:             uuid.New(),
		Player:         s.cfg.Player,
		Won:            o.Winner() == Human,
		Tries:          tries,
		ElapsedSeconds: s.clock.Elapsed().Seconds(),
		Difficulty:     string(s.cfg.Difficulty),
		Digits:         s.cfg.Digits,
		Mode:           s.cfg.Mode.String(),
		Date:           date,
	}
	metrics.GamesFinished.WithLabelValues(s.cfg.Mode.String(), s.summary.Outcome()).Inc()
	log.Info().Str("session", s.id).Str("outcome", o.String()).Int("tries", tries).
		Dur("elapsed", s.clock.Elapsed()).Msg("session finished")

	if s.recorder == nil {
		return
	}
	if err := s.recorder.Append(ctx, s.summary); err != nil {
		metrics.RecorderErrors.Inc()
		log.Warn().Err(err).Str("session", s.id).Msg("record result")
	}
}

func (s *Session) ID() string     { return s.id }
func (s *Session) Config() Config { return s.cfg }
func (s *Session) Status() Status { return s.status }

// Turn returns the side to move; ok is false unless the session is InProgress.
func (s *Session) Turn() (side Side, ok bool) {
	return s.turn, s.status == InProgress
}

// Outcome returns how the session ended; ok is false until it is Finished.
func (s *Session) Outcome() (o Outcome, ok bool) {
	return s.outcome, s.status == Finished
}

// Summary returns the summary handed to the recorder; ok is false until Finished.
func (s *Session) Summary() (sum record.Summary, ok bool) {
	return s.summary, s.status == Finished
}

func (s *Session) Elapsed() time.Duration { return s.clock.Elapsed() }

// Tries is the count that goes into the summary: human guesses in single
// mode, automated guesses in a duel.
func (s *Session) Tries() int {
	if s.duel != nil {
		return s.duel.log.Len()
	}
	return s.human.Len()
}

// History returns the guesses made by side.
func (s *Session) History(side Side) []game.GuessRecord {
	if side == Automated {
		if s.duel == nil {
			return nil
		}
		return s.duel.log.Records()
	}
	return s.human.Records()
}

// Secret reveals the code the human had to find, only once the session is Finished.
func (s *Session) Secret() (game.Code, bool) {
	if s.status != Finished {
		return nil, false
	}
	return s.target.Reveal(), true
}

// SolverState is a read-only snapshot of the automated side's reasoning.
type SolverState struct {
	Difficulty solver.Difficulty `json:"difficulty"`
	Remaining  int               `json:"remaining"`
	Phase      string            `json:"phase,omitempty"`
	Eliminated []int             `json:"eliminated,omitempty"`
	Confirmed  []int             `json:"confirmed,omitempty"`
}

// Solver describes the automated side; ok is false in single mode.
func (s *Session) Solver() (st SolverState, ok bool) {
	if s.duel == nil {
		return SolverState{}, false
	}
	sv := s.duel.solver
	st = SolverState{Difficulty: sv.Difficulty(), Remaining: sv.Remaining()}
	if p, isPhased := sv.(*solver.Phased); isPhased {
		st.Phase = p.Phase().String()
		st.Eliminated = p.Eliminated()
		st.Confirmed = p.Confirmed()
	}
	return st, true
}
