package session

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edit0rsky/NumberGame/internal/game"
	"github.com/edit0rsky/NumberGame/internal/metrics"
	"github.com/edit0rsky/NumberGame/internal/record"
	"github.com/edit0rsky/NumberGame/internal/solver"
)

var ctx = context.Background()

// stepClock returns a clock that advances by step on every reading.
func stepClock(start time.Time, step time.Duration) func() time.Time {
	t := start.Add(-step)
	return func() time.Time {
		t = t.Add(step)
		return t
	}
}

func newSingle(t *testing.T, secret game.Code, opts ...Option) (*Session, *record.Memory) {
	t.Helper()
	mem := record.NewMemory()
	opts = append([]Option{WithSecret(secret), WithRecorder(mem)}, opts...)
	s, err := New(Config{Digits: len(secret)}, opts...)
	require.NoError(t, err)
	return s, mem
}

func newDuel(t *testing.T, d solver.Difficulty, target game.Code, seed int64) (*Session, *record.Memory) {
	t.Helper()
	mem := record.NewMemory()
	s, err := New(Config{Digits: len(target), Difficulty: d, Mode: Duel, Player: "ann"},
		WithSecret(target), WithRecorder(mem), WithSource(rand.New(rand.NewSource(seed))))
	require.NoError(t, err)
	return s, mem
}

func TestNew_Defaults(t *testing.T) {
	s, err := New(Config{})
	require.NoError(t, err)
	cfg := s.Config()
	assert.Equal(t, 3, cfg.Digits)
	assert.Equal(t, solver.DifficultyHard, cfg.Difficulty)
	assert.Equal(t, DefaultPlayer, cfg.Player)
	assert.Equal(t, Single, cfg.Mode)
	assert.Equal(t, InProgress, s.Status())
	assert.NotEmpty(t, s.ID())

	side, ok := s.Turn()
	assert.True(t, ok)
	assert.Equal(t, Human, side)
}

func TestNew_Rejects(t *testing.T) {
	_, err := New(Config{Digits: 5})
	assert.ErrorIs(t, err, game.ErrDigitCount)

	_, err = New(Config{Difficulty: "medium"})
	assert.ErrorIs(t, err, solver.ErrUnknownDifficulty)

	_, err = New(Config{Digits: 4}, WithSecret(game.Code{1, 2, 3}))
	assert.ErrorIs(t, err, game.ErrLength)

	_, err = New(Config{}, WithSecret(game.Code{1, 1, 2}))
	assert.ErrorIs(t, err, game.ErrRepeatedDigit)

	_, err = New(Config{Mode: Mode(7)})
	assert.ErrorIs(t, err, ErrUnknownMode)
}

func TestSingle_ScenarioAndWin(t *testing.T) {
	start := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	s, mem := newSingle(t, game.Code{1, 2, 3}, WithClock(stepClock(start, 30*time.Second)))

	rec, err := s.Guess(ctx, game.Code{4, 5, 6})
	require.NoError(t, err)
	assert.Equal(t, "456 : Out", rec.String())
	assert.Equal(t, 1, rec.Index)

	rec, err = s.Guess(ctx, game.Code{3, 2, 1})
	require.NoError(t, err)
	assert.Equal(t, game.Score{Strikes: 1, Balls: 2}, rec.Score)
	_, ok := s.Secret()
	assert.False(t, ok, "secret hidden while playing")

	rec, err = s.GuessString(ctx, "123")
	require.NoError(t, err)
	assert.True(t, rec.Score.Win(3))

	out, ok := s.Outcome()
	require.True(t, ok)
	assert.Equal(t, Outcome{Kind: Won, By: Human}, out)
	assert.Equal(t, Human, out.Winner())
	assert.Equal(t, Finished, s.Status())
	assert.Equal(t, 30*time.Second, s.Elapsed())

	secret, ok := s.Secret()
	require.True(t, ok)
	assert.Equal(t, game.Code{1, 2, 3}, secret)

	got, err := mem.List(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	sum := got[0]
	assert.Equal(t, DefaultPlayer, sum.Player)
	assert.True(t, sum.Won)
	assert.Equal(t, 3, sum.Tries)
	assert.Equal(t, 30.0, sum.ElapsedSeconds)
	assert.Equal(t, "hard", sum.Difficulty)
	assert.Equal(t, "single", sum.Mode)
	assert.Equal(t, start.Add(30*time.Second), sum.Date)

	_, err = s.Guess(ctx, game.Code{4, 5, 6})
	assert.ErrorIs(t, err, ErrFinished)
	assert.Len(t, s.History(Human), 3)
}

func TestGuess_InvalidDoesNotMutate(t *testing.T) {
	s, _ := newSingle(t, game.Code{1, 2, 3})

	tests := []struct {
		name  string
		input string
		want  error
	}{
		{"repeated", "112", game.ErrRepeatedDigit},
		{"too long", "1234", game.ErrLength},
		{"too short", "12", game.ErrLength},
		{"not a digit", "1a3", game.ErrDigitRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.GuessString(ctx, tt.input)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			var verr *game.ValidationError
			assert.True(t, errors.As(err, &verr))
		})
	}

	_, err := s.Guess(ctx, game.Code{1, 2, 10})
	assert.ErrorIs(t, err, game.ErrDigitRange)

	assert.Empty(t, s.History(Human))
	assert.Equal(t, InProgress, s.Status())
	assert.Equal(t, 0, s.Tries())
}

func TestSingle_Forfeit(t *testing.T) {
	s, mem := newSingle(t, game.Code{1, 2, 3})
	_, err := s.Guess(ctx, game.Code{4, 5, 6})
	require.NoError(t, err)

	assert.ErrorIs(t, s.Forfeit(ctx, Automated), ErrWrongMode)
	require.NoError(t, s.Forfeit(ctx, Human))

	out, ok := s.Outcome()
	require.True(t, ok)
	assert.Equal(t, Outcome{Kind: Forfeited, By: Human}, out)
	assert.Equal(t, Automated, out.Winner())

	_, err = s.Guess(ctx, game.Code{1, 2, 3})
	assert.ErrorIs(t, err, ErrFinished)
	assert.ErrorIs(t, s.Forfeit(ctx, Human), ErrFinished)

	got, _ := mem.List(ctx)
	require.Len(t, got, 1)
	assert.False(t, got[0].Won)
	assert.Equal(t, 1, got[0].Tries)
}

func TestSingle_NoAutomatedSide(t *testing.T) {
	s, _ := newSingle(t, game.Code{1, 2, 3})
	assert.False(t, s.AutomatedDue())
	_, err := s.AutomatedTurn(ctx)
	assert.ErrorIs(t, err, ErrWrongMode)
	assert.ErrorIs(t, s.SetSecret(game.Code{4, 5, 6}), ErrWrongMode)
	assert.Nil(t, s.History(Automated))
	_, ok := s.Solver()
	assert.False(t, ok)
}

func TestDuel_TurnOrder(t *testing.T) {
	s, _ := newDuel(t, solver.DifficultyHard, game.Code{9, 8, 7}, 1)
	assert.Equal(t, AwaitingSecret, s.Status())
	_, ok := s.Turn()
	assert.False(t, ok)

	_, err := s.Guess(ctx, game.Code{0, 1, 2})
	assert.ErrorIs(t, err, ErrAwaitingSecret)
	_, err = s.AutomatedTurn(ctx)
	assert.ErrorIs(t, err, ErrAwaitingSecret)

	assert.ErrorIs(t, s.SetSecret(game.Code{4, 4, 5}), game.ErrRepeatedDigit)
	assert.ErrorIs(t, s.SetSecret(game.Code{4, 5}), game.ErrLength)
	assert.Equal(t, AwaitingSecret, s.Status())

	require.NoError(t, s.SetSecret(game.Code{4, 5, 6}))
	assert.ErrorIs(t, s.SetSecret(game.Code{1, 2, 3}), ErrSecretAlreadySet)

	_, err = s.AutomatedTurn(ctx)
	assert.ErrorIs(t, err, ErrNotYourTurn)
	assert.False(t, s.AutomatedDue())

	_, err = s.Guess(ctx, game.Code{0, 1, 2})
	require.NoError(t, err)
	assert.True(t, s.AutomatedDue())
	_, err = s.Guess(ctx, game.Code{0, 1, 3})
	assert.ErrorIs(t, err, ErrNotYourTurn)

	rec, err := s.AutomatedTurn(ctx)
	require.NoError(t, err)
	assert.Equal(t, game.Code{0, 1, 2}, rec.Code, "exhaustive solver opens with the first permutation")
	assert.Equal(t, game.Score{}, rec.Score)

	side, ok := s.Turn()
	assert.True(t, ok)
	assert.Equal(t, Human, side)

	st, ok := s.Solver()
	require.True(t, ok)
	assert.Equal(t, solver.DifficultyHard, st.Difficulty)
	assert.Less(t, st.Remaining, 720)
}

// runDuel plays a duel to completion with the human repeating a guess that
// never wins, so the automated side must find secret.
func runDuel(t *testing.T, s *Session, secret game.Code) {
	t.Helper()
	require.NoError(t, s.SetSecret(secret))
	for turn := 0; s.Status() != Finished; turn++ {
		require.Less(t, turn, 1000, "duel did not terminate")
		_, err := s.Guess(ctx, game.Code{0, 1, 2})
		require.NoError(t, err)
		require.True(t, s.AutomatedDue())
		_, err = s.AutomatedTurn(ctx)
		require.NoError(t, err)
	}
}

func TestDuel_AutomatedNeverRepeats(t *testing.T) {
	secrets := []game.Code{{1, 2, 3}, {9, 8, 7}, {5, 0, 4}, {3, 6, 9}}
	for _, d := range []solver.Difficulty{solver.DifficultyHard, solver.DifficultyEasy, solver.DifficultyRandom} {
		for i, secret := range secrets {
			t.Run(string(d)+"/"+secret.String(), func(t *testing.T) {
				s, mem := newDuel(t, d, game.Code{9, 7, 5}, int64(i+1))
				runDuel(t, s, secret)

				out, _ := s.Outcome()
				assert.Equal(t, Outcome{Kind: Won, By: Automated}, out)

				auto := s.History(Automated)
				seen := map[string]bool{}
				for _, r := range auto {
					require.False(t, seen[r.Code.String()], "repeated automated guess %s", r.Code)
					seen[r.Code.String()] = true
				}
				assert.Equal(t, secret, auto[len(auto)-1].Code)

				got, _ := mem.List(ctx)
				require.Len(t, got, 1)
				assert.False(t, got[0].Won)
				assert.Equal(t, len(auto), got[0].Tries)
				assert.Equal(t, "duel", got[0].Mode)
				assert.Equal(t, "ann", got[0].Player)
				assert.Equal(t, string(d), got[0].Difficulty)
			})
		}
	}
}

func TestDuel_FourDigits(t *testing.T) {
	s, _ := newDuel(t, solver.DifficultyEasy, game.Code{9, 8, 7, 6}, 11)
	runDuel(t, s, game.Code{3, 1, 4, 5})
	out, _ := s.Outcome()
	assert.Equal(t, Automated, out.Winner())
}

func TestDuel_HumanWins(t *testing.T) {
	s, mem := newDuel(t, solver.DifficultyHard, game.Code{9, 8, 7}, 1)
	require.NoError(t, s.SetSecret(game.Code{4, 5, 6}))

	_, err := s.Guess(ctx, game.Code{9, 8, 6})
	require.NoError(t, err)
	_, err = s.AutomatedTurn(ctx)
	require.NoError(t, err)
	_, err = s.Guess(ctx, game.Code{9, 8, 7})
	require.NoError(t, err)

	out, _ := s.Outcome()
	assert.Equal(t, Outcome{Kind: Won, By: Human}, out)
	assert.False(t, s.AutomatedDue())
	_, err = s.AutomatedTurn(ctx)
	assert.ErrorIs(t, err, ErrFinished)

	got, _ := mem.List(ctx)
	require.Len(t, got, 1)
	assert.True(t, got[0].Won)
	assert.Equal(t, 1, got[0].Tries, "duel tries count automated guesses")
}

func TestDuel_ForfeitEitherSide(t *testing.T) {
	for _, side := range []Side{Human, Automated} {
		s, _ := newDuel(t, solver.DifficultyEasy, game.Code{9, 8, 7}, 2)
		require.NoError(t, s.SetSecret(game.Code{1, 2, 3}))
		_, err := s.Guess(ctx, game.Code{0, 1, 2})
		require.NoError(t, err)

		require.NoError(t, s.Forfeit(ctx, side))
		out, ok := s.Outcome()
		require.True(t, ok)
		assert.Equal(t, Outcome{Kind: Forfeited, By: side}, out)
		assert.Equal(t, side.Other(), out.Winner())

		_, err = s.AutomatedTurn(ctx)
		assert.ErrorIs(t, err, ErrFinished)
		_, err = s.Guess(ctx, game.Code{0, 1, 2})
		assert.ErrorIs(t, err, ErrFinished)
	}
}

func TestDuel_ForfeitBeforeSecret(t *testing.T) {
	s, _ := newDuel(t, solver.DifficultyHard, game.Code{9, 8, 7}, 1)
	require.NoError(t, s.Forfeit(ctx, Human))
	assert.Equal(t, Finished, s.Status())
	assert.Equal(t, time.Duration(0), s.Elapsed())
	assert.ErrorIs(t, s.SetSecret(game.Code{1, 2, 3}), ErrFinished)
}

type exhausted struct{ solver.Solver }

func (exhausted) Next() (game.Code, error) { return nil, solver.ErrExhausted }

func TestDuel_SolverExhaustionIsForfeit(t *testing.T) {
	s, mem := newDuel(t, solver.DifficultyHard, game.Code{9, 8, 7}, 1)
	s.duel.solver = exhausted{solver.NewExhaustive(3)}
	require.NoError(t, s.SetSecret(game.Code{1, 2, 3}))
	_, err := s.Guess(ctx, game.Code{0, 1, 2})
	require.NoError(t, err)

	_, err = s.AutomatedTurn(ctx)
	assert.ErrorIs(t, err, solver.ErrExhausted)
	out, ok := s.Outcome()
	require.True(t, ok)
	assert.Equal(t, Outcome{Kind: Won, By: Human}, out)
	assert.Empty(t, s.History(Automated))

	got, _ := mem.List(ctx)
	require.Len(t, got, 1)
	assert.True(t, got[0].Won)
}

type brokenRecorder struct{ calls int }

func (b *brokenRecorder) Append(context.Context, record.Summary) error {
	b.calls++
	return errors.New("database is locked")
}

func TestFinish_RecorderFailureKeepsOutcome(t *testing.T) {
	rec := &brokenRecorder{}
	s, err := New(Config{}, WithSecret(game.Code{1, 2, 3}), WithRecorder(rec))
	require.NoError(t, err)

	_, err = s.Guess(ctx, game.Code{1, 2, 3})
	require.NoError(t, err, "persistence failure is not reported to the player")
	assert.Equal(t, 1, rec.calls)

	out, ok := s.Outcome()
	require.True(t, ok)
	assert.Equal(t, Human, out.Winner())
	sum, ok := s.Summary()
	require.True(t, ok)
	assert.True(t, sum.Won)
}

// gate blocks the async writer inside Append until release is closed.
type gate struct {
	record.Memory
	entered chan struct{}
	release chan struct{}
}

func (g *gate) Append(context.Context, record.Summary) error {
	g.entered <- struct{}{}
	<-g.release
	return nil
}

func recorderErrors(t *testing.T) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, metrics.RecorderErrors.Write(&m))
	return m.GetCounter().GetValue()
}

func TestFinish_FullQueueCountedOnce(t *testing.T) {
	g := &gate{entered: make(chan struct{}, 2), release: make(chan struct{})}
	a := record.NewAsync(g, 1)
	defer func() {
		close(g.release)
		require.NoError(t, a.Close())
	}()

	require.NoError(t, a.Append(ctx, record.Summary{}))
	<-g.entered
	require.NoError(t, a.Append(ctx, record.Summary{}))

	before := recorderErrors(t)
	s, err := New(Config{}, WithSecret(game.Code{1, 2, 3}), WithRecorder(a))
	require.NoError(t, err)
	_, err = s.Guess(ctx, game.Code{1, 2, 3})
	require.NoError(t, err)

	assert.Equal(t, Finished, s.Status())
	assert.Equal(t, before+1, recorderErrors(t))
}

func TestSolverState_Easy(t *testing.T) {
	s, _ := newDuel(t, solver.DifficultyEasy, game.Code{9, 8, 7}, 4)
	st, ok := s.Solver()
	require.True(t, ok)
	assert.Equal(t, "identifying_numbers", st.Phase)
	assert.Empty(t, st.Eliminated)
	assert.Empty(t, st.Confirmed)
	assert.Equal(t, 720, st.Remaining)
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, Single, m)
	m, err = ParseMode(" Duel")
	require.NoError(t, err)
	assert.Equal(t, Duel, m)
	_, err = ParseMode("coop")
	assert.ErrorIs(t, err, ErrUnknownMode)
}

func TestClock(t *testing.T) {
	c := NewClock(stepClock(time.Unix(0, 0), time.Second))
	assert.Zero(t, c.Elapsed())
	c.Start()
	c.Start()
	c.Stop()
	c.Stop()
	assert.Equal(t, time.Second, c.Elapsed())
	assert.Equal(t, time.Second, c.Elapsed())
}

func TestHistoryLog(t *testing.T) {
	var h HistoryLog
	guess := game.Code{1, 2, 3}
	r := h.Append(guess, game.Score{Strikes: 1})
	guess[0] = 9
	assert.Equal(t, game.Code{1, 2, 3}, r.Code)
	assert.True(t, h.Contains(game.Code{1, 2, 3}))

	recs := h.Records()
	recs[0].Code[0] = 7
	assert.Equal(t, game.Code{1, 2, 3}, h.Records()[0].Code)
	assert.Equal(t, 1, h.Len())
}
