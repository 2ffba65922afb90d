package console

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edit0rsky/NumberGame/internal/game"
	"github.com/edit0rsky/NumberGame/internal/session"
	"github.com/edit0rsky/NumberGame/internal/solver"
)

func run(t *testing.T, sess *session.Session, input string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	c := &Console{In: strings.NewReader(input), Out: &out}
	err := c.Play(context.Background(), sess)
	return out.String(), err
}

func TestPlay_SingleWin(t *testing.T) {
	sess, err := session.New(session.Config{Digits: 3}, session.WithSecret(game.Code{1, 2, 3}))
	require.NoError(t, err)

	out, err := run(t, sess, "12\n112\n\n124\nhistory\n123\n")
	require.NoError(t, err)

	assert.Contains(t, out, "124 : 2S 0B")
	assert.Contains(t, out, "You won in 2 tries")
	assert.Contains(t, out, "The code was 123.")
	assert.Equal(t, session.Finished, sess.Status())
}

func TestPlay_ForfeitCommand(t *testing.T) {
	sess, err := session.New(session.Config{Digits: 3}, session.WithSecret(game.Code{1, 2, 3}))
	require.NoError(t, err)

	out, err := run(t, sess, "456\nforfeit\n")
	require.NoError(t, err)
	assert.Contains(t, out, "456 : Out")
	assert.Contains(t, out, "You gave up after 1 tries.")

	o, ok := sess.Outcome()
	require.True(t, ok)
	assert.Equal(t, session.Forfeited, o.Kind)
}

func TestPlay_InputClosedForfeits(t *testing.T) {
	sess, err := session.New(session.Config{Digits: 3}, session.WithSecret(game.Code{1, 2, 3}))
	require.NoError(t, err)

	out, err := run(t, sess, "456\n")
	assert.ErrorIs(t, err, ErrInputClosed)
	assert.Contains(t, out, "You gave up after 1 tries.")
	assert.Equal(t, session.Finished, sess.Status())
}

func TestPlay_DuelComputerWins(t *testing.T) {
	sess, err := session.New(session.Config{Digits: 3, Mode: session.Duel, Difficulty: solver.DifficultyHard},
		session.WithSecret(game.Code{1, 2, 3}))
	require.NoError(t, err)

	// 11 is rejected, then 012 is the secret the exhaustive solver opens with.
	out, err := run(t, sess, "11\n012\n456\n")
	require.NoError(t, err)

	assert.Contains(t, out, "456 : Out")
	assert.Contains(t, out, "computer 012 : 3S 0B")
	assert.Contains(t, out, "The computer found your secret in 1 tries.")
	assert.Contains(t, out, "The code was 123.")
}

func TestPlay_DuelEasyToTheEnd(t *testing.T) {
	sess, err := session.New(session.Config{Digits: 3, Mode: session.Duel, Difficulty: solver.DifficultyEasy},
		session.WithSecret(game.Code{1, 2, 3}))
	require.NoError(t, err)

	// keep missing until the computer finds 987
	input := "987\n" + strings.Repeat("456\n", 100)
	out, err := run(t, sess, input)
	require.NoError(t, err)

	o, ok := sess.Outcome()
	require.True(t, ok)
	assert.Equal(t, session.Automated, o.Winner())
	assert.Contains(t, out, "phase")
}

func TestPlay_Cancelled(t *testing.T) {
	sess, err := session.New(session.Config{Digits: 3}, session.WithSecret(game.Code{1, 2, 3}))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := &Console{In: strings.NewReader("456\n"), Out: &bytes.Buffer{}}
	assert.ErrorIs(t, c.Play(ctx, sess), context.Canceled)
}
