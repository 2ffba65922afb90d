// Package console runs a session against a line-oriented terminal.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/edit0rsky/NumberGame/internal/game"
	"github.com/edit0rsky/NumberGame/internal/session"
	"github.com/edit0rsky/NumberGame/internal/solver"
)

// Commands accepted at the guess prompt besides a code.
const (
	cmdQuit    = "quit"
	cmdForfeit = "forfeit"
	cmdHistory = "history"
)

// Console reads guesses from In and writes the game to Out. Pace delays each
// automated guess in a duel.
type Console struct {
	In   io.Reader
	Out  io.Writer
	Pace time.Duration

	lines *bufio.Scanner
}

// ErrInputClosed is returned when input ends before the session does. The
// session is forfeited by the human first.
var ErrInputClosed = errors.New("console: input closed")

// Play drives sess until it finishes.
func (c *Console) Play(ctx context.Context, sess *session.Session) error {
	c.lines = bufio.NewScanner(c.In)
	cfg := sess.Config()

	if sess.Status() == session.AwaitingSecret {
		c.printf("Duel against the computer (%s). Pick a %d-digit secret with no repeated digits.\n", cfg.Difficulty, cfg.Digits)
		if err := c.readSecret(ctx, sess); err != nil {
			return err
		}
	} else {
		c.printf("Guess the %d-digit code. Digits never repeat. Type %q to give up.\n", cfg.Digits, cmdForfeit)
	}

	for sess.Status() != session.Finished {
		if sess.AutomatedDue() {
			if err := c.automated(ctx, sess); err != nil {
				return err
			}
			continue
		}
		if err := c.human(ctx, sess); err != nil {
			return err
		}
	}
	c.result(sess)
	return nil
}

func (c *Console) readSecret(ctx context.Context, sess *session.Session) error {
	digits := sess.Config().Digits
	for {
		line, err := c.prompt(ctx, sess, "secret> ")
		if err != nil {
			return err
		}
		code, err := game.ParseCode(line, digits)
		if err == nil {
			err = sess.SetSecret(code)
		}
		if err == nil {
			return nil
		}
		c.printf("  %v\n", err)
	}
}

func (c *Console) human(ctx context.Context, sess *session.Session) error {
	line, err := c.prompt(ctx, sess, "guess> ")
	if err != nil {
		return err
	}
	switch strings.ToLower(line) {
	case "":
		return nil
	case cmdQuit, cmdForfeit:
		return sess.Forfeit(ctx, session.Human)
	case cmdHistory:
		c.history(sess)
		return nil
	}

	rec, err := sess.GuessString(ctx, line)
	var verr *game.ValidationError
	if errors.As(err, &verr) {
		c.printf("  %v\n", verr)
		return nil
	}
	if err != nil {
		return err
	}
	c.printf("  you      %s\n", rec)
	return nil
}

func (c *Console) automated(ctx context.Context, sess *session.Session) error {
	if c.Pace > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.Pace):
		}
	}
	rec, err := sess.AutomatedTurn(ctx)
	if errors.Is(err, solver.ErrExhausted) {
		c.printf("  computer has no consistent guess left\n")
		return nil
	}
	if err != nil {
		return err
	}
	c.printf("  computer %s\n", rec)
	if st, ok := sess.Solver(); ok && st.Phase != "" {
		c.printf("           phase %s, %d candidates\n", st.Phase, st.Remaining)
	}
	return nil
}

// prompt returns the next trimmed line. When input ends the human forfeits.
func (c *Console) prompt(ctx context.Context, sess *session.Session, p string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	c.printf("%s", p)
	if !c.lines.Scan() {
		if err := c.lines.Err(); err != nil {
			return "", err
		}
		if sess.Status() != session.Finished {
			_ = sess.Forfeit(ctx, session.Human)
		}
		c.printf("\n")
		c.result(sess)
		return "", ErrInputClosed
	}
	return strings.TrimSpace(c.lines.Text()), nil
}

func (c *Console) history(sess *session.Session) {
	for _, rec := range sess.History(session.Human) {
		c.printf("  you      %s\n", rec)
	}
	if sess.Config().Mode == session.Duel {
		for _, rec := range sess.History(session.Automated) {
			c.printf("  computer %s\n", rec)
		}
	}
}

func (c *Console) result(sess *session.Session) {
	o, ok := sess.Outcome()
	if !ok {
		return
	}
	switch {
	case o.Kind == session.Won && o.By == session.Human:
		c.printf("You won in %d tries (%.1fs).\n", len(sess.History(session.Human)), sess.Elapsed().Seconds())
	case o.Kind == session.Won:
		c.printf("The computer found your secret in %d tries.\n", len(sess.History(session.Automated)))
	case o.By == session.Human:
		c.printf("You gave up after %d tries.\n", len(sess.History(session.Human)))
	default:
		c.printf("The computer gave up.\n")
	}
	if secret, ok := sess.Secret(); ok {
		c.printf("The code was %s.\n", secret)
	}
}

func (c *Console) printf(format string, args ...any) {
	fmt.Fprintf(c.Out, format, args...)
}
