package session

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrFinished         = errors.New("session: game is over")
	ErrNotYourTurn      = errors.New("session: not this side's turn")
	ErrAwaitingSecret   = errors.New("session: waiting for the secret")
	ErrSecretAlreadySet = errors.New("session: secret already set")
	ErrWrongMode        = errors.New("session: not available in this mode")
	ErrUnknownMode      = errors.New("session: unknown mode")
)

// Side is one of the two players.
type Side int

const (
	Human Side = iota
	Automated
)

func (s Side) String() string {
	if s == Automated {
		return "automated"
	}
	return "human"
}

// Other returns the opposing side.
func (s Side) Other() Side {
	if s == Human {
		return Automated
	}
	return Human
}

// Status is the coarse session state.
type Status int

const (
	AwaitingSecret Status = iota
	InProgress
	Finished
)

func (s Status) String() string {
	switch s {
	case AwaitingSecret:
		return "awaiting_secret"
	case InProgress:
		return "in_progress"
	default:
		return "finished"
	}
}

type OutcomeKind int

const (
	Won OutcomeKind = iota
	Forfeited
)

func (k OutcomeKind) String() string {
	if k == Forfeited {
		return "forfeited"
	}
	return "won"
}

// Outcome is how a finished session ended: Won by a side or Forfeited by a side.
type Outcome struct {
	Kind OutcomeKind
	By   Side
}

// Winner is the side credited with the game.
func (o Outcome) Winner() Side {
	if o.Kind == Forfeited {
		return o.By.Other()
	}
	return o.By
}

func (o Outcome) String() string {
	return o.Kind.String() + " by " + o.By.String()
}

// Mode selects the session variant.
//   - Single: the human guesses a generated secret alone.
//   - Duel:   the human and the solver take turns, each guessing the other's secret.
type Mode int

const (
	Single Mode = iota
	Duel
)

func (m Mode) String() string {
	if m == Duel {
		return "duel"
	}
	return "single"
}

// ParseMode accepts "single" or "duel"; empty means single.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "single":
		return Single, nil
	case "duel":
		return Duel, nil
	default:
		return Single, fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}
