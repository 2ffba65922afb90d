// internal/solver/solver.go
//
// Automated opponent for number baseball.
// A Solver proposes the next guess and consumes the score it received. Three
// strategies are available, selected by difficulty label:
//   - "hard":   exhaustive candidate filtering (Exhaustive).
//   - "easy":   two-phase digit elimination then position search (Phased).
//   - "random": bounded random sampling without repeats (Random).
//
// A Solver is owned by exactly one session and is not safe for concurrent use.

package solver

import (
	"errors"
	"fmt"
	"strings"

	"github.com/edit0rsky/NumberGame/internal/game"
)

// ErrExhausted is returned by Next when no consistent, unplayed guess remains.
// It only happens after inconsistent scores or a degenerate configuration.
var ErrExhausted = errors.New("solver: no consistent candidates")

// ErrUnknownDifficulty is returned by New for an unsupported difficulty label.
var ErrUnknownDifficulty = errors.New("solver: unknown difficulty")

// Difficulty labels a solver strategy.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyHard   Difficulty = "hard"
	DifficultyRandom Difficulty = "random"
)

// ParseDifficulty normalises a label such as " Hard " into a Difficulty.
func ParseDifficulty(s string) (Difficulty, error) {
	switch d := Difficulty(strings.ToLower(strings.TrimSpace(s))); d {
	case DifficultyEasy, DifficultyHard, DifficultyRandom:
		return d, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownDifficulty, s)
	}
}

// Solver produces guesses for an unknown secret of a fixed digit count.
type Solver interface {
	// Next returns the next guess, or ErrExhausted.
	Next() (game.Code, error)

	// Observe feeds back the score obtained by a guess returned from Next.
	Observe(guess game.Code, score game.Score)

	// Remaining reports the size of the solver's current hypothesis space.
	Remaining() int

	// Difficulty reports which strategy is in use.
	Difficulty() Difficulty
}

// New constructs the strategy for d. src is only consulted by the sampling
// strategies; nil selects crypto/rand.
func New(d Difficulty, digits int, src game.Source) (Solver, error) {
	if !game.ValidDigitCount(digits) {
		return nil, game.ErrDigitCount
	}
	if src == nil {
		src = game.CryptoSource()
	}
	switch d {
	case DifficultyHard:
		return NewExhaustive(digits), nil
	case DifficultyEasy:
		return NewPhased(digits, src), nil
	case DifficultyRandom:
		return NewRandom(digits, src), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDifficulty, d)
	}
}

// history records the codes a solver has already played, indexed by exact
// sequence and by digit set.
type history struct {
	codes []game.Code
	seq   map[string]struct{}
	sets  map[string]struct{}
}

func (h *history) add(c game.Code) {
	if h.seq == nil {
		h.seq = make(map[string]struct{})
		h.sets = make(map[string]struct{})
	}
	h.codes = append(h.codes, c.Clone())
	h.seq[c.String()] = struct{}{}
	h.sets[digitKey(c)] = struct{}{}
}

func (h *history) contains(c game.Code) bool {
	_, ok := h.seq[c.String()]
	return ok
}

func (h *history) containsDigits(c game.Code) bool {
	_, ok := h.sets[digitKey(c)]
	return ok
}

func (h *history) len() int { return len(h.codes) }

// digitKey identifies the digit set of c independent of order.
func digitKey(c game.Code) string {
	var present [game.MaxDigit + 1]bool
	for _, d := range c {
		if d >= game.MinDigit && d <= game.MaxDigit {
			present[d] = true
		}
	}
	key := make([]byte, 0, len(c))
	for d, ok := range present {
		if ok {
			key = append(key, byte('0'+d))
		}
	}
	return string(key)
}
