package solver

import "github.com/edit0rsky/NumberGame/internal/game"

// Exhaustive keeps every code consistent with all observed scores and always
// guesses the first one. A played guess that did not win is inconsistent with
// its own score, so filtering also guarantees it is never repeated.
type Exhaustive struct {
	candidates *game.CandidateSet
	played     history
}

// NewExhaustive starts from all P(10, digits) codes.
func NewExhaustive(digits int) *Exhaustive {
	return &Exhaustive{candidates: game.GenerateAll(game.AllDigits(), digits)}
}

func (e *Exhaustive) Next() (game.Code, error) {
	for {
		c, ok := e.candidates.First()
		if !ok {
			return nil, ErrExhausted
		}
		if !e.played.contains(c) {
			return c, nil
		}
		e.candidates.Exclude(c.Equal)
	}
}

func (e *Exhaustive) Observe(guess game.Code, score game.Score) {
	e.played.add(guess)
	e.candidates.Filter(guess, score)
}

func (e *Exhaustive) Remaining() int         { return e.candidates.Len() }
func (e *Exhaustive) Difficulty() Difficulty { return DifficultyHard }
