package solver

import "github.com/edit0rsky/NumberGame/internal/game"

// randomAttempts bounds rejection sampling before the deterministic fallback.
const randomAttempts = 1000

// Random draws codes at random and ignores scores entirely. It never repeats a
// guess: after randomAttempts rejected draws it walks the permutation space in
// order and plays the first code not yet used.
type Random struct {
	digits int
	src    game.Source
	played history
	all    []game.Code // permutation space, built on first fallback
}

// NewRandom returns a sampling solver; nil src selects crypto/rand.
func NewRandom(digits int, src game.Source) *Random {
	if src == nil {
		src = game.CryptoSource()
	}
	return &Random{digits: digits, src: src}
}

func (r *Random) Next() (game.Code, error) {
	for i := 0; i < randomAttempts; i++ {
		c := game.RandomCode(r.digits, r.src)
		if !r.played.contains(c) {
			return c, nil
		}
	}
	if r.all == nil {
		r.all = game.GenerateAll(game.AllDigits(), r.digits).Codes()
	}
	for _, c := range r.all {
		if !r.played.contains(c) {
			return c, nil
		}
	}
	return nil, ErrExhausted
}

func (r *Random) Observe(guess game.Code, _ game.Score) {
	r.played.add(guess)
}

func (r *Random) Remaining() int {
	return game.PermutationCount(game.MaxDigit+1, r.digits) - r.played.len()
}

func (r *Random) Difficulty() Difficulty { return DifficultyRandom }
