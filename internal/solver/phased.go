package solver

import "github.com/edit0rsky/NumberGame/internal/game"

// sampleAttempts bounds random digit-set sampling in the identify phase before
// falling back to a deterministic scan.
const sampleAttempts = 500

// Phase is the stage of the Phased strategy. It only ever moves forward.
type Phase int

const (
	// PhaseIdentify searches for the set of digits in the secret.
	PhaseIdentify Phase = iota
	// PhasePosition orders the confirmed digits.
	PhasePosition
)

func (p Phase) String() string {
	if p == PhasePosition {
		return "determining_positions"
	}
	return "identifying_numbers"
}

// digitSet is a set over 0..9.
type digitSet [game.MaxDigit + 1]bool

func fullDigitSet() digitSet {
	var s digitSet
	for d := range s {
		s[d] = true
	}
	return s
}

func (s *digitSet) add(d int)    { s[d] = true }
func (s *digitSet) remove(d int) { s[d] = false }

func (s digitSet) len() int {
	n := 0
	for _, ok := range s {
		if ok {
			n++
		}
	}
	return n
}

// list returns the members in ascending order.
func (s digitSet) list() []int {
	out := make([]int, 0, len(s))
	for d, ok := range s {
		if ok {
			out = append(out, d)
		}
	}
	return out
}

// Phased first works out which digits make up the secret, acting only on the
// two unambiguous outcomes (no digit present, every digit present), and then
// searches the orderings of those digits exactly like Exhaustive.
type Phased struct {
	digits int
	src    game.Source
	phase  Phase

	pool       digitSet // digits neither ruled in nor out
	eliminated digitSet // digits proven absent
	confirmed  digitSet // digits proven present

	candidates *game.CandidateSet // orderings of confirmed, PhasePosition only
	played     history
}

// NewPhased starts in PhaseIdentify with every digit in the pool.
func NewPhased(digits int, src game.Source) *Phased {
	if src == nil {
		src = game.CryptoSource()
	}
	return &Phased{digits: digits, src: src, pool: fullDigitSet()}
}

func (p *Phased) Next() (game.Code, error) {
	// Once only N digits are left undecided they must be the secret's digits.
	if p.phase == PhaseIdentify && p.pool.len() == p.digits {
		p.confirmed = p.pool
		for d := game.MinDigit; d <= game.MaxDigit; d++ {
			if !p.confirmed[d] {
				p.eliminated.add(d)
			}
		}
		p.enterPositions()
	}
	if p.phase == PhaseIdentify {
		return p.identifyGuess()
	}
	return p.positionGuess()
}

func (p *Phased) identifyGuess() (game.Code, error) {
	available := p.available()
	if len(available) < p.digits {
		return nil, ErrExhausted
	}

	buf := make([]int, len(available))
	for i := 0; i < sampleAttempts; i++ {
		copy(buf, available)
		for j := 0; j < p.digits; j++ {
			k := j + p.src.Intn(len(buf)-j)
			buf[j], buf[k] = buf[k], buf[j]
		}
		guess := game.Code(buf[:p.digits]).Clone()
		if !p.played.containsDigits(guess) {
			return guess, nil
		}
	}

	var found game.Code
	eachCombination(available, p.digits, func(c game.Code) bool {
		if p.played.containsDigits(c) {
			return true
		}
		found = c.Clone()
		return false
	})
	if found == nil {
		return nil, ErrExhausted
	}
	return found, nil
}

func (p *Phased) positionGuess() (game.Code, error) {
	for {
		c, ok := p.candidates.First()
		if !ok {
			return nil, ErrExhausted
		}
		if !p.played.contains(c) {
			return c, nil
		}
		p.candidates.Exclude(c.Equal)
	}
}

func (p *Phased) Observe(guess game.Code, score game.Score) {
	p.played.add(guess)

	if p.phase == PhasePosition {
		p.candidates.Filter(guess, score)
		return
	}

	switch score.Strikes + score.Balls {
	case 0:
		for _, d := range guess {
			p.eliminated.add(d)
			p.pool.remove(d)
		}
	case p.digits:
		for _, d := range guess {
			p.confirmed.add(d)
		}
		for d := game.MinDigit; d <= game.MaxDigit; d++ {
			if !p.confirmed[d] {
				p.eliminated.add(d)
				p.pool.remove(d)
			}
		}
		p.enterPositions()
	}
}

// enterPositions switches to PhasePosition with every ordering of the
// confirmed digits that has not been played yet.
func (p *Phased) enterPositions() {
	if p.phase != PhaseIdentify || p.confirmed.len() != p.digits {
		return
	}
	p.phase = PhasePosition
	p.candidates = game.GenerateAll(p.confirmed.list(), p.digits)
	p.candidates.Exclude(p.played.contains)
}

func (p *Phased) available() []int {
	out := make([]int, 0, game.MaxDigit+1)
	for d := game.MinDigit; d <= game.MaxDigit; d++ {
		if p.pool[d] && !p.eliminated[d] {
			out = append(out, d)
		}
	}
	return out
}

func (p *Phased) Remaining() int {
	if p.phase == PhasePosition {
		return p.candidates.Len()
	}
	return game.PermutationCount(len(p.available()), p.digits)
}

func (p *Phased) Difficulty() Difficulty { return DifficultyEasy }

// Phase reports the current stage.
func (p *Phased) Phase() Phase { return p.phase }

// Eliminated returns the digits proven absent, ascending.
func (p *Phased) Eliminated() []int { return p.eliminated.list() }

// Confirmed returns the digits proven present, ascending.
func (p *Phased) Confirmed() []int { return p.confirmed.list() }

// eachCombination calls fn with every n-element ascending combination of pool
// until fn returns false.
func eachCombination(pool []int, n int, fn func(game.Code) bool) {
	cur := make(game.Code, 0, n)
	var walk func(start int) bool
	walk = func(start int) bool {
		if len(cur) == n {
			return fn(cur)
		}
		for i := start; i <= len(pool)-(n-len(cur)); i++ {
			cur = append(cur, pool[i])
			if !walk(i + 1) {
				return false
			}
			cur = cur[:len(cur)-1]
		}
		return true
	}
	walk(0)
}
