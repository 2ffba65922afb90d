// internal/game/types.go
//
// Core type definitions for the number baseball engine.
// Defines:
//   - Code: an ordered sequence of distinct digits (the secret or a guess).
//   - Score: strike/ball evaluation of a guess against a secret.
//   - GuessRecord: one scored guess in a side's history.

package game

import (
	"strconv"
	"strings"
)

const (
	// MinDigit and MaxDigit bound every digit of a Code.
	MinDigit = 0
	MaxDigit = 9

	// DefaultDigits is the code length used when nothing else is configured.
	DefaultDigits = 3
)

// Code is an ordered sequence of mutually distinct digits.
// Its length always equals the session's configured digit count.
type Code []int

// String renders the code as its digits, e.g. "123".
func (c Code) String() string {
	var b strings.Builder
	for _, d := range c {
		b.WriteString(strconv.Itoa(d))
	}
	return b.String()
}

// Equal reports whether c and o hold the same digits in the same order.
func (c Code) Equal(o Code) bool {
	if len(c) != len(o) {
		return false
	}
	for i := range c {
		if c[i] != o[i] {
			return false
		}
	}
	return true
}

// Clone returns an independent copy of c.
func (c Code) Clone() Code {
	out := make(Code, len(c))
	copy(out, c)
	return out
}

// Score is the result of comparing a guess against a secret.
//   - Strikes: digit correct and in the correct position.
//   - Balls:   digit present in the secret but at another position.
type Score struct {
	Strikes int `json:"strikes"`
	Balls   int `json:"balls"`
}

// Win reports whether the score solves a code of n digits.
func (s Score) Win(n int) bool { return s.Strikes == n }

// Out reports whether no guessed digit appears in the secret.
func (s Score) Out() bool { return s.Strikes == 0 && s.Balls == 0 }

// String renders the score as "1S 2B", or "Out" when nothing matched.
func (s Score) String() string {
	if s.Out() {
		return "Out"
	}
	return strconv.Itoa(s.Strikes) + "S " + strconv.Itoa(s.Balls) + "B"
}

// GuessRecord is one scored guess. Records are immutable once appended.
type GuessRecord struct {
	Index int   `json:"index"` // 1-based ordinal within its history
	Code  Code  `json:"code"`
	Score Score `json:"score"`
}

// String renders the record the way the history list shows it: "123 : 1S 2B".
func (r GuessRecord) String() string {
	return r.Code.String() + " : " + r.Score.String()
}
