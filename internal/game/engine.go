// internal/game/engine.go
//
// Secret evaluation for a single number baseball code.
// Responsibilities:
//   - Validate codes (length, digit range, no repeated digits).
//   - Parse user input ("123") into codes.
//   - Score guesses against a secret (strikes and balls).
//   - Generate random secrets.
//
// Notes:
//   - Codes never contain duplicate digits, so the single-pass scoring below is
//     exact: a digit can be a strike or a ball but never counted twice.
//   - Randomness comes from a Source so solvers and tests can inject seeded ones.

package game

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
)

var (
	ErrLength        = errors.New("wrong number of digits")
	ErrDigitRange    = errors.New("digit out of range")
	ErrRepeatedDigit = errors.New("repeated digit")
	ErrDigitCount    = errors.New("digit count must be 3 or 4")
)

// ValidationError reports which constraint a submitted code violated.
// It wraps one of ErrLength, ErrDigitRange or ErrRepeatedDigit.
type ValidationError struct {
	Input string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid code %q: %v", e.Input, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// ValidDigitCount reports whether n is a supported code length.
func ValidDigitCount(n int) bool { return n == 3 || n == 4 }

// Validate checks that c is a well-formed code of n digits.
// Returns a *ValidationError describing the first violation found.
func Validate(c Code, n int) error {
	if len(c) != n {
		return &ValidationError{Input: c.String(), Err: fmt.Errorf("%w: got %d, want %d", ErrLength, len(c), n)}
	}
	var seen [MaxDigit + 1]bool
	for _, d := range c {
		if d < MinDigit || d > MaxDigit {
			return &ValidationError{Input: fmt.Sprint([]int(c)), Err: fmt.Errorf("%w: %d", ErrDigitRange, d)}
		}
		if seen[d] {
			return &ValidationError{Input: c.String(), Err: fmt.Errorf("%w: %d", ErrRepeatedDigit, d)}
		}
		seen[d] = true
	}
	return nil
}

// ParseCode converts a digit string such as "0123" into a validated Code of n digits.
// Surrounding whitespace is ignored.
func ParseCode(s string, n int) (Code, error) {
	s = strings.TrimSpace(s)
	c := make(Code, 0, len(s))
	for _, r := range s {
		if r < '0' || r > '9' {
			return nil, &ValidationError{Input: s, Err: fmt.Errorf("%w: %q", ErrDigitRange, r)}
		}
		c = append(c, int(r-'0'))
	}
	if err := Validate(c, n); err != nil {
		return nil, err
	}
	return c, nil
}

// Evaluate scores guess against secret.
// For each position: equal digits count as a strike; otherwise a guessed digit
// present anywhere in the secret counts as a ball.
func Evaluate(secret, guess Code) Score {
	var present [MaxDigit + 1]bool
	for _, d := range secret {
		if d >= MinDigit && d <= MaxDigit {
			present[d] = true
		}
	}
	var s Score
	for i, d := range guess {
		if i < len(secret) && d == secret[i] {
			s.Strikes++
		} else if d >= MinDigit && d <= MaxDigit && present[d] {
			s.Balls++
		}
	}
	return s
}

// Evaluator holds one validated secret and scores guesses against it.
// The secret is never handed back to the guessing side.
type Evaluator struct {
	secret Code
}

// NewEvaluator validates secret and wraps it.
func NewEvaluator(secret Code) (*Evaluator, error) {
	if !ValidDigitCount(len(secret)) {
		return nil, ErrDigitCount
	}
	if err := Validate(secret, len(secret)); err != nil {
		return nil, err
	}
	return &Evaluator{secret: secret.Clone()}, nil
}

// Check validates guess and scores it against the secret.
func (e *Evaluator) Check(guess Code) (Score, error) {
	if err := Validate(guess, len(e.secret)); err != nil {
		return Score{}, err
	}
	return Evaluate(e.secret, guess), nil
}

// Digits returns the code length this evaluator expects.
func (e *Evaluator) Digits() int { return len(e.secret) }

// Reveal returns a copy of the secret. Callers only use it once a game is over.
func (e *Evaluator) Reveal() Code { return e.secret.Clone() }

// Source provides randomness for secret generation and sampling solvers.
// Implementations used across goroutines must be safe for concurrent use.
type Source interface {
	// Intn returns a non-negative random int in [0, n). n > 0.
	Intn(n int) int
}

// cryptoSource draws from crypto/rand.
type cryptoSource struct{}

func (cryptoSource) Intn(n int) int {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0
	}
	return int(v.Int64())
}

// CryptoSource returns a Source backed by crypto/rand.
func CryptoSource() Source { return cryptoSource{} }

// RandomCode draws n distinct digits uniformly using a partial Fisher-Yates shuffle.
// A nil src falls back to crypto/rand.
func RandomCode(n int, src Source) Code {
	if src == nil {
		src = cryptoSource{}
	}
	digits := []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	for i := 0; i < n; i++ {
		j := i + src.Intn(len(digits)-i)
		digits[i], digits[j] = digits[j], digits[i]
	}
	return Code(digits[:n]).Clone()
}
