package game

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluate_Scenario(t *testing.T) {
	secret := Code{1, 2, 3}
	guesses := map[string]Score{
		"123": {Strikes: 3, Balls: 0},
		"321": {Strikes: 1, Balls: 2},
		"456": {Strikes: 0, Balls: 0},
		"132": {Strikes: 1, Balls: 2},
		"312": {Strikes: 0, Balls: 3},
		"145": {Strikes: 1, Balls: 0},
		"051": {Strikes: 0, Balls: 1},
	}
	for in, want := range guesses {
		guess, err := ParseCode(in, 3)
		require.NoError(t, err)
		got := Evaluate(secret, guess)
		assert.Equal(t, want, got, "guess %s", in)
	}
	assert.True(t, Evaluate(secret, Code{1, 2, 3}).Win(3))
	assert.False(t, Evaluate(secret, Code{3, 2, 1}).Win(3))
}

func TestEvaluate_SelfIsWin(t *testing.T) {
	for _, n := range []int{3, 4} {
		for _, c := range GenerateAll(AllDigits(), n).Codes() {
			s := Evaluate(c, c)
			if s != (Score{Strikes: n}) {
				t.Fatalf("Evaluate(%s, %s) = %v, want %dS 0B", c, c, s, n)
			}
		}
	}
}

func TestEvaluate_Bounds(t *testing.T) {
	all := GenerateAll(AllDigits(), 3).Codes()
	secret := Code{7, 0, 4}
	for _, g := range all {
		s := Evaluate(secret, g)
		if s.Strikes < 0 || s.Balls < 0 || s.Strikes+s.Balls > 3 {
			t.Fatalf("Evaluate(%s, %s) = %v out of bounds", secret, g, s)
		}
	}
}

func TestEvaluate_Symmetry(t *testing.T) {
	// Equal digit sets: swapping roles gives the same score.
	a, b := Code{1, 2, 3, 4}, Code{4, 3, 1, 2}
	assert.Equal(t, Evaluate(a, b), Evaluate(b, a))

	// Applying one permutation to both codes keeps the score.
	perm := []int{2, 0, 3, 1}
	pa, pb := make(Code, 4), make(Code, 4)
	for i, p := range perm {
		pa[i], pb[i] = a[p], b[p]
	}
	assert.Equal(t, Evaluate(a, b), Evaluate(pa, pb))

	// Distinct digit sets are still bounded and position sensitive.
	s := Evaluate(Code{1, 2, 3}, Code{1, 5, 2})
	assert.Equal(t, Score{Strikes: 1, Balls: 1}, s)
}

func TestScore_String(t *testing.T) {
	assert.Equal(t, "Out", Score{}.String())
	assert.Equal(t, "1S 2B", Score{Strikes: 1, Balls: 2}.String())
	assert.Equal(t, "3S 0B", Score{Strikes: 3}.String())
	assert.Equal(t, "123 : 1S 0B", GuessRecord{Index: 1, Code: Code{1, 2, 3}, Score: Score{Strikes: 1}}.String())
}

func TestParseCode(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		n       int
		want    Code
		wantErr error
	}{
		{"three digits", "123", 3, Code{1, 2, 3}, nil},
		{"leading zero", "0123", 4, Code{0, 1, 2, 3}, nil},
		{"trimmed", "  987 ", 3, Code{9, 8, 7}, nil},
		{"too short", "12", 3, nil, ErrLength},
		{"too long", "1234", 3, nil, ErrLength},
		{"repeated", "112", 3, nil, ErrRepeatedDigit},
		{"letter", "12a", 3, nil, ErrDigitRange},
		{"negative", "-12", 3, nil, ErrDigitRange},
		{"empty", "", 3, nil, ErrLength},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCode(tt.in, tt.n)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				var ve *ValidationError
				assert.True(t, errors.As(err, &ve))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidate_DigitRange(t *testing.T) {
	err := Validate(Code{1, 10, 2}, 3)
	assert.ErrorIs(t, err, ErrDigitRange)
	assert.NoError(t, Validate(Code{0, 9, 5}, 3))
}

func TestEvaluator(t *testing.T) {
	_, err := NewEvaluator(Code{1, 2})
	assert.ErrorIs(t, err, ErrDigitCount)
	_, err = NewEvaluator(Code{1, 1, 2})
	assert.ErrorIs(t, err, ErrRepeatedDigit)

	secret := Code{1, 2, 3}
	ev, err := NewEvaluator(secret)
	require.NoError(t, err)
	secret[0] = 9 // caller mutation must not leak in
	s, err := ev.Check(Code{1, 2, 3})
	require.NoError(t, err)
	assert.True(t, s.Win(ev.Digits()))

	_, err = ev.Check(Code{1, 2, 3, 4})
	assert.ErrorIs(t, err, ErrLength)
	assert.Equal(t, Code{1, 2, 3}, ev.Reveal())
}

type seqSource struct{ vals []int }

func (s *seqSource) Intn(n int) int {
	if len(s.vals) == 0 {
		return 0
	}
	v := s.vals[0] % n
	s.vals = s.vals[1:]
	return v
}

func TestRandomCode(t *testing.T) {
	c := RandomCode(4, &seqSource{})
	assert.Equal(t, Code{0, 1, 2, 3}, c)

	for i := 0; i < 200; i++ {
		c := RandomCode(3, nil)
		require.NoError(t, Validate(c, 3))
	}
}
