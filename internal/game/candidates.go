// internal/game/candidates.go
//
// The candidate space: every code still consistent with the scores observed so far.
//
// Generation enumerates permutations (order matters, no repeated digits) in
// lexicographic order of the supplied pool, so the "first" candidate is stable
// and reproducible. Filtering is incremental: each observation is applied to the
// already-narrowed set, never recomputed from the full history.

package game

import "sort"

// CandidateSet is an ordered set of codes. It only ever shrinks.
type CandidateSet struct {
	codes []Code
}

// PermutationCount returns P(pool, n), the falling factorial pool*(pool-1)*...*(pool-n+1).
func PermutationCount(pool, n int) int {
	if n < 0 || n > pool {
		return 0
	}
	total := 1
	for i := 0; i < n; i++ {
		total *= pool - i
	}
	return total
}

// AllDigits returns the full digit pool 0..9.
func AllDigits() []int {
	out := make([]int, 0, MaxDigit-MinDigit+1)
	for d := MinDigit; d <= MaxDigit; d++ {
		out = append(out, d)
	}
	return out
}

// GenerateAll builds every n-length sequence of distinct digits drawn from pool.
// Duplicate pool entries are ignored; the pool is enumerated in ascending order.
func GenerateAll(pool []int, n int) *CandidateSet {
	digits := uniqueSorted(pool)
	set := &CandidateSet{codes: make([]Code, 0, PermutationCount(len(digits), n))}
	if n <= 0 || n > len(digits) {
		return set
	}
	used := make([]bool, len(digits))
	cur := make(Code, 0, n)

	var walk func()
	walk = func() {
		if len(cur) == n {
			set.codes = append(set.codes, cur.Clone())
			return
		}
		for i, d := range digits {
			if used[i] {
				continue
			}
			used[i] = true
			cur = append(cur, d)
			walk()
			cur = cur[:len(cur)-1]
			used[i] = false
		}
	}
	walk()
	return set
}

// Filter keeps only the candidates c for which Evaluate(c, guess) == observed,
// i.e. codes that would have produced exactly this score had they been the secret.
// Returns the number of candidates removed.
func (s *CandidateSet) Filter(guess Code, observed Score) int {
	kept := s.codes[:0]
	for _, c := range s.codes {
		if Evaluate(c, guess) == observed {
			kept = append(kept, c)
		}
	}
	removed := len(s.codes) - len(kept)
	for i := len(kept); i < len(s.codes); i++ {
		s.codes[i] = nil
	}
	s.codes = kept
	return removed
}

// Exclude drops every candidate for which drop returns true.
func (s *CandidateSet) Exclude(drop func(Code) bool) int {
	kept := s.codes[:0]
	for _, c := range s.codes {
		if !drop(c) {
			kept = append(kept, c)
		}
	}
	removed := len(s.codes) - len(kept)
	s.codes = kept
	return removed
}

// First returns the first remaining candidate, or false once the set is empty.
func (s *CandidateSet) First() (Code, bool) {
	if len(s.codes) == 0 {
		return nil, false
	}
	return s.codes[0].Clone(), true
}

// Len reports how many candidates remain.
func (s *CandidateSet) Len() int { return len(s.codes) }

// Empty reports whether no consistent candidate remains.
func (s *CandidateSet) Empty() bool { return len(s.codes) == 0 }

// Contains reports whether c is still a candidate.
func (s *CandidateSet) Contains(c Code) bool {
	for _, x := range s.codes {
		if x.Equal(c) {
			return true
		}
	}
	return false
}

// Codes returns a copy of the remaining candidates in enumeration order.
func (s *CandidateSet) Codes() []Code {
	out := make([]Code, len(s.codes))
	for i, c := range s.codes {
		out[i] = c.Clone()
	}
	return out
}

func uniqueSorted(pool []int) []int {
	seen := make(map[int]struct{}, len(pool))
	out := make([]int, 0, len(pool))
	for _, d := range pool {
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	sort.Ints(out)
	return out
}
