// Package bench plays the solver strategies against random secrets and
// reports how many guesses each one needs.
package bench

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/edit0rsky/NumberGame/internal/game"
	"github.com/edit0rsky/NumberGame/internal/metrics"
	"github.com/edit0rsky/NumberGame/internal/solver"
)

type Options struct {
	Difficulties []solver.Difficulty
	Digits       []int
	Games        int // per difficulty/digits pair
	Workers      int
	// Source returns the randomness for one game. It is called once per game
	// so implementations need not be safe for concurrent use.
	Source func() game.Source
}

// Stat aggregates the games played for one difficulty/digits pair.
type Stat struct {
	Difficulty solver.Difficulty
	Digits     int
	Games      int
	Exhausted  int
	Min        int
	Max        int
	Total      int
}

// Mean is the average guess count over games the solver finished.
func (s Stat) Mean() float64 {
	solved := s.Games - s.Exhausted
	if solved == 0 {
		return 0
	}
	return float64(s.Total) / float64(solved)
}

func (s Stat) String() string {
	return fmt.Sprintf("%-6s %d digits: %d games, mean %.2f, min %d, max %d, exhausted %d",
		s.Difficulty, s.Digits, s.Games, s.Mean(), s.Min, s.Max, s.Exhausted)
}

// Play runs one solver against secret and returns the number of guesses it
// took. solver.ErrExhausted is returned when the strategy gives up.
func Play(d solver.Difficulty, secret game.Code, src game.Source) (int, error) {
	sv, err := solver.New(d, len(secret), src)
	if err != nil {
		return 0, err
	}
	ev, err := game.NewEvaluator(secret)
	if err != nil {
		return 0, err
	}
	// no strategy repeats a guess, so the permutation count bounds every game
	maxTries := game.PermutationCount(game.MaxDigit+1, len(secret))
	seen := make(map[string]bool)
	for tries := 1; tries <= maxTries; tries++ {
		guess, err := sv.Next()
		if err != nil {
			return tries - 1, err
		}
		if seen[guess.String()] {
			return tries - 1, fmt.Errorf("%w: repeated %s", solver.ErrExhausted, guess)
		}
		seen[guess.String()] = true
		score, err := ev.Check(guess)
		if err != nil {
			return tries, err
		}
		if score.Win(len(secret)) {
			return tries, nil
		}
		sv.Observe(guess, score)
	}
	return maxTries, fmt.Errorf("%w: no win after %d guesses", solver.ErrExhausted, maxTries)
}

// Run plays Options.Games games for every difficulty/digits pair on a bounded
// worker pool. Results come back sorted by digits, then difficulty.
func Run(ctx context.Context, opts Options) ([]Stat, error) {
	if opts.Games <= 0 {
		return nil, errors.New("bench: games must be positive")
	}
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.Source == nil {
		opts.Source = game.CryptoSource
	}

	type key struct {
		d      solver.Difficulty
		digits int
	}
	var (
		mu    sync.Mutex
		stats = make(map[key]*Stat)
	)
	for _, d := range opts.Difficulties {
		if _, err := solver.ParseDifficulty(string(d)); err != nil {
			return nil, err
		}
		for _, n := range opts.Digits {
			if !game.ValidDigitCount(n) {
				return nil, game.ErrDigitCount
			}
			stats[key{d, n}] = &Stat{Difficulty: d, Digits: n}
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)
	for k := range stats {
		k := k
		for i := 0; i < opts.Games; i++ {
			if gctx.Err() != nil {
				break
			}
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				src := opts.Source()
				secret := game.RandomCode(k.digits, src)
				tries, err := Play(k.d, secret, src)
				if err != nil && !errors.Is(err, solver.ErrExhausted) {
					return err
				}

				mu.Lock()
				defer mu.Unlock()
				st := stats[k]
				st.Games++
				if err != nil {
					st.Exhausted++
					log.Warn().Str("difficulty", string(k.d)).Str("secret", secret.String()).Err(err).Msg("bench game unsolved")
					return nil
				}
				metrics.BenchTries.WithLabelValues(string(k.d), strconv.Itoa(k.digits)).Observe(float64(tries))
				st.Total += tries
				if st.Min == 0 || tries < st.Min {
					st.Min = tries
				}
				if tries > st.Max {
					st.Max = tries
				}
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make([]Stat, 0, len(stats))
	for _, st := range stats {
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Digits != out[j].Digits {
			return out[i].Digits < out[j].Digits
		}
		return out[i].Difficulty < out[j].Difficulty
	})
	return out, nil
}
