// Package metrics holds the Prometheus collectors for the game server.
// Collectors register with the default registry on import; the HTTP server
// exposes them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	GamesStarted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "numbergame_games_started_total",
		Help: "Sessions created, by mode and difficulty",
	}, []string{"mode", "difficulty"})

	GamesFinished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "numbergame_games_finished_total",
		Help: "Sessions finished, by mode and outcome",
	}, []string{"mode", "outcome"})

	Guesses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "numbergame_guesses_total",
		Help: "Scored guesses, by side",
	}, []string{"side"})

	InvalidGuesses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "numbergame_invalid_guesses_total",
		Help: "Rejected guess submissions",
	})

	SolverRemaining = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "numbergame_solver_remaining_candidates",
		Help:    "Solver hypothesis space size after each automated turn",
		Buckets: []float64{1, 2, 5, 10, 25, 50, 100, 250, 720, 5040},
	}, []string{"difficulty"})

	SolverExhausted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "numbergame_solver_exhausted_total",
		Help: "Automated forfeits caused by an empty candidate space",
	}, []string{"difficulty"})

	RecorderErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "numbergame_recorder_errors_total",
		Help: "Result summaries that could not be persisted",
	})

	BenchTries = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "numbergame_bench_tries",
		Help:    "Guesses needed per self-play game",
		Buckets: prometheus.LinearBuckets(1, 1, 15),
	}, []string{"difficulty", "digits"})
)
