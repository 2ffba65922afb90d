// internal/record/record.go
//
// Finished-game summaries and the Recorder contract.
// A session hands exactly one Summary to its Recorder when it finishes.
// Implementations:
//   - Memory: process-local, used by tests and the terminal game.
//   - SQLite: durable, backed by the results table.
//   - Async:  fire-and-forget wrapper around any Recorder.

package record

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound  = errors.New("record: not found")
	ErrClosed    = errors.New("record: recorder closed")
	ErrQueueFull = errors.New("record: queue full")
)

// Summary is the immutable result of one finished session.
type Summary struct {
	ID             uuid.UUID `json:"id"`
	Player         string    `json:"player"`
	Won            bool      `json:"won"`
	Tries          int       `json:"tries"`
	ElapsedSeconds float64   `json:"elapsedSeconds"`
	Difficulty     string    `json:"difficulty"`
	Digits         int       `json:"digits"`
	Mode           string    `json:"mode"`
	Date           time.Time `json:"date"`
}

// Outcome is "win" or "loss" from the player's perspective.
func (s Summary) Outcome() string {
	if s.Won {
		return "win"
	}
	return "loss"
}

// Recorder persists summaries. List returns them in insertion order.
type Recorder interface {
	Append(ctx context.Context, s Summary) error
	List(ctx context.Context) ([]Summary, error)
	Remove(ctx context.Context, id uuid.UUID) error
	Clear(ctx context.Context) error
	Close() error
}
