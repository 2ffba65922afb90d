package session

import (
	"time"

	"github.com/edit0rsky/NumberGame/internal/game"
)

// Clock measures a session from its first playable moment to game over.
type Clock struct {
	now        func() time.Time
	start, end time.Time
}

func NewClock(now func() time.Time) Clock {
	if now == nil {
		now = time.Now
	}
	return Clock{now: now}
}

func (c *Clock) Start() {
	if c.start.IsZero() {
		c.start = c.now()
	}
}

func (c *Clock) Stop() {
	if !c.start.IsZero() && c.end.IsZero() {
		c.end = c.now()
	}
}

// Elapsed is zero before Start, running time until Stop, fixed afterwards.
func (c Clock) Elapsed() time.Duration {
	switch {
	case c.start.IsZero():
		return 0
	case c.end.IsZero():
		return c.now().Sub(c.start)
	default:
		return c.end.Sub(c.start)
	}
}

// Ended is the zero time until Stop.
func (c Clock) Ended() time.Time { return c.end }

// HistoryLog is one side's append-only list of scored guesses.
type HistoryLog struct {
	records []game.GuessRecord
}

// Append records guess and returns the stored record with its 1-based index.
func (h *HistoryLog) Append(guess game.Code, score game.Score) game.GuessRecord {
	rec := game.GuessRecord{Index: len(h.records) + 1, Code: guess.Clone(), Score: score}
	h.records = append(h.records, rec)
	return rec
}

func (h HistoryLog) Len() int { return len(h.records) }

// Records returns a copy of the log.
func (h HistoryLog) Records() []game.GuessRecord {
	out := make([]game.GuessRecord, len(h.records))
	for i, r := range h.records {
		r.Code = r.Code.Clone()
		out[i] = r
	}
	return out
}

func (h HistoryLog) Contains(c game.Code) bool {
	for _, r := range h.records {
		if r.Code.Equal(c) {
			return true
		}
	}
	return false
}
