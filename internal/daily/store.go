package daily

import (
	"context"
	"database/sql"
)

// Result is one scored daily challenge.
type Result struct {
	Player    string `json:"player"`
	Date      string `json:"date"`
	Digits    int    `json:"digits"`
	Tries     int    `json:"tries"`
	ElapsedMs int64  `json:"elapsedMs"`
}

type Store struct{ db *sql.DB }

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) AlreadyPlayed(ctx context.Context, player, date string) (bool, error) {
	var cnt int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM daily_results WHERE player=? AND date=?",
		player, date,
	).Scan(&cnt)
	return cnt > 0, err
}

// InsertResult stores r unless the player already has a result for that date.
func (s *Store) InsertResult(ctx context.Context, r Result) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO daily_results(player, date, digits, tries, elapsed_ms)
		VALUES(?,?,?,?,?)`, r.Player, r.Date, r.Digits, r.Tries, r.ElapsedMs,
	)
	return err
}

type LBRow struct {
	Player    string `json:"player"`
	Tries     int    `json:"tries"`
	ElapsedMs int64  `json:"elapsedMs"`
}

// Leaderboard ranks a date's results by tries, then time.
func (s *Store) Leaderboard(ctx context.Context, date string, limit int) ([]LBRow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT player, tries, elapsed_ms
		FROM daily_results
		WHERE date=?
		ORDER BY tries ASC, elapsed_ms ASC, created_at ASC
		LIMIT ?`, date, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []LBRow{}
	for rows.Next() {
		var r LBRow
		if err := rows.Scan(&r.Player, &r.Tries, &r.ElapsedMs); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
