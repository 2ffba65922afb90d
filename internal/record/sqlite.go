// internal/record/sqlite.go
//
// SQLite-backed Recorder over the results table (assets/sql/001_init.sql).
// Insertion order is the table's rowid order.

package record

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type SQLite struct {
	db *sql.DB
}

// NewSQLite wraps an already migrated database. Close does not close db;
// the caller that opened it owns it.
func NewSQLite(db *sql.DB) *SQLite {
	return &SQLite{db: db}
}

func (s *SQLite) Append(ctx context.Context, sum Summary) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO results (id, player, won, tries, elapsed_ms, difficulty, digits, mode, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sum.ID.String(), sum.Player, sum.Won, sum.Tries,
		int64(sum.ElapsedSeconds*1000), sum.Difficulty, sum.Digits, sum.Mode,
		sum.Date.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert result: %w", err)
	}
	return nil
}

func (s *SQLite) List(ctx context.Context) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, player, won, tries, elapsed_ms, difficulty, digits, mode, created_at
		FROM results ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var (
			sum       Summary
			id, date  string
			elapsedMS int64
		)
		if err := rows.Scan(&id, &sum.Player, &sum.Won, &sum.Tries, &elapsedMS,
			&sum.Difficulty, &sum.Digits, &sum.Mode, &date); err != nil {
			return nil, err
		}
		if sum.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("result id %q: %w", id, err)
		}
		if sum.Date, err = time.Parse(time.RFC3339Nano, date); err != nil {
			return nil, fmt.Errorf("result date %q: %w", date, err)
		}
		sum.ElapsedSeconds = float64(elapsedMS) / 1000
		out = append(out, sum)
	}
	return out, rows.Err()
}

func (s *SQLite) Remove(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM results WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("delete result: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLite) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM results`); err != nil {
		return fmt.Errorf("clear results: %w", err)
	}
	return nil
}

func (s *SQLite) Close() error { return nil }
