package chart

import (
	"context"
	"database/sql"
	"fmt"
)

// Postgres stores chart rows keyed by (game_name, result_date). The upsert
// touches only that date's three result fields, never sibling days.
type Postgres struct{ db *sql.DB }

func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

func (p *Postgres) Upsert(ctx context.Context, r Row) error {
	const q = `
		INSERT INTO chart_rows
		  (game_name, result_date, weekday, week_number, year, open_panna, jodi, close_panna)
		VALUES
		  ($1,$2,$3,$4,$5,$6,$7,$8)
		ON CONFLICT (game_name, result_date) DO UPDATE SET
		  open_panna  = EXCLUDED.open_panna,
		  jodi        = EXCLUDED.jodi,
		  close_panna = EXCLUDED.close_panna
	`
	_, err := p.db.ExecContext(ctx, q,
		r.GameName, r.Date, r.Weekday, r.WeekNumber, r.Year,
		r.OpenPanna, r.Jodi, r.ClosePanna,
	)
	if err != nil {
		return fmt.Errorf("upsert chart row: %w", err)
	}
	return nil
}

func (p *Postgres) RowsForGame(ctx context.Context, gameName string) ([]Row, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT game_name, result_date, weekday, week_number, year,
		       open_panna, jodi, close_panna
		FROM chart_rows WHERE game_name=$1
		ORDER BY result_date`, gameName)
	if err != nil {
		return nil, fmt.Errorf("select chart rows: %w", err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var r Row
		if err := rows.Scan(&r.GameName, &r.Date, &r.Weekday, &r.WeekNumber, &r.Year,
			&r.OpenPanna, &r.Jodi, &r.ClosePanna); err != nil {
			return nil, fmt.Errorf("scan chart row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
