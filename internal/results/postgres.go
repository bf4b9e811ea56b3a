package results

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Postgres stores results keyed by (game_name, result_date).
type Postgres struct{ db *sql.DB }

func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

func (p *Postgres) Get(ctx context.Context, gameName string, date time.Time) (Result, error) {
	var r Result
	err := p.db.QueryRowContext(ctx, `
		SELECT game_name, result_date, open_patti, open_ank, close_patti, close_ank, updated_at
		FROM game_results WHERE game_name=$1 AND result_date=$2`,
		gameName, truncateDay(date)).
		Scan(&r.GameName, &r.Date, &r.OpenPatti, &r.OpenAnk, &r.ClosePatti, &r.CloseAnk, &r.UpdatedAt)
	if err == sql.ErrNoRows {
		return Result{}, nil
	}
	if err != nil {
		return Result{}, fmt.Errorf("select result: %w", err)
	}
	return r, nil
}

func (p *Postgres) Upsert(ctx context.Context, r Result) error {
	const q = `
		INSERT INTO game_results
		  (game_name, result_date, open_patti, open_ank, close_patti, close_ank, updated_at)
		VALUES
		  ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (game_name, result_date) DO UPDATE SET
		  open_patti  = EXCLUDED.open_patti,
		  open_ank    = EXCLUDED.open_ank,
		  close_patti = EXCLUDED.close_patti,
		  close_ank   = EXCLUDED.close_ank,
		  updated_at  = EXCLUDED.updated_at
	`
	_, err := p.db.ExecContext(ctx, q,
		r.GameName, r.Date, r.OpenPatti, r.OpenAnk, r.ClosePatti, r.CloseAnk, r.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert result: %w", err)
	}
	return nil
}
