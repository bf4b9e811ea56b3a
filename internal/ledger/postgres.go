package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Postgres implements Store on a relational schema:
//
//	accounts(id, name, role, balance, active, created_at)
//	transactions(id, account_id, amount, kind, status, description,
//	             game_name, bet_type, bet_number, rate,
//	             agent_id, agent_name, customer_name, created_at)
//	settlements(id, idempotency_key UNIQUE, account_id, total, new_balance, created_at)
//
// Every mutation runs in one transaction with the account row locked
// (SELECT ... FOR UPDATE), so concurrent debits against one account
// serialize at the database.
type Postgres struct{ db *sql.DB }

func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

func (p *Postgres) CreateAccount(ctx context.Context, a Account) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO accounts(id, name, role, balance, active, created_at)
		VALUES ($1,$2,$3,$4,$5,now())`,
		a.ID, a.Name, a.Role, a.Balance, a.Active,
	)
	if err != nil {
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

func (p *Postgres) GetAccount(ctx context.Context, id string) (Account, error) {
	var a Account
	err := p.db.QueryRowContext(ctx, `
		SELECT id, name, role, balance, active, created_at
		FROM accounts WHERE id=$1`, id).
		Scan(&a.ID, &a.Name, &a.Role, &a.Balance, &a.Active, &a.CreatedAt)
	if err == sql.ErrNoRows {
		return Account{}, ErrAccountNotFound
	}
	if err != nil {
		return Account{}, fmt.Errorf("select account: %w", err)
	}
	return a, nil
}

// lockBalance reads the current balance with the row locked for the rest of
// the transaction.
func lockBalance(ctx context.Context, tx *sql.Tx, accountID string) (decimal.Decimal, error) {
	var bal decimal.Decimal
	err := tx.QueryRowContext(ctx,
		`SELECT balance FROM accounts WHERE id=$1 FOR UPDATE`, accountID).Scan(&bal)
	if err == sql.ErrNoRows {
		return decimal.Zero, ErrAccountNotFound
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("lock account: %w", err)
	}
	return bal, nil
}

func insertTransaction(ctx context.Context, tx *sql.Tx, t Transaction) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO transactions
		  (id, account_id, amount, kind, status, description,
		   game_name, bet_type, bet_number, rate,
		   agent_id, agent_name, customer_name, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`,
		t.ID, t.AccountID, t.Amount, t.Kind, t.Status, t.Description,
		t.GameName, t.BetType, t.BetNumber, t.Rate,
		t.AgentID, t.AgentName, t.CustomerName, t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

func (p *Postgres) AdjustBalance(ctx context.Context, accountID string, delta decimal.Decimal, kind Kind, reason string) (AdjustResult, error) {
	if delta.IsZero() {
		return AdjustResult{}, ErrZeroDelta
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return AdjustResult{}, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	bal, err := lockBalance(ctx, tx, accountID)
	if err != nil {
		return AdjustResult{}, err
	}

	newBal := bal.Add(delta)
	if newBal.IsNegative() {
		return AdjustResult{}, ErrInsufficientFunds
	}

	if _, err = tx.ExecContext(ctx,
		`UPDATE accounts SET balance=$1 WHERE id=$2`, newBal, accountID); err != nil {
		return AdjustResult{}, fmt.Errorf("update balance: %w", err)
	}

	rec := Transaction{
		ID:          uuid.NewString(),
		AccountID:   accountID,
		Amount:      delta,
		Kind:        kind,
		Status:      StatusCompleted,
		Description: reason,
		CreatedAt:   time.Now().UTC(),
	}
	if err = insertTransaction(ctx, tx, rec); err != nil {
		return AdjustResult{}, err
	}

	if err = tx.Commit(); err != nil {
		return AdjustResult{}, fmt.Errorf("commit: %w", err)
	}
	return AdjustResult{NewBalance: newBal, Transaction: rec}, nil
}

func (p *Postgres) AdminAdjust(ctx context.Context, accountID string, delta decimal.Decimal, reason string) (AdjustResult, error) {
	if delta.IsZero() {
		return AdjustResult{}, ErrZeroDelta
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return AdjustResult{}, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	bal, err := lockBalance(ctx, tx, accountID)
	if err != nil {
		return AdjustResult{}, err
	}

	// Administrative edits floor at zero rather than rejecting. The audit
	// row records the applied delta, not the requested one.
	newBal := bal.Add(delta)
	if newBal.IsNegative() {
		newBal = decimal.Zero
	}
	applied := newBal.Sub(bal)

	kind := KindWalletCredit
	if applied.IsNegative() {
		kind = KindWalletDebit
	}

	if _, err = tx.ExecContext(ctx,
		`UPDATE accounts SET balance=$1 WHERE id=$2`, newBal, accountID); err != nil {
		return AdjustResult{}, fmt.Errorf("update balance: %w", err)
	}

	rec := Transaction{
		ID:          uuid.NewString(),
		AccountID:   accountID,
		Amount:      applied,
		Kind:        kind,
		Status:      StatusCompleted,
		Description: reason,
		CreatedAt:   time.Now().UTC(),
	}
	if err = insertTransaction(ctx, tx, rec); err != nil {
		return AdjustResult{}, err
	}

	if err = tx.Commit(); err != nil {
		return AdjustResult{}, fmt.Errorf("commit: %w", err)
	}
	return AdjustResult{NewBalance: newBal, Transaction: rec}, nil
}

func (p *Postgres) Settle(ctx context.Context, req SettlementRequest) (SettlementResult, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return SettlementResult{}, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	bal, err := lockBalance(ctx, tx, req.AccountID)
	if err != nil {
		return SettlementResult{}, err
	}

	// Idempotent replay: a retry after timeout must not debit twice.
	if req.IdempotencyKey != "" {
		var prevID string
		var prevBal decimal.Decimal
		err = tx.QueryRowContext(ctx, `
			SELECT id, new_balance FROM settlements
			WHERE account_id=$1 AND idempotency_key=$2`,
			req.AccountID, req.IdempotencyKey).Scan(&prevID, &prevBal)
		if err == nil {
			wagers, werr := p.settlementWagers(ctx, tx, prevID)
			if werr != nil {
				return SettlementResult{}, werr
			}
			if err = tx.Commit(); err != nil {
				return SettlementResult{}, fmt.Errorf("commit: %w", err)
			}
			return SettlementResult{SettlementID: prevID, NewBalance: prevBal, Wagers: wagers, Replayed: true}, nil
		}
		if err != sql.ErrNoRows {
			return SettlementResult{}, fmt.Errorf("settlement lookup: %w", err)
		}
	}

	if bal.LessThan(req.Total) {
		return SettlementResult{}, ErrInsufficientFunds
	}

	newBal := bal.Sub(req.Total)
	if _, err = tx.ExecContext(ctx,
		`UPDATE accounts SET balance=$1 WHERE id=$2`, newBal, req.AccountID); err != nil {
		return SettlementResult{}, fmt.Errorf("update balance: %w", err)
	}

	settlementID := req.SettlementID
	if settlementID == "" {
		settlementID = uuid.NewString()
	}
	var idemKey any
	if req.IdempotencyKey != "" {
		idemKey = req.IdempotencyKey
	}
	if _, err = tx.ExecContext(ctx, `
		INSERT INTO settlements(id, idempotency_key, account_id, total, new_balance, created_at)
		VALUES ($1,$2,$3,$4,$5,now())`,
		settlementID, idemKey, req.AccountID, req.Total, newBal); err != nil {
		return SettlementResult{}, fmt.Errorf("insert settlement: %w", err)
	}

	now := time.Now().UTC()
	wagers := make([]Transaction, 0, len(req.Wagers))
	for _, wl := range req.Wagers {
		rec := Transaction{
			ID:           uuid.NewString(),
			AccountID:    req.AccountID,
			Amount:       wl.Amount.Neg(),
			Kind:         KindBet,
			Status:       StatusCompleted,
			Description:  req.Description,
			GameName:     req.GameName,
			BetType:      req.BetType,
			BetNumber:    wl.BetNumber,
			Rate:         wl.Rate,
			AgentID:      req.AgentID,
			AgentName:    req.AgentName,
			CustomerName: req.CustomerName,
			CreatedAt:    now,
		}
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO transactions
			  (id, account_id, amount, kind, status, description,
			   game_name, bet_type, bet_number, rate,
			   agent_id, agent_name, customer_name, settlement_id, created_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)`,
			rec.ID, rec.AccountID, rec.Amount, rec.Kind, rec.Status, rec.Description,
			rec.GameName, rec.BetType, rec.BetNumber, rec.Rate,
			rec.AgentID, rec.AgentName, rec.CustomerName, settlementID, rec.CreatedAt,
		); err != nil {
			return SettlementResult{}, fmt.Errorf("insert wager row: %w", err)
		}
		wagers = append(wagers, rec)
	}

	if err = tx.Commit(); err != nil {
		return SettlementResult{}, fmt.Errorf("commit: %w", err)
	}
	return SettlementResult{SettlementID: settlementID, NewBalance: newBal, Wagers: wagers}, nil
}

func (p *Postgres) settlementWagers(ctx context.Context, tx *sql.Tx, settlementID string) ([]Transaction, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT id, account_id, amount, kind, status, description,
		       game_name, bet_type, bet_number, rate,
		       agent_id, agent_name, customer_name, created_at
		FROM transactions WHERE settlement_id=$1 ORDER BY created_at`, settlementID)
	if err != nil {
		return nil, fmt.Errorf("select wagers: %w", err)
	}
	defer rows.Close()

	var out []Transaction
	for rows.Next() {
		var t Transaction
		if err := rows.Scan(&t.ID, &t.AccountID, &t.Amount, &t.Kind, &t.Status, &t.Description,
			&t.GameName, &t.BetType, &t.BetNumber, &t.Rate,
			&t.AgentID, &t.AgentName, &t.CustomerName, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan wager: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (p *Postgres) Transactions(ctx context.Context, accountID string, limit int) ([]Transaction, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, account_id, amount, kind, status, description,
		       game_name, bet_type, bet_number, rate,
		       agent_id, agent_name, customer_name, created_at
		FROM transactions WHERE account_id=$1
		ORDER BY created_at DESC LIMIT $2`, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("select transactions: %w", err)
	}
	defer rows.Close()

	var out []Transaction
	for rows.Next() {
		var t Transaction
		if err := rows.Scan(&t.ID, &t.AccountID, &t.Amount, &t.Kind, &t.Status, &t.Description,
			&t.GameName, &t.BetType, &t.BetNumber, &t.Rate,
			&t.AgentID, &t.AgentName, &t.CustomerName, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
