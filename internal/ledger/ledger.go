package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// All balance mutation in the system funnels through a Store. A store must
// serialize concurrent adjustments against one account so a sufficiency check
// is never evaluated against a balance another in-flight debit is about to
// invalidate.

var (
	ErrAccountNotFound   = errors.New("account not found")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrZeroDelta         = errors.New("delta must be non-zero")
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAgent Role = "agent"
	RoleAdmin Role = "admin"
)

type Kind string

const (
	KindDeposit      Kind = "deposit"
	KindWithdrawal   Kind = "withdrawal"
	KindBet          Kind = "bet"
	KindWin          Kind = "win"
	KindWalletCredit Kind = "wallet_credit"
	KindWalletDebit  Kind = "wallet_debit"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

type Account struct {
	ID        string
	Name      string
	Role      Role
	Balance   decimal.Decimal
	Active    bool
	CreatedAt time.Time
}

// Transaction is an immutable audit record. An account's balance is always
// the sum of its completed transaction amounts.
type Transaction struct {
	ID          string
	AccountID   string
	Amount      decimal.Decimal // signed
	Kind        Kind
	Status      Status
	Description string

	// Bet tags; empty outside kind=bet/win.
	GameName  string
	BetType   string
	BetNumber string
	Rate      decimal.Decimal // payout rate snapshot at bet time

	// Agent-placed bets carry who spent on behalf of whom.
	AgentID      string
	AgentName    string
	CustomerName string

	CreatedAt time.Time
}

type AdjustResult struct {
	NewBalance  decimal.Decimal
	Transaction Transaction
}

// WagerLine is one selection of a settlement: the number, its individual
// stake and the rate snapshot.
type WagerLine struct {
	BetNumber string
	Amount    decimal.Decimal
	Rate      decimal.Decimal
}

// SettlementRequest asks the store for one atomic unit: sufficiency check
// under the account lock, a single debit of Total, and one bet transaction
// row per wager.
type SettlementRequest struct {
	SettlementID   string
	IdempotencyKey string
	AccountID      string
	Total          decimal.Decimal
	Description    string
	GameName       string
	BetType        string
	Wagers         []WagerLine

	AgentID      string
	AgentName    string
	CustomerName string
}

type SettlementResult struct {
	SettlementID string
	NewBalance   decimal.Decimal
	Wagers       []Transaction
	// Replayed is true when the idempotency key was already settled and the
	// stored outcome is returned without a second debit.
	Replayed bool
}

type Store interface {
	CreateAccount(ctx context.Context, a Account) error
	GetAccount(ctx context.Context, id string) (Account, error)

	// AdjustBalance applies a signed delta and records the audit row as one
	// atomic unit. A delta that would take the balance below zero is
	// rejected with ErrInsufficientFunds.
	AdjustBalance(ctx context.Context, accountID string, delta decimal.Decimal, kind Kind, reason string) (AdjustResult, error)

	// AdminAdjust is the administrative wallet edit: a debit larger than the
	// balance floors at zero instead of being rejected. The recorded
	// transaction carries the applied delta so the sum-of-deltas invariant
	// holds.
	AdminAdjust(ctx context.Context, accountID string, delta decimal.Decimal, reason string) (AdjustResult, error)

	Settle(ctx context.Context, req SettlementRequest) (SettlementResult, error)

	Transactions(ctx context.Context, accountID string, limit int) ([]Transaction, error)
}
