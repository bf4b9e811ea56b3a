package httpapi

import "github.com/shopspring/decimal"

type AgentDTO struct {
	AgentID      string `json:"agent_id"`
	AgentName    string `json:"agent_name,omitempty"`
	CustomerName string `json:"customer_name,omitempty"`
}

type PlaceBetRequest struct {
	AccountID         string          `json:"account_id"`
	GameName          string          `json:"game_name"`
	BetType           string          `json:"bet_type"` // ex: "single_ank", "jodi"
	Selections        []string        `json:"selections"`
	StakePerSelection decimal.Decimal `json:"stake_per_selection"`
	Rate              decimal.Decimal `json:"rate"`
	IdempotencyKey    string          `json:"idempotency_key,omitempty"`
	Agent             *AgentDTO       `json:"agent,omitempty"`
}

type WagerDTO struct {
	TransactionID string          `json:"transaction_id"`
	BetNumber     string          `json:"bet_number"`
	Amount        decimal.Decimal `json:"amount"`
	Rate          decimal.Decimal `json:"rate"`
}

type PlaceBetResponse struct {
	SettlementID string          `json:"settlement_id"`
	TotalDebited decimal.Decimal `json:"total_debited"`
	NewBalance   decimal.Decimal `json:"new_balance"`
	Wagers       []WagerDTO      `json:"wagers"`
	Replayed     bool            `json:"replayed,omitempty"`
}

type BalanceResponse struct {
	AccountID string          `json:"account_id"`
	Balance   decimal.Decimal `json:"balance"`
}

type WalletAdjustRequest struct {
	AccountID string          `json:"account_id"`
	Delta     decimal.Decimal `json:"delta"`
	Reason    string          `json:"reason"`
}

type WalletAdjustResponse struct {
	AccountID  string          `json:"account_id"`
	NewBalance decimal.Decimal `json:"new_balance"`
	Applied    decimal.Decimal `json:"applied"`
	Kind       string          `json:"kind"`
}

type ResultEntryRequest struct {
	GameName   string  `json:"game_name"`
	Date       string  `json:"date"` // YYYY-MM-DD
	OpenPatti  *string `json:"open_patti,omitempty"`
	OpenAnk    *string `json:"open_ank,omitempty"`
	ClosePatti *string `json:"close_patti,omitempty"`
	CloseAnk   *string `json:"close_ank,omitempty"`
}

type ResultResponse struct {
	GameName   string `json:"game_name"`
	Date       string `json:"date"`
	OpenPatti  string `json:"open_patti,omitempty"`
	OpenAnk    string `json:"open_ank,omitempty"`
	ClosePatti string `json:"close_patti,omitempty"`
	CloseAnk   string `json:"close_ank,omitempty"`
	Display    string `json:"display"`
	Complete   bool   `json:"complete"`
}

type ChartDayDTO struct {
	Date       string `json:"date"`
	Weekday    string `json:"weekday"`
	OpenPanna  string `json:"open_panna"`
	Jodi       string `json:"jodi"`
	ClosePanna string `json:"close_panna"`
}

type ChartWeekDTO struct {
	Year  int            `json:"year"`
	Week  int            `json:"week"`
	Start string         `json:"start"`
	End   string         `json:"end"`
	Days  []*ChartDayDTO `json:"days"` // Monday..Saturday, null for blanks
}

type ChartResponse struct {
	GameName string         `json:"game_name"`
	Weeks    []ChartWeekDTO `json:"weeks"`
}

type TransactionDTO struct {
	ID          string          `json:"id"`
	Amount      decimal.Decimal `json:"amount"`
	Kind        string          `json:"kind"`
	Status      string          `json:"status"`
	Description string          `json:"description"`
	GameName    string          `json:"game_name,omitempty"`
	BetType     string          `json:"bet_type,omitempty"`
	BetNumber   string          `json:"bet_number,omitempty"`
	CreatedAt   string          `json:"created_at"`
}

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
