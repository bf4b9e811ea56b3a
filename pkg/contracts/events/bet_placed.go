package events

// BetPlaced is emitted after a settlement commits: the debit succeeded and
// every wager row is recorded. Observers treat it as an invalidation signal
// and re-read totals themselves.
type BetPlaced struct {
	SettlementID string   `json:"settlement_id"`
	AccountID    string   `json:"account_id"`
	GameName     string   `json:"game_name"`
	BetType      string   `json:"bet_type"`
	Selections   []string `json:"selections"`
	TotalDebited string   `json:"total_debited"`
	NewBalance   string   `json:"new_balance"`

	// Set only for agent-placed bets.
	AgentID      string `json:"agent_id,omitempty"`
	AgentName    string `json:"agent_name,omitempty"`
	CustomerName string `json:"customer_name,omitempty"`
}
