package events

// WalletUpdated is emitted on any balance change outside bet settlement:
// administrative credits/debits and win payouts.
type WalletUpdated struct {
	AccountID  string `json:"account_id"`
	Delta      string `json:"delta"`
	NewBalance string `json:"new_balance"`
	Kind       string `json:"kind"`
	Reason     string `json:"reason"`
}
