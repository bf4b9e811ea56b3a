package topics

const (
	// Settlement and wallet activity
	SettlementEvents = "settlement_events"

	// DLQ
	SettlementEventsDLQ = "settlement_events_dlq"
)
