package events

import (
	"encoding/json"
	"errors"
	"time"
)

// Recognized envelope types pushed to observers.
const (
	TypeBetPlaced          = "BET_PLACED"
	TypeAgentBetPlaced     = "agent_bet_placed"
	TypeWalletUpdated      = "WALLET_UPDATED"
	TypeAgentWalletUpdated = "agent_wallet_updated"
	TypeResultDeclared     = "RESULT_DECLARED"
)

// Envelope is the one wire shape every observer-facing event uses,
// regardless of transport (Kafka topic, Redis channel, WebSocket frame).
type Envelope struct {
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewEnvelope serializes the payload once and stamps the envelope.
func NewEnvelope(eventType string, data any) (Envelope, error) {
	b, err := json.Marshal(data)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{Type: eventType, Data: b, Timestamp: time.Now().UTC()}, nil
}

// Decode parses a wire payload into an Envelope. An envelope without a type
// is rejected; consumers route such payloads to the dead letter topic.
func Decode(payload []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return Envelope{}, err
	}
	if env.Type == "" {
		return Envelope{}, errors.New("envelope without type")
	}
	return env, nil
}
