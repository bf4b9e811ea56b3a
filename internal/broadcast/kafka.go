package broadcast

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"

	"github.com/tanmay0100/Number-Game-sub001/pkg/contracts/events"
)

// KafkaPublisher writes envelopes to the settlement event topic so consumers
// outside this process (workers, reporting) see the same stream observers do.
type KafkaPublisher struct {
	Writer *kafka.Writer
}

func NewKafkaPublisher(w *kafka.Writer) *KafkaPublisher {
	return &KafkaPublisher{Writer: w}
}

func (p *KafkaPublisher) Publish(ctx context.Context, eventType string, data any) error {
	env, err := events.NewEnvelope(eventType, data)
	if err != nil {
		return err
	}
	b, err := json.Marshal(env)
	if err != nil {
		return err
	}
	return p.Writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(eventType),
		Value: b,
	})
}

// Publisher is what the domain services see; the transports implement it.
type Publisher interface {
	Publish(ctx context.Context, eventType string, data any) error
}
