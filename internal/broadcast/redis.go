package broadcast

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/tanmay0100/Number-Game-sub001/pkg/contracts/events"
)

// RedisBroadcaster publishes envelopes onto the Redis Pub/Sub channel the
// hub subscribers listen on. It is the publish side the settlement processor
// and result service hand their events to.
type RedisBroadcaster struct {
	r       *redis.Client
	channel string
}

func NewRedisBroadcaster(r *redis.Client, channel string) *RedisBroadcaster {
	return &RedisBroadcaster{r: r, channel: channel}
}

func (b *RedisBroadcaster) Publish(ctx context.Context, eventType string, data any) error {
	env, err := events.NewEnvelope(eventType, data)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(env)
	if err != nil {
		return err
	}
	return b.r.Publish(ctx, b.channel, payload).Err()
}

// Relay forwards an already-serialized envelope, used by the worker that
// bridges the Kafka stream onto the channel.
func (b *RedisBroadcaster) Relay(ctx context.Context, payload []byte) error {
	return b.r.Publish(ctx, b.channel, payload).Err()
}

// StartRedisSubscriber runs a goroutine that relays envelopes from the Redis
// Pub/Sub channel into the hub until the context is canceled. It lets the
// hub live in a different process than the publisher.
func StartRedisSubscriber(ctx context.Context, log *zap.Logger, r *redis.Client, hub *Hub, channel string) {
	sub := r.Subscribe(ctx, channel)
	ch := sub.Channel()
	go func() {
		for {
			select {
			case <-ctx.Done():
				_ = sub.Close()
				return
			case msg := <-ch:
				if msg == nil {
					continue
				}
				var env events.Envelope
				if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
					log.Warn("subscriber unmarshal failed", zap.Error(err))
					continue
				}
				hub.Send(env)
			}
		}
	}()
}
