package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/tanmay0100/Number-Game-sub001/internal/broadcast"
	sharedcache "github.com/tanmay0100/Number-Game-sub001/internal/shared/cache"
	"github.com/tanmay0100/Number-Game-sub001/internal/shared/config"
	"github.com/tanmay0100/Number-Game-sub001/internal/shared/kafka"
	"github.com/tanmay0100/Number-Game-sub001/internal/shared/logger"
	"github.com/tanmay0100/Number-Game-sub001/internal/shared/metrics"
	"github.com/tanmay0100/Number-Game-sub001/pkg/contracts/events"
)

// settlement-event-worker relays settlement envelopes from Kafka onto the
// Redis Pub/Sub channel the websocket hubs subscribe to. Running the relay
// apart from the API lets any number of hub instances share one stream.
func main() {
	cfg := config.Load()
	if cfg.ServiceName == "" {
		cfg.ServiceName = "settlement-event-worker"
	}

	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	redisClient, err := sharedcache.ConnectRedis(ctx, cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis connect", zap.Error(err))
	}
	defer redisClient.Close()

	relay := broadcast.NewRedisBroadcaster(redisClient, cfg.RedisPubSubChannel)

	reader := kafka.NewReader(cfg.KafkaBrokers, cfg.TopicSettlementEvents, "settlement-event-worker")
	defer reader.Close()

	dlq := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicSettlementEventsDLQ)
	defer dlq.Close()

	relayed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "settlement_worker_relayed_total", Help: "envelopes relayed to redis"})
	failed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "settlement_worker_errors_total", Help: "errors by stage"}, []string{"stage"})
	prometheus.MustRegister(relayed, failed)

	metricsSrv := metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		return redisClient.Ping(ctx).Err()
	})
	log.Info("metrics/health listening", zap.String("addr", metricsSrv.Addr))

	log.Info("settlement-event-worker started", zap.String("topic", cfg.TopicSettlementEvents))
	for {
		m, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("shutting down")
				return
			}
			log.Warn("kafka read failed", zap.Error(err))
			failed.WithLabelValues("read").Inc()
			time.Sleep(500 * time.Millisecond)
			continue
		}

		// validate before relaying; a malformed envelope goes to the DLQ
		// for inspection instead of being retried forever
		env, err := events.Decode(m.Value)
		if err != nil {
			log.Warn("invalid envelope, sending to dlq", zap.Error(err))
			failed.WithLabelValues("decode").Inc()
			dctx, dcancel := context.WithTimeout(ctx, 500*time.Millisecond)
			if derr := kafka.WriteJSON(dctx, dlq, string(m.Key), m.Value); derr != nil {
				log.Warn("dlq publish failed", zap.Error(derr))
				failed.WithLabelValues("dlq").Inc()
			}
			dcancel()
			continue
		}

		pctx, pcancel := context.WithTimeout(ctx, 500*time.Millisecond)
		err = relay.Relay(pctx, m.Value)
		pcancel()
		if err != nil {
			log.Warn("redis publish failed", zap.String("type", env.Type), zap.Error(err))
			failed.WithLabelValues("publish").Inc()
			continue
		}
		relayed.Inc()
	}
}
