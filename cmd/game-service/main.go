package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/tanmay0100/Number-Game-sub001/internal/balancecache"
	"github.com/tanmay0100/Number-Game-sub001/internal/broadcast"
	"github.com/tanmay0100/Number-Game-sub001/internal/chart"
	"github.com/tanmay0100/Number-Game-sub001/internal/httpapi"
	"github.com/tanmay0100/Number-Game-sub001/internal/ledger"
	"github.com/tanmay0100/Number-Game-sub001/internal/results"
	"github.com/tanmay0100/Number-Game-sub001/internal/settlement"
	sharedcache "github.com/tanmay0100/Number-Game-sub001/internal/shared/cache"
	"github.com/tanmay0100/Number-Game-sub001/internal/shared/config"
	"github.com/tanmay0100/Number-Game-sub001/internal/shared/db"
	"github.com/tanmay0100/Number-Game-sub001/internal/shared/kafka"
	"github.com/tanmay0100/Number-Game-sub001/internal/shared/logger"
	"github.com/tanmay0100/Number-Game-sub001/internal/shared/metrics"
)

func main() {
	cfg := config.Load()
	if cfg.ServiceName == "" {
		cfg.ServiceName = "game-service"
	}

	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()
	log.Info("starting service", zap.String("env", cfg.Env))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("postgres connect", zap.Error(err))
	}
	defer pg.Close()

	redisClient, err := sharedcache.ConnectRedis(ctx, cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis connect", zap.Error(err))
	}
	defer redisClient.Close()

	writer := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicSettlementEvents)
	defer writer.Close()

	m := metrics.NewGame(prometheus.DefaultRegisterer)

	// stores
	store := ledger.NewPostgres(pg)
	chartStore := chart.NewPostgres(pg)
	resultStore := results.NewPostgres(pg)

	// events flow out through Kafka; the settlement-event-worker bridges
	// them onto the Redis channel every hub instance subscribes to
	pub := broadcast.NewKafkaPublisher(writer)

	balances := balancecache.New(log, redisClient, store, cfg.BalanceCacheTTL)
	balances.OnHit = func() { m.BalanceCacheHits.Inc() }
	balances.OnMiss = func() { m.BalanceCacheMisses.Inc() }

	proc := &settlement.Processor{
		Log:              log,
		Store:            store,
		Pub:              pub,
		Cache:            balances,
		OnSettled:        func() { m.SettlementsTotal.Inc() },
		OnError:          func(reason string) { m.SettlementErrors.WithLabelValues(reason).Inc() },
		OnReconciliation: func() { m.ReconciliationIncident.Inc() },
	}

	agg := chart.NewAggregator(log, chartStore)
	resultSvc := &results.Service{Log: log, Store: resultStore, Charts: agg, Pub: pub}

	hub := broadcast.NewHub(log, func(*http.Request) bool { return true })
	hub.OnBroadcast = func() { m.BroadcastsTotal.Inc() }
	hub.OnSendFailure = func() { m.BroadcastSendFailures.Inc() }
	broadcast.StartRedisSubscriber(ctx, log, redisClient, hub, cfg.RedisPubSubChannel)

	api := httpapi.NewServer(log, proc, store, balances, resultSvc, agg, hub, pub, balances)

	metricsSrv := metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		if err := pg.PingContext(ctx); err != nil {
			return err
		}
		return redisClient.Ping(ctx).Err()
	})
	log.Info("metrics/health listening", zap.String("addr", metricsSrv.Addr))

	apiSrv := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: api.Router(),
	}
	go func() {
		<-ctx.Done()
		_ = apiSrv.Shutdown(context.Background())
		_ = metricsSrv.Shutdown(context.Background())
	}()

	log.Info("api listening", zap.String("addr", apiSrv.Addr))
	if err := apiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal("api srv", zap.Error(err))
	}
}
