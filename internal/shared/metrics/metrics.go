package metrics

import "github.com/prometheus/client_golang/prometheus"

// Game holds the core domain counters, registered once in main and handed to
// whichever component needs them.
type Game struct {
	SettlementsTotal       prometheus.Counter
	SettlementErrors       *prometheus.CounterVec
	BroadcastsTotal        prometheus.Counter
	BroadcastSendFailures  prometheus.Counter
	BalanceCacheHits       prometheus.Counter
	BalanceCacheMisses     prometheus.Counter
	ReconciliationIncident prometheus.Counter
}

func NewGame(reg prometheus.Registerer) *Game {
	g := &Game{
		SettlementsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "game_settlements_total", Help: "settled bets"}),
		SettlementErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "game_settlement_errors_total", Help: "settlement errors by reason"},
			[]string{"reason"}),
		BroadcastsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "game_broadcasts_total", Help: "events broadcast to observers"}),
		BroadcastSendFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "game_broadcast_send_failures_total", Help: "observer writes skipped"}),
		BalanceCacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "game_balance_cache_hits_total", Help: "balance cache hits"}),
		BalanceCacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "game_balance_cache_misses_total", Help: "balance cache misses"}),
		ReconciliationIncident: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "game_reconciliation_incidents_total", Help: "debits without complete wager rows"}),
	}
	reg.MustRegister(
		g.SettlementsTotal, g.SettlementErrors,
		g.BroadcastsTotal, g.BroadcastSendFailures,
		g.BalanceCacheHits, g.BalanceCacheMisses,
		g.ReconciliationIncident,
	)
	return g
}
