package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// Which path produced each demand forecast
	ForecastStrategyTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "agent_forecast_strategy_total",
		Help: "Demand forecasts by strategy (seasonal_model, simple_average)",
	}, []string{"strategy"})

	// Which path scored each supplier ranking
	RankingStrategyTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "agent_ranking_strategy_total",
		Help: "Supplier rankings by strategy (learned_model, rule_based)",
	}, []string{"strategy"})

	CycleDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "agent_cycle_duration_seconds",
		Help:    "Duration of decision cycles by trigger",
		Buckets: prometheus.DefBuckets,
	}, []string{"trigger"})

	// Total number of runs requested over HTTP
	RunRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "agent_run_requests_total",
		Help: "Total number of agent run requests by trigger and status",
	}, []string{"trigger", "status"})
)

func Init() {
	prometheus.MustRegister(
		ForecastStrategyTotal,
		RankingStrategyTotal,
		CycleDuration,
		RunRequests,
	)
}
