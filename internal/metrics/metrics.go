package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	SessionsCreated prometheus.Counter
	SessionsActive  prometheus.Gauge
	TurnsTotal      prometheus.Counter
	TurnFailures    prometheus.Counter
	TokensStreamed  prometheus.Counter
}

var (
	once   sync.Once
	global *Metrics
)

func Global() *Metrics {
	once.Do(func() {
		global = &Metrics{
			SessionsCreated: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "sqlchat",
				Name:      "sessions_created_total",
				Help:      "Total chat sessions created",
			}),
			SessionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "sqlchat",
				Name:      "sessions_active",
				Help:      "Currently live chat sessions",
			}),
			TurnsTotal: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "sqlchat",
				Name:      "turns_total",
				Help:      "Total chat turns started",
			}),
			TurnFailures: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "sqlchat",
				Name:      "turn_failures_total",
				Help:      "Total chat turns that ended with an error message",
			}),
			TokensStreamed: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "sqlchat",
				Name:      "tokens_streamed_total",
				Help:      "Total answer chunks streamed to clients",
			}),
		}
		prometheus.MustRegister(
			global.SessionsCreated,
			global.SessionsActive,
			global.TurnsTotal,
			global.TurnFailures,
			global.TokensStreamed,
		)
	})
	return global
}
