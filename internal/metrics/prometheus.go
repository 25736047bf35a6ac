package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const promNamespace = "perp_trade_panel"

type promCounter struct {
	counter prometheus.Counter
}

func (p promCounter) Inc() {
	p.counter.Inc()
}

type Prometheus struct {
	Metrics *Metrics

	registry *prometheus.Registry
}

func NewPrometheus() *Prometheus {
	registry := prometheus.NewRegistry()
	ordersSubmitted := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: promNamespace,
		Name:      "orders_submitted_total",
		Help:      "Total number of orders submitted to the venue.",
	})
	ordersConfirmed := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: promNamespace,
		Name:      "orders_confirmed_total",
		Help:      "Total number of submitted orders confirmed on chain.",
	})
	ordersFailed := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: promNamespace,
		Name:      "orders_failed_total",
		Help:      "Total number of submission or confirmation failures.",
	})
	preflightRejected := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: promNamespace,
		Name:      "preflight_rejected_total",
		Help:      "Total number of submissions rejected before any network call.",
	})
	sessionsInitialized := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: promNamespace,
		Name:      "sessions_initialized_total",
		Help:      "Total number of sessions that reached the ready state.",
	})
	teardownErrors := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: promNamespace,
		Name:      "teardown_errors_total",
		Help:      "Total number of swallowed unsubscribe failures during teardown.",
	})

	registry.MustRegister(ordersSubmitted, ordersConfirmed, ordersFailed, preflightRejected, sessionsInitialized, teardownErrors)

	m := &Metrics{
		OrdersSubmitted:     promCounter{ordersSubmitted},
		OrdersConfirmed:     promCounter{ordersConfirmed},
		OrdersFailed:        promCounter{ordersFailed},
		PreflightRejected:   promCounter{preflightRejected},
		SessionsInitialized: promCounter{sessionsInitialized},
		TeardownErrors:      promCounter{teardownErrors},
	}

	return &Prometheus{Metrics: m, registry: registry}
}

func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}
