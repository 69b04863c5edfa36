package api

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/agentlink/agentlink/internal/chat"
	"github.com/agentlink/agentlink/internal/health"
	"github.com/agentlink/agentlink/internal/probe"
)

// Metrics holds the Prometheus collectors exported on /metrics. Observers
// are wired as subscribers on the health monitor and around chat sends.
type Metrics struct {
	registry *prometheus.Registry

	chatRequests *prometheus.CounterVec
	chatDuration prometheus.Histogram
	healthChecks *prometheus.CounterVec
	backendUp    prometheus.Gauge
	probeSuccess *prometheus.GaugeVec
}

// NewMetrics creates and registers all collectors on a private registry,
// keeping the dashboard's own Go runtime metrics out of the picture.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		chatRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "agentlink_chat_requests_total",
			Help: "Chat sends by outcome (success, or the fault kind on failure).",
		}, []string{"outcome"}),
		chatDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "agentlink_chat_request_duration_seconds",
			Help:    "Wall-clock duration of chat sends, including failures.",
			Buckets: prometheus.DefBuckets,
		}),
		healthChecks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "agentlink_health_checks_total",
			Help: "Health checks by outcome.",
		}, []string{"outcome"}),
		backendUp: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "agentlink_backend_up",
			Help: "1 when the last health check succeeded, 0 otherwise.",
		}),
		probeSuccess: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "agentlink_probe_success",
			Help: "Last probe battery outcome per path (1 pass, 0 fail).",
		}, []string{"path"}),
	}
	reg.MustRegister(m.chatRequests, m.chatDuration, m.healthChecks, m.backendUp, m.probeSuccess)
	return m
}

// Registry exposes the private registry for the /metrics handler.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// ObserveExchange records one chat send.
func (m *Metrics) ObserveExchange(ex chat.Exchange) {
	outcome := "success"
	if !ex.Result.Success {
		outcome = string(ex.Result.Kind)
	}
	m.chatRequests.WithLabelValues(outcome).Inc()
	m.chatDuration.Observe(ex.Duration.Seconds())
}

// ObserveHealth records one health observation.
func (m *Metrics) ObserveHealth(st health.Status) {
	if st.Success {
		m.healthChecks.WithLabelValues("success").Inc()
		m.backendUp.Set(1)
		return
	}
	m.healthChecks.WithLabelValues(string(st.Kind)).Inc()
	m.backendUp.Set(0)
}

// ObserveBattery records the latest probe battery results.
func (m *Metrics) ObserveBattery(b probe.Battery) {
	for _, res := range []probe.Result{b.Direct, b.Proxy, b.CORS} {
		v := 0.0
		if res.Success {
			v = 1
		}
		m.probeSuccess.WithLabelValues(string(res.Path)).Set(v)
	}
}
