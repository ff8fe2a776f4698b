package metrics

import "github.com/prometheus/client_golang/prometheus"

// ConversationMetrics exposes counters/histograms for chat turns.
type ConversationMetrics struct {
	turnsTotal      *prometheus.CounterVec
	turnLatency     prometheus.Histogram
	responderTotal  *prometheus.CounterVec
	failoverTotal   prometheus.Counter
	tokensTotal     *prometheus.CounterVec
	customerWrites  *prometheus.CounterVec
	productsMatched prometheus.Histogram
}

func NewConversationMetrics(reg prometheus.Registerer) *ConversationMetrics {
	m := &ConversationMetrics{
		turnsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: "conversation",
			Name:      "turns_total",
			Help:      "Total chat turns processed",
		}, []string{"outcome"}),
		turnLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "storefront",
			Subsystem: "conversation",
			Name:      "turn_latency_seconds",
			Help:      "Latency of a full chat turn",
			Buckets:   prometheus.DefBuckets,
		}),
		responderTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: "responder",
			Name:      "calls_total",
			Help:      "Total model calls by model and status",
		}, []string{"model", "status"}),
		failoverTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: "responder",
			Name:      "failover_total",
			Help:      "Total failovers to the next configured model",
		}),
		tokensTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: "responder",
			Name:      "tokens_total",
			Help:      "Model tokens consumed by model and direction",
		}, []string{"model", "direction"}),
		customerWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: "customers",
			Name:      "writes_total",
			Help:      "Customer record persistence attempts by operation and status",
		}, []string{"op", "status"}),
		productsMatched: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "storefront",
			Subsystem: "products",
			Name:      "matched",
			Help:      "Number of products matched per turn",
			Buckets:   []float64{0, 1, 2, 3, 5, 10},
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.turnsTotal, m.turnLatency, m.responderTotal, m.failoverTotal, m.tokensTotal, m.customerWrites, m.productsMatched)
	return m
}

// ObserveTurn records one finished turn. degraded turns are counted separately.
func (m *ConversationMetrics) ObserveTurn(degraded bool, seconds float64) {
	if m == nil {
		return
	}
	outcome := "ok"
	if degraded {
		outcome = "degraded"
	}
	m.turnsTotal.WithLabelValues(outcome).Inc()
	m.turnLatency.Observe(seconds)
}

func (m *ConversationMetrics) ObserveModelCall(model string, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.responderTotal.WithLabelValues(model, status).Inc()
}

func (m *ConversationMetrics) ObserveFailover() {
	if m == nil {
		return
	}
	m.failoverTotal.Inc()
}

// ObserveTokens adds the token counts a provider reported for one call.
func (m *ConversationMetrics) ObserveTokens(model string, input, output int32) {
	if m == nil {
		return
	}
	if input > 0 {
		m.tokensTotal.WithLabelValues(model, "input").Add(float64(input))
	}
	if output > 0 {
		m.tokensTotal.WithLabelValues(model, "output").Add(float64(output))
	}
}

func (m *ConversationMetrics) ObserveCustomerWrite(op string, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.customerWrites.WithLabelValues(op, status).Inc()
}

func (m *ConversationMetrics) ObserveProductsMatched(n int) {
	if m == nil {
		return
	}
	m.productsMatched.Observe(float64(n))
}

// RegisterActiveConnections exports count as the number of open chat
// WebSockets. count is read on every scrape.
func RegisterActiveConnections(reg prometheus.Registerer, count func() int) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "storefront",
		Subsystem: "webchat",
		Name:      "active_connections",
		Help:      "Open chat WebSocket connections",
	}, func() float64 { return float64(count()) }))
}
