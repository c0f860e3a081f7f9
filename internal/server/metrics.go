package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the backend's Prometheus collectors on a private registry.
type Metrics struct {
	registry        *prometheus.Registry
	requests        *prometheus.CounterVec
	duration        *prometheus.HistogramVec
	cardMutations   *prometheus.CounterVec
	generations     *prometheus.CounterVec
	documents       *prometheus.CounterVec
	wsSubscriptions prometheus.Gauge
}

// NewMetrics registers the collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "studyhall",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status.",
		}, []string{"route", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "studyhall",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		cardMutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "studyhall",
			Name:      "card_mutations_total",
			Help:      "Card star and review mutations by kind.",
		}, []string{"kind"}),
		generations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "studyhall",
			Name:      "llm_generations_total",
			Help:      "LLM generation requests by kind and outcome.",
		}, []string{"kind", "outcome"}),
		documents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "studyhall",
			Name:      "documents_processed_total",
			Help:      "Documents that finished processing by status.",
		}, []string{"status"}),
		wsSubscriptions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "studyhall",
			Name:      "status_stream_subscribers",
			Help:      "Open document status websocket connections.",
		}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests, m.duration, m.cardMutations, m.generations, m.documents, m.wsSubscriptions,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// DocumentProcessed counts a finished document.
func (m *Metrics) DocumentProcessed(status string) {
	if m == nil {
		return
	}
	m.documents.WithLabelValues(status).Inc()
}

func (m *Metrics) observe(route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.requests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	m.duration.WithLabelValues(route).Observe(elapsed.Seconds())
}

func (m *Metrics) cardMutation(kind string) {
	if m == nil {
		return
	}
	m.cardMutations.WithLabelValues(kind).Inc()
}

func (m *Metrics) generation(kind string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.generations.WithLabelValues(kind, outcome).Inc()
}

func (m *Metrics) subscribers(delta float64) {
	if m == nil {
		return
	}
	m.wsSubscriptions.Add(delta)
}
