package client

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the client-side Prometheus collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	apiRequests    *prometheus.CounterVec
	apiDuration    *prometheus.HistogramVec
	messagesSent   *prometheus.CounterVec
	realtimeEvents *prometheus.CounterVec
	reconnects     prometheus.Counter
}

// NewMetrics creates the collectors on a private registry
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		apiRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "crewchat_api_requests_total",
			Help: "Chat API requests by operation and result",
		}, []string{"op", "result"}),
		apiDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "crewchat_api_request_duration_seconds",
			Help:    "Chat API request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"op"}),
		messagesSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "crewchat_messages_sent_total",
			Help: "Messages sent by kind",
		}, []string{"kind"}),
		realtimeEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "crewchat_realtime_events_total",
			Help: "Realtime events received by type",
		}, []string{"type"}),
		reconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "crewchat_realtime_reconnects_total",
			Help: "Realtime feed reconnect attempts",
		}),
	}
	m.registry.MustRegister(m.apiRequests, m.apiDuration, m.messagesSent, m.realtimeEvents, m.reconnects)
	return m
}

// RecordRequest records one API round trip. result is the HTTP status code or "error".
func (m *Metrics) RecordRequest(op, result string, d time.Duration) {
	if m == nil {
		return
	}
	m.apiRequests.WithLabelValues(op, result).Inc()
	m.apiDuration.WithLabelValues(op).Observe(d.Seconds())
}

// RecordMessageSent counts a successfully sent message
func (m *Metrics) RecordMessageSent(kind string) {
	if m == nil {
		return
	}
	m.messagesSent.WithLabelValues(kind).Inc()
}

// RecordRealtimeEvent counts a received realtime event
func (m *Metrics) RecordRealtimeEvent(eventType string) {
	if m == nil {
		return
	}
	m.realtimeEvents.WithLabelValues(eventType).Inc()
}

// RecordReconnect counts a realtime reconnect attempt
func (m *Metrics) RecordReconnect() {
	if m == nil {
		return
	}
	m.reconnects.Inc()
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ServeMetrics starts an HTTP server exposing /metrics and /health on addr.
// The caller shuts it down with Close.
func ServeMetrics(addr string, m *Metrics, logger *log.Logger) (*http.Server, error) {
	if addr == "" {
		return nil, fmt.Errorf("metrics listen address is empty")
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if logger != nil {
			logger.Printf("Metrics server listening on %s (/metrics, /health)", addr)
		}
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed && logger != nil {
			logger.Printf("Metrics server error: %v", err)
		}
	}()
	return srv, nil
}
