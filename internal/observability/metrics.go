package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RecommendationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "carpool", Name: "recommendations_total", Help: "Recommendation queries served"},
		[]string{"mode"},
	)
	RecommendationLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{Namespace: "carpool", Name: "recommendation_latency_seconds", Help: "Recommendation query latency seconds"},
		[]string{"mode"},
	)
	RecommendationResults = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "carpool",
			Name:      "recommendation_results",
			Help:      "Number of matches returned per query",
			Buckets:   []float64{0, 1, 2, 5, 10, 25, 50, 100},
		},
		[]string{"mode"},
	)
	Participants = promauto.NewGaugeVec(
		prometheus.GaugeOpts{Namespace: "carpool", Name: "participants", Help: "Participants in the pool by role at last snapshot"},
		[]string{"role"},
	)
	Disruptions = promauto.NewGauge(prometheus.GaugeOpts{Namespace: "carpool", Name: "disruptions", Help: "Disruption zones at last snapshot"})

	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "carpool", Name: "events_published_total", Help: "Pool events published"},
		[]string{"type", "result"},
	)
	PushesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "carpool", Name: "ws_pushes_total", Help: "Recommendation pushes to websocket subscribers"},
		[]string{"result"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "carpool", Name: "http_requests_total", Help: "Total HTTP requests handled"},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "carpool",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
