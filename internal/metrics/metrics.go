// Package metrics holds the relay's Prometheus collectors.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Sentiment sources
const (
	SourceRemote   = "remote"
	SourceFallback = "fallback"
)

// Reply and upload outcomes
const (
	ResultCompleted      = "completed"
	ResultInputError     = "input_error"
	ResultUpstreamError  = "upstream_error"
	ResultTransportError = "transport_error"
)

var (
	once sync.Once

	// ActiveConnections is the number of open WebSocket connections.
	ActiveConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "chatrelay",
		Subsystem: "ws",
		Name:      "active_connections",
		Help:      "Number of currently open WebSocket connections.",
	})

	// FramesSentTotal counts outbound frames by type.
	FramesSentTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "chatrelay",
		Subsystem: "ws",
		Name:      "frames_sent_total",
		Help:      "Total number of frames written to clients, labeled by frame type.",
	}, []string{"type"})

	// RepliesTotal counts processed inbound messages by outcome.
	RepliesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "chatrelay",
		Subsystem: "ws",
		Name:      "replies_total",
		Help:      "Total number of inbound messages processed, labeled by result.",
	}, []string{"result"})

	// ReplyDurationSeconds is the time from parsing a message to its terminal frame.
	ReplyDurationSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "chatrelay",
		Subsystem: "ws",
		Name:      "reply_duration_seconds",
		Help:      "Time from receiving a message to sending its terminal frame.",
		Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20, 60, 120},
	})

	// ImageAnalysesTotal counts image uploads by outcome.
	ImageAnalysesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "chatrelay",
		Subsystem: "image",
		Name:      "analyses_total",
		Help:      "Total number of image analysis requests, labeled by result.",
	}, []string{"result"})

	// SentimentTotal counts sentiment labels by the path that produced them.
	SentimentTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "chatrelay",
		Subsystem: "sentiment",
		Name:      "labels_total",
		Help:      "Total number of sentiment labels produced, labeled by source and sentiment.",
	}, []string{"source", "sentiment"})
)

// Register registers the relay metrics with the default Prometheus registry.
// Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			ActiveConnections,
			FramesSentTotal,
			RepliesTotal,
			ReplyDurationSeconds,
			ImageAnalysesTotal,
			SentimentTotal,
		)
	})
}
