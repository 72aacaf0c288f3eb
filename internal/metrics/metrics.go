package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "streamhub_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "streamhub_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "route"},
	)

	RateLimitHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "streamhub_rate_limit_hits_total",
			Help: "Requests rejected by the rate limiter",
		},
	)

	// Engagement
	VideoViews = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "streamhub_video_views_total",
			Help: "Video views recorded",
		},
	)

	Reactions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "streamhub_reactions_total",
			Help: "Reaction toggles",
		},
		[]string{"kind"},
	)

	// Chat
	MessagesPosted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "streamhub_messages_posted_total",
			Help: "Chat messages persisted",
		},
	)

	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "streamhub_ws_connections",
			Help: "Open websocket connections",
		},
	)

	ActiveRooms = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "streamhub_ws_active_rooms",
			Help: "Rooms with at least one local member",
		},
	)

	BroadcastDrops = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "streamhub_ws_broadcast_drops_total",
			Help: "Frames dropped because a client's send queue was full",
		},
	)

	RelayMessages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "streamhub_relay_messages_total",
			Help: "Frames exchanged with other instances over the relay",
		},
		[]string{"direction"},
	)
)
