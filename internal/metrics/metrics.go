package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messaging_http_requests_total",
			Help: "HTTP requests by method, route and status code.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "messaging_http_request_duration_seconds",
			Help:    "HTTP request latency by method and route.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	MessagesPersisted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "messaging_messages_persisted_total",
			Help: "Messages durably appended to the log.",
		},
	)

	StatusUpdates = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "messaging_status_updates_total",
			Help: "Applied message status transitions, including bulk reads.",
		},
	)

	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messaging_events_published_total",
			Help: "Events fanned out to room subscribers, by event type.",
		},
		[]string{"type"},
	)

	SubscribersDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "messaging_subscribers_dropped_total",
			Help: "Subscribers dropped because their outbound queue overflowed.",
		},
	)

	RoomSubscribers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "messaging_room_subscribers",
			Help: "Currently connected room subscribers.",
		},
	)
)
