// Package observability registers the service's Prometheus collectors and
// exposes small helpers so the hot paths never touch the prometheus API
// directly.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	wsActiveConnections = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "chat_ws_active_connections",
			Help: "Number of currently open WebSocket connections by session kind.",
		},
		[]string{"kind"},
	)

	wsEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_ws_events_total",
			Help: "Total WebSocket events processed by session kind and event name.",
		},
		[]string{"kind", "event"},
	)

	notificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_notifications_total",
			Help: "Total notifications persisted by kind.",
		},
		[]string{"kind"},
	)
)

// IncWSActive records one new open connection of the given kind
// (room, admin, notify).
func IncWSActive(kind string) {
	wsActiveConnections.WithLabelValues(kind).Inc()
}

// DecWSActive records one closed connection of the given kind.
func DecWSActive(kind string) {
	wsActiveConnections.WithLabelValues(kind).Dec()
}

// IncWSEvent counts one processed inbound event.
func IncWSEvent(kind, event string) {
	wsEventsTotal.WithLabelValues(kind, event).Inc()
}

// IncNotification counts one persisted notification.
func IncNotification(kind string) {
	notificationsTotal.WithLabelValues(kind).Inc()
}
