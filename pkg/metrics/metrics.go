package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "chat_connections_active",
		Help: "Live websocket connections.",
	})
	RoomsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "chat_rooms_active",
		Help: "Rooms with at least one member.",
	})
	MessagesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chat_messages_total",
		Help: "Chat messages fanned out.",
	})
	TypingTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chat_typing_total",
		Help: "Typing signals fanned out.",
	})
	ClaimsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chat_claims_total",
		Help: "Username claims by result.",
	}, []string{"result"})
)

// Handler exposes Prometheus metrics at /metrics
func Handler() http.Handler {
	return promhttp.Handler()
}
