package httpx

import (
	"net/http"

	"log/slog"

	"github.com/Manpreetjohar10/chat-application/internal/app"
	"github.com/Manpreetjohar10/chat-application/internal/engine"
	"github.com/Manpreetjohar10/chat-application/internal/ws"
	"github.com/Manpreetjohar10/chat-application/pkg/metrics"
)

// NewRouter wires up all HTTP routes, middleware, and handlers
func NewRouter(cfg app.Config, logger *slog.Logger, hub *ws.Hub, eng *engine.Engine) http.Handler {
	mw := NewMiddleware(cfg)
	api := &RoomsAPI{Engine: eng}

	mux := http.NewServeMux()

	// Health / readiness / metrics
	mux.Handle("/healthz", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(200) }))
	mux.Handle("/readyz", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(200) }))
	mux.Handle("/metrics", metrics.Handler())

	// WebSocket endpoint
	mux.Handle("/ws", http.HandlerFunc(hub.ServeWS))

	// Room snapshot for plain HTTP clients
	mux.Handle("GET /api/rooms", http.HandlerFunc(api.List))

	// CORS + rate limit applied globally
	return mw.Wrap(mux)
}
