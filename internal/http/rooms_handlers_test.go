package httpx

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"log/slog"

	"github.com/stretchr/testify/require"

	"github.com/Manpreetjohar10/chat-application/internal/app"
	"github.com/Manpreetjohar10/chat-application/internal/engine"
	"github.com/Manpreetjohar10/chat-application/internal/ws"
)

type nopSink struct{}

func (nopSink) Send(engine.Event) {}

func newTestRouter(t *testing.T) (http.Handler, *engine.Engine) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	eng := engine.New(logger, engine.Options{})
	hub := ws.NewHub(logger, eng, nil, nil, 0)
	cfg := app.Config{CORSAllow: []string{"*"}, HTTPRateLimit: 1000}
	return NewRouter(cfg, logger, hub, eng), eng
}

func TestHealthz(t *testing.T) {
	router, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, w.Code)
}

func TestListRooms(t *testing.T) {
	req := require.New(t)
	router, eng := newTestRouter(t)
	ctx := context.Background()

	// Empty directory renders as an empty array, not null
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/rooms", nil))
	req.Equal(http.StatusOK, w.Code)
	req.JSONEq(`[]`, w.Body.String())

	eng.Connect("conn-1", nopSink{})
	_, err := eng.ClaimIdentity(ctx, "conn-1", "alice", "")
	req.NoError(err)
	req.NoError(eng.JoinRoom(ctx, "conn-1", "alice", "lobby"))

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/rooms", nil))
	req.Equal(http.StatusOK, w.Code)

	var rooms []engine.RoomInfo
	req.NoError(json.Unmarshal(w.Body.Bytes(), &rooms))
	req.Equal([]engine.RoomInfo{{Name: "lobby", Count: 1}}, rooms)
}
