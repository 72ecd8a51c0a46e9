package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"log/slog"

	"github.com/google/uuid"

	"github.com/Manpreetjohar10/chat-application/internal/engine"
	"github.com/Manpreetjohar10/chat-application/pkg/ratelimit"
)

// Inbound payloads. Usernames ride along on room/chat requests so the
// engine can reject a forged or stale identity claim.
type claimReq struct {
	Name  string `json:"name"`
	Token string `json:"token,omitempty"`
}
type roomReq struct {
	Room     string `json:"room"`
	Username string `json:"username"`
}
type sendReq struct {
	Room     string `json:"room"`
	Username string `json:"username"`
	Message  string `json:"message"`
}

// HistoryReader serves the bounded recent window replayed to a joiner.
type HistoryReader interface {
	Recent(ctx context.Context, room string) ([]engine.ChatMessage, error)
}

// Hub accepts websocket connections, gives each a stable connection id,
// and pumps inbound frames into the engine. It guarantees the engine
// sees events in per-connection arrival order and exactly one disconnect
// per connection.
type Hub struct {
	log     *slog.Logger
	engine  *engine.Engine
	bus     *RedisBus     // nil for single-instance deployments
	history HistoryReader // nil when history is disabled
	typingL *ratelimit.Limiter
}

func NewHub(log *slog.Logger, eng *engine.Engine, bus *RedisBus, history HistoryReader, typingPerSec int) *Hub {
	if typingPerSec <= 0 {
		typingPerSec = 10
	}
	return &Hub{
		log:     log,
		engine:  eng,
		bus:     bus,
		history: history,
		typingL: ratelimit.New(typingPerSec, time.Second),
	}
}

// Run forwards bus traffic from other instances into local rooms until
// ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	if h.bus != nil {
		go h.bus.Run(ctx)
		go h.bus.Subscribe(ctx, h.engine.HandleRelayed)
	}
	<-ctx.Done()
}

// ServeWS handles a new /ws connection for its whole lifetime
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sock, err := Accept(w, r)
	if err != nil {
		h.log.Error("ws.accept", "err", err)
		return
	}

	connID := uuid.NewString()
	c := NewConn(connID, sock, h.log)
	h.engine.Connect(connID, c)
	h.log.Debug("ws.connect", "conn", connID)

	// Outbound writer
	go c.WriteLoop(ctx)

	// Inbound reader: per-connection order is preserved because this
	// loop is the only dispatcher for connID.
	for {
		f, ok := c.Read(ctx)
		if !ok {
			break
		}
		h.dispatch(ctx, c, f)
	}

	h.engine.Disconnect(context.WithoutCancel(ctx), connID)
	h.typingL.Forget(connID)
	h.log.Debug("ws.disconnect", "conn", connID)
	_ = c.Close()
}

func (h *Hub) dispatch(ctx context.Context, c *Conn, f frame) {
	switch f.Type {
	case "auth:claim":
		var req claimReq
		if err := json.Unmarshal(f.Payload, &req); err != nil {
			return
		}
		tok, err := h.engine.ClaimIdentity(ctx, c.id, req.Name, req.Token)
		if err != nil {
			c.Send(engine.Event{Type: engine.EvtClaimResult, Payload: engine.ClaimResult{OK: false, Error: err.Error()}})
			return
		}
		c.Send(engine.Event{Type: engine.EvtClaimResult, Payload: engine.ClaimResult{OK: true, ResumeToken: tok}})

	case "auth:release":
		h.engine.ReleaseIdentity(ctx, c.id)

	case "rooms:list":
		h.engine.ListRooms(c.id)

	case "room:join":
		var req roomReq
		if err := json.Unmarshal(f.Payload, &req); err != nil {
			return
		}
		if err := h.engine.JoinRoom(ctx, c.id, req.Username, req.Room); err != nil {
			c.Send(engine.Event{Type: engine.EvtJoinResult, Payload: engine.JoinResult{OK: false, Error: err.Error()}})
			return
		}
		c.Send(engine.Event{Type: engine.EvtJoinResult, Payload: engine.JoinResult{OK: true}})
		h.replayHistory(ctx, c, req.Room)

	case "room:leave":
		var req roomReq
		if err := json.Unmarshal(f.Payload, &req); err != nil {
			return
		}
		h.engine.LeaveRoom(ctx, c.id, req.Room)

	case "chat:send":
		var req sendReq
		if err := json.Unmarshal(f.Payload, &req); err != nil {
			return
		}
		h.engine.SendMessage(ctx, c.id, req.Username, req.Room, req.Message)

	case "chat:typing":
		var req roomReq
		if err := json.Unmarshal(f.Payload, &req); err != nil {
			return
		}
		if !h.typingL.Allow(c.id) {
			return
		}
		h.engine.SignalTyping(ctx, c.id, req.Username, req.Room)

	default:
		h.log.Debug("ws.dispatch.unknown", "conn", c.id, "type", f.Type)
	}
}

// replayHistory sends the room's recent window to the joiner only.
func (h *Hub) replayHistory(ctx context.Context, c *Conn, room string) {
	if h.history == nil {
		return
	}
	msgs, err := h.history.Recent(ctx, room)
	if err != nil {
		h.log.Error("ws.history", "room", room, "err", err)
		return
	}
	if len(msgs) == 0 {
		return
	}
	c.Send(engine.Event{Type: engine.EvtHistory, Payload: engine.HistoryPayload{Room: room, Messages: msgs}})
}
