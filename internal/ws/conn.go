package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"log/slog"

	"nhooyr.io/websocket"

	"github.com/Manpreetjohar10/chat-application/internal/engine"
)

// frame is the wire envelope for both directions: a type tag plus the
// event payload.
type frame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type Conn struct {
	id  string
	ws  *websocket.Conn
	out chan []byte
	log *slog.Logger
}

// Accept upgrades HTTP to websocket (allow all origins)
func Accept(w http.ResponseWriter, r *http.Request) (*websocket.Conn, error) {
	return websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns:  []string{"*"},
		CompressionMode: websocket.CompressionDisabled,
	})
}

// NewConn wraps a WS connection under its engine-facing connection id
func NewConn(id string, ws *websocket.Conn, log *slog.Logger) *Conn {
	return &Conn{
		id:  id,
		ws:  ws,
		out: make(chan []byte, 256),
		log: log,
	}
}

func (c *Conn) ID() string { return c.id }

// Send marshals an engine event into a frame and queues it without
// blocking; the frame is dropped if the send buffer is full. Implements
// engine.Sink.
func (c *Conn) Send(ev engine.Event) {
	payload, err := json.Marshal(ev.Payload)
	if err != nil {
		c.log.Error("ws.send.marshal", "type", ev.Type, "err", err)
		return
	}
	b, err := json.Marshal(frame{Type: ev.Type, Payload: payload})
	if err != nil {
		return
	}
	select {
	case c.out <- b:
	default:
		c.log.Debug("ws.send.drop", "conn", c.id, "type", ev.Type)
	}
}

// Read blocks until it receives a text/binary message
// Returns false if connection is closed
func (c *Conn) Read(ctx context.Context) (frame, bool) {
	for {
		typ, data, err := c.ws.Read(ctx)
		if err != nil {
			return frame{}, false
		}
		if typ != websocket.MessageText && typ != websocket.MessageBinary {
			continue
		}
		var f frame
		if err := json.Unmarshal(data, &f); err != nil || f.Type == "" {
			c.log.Debug("ws.read.badframe", "conn", c.id)
			continue
		}
		return f, true
	}
}

// WriteLoop sends outbound messages + periodic pings
// Exits when ctx is cancelled
func (c *Conn) WriteLoop(ctx context.Context) {
	p := 20 * time.Second
	t := time.NewTicker(p)
	defer t.Stop()

	for {
		select {
		case b := <-c.out:
			_ = c.ws.Write(ctx, websocket.MessageText, b)
		case <-t.C:
			_ = c.ws.Ping(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// Close closes the WS connection normally
func (c *Conn) Close() error { return c.ws.Close(websocket.StatusNormalClosure, "bye") }
