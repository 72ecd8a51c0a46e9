package ws

import (
	"context"
	"encoding/json"

	"log/slog"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/Manpreetjohar10/chat-application/internal/engine"
)

// BusMessage carries one room-scoped event between instances. Origin
// identifies the publishing instance so subscribers can skip their own
// traffic (redis pub/sub echoes to every subscriber).
type BusMessage struct {
	Origin  string          `json:"origin"`
	Room    string          `json:"room"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// RedisBus mirrors chat messages, system notices and typing signals to
// rooms of the same name on other instances. Publish only enqueues; the
// Run goroutine does the network work off the engine's hot path.
type RedisBus struct {
	rdb    *redis.Client
	log    *slog.Logger
	origin string
	out    chan BusMessage
}

// NewRedisBus wraps an already-connected redis client
func NewRedisBus(rdb *redis.Client, log *slog.Logger) *RedisBus {
	return &RedisBus{
		rdb:    rdb,
		log:    log,
		origin: uuid.NewString(),
		out:    make(chan BusMessage, 256),
	}
}

// Publish queues an event for cross-instance delivery without blocking.
// Implements engine.Relay.
func (b *RedisBus) Publish(room string, ev engine.Event) {
	payload, err := json.Marshal(ev.Payload)
	if err != nil {
		return
	}
	select {
	case b.out <- BusMessage{Origin: b.origin, Room: room, Type: ev.Type, Payload: payload}:
	default:
		b.log.Debug("bus.publish.drop", "room", room, "type", ev.Type)
	}
}

// Run drains the publish queue until ctx is cancelled.
func (b *RedisBus) Run(ctx context.Context) {
	for {
		select {
		case m := <-b.out:
			raw, _ := json.Marshal(m)
			if err := b.rdb.Publish(ctx, channel(m.Room), raw).Err(); err != nil {
				b.log.Error("bus.publish", "room", m.Room, "err", err)
			}
		case <-ctx.Done():
			return
		}
	}
}

// Subscribe listens to all room channels and invokes fn for each message
// published by another instance.
func (b *RedisBus) Subscribe(ctx context.Context, fn func(room string, ev engine.Event)) {
	pubsub := b.rdb.PSubscribe(ctx, channel("*"))
	ch := pubsub.Channel()

	for {
		select {
		case <-ctx.Done():
			_ = pubsub.Close()
			return
		case msg := <-ch:
			var bm BusMessage
			if err := json.Unmarshal([]byte(msg.Payload), &bm); err != nil {
				continue
			}
			if bm.Origin == b.origin || bm.Room == "" {
				continue
			}
			fn(bm.Room, engine.Event{Type: bm.Type, Payload: bm.Payload})
		}
	}
}

// channel namespacing for room pub/sub
func channel(room string) string { return "room:" + room }
