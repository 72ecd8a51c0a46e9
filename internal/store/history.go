package store

import (
	"context"
	"time"

	"log/slog"

	"github.com/Manpreetjohar10/chat-application/internal/engine"
)

// History keeps a bounded recent message window per room. Writes go
// through a buffered queue drained by Run, so the engine's hot path only
// pays for a channel send; when the queue is full the message is dropped
// rather than stalling fan-out. Retention beyond the window is pruned
// after each insert.
type History struct {
	pg    *Postgres
	log   *slog.Logger
	limit int
	queue chan engine.ChatMessage
}

func NewHistory(pg *Postgres, log *slog.Logger, limit int) *History {
	if limit <= 0 {
		limit = 50
	}
	return &History{pg: pg, log: log, limit: limit, queue: make(chan engine.ChatMessage, 512)}
}

// Record queues a committed message for archival without blocking.
func (h *History) Record(msg engine.ChatMessage) {
	select {
	case h.queue <- msg:
	default:
		h.log.Warn("history.queue.full", "room", msg.Room)
	}
}

// Run drains the write queue until ctx is cancelled.
func (h *History) Run(ctx context.Context) {
	for {
		select {
		case msg := <-h.queue:
			if err := h.store(ctx, msg); err != nil {
				h.log.Error("history.store", "room", msg.Room, "err", err)
			}
		case <-ctx.Done():
			return
		}
	}
}

func (h *History) store(ctx context.Context, msg engine.ChatMessage) error {
	_, err := h.pg.pool.Exec(ctx, `
		INSERT INTO messages (room, username, body, sent_at)
		VALUES ($1, $2, $3, $4)
	`, msg.Room, msg.Username, msg.Message, time.UnixMilli(msg.TS))
	if err != nil {
		return err
	}

	// Keep only the most recent window for the room
	_, err = h.pg.pool.Exec(ctx, `
		DELETE FROM messages
		WHERE room = $1 AND id < (
			SELECT COALESCE(MIN(id), 0) FROM (
				SELECT id FROM messages WHERE room = $1 ORDER BY id DESC LIMIT $2
			) keep
		)
	`, msg.Room, h.limit)
	return err
}

// Recent returns the room's window, oldest first, ready to replay to a
// joining client.
func (h *History) Recent(ctx context.Context, room string) ([]engine.ChatMessage, error) {
	rows, err := h.pg.pool.Query(ctx, `
		SELECT room, username, body, sent_at
		FROM messages
		WHERE room = $1
		ORDER BY id DESC
		LIMIT $2
	`, room, h.limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []engine.ChatMessage
	for rows.Next() {
		var m engine.ChatMessage
		var at time.Time
		if err := rows.Scan(&m.Room, &m.Username, &m.Message, &at); err != nil {
			return nil, err
		}
		m.TS = at.UnixMilli()
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Reverse into chronological order
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}
