package engine

import (
	"context"
	"strings"
	"sync"
	"time"

	"log/slog"

	"github.com/Manpreetjohar10/chat-application/pkg/auth"
	"github.com/Manpreetjohar10/chat-application/pkg/metrics"
)

// Engine is the single authority over identities, room membership,
// typing state and sessions. Every operation is one critical section
// under e.mu, so no client can ever observe a half-applied transition
// (a member counted in two rooms, a name with two holders). Fan-out
// happens inside the critical section through non-blocking sinks, which
// keeps delivery order aligned with mutation order without letting a
// slow client stall the engine.
type Engine struct {
	log    *slog.Logger
	ids    IdentityStore
	resume *auth.Tokens    // nil disables resume tokens
	rec    HistoryRecorder // nil disables history
	relay  Relay           // nil disables cross-instance mirroring

	typingTTL time.Duration

	mu       sync.Mutex
	sessions map[string]*session
	rooms    *roomDirectory
	typing   *typingTracker
}

type Options struct {
	TypingTTL time.Duration // defaults to 1s
	Identity  IdentityStore // defaults to the in-memory store
	Resume    *auth.Tokens
	History   HistoryRecorder
	Relay     Relay
}

func New(log *slog.Logger, opts Options) *Engine {
	if opts.TypingTTL <= 0 {
		opts.TypingTTL = time.Second
	}
	if opts.Identity == nil {
		opts.Identity = NewMemoryIdentity()
	}
	return &Engine{
		log:       log,
		ids:       opts.Identity,
		resume:    opts.Resume,
		rec:       opts.History,
		relay:     opts.Relay,
		typingTTL: opts.TypingTTL,
		sessions:  map[string]*session{},
		rooms:     newRoomDirectory(),
		typing:    newTypingTracker(opts.TypingTTL),
	}
}

// Run sweeps expired typing entries until ctx is cancelled. Expiry is
// also checked lazily on read, so the sweep cadence is not load-bearing.
func (e *Engine) Run(ctx context.Context) {
	t := time.NewTicker(e.typingTTL)
	defer t.Stop()
	for {
		select {
		case now := <-t.C:
			e.mu.Lock()
			e.typing.Sweep(now)
			e.mu.Unlock()
		case <-ctx.Done():
			return
		}
	}
}

// Connect registers a new anonymous session for connID.
func (e *Engine) Connect(connID string, sink Sink) {
	e.mu.Lock()
	e.sessions[connID] = &session{id: connID, sink: sink}
	e.mu.Unlock()
	metrics.ConnectionsActive.Inc()
}

// ClaimIdentity binds name exclusively to connID. The result is private
// to the caller: nothing is broadcast until the session joins a room.
// A valid resume token for the same name evicts a stale holder, which
// lets a client reconnect under its old identity before the dead
// connection's cleanup lands.
func (e *Engine) ClaimIdentity(ctx context.Context, connID, name, resumeToken string) (string, error) {
	name = strings.TrimSpace(name)
	if !validUsername(name) {
		metrics.ClaimsTotal.WithLabelValues("invalid").Inc()
		return "", ErrNameInvalid
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	s := e.sessions[connID]
	if s == nil {
		return "", ErrUnclaimed
	}

	// Idempotent re-claim of the session's own name.
	if s.identified() && strings.EqualFold(s.name, name) {
		return e.issueToken(name), nil
	}

	// Acquire the new name before touching existing state: a rejected
	// claim must leave the session exactly as it was, name and room
	// intact, nothing broadcast.
	if err := e.ids.Claim(ctx, name, connID); err != nil {
		if err == ErrNameTaken && e.canTakeOver(name, resumeToken) {
			e.evictHolderLocked(ctx, name)
			if err := e.ids.Take(ctx, name, connID); err != nil {
				e.log.Error("engine.claim.take", "name", name, "err", err)
				metrics.ClaimsTotal.WithLabelValues("error").Inc()
				return "", ErrNameTaken
			}
		} else {
			if err != ErrNameTaken {
				e.log.Error("engine.claim", "name", name, "err", err)
				metrics.ClaimsTotal.WithLabelValues("error").Inc()
				return "", err
			}
			metrics.ClaimsTotal.WithLabelValues("taken").Inc()
			return "", ErrNameTaken
		}
	}

	// Changing names: the old identity comes down only now that the new
	// name is held. Both belong to this session for the rest of the
	// critical section, so no other claimer can observe a gap.
	if s.identified() {
		e.releaseLocked(ctx, s, "left")
	}

	s.name = name
	metrics.ClaimsTotal.WithLabelValues("ok").Inc()
	e.log.Debug("engine.claim", "conn", connID, "name", name)
	return e.issueToken(name), nil
}

// ReleaseIdentity leaves the current room (with its broadcasts) and then
// frees the claimed name. Never fails.
func (e *Engine) ReleaseIdentity(ctx context.Context, connID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.sessions[connID]
	if s == nil || !s.identified() {
		return
	}
	e.releaseLocked(ctx, s, "left")
}

// ListRooms sends the current room snapshot to the requesting connection.
func (e *Engine) ListRooms(connID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if s := e.sessions[connID]; s != nil {
		s.sink.Send(Event{Type: EvtRoomList, Payload: RoomListPayload{Rooms: e.rooms.Snapshot()}})
	}
}

// JoinRoom moves the session into room, leaving any previous room first.
// The leave notice, join notice and a single room-list snapshot are
// emitted from one critical section, so observers never see the member
// in two rooms or missing from both.
func (e *Engine) JoinRoom(ctx context.Context, connID, username, room string) error {
	username = strings.TrimSpace(username)
	room = strings.TrimSpace(room)
	if !validUsername(username) {
		return ErrNameInvalid
	}
	if !validRoom(room) {
		return ErrRoomInvalid
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	s := e.sessions[connID]
	if s == nil || !s.identified() {
		return ErrUnclaimed
	}
	if holder, ok := e.ids.HolderOf(ctx, username); !ok || holder != connID {
		return ErrImpersonation
	}

	if s.room == room {
		return nil // already there
	}
	if s.inRoom() {
		e.leaveLocked(ctx, s, s.room, "left")
		s.room = ""
	}

	count := e.rooms.Join(room, connID)
	s.room = room

	e.notifyRoomLocked(room, Event{Type: EvtSystem, Payload: SystemNotice{Room: room, Message: s.name + " joined", Count: count}}, "", true)
	e.broadcastRoomsLocked()
	e.log.Debug("engine.join", "conn", connID, "room", room, "count", count)
	return nil
}

// LeaveRoom removes the session from room. No-op if the session is not a
// member (idempotent).
func (e *Engine) LeaveRoom(ctx context.Context, connID, room string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.sessions[connID]
	if s == nil || s.room != room {
		return
	}
	e.leaveLocked(ctx, s, room, "left")
	s.room = ""
	e.broadcastRoomsLocked()
}

// SendMessage fans a chat message out to every member of room, sender
// included, and clears the sender's typing entry. Malformed or
// unauthorized sends are dropped silently: logged, never surfaced.
func (e *Engine) SendMessage(ctx context.Context, connID, username, room, text string) {
	text = strings.TrimSpace(text)
	if !validMessage(text) || !validRoom(room) || !validUsername(username) {
		e.log.Debug("engine.send.drop", "conn", connID, "reason", "validation")
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	s := e.sessions[connID]
	if s == nil || !e.rooms.Has(room, connID) {
		e.log.Debug("engine.send.drop", "conn", connID, "reason", "not a member")
		return
	}
	if holder, ok := e.ids.HolderOf(ctx, username); !ok || holder != connID {
		e.log.Debug("engine.send.drop", "conn", connID, "reason", "impersonation")
		return
	}

	e.typing.Clear(room, connID)

	msg := ChatMessage{Room: room, Username: s.name, Message: text, TS: time.Now().UnixMilli()}
	ev := Event{Type: EvtChatMessage, Payload: msg}
	for _, member := range e.rooms.Members(room) {
		if ms := e.sessions[member]; ms != nil {
			ms.sink.Send(ev)
		}
	}
	if e.relay != nil {
		e.relay.Publish(room, ev)
	}
	if e.rec != nil {
		e.rec.Record(msg)
	}
	metrics.MessagesTotal.Inc()
}

// SignalTyping refreshes the sender's typing entry and signals every
// other member of the room. The sender never receives its own signal.
func (e *Engine) SignalTyping(ctx context.Context, connID, username, room string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := e.sessions[connID]
	if s == nil || !e.rooms.Has(room, connID) {
		return
	}
	if holder, ok := e.ids.HolderOf(ctx, username); !ok || holder != connID {
		return
	}

	e.typing.Mark(room, connID, s.name, time.Now())

	ev := Event{Type: EvtTyping, Payload: TypingSignal{Room: room, Username: s.name}}
	e.notifyRoomLocked(room, ev, connID, true)
	metrics.TypingTotal.Inc()
}

// ActiveTypers reports who is currently typing in room, excluding the
// asking connection. Expired entries are excluded even before a sweep.
func (e *Engine) ActiveTypers(room, excludeConnID string) []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.typing.Active(room, excludeConnID, time.Now())
}

// Disconnect is the cleanup entry point for transport loss. It produces
// the same external effects as an explicit release and is idempotent: a
// second call for an already-cleaned connection is a no-op.
func (e *Engine) Disconnect(ctx context.Context, connID string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := e.sessions[connID]
	if s == nil {
		return
	}
	delete(e.sessions, connID)
	metrics.ConnectionsActive.Dec()

	if !s.identified() {
		return
	}
	e.releaseLocked(ctx, s, "disconnected")
	e.log.Debug("engine.disconnect", "conn", connID)
}

// Snapshot returns the current room list, sorted by name.
func (e *Engine) Snapshot() []RoomInfo {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rooms.Snapshot()
}

// HandleRelayed delivers an event published by another instance to the
// local members of room.
func (e *Engine) HandleRelayed(room string, ev Event) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, member := range e.rooms.Members(room) {
		if ms := e.sessions[member]; ms != nil {
			ms.sink.Send(ev)
		}
	}
}

// releaseLocked leaves the current room if any, frees the name, and
// broadcasts the updated room list. Caller holds e.mu.
func (e *Engine) releaseLocked(ctx context.Context, s *session, verb string) {
	hadRoom := s.inRoom()
	if hadRoom {
		e.leaveLocked(ctx, s, s.room, verb)
		s.room = ""
	}
	e.ids.Release(ctx, s.name, s.id)
	s.name = ""
	if hadRoom {
		e.broadcastRoomsLocked()
	}
}

// leaveLocked removes s from room, clears its typing entry and notifies
// the remaining members. Tolerates already-cleaned state. Caller holds
// e.mu and updates s.room / the room snapshot broadcast itself.
func (e *Engine) leaveLocked(_ context.Context, s *session, room, verb string) {
	e.typing.Clear(room, s.id)
	count, ok := e.rooms.Leave(room, s.id)
	if !ok {
		return
	}
	e.notifyRoomLocked(room, Event{Type: EvtSystem, Payload: SystemNotice{Room: room, Message: s.name + " " + verb, Count: count}}, "", true)
}

// notifyRoomLocked sends ev to every member of room except excludeConnID
// ("" excludes nobody), optionally mirroring it to other instances.
// Caller holds e.mu.
func (e *Engine) notifyRoomLocked(room string, ev Event, excludeConnID string, mirror bool) {
	for _, member := range e.rooms.Members(room) {
		if member == excludeConnID {
			continue
		}
		if ms := e.sessions[member]; ms != nil {
			ms.sink.Send(ev)
		}
	}
	if mirror && e.relay != nil {
		e.relay.Publish(room, ev)
	}
}

// broadcastRoomsLocked sends the sorted room snapshot to every live
// connection. Caller holds e.mu.
func (e *Engine) broadcastRoomsLocked() {
	ev := Event{Type: EvtRoomList, Payload: RoomListPayload{Rooms: e.rooms.Snapshot()}}
	for _, s := range e.sessions {
		s.sink.Send(ev)
	}
	metrics.RoomsActive.Set(float64(e.rooms.Len()))
}

func (e *Engine) issueToken(name string) string {
	if e.resume == nil {
		return ""
	}
	tok, err := e.resume.Issue(name, 24*time.Hour)
	if err != nil {
		e.log.Error("engine.token.issue", "err", err)
		return ""
	}
	return tok
}

// canTakeOver reports whether resumeToken proves prior ownership of name.
func (e *Engine) canTakeOver(name, resumeToken string) bool {
	if e.resume == nil || resumeToken == "" {
		return false
	}
	owned, err := e.resume.Verify(resumeToken)
	return err == nil && strings.EqualFold(owned, name)
}

// evictHolderLocked runs disconnect-equivalent cleanup for the session
// currently holding name, leaving its connection alive but anonymous.
// The holder may live on another instance; then only the shared identity
// key is overwritten and the remote release later no-ops. Caller holds e.mu.
func (e *Engine) evictHolderLocked(ctx context.Context, name string) {
	holder, ok := e.ids.HolderOf(ctx, name)
	if !ok {
		return
	}
	s := e.sessions[holder]
	if s == nil {
		return
	}
	e.releaseLocked(ctx, s, "disconnected")
	e.log.Debug("engine.takeover", "name", name, "evicted", holder)
}
