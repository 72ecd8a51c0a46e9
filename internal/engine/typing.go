package engine

import "time"

// typingTracker holds short-lived "who is typing" hints per room. Entries
// expire after ttl; expiry is checked lazily on read, with a periodic
// sweep run by the engine as backstop. Stale entries are hints, not facts,
// so a late sweep is harmless. The engine's lock guards all access.
type typingTracker struct {
	ttl   time.Duration
	rooms map[string]map[string]typingEntry // room -> connID -> entry
}

type typingEntry struct {
	name     string
	deadline time.Time
}

func newTypingTracker(ttl time.Duration) *typingTracker {
	return &typingTracker{ttl: ttl, rooms: map[string]map[string]typingEntry{}}
}

// Mark records or refreshes the entry with a fresh deadline.
func (t *typingTracker) Mark(room, connID, name string, now time.Time) {
	entries, ok := t.rooms[room]
	if !ok {
		entries = map[string]typingEntry{}
		t.rooms[room] = entries
	}
	entries[connID] = typingEntry{name: name, deadline: now.Add(t.ttl)}
}

// Clear drops the entry, used when the message is sent or the member leaves.
func (t *typingTracker) Clear(room, connID string) {
	entries, ok := t.rooms[room]
	if !ok {
		return
	}
	delete(entries, connID)
	if len(entries) == 0 {
		delete(t.rooms, room)
	}
}

// Active returns display names with unexpired entries, excluding the
// caller's own.
func (t *typingTracker) Active(room, excludeConnID string, now time.Time) []string {
	var names []string
	for connID, e := range t.rooms[room] {
		if connID == excludeConnID || now.After(e.deadline) {
			continue
		}
		names = append(names, e.name)
	}
	return names
}

// Sweep drops every expired entry.
func (t *typingTracker) Sweep(now time.Time) {
	for room, entries := range t.rooms {
		for connID, e := range entries {
			if now.After(e.deadline) {
				delete(entries, connID)
			}
		}
		if len(entries) == 0 {
			delete(t.rooms, room)
		}
	}
}
