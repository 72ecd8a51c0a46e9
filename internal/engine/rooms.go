package engine

import (
	"sort"

	"github.com/samber/lo"
)

// roomDirectory maps room name -> set of connection ids. It is a plain
// structure; the engine's lock guards all access.
type roomDirectory struct {
	rooms map[string]map[string]struct{}
}

func newRoomDirectory() *roomDirectory {
	return &roomDirectory{rooms: map[string]map[string]struct{}{}}
}

// Join adds connID to the room, creating it if absent, and returns the
// resulting member count.
func (d *roomDirectory) Join(room, connID string) int {
	set, ok := d.rooms[room]
	if !ok {
		set = map[string]struct{}{}
		d.rooms[room] = set
	}
	set[connID] = struct{}{}
	return len(set)
}

// Leave removes connID from the room and deletes the room when its set
// becomes empty. Reports the new count and whether the room existed.
func (d *roomDirectory) Leave(room, connID string) (int, bool) {
	set, ok := d.rooms[room]
	if !ok {
		return 0, false
	}
	delete(set, connID)
	if len(set) == 0 {
		delete(d.rooms, room)
		return 0, true
	}
	return len(set), true
}

func (d *roomDirectory) Has(room, connID string) bool {
	_, ok := d.rooms[room][connID]
	return ok
}

func (d *roomDirectory) Members(room string) []string {
	return lo.Keys(d.rooms[room])
}

func (d *roomDirectory) Count(room string) int {
	return len(d.rooms[room])
}

func (d *roomDirectory) Len() int {
	return len(d.rooms)
}

// Snapshot returns (name, count) pairs sorted by name so every client
// renders the list in the same order.
func (d *roomDirectory) Snapshot() []RoomInfo {
	out := lo.MapToSlice(d.rooms, func(name string, set map[string]struct{}) RoomInfo {
		return RoomInfo{Name: name, Count: len(set)}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
