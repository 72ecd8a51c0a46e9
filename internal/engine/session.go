package engine

// session binds one live connection to at most one claimed name and at
// most one room. It moves anonymous -> identified -> in-room and is torn
// down as a whole on logout or transport loss. Only the engine mutates it,
// under the engine lock.
type session struct {
	id   string // transport-assigned connection id
	name string // claimed display name, "" while anonymous
	room string // current room, "" while not joined
	sink Sink
}

func (s *session) identified() bool { return s.name != "" }
func (s *session) inRoom() bool     { return s.room != "" }
