package engine

// Outbound event types, mirroring the wire protocol.
const (
	EvtRoomList    = "rooms:update"
	EvtSystem      = "room:system"
	EvtChatMessage = "chat:message"
	EvtTyping      = "chat:typing"
	EvtClaimResult = "auth:result"
	EvtJoinResult  = "room:result"
	EvtHistory     = "chat:history"
)

// Event is one outbound frame: a type tag plus its payload.
type Event struct {
	Type    string
	Payload any
}

// Sink delivers events to a single connection. Implementations must not
// block; the engine calls Send while holding its lock.
type Sink interface {
	Send(ev Event)
}

type RoomInfo struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type RoomListPayload struct {
	Rooms []RoomInfo `json:"rooms"`
}

type SystemNotice struct {
	Room    string `json:"room"`
	Message string `json:"message"`
	Count   int    `json:"count"`
}

type ChatMessage struct {
	Room     string `json:"room"`
	Username string `json:"username"`
	Message  string `json:"message"`
	TS       int64  `json:"ts"` // unix millis
}

type TypingSignal struct {
	Room     string `json:"room"`
	Username string `json:"username"`
}

type ClaimResult struct {
	OK          bool   `json:"ok"`
	Error       string `json:"error,omitempty"`
	ResumeToken string `json:"resumeToken,omitempty"`
}

type JoinResult struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

type HistoryPayload struct {
	Room     string        `json:"room"`
	Messages []ChatMessage `json:"messages"`
}

// HistoryRecorder receives committed chat messages for archival.
// Record must not block; implementations queue internally.
type HistoryRecorder interface {
	Record(msg ChatMessage)
}

// Relay mirrors room-scoped events to other instances. Publish must not
// block; implementations queue internally.
type Relay interface {
	Publish(room string, ev Event)
}
