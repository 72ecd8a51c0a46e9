package httpx

import (
	"encoding/json"
	"net/http"

	"github.com/Manpreetjohar10/chat-application/internal/engine"
)

type RoomsAPI struct{ Engine *engine.Engine }

// List returns the sorted (name, count) snapshot
func (a *RoomsAPI) List(w http.ResponseWriter, _ *http.Request) {
	rooms := a.Engine.Snapshot()
	if rooms == nil {
		rooms = []engine.RoomInfo{}
	}
	writeJSON(w, rooms)
}

// send JSON with proper headers
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
