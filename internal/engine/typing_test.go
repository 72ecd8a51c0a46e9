package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTypingTracker_ActiveExcludesSelf(t *testing.T) {
	req := require.New(t)
	tr := newTypingTracker(time.Second)
	now := time.Now()

	tr.Mark("lobby", "conn-a", "alice", now)
	tr.Mark("lobby", "conn-b", "bob", now)

	req.ElementsMatch([]string{"bob"}, tr.Active("lobby", "conn-a", now))
	req.ElementsMatch([]string{"alice", "bob"}, tr.Active("lobby", "", now))
}

func TestTypingTracker_ExpiryIsLazy(t *testing.T) {
	req := require.New(t)
	tr := newTypingTracker(time.Second)
	now := time.Now()

	tr.Mark("lobby", "conn-a", "alice", now)

	// Still active just inside the window
	req.Len(tr.Active("lobby", "", now.Add(900*time.Millisecond)), 1)

	// Excluded past the deadline even though no sweep ran
	req.Empty(tr.Active("lobby", "", now.Add(1100*time.Millisecond)))
}

func TestTypingTracker_MarkRefreshesDeadline(t *testing.T) {
	req := require.New(t)
	tr := newTypingTracker(time.Second)
	now := time.Now()

	tr.Mark("lobby", "conn-a", "alice", now)
	tr.Mark("lobby", "conn-a", "alice", now.Add(800*time.Millisecond))

	req.Len(tr.Active("lobby", "", now.Add(1500*time.Millisecond)), 1)
}

func TestTypingTracker_ClearAndSweep(t *testing.T) {
	req := require.New(t)
	tr := newTypingTracker(time.Second)
	now := time.Now()

	tr.Mark("lobby", "conn-a", "alice", now)
	tr.Clear("lobby", "conn-a")
	req.Empty(tr.Active("lobby", "", now))
	req.Empty(tr.rooms)

	tr.Mark("lobby", "conn-a", "alice", now)
	tr.Mark("games", "conn-b", "bob", now.Add(2*time.Second))
	tr.Sweep(now.Add(1500 * time.Millisecond))

	req.Empty(tr.Active("lobby", "", now))
	req.Len(tr.Active("games", "", now.Add(2*time.Second)), 1)
}
