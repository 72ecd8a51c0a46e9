package engine

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRoomDirectory_JoinLeaveCounts(t *testing.T) {
	req := require.New(t)
	d := newRoomDirectory()

	req.Equal(1, d.Join("lobby", "a"))
	req.Equal(2, d.Join("lobby", "b"))
	req.True(d.Has("lobby", "a"))

	count, ok := d.Leave("lobby", "a")
	req.True(ok)
	req.Equal(1, count)
	req.False(d.Has("lobby", "a"))

	// Leaving the last member removes the room entirely
	count, ok = d.Leave("lobby", "b")
	req.True(ok)
	req.Equal(0, count)
	req.Equal(0, d.Len())

	// Leaving a room that no longer exists reports absence
	_, ok = d.Leave("lobby", "b")
	req.False(ok)
}

func TestRoomDirectory_SnapshotSortedByName(t *testing.T) {
	req := require.New(t)
	d := newRoomDirectory()

	d.Join("zebra", "a")
	d.Join("alpha", "b")
	d.Join("alpha", "c")
	d.Join("mid", "d")

	snap := d.Snapshot()
	req.Equal([]RoomInfo{
		{Name: "alpha", Count: 2},
		{Name: "mid", Count: 1},
		{Name: "zebra", Count: 1},
	}, snap)
}

func TestRoomDirectory_MembersAndCount(t *testing.T) {
	req := require.New(t)
	d := newRoomDirectory()

	d.Join("lobby", "a")
	d.Join("lobby", "b")

	req.ElementsMatch([]string{"a", "b"}, d.Members("lobby"))
	req.Equal(2, d.Count("lobby"))
	req.Empty(d.Members("nowhere"))
}
