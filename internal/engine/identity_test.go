package engine

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemoryIdentity_ClaimAndRelease(t *testing.T) {
	req := require.New(t)
	ids := NewMemoryIdentity()
	ctx := context.Background()

	// Given a free name, the first claim wins
	req.NoError(ids.Claim(ctx, "alice", "conn-1"))

	// Re-claiming your own name succeeds idempotently
	req.NoError(ids.Claim(ctx, "alice", "conn-1"))

	// A different connection observes the conflict
	req.ErrorIs(ids.Claim(ctx, "alice", "conn-2"), ErrNameTaken)

	holder, ok := ids.HolderOf(ctx, "alice")
	req.True(ok)
	req.Equal("conn-1", holder)

	// Release by a non-holder is a no-op
	ids.Release(ctx, "alice", "conn-2")
	_, ok = ids.HolderOf(ctx, "alice")
	req.True(ok)

	// Release by the holder frees the name
	ids.Release(ctx, "alice", "conn-1")
	_, ok = ids.HolderOf(ctx, "alice")
	req.False(ok)
	req.NoError(ids.Claim(ctx, "alice", "conn-2"))
}

func TestMemoryIdentity_CaseInsensitive(t *testing.T) {
	req := require.New(t)
	ids := NewMemoryIdentity()
	ctx := context.Background()

	req.NoError(ids.Claim(ctx, "Alice", "conn-1"))
	req.ErrorIs(ids.Claim(ctx, "ALICE", "conn-2"), ErrNameTaken)

	holder, ok := ids.HolderOf(ctx, "alice")
	req.True(ok)
	req.Equal("conn-1", holder)
}

func TestMemoryIdentity_Take(t *testing.T) {
	req := require.New(t)
	ids := NewMemoryIdentity()
	ctx := context.Background()

	req.NoError(ids.Claim(ctx, "alice", "conn-1"))
	req.NoError(ids.Take(ctx, "alice", "conn-2"))

	holder, _ := ids.HolderOf(ctx, "alice")
	req.Equal("conn-2", holder)

	// The evicted connection's late release must not free the name
	ids.Release(ctx, "alice", "conn-1")
	holder, ok := ids.HolderOf(ctx, "alice")
	req.True(ok)
	req.Equal("conn-2", holder)
}

func TestMemoryIdentity_ConcurrentClaimsSingleWinner(t *testing.T) {
	req := require.New(t)
	ids := NewMemoryIdentity()
	ctx := context.Background()

	const claimers = 64
	var wg sync.WaitGroup
	errs := make([]error, claimers)

	for i := 0; i < claimers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = ids.Claim(ctx, "alice", fmt.Sprintf("conn-%d", i))
		}(i)
	}
	wg.Wait()

	winners := 0
	var winner string
	for i, err := range errs {
		if err == nil {
			winners++
			winner = fmt.Sprintf("conn-%d", i)
		} else {
			req.ErrorIs(err, ErrNameTaken)
		}
	}
	req.Equal(1, winners)

	holder, ok := ids.HolderOf(ctx, "alice")
	req.True(ok)
	req.Equal(winner, holder)
}
