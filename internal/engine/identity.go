package engine

import (
	"context"
	"strings"
	"sync"
)

// IdentityStore owns the exclusive mapping from claimed name to the single
// connection holding it. Names compare case-insensitively; implementations
// normalize keys with strings.ToLower. Claim must behave as an atomic
// compare-and-set: under concurrent claims of the same name exactly one
// caller commits, all others get ErrNameTaken.
type IdentityStore interface {
	// Claim registers name for connID. Claiming a name already held by
	// the same connection succeeds idempotently.
	Claim(ctx context.Context, name, connID string) error

	// Take registers name for connID unconditionally, evicting any holder.
	Take(ctx context.Context, name, connID string) error

	// Release removes the mapping only if currently held by connID.
	Release(ctx context.Context, name, connID string)

	// HolderOf returns the connection currently holding name.
	HolderOf(ctx context.Context, name string) (string, bool)
}

// memoryIdentity is the single-instance store: a mutex-protected map.
type memoryIdentity struct {
	mu      sync.Mutex
	holders map[string]string // lowercased name -> connID
}

// NewMemoryIdentity returns the in-process identity store.
func NewMemoryIdentity() IdentityStore {
	return &memoryIdentity{holders: map[string]string{}}
}

func (m *memoryIdentity) Claim(_ context.Context, name, connID string) error {
	key := strings.ToLower(name)
	m.mu.Lock()
	defer m.mu.Unlock()
	if cur, ok := m.holders[key]; ok {
		if cur == connID {
			return nil
		}
		return ErrNameTaken
	}
	m.holders[key] = connID
	return nil
}

func (m *memoryIdentity) Take(_ context.Context, name, connID string) error {
	m.mu.Lock()
	m.holders[strings.ToLower(name)] = connID
	m.mu.Unlock()
	return nil
}

func (m *memoryIdentity) Release(_ context.Context, name, connID string) {
	key := strings.ToLower(name)
	m.mu.Lock()
	if m.holders[key] == connID {
		delete(m.holders, key)
	}
	m.mu.Unlock()
}

func (m *memoryIdentity) HolderOf(_ context.Context, name string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.holders[strings.ToLower(name)]
	return id, ok
}
