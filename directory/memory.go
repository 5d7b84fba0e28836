package directory

import (
	"context"
	"sync"
	"time"

	"github.com/adminkit/authgate"
)

// Memory is an in-memory [authgate.Directory]. Reads return deep
// copies, so callers can mutate what they get back without corrupting
// the store.
type Memory struct {
	mu     sync.RWMutex
	byID   map[int64]*authgate.Principal
	byName map[string]int64
}

// NewMemory returns an empty store.
func NewMemory() *Memory {
	return &Memory{
		byID:   make(map[int64]*authgate.Principal),
		byName: make(map[string]int64),
	}
}

// Add inserts or replaces a principal.
func (m *Memory) Add(p authgate.Principal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := clonePrincipal(&p)
	m.byID[p.ID] = stored
	m.byName[p.Username] = p.ID
}

// FindByUsername implements [authgate.Directory].
func (m *Memory) FindByUsername(_ context.Context, username string) (*authgate.Principal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.byName[username]
	if !ok {
		return nil, authgate.ErrPrincipalNotFound
	}
	return clonePrincipal(m.byID[id]), nil
}

// FindByID implements [authgate.Directory].
func (m *Memory) FindByID(_ context.Context, id int64) (*authgate.Principal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.byID[id]
	if !ok {
		return nil, authgate.ErrPrincipalNotFound
	}
	return clonePrincipal(p), nil
}

// SetLockUntil implements [authgate.Directory].
func (m *Memory) SetLockUntil(_ context.Context, id int64, until time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byID[id]
	if !ok {
		return authgate.ErrPrincipalNotFound
	}
	u := until
	p.LockedUntil = &u
	return nil
}

// ClearLockUntil implements [authgate.Directory].
func (m *Memory) ClearLockUntil(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byID[id]
	if !ok {
		return authgate.ErrPrincipalNotFound
	}
	p.LockedUntil = nil
	return nil
}

func clonePrincipal(p *authgate.Principal) *authgate.Principal {
	out := *p
	if p.LockedUntil != nil {
		u := *p.LockedUntil
		out.LockedUntil = &u
	}
	if p.Roles != nil {
		out.Roles = make([]authgate.Role, len(p.Roles))
		copy(out.Roles, p.Roles)
	}
	if p.Attributes != nil {
		out.Attributes = make(map[string]any, len(p.Attributes))
		for k, v := range p.Attributes {
			out.Attributes[k] = v
		}
	}
	return &out
}
