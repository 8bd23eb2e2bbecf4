package auth

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

var _ Store = (*MemoryStore)(nil)

// MemoryStore implements Store in process memory. It backs tests and local
// development; the Postgres store is the production implementation.
type MemoryStore struct {
	mu         sync.RWMutex
	users      map[string]*User // keyed by id
	byUsername map[string]string
	roles      map[string]struct{}
	members    map[string]map[string]struct{} // user id -> role set
}

// NewMemoryStore constructs an empty in-memory credential store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:      make(map[string]*User),
		byUsername: make(map[string]string),
		roles:      make(map[string]struct{}),
		members:    make(map[string]map[string]struct{}),
	}
}

func (s *MemoryStore) CreateUser(_ context.Context, u *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byUsername[u.Username]; ok {
		return fmt.Errorf("%w: username %s", ErrConflict, u.Username)
	}
	stored := cloneUser(u)
	s.users[stored.ID] = stored
	s.byUsername[stored.Username] = stored.ID
	set := make(map[string]struct{}, len(stored.Roles))
	for _, r := range stored.Roles {
		set[r] = struct{}{}
	}
	s.members[stored.ID] = set
	return nil
}

func (s *MemoryStore) FindUser(_ context.Context, id string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s.withRoles(u), nil
}

func (s *MemoryStore) FindUserByUsername(_ context.Context, username string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byUsername[username]
	if !ok {
		return nil, ErrNotFound
	}
	return s.withRoles(s.users[id]), nil
}

func (s *MemoryStore) AddRole(_ context.Context, userID, role string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[userID]; !ok {
		return ErrNotFound
	}
	set := s.members[userID]
	if set == nil {
		set = make(map[string]struct{})
		s.members[userID] = set
	}
	set[role] = struct{}{}
	return nil
}

func (s *MemoryStore) EnsureRoles(_ context.Context, names []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range names {
		s.roles[n] = struct{}{}
	}
	return nil
}

// withRoles returns a copy of u with the current role memberships resolved.
// Callers must hold at least the read lock.
func (s *MemoryStore) withRoles(u *User) *User {
	out := cloneUser(u)
	set := s.members[u.ID]
	roles := make([]string, 0, len(set))
	for r := range set {
		roles = append(roles, r)
	}
	sort.Strings(roles)
	out.Roles = roles
	return out
}

func cloneUser(u *User) *User {
	out := *u
	out.Roles = append([]string(nil), u.Roles...)
	return &out
}
