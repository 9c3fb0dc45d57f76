package auth

import (
	"context"
	"strings"
	"sync"
	"time"
)

// InMemory implements Store with in-process concurrency safety. Used when no
// DSN is configured and throughout the tests.
type InMemory struct {
	mu    sync.RWMutex
	users map[string]*User
}

var _ Store = (*InMemory)(nil)

// NewInMemory creates an empty user store.
func NewInMemory() *InMemory {
	return &InMemory{users: make(map[string]*User)}
}

func (s *InMemory) Create(_ context.Context, u *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.DeletedAt == nil && strings.EqualFold(existing.Email, u.Email) {
			return ErrAlreadyExists
		}
	}
	s.users[u.ID] = cloneUser(u)
	return nil
}

func (s *InMemory) Find(_ context.Context, id string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok || u.DeletedAt != nil {
		return nil, ErrNotFound
	}
	return cloneUser(u), nil
}

func (s *InMemory) FindByEmail(_ context.Context, email string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.DeletedAt == nil && strings.EqualFold(u.Email, email) {
			return cloneUser(u), nil
		}
	}
	return nil, ErrNotFound
}

func (s *InMemory) FindByOneTimeTokenHash(_ context.Context, hash string, now time.Time) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.DeletedAt != nil || u.OneTimeTokenHash == "" {
			continue
		}
		if u.OneTimeTokenHash == hash && now.Before(u.OneTimeTokenExpiresAt) {
			return cloneUser(u), nil
		}
	}
	return nil, ErrNotFound
}

func (s *InMemory) List(_ context.Context) ([]*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res := make([]*User, 0, len(s.users))
	for _, u := range s.users {
		if u.DeletedAt != nil {
			continue
		}
		res = append(res, cloneUser(u))
	}
	return res, nil
}

func (s *InMemory) Update(_ context.Context, u *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.users[u.ID]
	if !ok || existing.DeletedAt != nil {
		return ErrNotFound
	}
	s.users[u.ID] = cloneUser(u)
	return nil
}

func (s *InMemory) MarkDeleted(_ context.Context, id string, when time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok || u.DeletedAt != nil {
		return ErrNotFound
	}
	deleted := when
	u.DeletedAt = &deleted
	u.Status = StatusInactive
	u.UpdatedAt = when
	return nil
}

func cloneUser(u *User) *User {
	out := *u
	if u.DeletedAt != nil {
		deleted := *u.DeletedAt
		out.DeletedAt = &deleted
	}
	return &out
}
