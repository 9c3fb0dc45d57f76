package site

import (
	"context"
	"sort"
	"sync"
)

// InMemory implements Store for development mode and tests.
type InMemory struct {
	mu    sync.RWMutex
	sites map[string]*Site
}

var _ Store = (*InMemory)(nil)

func NewInMemory() *InMemory {
	return &InMemory{sites: make(map[string]*Site)}
}

func (s *InMemory) Create(_ context.Context, posting *Site) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sites[posting.ID] = cloneSite(posting)
	return nil
}

func (s *InMemory) Find(_ context.Context, id string) (*Site, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	posting, ok := s.sites[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneSite(posting), nil
}

func (s *InMemory) List(_ context.Context) ([]*Site, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res := make([]*Site, 0, len(s.sites))
	for _, posting := range s.sites {
		res = append(res, cloneSite(posting))
	}
	sortByPostedAt(res)
	return res, nil
}

func (s *InMemory) ListByEngineer(_ context.Context, engineerID string) ([]*Site, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var res []*Site
	for _, posting := range s.sites {
		if posting.EngineerID == engineerID {
			res = append(res, cloneSite(posting))
		}
	}
	sortByPostedAt(res)
	return res, nil
}

func (s *InMemory) Update(_ context.Context, posting *Site) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sites[posting.ID]; !ok {
		return ErrNotFound
	}
	s.sites[posting.ID] = cloneSite(posting)
	return nil
}

func (s *InMemory) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sites[id]; !ok {
		return ErrNotFound
	}
	delete(s.sites, id)
	return nil
}

func cloneSite(posting *Site) *Site {
	out := *posting
	if posting.SkillsRequired != nil {
		out.SkillsRequired = append([]string(nil), posting.SkillsRequired...)
	}
	return &out
}

func sortByPostedAt(sites []*Site) {
	sort.Slice(sites, func(i, j int) bool {
		if sites[i].PostedAt.Equal(sites[j].PostedAt) {
			return sites[i].ID < sites[j].ID
		}
		return sites[i].PostedAt.Before(sites[j].PostedAt)
	})
}
