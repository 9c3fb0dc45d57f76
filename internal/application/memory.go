package application

import (
	"context"
	"sort"
	"sync"
	"time"
)

// InMemory implements Store with one mutex spanning every check-then-act
// sequence, so the capacity and duplicate gates hold under concurrent
// creations exactly as the Postgres store's per-site row lock does.
type InMemory struct {
	mu   sync.RWMutex
	apps map[string]*Application
}

var _ Store = (*InMemory)(nil)

func NewInMemory() *InMemory {
	return &InMemory{apps: make(map[string]*Application)}
}

func (s *InMemory) Create(_ context.Context, app *Application, capacity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	active := 0
	for _, existing := range s.apps {
		if existing.DeletedAt != nil || existing.SiteID != app.SiteID {
			continue
		}
		if existing.ApplicantID == app.ApplicantID {
			return ErrDuplicateApplication
		}
		active++
	}
	if active >= capacity {
		return ErrCapacityExceeded
	}
	s.apps[app.ID] = cloneApp(app)
	return nil
}

func (s *InMemory) Find(_ context.Context, id string) (*Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	app, ok := s.apps[id]
	if !ok || app.DeletedAt != nil {
		return nil, ErrNotFound
	}
	return cloneApp(app), nil
}

func (s *InMemory) ListBySite(_ context.Context, siteID string) ([]*Application, error) {
	return s.filter(func(a *Application) bool { return a.SiteID == siteID }), nil
}

func (s *InMemory) ListByApplicant(_ context.Context, applicantID string) ([]*Application, error) {
	return s.filter(func(a *Application) bool { return a.ApplicantID == applicantID }), nil
}

func (s *InMemory) ListAll(_ context.Context) ([]*Application, error) {
	return s.filter(func(*Application) bool { return true }), nil
}

func (s *InMemory) CountActiveBySite(_ context.Context, siteID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, app := range s.apps {
		if app.DeletedAt == nil && app.SiteID == siteID {
			count++
		}
	}
	return count, nil
}

func (s *InMemory) Update(_ context.Context, app *Application) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.apps[app.ID]
	if !ok || existing.DeletedAt != nil {
		return ErrNotFound
	}
	s.apps[app.ID] = cloneApp(app)
	return nil
}

func (s *InMemory) SetStatus(_ context.Context, id string, status Status, when time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	app, ok := s.apps[id]
	if !ok || app.DeletedAt != nil {
		return ErrNotFound
	}
	app.Status = status
	app.UpdatedAt = when
	return nil
}

func (s *InMemory) AcceptAllPending(_ context.Context, siteID string, when time.Time) ([]*Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var updated []*Application
	for _, app := range s.apps {
		if app.DeletedAt != nil || app.SiteID != siteID || app.Status != StatusPending {
			continue
		}
		app.Status = StatusAccepted
		app.UpdatedAt = when
		updated = append(updated, cloneApp(app))
	}
	sortByCreatedAt(updated)
	return updated, nil
}

func (s *InMemory) MarkDeleted(_ context.Context, id, deletedBy string, when time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	app, ok := s.apps[id]
	if !ok || app.DeletedAt != nil {
		return ErrNotFound
	}
	deleted := when
	app.DeletedAt = &deleted
	app.DeletedBy = deletedBy
	app.UpdatedAt = when
	return nil
}

func (s *InMemory) filter(keep func(*Application) bool) []*Application {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res := make([]*Application, 0)
	for _, app := range s.apps {
		if app.DeletedAt != nil || !keep(app) {
			continue
		}
		res = append(res, cloneApp(app))
	}
	sortByCreatedAt(res)
	return res
}

func cloneApp(app *Application) *Application {
	out := *app
	if app.DeletedAt != nil {
		deleted := *app.DeletedAt
		out.DeletedAt = &deleted
	}
	return &out
}

func sortByCreatedAt(apps []*Application) {
	sort.Slice(apps, func(i, j int) bool {
		if apps[i].CreatedAt.Equal(apps[j].CreatedAt) {
			return apps[i].ID < apps[j].ID
		}
		return apps[i].CreatedAt.Before(apps[j].CreatedAt)
	})
}
