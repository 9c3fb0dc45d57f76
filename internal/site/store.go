package site

import "context"

// Store describes persistence for site postings.
type Store interface {
	Create(ctx context.Context, s *Site) error
	Find(ctx context.Context, id string) (*Site, error)
	List(ctx context.Context) ([]*Site, error)
	ListByEngineer(ctx context.Context, engineerID string) ([]*Site, error)
	Update(ctx context.Context, s *Site) error
	Delete(ctx context.Context, id string) error
}
