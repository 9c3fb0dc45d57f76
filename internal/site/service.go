package site

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ramani.co.tz/internal/auth"
	"ramani.co.tz/internal/ids"
)

// Service wraps the store with ownership checks and input validation. The
// application workflow engine only consumes Get; the rest is the posting CRUD
// surface for engineers and admins.
type Service struct {
	store Store
	now   func() time.Time
}

// ServiceOption configures Service behavior.
type ServiceOption func(*Service)

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) ServiceOption {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

func NewService(store Store, opts ...ServiceOption) *Service {
	svc := &Service{store: store, now: time.Now}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// CreateParams carries a new posting. The owning engineer comes from the
// authenticated caller, never from the body.
type CreateParams struct {
	Title            string
	Address          Address
	RequiredHandymen int
	SkillsRequired   []string
	StartDate        time.Time
	EndDate          time.Time
	PaymentPerDay    string
	Description      string
}

// Create registers a posting owned by the calling engineer.
func (s *Service) Create(ctx context.Context, owner auth.User, params CreateParams) (*Site, error) {
	if err := validateParams(params); err != nil {
		return nil, err
	}
	now := s.now().UTC()
	posting := &Site{
		ID:               ids.New(),
		EngineerID:       owner.ID,
		EngineerName:     owner.Name,
		Title:            strings.TrimSpace(params.Title),
		Address:          params.Address,
		RequiredHandymen: params.RequiredHandymen,
		SkillsRequired:   params.SkillsRequired,
		StartDate:        params.StartDate,
		EndDate:          params.EndDate,
		PaymentPerDay:    strings.TrimSpace(params.PaymentPerDay),
		Description:      strings.TrimSpace(params.Description),
		PostedAt:         now,
		UpdatedAt:        now,
	}
	if err := s.store.Create(ctx, posting); err != nil {
		return nil, err
	}
	return posting, nil
}

// Get returns a posting by id.
func (s *Service) Get(ctx context.Context, id string) (*Site, error) {
	return s.store.Find(ctx, id)
}

// List returns all postings.
func (s *Service) List(ctx context.Context) ([]*Site, error) {
	return s.store.List(ctx)
}

// ListMine returns the caller's postings.
func (s *Service) ListMine(ctx context.Context, engineerID string) ([]*Site, error) {
	return s.store.ListByEngineer(ctx, engineerID)
}

// UpdateParams is the mutable subset of a posting.
type UpdateParams struct {
	Title            *string
	Address          *Address
	RequiredHandymen *int
	SkillsRequired   *[]string
	StartDate        *time.Time
	EndDate          *time.Time
	PaymentPerDay    *string
	Description      *string
}

// Update applies a patch; only the owning engineer or an admin may mutate.
func (s *Service) Update(ctx context.Context, requester auth.User, id string, patch UpdateParams) (*Site, error) {
	posting, err := s.store.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if posting.EngineerID != requester.ID && requester.Role != auth.RoleAdmin {
		return nil, auth.ErrForbidden
	}
	if patch.Title != nil {
		posting.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Address != nil {
		posting.Address = *patch.Address
	}
	if patch.RequiredHandymen != nil {
		if *patch.RequiredHandymen <= 0 {
			return nil, fmt.Errorf("%w: required handymen must be positive", ErrInvalidInput)
		}
		posting.RequiredHandymen = *patch.RequiredHandymen
	}
	if patch.SkillsRequired != nil {
		posting.SkillsRequired = *patch.SkillsRequired
	}
	if patch.StartDate != nil {
		posting.StartDate = *patch.StartDate
	}
	if patch.EndDate != nil {
		posting.EndDate = *patch.EndDate
	}
	if patch.PaymentPerDay != nil {
		posting.PaymentPerDay = strings.TrimSpace(*patch.PaymentPerDay)
	}
	if patch.Description != nil {
		posting.Description = strings.TrimSpace(*patch.Description)
	}
	if posting.Title == "" {
		return nil, fmt.Errorf("%w: title cannot be empty", ErrInvalidInput)
	}
	if posting.EndDate.Before(posting.StartDate) {
		return nil, fmt.Errorf("%w: end date precedes start date", ErrInvalidInput)
	}
	posting.UpdatedAt = s.now().UTC()
	if err := s.store.Update(ctx, posting); err != nil {
		return nil, err
	}
	return posting, nil
}

// Delete removes a posting; owner or admin only.
func (s *Service) Delete(ctx context.Context, requester auth.User, id string) error {
	posting, err := s.store.Find(ctx, id)
	if err != nil {
		return err
	}
	if posting.EngineerID != requester.ID && requester.Role != auth.RoleAdmin {
		return auth.ErrForbidden
	}
	return s.store.Delete(ctx, id)
}

func validateParams(params CreateParams) error {
	if strings.TrimSpace(params.Title) == "" {
		return fmt.Errorf("%w: title cannot be empty", ErrInvalidInput)
	}
	if params.RequiredHandymen <= 0 {
		return fmt.Errorf("%w: required handymen must be positive", ErrInvalidInput)
	}
	if strings.TrimSpace(params.Address.Street) == "" ||
		strings.TrimSpace(params.Address.City) == "" ||
		strings.TrimSpace(params.Address.Region) == "" ||
		strings.TrimSpace(params.Address.Country) == "" {
		return fmt.Errorf("%w: street, city, region and country are required", ErrInvalidInput)
	}
	if params.StartDate.IsZero() || params.EndDate.IsZero() {
		return fmt.Errorf("%w: start and end dates are required", ErrInvalidInput)
	}
	if params.EndDate.Before(params.StartDate) {
		return fmt.Errorf("%w: end date precedes start date", ErrInvalidInput)
	}
	if strings.TrimSpace(params.PaymentPerDay) == "" {
		return fmt.Errorf("%w: payment per day is required", ErrInvalidInput)
	}
	return nil
}
