package application

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"ramani.co.tz/internal/auth"
	"ramani.co.tz/internal/ids"
	"ramani.co.tz/internal/notify"
	"ramani.co.tz/internal/obs"
	"ramani.co.tz/internal/site"
)

var phonePattern = regexp.MustCompile(`^(\+255|0)[67][0-9]{8}$`)

// SiteRegistry is the slice of the site service the workflow engine needs.
type SiteRegistry interface {
	Get(ctx context.Context, id string) (*site.Site, error)
}

// Service is the application workflow engine: capacity-gated creation, scoped
// reads, single and bulk approval with outbound notification, soft deletion.
type Service struct {
	store    Store
	sites    SiteRegistry
	notifier notify.Notifier
	now      func() time.Time
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

func NewService(store Store, sites SiteRegistry, notifier notify.Notifier, opts ...ServiceOption) *Service {
	svc := &Service{store: store, sites: sites, notifier: notifier, now: time.Now}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Create files a pending application for the calling applicant. The contact
// snapshot comes from the caller's identity, never from the request body. The
// capacity and duplicate gates are enforced inside the store as one atomic
// check-then-insert.
func (s *Service) Create(ctx context.Context, applicant auth.User, siteID string) (*Application, error) {
	posting, err := s.sites.Get(ctx, siteID)
	if err != nil {
		if errors.Is(err, site.ErrNotFound) {
			return nil, ErrSiteNotFound
		}
		return nil, err
	}

	now := s.now().UTC()
	app := &Application{
		ID:          ids.New(),
		SiteID:      posting.ID,
		ApplicantID: applicant.ID,
		Name:        applicant.Name,
		Email:       applicant.Email,
		Phone:       applicant.Phone,
		Status:      StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.Create(ctx, app, posting.RequiredHandymen); err != nil {
		return nil, err
	}
	return app, nil
}

// List returns applications for one site, or system-wide when siteID is
// empty. Role gating happens at the HTTP layer; empty results are an empty
// list, not an error.
func (s *Service) List(ctx context.Context, siteID string) ([]*Application, error) {
	if siteID != "" {
		return s.store.ListBySite(ctx, siteID)
	}
	return s.store.ListAll(ctx)
}

// ListMine returns the caller's own applications.
func (s *Service) ListMine(ctx context.Context, applicantID string) ([]*Application, error) {
	return s.store.ListByApplicant(ctx, applicantID)
}

// GetMine returns one of the caller's own applications.
func (s *Service) GetMine(ctx context.Context, applicantID, id string) (*Application, error) {
	app, err := s.store.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if app.ApplicantID != applicantID {
		return nil, ErrNotFound
	}
	return app, nil
}

// Get returns an application if the requester may see it: admins always, the
// owning applicant always, the engineer owning the site the application
// targets.
func (s *Service) Get(ctx context.Context, requester auth.User, id string) (*Application, error) {
	app, err := s.store.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	switch {
	case requester.Role == auth.RoleAdmin:
		return app, nil
	case app.ApplicantID == requester.ID:
		return app, nil
	case requester.Role == auth.RoleEngineer:
		posting, err := s.sites.Get(ctx, app.SiteID)
		if err != nil {
			return nil, err
		}
		if posting.EngineerID == requester.ID {
			return app, nil
		}
	}
	return nil, auth.ErrForbidden
}

// ApproveOne transitions a pending application to accepted and notifies the
// applicant. Only the engineer owning the site may approve. The transition is
// committed before notification; a failed email surfaces as
// ErrNotificationFailed without rolling anything back.
func (s *Service) ApproveOne(ctx context.Context, approver auth.User, id string) (*Application, error) {
	app, err := s.store.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	posting, err := s.sites.Get(ctx, app.SiteID)
	if err != nil {
		if errors.Is(err, site.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if posting.EngineerID != approver.ID {
		return nil, auth.ErrForbidden
	}
	if app.Status != StatusPending {
		return nil, ErrAlreadyDecided
	}

	now := s.now().UTC()
	if err := s.store.SetStatus(ctx, app.ID, StatusAccepted, now); err != nil {
		return nil, err
	}
	app.Status = StatusAccepted
	app.UpdatedAt = now

	if err := s.notifier.Send(ctx, notify.Message{
		To:        app.Email,
		FirstName: firstName(app.Name),
		Kind:      notify.KindApproved,
		SiteTitle: posting.Title,
	}); err != nil {
		// The approval is already durable; the caller still learns about the
		// email outage.
		return app, ErrNotificationFailed
	}
	return app, nil
}

// ApproveResult is the outcome of a bulk approval.
type ApproveResult struct {
	ApprovedCount       int `json:"approved_count"`
	FailedNotifications int `json:"failed_notifications"`
}

// ApproveAll accepts every pending application of a site in one batch, then
// notifies each applicant independently. Notification failures for a subset
// never block the rest and never fail the call; they are reported in the
// result. The count reflects rows the batch update actually touched.
func (s *Service) ApproveAll(ctx context.Context, approver auth.User, siteID string) (ApproveResult, error) {
	posting, err := s.sites.Get(ctx, siteID)
	if err != nil {
		if errors.Is(err, site.ErrNotFound) {
			return ApproveResult{}, ErrSiteNotFound
		}
		return ApproveResult{}, err
	}
	if posting.EngineerID != approver.ID {
		return ApproveResult{}, auth.ErrForbidden
	}

	updated, err := s.store.AcceptAllPending(ctx, siteID, s.now().UTC())
	if err != nil {
		return ApproveResult{}, err
	}
	if len(updated) == 0 {
		return ApproveResult{}, ErrNoPending
	}

	result := ApproveResult{ApprovedCount: len(updated)}
	for _, app := range updated {
		if err := s.notifier.Send(ctx, notify.Message{
			To:        app.Email,
			FirstName: firstName(app.Name),
			Kind:      notify.KindApproved,
			SiteTitle: posting.Title,
		}); err != nil {
			result.FailedNotifications++
			obs.Logger().Warn("approval email failed",
				zap.String("application_id", app.ID),
				zap.String("site_id", siteID),
				zap.Error(err),
			)
		}
	}
	return result, nil
}

// UpdateParams is the applicant-editable contact snapshot.
type UpdateParams struct {
	Name  *string
	Email *string
	Phone *string
}

// Update lets the owning applicant (or an admin) amend the contact snapshot.
func (s *Service) Update(ctx context.Context, requester auth.User, id string, patch UpdateParams) (*Application, error) {
	app, err := s.store.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if app.ApplicantID != requester.ID && requester.Role != auth.RoleAdmin {
		return nil, auth.ErrForbidden
	}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if len(name) < 3 || len(name) > 50 {
			return nil, fmt.Errorf("%w: name must be between 3 and 50 characters", ErrInvalidInput)
		}
		app.Name = name
	}
	if patch.Email != nil {
		email := strings.TrimSpace(strings.ToLower(*patch.Email))
		if _, err := mail.ParseAddress(email); err != nil {
			return nil, fmt.Errorf("%w: please enter a valid email", ErrInvalidInput)
		}
		app.Email = email
	}
	if patch.Phone != nil {
		phone := strings.TrimSpace(*patch.Phone)
		if !phonePattern.MatchString(phone) {
			return nil, fmt.Errorf("%w: %s is not a valid phone number", ErrInvalidInput, phone)
		}
		app.Phone = phone
	}
	app.UpdatedAt = s.now().UTC()
	if err := s.store.Update(ctx, app); err != nil {
		return nil, err
	}
	return app, nil
}

// Delete tombstones an application, recording who deleted it. The slot it
// occupied frees up: the applicant may apply to the site again afterwards.
func (s *Service) Delete(ctx context.Context, requester auth.User, id string) error {
	app, err := s.store.Find(ctx, id)
	if err != nil {
		return err
	}
	if app.ApplicantID != requester.ID && requester.Role != auth.RoleAdmin {
		return auth.ErrForbidden
	}
	return s.store.MarkDeleted(ctx, id, requester.ID, s.now().UTC())
}

func firstName(name string) string {
	name = strings.TrimSpace(name)
	if i := strings.IndexByte(name, ' '); i > 0 {
		return name[:i]
	}
	return name
}
