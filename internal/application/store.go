package application

import (
	"context"
	"time"
)

// Store describes persistence for applications. Every read filters tombstoned
// rows; Create must be atomic against concurrent creations for the same site
// (capacity gate) and the same (applicant, site) pair (duplicate gate).
type Store interface {
	// Create inserts a pending application if and only if the site's
	// non-deleted application count is below capacity and the applicant holds
	// no non-deleted application for the site. Implementations serialize the
	// check-then-insert so concurrent callers can never overshoot capacity.
	Create(ctx context.Context, app *Application, capacity int) error

	Find(ctx context.Context, id string) (*Application, error)
	ListBySite(ctx context.Context, siteID string) ([]*Application, error)
	ListByApplicant(ctx context.Context, applicantID string) ([]*Application, error)
	ListAll(ctx context.Context) ([]*Application, error)
	// CountActiveBySite counts non-deleted applications for a site.
	CountActiveBySite(ctx context.Context, siteID string) (int, error)

	Update(ctx context.Context, app *Application) error
	SetStatus(ctx context.Context, id string, status Status, when time.Time) error
	// AcceptAllPending transitions every pending application of the site to
	// accepted in one batch and returns the rows actually updated, so callers
	// derive the count from the update itself rather than a prior selection.
	AcceptAllPending(ctx context.Context, siteID string, when time.Time) ([]*Application, error)
	MarkDeleted(ctx context.Context, id, deletedBy string, when time.Time) error
}
